package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func seedAccount(t *testing.T, store *memStore, username, role string) {
	t.Helper()
	hash, err := HashPassword("pw-" + username)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if _, err := store.CreateAccount(context.Background(), Account{
		Username:     username,
		Name:         strings.ToUpper(username[:1]) + username[1:],
		Role:         role,
		PasswordHash: hash,
	}); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
}

func TestIssueTokenRoundTrip(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store, WithIssuer("examhub"), WithTokenTTL(10*time.Minute))
	seedAccount(t, store, "alice", "admin")

	token, expiresAt, err := svc.IssueToken("alice", []string{"Admin", "dev", "admin"})
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if until := time.Until(expiresAt); until <= 9*time.Minute || until > 10*time.Minute {
		t.Fatalf("unexpected expiry window: %v", until)
	}

	principal, err := svc.Authorize(context.Background(), token, []string{"admin", "dev"})
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if principal.Account.Username != "alice" {
		t.Fatalf("unexpected subject: %s", principal.Account.Username)
	}
	if got := principal.ScopeList(); len(got) != 2 {
		t.Fatalf("scopes were not deduplicated: %v", got)
	}
}

func TestAuthorizeTamperedToken(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	seedAccount(t, store, "alice", "admin")

	token, _, err := svc.IssueToken("alice", []string{"admin"})
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	// Flip a single bit at several positions across header, payload and
	// signature; every mutation must fail the signature check.
	for _, pos := range []int{2, len(token) / 3, len(token) / 2, len(token) - 2} {
		raw := []byte(token)
		if raw[pos] == '.' {
			pos++
		}
		raw[pos] ^= 0x01
		if _, err := svc.Authorize(context.Background(), string(raw), nil); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("bit flip at %d: expected ErrInvalidCredentials, got %v", pos, err)
		}
	}
}

func TestAuthorizeExpiredToken(t *testing.T) {
	store := newMemStore()
	current := time.Now().UTC()
	svc := newTestService(t, store,
		WithTokenTTL(5*time.Minute),
		WithClock(func() time.Time { return current }),
	)
	seedAccount(t, store, "alice", "admin")

	token, _, err := svc.IssueToken("alice", []string{"admin"})
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := svc.Authorize(context.Background(), token, nil); err != nil {
		t.Fatalf("fresh token rejected: %v", err)
	}

	current = current.Add(5*time.Minute + time.Second)
	// Expiry is indistinguishable from forgery at the error level.
	if _, err := svc.Authorize(context.Background(), token, nil); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials after expiry, got %v", err)
	}
}

func TestAuthorizeUnknownSubject(t *testing.T) {
	svc := newTestService(t, newMemStore())
	token, _, err := svc.IssueToken("ghost", []string{"dev"})
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := svc.Authorize(context.Background(), token, nil); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthorizeDisabledAccount(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	seedAccount(t, store, "carol", "dev")

	token, _, err := svc.IssueToken("carol", []string{"dev"})
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if err := store.SetDisabled(context.Background(), "carol", true); err != nil {
		t.Fatalf("SetDisabled: %v", err)
	}
	if _, err := svc.Authorize(context.Background(), token, []string{"dev"}); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
	// A scope the token never granted still reads as a scope failure: the
	// subset check precedes the disabled check.
	if _, err := svc.Authorize(context.Background(), token, []string{"admin"}); !errors.Is(err, ErrInsufficientScope) {
		t.Fatalf("expected ErrInsufficientScope, got %v", err)
	}
}

func TestAuthorizeRejectsForeignSigner(t *testing.T) {
	store := newMemStore()
	seedAccount(t, store, "alice", "admin")
	svc := newTestService(t, store)

	other, err := NewService(store, testPolicy(t), "a-different-secret")
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	token, _, err := other.IssueToken("alice", []string{"admin"})
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := svc.Authorize(context.Background(), token, nil); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthorizeGarbageTokens(t *testing.T) {
	svc := newTestService(t, newMemStore())
	for _, raw := range []string{"", "  ", "not.a.jwt", "a.b", strings.Repeat("x", 64)} {
		if _, err := svc.Authorize(context.Background(), raw, nil); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("raw %q: expected ErrInvalidCredentials, got %v", raw, err)
		}
	}
}
