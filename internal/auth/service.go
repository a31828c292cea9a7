package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 30 * time.Minute

// Service ties the credential store, the password hasher, the policy table
// and the token codec into the signup/login/authorize flows. All state is
// read-only after construction, so one Service serves any number of
// concurrent requests.
type Service struct {
	store    Store
	policy   *Policy
	secret   []byte
	method   *jwt.SigningMethodHMAC
	issuer   string
	tokenTTL time.Duration
	now      func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service) error

// WithIssuer sets the issuer claim stamped into and required of tokens.
func WithIssuer(issuer string) ServiceOption {
	return func(s *Service) error {
		s.issuer = strings.TrimSpace(issuer)
		return nil
	}
}

// WithTokenTTL overrides the fixed token lifetime.
func WithTokenTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) error {
		if ttl <= 0 {
			return fmt.Errorf("%w: token ttl must be positive", ErrInvalidInput)
		}
		s.tokenTTL = ttl
		return nil
	}
}

// WithAlgorithm selects the HMAC signing algorithm (HS256, HS384, HS512).
func WithAlgorithm(name string) ServiceOption {
	return func(s *Service) error {
		method, err := signingMethod(name)
		if err != nil {
			return err
		}
		s.method = method
		return nil
	}
}

// WithClock overrides the time source. Only useful in tests.
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// NewService constructs the auth service. The signing secret and the policy
// table are injected here and treated as immutable for the process lifetime.
func NewService(store Store, policy *Policy, secret string, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	if policy == nil {
		return nil, errors.New("auth: policy is required")
	}
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	svc := &Service{
		store:    store,
		policy:   policy,
		secret:   []byte(secret),
		method:   jwt.SigningMethodHS256,
		tokenTTL: defaultTokenTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		if err := opt(svc); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

// Policy exposes the role→scope table for callers that list known roles.
func (s *Service) Policy() *Policy { return s.policy }

// TokenTTL returns the fixed lifetime stamped into issued tokens.
func (s *Service) TokenTTL() time.Duration { return s.tokenTTL }

// SignUp creates an account and issues its first token. The role is resolved
// against the policy table before anything is persisted, so an unknown role
// never leaves partial state behind.
func (s *Service) SignUp(ctx context.Context, username, name, password, role string) (Account, string, time.Time, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return Account{}, "", time.Time{}, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if password == "" {
		return Account{}, "", time.Time{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	scopes, err := s.policy.Resolve(role)
	if err != nil {
		return Account{}, "", time.Time{}, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return Account{}, "", time.Time{}, err
	}
	account, err := s.store.CreateAccount(ctx, Account{
		Username:     username,
		Name:         strings.TrimSpace(name),
		Role:         strings.TrimSpace(strings.ToLower(role)),
		PasswordHash: hash,
	})
	if err != nil {
		return Account{}, "", time.Time{}, err
	}
	token, expiresAt, err := s.IssueToken(account.Username, scopes)
	if err != nil {
		return Account{}, "", time.Time{}, err
	}
	return account, token, expiresAt, nil
}

// Authenticate verifies a username/password pair and issues a token carrying
// the scopes the account's role grants. A missing account and a wrong
// password are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (string, time.Time, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", time.Time{}, ErrInvalidCredentials
	}
	account, err := s.store.LookupAccount(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", time.Time{}, ErrInvalidCredentials
		}
		return "", time.Time{}, err
	}
	if !VerifyPassword(account.PasswordHash, password) {
		return "", time.Time{}, ErrInvalidCredentials
	}
	if account.Disabled {
		return "", time.Time{}, ErrAccountDisabled
	}
	scopes, err := s.policy.Resolve(account.Role)
	if err != nil {
		return "", time.Time{}, err
	}
	return s.IssueToken(account.Username, scopes)
}

// Authorize verifies a bearer token against the required scope set and
// returns the authenticated principal. The checks run in a fixed order:
// signature and structure, subject claim, expiry, account lookup, scope
// subset, disabled flag. Signature, expiry and unknown-subject failures all
// surface as ErrInvalidCredentials; a scope miss is distinguishable because
// at that point the caller's identity is already established.
func (s *Service) Authorize(ctx context.Context, raw string, requiredScopes []string) (Principal, error) {
	claims, err := s.parseToken(raw)
	if err != nil {
		return Principal{}, err
	}
	account, err := s.store.LookupAccount(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Principal{}, ErrInvalidCredentials
		}
		return Principal{}, err
	}
	principal := NewPrincipal(account, claims.Scopes)
	for _, scope := range normalizeScopes(requiredScopes) {
		if !principal.HasScope(scope) {
			return Principal{}, ErrInsufficientScope
		}
	}
	if account.Disabled {
		return Principal{}, ErrAccountDisabled
	}
	return principal, nil
}

// SetDisabled flips the administrative disabled flag on an account.
func (s *Service) SetDisabled(ctx context.Context, username string, disabled bool) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	return s.store.SetDisabled(ctx, username, disabled)
}

// Accounts lists all accounts. Password hashes never serialize outward.
func (s *Service) Accounts(ctx context.Context) ([]Account, error) {
	return s.store.ListAccounts(ctx)
}

// Account returns a single account by username.
func (s *Service) Account(ctx context.Context, username string) (Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return Account{}, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	return s.store.LookupAccount(ctx, username)
}
