package auth

import (
	"errors"
	"testing"

	"slices"
)

func TestPolicyResolve(t *testing.T) {
	policy, err := NewPolicy(map[string][]string{
		"Admin": {"Admin", "dev", "admin"},
		"dev":   {"dev"},
	})
	if err != nil {
		t.Fatalf("NewPolicy: %v", err)
	}

	scopes, err := policy.Resolve("ADMIN")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(scopes) != 2 || !slices.Contains(scopes, "admin") || !slices.Contains(scopes, "dev") {
		t.Fatalf("expected deduplicated admin scopes, got %v", scopes)
	}

	// Callers must not be able to mutate the table through the result.
	scopes[0] = "superadmin"
	again, err := policy.Resolve("admin")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if slices.Contains(again, "superadmin") {
		t.Fatalf("resolve result aliased the policy table: %v", again)
	}
}

func TestPolicyUnknownRole(t *testing.T) {
	policy, err := NewPolicy(map[string][]string{"dev": {"dev"}})
	if err != nil {
		t.Fatalf("NewPolicy: %v", err)
	}
	if _, err := policy.Resolve("superadmin"); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}

func TestNewPolicyRejectsDegenerateTables(t *testing.T) {
	if _, err := NewPolicy(nil); err == nil {
		t.Fatalf("expected error for empty table")
	}
	if _, err := NewPolicy(map[string][]string{"dev": {"  "}}); err == nil {
		t.Fatalf("expected error for role with no scopes")
	}
}
