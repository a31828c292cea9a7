package auth

import (
	"sort"
	"strings"
	"time"
)

// Account is the identity record owned by the credential store. The username
// is the primary key and immutable after creation.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	Disabled     bool      `json:"disabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal is the result of a successful token verification: the resolved
// account plus the scope set granted by the token. Valid for one request,
// never persisted.
type Principal struct {
	Account Account
	Scopes  map[string]struct{}
}

// NewPrincipal builds a principal from an account and granted scopes.
func NewPrincipal(account Account, scopes []string) Principal {
	set := make(map[string]struct{}, len(scopes))
	for _, s := range scopes {
		set[s] = struct{}{}
	}
	return Principal{Account: account, Scopes: set}
}

// HasScope reports whether the principal was granted the scope.
func (p Principal) HasScope(scope string) bool {
	_, ok := p.Scopes[scope]
	return ok
}

// HasScopes reports whether every required scope is present (subset test).
func (p Principal) HasScopes(required ...string) bool {
	for _, s := range required {
		if _, ok := p.Scopes[s]; !ok {
			return false
		}
	}
	return true
}

// ScopeList returns the granted scopes in sorted order.
func (p Principal) ScopeList() []string {
	out := make([]string, 0, len(p.Scopes))
	for s := range p.Scopes {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func normalizeScopes(scopes []string) []string {
	if len(scopes) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(scopes))
	var normalized []string
	for _, scope := range scopes {
		scope = strings.TrimSpace(strings.ToLower(scope))
		if scope == "" {
			continue
		}
		if _, ok := seen[scope]; ok {
			continue
		}
		seen[scope] = struct{}{}
		normalized = append(normalized, scope)
	}
	return normalized
}
