package auth

import (
	"fmt"
	"strings"
)

// Policy is the static role→scope table. It is built once at startup from
// configuration and never mutated afterwards, so concurrent reads need no
// locking.
type Policy struct {
	grants map[string][]string
}

// NewPolicy builds a policy from a role→scopes mapping. Role names and
// scopes are lower-cased, trimmed and deduplicated; a role mapping to an
// empty scope set is rejected.
func NewPolicy(grants map[string][]string) (*Policy, error) {
	if len(grants) == 0 {
		return nil, fmt.Errorf("%w: at least one role is required", ErrInvalidInput)
	}
	table := make(map[string][]string, len(grants))
	for role, scopes := range grants {
		role = strings.TrimSpace(strings.ToLower(role))
		if role == "" {
			return nil, fmt.Errorf("%w: empty role name", ErrInvalidInput)
		}
		normalized := normalizeScopes(scopes)
		if len(normalized) == 0 {
			return nil, fmt.Errorf("%w: role %q grants no scopes", ErrInvalidInput, role)
		}
		table[role] = normalized
	}
	return &Policy{grants: table}, nil
}

// Resolve returns a copy of the scope set granted to accounts of the role.
func (p *Policy) Resolve(role string) ([]string, error) {
	role = strings.TrimSpace(strings.ToLower(role))
	scopes, ok := p.grants[role]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRole, role)
	}
	out := make([]string, len(scopes))
	copy(out, scopes)
	return out, nil
}

// Roles returns the role names known to the policy.
func (p *Policy) Roles() []string {
	out := make([]string, 0, len(p.grants))
	for role := range p.grants {
		out = append(out, role)
	}
	return out
}
