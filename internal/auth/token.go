package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the JWT claims embedded in every issued token. The scope set is
// self-contained: verification needs no server-side session state.
type Claims struct {
	Scopes []string `json:"scopes"`
	jwt.RegisteredClaims
}

func signingMethod(name string) (*jwt.SigningMethodHMAC, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "HS256":
		return jwt.SigningMethodHS256, nil
	case "HS384":
		return jwt.SigningMethodHS384, nil
	case "HS512":
		return jwt.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("%w: unsupported signing algorithm %q", ErrInvalidInput, name)
	}
}

// IssueToken signs a bearer token for the subject carrying the granted
// scopes. Issuance is stateless; the expiry is the only lifetime control.
func (s *Service) IssueToken(subject string, scopes []string) (string, time.Time, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", time.Time{}, fmt.Errorf("%w: subject is required", ErrInvalidInput)
	}
	now := s.now().UTC()
	expiresAt := now.Add(s.tokenTTL)
	claims := Claims{
		Scopes: normalizeScopes(scopes),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(s.method, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// parseToken verifies structure, signature and expiry. Every failure mode
// collapses into ErrInvalidCredentials; callers cannot tell a tampered token
// from an expired one.
func (s *Service) parseToken(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidCredentials
	}
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != s.method {
			return nil, ErrInvalidCredentials
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now().UTC() }))
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidCredentials
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidCredentials
	}
	if s.issuer != "" && claims.Issuer != s.issuer {
		return nil, ErrInvalidCredentials
	}
	claims.Scopes = normalizeScopes(claims.Scopes)
	return claims, nil
}
