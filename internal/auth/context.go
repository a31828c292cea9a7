package auth

import "context"

type ctxKey int

const (
	principalKey ctxKey = iota
	tokenKey
)

// ContextWithPrincipal returns a context carrying the authorized principal.
// Handlers downstream of the auth middleware read it back with
// PrincipalFromContext.
func ContextWithPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

// PrincipalFromContext reports the principal set by the auth middleware. The
// second return is false on requests that never passed authorization.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	principal, ok := ctx.Value(principalKey).(Principal)
	return principal, ok
}

// ContextWithToken keeps the raw bearer token alongside the principal so a
// handler can re-check it with different scope requirements.
func ContextWithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext returns the raw bearer token, if one was attached.
func TokenFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	token, ok := ctx.Value(tokenKey).(string)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}
