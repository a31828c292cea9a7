package httpapi

import (
	"net/http"
	"strings"
	"time"

	"examhub.org/internal/audit"
	"examhub.org/internal/auth"
)

type signupRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (a *API) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "username and password are required")
		return
	}

	account, token, expiresAt, err := a.auth.SignUp(r.Context(), req.Username, req.Name, req.Password, req.Role)
	if err != nil {
		a.handleAuthError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.signup", map[string]any{
		"username":   account.Username,
		"role":       account.Role,
		"expires_at": expiresAt.Format(time.RFC3339),
	})

	writeJSON(w, http.StatusCreated, map[string]any{
		"account":    account,
		"token":      token,
		"token_type": "bearer",
		"expires_at": expiresAt,
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	token, expiresAt, err := a.auth.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		a.handleAuthError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"username":   strings.TrimSpace(req.Username),
		"expires_at": expiresAt.Format(time.RFC3339),
	})

	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     token,
		TokenType: "bearer",
		ExpiresAt: expiresAt,
	})
}

func (a *API) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"username": principal.Account.Username,
		"name":     principal.Account.Name,
		"role":     principal.Account.Role,
		"scopes":   principal.ScopeList(),
	})
}
