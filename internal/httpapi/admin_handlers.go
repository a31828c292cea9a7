package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"examhub.org/internal/audit"
	"examhub.org/internal/auth"
	"examhub.org/internal/quiz"
)

type accessRequest struct {
	Username string `json:"username"`
	Disabled bool   `json:"disabled"`
}

type assignRequest struct {
	Username  string    `json:"username"`
	TestID    string    `json:"test_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if !a.ensureScopes(w, r, "admin", "dev") {
		return
	}

	accounts, err := a.auth.Accounts(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	disabled := 0
	for _, acc := range accounts {
		if acc.Disabled {
			disabled++
		}
	}

	summary := map[string]any{
		"accounts":          len(accounts),
		"accounts_disabled": disabled,
	}
	if principal, ok := auth.PrincipalFromContext(r.Context()); ok {
		summary["username"] = principal.Account.Username
		summary["role"] = principal.Account.Role
		summary["scopes"] = principal.ScopeList()
	}
	if a.quiz != nil {
		tests, err := a.quiz.ListTests(r.Context())
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
		summary["tests"] = len(tests)
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleAccess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	if !a.ensureScopes(w, r, "admin", "dev") {
		return
	}

	var req accessRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		writeError(w, r, http.StatusBadRequest, "username is required")
		return
	}

	if err := a.auth.SetDisabled(r.Context(), req.Username, req.Disabled); err != nil {
		a.handleAuthError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "admin.access.update", map[string]any{
		"target":   req.Username,
		"disabled": req.Disabled,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"username": req.Username,
		"disabled": req.Disabled,
	})
}

func (a *API) handleTests(w http.ResponseWriter, r *http.Request) {
	if !a.ensureScopes(w, r, "admin", "dev") {
		return
	}
	switch r.Method {
	case http.MethodPost:
		var req quiz.TestCreate
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		test, err := a.quiz.CreateTest(r.Context(), req)
		if err != nil {
			handleQuizError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "admin.test.create", map[string]any{
			"test_id": test.ID,
			"title":   test.Title,
		})
		w.Header().Set("Location", fmt.Sprintf("/v1/admin/tests/%s", test.ID))
		writeJSON(w, http.StatusCreated, test)
	case http.MethodGet:
		tests, err := a.quiz.ListTests(r.Context())
		if err != nil {
			handleQuizError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"tests": tests})
	default:
		methodNotAllowed(w, r, http.MethodPost, http.MethodGet)
	}
}

func (a *API) handleTestByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if !a.ensureScopes(w, r, "admin", "dev") {
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/admin/tests/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	test, err := a.quiz.GetTest(r.Context(), id)
	if err != nil {
		handleQuizError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, test)
}

func (a *API) handleAssignments(w http.ResponseWriter, r *http.Request) {
	if !a.ensureScopes(w, r, "admin", "dev") {
		return
	}
	switch r.Method {
	case http.MethodPost:
		var req assignRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		assignment := quiz.Assignment{
			Username:  strings.TrimSpace(req.Username),
			TestID:    strings.TrimSpace(req.TestID),
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
		}
		if err := a.quiz.Assign(r.Context(), assignment); err != nil {
			handleQuizError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "admin.assignment.create", map[string]any{
			"target":  assignment.Username,
			"test_id": assignment.TestID,
		})
		writeJSON(w, http.StatusCreated, assignment)
	case http.MethodGet:
		byUser, err := a.quiz.AssignmentsByUser(r.Context())
		if err != nil {
			handleQuizError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"assignments": byUser})
	default:
		methodNotAllowed(w, r, http.MethodPost, http.MethodGet)
	}
}

func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if !a.ensureScopes(w, r, "dev") {
		return
	}
	accounts, err := a.auth.Accounts(r.Context())
	if err != nil {
		a.handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": accounts})
}

func handleQuizError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, quiz.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, quiz.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
