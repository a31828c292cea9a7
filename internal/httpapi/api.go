package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"examhub.org/internal/auth"
	"examhub.org/internal/download"
	"examhub.org/internal/mail"
	"examhub.org/internal/obs"
	"examhub.org/internal/quiz"
)

// ReadyProbe reports whether the service can take traffic (usually a DB ping).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Deps carries the services the HTTP layer exposes. Mail and Fetcher may be
// nil when the corresponding config sections are absent.
type Deps struct {
	Auth    *auth.Service
	Quiz    *quiz.Service
	Mail    *mail.Service
	Fetcher *download.Fetcher

	// ExportDir is where mailbox reports are written as .xlsx files.
	ExportDir string
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	auth      *auth.Service
	quiz      *quiz.Service
	mail      *mail.Service
	fetcher   *download.Fetcher
	exportDir string
}

func New(rp ReadyProbe, version string, deps Deps) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		auth:       deps.Auth,
		quiz:       deps.Quiz,
		mail:       deps.Mail,
		fetcher:    deps.Fetcher,
		exportDir:  deps.ExportDir,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// authentication
	a.mux.HandleFunc("/v1/auth/signup", a.handleSignup)
	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("/v1/auth/status", a.handleAuthStatus)

	// administration
	a.mux.HandleFunc("/v1/admin/dashboard", a.handleDashboard)
	a.mux.HandleFunc("/v1/admin/access", a.handleAccess)
	a.mux.HandleFunc("/v1/admin/tests", a.handleTests)
	a.mux.HandleFunc("/v1/admin/tests/", a.handleTestByID)
	a.mux.HandleFunc("/v1/admin/assignments", a.handleAssignments)
	a.mux.HandleFunc("/v1/users", a.handleUsers)

	// mailbox reports
	a.mux.HandleFunc("/v1/mail/", a.handleMail)

	// bulk video download
	a.mux.HandleFunc("/v1/download/videos", a.handleDownloadVideos)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped handler for the server.
func (a *API) Handler() http.Handler {
	h := http.Handler(a.mux)
	h = a.withAuth(h)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, 20, 10)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "examhub-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "examhub-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
