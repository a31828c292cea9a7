package httpapi

import (
	"errors"
	"net/http"

	"examhub.org/internal/audit"
	"examhub.org/internal/download"
)

type downloadRequest struct {
	URLs []string `json:"urls"`
}

func (a *API) handleDownloadVideos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if !a.ensureScopes(w, r, "dev") {
		return
	}
	if a.fetcher == nil {
		writeError(w, r, http.StatusServiceUnavailable, "downloads are not configured")
		return
	}

	var req downloadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	files, err := a.fetcher.FetchAll(r.Context(), req.URLs)
	if err != nil {
		if errors.Is(err, download.ErrInvalidInput) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, r, http.StatusBadGateway, "download failed")
		return
	}

	_ = audit.LogEvent(r.Context(), "download.videos", map[string]any{
		"count": len(files),
	})

	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}
