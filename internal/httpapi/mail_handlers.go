package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"examhub.org/internal/mail"
)

// handleMail serves /v1/mail/{count|senders|info}/{days}. Reports can be
// exported as a spreadsheet with ?export=xlsx.
func (a *API) handleMail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if !a.ensureScopes(w, r, "dev") {
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/v1/mail/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	days, err := strconv.Atoi(parts[1])
	if err != nil || days <= 0 {
		writeError(w, r, http.StatusBadRequest, "days must be a positive integer")
		return
	}
	if a.mail == nil {
		writeError(w, r, http.StatusServiceUnavailable, "mailbox is not configured")
		return
	}

	switch parts[0] {
	case "count":
		count, err := a.mail.Count(r.Context(), days)
		if err != nil {
			writeError(w, r, http.StatusBadGateway, "mailbox unavailable")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"days": days, "count": count})
	case "senders":
		senders, err := a.mail.UniqueSenders(r.Context(), days)
		if err != nil {
			writeError(w, r, http.StatusBadGateway, "mailbox unavailable")
			return
		}
		if wantsExport(r) {
			rows := make([][]any, 0, len(senders))
			for _, s := range senders {
				rows = append(rows, []any{s.Sender, s.Count})
			}
			a.writeExport(w, r, "senders", []string{"Sender", "Messages"}, rows)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"days": days, "senders": senders})
	case "info":
		messages, err := a.mail.Info(r.Context(), days)
		if err != nil {
			writeError(w, r, http.StatusBadGateway, "mailbox unavailable")
			return
		}
		if wantsExport(r) {
			rows := make([][]any, 0, len(messages))
			for _, m := range messages {
				rows = append(rows, []any{m.From, m.Subject, m.Date.Format(time.RFC3339)})
			}
			a.writeExport(w, r, "messages", []string{"From", "Subject", "Date"}, rows)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"days": days, "messages": messages})
	default:
		writeError(w, r, http.StatusNotFound, "not found")
	}
}

func (a *API) writeExport(w http.ResponseWriter, r *http.Request, title string, headers []string, rows [][]any) {
	path, err := mail.ExportXLSX(a.exportDir, title, headers, rows)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "export failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"file": path, "rows": len(rows)})
}

func wantsExport(r *http.Request) bool {
	return strings.EqualFold(r.URL.Query().Get("export"), "xlsx")
}
