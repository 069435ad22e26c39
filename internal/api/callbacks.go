package api

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/citehub/citehub/internal/extract"
	"github.com/citehub/citehub/internal/job"
	"github.com/citehub/citehub/internal/library"
)

// CallbackHandler receives status reports from the remote extraction
// service. These endpoints sit outside API-key auth; they are protected by
// a shared bearer secret instead.
type CallbackHandler struct {
	jobs      *job.Service
	libraries *library.Service
	secret    string
}

func NewCallbackHandler(jobs *job.Service, libraries *library.Service, secret string) *CallbackHandler {
	return &CallbackHandler{jobs: jobs, libraries: libraries, secret: secret}
}

// RegisterRoutes registers the callback endpoints on mux. The method
// patterns make the mux answer 405 for anything other than POST.
func (h *CallbackHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /callbacks/job-status", h.JobStatus)
	mux.HandleFunc("POST /callbacks/job-complete", h.JobComplete)
}

// authorize distinguishes a missing Authorization header (400, the caller
// is not speaking the protocol) from a wrong secret (401).
func (h *CallbackHandler) authorize(w http.ResponseWriter, r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		writeError(w, http.StatusBadRequest, "missing Authorization header")
		return false
	}
	token := strings.TrimPrefix(auth, "Bearer ")
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) != 1 {
		writeError(w, http.StatusUnauthorized, "invalid callback secret")
		return false
	}
	return true
}

// callbackPayload is the body the remote service sends on both endpoints.
// started_at is stored verbatim when present; documents only accompany
// job-complete.
type callbackPayload struct {
	NewStatus string                   `json:"new_status"`
	UserID    string                   `json:"user_id"`
	LibraryID string                   `json:"library_id"`
	JobID     string                   `json:"job_id"`
	StartedAt string                   `json:"started_at,omitempty"`
	Documents []extract.RemoteDocument `json:"documents,omitempty"`
}

func (p *callbackPayload) validate() string {
	if p.NewStatus == "" {
		return "new_status is required"
	}
	if p.UserID == "" || p.LibraryID == "" || p.JobID == "" {
		return "user_id, library_id and job_id are required"
	}
	return ""
}

func (p *callbackPayload) startedAt(w http.ResponseWriter) (*time.Time, bool) {
	if p.StartedAt == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, p.StartedAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "started_at is not an RFC 3339 timestamp")
		return nil, false
	}
	return &t, true
}

// JobStatus handles POST /callbacks/job-status.
func (h *CallbackHandler) JobStatus(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	var p callbackPayload
	if !decodeBody(w, r, &p) {
		return
	}
	if msg := p.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	startedAt, ok := p.startedAt(w)
	if !ok {
		return
	}

	err := h.jobs.ApplyExternalUpdate(r.Context(), p.UserID, p.LibraryID, p.JobID, p.NewStatus, startedAt)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "applied"})
}

// JobComplete handles POST /callbacks/job-complete. Besides the status
// transition it records the documents the job extracted.
func (h *CallbackHandler) JobComplete(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	var p callbackPayload
	if !decodeBody(w, r, &p) {
		return
	}
	if msg := p.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	startedAt, ok := p.startedAt(w)
	if !ok {
		return
	}

	err := h.jobs.ApplyExternalUpdate(r.Context(), p.UserID, p.LibraryID, p.JobID, p.NewStatus, startedAt)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if len(p.Documents) > 0 {
		if err := h.libraries.ImportExtracted(r.Context(), p.UserID, p.LibraryID, p.Documents); err != nil {
			// The status change is already applied; report the import
			// failure without pretending the callback failed entirely.
			slog.Error("import extracted documents failed",
				"job_id", p.JobID, "library_id", p.LibraryID, "error", err)
			writeServiceError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "applied"})
}
