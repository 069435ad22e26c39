package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/citehub/citehub/internal/job"
	"github.com/citehub/citehub/internal/library"
	"github.com/citehub/citehub/internal/notebook"
	"github.com/citehub/citehub/internal/notify"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20 // 1 MB

// Handler holds the dependencies for all HTTP handlers.
type Handler struct {
	jobs      *job.Service
	libraries *library.Service
	notifs    *notify.Service
	notebook  notebook.Store
}

// NewHandler constructs a Handler with the given dependencies.
func NewHandler(jobs *job.Service, libraries *library.Service, notifs *notify.Service, nb notebook.Store) *Handler {
	return &Handler{jobs: jobs, libraries: libraries, notifs: notifs, notebook: nb}
}

// RegisterRoutes registers all API routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/libraries", h.CreateLibrary)
	mux.HandleFunc("GET /api/v1/libraries", h.ListLibraries)
	mux.HandleFunc("GET /api/v1/libraries/{id}", h.GetLibrary)
	mux.HandleFunc("DELETE /api/v1/libraries/{id}", h.DeleteLibrary)

	mux.HandleFunc("POST /api/v1/libraries/{id}/documents", h.AddDocument)
	mux.HandleFunc("GET /api/v1/libraries/{id}/documents", h.ListDocuments)
	mux.HandleFunc("GET /api/v1/libraries/{id}/documents/sync", h.SyncDocuments)
	mux.HandleFunc("DELETE /api/v1/libraries/{id}/documents/{docID}", h.DeleteDocument)
	mux.HandleFunc("POST /api/v1/libraries/{id}/query", h.Query)

	mux.HandleFunc("POST /api/v1/libraries/{id}/jobs", h.SubmitJob)
	mux.HandleFunc("POST /api/v1/libraries/{id}/jobs/{jobID}/cancel", h.CancelJob)
	mux.HandleFunc("GET /api/v1/jobs", h.ListJobs)
	mux.HandleFunc("GET /api/v1/jobs/{id}", h.GetJob)

	mux.HandleFunc("GET /api/v1/notifications", h.ListNotifications)
	mux.HandleFunc("POST /api/v1/notifications/{id}/dismiss", h.DismissNotification)
	mux.HandleFunc("GET /api/v1/notifications/stream", h.StreamNotifications)

	mux.HandleFunc("POST /api/v1/topics", h.CreateTopic)
	mux.HandleFunc("GET /api/v1/topics", h.ListTopics)
	mux.HandleFunc("GET /api/v1/topics/{id}", h.GetTopic)
	mux.HandleFunc("DELETE /api/v1/topics/{id}", h.DeleteTopic)
	mux.HandleFunc("POST /api/v1/topics/{id}/references", h.CreateReference)
	mux.HandleFunc("GET /api/v1/topics/{id}/references", h.ListReferences)
	mux.HandleFunc("DELETE /api/v1/topics/{id}/references/{refID}", h.DeleteReference)

	mux.HandleFunc("GET /api/v1/health", h.Health)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// CreateLibrary handles POST /api/v1/libraries.
func (h *Handler) CreateLibrary(w http.ResponseWriter, r *http.Request) {
	var req library.CreateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	l, err := h.libraries.Create(r.Context(), UserID(r), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

// ListLibraries handles GET /api/v1/libraries.
func (h *Handler) ListLibraries(w http.ResponseWriter, r *http.Request) {
	libs, err := h.libraries.List(r.Context(), UserID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if libs == nil {
		libs = []*library.Library{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"libraries": libs})
}

// GetLibrary handles GET /api/v1/libraries/{id}.
func (h *Handler) GetLibrary(w http.ResponseWriter, r *http.Request) {
	l, err := h.libraries.Get(r.Context(), UserID(r), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// DeleteLibrary handles DELETE /api/v1/libraries/{id}.
func (h *Handler) DeleteLibrary(w http.ResponseWriter, r *http.Request) {
	if err := h.libraries.Remove(r.Context(), UserID(r), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddDocument handles POST /api/v1/libraries/{id}/documents.
func (h *Handler) AddDocument(w http.ResponseWriter, r *http.Request) {
	var req library.AddDocumentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	d, err := h.libraries.AddDocument(r.Context(), UserID(r), r.PathValue("id"), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// ListDocuments handles GET /api/v1/libraries/{id}/documents.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.libraries.ListDocuments(r.Context(), UserID(r), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if docs == nil {
		docs = []*library.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// SyncDocuments handles GET /api/v1/libraries/{id}/documents/sync.
// It reports document ids the remote service has that this system does not.
func (h *Handler) SyncDocuments(w http.ResponseWriter, r *http.Request) {
	missing, err := h.libraries.SyncDocuments(r.Context(), UserID(r), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if missing == nil {
		missing = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"missing_locally": missing})
}

// DeleteDocument handles DELETE /api/v1/libraries/{id}/documents/{docID}.
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	err := h.libraries.RemoveDocument(r.Context(), UserID(r), r.PathValue("id"), r.PathValue("docID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Query handles POST /api/v1/libraries/{id}/query.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query must not be empty")
		return
	}

	results, err := h.libraries.Query(r.Context(), UserID(r), r.PathValue("id"), req.Query)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// SubmitJob handles POST /api/v1/libraries/{id}/jobs and responds 202.
func (h *Handler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req job.SubmitRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	j, err := h.jobs.Submit(r.Context(), UserID(r), r.PathValue("id"), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, j)
}

// CancelJob handles POST /api/v1/libraries/{id}/jobs/{jobID}/cancel.
func (h *Handler) CancelJob(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobs.Cancel(r.Context(), UserID(r), r.PathValue("id"), r.PathValue("jobID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

// ListJobs handles GET /api/v1/jobs with limit/offset pagination.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r.URL.Query().Get("limit"), 20)
	offset := parseIntParam(r.URL.Query().Get("offset"), 0)

	jobs, total, err := h.jobs.List(r.Context(), UserID(r), limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if jobs == nil {
		jobs = []*job.Job{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"jobs":   jobs,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetJob handles GET /api/v1/jobs/{id}.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobs.Get(r.Context(), UserID(r), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

// ListNotifications handles GET /api/v1/notifications.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r.URL.Query().Get("limit"), 50)
	offset := parseIntParam(r.URL.Query().Get("offset"), 0)

	ns, total, err := h.notifs.List(r.Context(), UserID(r), limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if ns == nil {
		ns = []*notify.Notification{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": ns,
		"total":         total,
		"limit":         limit,
		"offset":        offset,
	})
}

// DismissNotification handles POST /api/v1/notifications/{id}/dismiss.
func (h *Handler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	if err := h.notifs.Dismiss(r.Context(), r.PathValue("id"), UserID(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "dismissed"})
}

// CreateTopic handles POST /api/v1/topics.
func (h *Handler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	var req notebook.CreateTopicRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	t := &notebook.Topic{
		ID:        uuid.New().String(),
		UserID:    UserID(r),
		Title:     req.Title,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.notebook.CreateTopic(r.Context(), t); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// ListTopics handles GET /api/v1/topics.
func (h *Handler) ListTopics(w http.ResponseWriter, r *http.Request) {
	ts, err := h.notebook.ListTopics(r.Context(), UserID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if ts == nil {
		ts = []*notebook.Topic{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"topics": ts})
}

// GetTopic handles GET /api/v1/topics/{id}.
func (h *Handler) GetTopic(w http.ResponseWriter, r *http.Request) {
	t, err := h.notebook.GetTopic(r.Context(), r.PathValue("id"), UserID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "topic not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// DeleteTopic handles DELETE /api/v1/topics/{id}; references go with it.
func (h *Handler) DeleteTopic(w http.ResponseWriter, r *http.Request) {
	if err := h.notebook.DeleteTopic(r.Context(), r.PathValue("id"), UserID(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateReference handles POST /api/v1/topics/{id}/references.
func (h *Handler) CreateReference(w http.ResponseWriter, r *http.Request) {
	var req notebook.CreateReferenceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ref := &notebook.Reference{
		ID:         uuid.New().String(),
		TopicID:    r.PathValue("id"),
		DocumentID: req.DocumentID,
		Spans:      req.Spans,
		Note:       req.Note,
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.notebook.CreateReference(r.Context(), UserID(r), ref); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ref)
}

// ListReferences handles GET /api/v1/topics/{id}/references.
func (h *Handler) ListReferences(w http.ResponseWriter, r *http.Request) {
	refs, err := h.notebook.ListReferences(r.Context(), r.PathValue("id"), UserID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if refs == nil {
		refs = []*notebook.Reference{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"references": refs})
}

// DeleteReference handles DELETE /api/v1/topics/{id}/references/{refID}.
func (h *Handler) DeleteReference(w http.ResponseWriter, r *http.Request) {
	err := h.notebook.DeleteReference(r.Context(), r.PathValue("refID"), r.PathValue("id"), UserID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseIntParam parses a query string integer, returning the fallback on
// empty or invalid input.
func parseIntParam(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}
