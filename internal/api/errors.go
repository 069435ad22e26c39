package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/citehub/citehub/internal/extract"
	"github.com/citehub/citehub/internal/job"
	"github.com/citehub/citehub/internal/library"
	"github.com/citehub/citehub/internal/notebook"
	"github.com/citehub/citehub/internal/notify"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps service-layer errors onto HTTP statuses. Request
// validation is handled at the call sites; everything that reaches here
// came out of a service or store.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, job.ErrNotFound),
		errors.Is(err, library.ErrNotFound),
		errors.Is(err, notify.ErrNotFound),
		errors.Is(err, notebook.ErrTopicNotFound):
		writeError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, library.ErrDuplicateTitle),
		errors.Is(err, job.ErrAlreadyTerminal),
		errors.Is(err, job.ErrDesync),
		errors.Is(err, job.ErrUpdateRejected),
		errors.Is(err, extract.ErrLibraryNotFound),
		errors.Is(err, extract.ErrJobNotActive):
		writeError(w, http.StatusConflict, err.Error())

	case errors.Is(err, extract.ErrRemote),
		errors.Is(err, extract.ErrBadResponse):
		writeError(w, http.StatusBadGateway, err.Error())

	default:
		slog.Error("unhandled service error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
