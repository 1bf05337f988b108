package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/poiesic/answerit/ingestion"
	"github.com/poiesic/answerit/pipeline"
	"github.com/poiesic/answerit/storage"
)

// errorResponse is the uniform error body.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON sends v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("error encoding response", "err", err)
	}
}

// writeError sends a JSON error body.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// statusForError maps domain errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrInvalidQuery),
		errors.Is(err, ingestion.ErrDocumentRequired),
		errors.Is(err, ingestion.ErrEmptyContent):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrRetrievalFailed),
		errors.Is(err, pipeline.ErrGenerationFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps err to a status code. Unmapped errors stay behind a
// generic message.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
		writeError(w, status, "internal error")
		return
	}

	s.logger.Warn("request failed", "status", status, "err", err)
	writeError(w, status, err.Error())
}
