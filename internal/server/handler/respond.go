// Package handler provides the HTTP handlers of the update coordinator API.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sevigo/shiny-updates/internal/core"
	"github.com/sevigo/shiny-updates/internal/credentials"
	"github.com/sevigo/shiny-updates/internal/frame"
	"github.com/sevigo/shiny-updates/internal/search"
	"github.com/sevigo/shiny-updates/internal/updates"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrUnknownSubject):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrInProgress),
		errors.Is(err, core.ErrAlreadyCompleted),
		errors.Is(err, credentials.ErrInvalidTransition),
		errors.Is(err, search.ErrSuperseded),
		errors.Is(err, updates.ErrNothingToUpdate):
		status = http.StatusConflict
	case errors.Is(err, core.ErrOriginMismatch):
		status = http.StatusForbidden
	case errors.Is(err, core.ErrStopped):
		status = http.StatusServiceUnavailable
	case errors.Is(err, frame.ErrUnknownAction),
		errors.Is(err, frame.ErrMalformedMessage),
		errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

var errBadRequest = errors.New("bad request")

func isDomainError(err error) bool {
	return errors.Is(err, core.ErrUnknownSubject) ||
		errors.Is(err, core.ErrInProgress) ||
		errors.Is(err, core.ErrAlreadyCompleted) ||
		errors.Is(err, core.ErrStopped)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}
