package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sevigo/shiny-updates/internal/core"
	"github.com/sevigo/shiny-updates/internal/jobs"
	"github.com/sevigo/shiny-updates/internal/updates"
)

// OperationRequest is the body of every operation endpoint. Which fields are
// needed depends on the operation.
type OperationRequest struct {
	Origin    string `json:"origin"`
	Plugin    string `json:"plugin"`
	Slug      string `json:"slug"`
	Version   string `json:"version"`
	Locale    string `json:"locale"`
	Reinstall bool   `json:"reinstall"`
}

// Accepted is returned when an operation was handed to the dispatcher.
type Accepted struct {
	JobID  string    `json:"job_id"`
	Kind   core.Kind `json:"kind"`
	Queued bool      `json:"queued"`
}

// BatchAccepted is returned by update-all.
type BatchAccepted struct {
	Jobs []Accepted `json:"jobs"`
}

// OperationsHandler starts install, update and delete operations.
type OperationsHandler struct {
	service *updates.Service
	logger  *slog.Logger
}

func NewOperationsHandler(service *updates.Service, logger *slog.Logger) *OperationsHandler {
	return &OperationsHandler{service: service, logger: logger}
}

// Handle returns the handler for one job kind.
func (h *OperationsHandler) Handle(kind core.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req OperationRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, h.logger, err)
			return
		}

		future, err := h.start(kind, req)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		h.logger.Info("operation accepted", "kind", kind, "job_id", future.Job().ID)
		writeJSON(w, http.StatusAccepted, accepted(future))
	}
}

func (h *OperationsHandler) start(kind core.Kind, req OperationRequest) (*jobs.Future, error) {
	var (
		future *jobs.Future
		err    error
	)
	switch kind {
	case core.KindInstallPlugin:
		future, err = h.service.InstallPlugin(req.Origin, req.Slug)
	case core.KindUpdatePlugin:
		future, err = h.service.UpdatePlugin(req.Origin, req.Plugin, req.Slug)
	case core.KindDeletePlugin:
		future, err = h.service.DeletePlugin(req.Origin, req.Plugin, req.Slug)
	case core.KindInstallTheme:
		future, err = h.service.InstallTheme(req.Origin, req.Slug)
	case core.KindUpdateTheme:
		future, err = h.service.UpdateTheme(req.Origin, req.Slug)
	case core.KindDeleteTheme:
		future, err = h.service.DeleteTheme(req.Origin, req.Slug)
	case core.KindUpdateCore:
		future, err = h.service.UpdateCore(req.Origin, req.Version, req.Locale, req.Reinstall)
	case core.KindUpdateTranslations:
		future, err = h.service.UpdateTranslations(req.Origin)
	default:
		return nil, fmt.Errorf("%w: unsupported operation %q", errBadRequest, kind)
	}
	if err != nil && !isDomainError(err) {
		// missing identifiers
		return nil, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return future, err
}

// UpdateAll starts an update of every row with a pending update.
func (h *OperationsHandler) UpdateAll(w http.ResponseWriter, r *http.Request) {
	var req OperationRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, h.logger, err)
			return
		}
	}

	batch, err := h.service.UpdateAll(req.Origin)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	resp := BatchAccepted{Jobs: make([]Accepted, 0, len(batch.Futures()))}
	for _, f := range batch.Futures() {
		resp.Jobs = append(resp.Jobs, accepted(f))
	}
	writeJSON(w, http.StatusAccepted, resp)
}

func accepted(f *jobs.Future) Accepted {
	job := f.Job()
	return Accepted{JobID: job.ID, Kind: job.Kind, Queued: f.Queued()}
}
