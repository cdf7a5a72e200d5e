package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sevigo/shiny-updates/internal/board"
	"github.com/sevigo/shiny-updates/internal/core"
	"github.com/sevigo/shiny-updates/internal/credentials"
	"github.com/sevigo/shiny-updates/internal/storage"
)

// Coordinator is the dispatcher state the API reports and drives.
type Coordinator interface {
	Locked() bool
	Pending() []core.Job
	InFlight() (core.Job, bool)
	Gate() *credentials.Gate
	SubmitCredentials(creds core.Credentials) (string, error)
	CancelCredentials() (string, error)
}

// Status is the coordinator snapshot returned by GET /status.
type Status struct {
	Locked      bool                `json:"locked"`
	Credentials string              `json:"credentials"`
	Error       string              `json:"credentials_error,omitempty"`
	InFlight    *core.Job           `json:"in_flight,omitempty"`
	Pending     []core.Job          `json:"pending"`
	Badges      map[board.Badge]int `json:"badges"`
}

// StatusHandler reports the coordinator and board state.
type StatusHandler struct {
	coord   Coordinator
	board   *board.Board
	history storage.Store
	logger  *slog.Logger
}

func NewStatusHandler(coord Coordinator, b *board.Board, history storage.Store, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{coord: coord, board: b, history: history, logger: logger}
}

func (h *StatusHandler) Status(w http.ResponseWriter, _ *http.Request) {
	gate := h.coord.Gate()
	st := Status{
		Locked:      h.coord.Locked(),
		Credentials: gate.State().String(),
		Error:       gate.LastError(),
		Pending:     h.coord.Pending(),
		Badges:      h.board.Counters().Snapshot(),
	}
	if job, ok := h.coord.InFlight(); ok {
		st.InFlight = &job
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *StatusHandler) Rows(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.board.Rows())
}

// Dismiss removes a row's error notice and restores its pre-attempt state.
func (h *StatusHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	subject := core.Subject{
		Entity: core.Entity(chi.URLParam(r, "entity")),
		ID:     chi.URLParam(r, "*"),
	}
	if err := h.board.Dismiss(subject); err != nil {
		writeError(w, h.logger, err)
		return
	}
	row, _ := h.board.Row(subject)
	writeJSON(w, http.StatusOK, row)
}

// History lists recently completed jobs, newest first.
func (h *StatusHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, h.logger, fmt.Errorf("%w: invalid limit %q", errBadRequest, raw))
			return
		}
		limit = n
	}
	entries, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if entries == nil {
		entries = []core.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
