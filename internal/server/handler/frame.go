package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sevigo/shiny-updates/internal/frame"
	"github.com/sevigo/shiny-updates/internal/search"
)

// FrameHandler relays messages posted by embedded frames.
type FrameHandler struct {
	bridge *frame.Bridge
	logger *slog.Logger
}

func NewFrameHandler(bridge *frame.Bridge, logger *slog.Logger) *FrameHandler {
	return &FrameHandler{bridge: bridge, logger: logger}
}

func (h *FrameHandler) Handle(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, h.logger, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	future, err := h.bridge.Accept(r.Header.Get("Origin"), raw)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if future == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusAccepted, accepted(future))
}

// SearchHandler serves type-ahead searches.
type SearchHandler struct {
	searcher *search.Searcher
	logger   *slog.Logger
}

func NewSearchHandler(searcher *search.Searcher, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{searcher: searcher, logger: logger}
}

// Handle returns the handler searching with the given backend action.
func (h *SearchHandler) Handle(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.searcher.Search(r.Context(), action, r.URL.Query().Get("q"))
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, items)
	}
}
