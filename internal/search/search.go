// Package search runs type-ahead searches. Searches bypass the dispatcher lock;
// instead each new search aborts the one still in flight.
package search

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/sevigo/shiny-updates/internal/core"
)

// ErrSuperseded is returned to a caller whose search was replaced by a newer one.
var ErrSuperseded = errors.New("search superseded by a newer request")

// Backend actions for the searchable lists.
const (
	ActionInstalledPlugins = "search-plugins"
	ActionInstallPlugins   = "search-install-plugins"
	ActionInstalledThemes  = "search-themes"
	ActionInstallThemes    = "search-install-themes"
)

type Searcher struct {
	lister core.Lister
	logger *slog.Logger

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

func NewSearcher(lister core.Lister, logger *slog.Logger) *Searcher {
	return &Searcher{lister: lister, logger: logger}
}

// Search runs query against action and returns the rendered rows.
func (s *Searcher) Search(ctx context.Context, action, query string) (string, error) {
	query = strings.TrimSpace(query)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.seq++
	id := s.seq
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	items, err := s.lister.List(ctx, action, query)

	s.mu.Lock()
	superseded := s.seq != id
	if !superseded {
		s.cancel = nil
	}
	s.mu.Unlock()

	if superseded {
		s.logger.Debug("discarding stale search", "action", action, "query", query)
		return "", ErrSuperseded
	}
	if err != nil {
		return "", err
	}
	return items, nil
}
