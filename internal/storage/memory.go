package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/sevigo/shiny-updates/internal/core"
)

// memoryStore keeps the history of the current process only. It is used when
// the database is disabled.
type memoryStore struct {
	mu      sync.Mutex
	nextID  int64
	entries []core.HistoryEntry
	seen    map[string]struct{}
	max     int
}

// NewMemoryStore creates a Store that keeps at most capacity entries in memory.
func NewMemoryStore(capacity int) Store {
	return &memoryStore{seen: make(map[string]struct{}), max: clampLimit(capacity)}
}

func (s *memoryStore) Record(_ context.Context, entry *core.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[entry.JobID]; dup {
		return nil
	}
	s.seen[entry.JobID] = struct{}{}
	s.nextID++
	e := *entry
	e.ID = s.nextID
	s.entries = append(s.entries, e)
	if len(s.entries) > s.max {
		delete(s.seen, s.entries[0].JobID)
		s.entries = s.entries[1:]
	}
	return nil
}

func (s *memoryStore) Recent(_ context.Context, limit int) ([]core.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.entries)
	slices.Reverse(out)
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
