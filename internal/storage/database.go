package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	// import db drivers
	_ "github.com/lib/pq"

	"github.com/sevigo/shiny-updates/internal/core"
)

const maxRecent = 500

// Store defines the job history operations.
type Store interface {
	core.HistoryRecorder
	Recent(ctx context.Context, limit int) ([]core.HistoryEntry, error)
}

type postgresStore struct {
	db *sqlx.DB
}

// NewStore creates a Store backed by Postgres.
func NewStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

// Record inserts a completed job. A job recorded twice keeps its first entry.
func (s *postgresStore) Record(ctx context.Context, entry *core.HistoryEntry) error {
	if entry.CompletedAt.IsZero() {
		entry.CompletedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO job_history (job_id, kind, subject, status, error_code, message, completed_at)
		VALUES (:job_id, :kind, :subject, :status, :error_code, :message, :completed_at)
		ON CONFLICT (job_id) DO NOTHING`
	if _, err := s.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("failed to record job %s: %w", entry.JobID, err)
	}
	return nil
}

// Recent returns the newest entries first.
func (s *postgresStore) Recent(ctx context.Context, limit int) ([]core.HistoryEntry, error) {
	limit = clampLimit(limit)
	query := `
		SELECT id, job_id, kind, subject, status, error_code, message, completed_at
		FROM job_history
		ORDER BY completed_at DESC, id DESC
		LIMIT $1`

	var entries []core.HistoryEntry
	if err := s.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("failed to load job history: %w", err)
	}
	return entries, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > maxRecent {
		return maxRecent
	}
	return limit
}
