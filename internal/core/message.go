package core

import (
	"context"
	"time"
)

// Severity controls how a message is presented. Error messages are announced
// assertively.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Message is a human-readable progress or result notice.
type Message struct {
	Text     string   `json:"text"`
	Severity Severity `json:"severity"`
}

// Notifier queues messages for display.
type Notifier interface {
	Push(Message)
}

// HistoryEntry is a completed job as stored in the history log.
type HistoryEntry struct {
	ID          int64     `db:"id" json:"id"`
	JobID       string    `db:"job_id" json:"job_id"`
	Kind        string    `db:"kind" json:"kind"`
	Subject     string    `db:"subject" json:"subject"`
	Status      string    `db:"status" json:"status"`
	ErrorCode   string    `db:"error_code" json:"error_code,omitempty"`
	Message     string    `db:"message" json:"message,omitempty"`
	CompletedAt time.Time `db:"completed_at" json:"completed_at"`
}

// HistoryRecorder persists completed jobs.
type HistoryRecorder interface {
	Record(ctx context.Context, entry *HistoryEntry) error
}
