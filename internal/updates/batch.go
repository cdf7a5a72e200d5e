package updates

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sevigo/shiny-updates/internal/board"
	"github.com/sevigo/shiny-updates/internal/core"
	"github.com/sevigo/shiny-updates/internal/jobs"
)

// BulkSummary counts the outcomes of an update-all batch.
type BulkSummary struct {
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Cancelled int      `json:"cancelled"`
	Errors    []string `json:"errors,omitempty"`
}

// Batch is a running update-all. It completes once every row's job resolved.
type Batch struct {
	futures []*jobs.Future
	done    chan struct{}

	mu      sync.Mutex
	summary BulkSummary
}

// Futures returns the per-row futures in dispatch order.
func (b *Batch) Futures() []*jobs.Future {
	return b.futures
}

// Done is closed when every row resolved.
func (b *Batch) Done() <-chan struct{} {
	return b.done
}

// Wait blocks until the batch completed or ctx is done.
func (b *Batch) Wait(ctx context.Context) (BulkSummary, error) {
	select {
	case <-b.done:
		b.mu.Lock()
		defer b.mu.Unlock()
		return b.summary, nil
	case <-ctx.Done():
		return BulkSummary{}, ctx.Err()
	}
}

func (b *Batch) add(o core.Outcome) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch o.Status {
	case core.StatusSucceeded:
		b.summary.Succeeded++
	case core.StatusFailed:
		b.summary.Failed++
		b.summary.Errors = append(b.summary.Errors, fmt.Sprintf("%s: %s", o.Job.Subject(), failureMessage(o)))
	case core.StatusCancelled:
		b.summary.Cancelled++
	}
}

// UpdateAll starts an update for every row with a pending update:
// translations first, then themes, plugins and finally core. Rows run
// independently; a failing row does not stop the others.
func (s *Service) UpdateAll(origin string) (*Batch, error) {
	rows := s.board.Updatable()
	if len(rows) == 0 {
		return nil, ErrNothingToUpdate
	}

	s.notifier.Push(core.Message{Text: fmt.Sprintf("Updating %d items...", len(rows)), Severity: core.SeverityInfo})
	batch := &Batch{done: make(chan struct{})}
	for _, row := range rows {
		f, err := s.updateRow(origin, row)
		if err != nil {
			s.logger.Warn("skipping row in update-all", "subject", row.Subject.String(), "error", err)
			batch.mu.Lock()
			batch.summary.Failed++
			batch.summary.Errors = append(batch.summary.Errors, fmt.Sprintf("%s: %v", row.Subject, err))
			batch.mu.Unlock()
			continue
		}
		batch.futures = append(batch.futures, f)
	}

	go s.collect(batch)
	return batch, nil
}

func (s *Service) updateRow(origin string, row board.Row) (*jobs.Future, error) {
	switch row.Subject.Entity {
	case core.EntityTranslation:
		return s.UpdateTranslations(origin)
	case core.EntityTheme:
		return s.UpdateTheme(origin, row.Subject.ID)
	case core.EntityPlugin:
		return s.UpdatePlugin(origin, row.Subject.ID, row.Slug)
	case core.EntityCore:
		return s.UpdateCore(origin, row.NewVersion, row.Locale, false)
	default:
		return nil, fmt.Errorf("%s: %w", row.Subject, core.ErrUnknownSubject)
	}
}

// collect waits for every row and then announces the result.
func (s *Service) collect(batch *Batch) {
	var g errgroup.Group
	for _, f := range batch.futures {
		g.Go(func() error {
			o, err := f.Wait(context.Background())
			if err != nil {
				return err
			}
			batch.add(o)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("update-all stopped waiting", "error", err)
	}

	batch.mu.Lock()
	summary := batch.summary
	batch.mu.Unlock()

	s.logger.Info("update-all completed",
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"cancelled", summary.Cancelled,
	)
	s.publisher.Publish(core.BulkCompleted{
		Succeeded: summary.Succeeded,
		Failed:    summary.Failed,
		Cancelled: summary.Cancelled,
		Errors:    summary.Errors,
	})
	severity := core.SeveritySuccess
	if summary.Failed > 0 {
		severity = core.SeverityError
	}
	s.notifier.Push(core.Message{Text: summaryText(summary), Severity: severity})
	close(batch.done)
}
