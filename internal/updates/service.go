// Package updates implements the install, update and delete operations. Each
// operation checks the board, marks the row busy, asks for credentials when
// needed and hands a job to the dispatcher; the job's outcome is then applied
// to the board, the badges, the message queue and the history log.
package updates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sevigo/shiny-updates/internal/board"
	"github.com/sevigo/shiny-updates/internal/core"
	"github.com/sevigo/shiny-updates/internal/jobs"
)

var ErrNothingToUpdate = errors.New("no pending updates")

const historyTimeout = 5 * time.Second

// Dispatcher is the part of the coordinator the operations need.
type Dispatcher interface {
	SendGated(job core.Job, then ...func(core.Outcome)) *jobs.Future
}

// Service runs operations against the board.
type Service struct {
	dispatcher Dispatcher
	board      *board.Board
	notifier   core.Notifier
	publisher  core.Publisher
	history    core.HistoryRecorder
	logger     *slog.Logger
}

func NewService(
	dispatcher Dispatcher,
	b *board.Board,
	notifier core.Notifier,
	publisher core.Publisher,
	history core.HistoryRecorder,
	logger *slog.Logger,
) *Service {
	return &Service{
		dispatcher: dispatcher,
		board:      b,
		notifier:   notifier,
		publisher:  publisher,
		history:    history,
		logger:     logger,
	}
}

// Board returns the board the service operates on.
func (s *Service) Board() *board.Board {
	return s.board
}

// InstallPlugin installs a plugin from the directory.
func (s *Service) InstallPlugin(origin, slug string) (*jobs.Future, error) {
	if slug == "" {
		return nil, errors.New("slug is required")
	}
	return s.run(origin, core.KindInstallPlugin, core.Payload{Slug: slug})
}

// UpdatePlugin updates the plugin with the given basename.
func (s *Service) UpdatePlugin(origin, plugin, slug string) (*jobs.Future, error) {
	if plugin == "" {
		return nil, errors.New("plugin basename is required")
	}
	return s.run(origin, core.KindUpdatePlugin, core.Payload{Plugin: plugin, Slug: slug})
}

func (s *Service) DeletePlugin(origin, plugin, slug string) (*jobs.Future, error) {
	if plugin == "" {
		return nil, errors.New("plugin basename is required")
	}
	return s.run(origin, core.KindDeletePlugin, core.Payload{Plugin: plugin, Slug: slug})
}

func (s *Service) InstallTheme(origin, slug string) (*jobs.Future, error) {
	if slug == "" {
		return nil, errors.New("slug is required")
	}
	return s.run(origin, core.KindInstallTheme, core.Payload{Slug: slug})
}

func (s *Service) UpdateTheme(origin, slug string) (*jobs.Future, error) {
	if slug == "" {
		return nil, errors.New("slug is required")
	}
	return s.run(origin, core.KindUpdateTheme, core.Payload{Slug: slug})
}

func (s *Service) DeleteTheme(origin, slug string) (*jobs.Future, error) {
	if slug == "" {
		return nil, errors.New("slug is required")
	}
	return s.run(origin, core.KindDeleteTheme, core.Payload{Slug: slug})
}

// UpdateCore updates the platform to version in locale. Reinstall forces the
// current version to be installed again.
func (s *Service) UpdateCore(origin, version, locale string, reinstall bool) (*jobs.Future, error) {
	if version == "" {
		return nil, errors.New("version is required")
	}
	return s.run(origin, core.KindUpdateCore, core.Payload{Version: version, Locale: locale, Reinstall: reinstall})
}

func (s *Service) UpdateTranslations(origin string) (*jobs.Future, error) {
	return s.run(origin, core.KindUpdateTranslations, core.Payload{})
}

// Run dispatches a prepared job, e.g. one received from an embedded frame.
func (s *Service) Run(origin string, kind core.Kind, payload core.Payload) (*jobs.Future, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown job kind %q", kind)
	}
	return s.run(origin, kind, payload)
}

func (s *Service) run(origin string, kind core.Kind, payload core.Payload) (*jobs.Future, error) {
	job := core.NewJob(kind, payload)
	job.Origin = origin
	subject := job.Subject()

	if err := s.board.MarkBusy(subject, kind.Verb()); err != nil {
		return nil, err
	}
	row, _ := s.board.Row(subject)
	s.notifier.Push(core.Message{Text: progressText(kind.Verb(), row.Name), Severity: core.SeverityInfo})

	// every operation here mutates the filesystem
	return s.dispatcher.SendGated(job, s.apply), nil
}

// apply brings the board in line with a job's outcome.
func (s *Service) apply(o core.Outcome) {
	job := o.Job
	subject := job.Subject()
	verb := job.Kind.Verb()

	switch o.Status {
	case core.StatusSucceeded:
		before, err := s.board.Complete(subject, verb, o.Response)
		if err != nil {
			s.logger.Error("failed to apply result to board", "job_id", job.ID, "error", err)
			break
		}
		subject = board.Installed(subject, verb, o.Response)
		if verb == core.VerbUpdate || (verb == core.VerbDelete && before.HasUpdate) {
			s.decrement(job)
		}
		row, _ := s.board.Row(subject)
		s.notifier.Push(core.Message{Text: successText(verb, row.Name), Severity: core.SeveritySuccess})

	case core.StatusFailed:
		msg := failureMessage(o)
		if err := s.board.Fail(subject, msg); err != nil {
			s.logger.Error("failed to mark row failed", "job_id", job.ID, "error", err)
		}
		s.notifier.Push(core.Message{Text: failureText(verb, msg), Severity: core.SeverityError})

	case core.StatusCancelled:
		if err := s.board.Restore(subject); err != nil {
			s.logger.Error("failed to restore row", "job_id", job.ID, "error", err)
		}
	}

	s.record(o)
}

func (s *Service) decrement(job core.Job) {
	entity := job.Kind.Entity()
	total, changed := s.board.Counters().DecrementOnce(job.ID, entity)
	if !changed {
		return
	}
	s.publisher.Publish(core.CountDecremented{Entity: entity, Total: total})
}

func (s *Service) record(o core.Outcome) {
	entry := &core.HistoryEntry{
		JobID:       o.Job.ID,
		Kind:        string(o.Job.Kind),
		Subject:     o.Job.Subject().String(),
		Status:      o.Status.String(),
		CompletedAt: time.Now().UTC(),
	}
	var opErr *core.OperationError
	if errors.As(o.Err, &opErr) {
		entry.ErrorCode = opErr.Code
	}
	if o.Err != nil {
		entry.Message = o.Err.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()
	if err := s.history.Record(ctx, entry); err != nil {
		s.logger.Warn("failed to record job history", "job_id", o.Job.ID, "error", err)
	}
}

func failureMessage(o core.Outcome) string {
	var opErr *core.OperationError
	if errors.As(o.Err, &opErr) && opErr.Message != "" {
		return opErr.Message
	}
	if o.Err != nil {
		return o.Err.Error()
	}
	return "unknown error"
}
