package notify

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/fatih/color"

	"github.com/sevigo/shiny-updates/internal/core"
)

// Sink renders a message.
type Sink interface {
	Show(core.Message)
}

// Hider is implemented by sinks that need to know when a message's dwell time
// is over.
type Hider interface {
	Hide(core.Message)
}

// FuncSink adapts a function to a Sink.
type FuncSink func(core.Message)

func (f FuncSink) Show(m core.Message) { f(m) }

// MultiSink shows every message on all of its sinks, in order.
type MultiSink []Sink

func (s MultiSink) Show(m core.Message) {
	for _, sink := range s {
		sink.Show(m)
	}
}

func (s MultiSink) Hide(m core.Message) {
	for _, sink := range s {
		if h, ok := sink.(Hider); ok {
			h.Hide(m)
		}
	}
}

// LogSink writes messages to a structured logger. Errors are logged at warn
// level so they stand out like an assertive announcement would.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Show(m core.Message) {
	switch m.Severity {
	case core.SeverityError, core.SeverityWarning:
		s.Logger.Warn(m.Text, "severity", m.Severity)
	default:
		s.Logger.Info(m.Text, "severity", m.Severity)
	}
}

// BusSink publishes a MessageShown event for every message.
type BusSink struct {
	Publisher core.Publisher
}

func (s BusSink) Show(m core.Message) {
	s.Publisher.Publish(core.MessageShown{Message: m})
}

// WriterSink prints one colored line per message.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

var severityColors = map[core.Severity]*color.Color{
	core.SeverityInfo:    color.New(color.FgCyan),
	core.SeveritySuccess: color.New(color.FgGreen),
	core.SeverityWarning: color.New(color.FgYellow),
	core.SeverityError:   color.New(color.FgRed, color.Bold),
}

func (s *WriterSink) Show(m core.Message) {
	c, ok := severityColors[m.Severity]
	if !ok {
		c = severityColors[core.SeverityInfo]
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintf(s.w, "%s %s\n", c.Sprintf("[%s]", m.Severity), m.Text)
}
