// Package notify shows progress and result messages one at a time.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/sevigo/shiny-updates/internal/core"
)

const (
	DefaultRetryInterval = 500 * time.Millisecond
	DefaultDwellTime     = 1000 * time.Millisecond
)

// Throttler displays queued messages strictly one at a time, in the order they
// were pushed, each for at least the dwell time.
type Throttler struct {
	sink   Sink
	logger *slog.Logger
	retry  time.Duration
	dwell  time.Duration

	mu           sync.Mutex
	pending      []core.Message
	displaying   bool
	current      core.Message
	retryPending bool
	timers       map[*time.Timer]struct{}
	closed       bool
	idle         *sync.Cond
}

type Option func(*Throttler)

// WithRetryInterval sets how long process waits before looking again while a
// message is on screen.
func WithRetryInterval(d time.Duration) Option {
	return func(t *Throttler) {
		if d > 0 {
			t.retry = d
		}
	}
}

// WithDwellTime sets how long each message stays visible.
func WithDwellTime(d time.Duration) Option {
	return func(t *Throttler) {
		if d > 0 {
			t.dwell = d
		}
	}
}

func NewThrottler(sink Sink, logger *slog.Logger, opts ...Option) *Throttler {
	t := &Throttler{
		sink:   sink,
		logger: logger,
		retry:  DefaultRetryInterval,
		dwell:  DefaultDwellTime,
		timers: make(map[*time.Timer]struct{}),
	}
	t.idle = sync.NewCond(&t.mu)
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Push appends a message and tries to show it.
func (t *Throttler) Push(msg core.Message) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		t.logger.Debug("message dropped after close", "text", msg.Text)
		return
	}
	t.pending = append(t.pending, msg)
	t.mu.Unlock()
	t.process()
}

// Pending returns the number of messages not yet shown.
func (t *Throttler) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Current returns the message on screen, if any.
func (t *Throttler) Current() (core.Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current, t.displaying
}

// Wait blocks until every pushed message has been shown and dismissed, or the
// throttler is closed.
func (t *Throttler) Wait() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for !t.closed && (t.displaying || len(t.pending) > 0) {
		t.idle.Wait()
	}
}

// Close stops all scheduled work. Messages still pending are dropped.
func (t *Throttler) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	for timer := range t.timers {
		timer.Stop()
	}
	clear(t.timers)
	t.pending = nil
	t.idle.Broadcast()
}

func (t *Throttler) process() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	if t.displaying {
		if !t.retryPending {
			t.retryPending = true
			t.scheduleLocked(t.retry, func() {
				t.mu.Lock()
				t.retryPending = false
				t.mu.Unlock()
				t.process()
			})
		}
		t.mu.Unlock()
		return
	}
	if len(t.pending) == 0 {
		t.idle.Broadcast()
		t.mu.Unlock()
		return
	}

	msg := t.pending[0]
	t.pending = t.pending[1:]
	t.displaying = true
	t.current = msg
	t.scheduleLocked(t.dwell, func() { t.finish(msg) })
	t.mu.Unlock()

	t.sink.Show(msg)
}

func (t *Throttler) finish(msg core.Message) {
	if h, ok := t.sink.(Hider); ok {
		h.Hide(msg)
	}
	t.mu.Lock()
	t.displaying = false
	t.current = core.Message{}
	t.mu.Unlock()
	t.process()
}

func (t *Throttler) scheduleLocked(d time.Duration, fn func()) {
	var timer *time.Timer
	timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		delete(t.timers, timer)
		t.mu.Unlock()
		fn()
	})
	t.timers[timer] = struct{}{}
}
