package jobs

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sevigo/shiny-updates/internal/core"
)

// Future is the pending result of a job. It behaves the same whether the job
// was dispatched right away or queued behind the lock.
type Future struct {
	job    core.Job
	done   chan struct{}
	queued atomic.Bool

	mu            sync.Mutex
	resolved      bool
	outcome       core.Outcome
	continuations []func(core.Outcome)
}

func newFuture(job core.Job, then ...func(core.Outcome)) *Future {
	return &Future{job: job, done: make(chan struct{}), continuations: then}
}

// Job returns the job this future belongs to.
func (f *Future) Job() core.Job {
	return f.job
}

// Done is closed once the outcome is known.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Then registers fn to run with the outcome. Continuations run in
// registration order on the goroutine that resolves the future; fn runs
// immediately if the future already resolved. Only continuations handed to
// Coordinator.Send are guaranteed to run before the dispatcher lock is
// released; a job may complete, and the next one start, before Then returns.
func (f *Future) Then(fn func(core.Outcome)) *Future {
	f.mu.Lock()
	if !f.resolved {
		f.continuations = append(f.continuations, fn)
		f.mu.Unlock()
		return f
	}
	outcome := f.outcome
	f.mu.Unlock()
	fn(outcome)
	return f
}

// Wait blocks until the outcome is known or ctx is done.
func (f *Future) Wait(ctx context.Context) (core.Outcome, error) {
	select {
	case <-f.done:
		return f.Outcome(), nil
	case <-ctx.Done():
		return core.Outcome{}, ctx.Err()
	}
}

// Queued reports whether the job had to wait for the lock when it was sent.
func (f *Future) Queued() bool {
	return f.queued.Load()
}

// Outcome returns the outcome, or the zero value while the job is pending.
func (f *Future) Outcome() core.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outcome
}

// Resolved reports whether the outcome is known.
func (f *Future) Resolved() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resolved
}

func (f *Future) resolve(o core.Outcome) bool {
	f.mu.Lock()
	if f.resolved {
		f.mu.Unlock()
		return false
	}
	o.Job = f.job
	f.resolved = true
	f.outcome = o
	continuations := f.continuations
	f.continuations = nil
	f.mu.Unlock()

	for _, fn := range continuations {
		fn(o)
	}
	close(f.done)
	return true
}
