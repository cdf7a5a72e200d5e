// Package jobs implements the single-flight dispatcher that serializes every
// install, update and delete request sent to the backend.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/sevigo/shiny-updates/internal/core"
	"github.com/sevigo/shiny-updates/internal/credentials"
)

// Observer receives dispatcher state changes, e.g. for metrics.
type Observer interface {
	JobQueued(kind core.Kind)
	JobDispatched(kind core.Kind)
	JobCompleted(kind core.Kind, status core.Status)
}

type lockState int

const (
	unlocked lockState = iota
	// inFlight means one request is outstanding.
	inFlight
	// awaitingCredentials means the credentials modal holds the lock.
	awaitingCredentials
)

// task pairs a queued job with the future its caller holds.
type task struct {
	job    core.Job
	future *Future
}

// Coordinator owns the lock, the job queue and the credential gate. At most one
// request is outstanding at any time; everything else waits in the queue and
// is drained one job per lock cycle.
type Coordinator struct {
	ctx       context.Context
	transport core.Transport
	gate      *credentials.Gate
	nonce     string
	publisher core.Publisher
	observer  Observer
	logger    *slog.Logger

	mu       sync.Mutex
	lock     lockState
	queue    Queue[*task]
	inflight *task
	stopped  bool
	wg       sync.WaitGroup
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithObserver attaches an observer for dispatcher state changes.
func WithObserver(o Observer) Option {
	return func(c *Coordinator) { c.observer = o }
}

// WithPublisher sets where coordinator events are published.
func WithPublisher(p core.Publisher) Option {
	return func(c *Coordinator) { c.publisher = p }
}

// NewCoordinator creates a coordinator. Requests run with ctx, so cancelling it
// aborts whatever is in flight when the process shuts down.
func NewCoordinator(ctx context.Context, transport core.Transport, gate *credentials.Gate, nonce string, logger *slog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		ctx:       ctx,
		transport: transport,
		gate:      gate,
		nonce:     nonce,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Gate returns the credential gate.
func (c *Coordinator) Gate() *credentials.Gate {
	return c.gate
}

// Locked reports whether new requests are currently deferred.
func (c *Coordinator) Locked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lock != unlocked
}

// Pending returns the queued jobs, head first.
func (c *Coordinator) Pending() []core.Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	tasks := c.queue.Snapshot()
	out := make([]core.Job, len(tasks))
	for i, t := range tasks {
		out[i] = t.job
	}
	return out
}

// InFlight returns the job whose request is outstanding, if any.
func (c *Coordinator) InFlight() (core.Job, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight == nil {
		return core.Job{}, false
	}
	return c.inflight.job, true
}

// Send runs job now if the lock is free, otherwise queues it. Either way the
// returned future resolves once the job's request completed or was cancelled.
// Continuations passed in then are attached before the job can run, so they
// see the outcome before the lock is released.
func (c *Coordinator) Send(job core.Job, then ...func(core.Outcome)) *Future {
	return c.send(job, false, then)
}

// SendGated is Send for jobs that modify the filesystem. When the gate needs
// credentials and the lock is free, the modal is opened and job queued behind
// it in one step, so cancelling the modal always discards job.
func (c *Coordinator) SendGated(job core.Job, then ...func(core.Outcome)) *Future {
	return c.send(job, true, then)
}

func (c *Coordinator) send(job core.Job, gated bool, then []func(core.Outcome)) *Future {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	t := &task{job: job, future: newFuture(job, then...)}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		t.future.resolve(core.Outcome{Status: core.StatusCancelled, Err: core.ErrStopped})
		return t.future
	}
	requested := gated && c.openGateLocked(job.Origin)
	if c.lock != unlocked {
		t.future.queued.Store(true)
		c.queue.Push(t)
		depth := c.queue.Len()
		c.mu.Unlock()

		c.logger.Debug("lock held, job queued", "job_id", job.ID, "kind", job.Kind, "depth", depth)
		if c.observer != nil {
			c.observer.JobQueued(job.Kind)
		}
		c.publish(core.JobQueued{Job: job, Depth: depth})
		if requested {
			c.logger.Info("requesting filesystem credentials", "origin", job.Origin, "job_id", job.ID)
			c.publish(core.CredentialsRequested{Origin: job.Origin})
		}
		return t.future
	}
	c.dispatchLocked(t)
	c.mu.Unlock()

	c.afterDispatch(t)
	return t.future
}

// openGateLocked opens the credential gate and takes the lock for it when
// credentials are needed and nothing is outstanding. c.mu must be held.
func (c *Coordinator) openGateLocked(origin string) bool {
	if c.lock != unlocked || !c.gate.NeedsCollection() {
		return false
	}
	if err := c.gate.Open(origin); err != nil {
		c.logger.Error("failed to open credential gate", "error", err)
		return false
	}
	c.lock = awaitingCredentials
	return true
}

// RequestCredentials opens the credentials modal when the gate needs
// credentials and no request is outstanding. The lock stays held until the
// modal is submitted or cancelled.
func (c *Coordinator) RequestCredentials(origin string) bool {
	c.mu.Lock()
	opened := c.openGateLocked(origin)
	c.mu.Unlock()
	if !opened {
		return false
	}

	c.logger.Info("requesting filesystem credentials", "origin", origin)
	c.publish(core.CredentialsRequested{Origin: origin})
	return true
}

// SubmitCredentials stores creds, releases the lock and drains the queue. It
// returns the control that focus should return to.
func (c *Coordinator) SubmitCredentials(creds core.Credentials) (string, error) {
	c.mu.Lock()
	origin, err := c.gate.Submit(creds)
	if err != nil {
		c.mu.Unlock()
		return "", err
	}
	c.lock = unlocked
	next := c.drainLocked()
	c.mu.Unlock()

	c.logger.Info("filesystem credentials submitted", "credentials", c.gate.Credentials())
	c.publish(core.CredentialsSubmitted{Origin: origin})
	if next != nil {
		c.afterDispatch(next)
	}
	return origin, nil
}

// CancelCredentials closes the modal and discards the whole queue, including
// jobs unrelated to the credential request. Each discarded job resolves as
// cancelled and is announced with a CredentialsCancelled event.
func (c *Coordinator) CancelCredentials() (string, error) {
	c.mu.Lock()
	if c.lock == unlocked && c.queue.Len() == 0 {
		c.mu.Unlock()
		return "", nil
	}
	if c.lock == inFlight {
		c.mu.Unlock()
		return "", fmt.Errorf("cannot cancel credentials while a request is in flight: %w", credentials.ErrInvalidTransition)
	}
	origin, err := c.gate.Cancel()
	if err != nil && !errors.Is(err, credentials.ErrInvalidTransition) {
		c.mu.Unlock()
		return "", err
	}
	discarded := c.queue.Clear()
	c.lock = unlocked
	c.mu.Unlock()

	c.logger.Info("credential request cancelled", "discarded_jobs", len(discarded))
	c.cancelTasks(discarded, core.ErrCancelled)
	return origin, nil
}

// Stop refuses new jobs, cancels everything queued and waits for the
// outstanding request to finish.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	c.stopped = true
	discarded := c.queue.Clear()
	c.mu.Unlock()

	c.logger.Info("stopping coordinator", "discarded_jobs", len(discarded))
	c.cancelTasks(discarded, core.ErrStopped)
	c.wg.Wait()
}

func (c *Coordinator) cancelTasks(tasks []*task, cause error) {
	for _, t := range tasks {
		if cause == core.ErrCancelled {
			c.publish(core.CredentialsCancelled{Job: t.job})
		}
		c.finish(t, core.Outcome{Status: core.StatusCancelled, Err: cause})
	}
}

// dispatchLocked takes the lock for t. The request itself is started by
// afterDispatch once c.mu is released. c.mu must be held.
func (c *Coordinator) dispatchLocked(t *task) {
	c.lock = inFlight
	c.inflight = t
	c.wg.Add(1)
}

// drainLocked dispatches the head of the queue if the lock is free. c.mu must be held.
func (c *Coordinator) drainLocked() *task {
	if c.lock != unlocked || c.stopped {
		return nil
	}
	t, ok := c.queue.Pop()
	if !ok {
		return nil
	}
	c.dispatchLocked(t)
	return t
}

func (c *Coordinator) afterDispatch(t *task) {
	c.logger.Info("dispatching job", "job_id", t.job.ID, "kind", t.job.Kind, "subject", t.job.Subject().String())
	if c.observer != nil {
		c.observer.JobDispatched(t.job.Kind)
	}
	c.publish(core.JobDispatched{Job: t.job})
	go c.execute(t)
}

func (c *Coordinator) execute(t *task) {
	defer c.wg.Done()

	req := &core.Request{
		Action:      t.job.Kind,
		Nonce:       c.nonce,
		Credentials: c.gate.Credentials(),
		Payload:     t.job.Payload,
	}
	resp, err := c.transport.Send(c.ctx, req)
	if resp != nil {
		for _, line := range resp.Data.Debug {
			c.logger.Debug("backend debug", "job_id", t.job.ID, "line", line)
		}
	}
	c.complete(t, resp, err)
}

// complete handles the end of a request. Success, server failure and transport
// failure all release the lock the same way; only the credential failure keeps
// it held and puts the job back at the head of the queue.
func (c *Coordinator) complete(t *task, resp *core.Response, err error) {
	if err == nil && resp != nil && resp.Success {
		c.finish(t, core.Outcome{Status: core.StatusSucceeded, Response: resp})
		c.release(t)
		return
	}

	failure := core.FailureFrom(t.job, resp, err)
	if failure.Class == core.ClassFilesystemCredentials && c.gate.Required() {
		c.mu.Lock()
		if c.stopped {
			c.mu.Unlock()
			c.finish(t, core.Outcome{Status: core.StatusCancelled, Response: resp, Err: core.ErrStopped})
			c.release(t)
			return
		}
		c.inflight = nil
		c.queue.PushFront(t)
		invalidateErr := c.gate.Invalidate(failure.Message)
		c.lock = awaitingCredentials
		c.mu.Unlock()

		if invalidateErr != nil {
			c.logger.Error("failed to re-open credential gate", "error", invalidateErr)
		}
		c.logger.Warn("backend could not reach the filesystem, requesting credentials again",
			"job_id", t.job.ID, "kind", t.job.Kind)
		c.publish(core.CredentialsRequested{Origin: t.job.Origin, Error: failure.Message})
		return
	}

	c.logger.Error("job failed", "job_id", t.job.ID, "kind", t.job.Kind, "class", failure.Class.String(), "error", failure)
	c.finish(t, core.Outcome{Status: core.StatusFailed, Response: resp, Err: failure})
	c.release(t)
}

func (c *Coordinator) release(t *task) {
	c.mu.Lock()
	if c.inflight == t {
		c.inflight = nil
	}
	if c.lock == inFlight {
		c.lock = unlocked
	}
	next := c.drainLocked()
	c.mu.Unlock()

	if next != nil {
		c.afterDispatch(next)
	}
}

func (c *Coordinator) finish(t *task, o core.Outcome) {
	if !t.future.resolve(o) {
		return
	}
	if c.observer != nil {
		c.observer.JobCompleted(t.job.Kind, o.Status)
	}
	ev := core.JobCompleted{Job: t.job, Status: o.Status.String(), Response: o.Response}
	if o.Err != nil {
		ev.Error = o.Err.Error()
	}
	c.publish(ev)
}

func (c *Coordinator) publish(ev core.Event) {
	if c.publisher != nil {
		c.publisher.Publish(ev)
	}
}
