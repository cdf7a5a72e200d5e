package jobs

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/sevigo/shiny-updates/internal/core"
	"github.com/sevigo/shiny-updates/internal/credentials"
)

type reply struct {
	resp *core.Response
	err  error
}

// pendingCall is a request held by fakeTransport until the test answers it.
type pendingCall struct {
	req   *core.Request
	reply chan reply
}

func (p *pendingCall) respond(resp *core.Response, err error) {
	p.reply <- reply{resp: resp, err: err}
}

func (p *pendingCall) succeed() {
	p.respond(&core.Response{Success: true, Data: core.ResponseData{Slug: p.req.Payload.Slug}}, nil)
}

// fakeTransport blocks every request until the test responds, so tests can
// observe the coordinator while a request is outstanding.
type fakeTransport struct {
	mu          sync.Mutex
	calls       []*core.Request
	inflight    int
	maxInflight int
	pending     chan *pendingCall
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{pending: make(chan *pendingCall, 64)}
}

func (f *fakeTransport) Send(_ context.Context, req *core.Request) (*core.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.inflight++
	if f.inflight > f.maxInflight {
		f.maxInflight = f.inflight
	}
	f.mu.Unlock()

	call := &pendingCall{req: req, reply: make(chan reply, 1)}
	f.pending <- call
	r := <-call.reply

	f.mu.Lock()
	f.inflight--
	f.mu.Unlock()
	return r.resp, r.err
}

func (f *fakeTransport) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeTransport) next(t *testing.T) *pendingCall {
	t.Helper()
	select {
	case call := <-f.pending:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a request")
		return nil
	}
}

func (f *fakeTransport) assertIdle(t *testing.T) {
	t.Helper()
	select {
	case call := <-f.pending:
		t.Fatalf("unexpected request %s", call.req.Action)
	case <-time.After(30 * time.Millisecond):
	}
}

type eventRecorder struct {
	mu     sync.Mutex
	events []core.Event
}

func (r *eventRecorder) Publish(ev core.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) named(name string) []core.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []core.Event
	for _, ev := range r.events {
		if ev.EventName() == name {
			out = append(out, ev)
		}
	}
	return out
}

// cancelOnOpen dismisses the credentials modal the moment it opens.
type cancelOnOpen struct {
	eventRecorder
	c   *Coordinator
	err error
}

func (p *cancelOnOpen) Publish(ev core.Event) {
	p.eventRecorder.Publish(ev)
	if _, ok := ev.(core.CredentialsRequested); ok {
		_, p.err = p.c.CancelCredentials()
	}
}

func newTestCoordinator(transport core.Transport, gate *credentials.Gate, opts ...Option) (*Coordinator, *eventRecorder) {
	if gate == nil {
		gate = credentials.NewGate(false, core.Credentials{})
	}
	rec := &eventRecorder{}
	opts = append([]Option{WithPublisher(rec)}, opts...)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCoordinator(context.Background(), transport, gate, "nonce-123", logger, opts...), rec
}

func waitFuture(t *testing.T, f *Future) core.Outcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	o, err := f.Wait(ctx)
	if err != nil {
		t.Fatalf("future for %s did not resolve: %v", f.Job().Kind, err)
	}
	return o
}

var testCreds = core.Credentials{
	Hostname:       "ftp.example.com",
	Username:       "admin",
	Password:       "secret",
	ConnectionType: core.ConnectionFTP,
}
