// Package credentials implements the gate that collects filesystem credentials
// before privileged operations run.
package credentials

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sevigo/shiny-updates/internal/core"
)

// ErrInvalidTransition is returned when an event is not allowed in the current state.
var ErrInvalidTransition = errors.New("invalid credential gate transition")

// State is the gate's position in its state machine.
type State int

const (
	// StateUnneeded means the site never asks for credentials.
	StateUnneeded State = iota
	// StateRequired means credentials are needed but not collected and the modal is closed.
	StateRequired
	// StateCollecting means the modal is open and the dispatcher lock is held.
	StateCollecting
	// StateSatisfied means credentials are available and attached to requests.
	StateSatisfied
)

func (s State) String() string {
	switch s {
	case StateUnneeded:
		return "unneeded"
	case StateRequired:
		return "required"
	case StateCollecting:
		return "collecting"
	case StateSatisfied:
		return "satisfied"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Gate is the credential state machine. It holds the session's credentials and
// the focus-return reference, nothing else. Lock coupling lives in the
// dispatcher, which drives these transitions.
type Gate struct {
	mu          sync.Mutex
	state       State
	creds       core.Credentials
	returnFocus string
	lastError   string
}

// NewGate creates a gate. required is decided once at startup; preset carries
// any defaults (hostname, username, connection type, fs nonce) to pre-fill.
func NewGate(required bool, preset core.Credentials) *Gate {
	preset.Available = false
	g := &Gate{creds: preset, state: StateUnneeded}
	if required {
		g.state = StateRequired
	}
	return g
}

// State returns the current state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Required reports whether the site asks for credentials at all.
func (g *Gate) Required() bool {
	return g.State() != StateUnneeded
}

// NeedsCollection reports whether the next mutating action must open the modal.
func (g *Gate) NeedsCollection() bool {
	return g.State() == StateRequired
}

// Credentials returns a copy of the current credentials.
func (g *Gate) Credentials() core.Credentials {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.creds
}

// LastError returns the error shown inline in the modal, if any.
func (g *Gate) LastError() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastError
}

// Open moves the gate into Collecting. The first origin since the modal last
// closed is kept for focus restoration. Opening an already open gate is a no-op.
func (g *Gate) Open(origin string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state {
	case StateCollecting:
		return nil
	case StateRequired, StateSatisfied:
		if g.returnFocus == "" {
			g.returnFocus = origin
		}
		g.state = StateCollecting
		return nil
	default:
		return fmt.Errorf("open from %s: %w", g.state, ErrInvalidTransition)
	}
}

// Submit stores the form values and moves to Satisfied. It returns the
// reference to return focus to.
func (g *Gate) Submit(c core.Credentials) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateCollecting {
		return "", fmt.Errorf("submit from %s: %w", g.state, ErrInvalidTransition)
	}
	if err := c.Validate(); err != nil {
		return "", fmt.Errorf("invalid credentials: %w", err)
	}
	if c.FSNonce == "" {
		c.FSNonce = g.creds.FSNonce
	}
	c.Available = true
	g.creds = c
	g.lastError = ""
	g.state = StateSatisfied
	return g.takeFocus(), nil
}

// Cancel closes the modal without credentials.
func (g *Gate) Cancel() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateCollecting {
		return "", fmt.Errorf("cancel from %s: %w", g.state, ErrInvalidTransition)
	}
	if g.creds.Available {
		g.state = StateSatisfied
	} else {
		g.state = StateRequired
	}
	g.lastError = ""
	return g.takeFocus(), nil
}

// Invalidate marks the credentials unusable after the backend could not reach
// the filesystem, and re-opens the modal with message shown inline.
func (g *Gate) Invalidate(message string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == StateUnneeded {
		return fmt.Errorf("invalidate from %s: %w", g.state, ErrInvalidTransition)
	}
	g.creds.Available = false
	g.lastError = message
	g.state = StateCollecting
	return nil
}

func (g *Gate) takeFocus() string {
	origin := g.returnFocus
	g.returnFocus = ""
	return origin
}
