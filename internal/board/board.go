// Package board keeps the state of the rows and cards the operations act on,
// and the pending-update badges shown alongside them.
package board

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sevigo/shiny-updates/internal/core"
)

// RowStatus is the visible state of a row.
type RowStatus string

const (
	StatusIdle         RowStatus = "idle"
	StatusUpdateReady  RowStatus = "update-available"
	StatusBusy         RowStatus = "busy"
	StatusUpdated      RowStatus = "updated"
	StatusInstalled    RowStatus = "installed"
	StatusDeleted      RowStatus = "deleted"
	StatusFailed       RowStatus = "failed"
	StatusNotInstalled RowStatus = "not-installed"
)

// Row is one plugin, theme, core or translations entry.
type Row struct {
	Subject    core.Subject `json:"subject"`
	Name       string       `json:"name"`
	Slug       string       `json:"slug,omitempty"`
	Version    string       `json:"version,omitempty"`
	NewVersion string       `json:"new_version,omitempty"`
	Locale     string       `json:"locale,omitempty"`
	HasUpdate  bool         `json:"has_update"`
	Status     RowStatus    `json:"status"`
	Label      string       `json:"label"`
	Error      string       `json:"error,omitempty"`

	prior *rowState
}

// rowState is what a row looked like before an attempt started.
type rowState struct {
	status RowStatus
	label  string
}

// Board holds all rows in display order.
type Board struct {
	mu       sync.RWMutex
	rows     map[core.Subject]*Row
	order    []core.Subject
	counters *Counters
}

// New creates a board with the given badges.
func New(counters *Counters) *Board {
	if counters == nil {
		counters = NewCounters(nil)
	}
	return &Board{
		rows:     make(map[core.Subject]*Row),
		counters: counters,
	}
}

// Counters returns the pending-update badges.
func (b *Board) Counters() *Counters {
	return b.counters
}

// Add inserts or replaces a row. Rows without a status get one derived from HasUpdate.
func (b *Board) Add(r Row) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if r.Status == "" {
		r.Status = StatusIdle
		if r.HasUpdate {
			r.Status = StatusUpdateReady
		}
	}
	if r.Label == "" {
		r.Label = defaultLabel(r.Status)
	}
	if _, exists := b.rows[r.Subject]; !exists {
		b.order = append(b.order, r.Subject)
	}
	row := r
	b.rows[r.Subject] = &row
}

// Row returns a copy of the row for subject.
func (b *Board) Row(s core.Subject) (Row, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	r, ok := b.rows[s]
	if !ok {
		return Row{}, false
	}
	return *r, true
}

// Rows returns copies of all rows in display order.
func (b *Board) Rows() []Row {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Row, 0, len(b.order))
	for _, s := range b.order {
		out = append(out, *b.rows[s])
	}
	return out
}

var updateOrder = map[core.Entity]int{
	core.EntityTranslation: 0,
	core.EntityTheme:       1,
	core.EntityPlugin:      2,
	core.EntityCore:        3,
}

// Updatable returns every row with a pending update that is not already
// busy or done: translations first, then themes, plugins and finally core.
func (b *Board) Updatable() []Row {
	b.mu.RLock()
	var out []Row
	for _, s := range b.order {
		r := b.rows[s]
		if r.HasUpdate && (r.Status == StatusUpdateReady || r.Status == StatusFailed) {
			out = append(out, *r)
		}
	}
	b.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return updateOrder[out[i].Subject.Entity] < updateOrder[out[j].Subject.Entity]
	})
	return out
}

// MarkBusy flags the row as in progress for verb and remembers what it looked
// like before. Rows that do not exist yet are created, which is how install
// cards from a search enter the board.
func (b *Board) MarkBusy(s core.Subject, verb core.Verb) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.rows[s]
	if !ok {
		if verb != core.VerbInstall {
			return fmt.Errorf("%s: %w", s, core.ErrUnknownSubject)
		}
		r = &Row{Subject: s, Name: s.ID, Slug: s.ID, Status: StatusNotInstalled, Label: defaultLabel(StatusNotInstalled)}
		b.rows[s] = r
		b.order = append(b.order, s)
	}

	if r.Status == StatusBusy {
		return fmt.Errorf("%s: %w", s, core.ErrInProgress)
	}
	if done := completedStatus(verb); r.Status == done {
		return fmt.Errorf("%s %s: %w", verb, s, core.ErrAlreadyCompleted)
	}
	if verb == core.VerbUpdate && !r.HasUpdate {
		return fmt.Errorf("%s has no pending update: %w", s, core.ErrAlreadyCompleted)
	}

	// a retry after a failure keeps the state from before the first attempt
	if r.prior == nil {
		r.prior = &rowState{status: r.Status, label: r.Label}
	}
	r.Status = StatusBusy
	r.Label = busyLabel(verb)
	r.Error = ""
	return nil
}

// Complete applies a successful outcome. It returns the row as it was before
// the attempt started.
func (b *Board) Complete(s core.Subject, verb core.Verb, resp *core.Response) (Row, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.rows[s]
	if !ok {
		return Row{}, fmt.Errorf("%s: %w", s, core.ErrUnknownSubject)
	}
	before := *r
	if r.prior != nil {
		before.Status, before.Label = r.prior.status, r.prior.label
	}

	r.Status = completedStatus(verb)
	r.Label = defaultLabel(r.Status)
	r.Error = ""
	r.prior = nil
	switch verb {
	case core.VerbUpdate:
		r.HasUpdate = false
		if resp != nil && resp.Data.NewVersion != "" {
			r.Version = resp.Data.NewVersion
		} else if r.NewVersion != "" {
			r.Version = r.NewVersion
		}
		r.NewVersion = ""
	case core.VerbDelete:
		r.HasUpdate = false
	}
	if resp != nil && resp.Data.PluginName != "" {
		r.Name = resp.Data.PluginName
	}
	b.rekeyLocked(r, Installed(s, verb, resp))
	return before, nil
}

// Installed returns the subject a completed job's row is kept under. Plugin
// installs are addressed by slug until the site reports the basename.
func Installed(s core.Subject, verb core.Verb, resp *core.Response) core.Subject {
	if verb == core.VerbInstall && s.Entity == core.EntityPlugin && resp != nil && resp.Data.Plugin != "" {
		return core.Subject{Entity: core.EntityPlugin, ID: resp.Data.Plugin}
	}
	return s
}

// rekeyLocked moves r to subject to, replacing any row already kept there.
// b.mu must be held.
func (b *Board) rekeyLocked(r *Row, to core.Subject) {
	from := r.Subject
	if from == to {
		return
	}
	delete(b.rows, from)
	_, exists := b.rows[to]
	order := b.order[:0]
	for _, s := range b.order {
		switch {
		case s != from:
			order = append(order, s)
		case !exists:
			order = append(order, to)
		}
	}
	b.order = order
	r.Subject = to
	b.rows[to] = r
}

// Fail marks the row failed with message. The prior state is kept so that
// dismissing the error restores it.
func (b *Board) Fail(s core.Subject, message string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.rows[s]
	if !ok {
		return fmt.Errorf("%s: %w", s, core.ErrUnknownSubject)
	}
	r.Status = StatusFailed
	r.Label = defaultLabel(StatusFailed)
	r.Error = message
	return nil
}

// Restore puts the row back into its pre-attempt state, e.g. after the
// credentials modal was cancelled.
func (b *Board) Restore(s core.Subject) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.rows[s]
	if !ok {
		return fmt.Errorf("%s: %w", s, core.ErrUnknownSubject)
	}
	if r.prior != nil {
		r.Status, r.Label = r.prior.status, r.prior.label
		r.prior = nil
	}
	r.Error = ""
	return nil
}

// Dismiss removes a failed row's error notice and restores its pre-attempt state.
func (b *Board) Dismiss(s core.Subject) error {
	b.mu.RLock()
	r, ok := b.rows[s]
	failed := ok && r.Status == StatusFailed
	b.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%s: %w", s, core.ErrUnknownSubject)
	}
	if !failed {
		return nil
	}
	return b.Restore(s)
}

func completedStatus(verb core.Verb) RowStatus {
	switch verb {
	case core.VerbInstall:
		return StatusInstalled
	case core.VerbDelete:
		return StatusDeleted
	default:
		return StatusUpdated
	}
}

func busyLabel(verb core.Verb) string {
	switch verb {
	case core.VerbInstall:
		return "Installing..."
	case core.VerbDelete:
		return "Deleting..."
	default:
		return "Updating..."
	}
}

func defaultLabel(s RowStatus) string {
	switch s {
	case StatusUpdateReady:
		return "Update Now"
	case StatusUpdated:
		return "Updated!"
	case StatusInstalled:
		return "Installed!"
	case StatusDeleted:
		return "Deleted"
	case StatusFailed:
		return "Failed!"
	case StatusNotInstalled:
		return "Install Now"
	default:
		return ""
	}
}
