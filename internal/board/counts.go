package board

import (
	"slices"
	"sync"

	"github.com/sevigo/shiny-updates/internal/core"
)

// Badge is a visible counter of pending updates.
type Badge string

const (
	BadgeAdminBar    Badge = "admin-bar"
	BadgeDashboard   Badge = "dashboard"
	BadgeMenuPlugins Badge = "menu-plugins"
	BadgeMenuThemes  Badge = "menu-themes"
)

// badgeEntities lists which entities each badge aggregates.
var badgeEntities = map[Badge][]core.Entity{
	BadgeAdminBar:    {core.EntityPlugin, core.EntityTheme, core.EntityCore, core.EntityTranslation},
	BadgeDashboard:   {core.EntityPlugin, core.EntityTheme, core.EntityCore, core.EntityTranslation},
	BadgeMenuPlugins: {core.EntityPlugin},
	BadgeMenuThemes:  {core.EntityTheme},
}

// Counters tracks the pending-update badges.
type Counters struct {
	mu      sync.Mutex
	totals  map[core.Entity]int
	values  map[Badge]int
	visible map[Badge]bool
	seen    map[string]struct{}
}

// NewCounters derives every badge from the per-entity pending totals.
func NewCounters(totals map[core.Entity]int) *Counters {
	c := &Counters{
		totals:  make(map[core.Entity]int),
		values:  make(map[Badge]int),
		visible: make(map[Badge]bool),
		seen:    make(map[string]struct{}),
	}
	for e, n := range totals {
		if n > 0 {
			c.totals[e] = n
		}
	}
	for badge, entities := range badgeEntities {
		sum := 0
		for _, e := range entities {
			sum += c.totals[e]
		}
		c.values[badge] = sum
		c.visible[badge] = sum > 0
	}
	return c
}

// Decrement lowers every visible badge that aggregates entity by one. A badge
// that reaches zero is removed; removed badges and zero totals are left alone.
// It returns the remaining total for entity and whether anything changed.
func (c *Counters) Decrement(entity core.Entity) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.decrementLocked(entity)
}

// DecrementOnce is Decrement guarded by a job identifier, so a job's success
// can never be counted twice.
func (c *Counters) DecrementOnce(jobID string, entity core.Entity) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.seen[jobID]; dup {
		return c.totals[entity], false
	}
	c.seen[jobID] = struct{}{}
	return c.decrementLocked(entity)
}

func (c *Counters) decrementLocked(entity core.Entity) (int, bool) {
	changed := false
	if c.totals[entity] > 0 {
		c.totals[entity]--
		changed = true
	}
	for badge, entities := range badgeEntities {
		if !slices.Contains(entities, entity) || !c.visible[badge] {
			continue
		}
		if c.values[badge] <= 0 {
			continue
		}
		c.values[badge]--
		changed = true
		if c.values[badge] == 0 {
			c.visible[badge] = false
		}
	}
	return c.totals[entity], changed
}

// Value returns the badge count and whether the badge is still shown.
func (c *Counters) Value(b Badge) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[b], c.visible[b]
}

// Total returns the pending count for one entity.
func (c *Counters) Total(entity core.Entity) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totals[entity]
}

// Snapshot returns the visible badges and their values.
func (c *Counters) Snapshot() map[Badge]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[Badge]int, len(c.values))
	for b, v := range c.values {
		if c.visible[b] {
			out[b] = v
		}
	}
	return out
}
