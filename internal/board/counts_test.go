package board

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sevigo/shiny-updates/internal/core"
)

func TestCountersDecrementToZero(t *testing.T) {
	c := NewCounters(map[core.Entity]int{core.EntityPlugin: 2})

	v, shown := c.Value(BadgeMenuPlugins)
	assert.Equal(t, 2, v)
	assert.True(t, shown)

	total, changed := c.Decrement(core.EntityPlugin)
	assert.True(t, changed)
	assert.Equal(t, 1, total)
	v, shown = c.Value(BadgeMenuPlugins)
	assert.Equal(t, 1, v)
	assert.True(t, shown)

	total, changed = c.Decrement(core.EntityPlugin)
	assert.True(t, changed)
	assert.Equal(t, 0, total)
	v, shown = c.Value(BadgeMenuPlugins)
	assert.Equal(t, 0, v)
	assert.False(t, shown, "badge is removed at zero")

	total, changed = c.Decrement(core.EntityPlugin)
	assert.False(t, changed)
	assert.Equal(t, 0, total)
	v, _ = c.Value(BadgeMenuPlugins)
	assert.Equal(t, 0, v, "never negative")
}

func TestCountersAggregateBadges(t *testing.T) {
	c := NewCounters(map[core.Entity]int{
		core.EntityPlugin:      2,
		core.EntityTheme:       1,
		core.EntityCore:        1,
		core.EntityTranslation: 0,
	})
	assert.Equal(t, map[Badge]int{
		BadgeAdminBar:    4,
		BadgeDashboard:   4,
		BadgeMenuPlugins: 2,
		BadgeMenuThemes:  1,
	}, c.Snapshot())

	c.Decrement(core.EntityTheme)
	assert.Equal(t, map[Badge]int{
		BadgeAdminBar:    3,
		BadgeDashboard:   3,
		BadgeMenuPlugins: 2,
	}, c.Snapshot())

	c.Decrement(core.EntityCore)
	assert.Equal(t, 2, c.Snapshot()[BadgeAdminBar])
	assert.Equal(t, 0, c.Total(core.EntityCore))
}

func TestCountersDecrementOnce(t *testing.T) {
	c := NewCounters(map[core.Entity]int{core.EntityTheme: 3})

	total, changed := c.DecrementOnce("job-1", core.EntityTheme)
	assert.True(t, changed)
	assert.Equal(t, 2, total)

	total, changed = c.DecrementOnce("job-1", core.EntityTheme)
	assert.False(t, changed, "a duplicate success must not count twice")
	assert.Equal(t, 2, total)

	total, changed = c.DecrementOnce("job-2", core.EntityTheme)
	assert.True(t, changed)
	assert.Equal(t, 1, total)
}

func TestCountersEmpty(t *testing.T) {
	c := NewCounters(nil)
	assert.Empty(t, c.Snapshot())
	_, changed := c.Decrement(core.EntityCore)
	assert.False(t, changed)
}
