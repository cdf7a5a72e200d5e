package board

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/shiny-updates/internal/core"
)

const testManifest = `
core:
  version: "6.4.2"
  new_version: "6.5"
  locale: en_US
translations:
  pending: 3
plugins:
  - plugin: akismet/akismet.php
    slug: akismet
    name: Akismet
    version: "5.2"
    new_version: "5.3"
  - plugin: hello.php
    slug: hello-dolly
    version: "1.7.2"
themes:
  - slug: twentytwentyfour
    version: "1.0"
    new_version: "1.1"
`

var (
	akismet = core.Subject{Entity: core.EntityPlugin, ID: "akismet/akismet.php"}
	hello   = core.Subject{Entity: core.EntityPlugin, ID: "hello.php"}
	tt4     = core.Subject{Entity: core.EntityTheme, ID: "twentytwentyfour"}
	coreRow = core.Subject{Entity: core.EntityCore, ID: core.CoreSubjectID}
)

func manifestBoard(t *testing.T) *Board {
	t.Helper()
	m, err := ParseManifest([]byte(testManifest))
	require.NoError(t, err)
	return m.Board()
}

func TestManifestBoard(t *testing.T) {
	b := manifestBoard(t)

	assert.Len(t, b.Rows(), 5)
	assert.Equal(t, map[Badge]int{
		BadgeAdminBar:    4,
		BadgeDashboard:   4,
		BadgeMenuPlugins: 1,
		BadgeMenuThemes:  1,
	}, b.Counters().Snapshot())

	row, ok := b.Row(hello)
	require.True(t, ok)
	assert.False(t, row.HasUpdate)
	assert.Equal(t, StatusIdle, row.Status)
	assert.Equal(t, "hello-dolly", row.Name)

	row, ok = b.Row(akismet)
	require.True(t, ok)
	assert.Equal(t, StatusUpdateReady, row.Status)
	assert.Equal(t, "Update Now", row.Label)
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.yml")
	require.NoError(t, os.WriteFile(path, []byte(testManifest), 0o600))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Len(t, m.Plugins, 2)
	assert.Equal(t, "en_US", m.Core.Locale)

	_, err = LoadManifest(filepath.Join(dir, "missing.yml"))
	assert.ErrorIs(t, err, ErrManifestNotFound)
}

func TestParseManifestErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "invalid yaml", data: "plugins: [unclosed"},
		{name: "plugin without basename", data: "plugins:\n  - slug: a\n"},
		{name: "theme without slug", data: "themes:\n  - name: Nameless\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.data))
			assert.ErrorIs(t, err, ErrManifestParsing)
		})
	}
}

func TestUpdatableOrder(t *testing.T) {
	b := manifestBoard(t)

	var order []core.Entity
	for _, r := range b.Updatable() {
		order = append(order, r.Subject.Entity)
	}
	assert.Equal(t, []core.Entity{
		core.EntityTranslation,
		core.EntityTheme,
		core.EntityPlugin,
		core.EntityCore,
	}, order)
}

func TestMarkBusyPreconditions(t *testing.T) {
	b := manifestBoard(t)

	require.NoError(t, b.MarkBusy(akismet, core.VerbUpdate))
	row, _ := b.Row(akismet)
	assert.Equal(t, StatusBusy, row.Status)
	assert.Equal(t, "Updating...", row.Label)

	assert.ErrorIs(t, b.MarkBusy(akismet, core.VerbUpdate), core.ErrInProgress)
	assert.ErrorIs(t, b.MarkBusy(hello, core.VerbUpdate), core.ErrAlreadyCompleted)
	assert.ErrorIs(t, b.MarkBusy(core.Subject{Entity: core.EntityTheme, ID: "nope"}, core.VerbDelete), core.ErrUnknownSubject)

	_, err := b.Complete(akismet, core.VerbUpdate, &core.Response{Success: true})
	require.NoError(t, err)
	assert.ErrorIs(t, b.MarkBusy(akismet, core.VerbUpdate), core.ErrAlreadyCompleted)
}

func TestMarkBusyInstallCreatesCard(t *testing.T) {
	b := New(nil)
	card := core.Subject{Entity: core.EntityPlugin, ID: "jetpack"}

	require.NoError(t, b.MarkBusy(card, core.VerbInstall))
	row, ok := b.Row(card)
	require.True(t, ok)
	assert.Equal(t, "Installing...", row.Label)

	before, err := b.Complete(card, core.VerbInstall, &core.Response{Success: true, Data: core.ResponseData{PluginName: "Jetpack"}})
	require.NoError(t, err)
	assert.Equal(t, StatusNotInstalled, before.Status)

	row, _ = b.Row(card)
	assert.Equal(t, StatusInstalled, row.Status)
	assert.Equal(t, "Jetpack", row.Name)
	assert.ErrorIs(t, b.MarkBusy(card, core.VerbInstall), core.ErrAlreadyCompleted)
}

func TestCompleteInstallRekeysPluginToBasename(t *testing.T) {
	b := New(nil)
	card := core.Subject{Entity: core.EntityPlugin, ID: "jetpack"}
	installed := core.Subject{Entity: core.EntityPlugin, ID: "jetpack/jetpack.php"}

	require.NoError(t, b.MarkBusy(card, core.VerbInstall))
	_, err := b.Complete(card, core.VerbInstall, &core.Response{Success: true, Data: core.ResponseData{
		Slug: "jetpack", Plugin: "jetpack/jetpack.php", PluginName: "Jetpack",
	}})
	require.NoError(t, err)

	_, ok := b.Row(card)
	assert.False(t, ok)
	row, ok := b.Row(installed)
	require.True(t, ok)
	assert.Equal(t, installed, row.Subject)
	assert.Equal(t, "jetpack", row.Slug)
	assert.Equal(t, StatusInstalled, row.Status)
	assert.Len(t, b.Rows(), 1)

	require.NoError(t, b.MarkBusy(installed, core.VerbDelete))
}

func TestCompleteUpdate(t *testing.T) {
	b := manifestBoard(t)
	require.NoError(t, b.MarkBusy(tt4, core.VerbUpdate))

	before, err := b.Complete(tt4, core.VerbUpdate, &core.Response{Success: true, Data: core.ResponseData{NewVersion: "1.1"}})
	require.NoError(t, err)
	assert.True(t, before.HasUpdate)
	assert.Equal(t, StatusUpdateReady, before.Status)

	row, _ := b.Row(tt4)
	assert.Equal(t, StatusUpdated, row.Status)
	assert.Equal(t, "Updated!", row.Label)
	assert.Equal(t, "1.1", row.Version)
	assert.False(t, row.HasUpdate)
	assert.Empty(t, row.NewVersion)
}

func TestFailAndDismissRestoresRow(t *testing.T) {
	b := manifestBoard(t)
	require.NoError(t, b.MarkBusy(coreRow, core.VerbUpdate))
	require.NoError(t, b.Fail(coreRow, "Download failed."))

	row, _ := b.Row(coreRow)
	assert.Equal(t, StatusFailed, row.Status)
	assert.Equal(t, "Download failed.", row.Error)

	// a failed row can be retried
	assert.Contains(t, b.Updatable(), row)

	require.NoError(t, b.Dismiss(coreRow))
	row, _ = b.Row(coreRow)
	assert.Equal(t, StatusUpdateReady, row.Status)
	assert.Equal(t, "Update Now", row.Label)
	assert.Empty(t, row.Error)

	// dismissing a row without an error changes nothing
	require.NoError(t, b.Dismiss(coreRow))
	assert.ErrorIs(t, b.Dismiss(core.Subject{Entity: core.EntityCore, ID: "x"}), core.ErrUnknownSubject)
}

func TestRestoreAfterCancel(t *testing.T) {
	b := manifestBoard(t)
	require.NoError(t, b.MarkBusy(hello, core.VerbDelete))
	require.NoError(t, b.Restore(hello))

	row, _ := b.Row(hello)
	assert.Equal(t, StatusIdle, row.Status)
	require.NoError(t, b.MarkBusy(hello, core.VerbDelete), "a restored row can be retried")
}
