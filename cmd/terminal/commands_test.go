package main

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/shiny-updates/internal/board"
	"github.com/sevigo/shiny-updates/internal/core"
	"github.com/sevigo/shiny-updates/internal/credentials"
)

func testBoard(t *testing.T) *board.Board {
	t.Helper()
	m, err := board.ParseManifest([]byte(`
core:
  version: "6.4.2"
  new_version: "6.5"
  locale: de_DE
plugins:
  - plugin: akismet/akismet.php
    slug: akismet-anti-spam
    name: Akismet
    version: "5.2"
    new_version: "5.3"
`))
	require.NoError(t, err)
	return m.Board()
}

func TestParseOperation(t *testing.T) {
	b := testBoard(t)

	tests := []struct {
		name  string
		input []string
		verb  string
		want  operation
	}{
		{"update plugin uses board slug", []string{"plugin", "akismet/akismet.php"}, "/update",
			operation{core.KindUpdatePlugin, core.Payload{Plugin: "akismet/akismet.php", Slug: "akismet-anti-spam"}}},
		{"update unknown plugin derives slug", []string{"plugin", "hello-dolly/hello.php"}, "/update",
			operation{core.KindUpdatePlugin, core.Payload{Plugin: "hello-dolly/hello.php", Slug: "hello-dolly"}}},
		{"single file plugin", []string{"plugin", "hello.php"}, "/delete",
			operation{core.KindDeletePlugin, core.Payload{Plugin: "hello.php", Slug: "hello"}}},
		{"install theme", []string{"theme", "twentytwentyfive"}, "/install",
			operation{core.KindInstallTheme, core.Payload{Slug: "twentytwentyfive"}}},
		{"core from manifest", []string{"core"}, "/update",
			operation{core.KindUpdateCore, core.Payload{Version: "6.5", Locale: "de_DE"}}},
		{"core explicit", []string{"core", "6.6", "en_US"}, "/update",
			operation{core.KindUpdateCore, core.Payload{Version: "6.6", Locale: "en_US"}}},
		{"translations", []string{"translations"}, "/update",
			operation{kind: core.KindUpdateTranslations}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseOperation(tt.verb, tt.input, b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOperationUsage(t *testing.T) {
	b := testBoard(t)
	for _, args := range [][]string{
		nil,
		{"plugin"},
		{"theme"},
		{"widget", "x"},
		{"theme", "a", "b"},
	} {
		_, err := parseOperation("/update", args, b)
		assert.ErrorIs(t, err, errUsage, "%v", args)
	}
	_, err := parseOperation("/install", []string{"core"}, b)
	assert.ErrorIs(t, err, errUsage)
}

func TestModalKeepsFocusInside(t *testing.T) {
	modal := newCredentialsModal()
	modal.Open(core.Credentials{Hostname: "ftp.example.com"}, "")
	assert.Equal(t, "ftp.example.com", modal.inputs[0].Value())

	for range 3 {
		action, _ := modal.Update(tea.KeyMsg{Type: tea.KeyTab})
		assert.Equal(t, credentials.ActionMoved, action)
	}
	assert.Equal(t, submitControl, modal.trap.Focused())

	action, _ := modal.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, credentials.ActionMoved, action)
	assert.Equal(t, "hostname", modal.trap.Focused())

	action, _ = modal.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, credentials.ActionMoved, action)
	action, _ = modal.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, credentials.ActionSubmit, action)

	action, _ = modal.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, credentials.ActionCancel, action)
}

func TestModalSubmitsOnEnterFromInput(t *testing.T) {
	modal := newCredentialsModal()
	modal.Open(core.Credentials{Hostname: "ftp.example.com", Username: "admin"}, "")
	modal.Update(tea.KeyMsg{Type: tea.KeyTab})
	modal.Update(tea.KeyMsg{Type: tea.KeyTab})
	modal.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("secret")})

	action, _ := modal.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, credentials.ActionSubmit, action)
	assert.Equal(t, "password", modal.trap.Focused())
	assert.Equal(t, "secret", modal.Credentials("ftp").Password)
}

func TestModalTypesIntoFocusedInput(t *testing.T) {
	modal := newCredentialsModal()
	modal.Open(core.Credentials{}, "")
	modal.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("ftp.site")})
	modal.Update(tea.KeyMsg{Type: tea.KeyTab})
	modal.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("deploy")})

	creds := modal.Credentials("ftp")
	assert.Equal(t, "ftp.site", creds.Hostname)
	assert.Equal(t, "deploy", creds.Username)
	assert.Equal(t, core.ConnectionFTP, creds.ConnectionType)
}
