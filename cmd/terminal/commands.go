package main

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sevigo/shiny-updates/internal/app"
	"github.com/sevigo/shiny-updates/internal/board"
	"github.com/sevigo/shiny-updates/internal/core"
	"github.com/sevigo/shiny-updates/internal/wire"
)

// promptOrigin is the focus reference of the command prompt.
const promptOrigin = "prompt"

var errUsage = errors.New("usage")

func initializeAppCmd() tea.Cmd {
	return func() tea.Msg {
		app, cleanup, err := wire.InitializeApp(context.Background())
		if err != nil {
			return appInitializedMsg{err: err}
		}
		return appInitializedMsg{app: app, cleanup: cleanup}
	}
}

// waitForEvent delivers the next bus event to the update loop.
func waitForEvent(events <-chan core.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg{event: ev}
	}
}

// operation is a job parsed from the prompt.
type operation struct {
	kind    core.Kind
	payload core.Payload
}

// parseOperation turns "/update plugin akismet/akismet.php" style input into a
// job. Slugs left out are taken from the board when the row is known.
func parseOperation(verb string, args []string, b *board.Board) (operation, error) {
	if len(args) == 0 {
		return operation{}, fmt.Errorf("%w: %s plugin|theme|core|translations ...", errUsage, verb)
	}
	target, rest := args[0], args[1:]

	switch verb + " " + target {
	case "/install plugin", "/install theme":
		if len(rest) != 1 {
			return operation{}, fmt.Errorf("%w: %s %s [slug]", errUsage, verb, target)
		}
		kind := core.KindInstallPlugin
		if target == "theme" {
			kind = core.KindInstallTheme
		}
		return operation{kind: kind, payload: core.Payload{Slug: rest[0]}}, nil

	case "/update plugin", "/delete plugin":
		if len(rest) < 1 || len(rest) > 2 {
			return operation{}, fmt.Errorf("%w: %s plugin [basename] [slug]", errUsage, verb)
		}
		kind := core.KindUpdatePlugin
		if verb == "/delete" {
			kind = core.KindDeletePlugin
		}
		p := core.Payload{Plugin: rest[0]}
		if len(rest) == 2 {
			p.Slug = rest[1]
		} else {
			p.Slug = pluginSlug(b, rest[0])
		}
		return operation{kind: kind, payload: p}, nil

	case "/update theme", "/delete theme":
		if len(rest) != 1 {
			return operation{}, fmt.Errorf("%w: %s theme [slug]", errUsage, verb)
		}
		kind := core.KindUpdateTheme
		if verb == "/delete" {
			kind = core.KindDeleteTheme
		}
		return operation{kind: kind, payload: core.Payload{Slug: rest[0]}}, nil

	case "/update core":
		p := core.Payload{}
		if row, ok := b.Row(core.Subject{Entity: core.EntityCore, ID: core.CoreSubjectID}); ok {
			p.Version, p.Locale = row.NewVersion, row.Locale
		}
		if len(rest) > 0 {
			p.Version = rest[0]
		}
		if len(rest) > 1 {
			p.Locale = rest[1]
		}
		if p.Version == "" {
			return operation{}, fmt.Errorf("%w: /update core [version] [locale]", errUsage)
		}
		return operation{kind: core.KindUpdateCore, payload: p}, nil

	case "/update translations":
		return operation{kind: core.KindUpdateTranslations}, nil
	}
	return operation{}, fmt.Errorf("%w: cannot %s %q", errUsage, strings.TrimPrefix(verb, "/"), target)
}

// pluginSlug finds the slug of an installed plugin, falling back to the
// directory part of its basename.
func pluginSlug(b *board.Board, basename string) string {
	if row, ok := b.Row(core.Subject{Entity: core.EntityPlugin, ID: basename}); ok && row.Slug != "" {
		return row.Slug
	}
	if dir := path.Dir(basename); dir != "." {
		return dir
	}
	return strings.TrimSuffix(basename, path.Ext(basename))
}

func runOperationCmd(app *app.App, op operation) tea.Cmd {
	return func() tea.Msg {
		future, err := app.Service.Run(promptOrigin, op.kind, op.payload)
		return operationStartedMsg{future: future, err: err}
	}
}

func updateAllCmd(app *app.App) tea.Cmd {
	return func() tea.Msg {
		batch, err := app.Service.UpdateAll(promptOrigin)
		return batchStartedMsg{batch: batch, err: err}
	}
}

func submitCredentialsCmd(app *app.App, creds core.Credentials) tea.Cmd {
	return func() tea.Msg {
		origin, err := app.Coordinator.SubmitCredentials(creds)
		return credentialsResultMsg{submitted: true, origin: origin, err: err}
	}
}

func cancelCredentialsCmd(app *app.App) tea.Cmd {
	return func() tea.Msg {
		origin, err := app.Coordinator.CancelCredentials()
		return credentialsResultMsg{origin: origin, err: err}
	}
}
