package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sevigo/shiny-updates/internal/app"
	"github.com/sevigo/shiny-updates/internal/board"
	"github.com/sevigo/shiny-updates/internal/core"
	"github.com/sevigo/shiny-updates/internal/credentials"
)

const eventBuffer = 128

type model struct {
	styles  styles
	app     *app.App
	cleanup func()

	// UI Components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	modal    *credentialsModal

	events      <-chan core.Event
	stopEvents  context.CancelFunc
	history     []string
	initialized bool
}

func initialModel(theme ThemeName) *model {
	styles := GetTheme(theme)
	ta := textarea.New()
	ta.Placeholder = "Type /help for commands..."
	ta.Focus()
	ta.Prompt = styles.prompt.Render("► ")
	ta.CharLimit = 300
	ta.SetWidth(50)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	sp := spinner.New()
	sp.Spinner = spinner.Points

	return &model{
		styles:   styles,
		textarea: ta,
		spinner:  sp,
		modal:    newCredentialsModal(),
		history:  []string{styles.title.Render("shiny-updates"), "", "Loading update manifest..."},
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(initializeAppCmd(), m.spinner.Tick)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, m.quit()
		}
		if m.modal.open {
			return m, m.updateModal(msg)
		}
		switch msg.Type {
		case tea.KeyEsc:
			return m, m.quit()
		case tea.KeyEnter:
			input := strings.TrimSpace(m.textarea.Value())
			m.textarea.Reset()
			if input == "" {
				return m, nil
			}
			return m, m.processCommand(input)
		}

	case appInitializedMsg:
		if msg.err != nil {
			m.print(m.styles.error.Render("Failed to initialize: " + msg.err.Error()))
			return m, nil
		}
		m.app = msg.app
		m.cleanup = msg.cleanup
		m.initialized = true
		ctx, cancel := context.WithCancel(context.Background())
		m.stopEvents = cancel
		m.events = m.app.Bus.Stream(ctx, eventBuffer)
		m.print(m.styles.success.Render(fmt.Sprintf("✓ %d rows loaded", len(m.app.Board.Rows()))))
		m.print(m.rowsView())
		m.print(m.styles.inactive.Render("Type /help for commands."))
		return m, waitForEvent(m.events)

	case eventMsg:
		return m, tea.Batch(m.handleEvent(msg.event), waitForEvent(m.events))

	case operationStartedMsg:
		if msg.err != nil {
			m.print(m.styles.error.Render("⚠ " + msg.err.Error()))
			return m, nil
		}
		job := msg.future.Job()
		if msg.future.Queued() {
			m.print(m.styles.inactive.Render(fmt.Sprintf("queued %s %s", job.Kind, job.Subject())))
		}
		return m, nil

	case batchStartedMsg:
		if msg.err != nil {
			m.print(m.styles.error.Render("⚠ " + msg.err.Error()))
			return m, nil
		}
		m.print(m.styles.command.Render(fmt.Sprintf("→ updating %d items", len(msg.batch.Futures()))))
		return m, nil

	case credentialsResultMsg:
		if msg.err != nil {
			m.modal.errMsg = msg.err.Error()
			return m, nil
		}
		m.modal.Close()
		return m, m.textarea.Focus()

	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - 8
		m.textarea.SetWidth(msg.Width - 10)
		m.refresh()
	}

	var tiCmd, vpCmd, spCmd tea.Cmd
	m.textarea, tiCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	m.spinner, spCmd = m.spinner.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd, spCmd)
}

func (m *model) updateModal(msg tea.KeyMsg) tea.Cmd {
	action, cmd := m.modal.Update(msg)
	switch action {
	case credentials.ActionSubmit:
		creds := m.modal.Credentials(m.app.Config.Site.ConnectionType)
		if err := creds.Validate(); err != nil {
			m.modal.errMsg = err.Error()
			return nil
		}
		return submitCredentialsCmd(m.app, creds)
	case credentials.ActionCancel:
		return cancelCredentialsCmd(m.app)
	}
	return cmd
}

func (m *model) handleEvent(ev core.Event) tea.Cmd {
	switch e := ev.(type) {
	case core.MessageShown:
		m.print(m.messageStyle(e.Message.Severity).Render(e.Message.Text))
	case core.CredentialsRequested:
		m.textarea.Blur()
		gate := m.app.Coordinator.Gate()
		return m.modal.Open(gate.Credentials(), e.Error)
	case core.CredentialsCancelled:
		m.print(m.styles.inactive.Render(fmt.Sprintf("cancelled %s %s", e.Job.Kind, e.Job.Subject())))
	case core.BulkCompleted:
		m.print(m.rowsView())
	}
	return nil
}

func (m *model) messageStyle(s core.Severity) lipgloss.Style {
	switch s {
	case core.SeverityError:
		return m.styles.error
	case core.SeverityWarning:
		return m.styles.warning
	case core.SeveritySuccess:
		return m.styles.success
	default:
		return m.styles.command
	}
}

func (m *model) View() string {
	if !m.initialized {
		return fmt.Sprintf("\n  %s %s\n\n", m.spinner.View(), strings.Join(m.history, "\n  "))
	}

	if m.modal.open {
		return m.styles.app.Render(lipgloss.JoinVertical(lipgloss.Left,
			m.styles.viewport.Render(m.viewport.View()),
			"",
			m.modal.View(m.styles),
		))
	}

	var loading string
	if m.app.Coordinator.Locked() {
		loading = " " + m.spinner.View() + " " + m.styles.success.Render("WORKING...")
	}

	return m.styles.app.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.styles.viewport.Render(m.viewport.View()),
			"",
			m.styles.footer.Render(lipgloss.JoinHorizontal(lipgloss.Left, m.textarea.View(), loading)),
			m.statusLine(),
		),
	)
}

func (m *model) statusLine() string {
	coord := m.app.Coordinator
	parts := []string{fmt.Sprintf("QUEUE: %d", len(coord.Pending()))}
	if coord.Locked() {
		parts = append(parts, m.styles.warning.Render("● LOCKED"))
	} else {
		parts = append(parts, m.styles.inactive.Render("○ IDLE"))
	}
	if state := coord.Gate().State(); state != credentials.StateUnneeded {
		parts = append(parts, "CREDENTIALS: "+state.String())
	}

	snapshot := m.app.Board.Counters().Snapshot()
	badges := make([]string, 0, len(snapshot))
	for badge, n := range snapshot {
		badges = append(badges, fmt.Sprintf("%s %s", badge, m.styles.badge.Render(fmt.Sprint(n))))
	}
	sort.Strings(badges)
	parts = append(parts, badges...)
	return m.styles.inactive.Render(strings.Join(parts, " │ "))
}

func (m *model) rowsView() string {
	rows := m.app.Board.Rows()
	if len(rows) == 0 {
		return m.styles.inactive.Render("Nothing installed and nothing to update.")
	}
	var b strings.Builder
	for _, r := range rows {
		version := r.Version
		if r.HasUpdate && r.NewVersion != "" {
			version += " → " + r.NewVersion
		}
		line := fmt.Sprintf("  %-12s %-32s %-18s %s", r.Subject.Entity, r.Name, version, r.Label)
		switch r.Status {
		case board.StatusFailed:
			line = m.styles.error.Render(line + "  " + r.Error)
		case board.StatusUpdateReady:
			line = m.styles.warning.Render(line)
		case board.StatusUpdated, board.StatusInstalled, board.StatusDeleted:
			line = m.styles.success.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *model) processCommand(input string) tea.Cmd {
	m.print(m.styles.prompt.Render("► ") + input)
	if m.app == nil {
		m.print(m.styles.error.Render(errNotReady.Error()))
		return nil
	}

	parts := strings.Fields(input)
	command, args := parts[0], parts[1:]

	switch command {
	case "/install", "/update", "/delete":
		op, err := parseOperation(command, args, m.app.Board)
		if err != nil {
			m.print(m.styles.error.Render(err.Error()))
			return nil
		}
		return runOperationCmd(m.app, op)

	case "/all":
		return updateAllCmd(m.app)

	case "/status", "/ls":
		m.print(m.rowsView())
		return nil

	case "/dismiss":
		if len(args) != 2 {
			m.print(m.styles.error.Render("USAGE: /dismiss [entity] [id]"))
			return nil
		}
		subject := core.Subject{Entity: core.Entity(args[0]), ID: args[1]}
		if err := m.app.Board.Dismiss(subject); err != nil {
			m.print(m.styles.error.Render(err.Error()))
			return nil
		}
		m.print(m.rowsView())
		return nil

	case "/help", "/h":
		m.print(m.styles.success.Render("AVAILABLE COMMANDS:") + `

  /status                          List rows and their state.
  /update plugin [basename] [slug] Update a plugin.
  /update theme [slug]             Update a theme.
  /update core [version] [locale]  Update the platform.
  /update translations             Update translations.
  /install plugin|theme [slug]     Install from the directory.
  /delete plugin [basename]        Delete a plugin.
  /delete theme [slug]             Delete a theme.
  /all                             Update everything with a pending update.
  /dismiss [entity] [id]           Dismiss an error notice.
  /exit, /quit                     Exit.`)
		return nil

	case "/exit", "/quit":
		return m.quit()

	default:
		m.print(m.styles.error.Render(fmt.Sprintf("UNKNOWN COMMAND: %s", command)))
		return nil
	}
}

// print appends lines to the scrollback.
func (m *model) print(lines ...string) {
	m.history = append(m.history, lines...)
	m.refresh()
}

func (m *model) refresh() {
	m.viewport.SetContent(strings.Join(m.history, "\n"))
	m.viewport.GotoBottom()
}

func (m *model) quit() tea.Cmd {
	if m.stopEvents != nil {
		m.stopEvents()
	}
	if m.app != nil {
		m.app.Close()
	}
	if m.cleanup != nil {
		m.cleanup()
	}
	return tea.Quit
}

var errNotReady = errors.New("application is still starting")
