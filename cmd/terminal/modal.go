package main

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sevigo/shiny-updates/internal/core"
	"github.com/sevigo/shiny-updates/internal/credentials"
)

const submitControl = "submit"

// credentialsModal collects filesystem credentials. Focus never leaves the
// modal while it is open.
type credentialsModal struct {
	open   bool
	trap   *credentials.FocusTrap
	inputs []textinput.Model
	errMsg string
}

func newCredentialsModal() *credentialsModal {
	hostname := textinput.New()
	hostname.Placeholder = "ftp.example.com"
	username := textinput.New()
	username.Placeholder = "username"
	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return &credentialsModal{
		trap:   credentials.NewFocusTrap("hostname", "username", "password", submitControl),
		inputs: []textinput.Model{hostname, username, password},
	}
}

// Open shows the modal, pre-filled with whatever the gate already knows.
func (c *credentialsModal) Open(preset core.Credentials, errMsg string) tea.Cmd {
	if !c.open {
		c.inputs[0].SetValue(preset.Hostname)
		c.inputs[1].SetValue(preset.Username)
		c.inputs[2].SetValue("")
		c.trap.Reset()
	}
	c.open = true
	c.errMsg = errMsg
	return c.syncFocus()
}

func (c *credentialsModal) Close() {
	c.open = false
	c.errMsg = ""
	for i := range c.inputs {
		c.inputs[i].Blur()
	}
}

// Credentials returns the form values.
func (c *credentialsModal) Credentials(connectionType string) core.Credentials {
	return core.Credentials{
		Hostname:       strings.TrimSpace(c.inputs[0].Value()),
		Username:       strings.TrimSpace(c.inputs[1].Value()),
		Password:       c.inputs[2].Value(),
		ConnectionType: core.ConnectionType(connectionType),
	}
}

// Update routes a key to the focus trap first and to the focused input
// otherwise.
func (c *credentialsModal) Update(msg tea.KeyMsg) (credentials.Action, tea.Cmd) {
	action := c.trap.Handle(keyOf(msg))
	switch action {
	case credentials.ActionMoved:
		return action, c.syncFocus()
	case credentials.ActionSubmit, credentials.ActionCancel:
		return action, nil
	}

	idx := c.trap.Index()
	if idx >= len(c.inputs) {
		return action, nil
	}
	var cmd tea.Cmd
	c.inputs[idx], cmd = c.inputs[idx].Update(msg)
	return action, cmd
}

func (c *credentialsModal) syncFocus() tea.Cmd {
	var cmds []tea.Cmd
	for i := range c.inputs {
		if i == c.trap.Index() {
			cmds = append(cmds, c.inputs[i].Focus())
		} else {
			c.inputs[i].Blur()
		}
	}
	return tea.Batch(cmds...)
}

func (c *credentialsModal) View(s styles) string {
	var b strings.Builder
	b.WriteString(s.title.Render("Connection Information"))
	b.WriteString("\n")
	b.WriteString(s.inactive.Render("Enter your FTP/SSH credentials to proceed."))
	b.WriteString("\n\n")
	if c.errMsg != "" {
		b.WriteString(s.error.Render(c.errMsg))
		b.WriteString("\n\n")
	}
	labels := []string{"Hostname", "Username", "Password"}
	for i, in := range c.inputs {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Left, s.label.Render(labels[i]), in.View()))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	button := s.button
	if c.trap.Focused() == submitControl {
		button = s.focusedButton
	}
	b.WriteString(button.Render("Proceed"))
	b.WriteString("  ")
	b.WriteString(s.inactive.Render("esc cancels"))
	return s.modal.Render(b.String())
}

// keyOf maps terminal keys onto the focus trap's keys.
func keyOf(msg tea.KeyMsg) credentials.Key {
	switch msg.Type {
	case tea.KeyTab:
		return credentials.KeyTab
	case tea.KeyShiftTab:
		return credentials.KeyShiftTab
	case tea.KeyEsc:
		return credentials.KeyEscape
	case tea.KeyEnter:
		return credentials.KeyEnter
	default:
		return credentials.KeyOther
	}
}
