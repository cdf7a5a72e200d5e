package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFocusTrap(t *testing.T) {
	trap := NewFocusTrap("hostname", "username", "password", "submit")
	assert.Equal(t, "hostname", trap.Focused())

	tests := []struct {
		name    string
		key     Key
		action  Action
		focused string
	}{
		{"shift-tab on first input wraps to submit", KeyShiftTab, ActionMoved, "submit"},
		{"tab on submit wraps to first input", KeyTab, ActionMoved, "hostname"},
		{"tab moves forward", KeyTab, ActionMoved, "username"},
		{"enter on an input submits", KeyEnter, ActionSubmit, "username"},
		{"other keys are ignored", KeyOther, ActionNone, "username"},
		{"shift-tab moves back", KeyShiftTab, ActionMoved, "hostname"},
		{"escape cancels", KeyEscape, ActionCancel, "hostname"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.action, trap.Handle(tt.key))
			assert.Equal(t, tt.focused, trap.Focused())
		})
	}
}

func TestFocusTrapSubmit(t *testing.T) {
	trap := NewFocusTrap("hostname", "submit")
	trap.Handle(KeyTab)
	assert.Equal(t, ActionSubmit, trap.Handle(KeyEnter))

	trap.Reset()
	assert.Equal(t, 0, trap.Index())
}

func TestEmptyFocusTrap(t *testing.T) {
	trap := NewFocusTrap()
	assert.Equal(t, "", trap.Focused())
	assert.Equal(t, ActionNone, trap.Handle(KeyTab))
	assert.Equal(t, ActionNone, trap.Handle(KeyEnter))
	assert.Equal(t, ActionCancel, trap.Handle(KeyEscape))
}
