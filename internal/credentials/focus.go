package credentials

// Key is a keyboard input relevant to the credentials modal.
type Key int

const (
	KeyOther Key = iota
	KeyTab
	KeyShiftTab
	KeyEscape
	KeyEnter
)

// Action is what the modal should do in response to a key.
type Action int

const (
	ActionNone Action = iota
	ActionMoved
	ActionSubmit
	ActionCancel
)

// FocusTrap keeps keyboard focus inside the modal. Controls are ordered from
// the first input to the submit button, which is always last.
type FocusTrap struct {
	controls []string
	current  int
}

// NewFocusTrap creates a trap over the given controls, focusing the first one.
func NewFocusTrap(controls ...string) *FocusTrap {
	return &FocusTrap{controls: controls}
}

// Focused returns the control that has focus.
func (f *FocusTrap) Focused() string {
	if len(f.controls) == 0 {
		return ""
	}
	return f.controls[f.current]
}

// Index returns the position of the focused control.
func (f *FocusTrap) Index() int {
	return f.current
}

// Reset moves focus back to the first input.
func (f *FocusTrap) Reset() {
	f.current = 0
}

// Handle applies key and reports the resulting action. Enter submits from any
// control, as in a regular form. Tab on the submit
// button wraps to the first input and Shift+Tab on the first input wraps to
// the submit button.
func (f *FocusTrap) Handle(key Key) Action {
	n := len(f.controls)
	switch key {
	case KeyEscape:
		return ActionCancel
	case KeyEnter:
		if n == 0 {
			return ActionNone
		}
		return ActionSubmit
	case KeyTab:
		if n == 0 {
			return ActionNone
		}
		f.current = (f.current + 1) % n
		return ActionMoved
	case KeyShiftTab:
		if n == 0 {
			return ActionNone
		}
		f.current = (f.current - 1 + n) % n
		return ActionMoved
	default:
		return ActionNone
	}
}
