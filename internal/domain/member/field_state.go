package member

import "fmt"

// FieldState is the interactive display state of one form field.
type FieldState string

const (
	StateUntouched FieldState = "untouched"
	StateValid     FieldState = "valid"
	StateInvalid   FieldState = "invalid"
)

// FieldEvent is a browser interaction on a form field.
type FieldEvent string

const (
	// EventInput fires on every keystroke in a free-text field.
	EventInput FieldEvent = "input"
	// EventBlur completes an interaction with a free-text field.
	EventBlur FieldEvent = "blur"
	// EventChange completes an interaction with a select, checkbox or date.
	EventChange FieldEvent = "change"
	// EventSubmit evaluates the field as part of a whole-form submission.
	EventSubmit FieldEvent = "submit"
)

// ParseFieldState accepts a state name; empty means untouched.
func ParseFieldState(s string) (FieldState, error) {
	switch FieldState(s) {
	case "", StateUntouched:
		return StateUntouched, nil
	case StateValid, StateInvalid:
		return FieldState(s), nil
	}
	return "", fmt.Errorf("unknown field state %q", s)
}

// ParseFieldEvent accepts an event name.
func ParseFieldEvent(s string) (FieldEvent, error) {
	switch FieldEvent(s) {
	case EventInput, EventBlur, EventChange, EventSubmit:
		return FieldEvent(s), nil
	}
	return "", fmt.Errorf("unknown field event %q", s)
}

// Transition returns the next state of a field given its current state, the
// event that occurred, and whether the live value satisfies the field's rule.
//
// Completion events (blur, change, submit) always settle the field. Input
// events only clear an error early; they never raise one mid-typing and never
// move a field out of Untouched.
func Transition(current FieldState, ev FieldEvent, valid bool) FieldState {
	settled := StateInvalid
	if valid {
		settled = StateValid
	}
	switch ev {
	case EventBlur, EventChange, EventSubmit:
		return settled
	case EventInput:
		if current == StateInvalid && valid {
			return StateValid
		}
	}
	return current
}

// ShowError reports whether the error element is displayed in state s.
func (s FieldState) ShowError() bool {
	return s == StateInvalid
}
