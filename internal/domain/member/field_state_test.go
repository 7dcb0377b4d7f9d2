package member_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shuttleclub/internal/domain/member"
)

// TestTransition covers every state/event/validity combination.
func TestTransition(t *testing.T) {
	tests := []struct {
		name    string
		current member.FieldState
		event   member.FieldEvent
		valid   bool
		want    member.FieldState
	}{
		{"untouched typing valid", member.StateUntouched, member.EventInput, true, member.StateUntouched},
		{"untouched typing invalid", member.StateUntouched, member.EventInput, false, member.StateUntouched},
		{"untouched blur valid", member.StateUntouched, member.EventBlur, true, member.StateValid},
		{"untouched blur empty", member.StateUntouched, member.EventBlur, false, member.StateInvalid},
		{"untouched change invalid", member.StateUntouched, member.EventChange, false, member.StateInvalid},
		{"invalid cleared by typing", member.StateInvalid, member.EventInput, true, member.StateValid},
		{"invalid still invalid while typing", member.StateInvalid, member.EventInput, false, member.StateInvalid},
		{"invalid fixed on change", member.StateInvalid, member.EventChange, true, member.StateValid},
		{"valid not re-checked mid-typing", member.StateValid, member.EventInput, false, member.StateValid},
		{"valid broken on blur", member.StateValid, member.EventBlur, false, member.StateInvalid},
		{"valid stays valid on blur", member.StateValid, member.EventBlur, true, member.StateValid},
		{"submit settles untouched", member.StateUntouched, member.EventSubmit, false, member.StateInvalid},
		{"submit settles invalid", member.StateInvalid, member.EventSubmit, true, member.StateValid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := member.Transition(tt.current, tt.event, tt.valid)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want == member.StateInvalid, got.ShowError())
		})
	}
}

// TestTransition_NameSession walks a typical edit of the name field.
func TestTransition_NameSession(t *testing.T) {
	reg := member.Registration{}
	state := member.StateUntouched

	step := func(ev member.FieldEvent, value string) {
		reg.Name = value
		res, err := member.ValidateField(member.FieldName, reg)
		require.NoError(t, err)
		state = member.Transition(state, ev, res.Valid)
	}

	step(member.EventBlur, "")
	assert.Equal(t, member.StateInvalid, state)

	step(member.EventInput, "J")
	assert.Equal(t, member.StateValid, state, "error withdrawn as soon as the value is valid")

	step(member.EventInput, "")
	assert.Equal(t, member.StateValid, state, "no error re-shown mid-typing")

	step(member.EventBlur, "")
	assert.Equal(t, member.StateInvalid, state)
}

// TestParseFieldStateAndEvent verifies wire names are recognised.
func TestParseFieldStateAndEvent(t *testing.T) {
	s, err := member.ParseFieldState("")
	require.NoError(t, err)
	assert.Equal(t, member.StateUntouched, s)

	s, err = member.ParseFieldState("invalid")
	require.NoError(t, err)
	assert.Equal(t, member.StateInvalid, s)

	_, err = member.ParseFieldState("pristine")
	assert.Error(t, err)

	ev, err := member.ParseFieldEvent("blur")
	require.NoError(t, err)
	assert.Equal(t, member.EventBlur, ev)

	_, err = member.ParseFieldEvent("focus")
	assert.Error(t, err)
}
