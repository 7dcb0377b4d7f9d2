package member_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shuttleclub/internal/domain/member"
)

// TestNextID verifies id assignment starts at 1000 and follows the maximum.
func TestNextID(t *testing.T) {
	tests := []struct {
		name     string
		existing []int
		want     int
	}{
		{name: "empty collection", existing: nil, want: member.FirstID},
		{name: "single member", existing: []int{1000}, want: 1001},
		{name: "unordered ids", existing: []int{1003, 1000, 1007, 1001}, want: 1008},
		{name: "gap after delete", existing: []int{1000, 1005}, want: 1006},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, member.NextID(tt.existing))
		})
	}
}

// TestNormalizeDays verifies scalar, list and delimited inputs flatten to the same set.
func TestNormalizeDays(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{name: "nil", input: nil, want: []string{}},
		{name: "empty string", input: []string{""}, want: []string{}},
		{name: "scalar", input: []string{"Tuesday"}, want: []string{"Tuesday"}},
		{name: "list", input: []string{"Tuesday", "Friday"}, want: []string{"Tuesday", "Friday"}},
		{name: "delimited", input: []string{"Tuesday,Friday"}, want: []string{"Tuesday", "Friday"}},
		{name: "delimited with spaces", input: []string{" Tuesday , Friday "}, want: []string{"Tuesday", "Friday"}},
		{name: "duplicates removed", input: []string{"Friday", "Friday,Tuesday"}, want: []string{"Friday", "Tuesday"}},
		{name: "stray delimiters", input: []string{",Friday,,"}, want: []string{"Friday"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, member.NormalizeDays(tt.input))
		})
	}
}

// TestParseHistory verifies free text is split on line breaks with blanks dropped.
func TestParseHistory(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "empty", text: "", want: []string{}},
		{name: "whitespace only", text: "  \n\t\n", want: []string{}},
		{name: "unix newlines", text: "Played since 2020\nMultiple tournament wins", want: []string{"Played since 2020", "Multiple tournament wins"}},
		{name: "windows newlines", text: "a\r\nb\r\n", want: []string{"a", "b"}},
		{name: "trims and drops blank lines", text: "  first  \n\n   \n second", want: []string{"first", "second"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := member.ParseHistory(tt.text)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestNewMember verifies a valid registration becomes a normalized member.
func TestNewMember(t *testing.T) {
	reg := member.Registration{
		Name:             "  John Doe ",
		Age:              "28",
		Gender:           member.GenderMale,
		Team:             member.TeamRed,
		Level:            member.LevelIntermediate,
		Type:             member.TypeFeather,
		DOW:              []string{"Tuesday,Friday"},
		RegistrationDate: "2025-12-09",
	}

	m, err := member.NewMember(1001, reg)
	require.NoError(t, err)
	assert.Equal(t, 1001, m.ID)
	assert.Equal(t, "John Doe", m.Name)
	assert.Equal(t, 28.0, m.Age)
	assert.Equal(t, []string{"Tuesday", "Friday"}, m.DOW)
	assert.Equal(t, []string{}, m.MemberHistory)
	assert.True(t, m.HasDay(member.DayFriday))
	assert.False(t, m.HasDay("Monday"))
}

// TestNewMember_RejectsInvalid verifies an invalid registration is never turned into a member.
func TestNewMember_RejectsInvalid(t *testing.T) {
	_, err := member.NewMember(1000, member.Registration{Name: "Nobody"})
	assert.ErrorIs(t, err, member.ErrInvalid)
}

// TestMemberRegistration_RoundTrip verifies a member revalidates cleanly after conversion.
func TestMemberRegistration_RoundTrip(t *testing.T) {
	m := member.Member{
		ID:               1000,
		Name:             "Jane Smith",
		Age:              25,
		Gender:           member.GenderFemale,
		Team:             member.TeamBlue,
		Level:            member.LevelBeginner,
		Type:             member.TypeNylon,
		DOW:              []string{member.DayFriday},
		RegistrationDate: "2025-12-09",
		MemberHistory:    []string{"Club champion 2023", "Coach"},
	}

	reg := m.Registration()
	assert.Equal(t, "25", reg.Age)
	assert.Equal(t, "Club champion 2023\nCoach", reg.MemberHistory)
	assert.True(t, member.Validate(reg).Valid())

	again, err := member.NewMember(m.ID, reg)
	require.NoError(t, err)
	assert.Equal(t, m, again)
}

// TestFormatAge verifies whole ages print without decimals.
func TestFormatAge(t *testing.T) {
	assert.Equal(t, "28", member.FormatAge(28))
	assert.Equal(t, "12.5", member.FormatAge(12.5))
}
