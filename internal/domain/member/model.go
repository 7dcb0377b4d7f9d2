package member

import (
	"errors"
	"strconv"
	"strings"
)

// FirstID is assigned to the first member of an empty collection.
const FirstID = 1000

// Enumerated field values. Matching is exact and case-sensitive.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOthers = "Others"

	TeamRed   = "RED"
	TeamBlue  = "BLUE"
	TeamGreen = "GREEN"

	LevelBeginner     = "Beginner"
	LevelIntermediate = "Intermediate"
	LevelExpert       = "Expert"

	TypeFeather = "feather shuttle"
	TypeNylon   = "nylon shuttle"

	DayTuesday = "Tuesday"
	DayFriday  = "Friday"
)

// Option lists in display order, used by the registration form.
var (
	Genders = []string{GenderMale, GenderFemale, GenderOthers}
	Teams   = []string{TeamRed, TeamBlue, TeamGreen}
	Levels  = []string{LevelBeginner, LevelIntermediate, LevelExpert}
	Types   = []string{TypeFeather, TypeNylon}
	Days    = []string{DayTuesday, DayFriday}
)

// Domain errors
var (
	ErrNotFound     = errors.New("member not found")
	ErrInvalid      = errors.New("registration is not valid")
	ErrUnknownField = errors.New("unknown registration field")
)

// Registration is a candidate member as submitted, before acceptance.
// Values are kept raw so a rejected submission can be redisplayed verbatim.
type Registration struct {
	Name             string
	Age              string
	Gender           string
	Team             string
	Level            string
	Type             string
	DOW              []string
	RegistrationDate string
	MemberHistory    string
}

// Member is an accepted registration with its server-assigned id.
type Member struct {
	ID               int      `json:"id"`
	Name             string   `json:"name"`
	Age              float64  `json:"age"`
	Gender           string   `json:"gender"`
	Team             string   `json:"team"`
	Level            string   `json:"level"`
	Type             string   `json:"type"`
	DOW              []string `json:"dow"`
	RegistrationDate string   `json:"registration_date"`
	MemberHistory    []string `json:"memberHistory"`
}

// NewMember builds the persisted form of a registration.
// PRE: reg has passed Validate with an empty error mapping
// POST: Returns a Member with normalized values; history is never nil
func NewMember(id int, reg Registration) (Member, error) {
	if res := Validate(reg); !res.Valid() {
		return Member{}, ErrInvalid
	}
	age, _ := parseAge(reg.Age)
	return Member{
		ID:               id,
		Name:             strings.TrimSpace(reg.Name),
		Age:              age,
		Gender:           reg.Gender,
		Team:             reg.Team,
		Level:            reg.Level,
		Type:             reg.Type,
		DOW:              NormalizeDays(reg.DOW),
		RegistrationDate: reg.RegistrationDate,
		MemberHistory:    ParseHistory(reg.MemberHistory),
	}, nil
}

// Registration returns the member's values in submission form so an edit
// can be revalidated with the same rules as a new registration.
func (m Member) Registration() Registration {
	return Registration{
		Name:             m.Name,
		Age:              FormatAge(m.Age),
		Gender:           m.Gender,
		Team:             m.Team,
		Level:            m.Level,
		Type:             m.Type,
		DOW:              append([]string(nil), m.DOW...),
		RegistrationDate: m.RegistrationDate,
		MemberHistory:    strings.Join(m.MemberHistory, "\n"),
	}
}

// HasDay reports whether the member plays on the given day.
func (m Member) HasDay(day string) bool {
	for _, d := range m.DOW {
		if d == day {
			return true
		}
	}
	return false
}

// NextID returns the id for a new member given the ids already in use.
// INVARIANT: result is greater than every existing id
func NextID(existing []int) int {
	if len(existing) == 0 {
		return FirstID
	}
	maxID := existing[0]
	for _, id := range existing[1:] {
		if id > maxID {
			maxID = id
		}
	}
	return maxID + 1
}

// NormalizeDays flattens a single value, comma-delimited text, or a list
// into an ordered set of trimmed, non-empty day names.
func NormalizeDays(values []string) []string {
	days := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			d := strings.TrimSpace(part)
			if d == "" || seen[d] {
				continue
			}
			seen[d] = true
			days = append(days, d)
		}
	}
	return days
}

// ParseHistory splits free text on line breaks, trims each line and drops
// the empty ones. The result is never nil.
func ParseHistory(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := []string{}
	for _, line := range strings.Split(text, "\n") {
		if l := strings.TrimSpace(line); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// FormatAge renders an age without a trailing ".0" for whole numbers.
func FormatAge(age float64) string {
	return strconv.FormatFloat(age, 'f', -1, 64)
}
