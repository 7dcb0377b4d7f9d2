package member_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shuttleclub/internal/domain/member"
)

// validRegistration returns a registration with every field in domain.
func validRegistration() member.Registration {
	return member.Registration{
		Name:             "John Doe",
		Age:              "28",
		Gender:           member.GenderMale,
		Team:             member.TeamRed,
		Level:            member.LevelIntermediate,
		Type:             member.TypeFeather,
		DOW:              []string{member.DayTuesday, member.DayFriday},
		RegistrationDate: "2025-12-09",
	}
}

// TestValidate_AllValid verifies every in-domain combination passes.
func TestValidate_AllValid(t *testing.T) {
	for _, gender := range member.Genders {
		for _, team := range append([]string{""}, member.Teams...) {
			for _, level := range member.Levels {
				for _, typ := range member.Types {
					reg := validRegistration()
					reg.Gender, reg.Team, reg.Level, reg.Type = gender, team, level, typ
					res := member.Validate(reg)
					assert.True(t, res.Valid(), "gender=%s team=%s level=%s type=%s: %v", gender, team, level, typ, res.Errors)
				}
			}
		}
	}
}

// TestValidate_MissingRequiredField verifies each missing field is flagged alone.
func TestValidate_MissingRequiredField(t *testing.T) {
	tests := []struct {
		field   string
		clear   func(*member.Registration)
		wantMsg string
	}{
		{member.FieldName, func(r *member.Registration) { r.Name = "" }, member.MsgName},
		{member.FieldAge, func(r *member.Registration) { r.Age = "" }, member.MsgAge},
		{member.FieldGender, func(r *member.Registration) { r.Gender = "" }, member.MsgGender},
		{member.FieldLevel, func(r *member.Registration) { r.Level = "" }, member.MsgLevel},
		{member.FieldType, func(r *member.Registration) { r.Type = "" }, member.MsgType},
		{member.FieldDOW, func(r *member.Registration) { r.DOW = nil }, member.MsgDOWRequired},
		{member.FieldRegistrationDate, func(r *member.Registration) { r.RegistrationDate = "" }, member.MsgRegistrationDate},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			reg := validRegistration()
			tt.clear(&reg)
			res := member.Validate(reg)
			assert.Equal(t, map[string]string{tt.field: tt.wantMsg}, res.Errors)
			assert.False(t, res.Valid())
		})
	}
}

// TestValidate_TeamIsOptional verifies an absent team is not an error.
func TestValidate_TeamIsOptional(t *testing.T) {
	reg := validRegistration()
	reg.Team = ""
	assert.True(t, member.Validate(reg).Valid())
}

// TestValidate_CollectsEveryError verifies failures are not short-circuited.
func TestValidate_CollectsEveryError(t *testing.T) {
	res := member.Validate(member.Registration{Team: "Team A", DOW: []string{"Monday"}})
	assert.Equal(t, map[string]string{
		member.FieldName:             member.MsgName,
		member.FieldAge:              member.MsgAge,
		member.FieldGender:           member.MsgGender,
		member.FieldTeam:             member.MsgTeam,
		member.FieldLevel:            member.MsgLevel,
		member.FieldType:             member.MsgType,
		member.FieldDOW:              member.MsgDOWDomain,
		member.FieldRegistrationDate: member.MsgRegistrationDate,
	}, res.Errors)
}

// TestValidate_Name verifies whitespace-only names are rejected.
func TestValidate_Name(t *testing.T) {
	tests := []struct {
		name  string
		value string
		valid bool
	}{
		{"plain", "Jane", true},
		{"padded", "  Jane  ", true},
		{"empty", "", false},
		{"spaces", "   ", false},
		{"tabs and newlines", "\t\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := validRegistration()
			reg.Name = tt.value
			assert.Equal(t, tt.valid, member.Validate(reg).Message(member.FieldName) == "")
		})
	}
}

// TestValidate_AgeBoundary verifies numeric parsing and the positive bound.
func TestValidate_AgeBoundary(t *testing.T) {
	tests := []struct {
		age   string
		valid bool
	}{
		{"0", false},
		{"1", true},
		{"-5", false},
		{"abc", false},
		{"", false},
		{"28", true},
		{" 28 ", true},
		{"0.5", true},
		{"-0", false},
		{"NaN", false},
		{"Inf", false},
		{"12abc", false},
		{"1_0", false},
		{"0x1p3", false},
		{"0X10", false},
		{"1e999", false},
		{"+7", true},
		{"2.5e1", true},
		{".5", true},
		{"30.", true},
	}

	for _, tt := range tests {
		t.Run(tt.age, func(t *testing.T) {
			reg := validRegistration()
			reg.Age = tt.age
			msg := member.Validate(reg).Message(member.FieldAge)
			if tt.valid {
				assert.Empty(t, msg)
			} else {
				assert.Equal(t, member.MsgAge, msg)
			}
		})
	}
}

// TestValidate_CaseSensitiveEnums verifies enums match exactly.
func TestValidate_CaseSensitiveEnums(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*member.Registration)
		field   string
		wantMsg string
	}{
		{"lowercase gender", func(r *member.Registration) { r.Gender = "male" }, member.FieldGender, member.MsgGender},
		{"padded gender", func(r *member.Registration) { r.Gender = " Male" }, member.FieldGender, member.MsgGender},
		{"lowercase team", func(r *member.Registration) { r.Team = "red" }, member.FieldTeam, member.MsgTeam},
		{"unknown team", func(r *member.Registration) { r.Team = "Team A" }, member.FieldTeam, member.MsgTeam},
		{"lowercase level", func(r *member.Registration) { r.Level = "intermediate" }, member.FieldLevel, member.MsgLevel},
		{"title case type", func(r *member.Registration) { r.Type = "Feather Shuttle" }, member.FieldType, member.MsgType},
		{"unknown type", func(r *member.Registration) { r.Type = "regular" }, member.FieldType, member.MsgType},
		{"partial type", func(r *member.Registration) { r.Type = "feather" }, member.FieldType, member.MsgType},
		{"lowercase day", func(r *member.Registration) { r.DOW = []string{"tuesday"} }, member.FieldDOW, member.MsgDOWDomain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := validRegistration()
			tt.mutate(&reg)
			assert.Equal(t, map[string]string{tt.field: tt.wantMsg}, member.Validate(reg).Errors)
		})
	}
}

// TestValidate_DaysNormalization verifies every accepted dow shape validates alike.
func TestValidate_DaysNormalization(t *testing.T) {
	tests := []struct {
		name    string
		dow     []string
		wantMsg string
	}{
		{"scalar", []string{"Tuesday"}, ""},
		{"list", []string{"Tuesday", "Friday"}, ""},
		{"delimited", []string{"Tuesday,Friday"}, ""},
		{"empty list", []string{}, member.MsgDOWRequired},
		{"absent", nil, member.MsgDOWRequired},
		{"empty value", []string{""}, member.MsgDOWRequired},
		{"only delimiters", []string{" , "}, member.MsgDOWRequired},
		{"outside domain", []string{"Monday", "Wednesday"}, member.MsgDOWDomain},
		{"one outside domain", []string{"Tuesday", "Sunday"}, member.MsgDOWDomain},
		{"delimited outside domain", []string{"Friday,Saturday"}, member.MsgDOWDomain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := validRegistration()
			reg.DOW = tt.dow
			assert.Equal(t, tt.wantMsg, member.Validate(reg).Message(member.FieldDOW))
		})
	}
}

// TestValidate_Idempotent verifies repeated calls agree and do not mutate input.
func TestValidate_Idempotent(t *testing.T) {
	reg := validRegistration()
	reg.Name = "  "
	reg.DOW = []string{"Tuesday,Monday"}
	before := reg
	before.DOW = append([]string(nil), reg.DOW...)

	first := member.Validate(reg)
	second := member.Validate(reg)
	assert.Equal(t, first, second)
	assert.Equal(t, before, reg)
}

// TestValidate_Concurrent verifies the shared validator needs no coordination.
func TestValidate_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reg := validRegistration()
			if i%2 == 0 {
				reg.Gender = "male"
				assert.Equal(t, member.MsgGender, member.Validate(reg).Message(member.FieldGender))
				return
			}
			assert.True(t, member.Validate(reg).Valid())
		}(i)
	}
	wg.Wait()
}

// TestValidateField_MatchesFullValidation verifies field mode agrees with whole-record mode.
func TestValidateField_MatchesFullValidation(t *testing.T) {
	regs := []member.Registration{
		validRegistration(),
		{},
		{Name: "   ", Age: "-5", Gender: "male", Team: "Team A", Level: "expert", Type: "regular", DOW: []string{"Monday"}},
		{Name: "Solo", Age: "abc", DOW: []string{""}},
		{Age: "0", Team: "GREEN", DOW: []string{"Friday,Tuesday"}, RegistrationDate: "2025-01-01"},
	}

	for i, reg := range regs {
		full := member.Validate(reg)
		for _, field := range member.Fields {
			got, err := member.ValidateField(field, reg)
			require.NoError(t, err)
			assert.Equal(t, field, got.Field)
			assert.Equal(t, full.Message(field), got.Message, "record %d field %s", i, field)
			assert.Equal(t, full.Message(field) == "", got.Valid, "record %d field %s", i, field)
		}
	}
}

// TestValidateField_NameBlurEmpty verifies the blur check on an empty name.
func TestValidateField_NameBlurEmpty(t *testing.T) {
	reg := validRegistration()
	reg.Name = ""

	got, err := member.ValidateField(member.FieldName, reg)
	require.NoError(t, err)
	assert.False(t, got.Valid)
	assert.Equal(t, member.Validate(reg).Message(member.FieldName), got.Message)
	assert.Equal(t, member.MsgName, got.Message)
}

// TestValidateField_IgnoresOtherFields verifies isolation from other invalid fields.
func TestValidateField_IgnoresOtherFields(t *testing.T) {
	got, err := member.ValidateField(member.FieldGender, member.Registration{Gender: member.GenderOthers})
	require.NoError(t, err)
	assert.True(t, got.Valid)
	assert.Empty(t, got.Message)
}

// TestValidateField_UnknownField verifies unknown names are an error, not a failure.
func TestValidateField_UnknownField(t *testing.T) {
	_, err := member.ValidateField("email", validRegistration())
	assert.ErrorIs(t, err, member.ErrUnknownField)

	_, err = member.ValidateField(member.FieldMemberHistory, validRegistration())
	assert.ErrorIs(t, err, member.ErrUnknownField)
}

// TestErrorElementID verifies the error element naming convention.
func TestErrorElementID(t *testing.T) {
	assert.Equal(t, "nameError", member.ErrorElementID(member.FieldName))
	assert.Equal(t, "dowError", member.ErrorElementID(member.FieldDOW))
	assert.Equal(t, "registrationDateError", member.ErrorElementID(member.FieldRegistrationDate))
}
