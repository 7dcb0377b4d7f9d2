package member

import (
	"errors"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field names as submitted by the registration form and the JSON API.
const (
	FieldName             = "name"
	FieldAge              = "age"
	FieldGender           = "gender"
	FieldTeam             = "team"
	FieldLevel            = "level"
	FieldType             = "type"
	FieldDOW              = "dow"
	FieldRegistrationDate = "registration_date"
	FieldMemberHistory    = "memberHistory"
)

// Fields lists every validated field in form order.
var Fields = []string{
	FieldName,
	FieldAge,
	FieldGender,
	FieldTeam,
	FieldLevel,
	FieldType,
	FieldDOW,
	FieldRegistrationDate,
}

// Canonical error messages. The browser displays these verbatim.
const (
	MsgName             = "Name is required"
	MsgAge              = "Age is required and must be a valid positive number"
	MsgGender           = "Gender must be one of: Male, Female, or Others"
	MsgTeam             = "Team must be one of: RED, BLUE, or GREEN"
	MsgLevel            = "Level must be one of: Beginner, Intermediate, or Expert"
	MsgType             = "Type must be one of: Feather Shuttle or Nylon Shuttle"
	MsgDOWRequired      = "At least one day of the week must be selected"
	MsgDOWDomain        = "Days must be either Tuesday, Friday, or both"
	MsgRegistrationDate = "Registration date is required"
)

var fieldMessages = map[string]string{
	FieldName:             MsgName,
	FieldAge:              MsgAge,
	FieldGender:           MsgGender,
	FieldTeam:             MsgTeam,
	FieldLevel:            MsgLevel,
	FieldType:             MsgType,
	FieldDOW:              MsgDOWDomain,
	FieldRegistrationDate: MsgRegistrationDate,
}

// structFields maps a field name to the candidate struct field carrying it.
var structFields = map[string]string{
	FieldName:             "Name",
	FieldAge:              "Age",
	FieldGender:           "Gender",
	FieldTeam:             "Team",
	FieldLevel:            "Level",
	FieldType:             "Type",
	FieldDOW:              "DOW",
	FieldRegistrationDate: "RegistrationDate",
}

// candidate is the normalized view of a Registration that the rules run on.
type candidate struct {
	Name             string   `field:"name" validate:"required"`
	Age              string   `field:"age" validate:"required,positive_number"`
	Gender           string   `field:"gender" validate:"required,oneof=Male Female Others"`
	Team             string   `field:"team" validate:"omitempty,oneof=RED BLUE GREEN"`
	Level            string   `field:"level" validate:"required,oneof=Beginner Intermediate Expert"`
	Type             string   `field:"type" validate:"required,oneof='feather shuttle' 'nylon shuttle'"`
	DOW              []string `field:"dow" validate:"min=1,dive,oneof=Tuesday Friday"`
	RegistrationDate string   `field:"registration_date" validate:"required"`
}

func newCandidate(reg Registration) candidate {
	return candidate{
		Name:             strings.TrimSpace(reg.Name),
		Age:              strings.TrimSpace(reg.Age),
		Gender:           reg.Gender,
		Team:             reg.Team,
		Level:            reg.Level,
		Type:             reg.Type,
		DOW:              NormalizeDays(reg.DOW),
		RegistrationDate: reg.RegistrationDate,
	}
}

// Result maps each invalid field to its message.
type Result struct {
	Errors map[string]string `json:"errors"`
}

// Valid reports whether no field failed.
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Message returns the error for field, or "" when the field is valid.
func (r Result) Message(field string) string {
	return r.Errors[field]
}

// FieldResult is the outcome of validating a single field.
type FieldResult struct {
	Field   string `json:"field"`
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// Validator applies the registration rules. It holds no per-call state and
// is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

// NewValidator creates a Validator with the registration rules registered.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("field")
	})
	if err := v.RegisterValidation("positive_number", isPositiveNumber); err != nil {
		panic(err)
	}
	return &Validator{v: v}
}

var defaultValidator = NewValidator()

// Validate checks reg with the shared Validator.
func Validate(reg Registration) Result {
	return defaultValidator.Validate(reg)
}

// ValidateField checks one field of reg with the shared Validator.
func ValidateField(field string, reg Registration) (FieldResult, error) {
	return defaultValidator.ValidateField(field, reg)
}

// Validate evaluates every field independently and collects all failures.
// PRE: none
// POST: Returns a Result whose Errors hold one message per invalid field
// INVARIANT: reg is not modified
func (val *Validator) Validate(reg Registration) Result {
	return Result{Errors: val.collect(val.v.Struct(newCandidate(reg)))}
}

// ValidateField evaluates a single field in isolation. The outcome equals the
// corresponding entry of Validate for the same input.
// PRE: field is one of Fields
// POST: Returns ErrUnknownField for any other name
func (val *Validator) ValidateField(field string, reg Registration) (FieldResult, error) {
	name, ok := structFields[field]
	if !ok {
		return FieldResult{}, ErrUnknownField
	}
	errs := val.collect(val.v.StructPartial(newCandidate(reg), name))
	msg := errs[field]
	return FieldResult{Field: field, Valid: msg == "", Message: msg}, nil
}

func (val *Validator) collect(err error) map[string]string {
	errs := map[string]string{}
	if err == nil {
		return errs
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// Only InvalidValidationError reaches here, which a candidate never triggers.
		panic(err)
	}
	for _, fe := range verrs {
		field := fe.Field()
		if i := strings.IndexByte(field, '['); i >= 0 {
			field = field[:i]
		}
		if _, seen := errs[field]; seen {
			continue
		}
		errs[field] = messageFor(field, fe.Tag())
	}
	return errs
}

func messageFor(field, tag string) string {
	if field == FieldDOW && tag == "min" {
		return MsgDOWRequired
	}
	return fieldMessages[field]
}

func isPositiveNumber(fl validator.FieldLevel) bool {
	n, ok := parseAge(fl.Field().String())
	return ok && n > 0
}

// decimalNumber is plain decimal notation with an optional exponent.
// ParseFloat alone also takes Go literal syntax such as 1_0 and 0x1p3.
var decimalNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

func parseAge(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !decimalNumber.MatchString(s) {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// ErrorElementID returns the id of the element that displays field's error,
// e.g. "registration_date" -> "registrationDateError".
func ErrorElementID(field string) string {
	parts := strings.Split(field, "_")
	var b strings.Builder
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]) + p[1:])
	}
	b.WriteString("Error")
	return b.String()
}
