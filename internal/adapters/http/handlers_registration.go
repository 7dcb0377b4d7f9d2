package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"shuttleclub/internal/application/orchestrators"
	"shuttleclub/internal/domain/member"
	"shuttleclub/internal/logger"
)

// maxBodyBytes bounds registration and validation payloads.
const maxBodyBytes = 64 << 10

// flexString accepts a JSON string, number, bool or null.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexString(strconv.FormatBool(b))
		return nil
	}
	return fmt.Errorf("expected a string or number, got %s", data)
}

// flexList accepts a JSON list of strings, a single string, or null.
type flexList []string

func (f *flexList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = nil
		return nil
	}
	var list []flexString
	if err := json.Unmarshal(data, &list); err == nil {
		out := make([]string, len(list))
		for i, v := range list {
			out[i] = string(v)
		}
		*f = out
		return nil
	}
	var s flexString
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = []string{string(s)}
	return nil
}

// registrationPayload is the JSON body of a registration. Unknown keys,
// including a client-supplied id, are ignored.
type registrationPayload struct {
	Name             flexString `json:"name"`
	Age              flexString `json:"age"`
	Gender           flexString `json:"gender"`
	Team             flexString `json:"team"`
	Level            flexString `json:"level"`
	Type             flexString `json:"type"`
	DOW              flexList   `json:"dow"`
	RegistrationDate flexString `json:"registration_date"`
	MemberHistory    flexList   `json:"memberHistory"`
}

func (p registrationPayload) toRegistration() member.Registration {
	return member.Registration{
		Name:             string(p.Name),
		Age:              string(p.Age),
		Gender:           string(p.Gender),
		Team:             string(p.Team),
		Level:            string(p.Level),
		Type:             string(p.Type),
		DOW:              []string(p.DOW),
		RegistrationDate: string(p.RegistrationDate),
		MemberHistory:    strings.Join(p.MemberHistory, "\n"),
	}
}

// registrationValues echoes a submission back under its field names.
func registrationValues(reg member.Registration) map[string]any {
	dow := reg.DOW
	if dow == nil {
		dow = []string{}
	}
	return map[string]any{
		member.FieldName:             reg.Name,
		member.FieldAge:              reg.Age,
		member.FieldGender:           reg.Gender,
		member.FieldTeam:             reg.Team,
		member.FieldLevel:            reg.Level,
		member.FieldType:             reg.Type,
		member.FieldDOW:              dow,
		member.FieldRegistrationDate: reg.RegistrationDate,
		member.FieldMemberHistory:    reg.MemberHistory,
	}
}

// registrationFromForm reads a urlencoded registration form.
func registrationFromForm(r *http.Request) (member.Registration, error) {
	if err := r.ParseForm(); err != nil {
		return member.Registration{}, err
	}
	return member.Registration{
		Name:             r.PostForm.Get(member.FieldName),
		Age:              r.PostForm.Get(member.FieldAge),
		Gender:           r.PostForm.Get(member.FieldGender),
		Team:             r.PostForm.Get(member.FieldTeam),
		Level:            r.PostForm.Get(member.FieldLevel),
		Type:             r.PostForm.Get(member.FieldType),
		DOW:              r.PostForm[member.FieldDOW],
		RegistrationDate: r.PostForm.Get(member.FieldRegistrationDate),
		MemberHistory:    r.PostForm.Get(member.FieldMemberHistory),
	}, nil
}

// decodeRegistration reads the request body in either encoding.
func decodeRegistration(w http.ResponseWriter, r *http.Request) (member.Registration, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if !isJSONRequest(r) {
		return registrationFromForm(r)
	}
	var p registrationPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		return member.Registration{}, err
	}
	return p.toRegistration(), nil
}

// registrationPage is the data for member_registration.html.
type registrationPage struct {
	Title   string
	Values  member.Registration
	Errors  map[string]string
	Genders []string
	Teams   []string
	Levels  []string
	Types   []string
	Days    []string
}

func newRegistrationPage(values member.Registration, errs map[string]string) registrationPage {
	if errs == nil {
		errs = map[string]string{}
	}
	return registrationPage{
		Title:   "Member Registration",
		Values:  values,
		Errors:  errs,
		Genders: member.Genders,
		Teams:   member.Teams,
		Levels:  member.Levels,
		Types:   member.Types,
		Days:    member.Days,
	}
}

// handleRegistrationForm handles GET /member-registration
func handleRegistrationForm(w http.ResponseWriter, r *http.Request) {
	renderTemplate(w, r, "member_registration.html", newRegistrationPage(member.Registration{}, nil))
}

// handleRegistrationSubmit handles POST /member-registration
func handleRegistrationSubmit(w http.ResponseWriter, r *http.Request) {
	asJSON := isJSONRequest(r)

	reg, err := decodeRegistration(w, r)
	if err != nil {
		logger.FromContext(r.Context()).Info("registration_bad_request", "error", err)
		if asJSON {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed registration payload"})
			return
		}
		http.Error(w, "malformed registration form", http.StatusBadRequest)
		return
	}

	result, err := orchestrators.ExecuteRegisterMember(r.Context(), orchestrators.RegisterMemberInput{
		Registration: reg,
	}, orchestrators.RegisterMemberDeps{
		MemberStore: stores.MemberStore,
		Validator:   registrationValidator,
		Observer:    recorder,
		Mailer:      appConfig.Mailer,
		NotifyTo:    appConfig.NotifyTo,
	})
	if err != nil {
		internalError(w, r, err)
		return
	}

	if !result.Created() {
		if asJSON {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"errors": result.Validation.Errors,
				"values": registrationValues(reg),
			})
			return
		}
		renderTemplateStatus(w, r, http.StatusBadRequest, "member_registration.html",
			newRegistrationPage(reg, result.Validation.Errors))
		return
	}

	location := fmt.Sprintf("/member/%d", result.Member.ID)
	if asJSON {
		w.Header().Set("Location", location)
		writeJSON(w, http.StatusCreated, result.Member)
		return
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// validateRequest is the body of POST /api/registration/validate.
type validateRequest struct {
	Field        string              `json:"field"`
	Event        string              `json:"event"`
	State        string              `json:"state"`
	Registration registrationPayload `json:"registration"`
}

// validateFieldResponse reports one field's new interactive state.
type validateFieldResponse struct {
	Field   string `json:"field"`
	State   string `json:"state"`
	Valid   bool   `json:"valid"`
	Show    bool   `json:"show"`
	Message string `json:"message"`
	ErrorID string `json:"errorId"`
}

// validateFullResponse is the whole-form result.
type validateFullResponse struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

// handleValidate handles POST /api/registration/validate
func handleValidate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed validation request"})
		return
	}
	reg := req.Registration.toRegistration()

	if req.Field == "" {
		res := registrationValidator.Validate(reg)
		errs := res.Errors
		if errs == nil {
			errs = map[string]string{}
		}
		writeJSON(w, http.StatusOK, validateFullResponse{Valid: res.Valid(), Errors: errs})
		return
	}

	fr, err := registrationValidator.ValidateField(req.Field, reg)
	if errors.Is(err, member.ErrUnknownField) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}

	state, err := member.ParseFieldState(req.State)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	event := member.EventBlur
	if req.Event != "" {
		event, err = member.ParseFieldEvent(req.Event)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}

	next := member.Transition(state, event, fr.Valid)
	writeJSON(w, http.StatusOK, validateFieldResponse{
		Field:   fr.Field,
		State:   string(next),
		Valid:   fr.Valid,
		Show:    next.ShowError(),
		Message: fr.Message,
		ErrorID: member.ErrorElementID(fr.Field),
	})
}
