package orchestrators

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strconv"
	"strings"

	emailAdapter "shuttleclub/internal/adapters/email"
	"shuttleclub/internal/adapters/metrics"
	"shuttleclub/internal/domain/member"
)

// MemberStore defines the interface for member persistence.
type MemberStore interface {
	GetByID(ctx context.Context, id int) (member.Member, error)
	Create(ctx context.Context, m member.Member) (member.Member, error)
	Update(ctx context.Context, m member.Member) error
	Delete(ctx context.Context, id int) error
}

// RegistrationObserver counts registration attempts by outcome.
type RegistrationObserver interface {
	Registration(outcome string, failedFields []string)
}

// RegisterMemberInput carries input for the orchestrator.
type RegisterMemberInput struct {
	Registration member.Registration
}

// RegisterMemberDeps holds dependencies for RegisterMember.
type RegisterMemberDeps struct {
	MemberStore MemberStore
	Validator   *member.Validator    // optional: nil uses the shared validator
	Observer    RegistrationObserver // optional
	Mailer      emailAdapter.Sender  // optional: nil skips the notification
	NotifyTo    []string
}

// RegisterMemberResult carries the outcome. Exactly one of Member.ID != 0 or
// !Validation.Valid() holds.
type RegisterMemberResult struct {
	Member     member.Member
	Validation member.Result
}

// Created reports whether the registration was accepted and persisted.
func (r RegisterMemberResult) Created() bool {
	return r.Validation.Valid()
}

// ExecuteRegisterMember validates a submission and persists it under the next id.
// PRE: none
// POST: Valid input yields a persisted Member with its assigned id;
//
//	invalid input yields the full error mapping and nothing is written
//
// INVARIANT: a rejected submission is a result, not an error
func ExecuteRegisterMember(ctx context.Context, input RegisterMemberInput, deps RegisterMemberDeps) (RegisterMemberResult, error) {
	res := validate(deps.Validator, input.Registration)
	if !res.Valid() {
		observe(deps.Observer, metrics.OutcomeInvalid, failedFields(res))
		slog.Info("registration_rejected", "fields", failedFields(res))
		return RegisterMemberResult{Validation: res}, nil
	}

	m, err := member.NewMember(0, input.Registration)
	if err != nil {
		return RegisterMemberResult{}, err
	}
	created, err := deps.MemberStore.Create(ctx, m)
	if err != nil {
		observe(deps.Observer, metrics.OutcomeError, nil)
		return RegisterMemberResult{}, err
	}

	observe(deps.Observer, metrics.OutcomeCreated, nil)
	slog.Info("member_registered", "id", created.ID, "team", created.Team, "level", created.Level)

	if deps.Mailer != nil && len(deps.NotifyTo) > 0 {
		notifyRegistration(ctx, deps.Mailer, deps.NotifyTo, created)
	}

	return RegisterMemberResult{Member: created, Validation: res}, nil
}

func validate(v *member.Validator, reg member.Registration) member.Result {
	if v == nil {
		return member.Validate(reg)
	}
	return v.Validate(reg)
}

func observe(o RegistrationObserver, outcome string, fields []string) {
	if o != nil {
		o.Registration(outcome, fields)
	}
}

// failedFields returns the invalid fields in form order.
func failedFields(res member.Result) []string {
	var fields []string
	for _, f := range member.Fields {
		if _, bad := res.Errors[f]; bad {
			fields = append(fields, f)
		}
	}
	return fields
}

var notificationTemplate = template.Must(template.New("registration").Parse(
	`<p>A new member has registered.</p>
<ul>
<li>ID: {{.ID}}</li>
<li>Name: {{.Name}}</li>
<li>Level: {{.Level}}</li>
<li>Team: {{if .Team}}{{.Team}}{{else}}none{{end}}</li>
<li>Days: {{.Days}}</li>
<li>Registered: {{.RegistrationDate}}</li>
</ul>`))

// notifyRegistration tells the club secretary about a new member. Failures
// are logged; the registration itself has already succeeded.
func notifyRegistration(ctx context.Context, mailer emailAdapter.Sender, to []string, m member.Member) {
	var body bytes.Buffer
	err := notificationTemplate.Execute(&body, struct {
		member.Member
		Days string
	}{m, strings.Join(m.DOW, ", ")})
	if err != nil {
		slog.Error("registration_notify_render_failed", "id", m.ID, "error", err)
		return
	}

	_, err = mailer.Send(ctx, emailAdapter.Message{
		To:      to,
		Subject: "New member: " + m.Name,
		HTML:    body.String(),
		Text:    fmt.Sprintf("New member #%d: %s (%s), plays %s.", m.ID, m.Name, m.Level, strings.Join(m.DOW, ", ")),
		Tags:    map[string]string{"event": "member_registered", "member_id": strconv.Itoa(m.ID)},
	})
	if err != nil {
		slog.Error("registration_notify_failed", "id", m.ID, "error", err)
	}
}
