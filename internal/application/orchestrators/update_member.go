package orchestrators

import (
	"context"
	"log/slog"

	"shuttleclub/internal/domain/member"
)

// UpdateMemberInput carries input for the orchestrator.
type UpdateMemberInput struct {
	MemberID     int
	Registration member.Registration
}

// UpdateMemberDeps holds dependencies for UpdateMember.
type UpdateMemberDeps struct {
	MemberStore MemberStore
	Validator   *member.Validator // optional: nil uses the shared validator
}

// ExecuteUpdateMember replaces a member's values after revalidating them with
// the registration rules.
// PRE: none
// POST: Valid input overwrites the member and keeps its id;
//
//	invalid input returns the error mapping and writes nothing
func ExecuteUpdateMember(ctx context.Context, input UpdateMemberInput, deps UpdateMemberDeps) (RegisterMemberResult, error) {
	if _, err := deps.MemberStore.GetByID(ctx, input.MemberID); err != nil {
		return RegisterMemberResult{}, err
	}

	res := validate(deps.Validator, input.Registration)
	if !res.Valid() {
		return RegisterMemberResult{Validation: res}, nil
	}

	m, err := member.NewMember(input.MemberID, input.Registration)
	if err != nil {
		return RegisterMemberResult{}, err
	}
	if err := deps.MemberStore.Update(ctx, m); err != nil {
		return RegisterMemberResult{}, err
	}

	slog.Info("member_updated", "id", m.ID)
	return RegisterMemberResult{Member: m, Validation: res}, nil
}
