package orchestrators

import (
	"context"
	"log/slog"
)

// DeleteMemberInput carries input for the orchestrator.
type DeleteMemberInput struct {
	MemberID int
	Actor    string
}

// DeleteMemberDeps holds dependencies for DeleteMember.
type DeleteMemberDeps struct {
	MemberStore MemberStore
}

// ExecuteDeleteMember removes a member from the directory.
// PRE: none
// POST: The member is gone; an unknown id returns an error wrapping member.ErrNotFound
func ExecuteDeleteMember(ctx context.Context, input DeleteMemberInput, deps DeleteMemberDeps) error {
	if err := deps.MemberStore.Delete(ctx, input.MemberID); err != nil {
		return err
	}
	slog.Info("member_deleted", "id", input.MemberID, "actor", input.Actor)
	return nil
}
