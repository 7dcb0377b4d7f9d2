package orchestrators

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "shuttleclub/internal/domain/member"
)

// TestExecuteUpdateMember_Valid verifies an edit is revalidated and keeps the id.
func TestExecuteUpdateMember_Valid(t *testing.T) {
	existing, err := domain.NewMember(1000, validRegistration())
	require.NoError(t, err)
	store := newMemStore(existing)

	reg := existing.Registration()
	reg.Level = domain.LevelExpert
	reg.Team = ""

	res, err := ExecuteUpdateMember(context.Background(), UpdateMemberInput{MemberID: 1000, Registration: reg}, UpdateMemberDeps{MemberStore: store})
	require.NoError(t, err)
	require.True(t, res.Created())

	got, err := store.GetByID(context.Background(), 1000)
	require.NoError(t, err)
	assert.Equal(t, domain.LevelExpert, got.Level)
	assert.Equal(t, "", got.Team)
}

// TestExecuteUpdateMember_Invalid verifies an invalid edit leaves the member untouched.
func TestExecuteUpdateMember_Invalid(t *testing.T) {
	existing, err := domain.NewMember(1000, validRegistration())
	require.NoError(t, err)
	store := newMemStore(existing)

	reg := existing.Registration()
	reg.DOW = []string{"Monday"}

	res, err := ExecuteUpdateMember(context.Background(), UpdateMemberInput{MemberID: 1000, Registration: reg}, UpdateMemberDeps{MemberStore: store})
	require.NoError(t, err)
	assert.Equal(t, domain.MsgDOWDomain, res.Validation.Message(domain.FieldDOW))

	got, _ := store.GetByID(context.Background(), 1000)
	assert.Equal(t, existing, got)
}

// TestExecuteUpdateMember_NotFound verifies an unknown id reports ErrNotFound.
func TestExecuteUpdateMember_NotFound(t *testing.T) {
	_, err := ExecuteUpdateMember(context.Background(), UpdateMemberInput{MemberID: 7, Registration: validRegistration()}, UpdateMemberDeps{MemberStore: newMemStore()})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// TestExecuteDeleteMember verifies deletion and the not-found case.
func TestExecuteDeleteMember(t *testing.T) {
	store := newMemStore(domain.Member{ID: 1000, Name: "Gone"})

	require.NoError(t, ExecuteDeleteMember(context.Background(), DeleteMemberInput{MemberID: 1000, Actor: "admin"}, DeleteMemberDeps{MemberStore: store}))
	assert.Equal(t, 0, store.count())

	err := ExecuteDeleteMember(context.Background(), DeleteMemberInput{MemberID: 1000}, DeleteMemberDeps{MemberStore: store})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
