package orchestrators

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "shuttleclub/internal/domain/member"
)

func fixedNow() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) }

// TestExecuteSeedMembers_Empty verifies an empty store is filled with valid members.
func TestExecuteSeedMembers_Empty(t *testing.T) {
	store := newMemStore()
	n, err := ExecuteSeedMembers(context.Background(), SeedMembersInput{Count: 30, Seed: 7}, SeedMembersDeps{MemberStore: store, Now: fixedNow})
	require.NoError(t, err)
	assert.Equal(t, 30, n)

	members, _ := store.List(context.Background())
	require.Len(t, members, 30)
	for _, m := range members {
		assert.True(t, domain.Validate(m.Registration()).Valid(), "seeded member %d invalid", m.ID)
	}
}

// TestExecuteSeedMembers_Idempotent verifies a populated store is left alone.
func TestExecuteSeedMembers_Idempotent(t *testing.T) {
	store := newMemStore(domain.Member{ID: 1000, Name: "Real"})
	n, err := ExecuteSeedMembers(context.Background(), SeedMembersInput{Count: 10}, SeedMembersDeps{MemberStore: store})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, store.count())
}

// TestExecuteSeedMembers_Deterministic verifies the same seed yields the same names.
func TestExecuteSeedMembers_Deterministic(t *testing.T) {
	a, b := newMemStore(), newMemStore()
	deps := func(s *memStore) SeedMembersDeps { return SeedMembersDeps{MemberStore: s, Now: fixedNow} }

	_, err := ExecuteSeedMembers(context.Background(), SeedMembersInput{Count: 5, Seed: 42}, deps(a))
	require.NoError(t, err)
	_, err = ExecuteSeedMembers(context.Background(), SeedMembersInput{Count: 5, Seed: 42}, deps(b))
	require.NoError(t, err)

	la, _ := a.List(context.Background())
	lb, _ := b.List(context.Background())
	assert.Equal(t, la, lb)
}
