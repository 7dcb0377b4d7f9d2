package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"time"

	"shuttleclub/internal/domain/member"
)

// SeedStore is the persistence surface the seeder needs.
type SeedStore interface {
	List(ctx context.Context) ([]member.Member, error)
	Create(ctx context.Context, m member.Member) (member.Member, error)
}

// SeedMembersInput carries input for the seeder.
type SeedMembersInput struct {
	Count int
	Seed  uint64 // same seed, same members
}

// SeedMembersDeps holds dependencies for SeedMembers.
type SeedMembersDeps struct {
	MemberStore SeedStore
	Now         func() time.Time
}

var (
	seedFirstNames = []string{"Aroha", "Ben", "Chen", "Dana", "Eli", "Farah", "Gus", "Hana", "Ivan", "Jade", "Kiri", "Liam", "Mei", "Noah", "Olu", "Priya"}
	seedLastNames  = []string{"Walker", "Ngata", "Li", "Singh", "Okafor", "Brown", "Tane", "Kumar", "Smith", "Park"}
	seedHistory    = []string{"Club champion", "Regional doubles finalist", "Junior coach", "Returned after a break", "Tournament volunteer"}
)

// ExecuteSeedMembers fills an empty directory with synthetic members for
// development. Every generated registration passes the registration rules.
// PRE: Input.Count >= 0
// POST: Count members exist when the store was empty; otherwise nothing is written
// INVARIANT: idempotent; a populated store is left untouched
func ExecuteSeedMembers(ctx context.Context, input SeedMembersInput, deps SeedMembersDeps) (int, error) {
	existing, err := deps.MemberStore.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed_members: list members: %w", err)
	}
	if len(existing) > 0 {
		slog.Info("seed_event", "event", "members_skip", "reason", "already_seeded", "existing", len(existing))
		return 0, nil
	}

	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	rng := rand.New(rand.NewPCG(input.Seed, input.Seed^0x9e3779b97f4a7c15))

	created := 0
	for i := 0; i < input.Count; i++ {
		reg := syntheticRegistration(rng, now())
		m, err := member.NewMember(0, reg)
		if err != nil {
			return created, fmt.Errorf("seed_members: generated invalid registration %d: %w", i, err)
		}
		if _, err := deps.MemberStore.Create(ctx, m); err != nil {
			return created, fmt.Errorf("seed_members: create: %w", err)
		}
		created++
	}
	slog.Info("seed_event", "event", "members_created", "count", created)
	return created, nil
}

func syntheticRegistration(rng *rand.Rand, now time.Time) member.Registration {
	pick := func(options []string) string { return options[rng.IntN(len(options))] }

	days := []string{pick(member.Days)}
	if rng.IntN(3) == 0 {
		days = member.Days
	}
	team := ""
	if rng.IntN(4) != 0 {
		team = pick(member.Teams)
	}
	history := ""
	for n := rng.IntN(3); n > 0; n-- {
		history += pick(seedHistory) + "\n"
	}

	return member.Registration{
		Name:             pick(seedFirstNames) + " " + pick(seedLastNames),
		Age:              strconv.Itoa(12 + rng.IntN(55)),
		Gender:           pick(member.Genders),
		Team:             team,
		Level:            pick(member.Levels),
		Type:             pick(member.Types),
		DOW:              days,
		RegistrationDate: now.AddDate(0, 0, -rng.IntN(720)).Format(time.DateOnly),
		MemberHistory:    history,
	}
}
