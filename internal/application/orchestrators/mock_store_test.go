package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"shuttleclub/internal/adapters/email"
	domain "shuttleclub/internal/domain/member"
)

// memStore is an in-memory member store shared by the orchestrator tests.
type memStore struct {
	mu        sync.Mutex
	byID      map[int]domain.Member
	createErr error
}

func newMemStore(seed ...domain.Member) *memStore {
	s := &memStore{byID: map[int]domain.Member{}}
	for _, m := range seed {
		s.byID[m.ID] = m
	}
	return s
}

func (s *memStore) GetByID(_ context.Context, id int) (domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byID[id]
	if !ok {
		return domain.Member{}, fmt.Errorf("member %d: %w", id, domain.ErrNotFound)
	}
	return m, nil
}

func (s *memStore) List(_ context.Context) ([]domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Member{}
	for _, m := range s.byID {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) Create(_ context.Context, m domain.Member) (domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return domain.Member{}, s.createErr
	}
	ids := make([]int, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	m.ID = domain.NextID(ids)
	s.byID[m.ID] = m
	return m, nil
}

func (s *memStore) Insert(_ context.Context, m domain.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[m.ID] = m
	return nil
}

func (s *memStore) Update(_ context.Context, m domain.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[m.ID]; !ok {
		return fmt.Errorf("member %d: %w", m.ID, domain.ErrNotFound)
	}
	s.byID[m.ID] = m
	return nil
}

func (s *memStore) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return fmt.Errorf("member %d: %w", id, domain.ErrNotFound)
	}
	delete(s.byID, id)
	return nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// recordingMailer captures sends and can be told to fail.
type recordingMailer struct {
	mu   sync.Mutex
	sent []email.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg email.Message) (email.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return email.Receipt{}, m.err
	}
	m.sent = append(m.sent, msg)
	return email.Receipt{ID: "test"}, nil
}

// recordingObserver captures registration outcomes.
type recordingObserver struct {
	outcomes []string
	fields   [][]string
}

func (o *recordingObserver) Registration(outcome string, failed []string) {
	o.outcomes = append(o.outcomes, outcome)
	o.fields = append(o.fields, failed)
}

var errBoom = errors.New("boom")

func validRegistration() domain.Registration {
	return domain.Registration{
		Name:             "John Doe",
		Age:              "28",
		Gender:           domain.GenderMale,
		Team:             domain.TeamRed,
		Level:            domain.LevelIntermediate,
		Type:             domain.TypeFeather,
		DOW:              []string{domain.DayTuesday, domain.DayFriday},
		RegistrationDate: "2025-12-09",
		MemberHistory:    "Played since 2020\nMultiple tournament wins",
	}
}
