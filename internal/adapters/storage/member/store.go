package member

import (
	"context"

	domain "shuttleclub/internal/domain/member"
)

// Store persists Member state and owns id assignment.
type Store interface {
	GetByID(ctx context.Context, id int) (domain.Member, error)
	List(ctx context.Context) ([]domain.Member, error)
	// Create assigns the next id (max existing + 1, or domain.FirstID) and
	// persists the member atomically with respect to other Creates.
	Create(ctx context.Context, value domain.Member) (domain.Member, error)
	Update(ctx context.Context, value domain.Member) error
	Delete(ctx context.Context, id int) error
	Ping(ctx context.Context) error
}
