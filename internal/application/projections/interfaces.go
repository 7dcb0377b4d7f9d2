package projections

import (
	"context"

	domainMember "shuttleclub/internal/domain/member"
)

// MemberStore interface for member queries.
type MemberStore interface {
	GetByID(ctx context.Context, id int) (domainMember.Member, error)
	List(ctx context.Context) ([]domainMember.Member, error)
}
