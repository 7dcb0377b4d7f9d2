package projections

import (
	"context"
	"fmt"
	"strings"

	domainMember "shuttleclub/internal/domain/member"
)

// DefaultImageBaseURL serves the placeholder portrait shown for each member.
const DefaultImageBaseURL = "https://loremflickr.com/300/450/letter"

// GetMemberProfileQuery carries query parameters.
type GetMemberProfileQuery struct {
	MemberID int
}

// GetMemberProfileResult carries the query result.
type GetMemberProfileResult struct {
	Member   domainMember.Member
	ImageURL string
	Age      string
	Days     string
}

// GetMemberProfileDeps holds dependencies for GetMemberProfile.
type GetMemberProfileDeps struct {
	MemberStore  MemberStore
	ImageBaseURL string // optional: empty uses DefaultImageBaseURL
}

// QueryGetMemberProfile retrieves a single member for display.
// PRE: none
// POST: Returns an error wrapping domainMember.ErrNotFound when the id is unknown
func QueryGetMemberProfile(ctx context.Context, query GetMemberProfileQuery, deps GetMemberProfileDeps) (GetMemberProfileResult, error) {
	m, err := deps.MemberStore.GetByID(ctx, query.MemberID)
	if err != nil {
		return GetMemberProfileResult{}, err
	}
	return GetMemberProfileResult{
		Member:   m,
		ImageURL: ImageURL(deps.ImageBaseURL, m.ID),
		Age:      domainMember.FormatAge(m.Age),
		Days:     strings.Join(m.DOW, ", "),
	}, nil
}

// ImageURL returns a stable placeholder portrait for the member id.
func ImageURL(base string, id int) string {
	if base == "" {
		base = DefaultImageBaseURL
	}
	return fmt.Sprintf("%s?lock=%d", base, id)
}
