package projections

import (
	"context"
	"sort"
	"strings"

	"shuttleclub/internal/application/listutil"
	domainMember "shuttleclub/internal/domain/member"
)

// SortColumns are the member fields a list may be ordered by.
var SortColumns = []string{"id", "name", "age", "team", "level", "registration_date"}

// GetMemberListQuery carries query parameters.
type GetMemberListQuery struct {
	Search listutil.SearchParams
	Sort   listutil.SortParams
	// Page is nil when every match should be returned.
	Page *listutil.PageParams
}

// GetMemberListResult carries the query result.
type GetMemberListResult struct {
	Members []domainMember.Member
	Page    listutil.PageInfo
}

// GetMemberListDeps holds dependencies for GetMemberList.
type GetMemberListDeps struct {
	MemberStore MemberStore
}

// QueryGetMemberList retrieves the directory, optionally filtered by a
// player-name or team search.
// PRE: none
// POST: Members is never nil; an unknown search category yields no members
// INVARIANT: matching is a case-insensitive substring test
func QueryGetMemberList(ctx context.Context, query GetMemberListQuery, deps GetMemberListDeps) (GetMemberListResult, error) {
	members, err := deps.MemberStore.List(ctx)
	if err != nil {
		return GetMemberListResult{}, err
	}

	result := []domainMember.Member{}
	for _, m := range members {
		if matchesSearch(m, query.Search) {
			result = append(result, m)
		}
	}

	sortMembers(result, query.Sort)

	if query.Page == nil {
		return GetMemberListResult{
			Members: result,
			Page:    listutil.NewPageInfo(1, max(len(result), 1), len(result)),
		}, nil
	}
	info := listutil.NewPageInfo(query.Page.Page, query.Page.PerPage, len(result))
	return GetMemberListResult{
		Members: listutil.Paginate(result, info),
		Page:    info,
	}, nil
}

func matchesSearch(m domainMember.Member, s listutil.SearchParams) bool {
	switch s.Category {
	case "":
		return true
	case listutil.CategoryPlayer:
		return s.Matches(m.Name)
	case listutil.CategoryTeam:
		return s.Matches(m.Team)
	default:
		return false
	}
}

func sortMembers(members []domainMember.Member, s listutil.SortParams) {
	var less func(a, b domainMember.Member) bool
	switch s.Sort {
	case "name":
		less = func(a, b domainMember.Member) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case "age":
		less = func(a, b domainMember.Member) bool { return a.Age < b.Age }
	case "team":
		less = func(a, b domainMember.Member) bool { return a.Team < b.Team }
	case "level":
		less = func(a, b domainMember.Member) bool { return levelRank(a.Level) < levelRank(b.Level) }
	case "registration_date":
		less = func(a, b domainMember.Member) bool { return a.RegistrationDate < b.RegistrationDate }
	default:
		less = func(a, b domainMember.Member) bool { return a.ID < b.ID }
	}
	sort.SliceStable(members, func(i, j int) bool {
		if s.Desc() {
			return less(members[j], members[i])
		}
		return less(members[i], members[j])
	})
}

func levelRank(level string) int {
	for i, l := range domainMember.Levels {
		if l == level {
			return i
		}
	}
	return len(domainMember.Levels)
}
