// Package listutil parses directory list requests (search, sort, page) and
// slices results into pages.
package listutil

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Search categories accepted by the directory search.
const (
	CategoryPlayer = "player"
	CategoryTeam   = "team"
)

// Query keys shared by /search and /api/members.
const (
	keyCategory = "cat"
	keyTerm     = "memberSearch"
	keySort     = "sort"
	keyDir      = "dir"
	keyPage     = "page"
	keyPerPage  = "per_page"
)

// DefaultPerPage applies when per_page is missing or not an allowed option.
const DefaultPerPage = 20

// PerPageOptions are the allowed rows-per-page values.
var PerPageOptions = []int{10, 20, 50, 100, 200}

// PageParams selects one page of results.
type PageParams struct {
	Page    int // 1-indexed
	PerPage int
}

// SortParams orders results. An empty Sort keeps the store order.
type SortParams struct {
	Sort string
	Dir  string // "asc" or "desc"
}

// Desc reports whether the order is descending.
func (s SortParams) Desc() bool {
	return s.Dir == "desc"
}

// SearchParams carries the directory search. An empty Category means
// "no search"; any other unrecognised category matches nothing.
type SearchParams struct {
	Category string // "player" or "team"
	Term     string // case-insensitive substring
}

// HasCategory reports whether Category names a searchable field.
func (s SearchParams) HasCategory() bool {
	return s.Category == CategoryPlayer || s.Category == CategoryTeam
}

// Matches reports whether value contains the search term, ignoring case.
func (s SearchParams) Matches(value string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(s.Term))
}

// ListParams is a fully parsed list request.
type ListParams struct {
	PageParams
	SortParams
	SearchParams
}

// PageInfo describes the page actually returned.
type PageInfo struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// ParsePageParams reads page and per_page, falling back to page 1 and
// DefaultPerPage for anything unusable.
func ParsePageParams(q url.Values) PageParams {
	page, err := strconv.Atoi(q.Get(keyPage))
	if err != nil || page < 1 {
		page = 1
	}
	perPage, err := strconv.Atoi(q.Get(keyPerPage))
	if err != nil || !slices.Contains(PerPageOptions, perPage) {
		perPage = DefaultPerPage
	}
	return PageParams{Page: page, PerPage: perPage}
}

// ParseSortParams reads sort and dir. A column outside allowed is dropped;
// dir is case-insensitive and defaults to "asc".
func ParseSortParams(q url.Values, allowed []string) SortParams {
	col := q.Get(keySort)
	if !slices.Contains(allowed, col) {
		col = ""
	}
	dir := "asc"
	if strings.EqualFold(q.Get(keyDir), "desc") {
		dir = "desc"
	}
	return SortParams{Sort: col, Dir: dir}
}

// ParseSearchParams reads cat and memberSearch.
// POST: Category is lower-cased and Term trimmed
func ParseSearchParams(q url.Values) SearchParams {
	return SearchParams{
		Category: strings.ToLower(strings.TrimSpace(q.Get(keyCategory))),
		Term:     strings.TrimSpace(q.Get(keyTerm)),
	}
}

// ParseListParams parses search, sort and page parameters together.
func ParseListParams(q url.Values, allowedSort []string) ListParams {
	return ListParams{
		PageParams:   ParsePageParams(q),
		SortParams:   ParseSortParams(q, allowedSort),
		SearchParams: ParseSearchParams(q),
	}
}

// Encode returns the canonical query for these parameters on the given page.
// Defaults are omitted so links stay short.
func (p ListParams) Encode(page int) string {
	q := url.Values{}
	if p.Category != "" {
		q.Set(keyCategory, p.Category)
	}
	if p.Term != "" {
		q.Set(keyTerm, p.Term)
	}
	if p.Sort != "" {
		q.Set(keySort, p.Sort)
		if p.Desc() {
			q.Set(keyDir, "desc")
		}
	}
	if page > 1 {
		q.Set(keyPage, strconv.Itoa(page))
	}
	if p.PerPage != 0 && p.PerPage != DefaultPerPage {
		q.Set(keyPerPage, strconv.Itoa(p.PerPage))
	}
	return q.Encode()
}

// NewPageInfo computes page metadata, clamping page into [1, TotalPages].
// An empty result still has one (empty) page.
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := max((total+perPage-1)/perPage, 1)
	return PageInfo{
		Page:       min(max(page, 1), totalPages),
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

// HasPrev reports whether a page precedes this one.
func (p PageInfo) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a page follows this one.
func (p PageInfo) HasNext() bool { return p.Page < p.TotalPages }

// Offset is the index of the first row on the page.
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Paginate returns the items on the page described by p, never nil.
func Paginate[T any](items []T, p PageInfo) []T {
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	return items[start:min(start+p.PerPage, len(items))]
}
