package web

import (
	"errors"
	"net/http"

	"shuttleclub/internal/adapters/http/middleware"
	"shuttleclub/internal/application/listutil"
	"shuttleclub/internal/application/orchestrators"
	"shuttleclub/internal/application/projections"
	"shuttleclub/internal/domain/member"
	"shuttleclub/internal/logger"
)

// memberListResponse is the body of GET /api/members.
type memberListResponse struct {
	Members []member.Member   `json:"members"`
	Page    listutil.PageInfo `json:"page"`
	Links   pageLinks         `json:"links"`
}

// pageLinks point at the neighbouring pages of the same query.
type pageLinks struct {
	Prev string `json:"prev,omitempty"`
	Next string `json:"next,omitempty"`
}

func listLink(path string, params listutil.ListParams, page int) string {
	if q := params.Encode(page); q != "" {
		return path + "?" + q
	}
	return path
}

// handleAPIListMembers handles GET /api/members?cat=&memberSearch=&sort=&dir=&page=&per_page=
func handleAPIListMembers(w http.ResponseWriter, r *http.Request) {
	params := listutil.ParseListParams(r.URL.Query(), projections.SortColumns)
	result, err := projections.QueryGetMemberList(r.Context(), projections.GetMemberListQuery{
		Search: params.SearchParams,
		Sort:   params.SortParams,
		Page:   &params.PageParams,
	}, projections.GetMemberListDeps{MemberStore: stores.MemberStore})
	if err != nil {
		internalError(w, r, err)
		return
	}
	resp := memberListResponse{Members: result.Members, Page: result.Page}
	if result.Page.HasPrev() {
		resp.Links.Prev = listLink(r.URL.Path, params, result.Page.Page-1)
	}
	if result.Page.HasNext() {
		resp.Links.Next = listLink(r.URL.Path, params, result.Page.Page+1)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleAPIGetMember handles GET /api/members/{id}
func handleAPIGetMember(w http.ResponseWriter, r *http.Request) {
	id, ok := parseMemberID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Member not found."})
		return
	}
	m, err := stores.MemberStore.GetByID(r.Context(), id)
	if errors.Is(err, member.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Member not found."})
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// handleAPIUpdateMember handles PUT /api/members/{id}
// The body is a full registration; the member keeps its id.
func handleAPIUpdateMember(w http.ResponseWriter, r *http.Request) {
	id, ok := parseMemberID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Member not found."})
		return
	}
	reg, err := decodeRegistration(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed registration payload"})
		return
	}

	result, err := orchestrators.ExecuteUpdateMember(r.Context(), orchestrators.UpdateMemberInput{
		MemberID:     id,
		Registration: reg,
	}, orchestrators.UpdateMemberDeps{
		MemberStore: stores.MemberStore,
		Validator:   registrationValidator,
	})
	if errors.Is(err, member.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Member not found."})
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}
	if !result.Created() {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"errors": result.Validation.Errors,
			"values": registrationValues(reg),
		})
		return
	}

	actor, _ := middleware.AdminFromContext(r.Context())
	logger.FromContext(r.Context()).Info("member_update_api", "id", id, "actor", actor)
	writeJSON(w, http.StatusOK, result.Member)
}

// handleAPIDeleteMember handles DELETE /api/members/{id}
func handleAPIDeleteMember(w http.ResponseWriter, r *http.Request) {
	id, ok := parseMemberID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Member not found."})
		return
	}
	actor, _ := middleware.AdminFromContext(r.Context())
	err := orchestrators.ExecuteDeleteMember(r.Context(), orchestrators.DeleteMemberInput{
		MemberID: id,
		Actor:    actor,
	}, orchestrators.DeleteMemberDeps{MemberStore: stores.MemberStore})
	if errors.Is(err, member.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Member not found."})
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
