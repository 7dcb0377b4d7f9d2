package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"shuttleclub/internal/application/listutil"
	"shuttleclub/internal/application/projections"
	"shuttleclub/internal/domain/member"
	"shuttleclub/internal/logger"
)

// mdRenderer renders member history. Raw HTML in the input is escaped
// because WithUnsafe is not set.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromContext(r.Context()).Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("json_encode_failed", "error", err)
	}
}

func isJSONRequest(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// wantsJSON reports whether the client asked for a JSON response, either by
// sending JSON or by preferring it in Accept.
func wantsJSON(r *http.Request) bool {
	if isJSONRequest(r) {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

// renderMarkdown converts text to sanitised HTML, falling back to escaped text.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// historyMarkdown renders a member history as a markdown bullet list so each
// entry may carry inline emphasis or links.
func historyMarkdown(history []string) template.HTML {
	if len(history) == 0 {
		return ""
	}
	var b strings.Builder
	for _, line := range history {
		b.WriteString("- ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	return renderMarkdown(b.String())
}

func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	renderTemplateStatus(w, r, http.StatusOK, templateName, data)
}

func renderTemplateStatus(w http.ResponseWriter, r *http.Request, status int, templateName string, data any) {
	funcMap := template.FuncMap{
		"csrfField":      func() template.HTML { return csrf.TemplateField(r) },
		"csrfToken":      func() string { return csrf.Token(r) },
		"renderMarkdown": renderMarkdown,
		"history":        historyMarkdown,
		"imageURL":       func(id int) string { return projections.ImageURL(appConfig.ImageBaseURL, id) },
		"formatAge":      member.FormatAge,
		"join":           strings.Join,
		"errorID":        member.ErrorElementID,
		"dict": func(kv ...any) (map[string]any, error) {
			if len(kv)%2 != 0 {
				return nil, errors.New("dict needs key/value pairs")
			}
			m := make(map[string]any, len(kv)/2)
			for i := 0; i < len(kv); i += 2 {
				key, ok := kv[i].(string)
				if !ok {
					return nil, errors.New("dict keys must be strings")
				}
				m[key] = kv[i+1]
			}
			return m, nil
		},
		"contains": func(list []string, v string) bool {
			for _, s := range list {
				if s == v {
					return true
				}
			}
			return false
		},
	}

	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templatesFS, "templates/layout.html", "templates/"+templateName)
	if err != nil {
		internalError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// directoryPage is the data for index.html.
type directoryPage struct {
	Title    string
	Members  []member.Member
	Search   listutil.SearchParams
	Searched bool
}

// handleHome handles GET /
func handleHome(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryGetMemberList(r.Context(), projections.GetMemberListQuery{}, projections.GetMemberListDeps{
		MemberStore: stores.MemberStore,
	})
	if err != nil {
		internalError(w, r, err)
		return
	}
	renderTemplate(w, r, "index.html", directoryPage{
		Title:   "Members",
		Members: result.Members,
	})
}

// handleSearch handles GET /search?cat=player|team&memberSearch=
func handleSearch(w http.ResponseWriter, r *http.Request) {
	search := listutil.ParseSearchParams(r.URL.Query())
	page := directoryPage{
		Title:    "Search results",
		Members:  []member.Member{},
		Search:   search,
		Searched: true,
	}
	// Without a known category there is nothing to match against.
	if !search.HasCategory() {
		renderTemplate(w, r, "index.html", page)
		return
	}
	result, err := projections.QueryGetMemberList(r.Context(), projections.GetMemberListQuery{Search: search}, projections.GetMemberListDeps{
		MemberStore: stores.MemberStore,
	})
	if err != nil {
		internalError(w, r, err)
		return
	}
	page.Members = result.Members
	renderTemplate(w, r, "index.html", page)
}

// notFoundPage is the data for not_found.html.
type notFoundPage struct {
	Title   string
	Message string
}

// memberPage is the data for single_member.html.
type memberPage struct {
	Title string
	projections.GetMemberProfileResult
}

// parseMemberID reads the {id} path value. Anything but a decimal integer is
// treated as an unknown member.
func parseMemberID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	return id, err == nil
}

// handleMember handles GET /member/{id}
func handleMember(w http.ResponseWriter, r *http.Request) {
	id, ok := parseMemberID(r)
	if !ok {
		renderMemberNotFound(w, r, r.PathValue("id"))
		return
	}
	result, err := projections.QueryGetMemberProfile(r.Context(), projections.GetMemberProfileQuery{MemberID: id}, projections.GetMemberProfileDeps{
		MemberStore:  stores.MemberStore,
		ImageBaseURL: appConfig.ImageBaseURL,
	})
	if errors.Is(err, member.ErrNotFound) {
		renderMemberNotFound(w, r, r.PathValue("id"))
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}
	renderTemplate(w, r, "single_member.html", memberPage{
		Title:                  result.Member.Name,
		GetMemberProfileResult: result,
	})
}

func renderMemberNotFound(w http.ResponseWriter, r *http.Request, id string) {
	logger.FromContext(r.Context()).Info("member_not_found", "id", id)
	renderTemplateStatus(w, r, http.StatusNotFound, "not_found.html", notFoundPage{
		Title:   "Not Found",
		Message: "Member not found.",
	})
}

// handleNotFound handles every unmatched route.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) || strings.HasPrefix(r.URL.Path, "/api/") {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not Found"})
		return
	}
	renderTemplateStatus(w, r, http.StatusNotFound, "not_found.html", notFoundPage{
		Title:   "Not Found",
		Message: "The page you were looking for does not exist.",
	})
}

// handleCSRFFailure renders the rejection of a form without a valid token.
func handleCSRFFailure(w http.ResponseWriter, r *http.Request) {
	logger.FromContext(r.Context()).Warn("csrf_rejected", "path", r.URL.Path, "reason", csrf.FailureReason(r))
	http.Error(w, "Forbidden - invalid or missing form token", http.StatusForbidden)
}

// handleHealthz handles GET /healthz
func handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := stores.MemberStore.Ping(r.Context()); err != nil {
		logger.FromContext(r.Context()).Error("healthz_failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
