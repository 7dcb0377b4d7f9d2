package orchestrators

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	memberStore "shuttleclub/internal/adapters/storage/member"
	domain "shuttleclub/internal/domain/member"
)

// Import formats.
const (
	ImportFormatJSON = "json"
	ImportFormatCSV  = "csv"
)

// ImportStore is the persistence surface the import needs.
type ImportStore interface {
	GetByID(ctx context.Context, id int) (domain.Member, error)
	Create(ctx context.Context, m domain.Member) (domain.Member, error)
	Insert(ctx context.Context, m domain.Member) error
}

// ImportMembersInput carries the data file and import options.
// PRE: Reader holds a club data document (json) or a CSV stream with a header row (csv).
// POST: Returns aggregate counts and per-record errors; writes are skipped when DryRun=true.
// INVARIANT: Existing members are never deleted; ids present in the file are preserved.
type ImportMembersInput struct {
	Reader     io.Reader
	Format     string // ImportFormatJSON (default) or ImportFormatCSV
	DryRun     bool
	UpdateMode bool
}

// ImportMembersResult holds aggregate counts and per-record errors from an import run.
type ImportMembersResult struct {
	Total   int
	Created int
	Updated int
	Skipped int
	Errors  []ImportMembersRowError
	DryRun  bool
	Unknown []string
}

// ImportMembersRowError describes a validation or processing error for a single record.
type ImportMembersRowError struct {
	Row     int
	Message string
}

// ImportMembersDeps holds external dependencies for the import orchestrator.
type ImportMembersDeps struct {
	MemberStore ImportStore
	Validator   *domain.Validator // optional: nil uses the shared validator
}

// importRecord is one member read from the source, before validation.
type importRecord struct {
	row int
	id  int // 0 when the source has no id
	reg domain.Registration
}

// ExecuteImportMembers loads members from a club data file and writes every
// record that passes the registration rules.
// PRE: Input.Reader is non-nil.
// POST: Valid records are created or updated according to DryRun and UpdateMode;
//
//	invalid records are reported with their messages and skipped.
//
// INVARIANT: When DryRun=true no writes occur.
func ExecuteImportMembers(ctx context.Context, input ImportMembersInput, deps ImportMembersDeps) (ImportMembersResult, error) {
	var (
		records []importRecord
		unknown []string
		err     error
	)
	switch input.Format {
	case "", ImportFormatJSON:
		records, err = readJSONRecords(input.Reader)
	case ImportFormatCSV:
		records, unknown, err = readCSVRecords(input.Reader)
	default:
		return ImportMembersResult{}, &ImportMembersValidationError{Message: "unsupported import format: " + input.Format}
	}
	if err != nil {
		return ImportMembersResult{}, err
	}

	result := ImportMembersResult{DryRun: input.DryRun, Unknown: unknown}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Total++

		res := validate(deps.Validator, rec.reg)
		if !res.Valid() {
			result.Errors = append(result.Errors, ImportMembersRowError{Row: rec.row, Message: describeErrors(res)})
			continue
		}
		m, err := domain.NewMember(rec.id, rec.reg)
		if err != nil {
			result.Errors = append(result.Errors, ImportMembersRowError{Row: rec.row, Message: err.Error()})
			continue
		}

		exists := false
		if rec.id != 0 {
			_, lookupErr := deps.MemberStore.GetByID(ctx, rec.id)
			switch {
			case lookupErr == nil:
				exists = true
			case !errors.Is(lookupErr, domain.ErrNotFound):
				return result, lookupErr
			}
		}

		if exists && !input.UpdateMode {
			result.Skipped++
			continue
		}

		if input.DryRun {
			if exists {
				result.Updated++
			} else {
				result.Created++
			}
			continue
		}

		if rec.id == 0 {
			_, err = deps.MemberStore.Create(ctx, m)
		} else {
			err = deps.MemberStore.Insert(ctx, m)
		}
		if err != nil {
			slog.Error("members_import_save_failed", "row", rec.row, "id", rec.id, "err", err)
			result.Errors = append(result.Errors, ImportMembersRowError{Row: rec.row, Message: "save failed (see server log)"})
			continue
		}
		if exists {
			result.Updated++
		} else {
			result.Created++
		}
	}

	slog.Info("members_import",
		"format", input.Format,
		"dry_run", input.DryRun,
		"update_mode", input.UpdateMode,
		"total", result.Total,
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
	)

	return result, nil
}

// describeErrors joins the messages of every failed field in form order.
func describeErrors(res domain.Result) string {
	var msgs []string
	for _, f := range failedFields(res) {
		msgs = append(msgs, f+": "+res.Errors[f])
	}
	return strings.Join(msgs, "; ")
}

func readJSONRecords(r io.Reader) ([]importRecord, error) {
	doc, err := memberStore.DecodeDocument(r)
	if err != nil {
		return nil, &ImportMembersValidationError{Message: err.Error()}
	}
	records := make([]importRecord, 0, len(doc.Members))
	for i, m := range doc.Members {
		records = append(records, importRecord{row: i + 1, id: m.ID, reg: m.Registration()})
	}
	return records, nil
}

var csvColumns = []string{
	"ID", "NAME", "AGE", "GENDER", "TEAM", "LEVEL",
	"TYPE", "DOW", "REGISTRATION_DATE", "MEMBERHISTORY",
}

// csvHeader maps upper-cased column names to their position in a row.
type csvHeader map[string]int

func parseCSVHeader(cols []string) (csvHeader, []string) {
	h := make(csvHeader, len(cols))
	var ignored []string
	for i, c := range cols {
		name := strings.ToUpper(strings.TrimSpace(c))
		h[name] = i
		if !slices.Contains(csvColumns, name) {
			ignored = append(ignored, c)
		}
	}
	return h, ignored
}

// value returns the trimmed cell for col, or "" when the row is short.
func (h csvHeader) value(row []string, col string) string {
	if i, ok := h[col]; ok && i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func (h csvHeader) record(line int, row []string) (importRecord, error) {
	rec := importRecord{
		row: line,
		reg: domain.Registration{
			Name:             h.value(row, "NAME"),
			Age:              h.value(row, "AGE"),
			Gender:           h.value(row, "GENDER"),
			Team:             h.value(row, "TEAM"),
			Level:            h.value(row, "LEVEL"),
			Type:             h.value(row, "TYPE"),
			DOW:              []string{h.value(row, "DOW")},
			RegistrationDate: h.value(row, "REGISTRATION_DATE"),
			MemberHistory:    strings.ReplaceAll(h.value(row, "MEMBERHISTORY"), "|", "\n"),
		},
	}
	if raw := h.value(row, "ID"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			return rec, fmt.Errorf("invalid id %q", raw)
		}
		rec.id = id
	}
	return rec, nil
}

// readCSVRecords reads a header row plus one member per row. DOW holds
// comma-separated days and MEMBERHISTORY uses "|" between entries.
func readCSVRecords(r io.Reader) ([]importRecord, []string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	cols, err := cr.Read()
	if err != nil {
		return nil, nil, &ImportMembersValidationError{Message: "CSV header unreadable: " + err.Error()}
	}
	header, ignored := parseCSVHeader(cols)
	if _, ok := header["NAME"]; !ok {
		return nil, nil, &ImportMembersValidationError{Message: "CSV missing required column: NAME"}
	}

	var records []importRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return records, ignored, nil
		}
		if err == nil {
			var rec importRecord
			if rec, err = header.record(line, row); err == nil {
				records = append(records, rec)
				continue
			}
		}
		return nil, nil, &ImportMembersValidationError{Message: fmt.Sprintf("CSV row %d: %v", line, err)}
	}
}

// ImportMembersValidationError is returned when the source document is structurally invalid.
type ImportMembersValidationError struct {
	Message string
}

// Error implements the error interface.
func (e *ImportMembersValidationError) Error() string {
	return e.Message
}
