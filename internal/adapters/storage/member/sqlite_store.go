package member

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"shuttleclub/internal/adapters/storage"
	domain "shuttleclub/internal/domain/member"
)

const memberColumns = "id, name, age, gender, team, level, type, dow, registration_date, member_history"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLite-backed member store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (domain.Member, error) {
	var m domain.Member
	var dow, history string
	if err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Age,
		&m.Gender,
		&m.Team,
		&m.Level,
		&m.Type,
		&dow,
		&m.RegistrationDate,
		&history,
	); err != nil {
		return domain.Member{}, err
	}
	m.DOW = domain.NormalizeDays([]string{dow})
	m.MemberHistory = []string{}
	if err := json.Unmarshal([]byte(history), &m.MemberHistory); err != nil {
		return domain.Member{}, fmt.Errorf("decode member_history of %d: %w", m.ID, err)
	}
	if m.MemberHistory == nil {
		m.MemberHistory = []string{}
	}
	return m, nil
}

// encodeHistory returns the JSON column value for a history list.
func encodeHistory(history []string) (string, error) {
	if history == nil {
		history = []string{}
	}
	b, err := json.Marshal(history)
	return string(b), err
}

// GetByID retrieves a Member by its ID.
// PRE: none
// POST: Returns the entity or an error wrapping domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id int) (domain.Member, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+memberColumns+" FROM member WHERE id = ?", id)
	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Member{}, fmt.Errorf("member %d: %w", id, domain.ErrNotFound)
	}
	return m, err
}

// List returns every member ordered by id.
// PRE: none
// POST: Returns a non-nil slice
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Member, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+memberColumns+" FROM member ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []domain.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

// Create inserts a member under the next free id. The id is computed inside
// the INSERT itself, so concurrent Creates never observe the same maximum.
// PRE: value has been validated; value.ID is ignored
// POST: Returns the member with its assigned id
func (s *SQLiteStore) Create(ctx context.Context, value domain.Member) (domain.Member, error) {
	history, err := encodeHistory(value.MemberHistory)
	if err != nil {
		return domain.Member{}, err
	}

	query := fmt.Sprintf(
		"INSERT INTO member (%s) SELECT COALESCE(MAX(id) + 1, %d), ?, ?, ?, ?, ?, ?, ?, ?, ? FROM member RETURNING id",
		memberColumns, domain.FirstID,
	)
	var id int
	err = s.db.QueryRowContext(ctx, query,
		value.Name,
		value.Age,
		value.Gender,
		value.Team,
		value.Level,
		value.Type,
		strings.Join(value.DOW, ","),
		value.RegistrationDate,
		history,
	).Scan(&id)
	if err != nil {
		return domain.Member{}, fmt.Errorf("insert member: %w", err)
	}

	value.ID = id
	if value.MemberHistory == nil {
		value.MemberHistory = []string{}
	}
	return value, nil
}

// Insert stores a member under its own id, replacing any existing row.
// Used when importing a data file whose ids must be preserved.
// PRE: value.ID > 0
// POST: Row with value.ID holds value
func (s *SQLiteStore) Insert(ctx context.Context, value domain.Member) error {
	history, err := encodeHistory(value.MemberHistory)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO member ("+memberColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		value.ID,
		value.Name,
		value.Age,
		value.Gender,
		value.Team,
		value.Level,
		value.Type,
		strings.Join(value.DOW, ","),
		value.RegistrationDate,
		history,
	)
	return err
}

// Update overwrites an existing member.
// PRE: value has been validated
// POST: Returns an error wrapping domain.ErrNotFound if no row has value.ID
func (s *SQLiteStore) Update(ctx context.Context, value domain.Member) error {
	history, err := encodeHistory(value.MemberHistory)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE member SET name = ?, age = ?, gender = ?, team = ?, level = ?, type = ?,
			dow = ?, registration_date = ?, member_history = ? WHERE id = ?`,
		value.Name,
		value.Age,
		value.Gender,
		value.Team,
		value.Level,
		value.Type,
		strings.Join(value.DOW, ","),
		value.RegistrationDate,
		history,
		value.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res, value.ID)
}

// Delete removes a Member from the database.
// PRE: none
// POST: Returns an error wrapping domain.ErrNotFound if no row had id
func (s *SQLiteStore) Delete(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM member WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res, id)
}

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func requireAffected(res sql.Result, id int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("member %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
