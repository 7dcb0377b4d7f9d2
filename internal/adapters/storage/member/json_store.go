package member

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	domain "shuttleclub/internal/domain/member"
)

// Document is the on-disk layout of the club data file.
type Document struct {
	Members []domain.Member `json:"members"`
}

// DecodeDocument reads a club data file. A missing members key yields an
// empty, non-nil list.
func DecodeDocument(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode club data: %w", err)
	}
	if doc.Members == nil {
		doc.Members = []domain.Member{}
	}
	for i := range doc.Members {
		doc.Members[i].DOW = domain.NormalizeDays(doc.Members[i].DOW)
		if doc.Members[i].MemberHistory == nil {
			doc.Members[i].MemberHistory = []string{}
		}
	}
	return doc, nil
}

// JSONStore implements Store on a single JSON document. Every mutation reads
// the file, applies the change and replaces the file under one lock.
type JSONStore struct {
	path string
	mu   sync.Mutex
}

// NewJSONStore creates a store backed by the file at path. The file is
// created on first write if it does not exist.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// load reads the document; a missing file is an empty collection.
func (s *JSONStore) load() (Document, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Document{Members: []domain.Member{}}, nil
	}
	if err != nil {
		return Document{}, err
	}
	defer f.Close()
	return DecodeDocument(f)
}

// save writes doc to a temp file in the same directory and renames it over
// the original, so readers never see a partial document.
func (s *JSONStore) save(doc Document) error {
	sort.Slice(doc.Members, func(i, j int) bool { return doc.Members[i].ID < doc.Members[j].ID })

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".clubinfo-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		tmp.Close()
		return fmt.Errorf("encode club data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// GetByID retrieves a Member by its ID.
func (s *JSONStore) GetByID(ctx context.Context, id int) (domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return domain.Member{}, err
	}
	for _, m := range doc.Members {
		if m.ID == id {
			return m, nil
		}
	}
	return domain.Member{}, fmt.Errorf("member %d: %w", id, domain.ErrNotFound)
}

// List returns every member ordered by id.
func (s *JSONStore) List(ctx context.Context) ([]domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	sort.Slice(doc.Members, func(i, j int) bool { return doc.Members[i].ID < doc.Members[j].ID })
	return doc.Members, nil
}

// Create assigns the next id and appends the member.
// PRE: value has been validated; value.ID is ignored
// POST: Returns the member with its assigned id
// INVARIANT: id read and write happen under the same lock
func (s *JSONStore) Create(ctx context.Context, value domain.Member) (domain.Member, error) {
	if err := ctx.Err(); err != nil {
		return domain.Member{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return domain.Member{}, err
	}
	ids := make([]int, len(doc.Members))
	for i, m := range doc.Members {
		ids[i] = m.ID
	}
	value.ID = domain.NextID(ids)
	if value.MemberHistory == nil {
		value.MemberHistory = []string{}
	}
	doc.Members = append(doc.Members, value)
	if err := s.save(doc); err != nil {
		return domain.Member{}, err
	}
	return value, nil
}

// Insert stores a member under its own id, replacing any existing entry.
func (s *JSONStore) Insert(ctx context.Context, value domain.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	for i, m := range doc.Members {
		if m.ID == value.ID {
			doc.Members[i] = value
			return s.save(doc)
		}
	}
	doc.Members = append(doc.Members, value)
	return s.save(doc)
}

// Update overwrites an existing member.
// POST: Returns an error wrapping domain.ErrNotFound if no entry has value.ID
func (s *JSONStore) Update(ctx context.Context, value domain.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	for i, m := range doc.Members {
		if m.ID == value.ID {
			doc.Members[i] = value
			return s.save(doc)
		}
	}
	return fmt.Errorf("member %d: %w", value.ID, domain.ErrNotFound)
}

// Delete removes a member.
// POST: Returns an error wrapping domain.ErrNotFound if no entry had id
func (s *JSONStore) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	for i, m := range doc.Members {
		if m.ID == id {
			doc.Members = append(doc.Members[:i], doc.Members[i+1:]...)
			return s.save(doc)
		}
	}
	return fmt.Errorf("member %d: %w", id, domain.ErrNotFound)
}

// Ping verifies the data file is readable.
func (s *JSONStore) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.load()
	return err
}
