package casefile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound indicates no case record exists for the event id.
var ErrNotFound = errors.New("case record not found")

// ErrEmailSent indicates the email's sent flag was already set.
var ErrEmailSent = errors.New("email already marked sent")

// Store persists case records as one JSON file per event id.
type Store struct {
	dir string
}

// NewStore creates the store, making the directory if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("case record directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create case record directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(eventID string) string {
	return filepath.Join(s.dir, eventID+".json")
}

// Save writes the whole record in a single atomic step: marshal, write to a
// temp file, rename over the final path. A crash mid-pipeline leaves no
// partial record behind.
func (s *Store) Save(rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal case record: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, rec.EventID+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write case record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path(rec.EventID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to persist case record: %w", err)
	}
	return nil
}

// Load reads a record by event id. Returns ErrNotFound if no record exists.
func (s *Store) Load(eventID string) (*Record, error) {
	data, err := os.ReadFile(s.path(eventID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read case record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse case record %s: %w", eventID, err)
	}
	return &rec, nil
}

// Exists reports whether a record exists for the event id. This is the
// replay-protection check the orchestration pass relies on.
func (s *Store) Exists(eventID string) bool {
	_, err := os.Stat(s.path(eventID))
	return err == nil
}

// List returns all stored records sorted by creation time, newest first.
func (s *Store) List() ([]*Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list case records: %w", err)
	}

	var records []*Record
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		rec, err := s.Load(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue // skip unreadable records rather than failing the listing
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// MarkEmailSent sets the sent flag on the email at index and persists the
// record. The flag can only be set once per email.
func (s *Store) MarkEmailSent(eventID string, index int) error {
	rec, err := s.Load(eventID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(rec.Emails) {
		return fmt.Errorf("email index %d out of range for case %s", index, eventID)
	}
	if rec.Emails[index].Sent {
		return ErrEmailSent
	}
	rec.Emails[index].Sent = true
	return s.Save(rec)
}
