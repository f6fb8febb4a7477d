package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/modsmith/modsmith/internal/loader"
)

const sessionFileName = "last_session.json"

// Store persists load session records under the state directory so the next
// run can show what happened last time.
type Store struct {
	dir string
	now func() time.Time
}

// StoreOption customizes a Store during construction.
type StoreOption func(*Store)

// WithClock overrides the clock used for record timestamps.
func WithClock(clock func() time.Time) StoreOption {
	return func(s *Store) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewStore builds a store rooted at the given state directory.
func NewStore(dir string, opts ...StoreOption) *Store {
	store := &Store{
		dir: dir,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// SessionRecord is the on-disk shape of a persisted load session.
type SessionRecord struct {
	Session string        `json:"session"`
	SavedAt time.Time     `json:"saved_at"`
	Report  loader.Report `json:"report"`
}

// SaveSession writes the report as the most recent session record.
func (s *Store) SaveSession(report loader.Report) error {
	if s.dir == "" {
		return fmt.Errorf("state: store directory is not set")
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}
	record := SessionRecord{
		Session: report.Session,
		SavedAt: s.now(),
		Report:  report,
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("state: encode session record: %w", err)
	}
	path := filepath.Join(s.dir, sessionFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LastSession returns the most recent session record, or nil when no session
// has been persisted yet.
func (s *Store) LastSession() (*SessionRecord, error) {
	path := filepath.Join(s.dir, sessionFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var record SessionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("state: decode session record %s: %w", path, err)
	}
	return &record, nil
}
