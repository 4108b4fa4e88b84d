package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/muurk/attrstore/internal/attribute"
)

// Version is the current version of the state file format.
const Version = 1

// File is the on-disk state document.
//
// Only Values is required when loading; unknown top-level fields are ignored
// so older and newer writers can share a state file.
type File struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// Values maps attribute names to their raw text values.
	Values map[string]string `json:"values"`
}

// fileOnDisk is the lenient decoding form of File. Values written by hand
// as numbers or booleans are accepted and kept as text.
type fileOnDisk struct {
	Version int             `json:"version"`
	SavedAt json.RawMessage `json:"saved_at"`
	Values  map[string]any  `json:"values"`
}

// Store persists attribute values to a JSON file.
// It implements attribute.StateStore.
type Store struct {
	mu   sync.Mutex
	path string
}

var _ attribute.StateStore = (*Store)(nil)

// NewStore creates a store for the state file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the state file path.
func (s *Store) Path() string {
	return s.path
}

// Save writes values to the state file.
// The file is replaced atomically: a crash leaves either the old or the new
// document, never a partial one.
func (s *Store) Save(values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if values == nil {
		values = map[string]string{}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(File{
		Version: Version,
		SavedAt: time.Now().UTC(),
		Values:  values,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary state file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	return nil
}

// Load returns the persisted values.
// Returns nil, nil if the state file doesn't exist.
func (s *Store) Load() (map[string]string, error) {
	f, err := s.LoadFile()
	if err != nil || f == nil {
		return nil, err
	}
	return f.Values, nil
}

// LoadFile reads the whole state document.
// Returns nil, nil if the state file doesn't exist.
func (s *Store) LoadFile() (*File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	return Decode(data)
}

// Clear removes the state file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Decode parses a state document.
func Decode(data []byte) (*File, error) {
	// Numbers keep their literal text.
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw fileOnDisk
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse state file: trailing data after document")
	}

	f := &File{
		Version: raw.Version,
		Values:  make(map[string]string, len(raw.Values)),
	}
	// A malformed timestamp is metadata only and does not invalidate values.
	_ = json.Unmarshal(raw.SavedAt, &f.SavedAt)

	for name, v := range raw.Values {
		text, ok := attribute.ScalarText(v)
		if !ok {
			return nil, fmt.Errorf("failed to parse state file: value of %q is not a scalar", name)
		}
		f.Values[name] = text
	}

	return f, nil
}
