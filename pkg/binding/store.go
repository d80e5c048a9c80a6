package binding

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// StateVersion is the current version of the state file format.
const StateVersion = 1

// Record is one persisted binding.
type Record struct {
	// Page is the page index.
	Page uint8 `json:"page"`

	// Channel is the channel index.
	Channel uint8 `json:"channel"`

	// Target is the bound session identity string.
	Target string `json:"target"`
}

// State is the persisted host state.
type State struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// Page is the last active page.
	Page uint8 `json:"page"`

	// FaderValues are the last known fader positions, one per channel.
	FaderValues []float64 `json:"fader_values,omitempty"`

	// Bindings are the assigned slots. Kept as raw JSON so one malformed
	// record cannot poison the rest of the file.
	Bindings []json.RawMessage `json:"bindings,omitempty"`
}

// Store manages persistence of host state to a JSON file.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a state store at the given path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the state file path.
func (s *Store) Path() string { return s.path }

// Save persists the state to disk.
func (s *Store) Save(page uint8, faderValues []float64, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	state := State{
		Version:     StateVersion,
		SavedAt:     time.Now(),
		Page:        page,
		FaderValues: faderValues,
	}
	for _, rec := range records {
		raw, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		state.Bindings = append(state.Bindings, raw)
	}

	data, err := json.MarshalIndent(&state, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0644)
}

// Load reads the state from disk.
//
// A missing file yields an empty state (all channels unassigned), not an
// error, and so does a file whose top-level JSON no longer parses: stale
// state is never worth refusing to start over. Individual malformed binding
// records are reported through warn and skipped; the rest of the file still
// loads.
func (s *Store) Load(warn func(raw []byte, err error)) (page uint8, faderValues []float64, records []Record, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return 0, nil, nil, nil
	}
	if err != nil {
		return 0, nil, nil, err
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		if warn != nil {
			warn(data, fmt.Errorf("unparseable state file %s, starting empty: %w", s.path, err))
		}
		return 0, nil, nil, nil
	}

	for _, raw := range state.Bindings {
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			if warn != nil {
				warn(raw, err)
			}
			continue
		}
		if rec.Target == "" {
			if warn != nil {
				warn(raw, fmt.Errorf("binding record without target"))
			}
			continue
		}
		records = append(records, rec)
	}

	return state.Page, state.FaderValues, records, nil
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
