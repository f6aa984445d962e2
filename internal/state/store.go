package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// fileName is the state file inside the data directory.
const fileName = "state.json"

// ErrNoState is returned by Load when no state file exists on disk.
var ErrNoState = errors.New("no saved state")

// Store persists a State.
type Store interface {
	Save(st *State) error
	Load() (*State, error) // returns ErrNoState if none exists
	Delete() error
}

// diskStore writes state.json into a data directory.
type diskStore struct {
	path string
}

// NewStore returns a Store backed by dir, or by DataDir() when dir is empty.
func NewStore(dir string) (Store, error) {
	if dir == "" {
		d, err := DataDir()
		if err != nil {
			return nil, fmt.Errorf("resolving data directory: %w", err)
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &diskStore{path: filepath.Join(dir, fileName)}, nil
}

// DataDir returns $XDG_DATA_HOME/allot or ~/.local/share/allot.
func DataDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "allot"), nil
}

// Save writes st as JSON through a temp file and os.Rename, so a reader
// never sees a half-written state.
func (d *diskStore) Save(st *State) (err error) {
	if st.Version == 0 {
		st.Version = Version
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to persist state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(d.path), "state-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to persist state: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to persist state: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to persist state: %w", err)
	}
	if err = os.Rename(tmpName, d.path); err != nil {
		return fmt.Errorf("failed to persist state: %w", err)
	}
	return nil
}

// Load reads and unmarshals the state file.
func (d *diskStore) Load() (*State, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoState
		}
		return nil, fmt.Errorf("failed to read state: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse state: %w", err)
	}
	if st.Version > Version {
		return nil, fmt.Errorf("state file %s has version %d; this build understands up to %d", d.path, st.Version, Version)
	}
	return &st, nil
}

// Delete removes the state file.
func (d *diskStore) Delete() error {
	if err := os.Remove(d.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}
