// Package cache keeps the client-side session state that outlives a
// process: the last loaded ADJ path and, optionally, a snapshot of the last
// known document.
//
// The on-disk form is a small YAML file:
//
//	config_path: /srv/adj
//	saved_at: 2026-01-02T15:04:05Z
//	snapshot: '{"general_info":{...},"board_list":{...},"boards":[...]}'
//
// The snapshot is stored in the JSON wire form so it can be sent back to
// the backend unchanged.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"evalgo.org/adjvalet/models"
)

// Persister stores session state. A missing entry is reported as the zero
// value with a nil error.
type Persister interface {
	LoadPath() (string, error)
	SavePath(path string) error
	LoadSnapshot() (*models.ADJConfig, error)
	SaveSnapshot(cfg *models.ADJConfig) error
	Clear() error
}

// DefaultPath returns ~/.adjvalet/state.yaml, or a path in the working
// directory when the home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".adjvalet", "state.yaml")
	}
	return filepath.Join(home, ".adjvalet", "state.yaml")
}

type fileState struct {
	ConfigPath string    `yaml:"config_path,omitempty"`
	SavedAt    time.Time `yaml:"saved_at,omitempty"`
	Snapshot   string    `yaml:"snapshot,omitempty"`
}

// File is a Persister backed by a YAML file.
type File struct {
	path      string
	snapshots bool

	mu sync.Mutex
}

// NewFile returns a File persister at path. When snapshots is false the
// document snapshot is neither written nor read.
func NewFile(path string, snapshots bool) *File {
	if path == "" {
		path = DefaultPath()
	}
	return &File{path: path, snapshots: snapshots}
}

// Path returns the state file location.
func (f *File) Path() string {
	return f.path
}

// LoadPath returns the stored config path, or "" when none is stored.
func (f *File) LoadPath() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	st, err := f.read()
	if err != nil {
		return "", err
	}
	return st.ConfigPath, nil
}

// SavePath stores the config path, keeping the snapshot.
func (f *File) SavePath(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	st, err := f.read()
	if err != nil {
		return err
	}
	st.ConfigPath = path
	return f.write(st)
}

// LoadSnapshot returns the cached document. It returns nil when snapshots
// are disabled or none is stored.
func (f *File) LoadSnapshot() (*models.ADJConfig, error) {
	if !f.snapshots {
		return nil, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	st, err := f.read()
	if err != nil || st.Snapshot == "" {
		return nil, err
	}

	var cfg models.ADJConfig
	if err := json.Unmarshal([]byte(st.Snapshot), &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode cached snapshot: %w", err)
	}
	return &cfg, nil
}

// SaveSnapshot stores cfg. A nil cfg removes the snapshot.
func (f *File) SaveSnapshot(cfg *models.ADJConfig) error {
	if !f.snapshots {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	st, err := f.read()
	if err != nil {
		return err
	}

	if cfg == nil {
		st.Snapshot = ""
		st.SavedAt = time.Time{}
		return f.write(st)
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	st.Snapshot = string(data)
	st.SavedAt = time.Now().UTC()
	return f.write(st)
}

// Clear removes the state file.
func (f *File) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove state file: %w", err)
	}
	return nil
}

func (f *File) read() (*fileState, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return &fileState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var st fileState
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse state file %s: %w", f.path, err)
	}
	return &st, nil
}

// write replaces the state file atomically.
func (f *File) write(st *fileState) error {
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set state file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// Memory is an in-process Persister.
type Memory struct {
	mu       sync.Mutex
	path     string
	snapshot *models.ADJConfig
}

// NewMemory returns an empty Memory persister.
func NewMemory() *Memory {
	return &Memory{}
}

// LoadPath returns the stored config path.
func (m *Memory) LoadPath() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.path, nil
}

// SavePath stores the config path.
func (m *Memory) SavePath(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.path = path
	return nil
}

// LoadSnapshot returns the stored document without copying it.
func (m *Memory) LoadSnapshot() (*models.ADJConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot, nil
}

// SaveSnapshot keeps a reference to cfg. A nil cfg removes the snapshot.
func (m *Memory) SaveSnapshot(cfg *models.ADJConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = cfg
	return nil
}

// Clear forgets the path and the snapshot.
func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.path = ""
	m.snapshot = nil
	return nil
}
