// Package store is the single source of truth for the loaded ADJ document
// and the session around it.
//
// All access is serialized by one mutex that is never held across a
// backend call. Loads and saves run one at a time: a second Load or Save
// while one is in flight fails with ErrBusy. Reset invalidates any request
// still in flight; its response is discarded when it arrives.
//
// Structural edits only touch the in-memory document. They are applied
// with the pure functions of package edit, so a State handed out earlier
// is never changed afterwards.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"evalgo.org/adjvalet/internal/cache"
	"evalgo.org/adjvalet/internal/edit"
	"evalgo.org/adjvalet/internal/validation"
	"evalgo.org/adjvalet/models"
)

var (
	// ErrNoConfig is returned by Save before a document is loaded.
	ErrNoConfig = errors.New("no configuration loaded")

	// ErrMissingPath is returned by Load when no path is given or stored.
	ErrMissingPath = errors.New("no configuration path")

	// ErrBusy is returned when a load or save is already in flight.
	ErrBusy = errors.New("a load or save is already in progress")

	// ErrInvalidConfig is returned by Save when the document fails validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrDiscarded is returned when Reset ran while the request was in flight.
	ErrDiscarded = errors.New("response discarded after reset")

	// ErrNotPersisted is returned when a change was applied in memory but
	// the snapshot could not be written to the cache.
	ErrNotPersisted = errors.New("change not persisted")
)

// Backend is the subset of the backend client the store uses.
type Backend interface {
	SetPath(ctx context.Context, path string) (string, error)
	GetConfig(ctx context.Context) (*models.ADJConfig, error)
	UpdateConfig(ctx context.Context, cfg *models.ADJConfig) (*models.ADJConfig, error)
}

// State is a snapshot of the store. Config is shared and must not be
// modified by the receiver.
type State struct {
	IsLoading  bool
	Error      string
	ConfigPath string
	Config     *models.ADJConfig
}

// Store holds the current document and session status.
type Store struct {
	backend   Backend
	cache     cache.Persister
	validator *validation.Validator
	logger    *slog.Logger

	mu         sync.Mutex
	state      State
	generation uint64
	listeners  map[int]func(State)
	nextID     int
}

// New creates a Store. A nil cache keeps state in memory only and a nil
// logger uses slog.Default().
func New(backend Backend, persister cache.Persister, logger *slog.Logger) *Store {
	if persister == nil {
		persister = cache.NewMemory()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		backend:   backend,
		cache:     persister,
		validator: validation.New(),
		logger:    logger.With("component", "store"),
		listeners: map[int]func(State){},
	}
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Assemble returns the current document, or nil before one is loaded.
func (s *Store) Assemble() *models.ADJConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Config
}

// Subscribe registers fn to be called with every new State. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// unlockAndNotify releases the lock and then calls every listener with
// the state as it was at release.
func (s *Store) unlockAndNotify() {
	st := s.state
	fns := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}

// Restore rehydrates the stored path and the cached document snapshot.
// Fields already set are kept.
func (s *Store) Restore() error {
	path, err := s.cache.LoadPath()
	if err != nil {
		return fmt.Errorf("failed to restore config path: %w", err)
	}
	snapshot, err := s.cache.LoadSnapshot()
	if err != nil {
		return fmt.Errorf("failed to restore config snapshot: %w", err)
	}

	s.mu.Lock()
	if s.state.ConfigPath == "" {
		s.state.ConfigPath = path
	}
	if s.state.Config == nil {
		s.state.Config = snapshot
	}
	s.unlockAndNotify()

	s.logger.Debug("session restored", "config_path", path, "snapshot", snapshot != nil)
	return nil
}

// Load makes path the backend's active directory and fetches the assembled
// document. An empty path reuses the stored one. On failure the previous
// document is kept and State.Error describes the problem.
func (s *Store) Load(ctx context.Context, path string) error {
	s.mu.Lock()
	if s.state.IsLoading {
		s.mu.Unlock()
		return ErrBusy
	}

	path = strings.TrimSpace(path)
	if path == "" {
		path = s.state.ConfigPath
	}
	if path == "" {
		s.state.Error = ErrMissingPath.Error()
		s.unlockAndNotify()
		return ErrMissingPath
	}

	gen := s.generation
	s.state.IsLoading = true
	s.state.Error = ""
	s.unlockAndNotify()

	s.logger.Info("loading configuration", "path", path)

	cfg, err := s.fetch(ctx, path)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.logger.Warn("discarding load response after reset", "path", path)
		return ErrDiscarded
	}

	s.state.IsLoading = false
	if err != nil {
		err = fmt.Errorf("failed to load %s: %w", path, err)
		s.state.Error = err.Error()
		s.unlockAndNotify()
		s.logger.Error("load failed", "path", path, "error", err)
		return err
	}

	s.state.Config = cfg
	s.state.ConfigPath = path
	if err := s.cache.SavePath(path); err != nil {
		s.logger.Warn("failed to persist config path", "error", err)
	}
	if err := s.persistSnapshot(cfg); err != nil {
		s.logger.Warn("failed to cache config snapshot", "error", err)
	}
	s.unlockAndNotify()

	s.logger.Info("configuration loaded", "path", path, "boards", cfg.Len())
	return nil
}

func (s *Store) fetch(ctx context.Context, path string) (*models.ADJConfig, error) {
	ack, err := s.backend.SetPath(ctx, path)
	if err != nil {
		return nil, err
	}
	if ack != "" {
		s.logger.Debug("backend acknowledged path", "message", ack)
	}
	return s.backend.GetConfig(ctx)
}

// Save assigns missing packet ids, validates the document and pushes it to
// the backend. The backend's copy replaces the local one unless the
// document was edited while the save was in flight.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.state.IsLoading {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.state.Config == nil {
		s.state.Error = ErrNoConfig.Error()
		s.unlockAndNotify()
		return ErrNoConfig
	}

	orig := s.state.Config
	sent, err := edit.AssignPacketIDs(orig)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		s.state.Error = err.Error()
		s.unlockAndNotify()
		return err
	}
	if result := s.validator.ValidateConfig(sent); !result.Valid {
		err := fmt.Errorf("%w: %s", ErrInvalidConfig, result.Summary())
		s.state.Error = err.Error()
		s.unlockAndNotify()
		return err
	}

	gen := s.generation
	s.state.IsLoading = true
	s.state.Error = ""
	s.unlockAndNotify()

	s.logger.Info("saving configuration", "boards", sent.Len())

	updated, err := s.backend.UpdateConfig(ctx, sent)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.logger.Warn("discarding save response after reset")
		return ErrDiscarded
	}

	s.state.IsLoading = false
	if err != nil {
		err = fmt.Errorf("failed to save configuration: %w", err)
		s.state.Error = err.Error()
		s.unlockAndNotify()
		s.logger.Error("save failed", "error", err)
		return err
	}

	if s.state.Config != orig {
		s.unlockAndNotify()
		s.logger.Warn("document edited during save, keeping local changes")
		return nil
	}

	s.state.Config = updated
	if err := s.persistSnapshot(updated); err != nil {
		s.logger.Warn("failed to cache config snapshot", "error", err)
	}
	s.unlockAndNotify()

	s.logger.Info("configuration saved", "boards", updated.Len())
	return nil
}

// Reset clears the session and the durable state. Requests in flight are
// discarded when they complete.
func (s *Store) Reset() error {
	s.mu.Lock()
	s.generation++
	s.state = State{}
	err := s.cache.Clear()
	s.unlockAndNotify()

	if err != nil {
		return fmt.Errorf("failed to clear cached state: %w", err)
	}
	s.logger.Info("session reset")
	return nil
}

// SetConfig replaces the document wholesale. The new document is kept in
// memory even when caching it fails; the error wraps ErrNotPersisted.
func (s *Store) SetConfig(cfg *models.ADJConfig) error {
	s.mu.Lock()
	s.state.Config = cfg
	err := s.persistSnapshot(cfg)
	s.unlockAndNotify()
	return err
}

// persistSnapshot must be called with s.mu held.
func (s *Store) persistSnapshot(cfg *models.ADJConfig) error {
	if err := s.cache.SaveSnapshot(cfg); err != nil {
		return fmt.Errorf("%w: failed to cache config snapshot: %w", ErrNotPersisted, err)
	}
	return nil
}
