package commands

import (
	"errors"
	"fmt"

	"evalgo.org/adjvalet/internal/cache"
	"evalgo.org/adjvalet/internal/store"
	"evalgo.org/adjvalet/internal/version"
	"evalgo.org/adjvalet/pkg/adjvalet/client"
)

// session is one CLI invocation's view of the editing session: a backend
// client and a store rehydrated from the state file.
type session struct {
	client *client.Client
	store  *store.Store
	cache  *cache.File
}

func (a *app) newClient() (*client.Client, error) {
	b := a.cfg.Backend
	return client.New(client.Options{
		BaseURL:        b.URL,
		DiscoveryURL:   b.DiscoveryURL,
		DefaultURL:     b.DefaultURL,
		Host:           b.Host,
		PortStart:      b.PortStart,
		PortCount:      b.PortCount,
		ProbeTimeout:   b.ProbeTimeout,
		RequestTimeout: b.RequestTimeout,
		ProbeRate:      b.ProbeRate,
		UserAgent:      version.UserAgent(),
		Logger:         a.logger,
	})
}

func (a *app) session() (*session, error) {
	c, err := a.newClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}

	path := a.cfg.Cache.Path
	if path == "" {
		path = cache.DefaultPath()
	}
	persister := cache.NewFile(path, a.cfg.Cache.Snapshot)

	st := store.New(c, persister, a.logger)
	if err := st.Restore(); err != nil {
		return nil, err
	}
	return &session{client: c, store: st, cache: persister}, nil
}

// requireConfig fails unless a document is loaded or cached.
func (s *session) requireConfig() error {
	if s.store.Assemble() == nil {
		return fmt.Errorf("%w: run 'adjvalet load <path>' first", store.ErrNoConfig)
	}
	return nil
}

// errNoSnapshot is returned by local edits when nothing would keep them
// until the next save.
var errNoSnapshot = errors.New("local edits need cache.snapshot enabled")

// edit runs a local mutation against the cached document.
func (a *app) edit(fn func(*store.Store) error) error {
	if !a.cfg.Cache.Snapshot {
		return errNoSnapshot
	}
	s, err := a.session()
	if err != nil {
		return err
	}
	if err := s.requireConfig(); err != nil {
		return err
	}
	return fn(s.store)
}
