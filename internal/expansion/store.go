// Package expansion persists which catalog directories a user has opened.
//
// The persisted form is one string array under a fixed name in a Backend.
// The root directory "/" is always expanded and is never written.
package expansion

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/filecat/internal/apperr"
)

// StorageName is the single key this package reads and writes.
const StorageName = "live.menu.site.expandedDirs"

// RootPath is the catalog root, expanded by standing rule.
const RootPath = "/"

// Backend is a named string-array store.
type Backend interface {
	GetArray(name string) ([]string, error)
	SetArray(name string, values []string) error
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger that receives persistence warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithErrorHook registers fn to receive every persistence failure.
// Errors passed to fn wrap apperr.ErrPersistenceUnavailable.
func WithErrorHook(fn func(error)) Option {
	return func(s *Store) {
		s.onError = fn
	}
}

// Store is the expansion set for one process. The in-memory set is the
// source of truth for the session; the backend is a best-effort cache
// across sessions.
type Store struct {
	mu      sync.Mutex
	backend Backend
	logger  *slog.Logger
	onError func(error)

	roots []string
	index map[string]int

	// dirty is set when the backend missed a write. A dirty store does not
	// reload from the backend, it retries the write instead.
	dirty bool
	// loaded is false until a read succeeds. An unloaded store never
	// overwrites the backend: it reads and merges first. removed holds the
	// roots collapsed while unloaded so the merge drops them.
	loaded  bool
	removed map[string]struct{}
}

// New creates a store over backend and loads the persisted set.
// A failed load is reported and leaves the store empty.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  slog.Default(),
		index:   make(map[string]int),
		removed: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Refresh()
	return s
}

// Refresh re-reads the persisted set. It is called once per catalog
// rebuild. If an earlier write failed, the in-memory set is flushed
// instead of being replaced.
func (s *Store) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dirty {
		s.flushLocked()
		return
	}

	values, err := s.backend.GetArray(StorageName)
	if err != nil {
		s.loaded = false
		s.report("read", err)
		return
	}
	s.setRootsLocked(values)
	s.loaded = true
	clear(s.removed)
}

// setRootsLocked replaces the set with values, dropping "/" and repeats.
func (s *Store) setRootsLocked(values []string) {
	roots := make([]string, 0, len(values))
	clear(s.index)
	for _, v := range values {
		if v == RootPath {
			continue
		}
		if _, ok := s.index[v]; ok {
			continue
		}
		s.index[v] = len(roots)
		roots = append(roots, v)
	}
	s.roots = roots
}

// mergeLocked folds this session's changes into the persisted set:
// persisted roots keep their order minus the ones collapsed here, then
// roots opened here follow.
func (s *Store) mergeLocked(persisted []string) {
	merged := make([]string, 0, len(persisted)+len(s.roots))
	for _, v := range persisted {
		if _, gone := s.removed[v]; !gone {
			merged = append(merged, v)
		}
	}
	merged = append(merged, s.roots...)
	s.setRootsLocked(merged)
	s.loaded = true
	clear(s.removed)
}

// IsExpanded reports whether root is open.
func (s *Store) IsExpanded(root string) bool {
	if root == RootPath {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[root]
	return ok
}

// SetExpanded adds or removes root. Calls that do not change the set do
// not touch the backend.
func (s *Store) SetExpanded(root string, expanded bool) {
	if root == RootPath {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i, present := s.index[root]
	switch {
	case expanded && !present:
		s.index[root] = len(s.roots)
		s.roots = append(s.roots, root)
		delete(s.removed, root)
	case !expanded && !present && !s.loaded:
		// Possibly persisted but not readable yet.
		s.removed[root] = struct{}{}
	case !expanded && present:
		s.roots = append(s.roots[:i], s.roots[i+1:]...)
		delete(s.index, root)
		for j := i; j < len(s.roots); j++ {
			s.index[s.roots[j]] = j
		}
		if !s.loaded {
			s.removed[root] = struct{}{}
		}
	default:
		return
	}
	s.flushLocked()
}

// Roots returns the expanded roots in the order they were opened.
func (s *Store) Roots() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.roots...)
}

// Degraded reports whether the backend is behind the in-memory set.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

func (s *Store) flushLocked() {
	if !s.loaded {
		persisted, err := s.backend.GetArray(StorageName)
		if err != nil {
			s.dirty = true
			s.report("read", err)
			return
		}
		s.mergeLocked(persisted)
	}
	if err := s.backend.SetArray(StorageName, append([]string(nil), s.roots...)); err != nil {
		s.dirty = true
		s.report("write", err)
		return
	}
	s.dirty = false
}

func (s *Store) report(op string, err error) {
	wrapped := fmt.Errorf("expansion: %s %s: %w: %w", op, StorageName, apperr.ErrPersistenceUnavailable, err)
	s.logger.Warn("expansion state not persisted, keeping in-memory state",
		slog.String("op", op),
		slog.String("error", err.Error()))
	if s.onError != nil {
		s.onError(wrapped)
	}
}
