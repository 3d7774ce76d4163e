// Package workspace owns the current catalog of a running editor and
// replaces it whenever the file list or the filter changes.
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/filecat/internal/catalog"
	"github.com/starford/filecat/internal/filter"
	"github.com/starford/filecat/internal/models"
	"github.com/starford/filecat/internal/render"
	"github.com/starford/filecat/internal/source"
)

// Event kinds passed to a Publisher.
const (
	EventRebuilt  = "rebuilt"
	EventToggled  = "toggled"
	EventRevealed = "revealed"
)

// ExpansionState is the persisted expansion set the service builds from.
type ExpansionState interface {
	catalog.Expander
	// Refresh re-reads persisted state before a rebuild.
	Refresh()
}

// Publisher receives catalog change notifications.
type Publisher interface {
	PublishCatalogEvent(kind, path string)
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithPublisher sets where change events go.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.pub = p
	}
}

// WithReferenceFilter sets the filter of the document-reference field.
// Defaults to filter.Default().
func WithReferenceFilter(f *filter.Filter) Option {
	return func(s *Service) {
		s.refFilter = f
	}
}

// Service holds the current catalog. Every mutation and every read of
// node state happens under mu; a rebuild swaps in a new catalog and never
// touches the old one. Rebuilds run one at a time under rebuildMu, so a
// slow listing cannot commit over a newer filter or listing.
type Service struct {
	src       source.Source
	state     ExpansionState
	logger    *slog.Logger
	pub       Publisher
	refFilter *filter.Filter

	rebuildMu sync.Mutex

	mu       sync.Mutex
	filter   *filter.Filter
	cat      *catalog.Catalog
	ref      *catalog.Catalog
	openFile string
}

// NewService creates a service with an empty catalog. Call Rebuild to load
// the file list.
func NewService(src source.Source, state ExpansionState, f *filter.Filter, opts ...Option) *Service {
	s := &Service{
		src:       src,
		state:     state,
		logger:    slog.Default(),
		refFilter: filter.Default(),
		filter:    f,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.filter == nil {
		s.filter = filter.Site()
	}
	s.cat = catalog.Build(nil, s.filter, s.state, catalog.WithLogger(s.logger))
	s.ref = catalog.Build(nil, s.refFilter, nil, catalog.WithLogger(s.logger))
	return s
}

// Rebuild lists the source and replaces the catalog. On a listing error
// the previous catalog stays current.
func (s *Service) Rebuild(ctx context.Context) error {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	s.mu.Lock()
	f := s.filter
	s.mu.Unlock()
	return s.rebuildLocked(ctx, f)
}

// SetFilter compiles cfg and rebuilds with it. An invalid pattern aborts
// before anything changes.
func (s *Service) SetFilter(ctx context.Context, cfg filter.Config) error {
	f, err := filter.FromConfig(cfg)
	if err != nil {
		return err
	}
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()
	return s.rebuildLocked(ctx, f)
}

// rebuildLocked lists, builds with f and commits. rebuildMu must be held.
func (s *Service) rebuildLocked(ctx context.Context, f *filter.Filter) error {
	entries, err := s.src.List(ctx)
	if err != nil {
		return fmt.Errorf("workspace: rebuild: %w", err)
	}

	s.mu.Lock()
	s.state.Refresh()
	next := catalog.Build(entries, f, s.state, catalog.WithLogger(s.logger))
	if s.openFile != "" {
		next.RevealPath(s.openFile)
	}
	s.cat = next
	s.ref = catalog.Build(entries, s.refFilter, nil, catalog.WithLogger(s.logger))
	s.filter = f
	s.mu.Unlock()

	s.logger.Info("catalog rebuilt",
		slog.Int("listed", len(entries)),
		slog.Int("retained", next.Len()),
		slog.Int("duplicates", len(next.Duplicates())),
		slog.Int("depth", next.Depth()))
	s.publish(EventRebuilt, "/")
	return nil
}

// Catalog returns the current catalog. Callers must not mutate node state
// directly; use Toggle and Reveal.
func (s *Service) Catalog() *catalog.Catalog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cat
}

// Filter returns the active filter rules.
func (s *Service) Filter() filter.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter.Config()
}

// OpenFile returns the last revealed path.
func (s *Service) OpenFile() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openFile
}

// Tree renders the current catalog into a view.
func (s *Service) Tree(sorted bool) render.DirectoryView {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &render.Tree{Sorted: sorted}
	t.OnReveal(s.openFile)
	return t.View(s.cat.Root())
}

// Render draws the current catalog with r.
func (s *Service) Render(r render.Consumer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openFile != "" {
		r.OnReveal(s.openFile)
	}
	return r.Render(s.cat.Root())
}

// Toggle flips the directory at root and persists the new state.
func (s *Service) Toggle(root string) (bool, error) {
	s.mu.Lock()
	n, err := s.cat.ToggleRoot(root)
	var expanded bool
	if err == nil {
		expanded = n.Expanded
	}
	s.mu.Unlock()
	if err != nil {
		return false, err
	}
	s.publish(EventToggled, root)
	return expanded, nil
}

// Reveal records path as the open file and expands its ancestors. The
// open file is re-revealed after every rebuild.
func (s *Service) Reveal(path string) []string {
	s.mu.Lock()
	s.openFile = path
	chain := s.cat.RevealPath(path)
	s.mu.Unlock()
	s.publish(EventRevealed, path)
	return chain
}

// Files returns the flattened catalog.
func (s *Service) Files() []models.FileEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cat.Flatten()
}

// ReferenceOptions lists the reference field's selectable files matching
// query (case-insensitive substring). limit <= 0 means no limit.
//
// The field has its own catalog built from the same file list with the
// reference filter, so its options do not depend on the browser filter.
func (s *Service) ReferenceOptions(query string, limit int) []render.Option {
	o := &render.Options{Query: query, Limit: limit}
	s.mu.Lock()
	_ = o.Render(s.ref.Root())
	s.mu.Unlock()
	return o.Items()
}

func (s *Service) publish(kind, path string) {
	if s.pub != nil {
		s.pub.PublishCatalogEvent(kind, path)
	}
}
