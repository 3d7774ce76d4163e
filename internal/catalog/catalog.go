// Package catalog turns a flat list of content files into a directory tree
// with per-directory expansion state.
//
// A Catalog is built once from a complete entry list and never patched:
// when the list or the filter changes, build a new one and drop the old.
// Sibling files and directories keep the order in which they first appear
// in the input; sorting is left to renderers.
package catalog

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/filecat/internal/apperr"
	"github.com/starford/filecat/internal/models"
)

// Matcher decides which paths are retained.
type Matcher interface {
	Matches(path string) bool
}

// Expander is the expansion state a catalog reads during Build and writes
// on Toggle.
type Expander interface {
	IsExpanded(root string) bool
	SetExpanded(root string, expanded bool)
}

// Option configures Build.
type Option func(*Catalog)

// WithLogger sets the logger for build warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *Catalog) {
		c.logger = l
	}
}

// Catalog is the tree built from one entry list.
type Catalog struct {
	root   *Node
	store  Expander
	logger *slog.Logger

	count      int
	depth      int
	duplicates []string
	invalid    []string
}

// Build filters entries once, partitions the survivors into directory
// nodes and hydrates each node's Expanded flag from store.
//
// Duplicate paths are resolved last-wins: the later entry replaces the
// earlier one in the earlier one's position. Entries with malformed paths
// are dropped. Both are logged and exposed through Duplicates and Invalid.
// A nil filter retains everything.
func Build(entries []models.FileEntry, filter Matcher, store Expander, opts ...Option) *Catalog {
	c := &Catalog{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store == nil {
		c.store = rootOnly{}
	}

	retained := c.retain(entries, filter)
	c.count = len(retained)
	c.root = c.buildNode(RootPath, retained, 1)
	return c
}

// retain applies path validation, the filter and the duplicate policy.
func (c *Catalog) retain(entries []models.FileEntry, filter Matcher) []models.FileEntry {
	out := make([]models.FileEntry, 0, len(entries))
	pos := make(map[string]int, len(entries))
	for _, e := range entries {
		if err := ValidatePath(e.Path); err != nil {
			c.invalid = append(c.invalid, e.Path)
			c.logger.Warn("catalog: dropping entry", slog.String("path", e.Path), slog.String("error", err.Error()))
			continue
		}
		if filter != nil && !filter.Matches(e.Path) {
			continue
		}
		if i, ok := pos[e.Path]; ok {
			c.duplicates = append(c.duplicates, e.Path)
			c.logger.Warn("catalog: duplicate entry, last occurrence wins",
				slog.String("path", e.Path),
				slog.String("error", apperr.ErrDuplicatePath.Error()))
			out[i] = e
			continue
		}
		pos[e.Path] = len(out)
		out = append(out, e)
	}
	return out
}

// buildNode partitions entries, all of which live under root, into the
// node's own files and one group per child directory, then recurses.
func (c *Catalog) buildNode(root string, entries []models.FileEntry, level int) *Node {
	n := &Node{
		Root:     root,
		Children: make(map[string]*Node),
		Expanded: c.store.IsExpanded(root),
	}
	if level > c.depth && len(entries) > 0 {
		c.depth = level
	}

	groups := make(map[string][]models.FileEntry)
	for _, e := range entries {
		rel := e.Path[len(root):]
		i := strings.IndexByte(rel, '/')
		if i < 0 {
			n.Files = append(n.Files, e)
			continue
		}
		name := rel[:i]
		if _, ok := groups[name]; !ok {
			n.order = append(n.order, name)
		}
		groups[name] = append(groups[name], e)
	}

	for _, name := range n.order {
		n.Children[name] = c.buildNode(root+name+"/", groups[name], level+1)
	}
	return n
}

// Root returns the "/" node.
func (c *Catalog) Root() *Node { return c.root }

// Len returns the number of retained file entries.
func (c *Catalog) Len() int { return c.count }

// Depth returns the number of directory levels that hold files, which is
// the largest segment count among retained paths. An empty catalog has
// depth 0.
func (c *Catalog) Depth() int { return c.depth }

// Duplicates lists every path that appeared more than once, one element
// per extra occurrence.
func (c *Catalog) Duplicates() []string { return append([]string(nil), c.duplicates...) }

// Invalid lists dropped malformed paths.
func (c *Catalog) Invalid() []string { return append([]string(nil), c.invalid...) }

// Find returns the node whose Root equals root, or nil.
func (c *Catalog) Find(root string) *Node {
	if !strings.HasPrefix(root, RootPath) || !strings.HasSuffix(root, "/") {
		return nil
	}
	n := c.root
	rest := root[1:]
	for rest != "" {
		i := strings.IndexByte(rest, '/')
		n = n.Children[rest[:i]]
		if n == nil {
			return nil
		}
		rest = rest[i+1:]
	}
	return n
}

// Toggle flips n.Expanded and writes the new value through to the store.
// No other node changes. It returns the new state.
func (c *Catalog) Toggle(n *Node) bool {
	n.Expanded = !n.Expanded
	c.store.SetExpanded(n.Root, n.Expanded)
	return n.Expanded
}

// ToggleRoot toggles the node at root.
func (c *Catalog) ToggleRoot(root string) (*Node, error) {
	n := c.Find(root)
	if n == nil {
		return nil, fmt.Errorf("catalog: directory %q: %w", root, apperr.ErrNotFound)
	}
	c.Toggle(n)
	return n, nil
}

// RevealPath expands every node whose Root is a prefix of target, so the
// file at target becomes visible. The change is not persisted. Nodes off
// the ancestor chain are untouched, and a target outside the catalog
// expands nothing beyond the ancestors that do exist. It returns the roots
// on the chain.
func (c *Catalog) RevealPath(target string) []string {
	if !strings.HasPrefix(target, RootPath) {
		return nil
	}
	var chain []string
	n := c.root
	for n != nil {
		n.Expanded = true
		chain = append(chain, n.Root)
		rel := target[len(n.Root):]
		i := strings.IndexByte(rel, '/')
		if i < 0 {
			break
		}
		n = n.Children[rel[:i]]
	}
	return chain
}

// Flatten returns every retained entry, depth first: a node's files
// before its subdirectories, subdirectories in first-appearance order.
func (c *Catalog) Flatten() []models.FileEntry {
	out := make([]models.FileEntry, 0, c.count)
	c.Walk(func(n *Node, _ int) bool {
		out = append(out, n.Files...)
		return true
	})
	return out
}

// Walk visits nodes depth first in Flatten order, starting at the root
// with depth 0. Returning false from fn skips that node's children.
func (c *Catalog) Walk(fn func(n *Node, depth int) bool) {
	walk(c.root, 0, fn)
}

func walk(n *Node, depth int, fn func(*Node, int) bool) {
	if !fn(n, depth) {
		return
	}
	for _, name := range n.order {
		walk(n.Children[name], depth+1, fn)
	}
}

// rootOnly is the Expander used when Build gets none: only "/" is open
// and nothing is persisted.
type rootOnly struct{}

func (rootOnly) IsExpanded(root string) bool { return root == RootPath }
func (rootOnly) SetExpanded(string, bool)    {}
