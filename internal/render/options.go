package render

import (
	"strings"

	"github.com/starford/filecat/internal/catalog"
	"github.com/starford/filecat/internal/models"
)

// Option is one selectable item of a reference field.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Options flattens a catalog into the item list of a document-reference
// field. It applies its own filter on top of the catalog's, so one catalog
// can back fields with different accepted file sets.
type Options struct {
	Filter catalog.Matcher
	Query  string
	Limit  int

	items    []Option
	selected string
}

var _ Consumer = (*Options)(nil)

// Render rebuilds Items from n's subtree.
func (o *Options) Render(n *catalog.Node) error {
	o.items = o.items[:0]
	q := strings.ToLower(o.Query)
	var visit func(*catalog.Node) bool
	visit = func(n *catalog.Node) bool {
		for _, f := range n.Files {
			if !o.accept(f, q) {
				continue
			}
			o.items = append(o.items, Option{Label: f.Path, Value: f.Path})
			if o.Limit > 0 && len(o.items) >= o.Limit {
				return false
			}
		}
		for _, name := range n.ChildNames() {
			if !visit(n.Child(name)) {
				return false
			}
		}
		return true
	}
	visit(n)
	return nil
}

func (o *Options) accept(f models.FileEntry, q string) bool {
	if o.Filter != nil && !o.Filter.Matches(f.Path) {
		return false
	}
	return q == "" || strings.Contains(strings.ToLower(f.Path), q)
}

// Items returns the options from the last Render.
func (o *Options) Items() []Option {
	return append([]Option{}, o.items...)
}

// OnToggle is a no-op: a flat list has no directories.
func (o *Options) OnToggle(*catalog.Node) {}

// OnReveal records path as the field's current value.
func (o *Options) OnReveal(path string) { o.selected = path }

// Selected returns the last revealed path.
func (o *Options) Selected() string { return o.selected }

// Valid reports whether value is one of the current items.
func (o *Options) Valid(value string) bool {
	for _, it := range o.items {
		if it.Value == value {
			return true
		}
	}
	return false
}
