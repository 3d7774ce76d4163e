// Package render holds catalog consumers: types that present a catalog
// tree without owning it. Each consumer reads nodes and reacts to toggle
// and reveal events; none of them mutates the catalog.
package render

import (
	"sort"

	"github.com/starford/filecat/internal/catalog"
	"github.com/starford/filecat/internal/models"
)

// Consumer is the capability a catalog presenter implements.
type Consumer interface {
	Render(n *catalog.Node) error
	OnToggle(n *catalog.Node)
	OnReveal(path string)
}

// childNames returns n's subdirectory names, sorted when asked.
func childNames(n *catalog.Node, sorted bool) []string {
	names := n.ChildNames()
	if sorted {
		sort.Strings(names)
	}
	return names
}

// files returns n's files, sorted by name when asked.
func files(n *catalog.Node, sorted bool) []models.FileEntry {
	out := append([]models.FileEntry(nil), n.Files...)
	if sorted {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	}
	return out
}
