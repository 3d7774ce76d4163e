package render

import (
	"github.com/starford/filecat/internal/catalog"
	"github.com/starford/filecat/internal/models"
)

// FileView is one file in a DirectoryView.
type FileView struct {
	Path     string         `json:"path"`
	Name     string         `json:"name"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Selected bool           `json:"selected,omitempty"`
}

// DirectoryView is a JSON-friendly copy of a catalog node.
type DirectoryView struct {
	Root        string          `json:"root"`
	Name        string          `json:"name"`
	Expanded    bool            `json:"expanded"`
	Files       []FileView      `json:"files"`
	Directories []DirectoryView `json:"directories"`
}

// Tree builds DirectoryViews. The zero value keeps catalog order.
type Tree struct {
	Sorted bool

	selected string
	last     *DirectoryView
}

var _ Consumer = (*Tree)(nil)

// Render snapshots n into Last.
func (t *Tree) Render(n *catalog.Node) error {
	v := t.View(n)
	t.last = &v
	return nil
}

// Last returns the most recent Render result, or nil.
func (t *Tree) Last() *DirectoryView { return t.last }

// OnToggle is a no-op: views are rebuilt on the next Render.
func (t *Tree) OnToggle(*catalog.Node) {}

// OnReveal marks path as the selected file.
func (t *Tree) OnReveal(path string) { t.selected = path }

// View converts n and its whole subtree. Collapsed directories still carry
// their contents so clients can expand without a round trip.
func (t *Tree) View(n *catalog.Node) DirectoryView {
	v := DirectoryView{
		Root:        n.Root,
		Name:        n.Base(),
		Expanded:    n.Expanded,
		Files:       make([]FileView, 0, len(n.Files)),
		Directories: make([]DirectoryView, 0, len(n.Children)),
	}
	for _, f := range files(n, t.Sorted) {
		v.Files = append(v.Files, t.file(f))
	}
	for _, name := range childNames(n, t.Sorted) {
		v.Directories = append(v.Directories, t.View(n.Child(name)))
	}
	return v
}

func (t *Tree) file(f models.FileEntry) FileView {
	return FileView{
		Path:     f.Path,
		Name:     f.Name(),
		Metadata: f.Metadata,
		Selected: t.selected != "" && f.Path == t.selected,
	}
}
