package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/starford/filecat/internal/catalog"
)

// Text draws the visible part of a catalog as an indented terminal tree.
// Collapsed directories are listed without their contents.
type Text struct {
	w      io.Writer
	sorted bool

	dir      *color.Color
	file     *color.Color
	selected *color.Color
	marker   *color.Color

	current string
}

var _ Consumer = (*Text)(nil)

// NewText returns a Text renderer writing to w. Colour is enabled only
// when w is a terminal.
func NewText(w io.Writer, sorted bool) *Text {
	t := &Text{
		w:        w,
		sorted:   sorted,
		dir:      color.New(color.FgCyan, color.Bold),
		file:     color.New(color.FgWhite),
		selected: color.New(color.FgGreen, color.Bold),
		marker:   color.New(color.FgYellow),
	}
	if !isTerminal(w) {
		for _, c := range []*color.Color{t.dir, t.file, t.selected, t.marker} {
			c.DisableColor()
		}
	}
	return t
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Render writes n's visible subtree.
func (t *Text) Render(n *catalog.Node) error {
	if !n.Expanded {
		return nil
	}
	return t.render(n, 0)
}

func (t *Text) render(n *catalog.Node, depth int) error {
	indent := strings.Repeat("  ", depth)
	for _, name := range childNames(n, t.sorted) {
		child := n.Child(name)
		mark := "▸"
		if child.Expanded {
			mark = "▾"
		}
		if _, err := fmt.Fprintf(t.w, "%s%s %s\n", indent, t.marker.Sprint(mark), t.dir.Sprint(name+"/")); err != nil {
			return err
		}
		if child.Expanded {
			if err := t.render(child, depth+1); err != nil {
				return err
			}
		}
	}
	for _, f := range files(n, t.sorted) {
		c := t.file
		if f.Path == t.current {
			c = t.selected
		}
		if _, err := fmt.Fprintf(t.w, "%s  %s\n", indent, c.Sprint(f.Name())); err != nil {
			return err
		}
	}
	return nil
}

// OnToggle reports the new state of n.
func (t *Text) OnToggle(n *catalog.Node) {
	state := "collapsed"
	if n.Expanded {
		state = "expanded"
	}
	fmt.Fprintf(t.w, "%s %s\n", t.dir.Sprint(n.Root), state)
}

// OnReveal highlights path on the next Render.
func (t *Text) OnReveal(path string) { t.current = path }
