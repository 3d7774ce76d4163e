package catalog

import (
	"fmt"
	"strings"

	"github.com/starford/filecat/internal/apperr"
	"github.com/starford/filecat/internal/models"
)

// RootPath is the root of every catalog.
const RootPath = "/"

// Node is one directory: its immediate files and named subdirectories.
// Root always ends in "/". Children keys are single path segments.
type Node struct {
	Root     string
	Files    []models.FileEntry
	Children map[string]*Node
	Expanded bool

	order []string
}

// Base returns the directory's own name, or "" for the root.
func (n *Node) Base() string {
	trimmed := strings.TrimSuffix(n.Root, "/")
	return trimmed[strings.LastIndexByte(trimmed, '/')+1:]
}

// ChildNames returns subdirectory names in first-appearance order.
func (n *Node) ChildNames() []string {
	return append([]string(nil), n.order...)
}

// Child returns the named subdirectory, or nil.
func (n *Node) Child(name string) *Node {
	return n.Children[name]
}

// ValidatePath checks that p is an absolute, "/"-separated file path with
// no trailing slash and no empty segment.
func ValidatePath(p string) error {
	switch {
	case p == "" || p[0] != '/':
		return fmt.Errorf("%w: %q is not absolute", apperr.ErrInvalidPath, p)
	case p == RootPath || strings.HasSuffix(p, "/"):
		return fmt.Errorf("%w: %q names a directory", apperr.ErrInvalidPath, p)
	case strings.Contains(p, "//"):
		return fmt.Errorf("%w: %q has an empty segment", apperr.ErrInvalidPath, p)
	}
	return nil
}
