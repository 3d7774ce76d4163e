// Package models defines the domain types for filecat.
package models

import "strings"

// FileEntry is one content file known to the catalog.
// Identity is Path; Metadata is opaque to the catalog.
type FileEntry struct {
	Path     string         `json:"path"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Name returns the final path segment.
func (e FileEntry) Name() string {
	return e.Path[strings.LastIndexByte(e.Path, '/')+1:]
}

// Stem returns Name without its last extension.
func (e FileEntry) Stem() string {
	name := e.Name()
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return name[:i]
	}
	return name
}

// Paths returns the path of every entry, in order.
func Paths(entries []FileEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path
	}
	return out
}
