// Package testutil provides shared test helpers for content trees,
// expansion state and workspace services.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/filecat/internal/expansion"
	"github.com/starford/filecat/internal/models"
	"github.com/starford/filecat/internal/source"
	"github.com/starford/filecat/internal/workspace"
)

// SitePaths is a small site: pages, strings, partials, static assets and
// a layout.
var SitePaths = []string{
	"/content/pages/index.yaml",
	"/content/pages/about.yaml",
	"/content/pages/sub/page.yaml",
	"/content/strings/about.yaml",
	"/content/_partials/nav.yaml",
	"/static/img/a.png",
	"/static/img/b.png",
	"/static/_draft.png",
	"/views/base.html",
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Entries wraps paths as metadata-free entries.
func Entries(paths ...string) []models.FileEntry {
	out := make([]models.FileEntry, len(paths))
	for i, p := range paths {
		out[i] = models.FileEntry{Path: p}
	}
	return out
}

// TestContent writes files (slash paths relative to the root) into a
// temporary directory and returns it.
func TestContent(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// TestService returns a rebuilt service over paths with in-memory
// expansion state and the site filter.
func TestService(t *testing.T, paths ...string) (*workspace.Service, *expansion.Memory) {
	t.Helper()
	mem := expansion.NewMemory()
	state := expansion.New(mem, expansion.WithLogger(Logger()))
	svc := workspace.NewService(source.Static(Entries(paths...)), state, nil, workspace.WithLogger(Logger()))
	if err := svc.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}
	return svc, mem
}
