package source

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/starford/filecat/internal/checksum"
	"github.com/starford/filecat/internal/models"
)

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestListMemFS(t *testing.T) {
	fs := memfs.New()
	files := map[string]string{
		"/content/pages/index.yaml": "$title: Home\n",
		"/content/pages/about.md":   "# About us\n",
		"/static/img/a.png":         "png",
		"/podspec.yaml":             "root: true\n",
	}
	for p, body := range files {
		if err := util.WriteFile(fs, p, []byte(body), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	l := New(fs, WithChecksums(true), WithTitles(true), quiet())
	got, err := l.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	paths := models.Paths(got)
	slices.Sort(paths)
	want := []string{
		"/content/pages/about.md",
		"/content/pages/index.yaml",
		"/podspec.yaml",
		"/static/img/a.png",
	}
	if !slices.Equal(paths, want) {
		t.Fatalf("paths = %v, want %v", paths, want)
	}

	byPath := map[string]models.FileEntry{}
	for _, e := range got {
		byPath[e.Path] = e
	}
	if title := byPath["/content/pages/index.yaml"].Metadata[MetaTitle]; title != "Home" {
		t.Errorf("yaml title = %v", title)
	}
	if title := byPath["/content/pages/about.md"].Metadata[MetaTitle]; title != "About us" {
		t.Errorf("md title = %v", title)
	}
	if cs := byPath["/static/img/a.png"].Metadata[MetaChecksum]; cs != checksum.Sum([]byte("png")) {
		t.Errorf("checksum = %v", cs)
	}
	if size := byPath["/static/img/a.png"].Metadata[MetaSize]; size != int64(3) {
		t.Errorf("size = %v", size)
	}
	if _, ok := byPath["/static/img/a.png"].Metadata[MetaTitle]; ok {
		t.Error("png should have no title")
	}
}

func TestListWithoutEnrichment(t *testing.T) {
	fs := memfs.New()
	_ = util.WriteFile(fs, "/a.md", []byte("# A"), 0o644)
	got, err := New(fs, quiet()).List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d entries", len(got))
	}
	if _, ok := got[0].Metadata[MetaChecksum]; ok {
		t.Error("checksum should be off by default")
	}
	if _, ok := got[0].Metadata[MetaTitle]; ok {
		t.Error("titles should be off by default")
	}
}

func TestListCancelled(t *testing.T) {
	fs := memfs.New()
	_ = util.WriteFile(fs, "/a.md", []byte("a"), 0o644)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(fs, quiet()).List(ctx); err == nil {
		t.Error("expected error from cancelled context")
	}
}

func TestNewOS(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "content", "pages"), 0o755); err != nil {
		t.Fatal(err)
	}
	_ = os.WriteFile(filepath.Join(dir, "content", "pages", "index.yaml"), []byte("title: x\n"), 0o644)

	l, err := NewOS(dir, quiet())
	if err != nil {
		t.Fatalf("NewOS: %v", err)
	}
	got, err := l.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if paths := models.Paths(got); !slices.Equal(paths, []string{"/content/pages/index.yaml"}) {
		t.Errorf("paths = %v", paths)
	}
}

func TestNewOS_NonExistentDir(t *testing.T) {
	if _, err := NewOS("/tmp/filecat-does-not-exist-" + t.Name()); err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewOS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "filecat-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	if _, err := NewOS(f.Name()); err == nil {
		t.Error("expected error when root is a file")
	}
}

func TestStatic(t *testing.T) {
	s := Static{{Path: "/a.md"}}
	got, _ := s.List(context.Background())
	got[0].Path = "/changed.md"
	if s[0].Path != "/a.md" {
		t.Error("Static.List should return a copy")
	}
}
