package metadata

import (
	"testing"
)

func TestExtract_YAML(t *testing.T) {
	x := NewExtractor()
	info := x.Extract("/content/pages/index.yaml", []byte("$title: Home\ntags:\n  - landing\n  - landing\n  - main\nbody: text\n"))
	if info.Title != "Home" {
		t.Errorf("title = %q, want Home", info.Title)
	}
	if len(info.Tags) != 2 || info.Tags[0] != "landing" || info.Tags[1] != "main" {
		t.Errorf("tags = %v, want [landing main]", info.Tags)
	}
}

func TestExtract_YAMLPlainTitle(t *testing.T) {
	info := NewExtractor().Extract("/a.yml", []byte("title: About\n"))
	if info.Title != "About" {
		t.Errorf("title = %q", info.Title)
	}
}

func TestExtract_InvalidYAML(t *testing.T) {
	info := NewExtractor().Extract("/a.yaml", []byte(": : {{{"))
	if info.Title != "" || info.Tags != nil {
		t.Errorf("info = %+v, want empty", info)
	}
}

func TestExtract_MarkdownFrontmatter(t *testing.T) {
	input := []byte("---\ntitle: Hello\ntags:\n  - go\n---\n# Ignored\nBody text.\n")
	info := NewExtractor().Extract("/docs/hello.md", input)
	if info.Title != "Hello" {
		t.Errorf("title = %q, want Hello", info.Title)
	}
	if len(info.Tags) != 1 || info.Tags[0] != "go" {
		t.Errorf("tags = %v", info.Tags)
	}
}

func TestExtract_MarkdownHeading(t *testing.T) {
	input := []byte("Intro paragraph.\n\n## Sub\n\n# Just a heading\nSome text.\n")
	info := NewExtractor().Extract("/docs/x.md", input)
	if info.Title != "Just a heading" {
		t.Errorf("title = %q, want %q", info.Title, "Just a heading")
	}
}

func TestExtract_MarkdownInvalidFrontmatter(t *testing.T) {
	input := []byte("---\n: invalid: yaml: {{{\n---\n# Body\n")
	info := NewExtractor().Extract("/x.md", input)
	if info.Title != "Body" {
		t.Errorf("title = %q, want Body", info.Title)
	}
}

func TestExtract_HTML(t *testing.T) {
	input := []byte("<html><head><TITLE> Tom &amp; Jerry </TITLE></head></html>")
	info := NewExtractor().Extract("/views/base.html", input)
	if info.Title != "Tom & Jerry" {
		t.Errorf("title = %q", info.Title)
	}
}

func TestExtract_Unknown(t *testing.T) {
	info := NewExtractor().Extract("/static/a.png", []byte("\x89PNG"))
	if info.Title != "" {
		t.Errorf("title = %q", info.Title)
	}
}

func TestSupported(t *testing.T) {
	for p, want := range map[string]bool{
		"/a.yaml":       true,
		"/a.YML":        true,
		"/a.md":         true,
		"/views/a.htm":  true,
		"/static/a.png": false,
		"/Makefile":     false,
	} {
		if got := Supported(p); got != want {
			t.Errorf("Supported(%q) = %v, want %v", p, got, want)
		}
	}
}
