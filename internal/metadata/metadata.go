// Package metadata extracts display metadata (title, tags) from content
// files so catalog consumers can label entries without loading them.
package metadata

import (
	"bytes"
	"html"
	"path"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

var htmlTitleRe = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

// titleKeys are checked in order; "$title" is the Grow document convention.
var titleKeys = []string{"$title", "title"}

// Info is what Extract found. Zero values mean "not present".
type Info struct {
	Title string
	Tags  []string
}

// Extractor parses content by file extension.
type Extractor struct {
	markdown goldmark.Markdown
}

// NewExtractor returns an Extractor with a default goldmark parser.
func NewExtractor() *Extractor {
	return &Extractor{markdown: goldmark.New()}
}

// Supported reports whether Extract understands the extension of p.
func Supported(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".yaml", ".yml", ".md", ".markdown", ".html", ".htm":
		return true
	}
	return false
}

// Extract returns the metadata of the file at p. Unknown extensions and
// malformed documents yield an empty Info.
func (x *Extractor) Extract(p string, data []byte) Info {
	switch strings.ToLower(path.Ext(p)) {
	case ".yaml", ".yml":
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return Info{}
		}
		return fromFields(doc)
	case ".md", ".markdown":
		return x.fromMarkdown(data)
	case ".html", ".htm":
		if m := htmlTitleRe.FindSubmatch(data); m != nil {
			return Info{Title: strings.TrimSpace(html.UnescapeString(string(m[1])))}
		}
	}
	return Info{}
}

func (x *Extractor) fromMarkdown(data []byte) Info {
	fm, body := splitFrontmatter(data)
	info := fromFields(fm)
	if info.Title == "" {
		info.Title = x.firstHeading(body)
	}
	return info
}

// firstHeading returns the text of the first level-1 heading.
func (x *Extractor) firstHeading(body []byte) string {
	doc := x.markdown.Parser().Parse(text.NewReader(body))
	var title string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok || h.Level != 1 {
			return ast.WalkContinue, nil
		}
		var buf bytes.Buffer
		lines := h.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(body))
		}
		title = strings.TrimSpace(buf.String())
		return ast.WalkStop, nil
	})
	return title
}

func fromFields(fm map[string]any) Info {
	var info Info
	for _, k := range titleKeys {
		if s, ok := fm[k].(string); ok && strings.TrimSpace(s) != "" {
			info.Title = strings.TrimSpace(s)
			break
		}
	}
	if raw, ok := fm["tags"].([]any); ok {
		seen := make(map[string]struct{}, len(raw))
		for _, item := range raw {
			s, ok := item.(string)
			if !ok {
				continue
			}
			s = strings.TrimSpace(s)
			if _, dup := seen[s]; s == "" || dup {
				continue
			}
			seen[s] = struct{}{}
			info.Tags = append(info.Tags, s)
		}
	}
	return info
}

// splitFrontmatter separates YAML frontmatter (between leading ---
// delimiters) from the Markdown body. Invalid YAML is treated as body.
func splitFrontmatter(data []byte) (map[string]any, []byte) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, data
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, data
	}

	var fm map[string]any
	if err := yaml.Unmarshal(rest[:idx], &fm); err != nil {
		return nil, data
	}
	body := bytes.TrimLeft(rest[idx+1+len(delim):], "\n\r")
	return fm, body
}
