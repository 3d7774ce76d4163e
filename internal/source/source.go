// Package source lists the content files a catalog is built from.
package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/starford/filecat/internal/checksum"
	"github.com/starford/filecat/internal/metadata"
	"github.com/starford/filecat/internal/models"
)

// Metadata keys set on listed entries.
const (
	MetaSize     = "size"
	MetaModified = "modified"
	MetaChecksum = "checksum"
	MetaTitle    = "title"
	MetaTags     = "tags"
)

// Source delivers the complete file list. Every call is a full
// replacement, never a delta.
type Source interface {
	List(ctx context.Context) ([]models.FileEntry, error)
}

// Option configures a Lister.
type Option func(*Lister)

// WithChecksums hashes every file into the "checksum" metadata key.
func WithChecksums(enabled bool) Option {
	return func(l *Lister) {
		l.checksums = enabled
	}
}

// WithTitles extracts "title" and "tags" metadata from documents.
func WithTitles(enabled bool) Option {
	return func(l *Lister) {
		if enabled {
			l.extractor = metadata.NewExtractor()
		} else {
			l.extractor = nil
		}
	}
}

// WithLogger sets the logger for unreadable files.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Lister) {
		l.logger = logger
	}
}

// Lister walks a billy filesystem. Paths are reported absolute and
// "/"-separated relative to the filesystem root.
type Lister struct {
	fs        billy.Filesystem
	checksums bool
	extractor *metadata.Extractor
	logger    *slog.Logger
}

// New creates a Lister over fs.
func New(fs billy.Filesystem, opts ...Option) *Lister {
	l := &Lister{fs: fs, logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewOS creates a Lister rooted at a local directory, which must exist.
func NewOS(root string, opts ...Option) (*Lister, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("source: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("source: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source: root is not a directory: %s", abs)
	}
	return New(osfs.New(abs), opts...), nil
}

// List walks the whole filesystem and returns one entry per regular file,
// in walk (lexical) order.
func (l *Lister) List(ctx context.Context) ([]models.FileEntry, error) {
	var out []models.FileEntry
	err := util.Walk(l.fs, "/", func(p string, info os.FileInfo, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() || !info.Mode().IsRegular() {
			return nil
		}
		rel := toSlash(p)
		entry := models.FileEntry{
			Path: rel,
			Metadata: map[string]any{
				MetaSize:     info.Size(),
				MetaModified: info.ModTime().UTC().Format(time.RFC3339),
			},
		}
		l.enrich(p, &entry)
		out = append(out, entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("source: list: %w", err)
	}
	return out, nil
}

// enrich adds checksum and title metadata when enabled. Only files the
// extractor understands are read whole; a checksum alone is streamed.
// Read failures are logged and leave the entry without those keys.
func (l *Lister) enrich(p string, entry *models.FileEntry) {
	wantTitle := l.extractor != nil && metadata.Supported(entry.Path)
	if !l.checksums && !wantTitle {
		return
	}
	f, err := l.fs.Open(p)
	if err != nil {
		l.warn(entry.Path, err)
		return
	}
	defer f.Close()

	if !wantTitle {
		sum, err := checksum.Reader(f)
		if err != nil {
			l.warn(entry.Path, err)
			return
		}
		entry.Metadata[MetaChecksum] = sum
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		l.warn(entry.Path, err)
		return
	}
	if l.checksums {
		entry.Metadata[MetaChecksum] = checksum.Sum(data)
	}
	info := l.extractor.Extract(entry.Path, data)
	if info.Title != "" {
		entry.Metadata[MetaTitle] = info.Title
	}
	if len(info.Tags) > 0 {
		entry.Metadata[MetaTags] = info.Tags
	}
}

func (l *Lister) warn(p string, err error) {
	l.logger.Warn("source: read failed", slog.String("path", p), slog.String("error", err.Error()))
}

// toSlash turns a walk path into an absolute catalog path.
func toSlash(p string) string {
	p = filepath.ToSlash(p)
	return path.Clean("/" + strings.TrimPrefix(p, "/"))
}

// Static is a Source over a fixed list, for tests and one-shot builds.
type Static []models.FileEntry

// List returns a copy of s.
func (s Static) List(context.Context) ([]models.FileEntry, error) {
	return append([]models.FileEntry(nil), s...), nil
}
