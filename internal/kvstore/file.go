package kvstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"
)

// File stores all arrays in one YAML document. Every operation holds an
// advisory lock on "<path>.lock" so several editor processes can share
// the file.
type File struct {
	path string
	lock *flock.Flock
}

// NewFile returns a File store at path. The file is created on first write.
func NewFile(path string) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("kvstore: resolve %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("kvstore: mkdir: %w", err)
	}
	return &File{path: abs, lock: flock.New(abs + ".lock")}, nil
}

// GetArray returns the array stored under name, or nil if there is none.
func (f *File) GetArray(name string) ([]string, error) {
	if err := f.lock.RLock(); err != nil {
		return nil, fmt.Errorf("kvstore: lock %s: %w", f.path, err)
	}
	defer f.lock.Unlock() //nolint:errcheck

	doc, err := f.read()
	if err != nil {
		return nil, err
	}
	return doc[name], nil
}

// SetArray replaces the array stored under name, leaving other names as
// they are.
func (f *File) SetArray(name string, values []string) error {
	if err := f.lock.Lock(); err != nil {
		return fmt.Errorf("kvstore: lock %s: %w", f.path, err)
	}
	defer f.lock.Unlock() //nolint:errcheck

	doc, err := f.read()
	if err != nil {
		return err
	}
	if values == nil {
		values = []string{}
	}
	doc[name] = values

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("kvstore: encode: %w", err)
	}
	return f.write(data)
}

func (f *File) read() (map[string][]string, error) {
	doc := make(map[string][]string)
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("kvstore: read %s: %w", f.path, err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("kvstore: decode %s: %w", f.path, err)
	}
	if doc == nil {
		doc = make(map[string][]string)
	}
	return doc, nil
}

// write replaces the file atomically: tmp file → fsync → rename.
func (f *File) write(data []byte) error {
	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".filecat-tmp-*")
	if err != nil {
		return fmt.Errorf("kvstore: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("kvstore: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("kvstore: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("kvstore: close temp: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("kvstore: rename: %w", err)
	}
	success = true
	return nil
}
