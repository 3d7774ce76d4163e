package expansion

import (
	"errors"
	"io"
	"log/slog"
	"slices"
	"testing"

	"github.com/starford/filecat/internal/apperr"
)

type failingBackend struct {
	failGet bool
	failSet bool
	*Memory
}

var errDown = errors.New("backend down")

func (f *failingBackend) GetArray(name string) ([]string, error) {
	if f.failGet {
		return nil, errDown
	}
	return f.Memory.GetArray(name)
}

func (f *failingBackend) SetArray(name string, values []string) error {
	if f.failSet {
		return errDown
	}
	return f.Memory.SetArray(name, values)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRootAlwaysExpanded(t *testing.T) {
	mem := NewMemory()
	s := New(mem, WithLogger(quietLogger()))
	if !s.IsExpanded("/") {
		t.Error("root must be expanded")
	}
	s.SetExpanded("/", false)
	if !s.IsExpanded("/") {
		t.Error("root must stay expanded")
	}
	if mem.Writes() != 0 {
		t.Errorf("root changes must not be persisted, writes = %d", mem.Writes())
	}
}

func TestLoadsPersistedSet(t *testing.T) {
	mem := NewMemory()
	_ = mem.SetArray(StorageName, []string{"/content/", "/content/", "/", "/static/"})
	s := New(mem, WithLogger(quietLogger()))

	if !s.IsExpanded("/content/") || !s.IsExpanded("/static/") {
		t.Error("persisted roots should be expanded")
	}
	if s.IsExpanded("/other/") {
		t.Error("/other/ should not be expanded")
	}
	if got := s.Roots(); len(got) != 2 {
		t.Errorf("roots = %v, want duplicates and root collapsed", got)
	}
}

func TestSetExpandedIdempotent(t *testing.T) {
	mem := NewMemory()
	s := New(mem, WithLogger(quietLogger()))

	s.SetExpanded("/content/", true)
	s.SetExpanded("/content/", true)
	got, _ := mem.GetArray(StorageName)
	if len(got) != 1 || got[0] != "/content/" {
		t.Fatalf("persisted = %v, want [/content/]", got)
	}
	if mem.Writes() != 1 {
		t.Errorf("writes = %d, want 1 (second add is a no-op)", mem.Writes())
	}

	s.SetExpanded("/content/", false)
	s.SetExpanded("/content/", false)
	got, _ = mem.GetArray(StorageName)
	if len(got) != 0 {
		t.Fatalf("persisted = %v, want empty", got)
	}
	if mem.Writes() != 2 {
		t.Errorf("writes = %d, want 2", mem.Writes())
	}
}

func TestRemoveKeepsOrder(t *testing.T) {
	mem := NewMemory()
	s := New(mem, WithLogger(quietLogger()))
	for _, r := range []string{"/a/", "/b/", "/c/", "/d/"} {
		s.SetExpanded(r, true)
	}
	s.SetExpanded("/b/", false)
	s.SetExpanded("/e/", true)
	s.SetExpanded("/c/", false)

	want := []string{"/a/", "/d/", "/e/"}
	got, _ := mem.GetArray(StorageName)
	if len(got) != len(want) {
		t.Fatalf("persisted = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("persisted = %v, want %v", got, want)
		}
	}
	if !s.IsExpanded("/e/") || s.IsExpanded("/c/") {
		t.Error("index out of sync with roots")
	}
}

func TestWriteFailureDegradesToMemory(t *testing.T) {
	be := &failingBackend{Memory: NewMemory(), failSet: true}
	var reported []error
	s := New(be, WithLogger(quietLogger()), WithErrorHook(func(err error) {
		reported = append(reported, err)
	}))

	s.SetExpanded("/content/", true)
	if !s.IsExpanded("/content/") {
		t.Error("in-memory state must survive a failed write")
	}
	if !s.Degraded() {
		t.Error("store should report degraded")
	}
	if len(reported) != 1 || !errors.Is(reported[0], apperr.ErrPersistenceUnavailable) {
		t.Fatalf("reported = %v, want one ErrPersistenceUnavailable", reported)
	}

	// A refresh while degraded must not wipe the session state.
	s.Refresh()
	if !s.IsExpanded("/content/") {
		t.Error("refresh dropped in-memory state")
	}

	// Once the backend recovers the next refresh flushes.
	be.failSet = false
	s.Refresh()
	if s.Degraded() {
		t.Error("store should recover after a successful flush")
	}
	got, _ := be.Memory.GetArray(StorageName)
	if len(got) != 1 || got[0] != "/content/" {
		t.Errorf("persisted after recovery = %v", got)
	}
}

func TestReadFailureReported(t *testing.T) {
	be := &failingBackend{Memory: NewMemory(), failGet: true}
	var reported []error
	s := New(be, WithLogger(quietLogger()), WithErrorHook(func(err error) {
		reported = append(reported, err)
	}))
	if len(reported) != 1 || !errors.Is(reported[0], errDown) {
		t.Fatalf("reported = %v", reported)
	}
	if s.IsExpanded("/content/") {
		t.Error("nothing should be expanded after a failed load")
	}
	s.SetExpanded("/content/", true)
	if !s.IsExpanded("/content/") {
		t.Error("store should keep working in memory")
	}
}

func TestFailedLoadDoesNotOverwritePersistedSet(t *testing.T) {
	be := &failingBackend{Memory: NewMemory(), failGet: true}
	_ = be.Memory.SetArray(StorageName, []string{"/a/", "/b/"})
	s := New(be, WithLogger(quietLogger()))

	// The read recovers before the first toggle: merge, then write.
	be.failGet = false
	s.SetExpanded("/c/", true)

	got, _ := be.Memory.GetArray(StorageName)
	if want := []string{"/a/", "/b/", "/c/"}; !slices.Equal(got, want) {
		t.Errorf("persisted = %v, want %v", got, want)
	}
	if !s.IsExpanded("/a/") || !s.IsExpanded("/b/") {
		t.Error("merged roots should be expanded")
	}
}

func TestUnreadableBackendIsNeverOverwritten(t *testing.T) {
	be := &failingBackend{Memory: NewMemory(), failGet: true}
	_ = be.Memory.SetArray(StorageName, []string{"/a/", "/b/"})
	writes := be.Memory.Writes()
	s := New(be, WithLogger(quietLogger()))

	s.SetExpanded("/c/", true)
	s.SetExpanded("/b/", false)
	if be.Memory.Writes() != writes {
		t.Fatal("store wrote without having read the persisted set")
	}
	if !s.Degraded() {
		t.Error("store should report degraded while the backend is unreadable")
	}

	be.failGet = false
	s.Refresh()
	got, _ := be.Memory.GetArray(StorageName)
	if want := []string{"/a/", "/c/"}; !slices.Equal(got, want) {
		t.Errorf("persisted = %v, want %v", got, want)
	}
	if s.Degraded() {
		t.Error("store should recover once the merge is written")
	}
}
