package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// recorder collects callback paths under a lock.
type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) record(path string) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func TestWatcher_AddRemoveDirectories(t *testing.T) {
	dir := t.TempDir()
	w := New(nil, []string{".txt"}, true, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := w.AddDirectory(dir, false); err != nil {
		t.Fatal(err)
	}
	// Adding the same root twice is a no-op.
	if err := w.AddDirectory(dir, false); err != nil {
		t.Fatal(err)
	}
	dirs := w.Directories()
	if len(dirs) != 1 || filepath.Clean(dirs[0]) != filepath.Clean(dir) {
		t.Errorf("Directories() = %v", dirs)
	}

	if err := w.RemoveDirectory(dir); err != nil {
		t.Fatal(err)
	}
	if len(w.Directories()) != 0 {
		t.Errorf("after remove: %v", w.Directories())
	}
	// Removing an unknown root is a no-op too.
	if err := w.RemoveDirectory(dir); err != nil {
		t.Fatal(err)
	}
}

func TestWatcher_IngestsDebouncedWrites(t *testing.T) {
	dir := t.TempDir()
	var ingested recorder
	w := New([]string{dir}, []string{".txt"}, true, ingested.record, nil, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "note.txt")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "skip.xyz"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(3 * time.Second)
	for {
		got := ingested.snapshot()
		if len(got) >= 1 {
			for _, p := range got {
				if !strings.HasSuffix(p, "note.txt") {
					t.Errorf("unexpected ingest %q", p)
				}
			}
			return
		}
		select {
		case <-deadline:
			t.Fatalf("no ingest callback, got %v", got)
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestWatcher_RemoveCallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone.txt")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	var removed recorder
	w := New([]string{dir}, []string{".txt"}, true, nil, removed.record, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	deadline := time.After(3 * time.Second)
	for {
		if got := removed.snapshot(); len(got) >= 1 {
			if !strings.HasSuffix(got[0], "gone.txt") {
				t.Errorf("removed=%v", got)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("no remove callback")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestWatcher_ExtensionFilter(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/a/b.txt", []string{".txt"}, true},
		{"/a/b.TXT", []string{".txt"}, true},
		{"/a/b.md", []string{"md"}, true},
		{"/a/b.md", []string{".txt"}, false},
		{"/a/b", nil, true},
		{"/a/b", []string{}, true},
	}
	for _, tt := range tests {
		w := New(nil, tt.extensions, true, nil, nil)
		if got := w.wanted(tt.path); got != tt.want {
			t.Errorf("wanted(%q) with %v = %v, want %v", tt.path, tt.extensions, got, tt.want)
		}
	}
}

func TestInDir(t *testing.T) {
	tests := []struct {
		dir  string
		path string
		want bool
	}{
		{"/tmp/a", "/tmp/a", true},
		{"/tmp/a", "/tmp/a/b.txt", true},
		{"/tmp/a", "/tmp/b", false},
		{"/tmp/a", "/tmp/a/../b", false},
	}
	for _, tt := range tests {
		if got := inDir(tt.dir, tt.path); got != tt.want {
			t.Errorf("inDir(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
		}
	}
}

func TestWatcher_SyncExisting(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ignore.xyz"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	var ingested recorder
	w := New([]string{dir}, []string{".txt"}, true, ingested.record, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	w.SyncExisting()

	got := ingested.snapshot()
	if len(got) != 1 || !strings.HasSuffix(got[0], "a.txt") {
		t.Errorf("expected one ingest of a.txt, got %v", got)
	}
}

func TestWatcher_StartCreatesMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "drop", "here")
	w := New([]string{root}, []string{".txt"}, true, nil, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if _, err := os.Stat(root); err != nil {
		t.Errorf("root should exist after Start: %v", err)
	}
}

func TestWatcher_AdoptsNewDirectory(t *testing.T) {
	dir := t.TempDir()
	var ingested recorder
	w := New([]string{dir}, []string{".txt"}, true, ingested.record, nil, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	sub := filepath.Join(dir, "incoming")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	// Give the event loop a moment to adopt the directory before writing.
	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(sub, "b.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(3 * time.Second)
	for {
		got := ingested.snapshot()
		for _, p := range got {
			if strings.HasSuffix(p, "b.txt") {
				return
			}
		}
		select {
		case <-deadline:
			t.Fatalf("file in adopted directory not ingested, got %v", got)
		case <-time.After(20 * time.Millisecond):
		}
	}
}
