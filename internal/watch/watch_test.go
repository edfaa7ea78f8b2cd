package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func expectEvent(t *testing.T, w *Watcher, want string) {
	t.Helper()
	select {
	case got := <-w.Events:
		if filepath.Base(got) != filepath.Base(want) {
			t.Errorf("expected event for %s, got %s", want, got)
		}
	case err := <-w.Errors:
		t.Fatalf("watch error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatalf("no event for %s", want)
	}
}

func expectQuiet(t *testing.T, w *Watcher) {
	t.Helper()
	select {
	case got := <-w.Events:
		t.Errorf("unexpected event for %s", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatchDirectory(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	notes := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(notes, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	expectQuiet(t, w)

	scene := filepath.Join(dir, "scene.yaml")
	if err := os.WriteFile(scene, []byte("frames: 10\n"), 0644); err != nil {
		t.Fatal(err)
	}
	expectEvent(t, w, scene)
}

func TestWatchFile(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "scene.tengo")
	other := filepath.Join(dir, "other.tengo")
	for _, p := range []string{script, other} {
		if err := os.WriteFile(p, []byte("x := 1\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	w, err := New(script)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := os.WriteFile(other, []byte("x := 2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	expectQuiet(t, w)

	if err := os.WriteFile(script, []byte("x := 3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	expectEvent(t, w, script)
}

func TestWatchMissingPath(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for a missing path")
	}
}

func TestCloseTwice(t *testing.T) {
	w, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
	if _, ok := <-w.Events; ok {
		t.Error("events should be closed")
	}
}

func TestIsSceneFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"a.yaml", true},
		{"a.YML", true},
		{"a.tengo", true},
		{"a.lua", false},
		{"a", false},
	}
	for _, tt := range tests {
		if got := IsSceneFile(tt.path); got != tt.want {
			t.Errorf("IsSceneFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
