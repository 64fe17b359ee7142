package watch

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func TestNew_NonExistentRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), 10*time.Millisecond)
	if err == nil {
		t.Fatal("Expected error when watching a non-existent path")
	}
}

func TestNew_RootIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(file, 10*time.Millisecond); err == nil {
		t.Fatal("Expected error when root is a file")
	}
}

func TestNew_SkipsIgnoredDirs(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"app", "node_modules/pkg", ".git/objects"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			t.Fatal(err)
		}
	}

	w, err := New(root, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	dirs := w.WatchedDirs()
	if !slices.Contains(dirs, filepath.Join(root, "app")) {
		t.Errorf("WatchedDirs() = %v, want app included", dirs)
	}
	for _, d := range dirs {
		if filepath.Base(d) == "node_modules" || filepath.Base(d) == ".git" {
			t.Errorf("WatchedDirs() includes ignored dir %s", d)
		}
	}
}

func TestWatcher_DeliversDebouncedBatch(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "app"), 0755); err != nil {
		t.Fatal(err)
	}

	w, err := New(root, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	batches := make(chan []string, 10)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(files []string) { batches <- files })
	}()

	// Several writes inside the debounce window arrive as one batch
	for range 3 {
		if err := os.WriteFile(filepath.Join(root, "app", "main.ts"), []byte("let x = 1;"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "index.html"), []byte("<html>"), 0644); err != nil {
		t.Fatal(err)
	}

	var got []string
	deadline := time.After(3 * time.Second)
	for !slices.Contains(got, "app/main.ts") || !slices.Contains(got, "index.html") {
		select {
		case batch := <-batches:
			got = append(got, batch...)
		case <-deadline:
			t.Fatalf("timed out waiting for batch, got %v", got)
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil after cancel", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestWatcher_IgnoresIgnoredPaths(t *testing.T) {
	root := t.TempDir()

	w, err := New(root, 20*time.Millisecond, WithIgnore("tmp"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if !w.ignored(filepath.Join(root, "tmp", "x.ts")) {
		t.Error("ignored(tmp/x.ts) = false, want true")
	}
	if w.ignored(filepath.Join(root, "app", "x.ts")) {
		t.Error("ignored(app/x.ts) = true, want false")
	}
	w.Close()
	w.Close()
}
