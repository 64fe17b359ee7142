package tasks

import (
	"context"
	"sync"
	"testing"

	"github.com/spf13/afero"
)

// fakeRunner records tool invocations instead of running them
type fakeRunner struct {
	mu     sync.Mutex
	calls  [][]string
	output []byte
	err    error
	onRun  func(name string, args []string)
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string{name}, args...))
	r.mu.Unlock()
	if r.onRun != nil {
		r.onRun(name, args)
	}
	return r.output, r.err
}

func (r *fakeRunner) Calls() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.calls...)
}

// writeFiles populates fsys with the given path -> content pairs
func writeFiles(t *testing.T, fsys afero.Fs, files map[string]string) {
	t.Helper()
	for path, content := range files {
		if err := afero.WriteFile(fsys, path, []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile(%s) error = %v", path, err)
		}
	}
}

func readFile(t *testing.T, fsys afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		t.Fatalf("ReadFile(%s) error = %v", path, err)
	}
	return string(data)
}

func exists(t *testing.T, fsys afero.Fs, path string) bool {
	t.Helper()
	ok, err := afero.Exists(fsys, path)
	if err != nil {
		t.Fatalf("Exists(%s) error = %v", path, err)
	}
	return ok
}
