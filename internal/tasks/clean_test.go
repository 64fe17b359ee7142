package tasks

import (
	"context"
	"testing"

	"github.com/spf13/afero"
)

func TestClean(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, map[string]string{
		"dist/index.html":  "<html>",
		"dist/app/main.js": "x",
		"src/index.html":   "<html>",
	})

	if err := NewClean(fsys, "dist")(context.Background()); err != nil {
		t.Fatalf("clean error = %v", err)
	}
	if exists(t, fsys, "dist") {
		t.Error("dist still exists after clean")
	}
	if !exists(t, fsys, "src/index.html") {
		t.Error("clean removed files outside dist")
	}
}

func TestClean_MissingDist(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := NewClean(fsys, "dist")(context.Background()); err != nil {
		t.Errorf("clean on missing dist error = %v, want nil", err)
	}
}
