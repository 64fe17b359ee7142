package tasks

import (
	"context"

	"github.com/spf13/afero"

	"github.com/MD-Studio/studiobuild/internal/orchestrator"
)

// NewClean returns the clean action, which removes dist and everything in it.
// A missing dist is not an error.
func NewClean(fsys afero.Fs, dist string) orchestrator.Action {
	return func(ctx context.Context) error {
		return fsys.RemoveAll(dist)
	}
}
