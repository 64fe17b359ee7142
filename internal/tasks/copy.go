package tasks

import (
	"context"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
	"github.com/spf13/afero"

	"github.com/MD-Studio/studiobuild/internal/errors"
	"github.com/MD-Studio/studiobuild/internal/orchestrator"
)

// Matcher matches slash-separated relative paths against a set of globs.
type Matcher struct {
	globs []glob.Glob
}

// NewMatcher compiles patterns with '/' as the separator, so * stays within
// one path segment and ** spans segments.
func NewMatcher(patterns ...string) (*Matcher, error) {
	m := &Matcher{globs: make([]glob.Glob, 0, len(patterns))}
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, errors.NewValidationError("invalid glob pattern").WithField("pattern").WithValue(p).WithCause(err)
		}
		m.globs = append(m.globs, g)
	}
	return m, nil
}

// Match reports whether rel matches any pattern.
func (m *Matcher) Match(rel string) bool {
	for _, g := range m.globs {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// NewCopy returns the copy:dist action. Every file under src whose relative
// path matches one of patterns is copied to the same relative path in dist.
func NewCopy(fsys afero.Fs, src, dist string, patterns []string) orchestrator.Action {
	return func(ctx context.Context) error {
		matcher, err := NewMatcher(patterns...)
		if err != nil {
			return err
		}
		if err := requireDir(fsys, src); err != nil {
			return err
		}

		return afero.Walk(fsys, src, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}

			rel, err := filepath.Rel(src, p)
			if err != nil {
				return err
			}
			if !matcher.Match(filepath.ToSlash(rel)) {
				return nil
			}
			return copyFile(fsys, p, filepath.Join(dist, rel))
		})
	}
}
