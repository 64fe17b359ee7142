package tasks

import (
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"github.com/MD-Studio/studiobuild/internal/orchestrator"
)

// Injection markers in the index page
const (
	markerJS  = "<!-- inject:js -->"
	markerCSS = "<!-- inject:css -->"
	markerEnd = "<!-- endinject -->"
)

// NewInject returns the inject action. It rewrites dist/index so the
// inject:js block references every script in dist and the inject:css block
// every stylesheet.
func NewInject(fsys afero.Fs, dist, index string) orchestrator.Action {
	return func(ctx context.Context) error {
		indexPath := filepath.Join(dist, index)
		data, err := afero.ReadFile(fsys, indexPath)
		if err != nil {
			return fmt.Errorf("reading index: %w", err)
		}

		scripts, styles, err := collectAssets(fsys, dist)
		if err != nil {
			return err
		}

		page := string(data)
		page = InjectBlock(page, markerJS, scriptTags(scripts))
		page = InjectBlock(page, markerCSS, styleTags(styles))
		if page == string(data) {
			return nil
		}
		return afero.WriteFile(fsys, indexPath, []byte(page), 0644)
	}
}

// collectAssets returns the .js and .css files under dist as slash-separated
// paths relative to dist, in injection order.
func collectAssets(fsys afero.Fs, dist string) (scripts, styles []string, err error) {
	err = afero.Walk(fsys, dist, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dist, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		switch filepath.Ext(rel) {
		case ".js":
			scripts = append(scripts, rel)
		case ".css":
			styles = append(styles, rel)
		}
		return nil
	})
	SortAssets(scripts)
	SortAssets(styles)
	return scripts, styles, err
}

// SortAssets orders paths with library files (under lib/) first, then
// lexicographically, so dependencies load before the app.
func SortAssets(paths []string) {
	slices.SortFunc(paths, func(a, b string) int {
		aLib := strings.HasPrefix(a, bowerLibDir+"/")
		bLib := strings.HasPrefix(b, bowerLibDir+"/")
		if aLib != bLib {
			if aLib {
				return -1
			}
			return 1
		}
		return strings.Compare(a, b)
	})
}

func scriptTags(paths []string) []string {
	tags := make([]string, len(paths))
	for i, p := range paths {
		tags[i] = fmt.Sprintf(`<script src="%s"></script>`, html.EscapeString(p))
	}
	return tags
}

func styleTags(paths []string) []string {
	tags := make([]string, len(paths))
	for i, p := range paths {
		tags[i] = fmt.Sprintf(`<link rel="stylesheet" href="%s">`, html.EscapeString(p))
	}
	return tags
}

// InjectBlock replaces whatever sits between marker and the next end marker
// with lines, one per line at the marker's indentation. The page is returned
// unchanged when either marker is missing.
func InjectBlock(page, marker string, lines []string) string {
	start := strings.Index(page, marker)
	if start < 0 {
		return page
	}
	bodyStart := start + len(marker)
	end := strings.Index(page[bodyStart:], markerEnd)
	if end < 0 {
		return page
	}
	end += bodyStart

	lineStart := strings.LastIndex(page[:start], "\n") + 1
	indent := page[lineStart:start]
	if strings.TrimSpace(indent) != "" {
		indent = ""
	}

	var sb strings.Builder
	sb.WriteString(page[:bodyStart])
	sb.WriteString("\n")
	for _, line := range lines {
		sb.WriteString(indent)
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString(indent)
	sb.WriteString(page[end:])
	return sb.String()
}
