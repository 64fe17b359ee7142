package tasks

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/tidwall/gjson"

	"github.com/MD-Studio/studiobuild/internal/logging"
	"github.com/MD-Studio/studiobuild/internal/orchestrator"
)

// bowerLibDir is the directory under dist that receives package files
const bowerLibDir = "lib"

// installed package manifests, in lookup order
var packageManifests = []string{".bower.json", "bower.json"}

// BowerPackage is one installed dependency and its entry files
type BowerPackage struct {
	Name  string
	Dir   string
	Mains []string // Relative to Dir
}

// ReadBowerDependencies returns the dependency names declared in the app
// manifest, in declaration order.
func ReadBowerDependencies(fsys afero.Fs, manifest string) ([]string, error) {
	data, err := afero.ReadFile(fsys, manifest)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%s: invalid JSON", manifest)
	}

	var deps []string
	gjson.GetBytes(data, "dependencies").ForEach(func(key, _ gjson.Result) bool {
		deps = append(deps, key.String())
		return true
	})
	return deps, nil
}

// ReadBowerPackage reads the installed manifest of dependency name under
// bowerDir. The main field may be a single path or a list of paths.
func ReadBowerPackage(fsys afero.Fs, bowerDir, name string) (BowerPackage, error) {
	pkg := BowerPackage{Name: name, Dir: filepath.Join(bowerDir, name)}
	if err := requireDir(fsys, pkg.Dir); err != nil {
		return pkg, fmt.Errorf("bower package %s is not installed: %w", name, err)
	}

	for _, manifest := range packageManifests {
		data, err := afero.ReadFile(fsys, filepath.Join(pkg.Dir, manifest))
		if err != nil {
			continue
		}
		if !gjson.ValidBytes(data) {
			return pkg, fmt.Errorf("%s/%s: invalid JSON", name, manifest)
		}

		main := gjson.GetBytes(data, "main")
		if main.IsArray() {
			for _, m := range main.Array() {
				pkg.Mains = append(pkg.Mains, m.String())
			}
		} else if main.Exists() {
			pkg.Mains = append(pkg.Mains, main.String())
		}
		return pkg, nil
	}
	return pkg, nil
}

// NewBower returns the bower:dist action. The entry files of every declared
// dependency are copied to dist/lib/<dependency>/.
func NewBower(fsys afero.Fs, manifest, bowerDir, dist string, logger *logging.Logger) orchestrator.Action {
	return func(ctx context.Context) error {
		log := logger.WithTask(BowerDist)

		deps, err := ReadBowerDependencies(fsys, manifest)
		if err != nil {
			return err
		}

		for _, name := range deps {
			if err := ctx.Err(); err != nil {
				return err
			}

			pkg, err := ReadBowerPackage(fsys, bowerDir, name)
			if err != nil {
				return err
			}
			if len(pkg.Mains) == 0 {
				log.Warn("bower package declares no main files", "package", name)
				continue
			}

			for _, main := range pkg.Mains {
				src := filepath.Join(pkg.Dir, filepath.FromSlash(main))
				dst := filepath.Join(dist, bowerLibDir, name, filepath.Base(src))
				if err := copyFile(fsys, src, dst); err != nil {
					return fmt.Errorf("bower package %s: %w", name, err)
				}
			}
			log.Debug("copied bower package", "package", name, "files", len(pkg.Mains))
		}
		return nil
	}
}
