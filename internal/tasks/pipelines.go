package tasks

import (
	"slices"

	"github.com/MD-Studio/studiobuild/internal/errors"
	"github.com/MD-Studio/studiobuild/internal/orchestrator"
)

// CompileSequence returns the compile pipeline: clean, build every asset
// kind concurrently, then inject references into the index page.
func CompileSequence() orchestrator.Sequence {
	return orchestrator.Sequence{
		orchestrator.Single(Clean),
		orchestrator.Group(CopyDist, TSDist, SassDist, BowerDist),
		orchestrator.Single(Inject),
	}
}

// BuildSequence returns the build pipeline: compile, then start the dev server.
func BuildSequence() orchestrator.Sequence {
	return append(CompileSequence(), orchestrator.Single(ServerInit))
}

// ServeSequence returns the serve pipeline: build, then watch for changes.
func ServeSequence() orchestrator.Sequence {
	return orchestrator.Sequence{
		orchestrator.Single(BuildName),
		orchestrator.Single(Watch),
	}
}

// Composites returns the built-in composite tasks by name.
func Composites() map[string]orchestrator.Sequence {
	return map[string]orchestrator.Sequence{
		CompileName: CompileSequence(),
		BuildName:   BuildSequence(),
		ServeName:   ServeSequence(),
	}
}

// Register registers every leaf task, the built-in composites, and the
// pipelines from deps.Config with o.
func Register(o *orchestrator.Orchestrator, deps Deps) error {
	if deps.Config == nil {
		return errors.NewValidationError("tasks need a configuration").WithField("config")
	}
	deps.fillDefaults()
	cfg := deps.Config
	paths := cfg.Paths

	leaves := []struct {
		name   string
		action orchestrator.Action
	}{
		{Clean, NewClean(deps.Fs, paths.Dist)},
		{CopyDist, NewCopy(deps.Fs, paths.Src, paths.Dist, cfg.Copy.Patterns)},
		{TSDist, NewTypeScript(deps.Runner, cfg.TypeScript, paths.Dist, deps.Logger)},
		{SassDist, NewSass(deps.Runner, cfg.Sass, paths.Src, paths.Dist, deps.Logger)},
		{BowerDist, NewBower(deps.Fs, paths.BowerManifest, paths.BowerDir, paths.Dist, deps.Logger)},
		{Inject, NewInject(deps.Fs, paths.Dist, paths.Index)},
		{ServerInit, NewServerInit(deps.Server)},
		{Watch, NewWatch(o, cfg, deps.Bus, deps.Logger)},
	}
	for _, leaf := range leaves {
		if err := o.Register(leaf.name, leaf.action); err != nil {
			return err
		}
	}

	for _, name := range []string{CompileName, BuildName, ServeName} {
		if err := o.RegisterComposite(name, Composites()[name]); err != nil {
			return err
		}
	}

	return registerPipelines(o, cfg.Pipelines)
}

// registerPipelines registers configured pipelines in name order, so
// errors are reported deterministically.
func registerPipelines(o *orchestrator.Orchestrator, pipelines map[string][]any) error {
	names := make([]string, 0, len(pipelines))
	for name := range pipelines {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		seq, err := orchestrator.ParseSequence(pipelines[name])
		if err != nil {
			return errors.Wrapf(err, "pipeline %s", name)
		}
		if err := o.RegisterComposite(name, seq); err != nil {
			return errors.Wrapf(err, "pipeline %s", name)
		}
	}
	return nil
}
