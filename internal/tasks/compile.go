package tasks

import (
	"context"
	"path/filepath"

	"github.com/MD-Studio/studiobuild/internal/config"
	"github.com/MD-Studio/studiobuild/internal/errors"
	"github.com/MD-Studio/studiobuild/internal/logging"
	"github.com/MD-Studio/studiobuild/internal/orchestrator"
)

// TypeScriptArgs returns the tsc command line for the given settings.
func TypeScriptArgs(ts config.ToolConfig, dist string) []string {
	args := []string{"-p", ts.Project, "--outDir", filepath.Join(dist, ts.OutDir)}
	return append(args, ts.Args...)
}

// SassArgs returns the sass command line for the given settings. The
// input directory and output directory are passed as one src:dst argument.
func SassArgs(sass config.ToolConfig, src, dist string) []string {
	args := []string{
		filepath.Join(src, sass.Entry) + ":" + filepath.Join(dist, sass.OutDir),
		"--no-source-map",
	}
	return append(args, sass.Args...)
}

// NewTypeScript returns the ts:dist action.
func NewTypeScript(runner CommandRunner, ts config.ToolConfig, dist string, logger *logging.Logger) orchestrator.Action {
	return newToolAction(TSDist, runner, ts.Command, TypeScriptArgs(ts, dist), logger)
}

// NewSass returns the sass:dist action.
func NewSass(runner CommandRunner, sass config.ToolConfig, src, dist string, logger *logging.Logger) orchestrator.Action {
	return newToolAction(SassDist, runner, sass.Command, SassArgs(sass, src, dist), logger)
}

// newToolAction runs an external compiler. A failing run is reported with
// the tool's output attached so compiler diagnostics reach the user.
func newToolAction(task string, runner CommandRunner, command string, args []string, logger *logging.Logger) orchestrator.Action {
	return func(ctx context.Context) error {
		log := logger.WithTask(task)
		log.Debug("running tool", "command", command, "args", args)

		out, err := runner.Run(ctx, command, args...)
		if err != nil {
			return errors.NewTaskExecutionError(task, err).WithOutput(string(out))
		}
		if len(out) > 0 {
			log.Info("tool output", "output", string(out))
		}
		return nil
	}
}
