package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/MD-Studio/studiobuild/internal/errors"
	"github.com/MD-Studio/studiobuild/internal/orchestrator"
	"github.com/MD-Studio/studiobuild/internal/tasks"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Build, serve dist and rebuild on changes",
	Long: `Run the serve pipeline: build (which starts the dev server), then watch
the source tree and rebuild changed assets until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTasks(cmd, tasks.ServeName)
	},
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Compile the app and start the dev server",
	Long: `Run the build pipeline: compile, then serve dist over HTTP until
interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTasks(cmd, tasks.BuildName)
	},
}

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile the app into dist",
	Long: `Run the compile pipeline: clean dist, build static files, TypeScript,
Sass and bower packages concurrently, then inject references into the
index page.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTasks(cmd, tasks.CompileName)
	},
}

var runCmd = &cobra.Command{
	Use:   "run <task>...",
	Short: "Run tasks by name, one after another",
	Example: `  studiobuild run clean ts:dist
  studiobuild run release`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTasks(cmd, args...)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(runCmd)
}

// sequenceOf runs names one after another
func sequenceOf(names ...string) orchestrator.Sequence {
	seq := make(orchestrator.Sequence, len(names))
	for i, name := range names {
		seq[i] = orchestrator.Single(name)
	}
	return seq
}

func runTasks(cmd *cobra.Command, names ...string) error {
	a, err := newApp(defaultAppOptions())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	return a.run(ctx, sequenceOf(names...))
}

// run executes seq and, if it started the dev server, keeps serving until
// ctx is cancelled.
func (a *app) run(ctx context.Context, seq orchestrator.Sequence) error {
	log := a.logger.With("sequence", seq.String())
	log.Info("run started")
	start := time.Now()

	err := a.orch.Run(ctx, seq)
	if err != nil {
		failed := log
		if task := errors.TaskName(err); task != "" {
			failed = failed.WithTask(task)
		}
		failed.Error("run failed",
			"error", err,
			"severity", errors.GetSeverity(err).String(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		a.reporter.Failure(err)
		return &reportedError{err: err}
	}
	log.Info("run finished", "duration_ms", time.Since(start).Milliseconds())

	if a.server.Running() {
		a.reporter.Printf("Serving %s at http://%s (Ctrl+C to stop)", a.cfg.Paths.Dist, a.server.Addr())
		<-a.server.Done()
	}
	return nil
}
