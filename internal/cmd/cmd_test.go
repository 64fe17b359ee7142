package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/MD-Studio/studiobuild/internal/config"
	"github.com/MD-Studio/studiobuild/internal/errors"
	"github.com/MD-Studio/studiobuild/internal/logging"
	"github.com/MD-Studio/studiobuild/internal/tasks"
)

// executeCommand runs a cobra command with args and returns captured output
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err = root.Execute()
	return buf.String(), err
}

// stubRunner stands in for tsc and sass
type stubRunner struct {
	err error
}

func (r stubRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if r.err != nil {
		return []byte(name + ": compile error"), r.err
	}
	return nil, nil
}

func testApp(t *testing.T, runner tasks.CommandRunner) (*app, *bytes.Buffer) {
	t.Helper()

	fsys := afero.NewMemMapFs()
	files := map[string]string{
		"src/index.html": "<body><!-- inject:js --><!-- endinject --></body>",
		"bower.json":     `{"name": "liestudio"}`,
	}
	for path, content := range files {
		if err := afero.WriteFile(fsys, path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.Default()
	cfg.Logging.Enabled = false
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0

	var out bytes.Buffer
	a, err := newAppWithConfig(cfg, appOptions{fs: fsys, runner: runner, out: &out})
	if err != nil {
		t.Fatalf("newAppWithConfig() error = %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a, &out
}

func TestRootCommand(t *testing.T) {
	want := []string{"serve", "build", "compile", "run", "tasks", "check", "config"}
	for _, name := range want {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
			}
		}
		if !found {
			t.Errorf("rootCmd is missing subcommand %q", name)
		}
	}
}

func TestSequenceOf(t *testing.T) {
	if got := sequenceOf("clean", "ts:dist").String(); got != "[clean, ts:dist]" {
		t.Errorf("sequenceOf() = %s, want [clean, ts:dist]", got)
	}
}

func TestApp_RunCompile(t *testing.T) {
	a, out := testApp(t, stubRunner{})

	if err := a.run(context.Background(), sequenceOf(tasks.CompileName)); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	output := out.String()
	for _, want := range []string{"Starting 'compile'...", "Finished 'inject'", "Finished 'compile'"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
	if a.server.Running() {
		t.Error("compile should not start the dev server")
	}
}

func TestApp_RunFailure(t *testing.T) {
	a, out := testApp(t, stubRunner{err: errors.New("exit status 1")})

	err := a.run(context.Background(), sequenceOf(tasks.CompileName))
	if err == nil {
		t.Fatal("run() should fail when a compiler fails")
	}

	var reported *reportedError
	if !errors.As(err, &reported) {
		t.Errorf("error type = %T, want *reportedError", err)
	}
	if !errors.Is(err, errors.ErrTaskFailed) {
		t.Error("errors.Is(err, ErrTaskFailed) = false, want true")
	}
	if !strings.Contains(out.String(), "errored after") {
		t.Errorf("output missing failure line:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "compile error") {
		t.Errorf("output missing compiler output:\n%s", out.String())
	}
}

func TestApp_RunUnregistered(t *testing.T) {
	a, _ := testApp(t, stubRunner{})

	err := a.run(context.Background(), sequenceOf("minify"))
	if !errors.Is(err, errors.ErrTaskNotFound) {
		t.Errorf("run() error = %v, want ErrTaskNotFound", err)
	}
}

func TestApp_Check(t *testing.T) {
	a, _ := testApp(t, stubRunner{})
	if err := a.check(); err != nil {
		t.Errorf("check() error = %v, want nil", err)
	}

	a.cfg.Watch.Rules = append(a.cfg.Watch.Rules, config.WatchRule{Pattern: "**.js", Tasks: []string{"minify"}})
	err := a.check()
	if !errors.Is(err, errors.ErrTaskNotFound) {
		t.Errorf("check() error = %v, want ErrTaskNotFound", err)
	}
	if !strings.Contains(err.Error(), "minify") {
		t.Errorf("check() error = %q, want task name", err.Error())
	}
}

func TestPrintTasks(t *testing.T) {
	a, _ := testApp(t, stubRunner{})

	var buf bytes.Buffer
	printTasks(&buf, a.orch.Registry())
	output := buf.String()

	if !strings.Contains(output, "[clean, {copy:dist, ts:dist, sass:dist, bower:dist}, inject]") {
		t.Errorf("output missing compile sequence:\n%s", output)
	}
	if !strings.Contains(output, "[build, watch]") {
		t.Errorf("output missing serve sequence:\n%s", output)
	}
	if lines := strings.Count(output, "\n"); lines != 11 {
		t.Errorf("printed %d tasks, want 11", lines)
	}
}

func TestConfigShowCommand(t *testing.T) {
	output, err := executeCommand(rootCmd, "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	for _, want := range []string{"paths:", "dist: dist", "port: 8080"} {
		if !strings.Contains(output, want) {
			t.Errorf("config show output missing %q:\n%s", want, output)
		}
	}
}

func TestConfigPathCommand(t *testing.T) {
	output, err := executeCommand(rootCmd, "config", "path")
	if err != nil {
		t.Fatalf("config path error = %v", err)
	}
	if !strings.Contains(output, "STUDIOBUILD_") {
		t.Errorf("config path output missing env prefix:\n%s", output)
	}
}

func TestLogsCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studiobuild.log")
	logger, err := logging.New(logging.Options{File: path, Level: "debug", Rotation: logging.DefaultRotationConfig()})
	if err != nil {
		t.Fatal(err)
	}
	logger.WithRun("r1").WithTask("clean").Info("task finished")
	logger.WithRun("r2").WithTask("ts:dist").Error("task failed")
	_ = logger.Close()

	output, err := executeCommand(rootCmd, "logs", "--file", path, "--last")
	if err != nil {
		t.Fatalf("logs error = %v", err)
	}
	if !strings.Contains(output, "task=ts:dist") || strings.Contains(output, "task=clean") {
		t.Errorf("logs --last output = %q", output)
	}
}

func TestApp_RunFailureLogsTaskAndSeverity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studiobuild.log")
	cfg := config.Default()
	cfg.Logging.Enabled = true
	cfg.Logging.File = path
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0

	a, err := newAppWithConfig(cfg, appOptions{
		fs:     afero.NewMemMapFs(),
		runner: stubRunner{err: errors.New("exit status 2")},
		out:    new(bytes.Buffer),
	})
	if err != nil {
		t.Fatalf("newAppWithConfig() error = %v", err)
	}

	if err := a.run(context.Background(), sequenceOf("ts:dist")); err == nil {
		t.Fatal("run() should fail when tsc fails")
	}
	_ = a.Close()

	entries, err := logging.ReadLog(path)
	if err != nil {
		t.Fatalf("ReadLog() error = %v", err)
	}
	failed := logging.FilterEntries(entries, logging.Filter{Task: "ts:dist", Contains: "run failed"})
	if len(failed) != 1 {
		t.Fatalf("found %d run failure entries for ts:dist, want 1", len(failed))
	}
	if got := failed[0].Attrs["severity"]; got != "error" {
		t.Errorf("severity = %v, want error", got)
	}
	if failed[0].RunID != a.runID {
		t.Errorf("run_id = %q, want %q", failed[0].RunID, a.runID)
	}
}

func TestApp_CloseDetachesSubscribers(t *testing.T) {
	a, _ := testApp(t, stubRunner{})
	if a.bus.SubscriptionCount() == 0 {
		t.Fatal("reporter and metrics should be subscribed")
	}

	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := a.bus.SubscriptionCount(); got != 0 {
		t.Errorf("SubscriptionCount() after Close = %d, want 0", got)
	}
}
