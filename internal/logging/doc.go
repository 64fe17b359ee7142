// Package logging provides structured logging for studiobuild runs.
//
// It wraps Go's log/slog with a JSON handler and a small set of persistent
// attributes, so every line written during a pipeline run can be traced back
// to the invocation, the composite task and the leaf task that produced it.
//
// # Basic Usage
//
//	logger, err := logging.New(logging.Options{Level: "INFO"})
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	log := logger.WithRun(runID).WithPipeline("build").WithTask("ts:dist")
//	log.Info("task finished", "duration_ms", 1520)
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"task finished","run_id":"...","pipeline":"build","task":"ts:dist","duration_ms":1520}
//
// # Log Files
//
// When Options.File is set the logger writes through a [RotatingWriter],
// which renames the file to debug.log.1, debug.log.2 and so on once it
// passes RotationConfig.MaxSizeMB.
//
// # Testing
//
// Use [NopLogger] to discard output.
package logging
