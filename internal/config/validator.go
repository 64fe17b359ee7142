package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "server.port")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate Paths config
	errors = append(errors, c.validatePaths()...)

	// Validate Copy config
	errors = append(errors, c.validateCopy()...)

	// Validate tool configs
	errors = append(errors, validateTool("typescript", c.TypeScript)...)
	errors = append(errors, validateTool("sass", c.Sass)...)

	// Validate Server config
	errors = append(errors, c.validateServer()...)

	// Validate Watch config
	errors = append(errors, c.validateWatch()...)

	// Validate Pipelines config
	errors = append(errors, c.validatePipelines()...)

	// Validate Logging config
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validatePaths validates the PathsConfig
func (c *Config) validatePaths() []ValidationError {
	var errors []ValidationError

	required := []struct {
		field string
		value string
	}{
		{"paths.src", c.Paths.Src},
		{"paths.dist", c.Paths.Dist},
		{"paths.index", c.Paths.Index},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errors = append(errors, ValidationError{
				Field:   r.field,
				Value:   r.value,
				Message: "must not be empty",
			})
		}
	}

	for field, path := range map[string]string{
		"paths.src":            c.Paths.Src,
		"paths.dist":           c.Paths.Dist,
		"paths.bower_dir":      c.Paths.BowerDir,
		"paths.bower_manifest": c.Paths.BowerManifest,
		"paths.index":          c.Paths.Index,
	} {
		if strings.ContainsRune(path, '\x00') {
			errors = append(errors, ValidationError{
				Field:   field,
				Value:   path,
				Message: "path contains invalid null character",
			})
		}
	}

	// clean removes dist, so it must never be the source tree or the working directory
	if c.Paths.Dist != "" && (c.Paths.Dist == c.Paths.Src || c.Paths.Dist == "." || c.Paths.Dist == "/") {
		errors = append(errors, ValidationError{
			Field:   "paths.dist",
			Value:   c.Paths.Dist,
			Message: "must be a dedicated output directory",
		})
	}

	return errors
}

// validateCopy validates the CopyConfig
func (c *Config) validateCopy() []ValidationError {
	var errors []ValidationError

	for i, pattern := range c.Copy.Patterns {
		if err := checkGlob(pattern); err != nil {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("copy.patterns[%d]", i),
				Value:   pattern,
				Message: err.Error(),
			})
		}
	}

	return errors
}

// validateTool validates a ToolConfig under the given key
func validateTool(key string, tool ToolConfig) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(tool.Command) == "" {
		errors = append(errors, ValidationError{
			Field:   key + ".command",
			Value:   tool.Command,
			Message: "must not be empty",
		})
	}
	if strings.TrimSpace(tool.OutDir) == "" {
		errors = append(errors, ValidationError{
			Field:   key + ".out_dir",
			Value:   tool.OutDir,
			Message: "must not be empty",
		})
	}

	return errors
}

// validateServer validates the ServerConfig
func (c *Config) validateServer() []ValidationError {
	var errors []ValidationError

	// Port 0 lets the OS pick a free port
	const maxPort = 65535
	if c.Server.Port < 0 || c.Server.Port > maxPort {
		errors = append(errors, ValidationError{
			Field:   "server.port",
			Value:   c.Server.Port,
			Message: fmt.Sprintf("must be between 0 and %d", maxPort),
		})
	}

	return errors
}

// validateWatch validates the WatchConfig
func (c *Config) validateWatch() []ValidationError {
	var errors []ValidationError

	if c.Watch.DebounceMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "watch.debounce_ms",
			Value:   c.Watch.DebounceMs,
			Message: "must be non-negative",
		})
	}

	const maxDebounceMs = 60000
	if c.Watch.DebounceMs > maxDebounceMs {
		errors = append(errors, ValidationError{
			Field:   "watch.debounce_ms",
			Value:   c.Watch.DebounceMs,
			Message: fmt.Sprintf("exceeds maximum of %dms", maxDebounceMs),
		})
	}

	for i, rule := range c.Watch.Rules {
		if err := checkGlob(rule.Pattern); err != nil {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("watch.rules[%d].pattern", i),
				Value:   rule.Pattern,
				Message: err.Error(),
			})
		}
		if len(rule.Tasks) == 0 {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("watch.rules[%d].tasks", i),
				Value:   rule.Tasks,
				Message: "must name at least one task",
			})
		}
		for j, task := range rule.Tasks {
			if strings.TrimSpace(task) == "" {
				errors = append(errors, ValidationError{
					Field:   fmt.Sprintf("watch.rules[%d].tasks[%d]", i, j),
					Value:   task,
					Message: "must not be empty",
				})
			}
		}
	}

	for i, name := range c.Watch.Ignore {
		if strings.TrimSpace(name) == "" || strings.ContainsAny(name, `/\`) {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("watch.ignore[%d]", i),
				Value:   name,
				Message: "must be a single file or directory name",
			})
		}
	}

	return errors
}

// validatePipelines checks the shape of each configured pipeline. Each step
// is either a task name or a list of task names run concurrently. Whether
// the names are registered is checked when the pipelines are registered.
func (c *Config) validatePipelines() []ValidationError {
	var errors []ValidationError

	names := make([]string, 0, len(c.Pipelines))
	for name := range c.Pipelines {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		steps := c.Pipelines[name]
		field := "pipelines." + name
		if strings.TrimSpace(name) == "" {
			errors = append(errors, ValidationError{Field: "pipelines", Value: name, Message: "pipeline name must not be empty"})
			continue
		}
		if len(steps) == 0 {
			errors = append(errors, ValidationError{Field: field, Value: steps, Message: "must have at least one step"})
			continue
		}
		for i, step := range steps {
			if msg := checkStep(step); msg != "" {
				errors = append(errors, ValidationError{
					Field:   fmt.Sprintf("%s[%d]", field, i),
					Value:   step,
					Message: msg,
				})
			}
		}
	}

	return errors
}

func checkStep(step any) string {
	switch s := step.(type) {
	case string:
		if strings.TrimSpace(s) == "" {
			return "task name must not be empty"
		}
	case []string:
		if len(s) == 0 {
			return "group must have at least one task"
		}
		for _, name := range s {
			if strings.TrimSpace(name) == "" {
				return "task name must not be empty"
			}
		}
	case []any:
		if len(s) == 0 {
			return "group must have at least one task"
		}
		for _, member := range s {
			name, ok := member.(string)
			if !ok {
				return "group members must be task names"
			}
			if strings.TrimSpace(name) == "" {
				return "task name must not be empty"
			}
		}
	default:
		return "step must be a task name or a list of task names"
	}
	return ""
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	// Validate log level
	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	// Max size must be positive
	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	// Reasonable upper bound for log file size
	const maxLogSizeMB = 1000 // 1GB
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	// Max backups must be non-negative
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}

// checkGlob reports whether pattern is a usable path glob
func checkGlob(pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return fmt.Errorf("pattern must not be empty")
	}
	if _, err := glob.Compile(pattern, '/'); err != nil {
		return fmt.Errorf("invalid glob: %v", err)
	}
	return nil
}
