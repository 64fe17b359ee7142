// Package config loads studiobuild settings from studiobuild.yaml, the
// environment, and built-in defaults.
package config

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete studiobuild configuration
type Config struct {
	Paths      PathsConfig      `mapstructure:"paths" yaml:"paths"`
	Copy       CopyConfig       `mapstructure:"copy" yaml:"copy"`
	TypeScript ToolConfig       `mapstructure:"typescript" yaml:"typescript"`
	Sass       ToolConfig       `mapstructure:"sass" yaml:"sass"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Watch      WatchConfig      `mapstructure:"watch" yaml:"watch"`
	Pipelines  map[string][]any `mapstructure:"pipelines" yaml:"pipelines,omitempty"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
}

// PathsConfig locates the app sources and the build output
type PathsConfig struct {
	// Src is the app source root (default: "src")
	Src string `mapstructure:"src" yaml:"src"`
	// Dist is the build output directory, wiped by the clean task (default: "dist")
	Dist string `mapstructure:"dist" yaml:"dist"`
	// BowerDir holds installed bower packages (default: "bower_components")
	BowerDir string `mapstructure:"bower_dir" yaml:"bower_dir"`
	// BowerManifest is the app's bower.json (default: "bower.json")
	BowerManifest string `mapstructure:"bower_manifest" yaml:"bower_manifest"`
	// Index is the HTML entry page, relative to Dist, that inject rewrites (default: "index.html")
	Index string `mapstructure:"index" yaml:"index"`
}

// CopyConfig controls which static files copy:dist moves into dist
type CopyConfig struct {
	// Patterns are globs relative to Src; ** crosses directories
	Patterns []string `mapstructure:"patterns" yaml:"patterns"`
}

// ToolConfig describes an external compiler invocation
type ToolConfig struct {
	// Command is the executable name or path
	Command string `mapstructure:"command" yaml:"command"`
	// Project is the tool's project file (TypeScript only, default: "tsconfig.json")
	Project string `mapstructure:"project" yaml:"project,omitempty"`
	// Entry is the input directory relative to Src (Sass only, default: "styles")
	Entry string `mapstructure:"entry" yaml:"entry,omitempty"`
	// OutDir is the output directory relative to Dist
	OutDir string `mapstructure:"out_dir" yaml:"out_dir"`
	// Args are appended verbatim to the command line
	Args []string `mapstructure:"args" yaml:"args,omitempty"`
}

// ServerConfig controls the development server started by server:init
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
	// Metrics exposes Prometheus metrics at /metrics (default: true)
	Metrics bool `mapstructure:"metrics" yaml:"metrics"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// WatchConfig controls the watch task
type WatchConfig struct {
	// DebounceMs groups bursts of file events into one rebuild (default: 100)
	DebounceMs int `mapstructure:"debounce_ms" yaml:"debounce_ms"`
	// Rules map changed source files to the tasks that rebuild them
	Rules []WatchRule `mapstructure:"rules" yaml:"rules"`
	// Ignore lists file and directory names that are never watched
	Ignore []string `mapstructure:"ignore" yaml:"ignore"`
}

// WatchRule maps a glob (relative to Src) to the tasks it triggers
type WatchRule struct {
	Pattern string   `mapstructure:"pattern" yaml:"pattern"`
	Tasks   []string `mapstructure:"tasks" yaml:"tasks"`
}

// Debounce returns the debounce interval as a time.Duration
func (w WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMs) * time.Millisecond
}

// LoggingConfig controls structured logging
type LoggingConfig struct {
	// Enabled turns structured logging on; when false logs are discarded (default: true)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "warn")
	Level string `mapstructure:"level" yaml:"level"`
	// File is the log file path; empty writes to stderr
	File string `mapstructure:"file" yaml:"file,omitempty"`
	// MaxSizeMB is the maximum log file size before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	// MaxBackups is the number of rotated files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`
}

// Default returns a Config with the defaults for the LIEStudio app layout
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Src:           "src",
			Dist:          "dist",
			BowerDir:      "bower_components",
			BowerManifest: "bower.json",
			Index:         "index.html",
		},
		Copy: CopyConfig{
			Patterns: []string{"**.html", "assets/**", "*.ico"},
		},
		TypeScript: ToolConfig{
			Command: "tsc",
			Project: "tsconfig.json",
			OutDir:  "app",
			Args:    []string{},
		},
		Sass: ToolConfig{
			Command: "sass",
			Entry:   "styles",
			OutDir:  "css",
			Args:    []string{},
		},
		Server: ServerConfig{
			Host:    "localhost",
			Port:    8080,
			Metrics: true,
		},
		Watch: WatchConfig{
			DebounceMs: 100,
			Rules: []WatchRule{
				{Pattern: "**.ts", Tasks: []string{"ts:dist"}},
				{Pattern: "**.scss", Tasks: []string{"sass:dist"}},
				{Pattern: "**.html", Tasks: []string{"copy:dist"}},
			},
			Ignore: []string{".git", "node_modules", ".DS_Store"},
		},
		Pipelines: map[string][]any{},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "warn",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Paths defaults
	viper.SetDefault("paths.src", defaults.Paths.Src)
	viper.SetDefault("paths.dist", defaults.Paths.Dist)
	viper.SetDefault("paths.bower_dir", defaults.Paths.BowerDir)
	viper.SetDefault("paths.bower_manifest", defaults.Paths.BowerManifest)
	viper.SetDefault("paths.index", defaults.Paths.Index)

	// Copy defaults
	viper.SetDefault("copy.patterns", defaults.Copy.Patterns)

	// Tool defaults
	viper.SetDefault("typescript.command", defaults.TypeScript.Command)
	viper.SetDefault("typescript.project", defaults.TypeScript.Project)
	viper.SetDefault("typescript.out_dir", defaults.TypeScript.OutDir)
	viper.SetDefault("typescript.args", defaults.TypeScript.Args)
	viper.SetDefault("sass.command", defaults.Sass.Command)
	viper.SetDefault("sass.entry", defaults.Sass.Entry)
	viper.SetDefault("sass.out_dir", defaults.Sass.OutDir)
	viper.SetDefault("sass.args", defaults.Sass.Args)

	// Server defaults
	viper.SetDefault("server.host", defaults.Server.Host)
	viper.SetDefault("server.port", defaults.Server.Port)
	viper.SetDefault("server.metrics", defaults.Server.Metrics)

	// Watch defaults
	viper.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMs)
	rules := make([]map[string]any, 0, len(defaults.Watch.Rules))
	for _, r := range defaults.Watch.Rules {
		rules = append(rules, map[string]any{"pattern": r.Pattern, "tasks": r.Tasks})
	}
	viper.SetDefault("watch.rules", rules)
	viper.SetDefault("watch.ignore", defaults.Watch.Ignore)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.file", defaults.Logging.File)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom decodes and validates the configuration held by v
func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.Pipelines == nil {
		cfg.Pipelines = map[string][]any{}
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration, falling back to defaults when
// the loaded configuration cannot be decoded or is invalid
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "studiobuild")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".studiobuild"
	}
	return filepath.Join(home, ".config", "studiobuild")
}

// ConfigFile returns the path of the per-user config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "studiobuild.yaml")
}
