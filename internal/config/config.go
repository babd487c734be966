package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Default analysis settings
const (
	// DefaultDedupStrategy collapses violations with identical
	// (file, line, code, source); the least lossy strategy
	DefaultDedupStrategy = "exact"

	// DefaultCycleTimeoutMs bounds one full engine fan-out
	DefaultCycleTimeoutMs = 300_000

	// MinCycleTimeoutMs is the smallest accepted cycle timeout
	MinCycleTimeoutMs = 1_000
)

// Default scheduler settings
const (
	// DefaultSchedulerFrequencyMs is the polling interval between rule
	// check cycles
	DefaultSchedulerFrequencyMs = 30_000

	// MinSchedulerFrequencyMs is the smallest accepted polling interval
	MinSchedulerFrequencyMs = 1_000

	// DefaultMaxConcurrentChecks bounds concurrent rule executions
	DefaultMaxConcurrentChecks = 3
)

// Default watch settings
const (
	// DefaultWatchIntervalMs is the delay between watch-mode analysis cycles
	DefaultWatchIntervalMs = 30_000

	// MinWatchIntervalMs is the smallest accepted watch interval
	MinWatchIntervalMs = 1_000
)

// Default storage settings
const (
	// DefaultStoragePath is the sqlite database location relative to the
	// working directory
	DefaultStoragePath = ".sidequest/violations.db"

	// DefaultRetentionDays is how long resolved violations and metrics are
	// kept before cleanup
	DefaultRetentionDays = 30
)

// Default built-in engine settings
const (
	// DefaultMaxLineLength is the pattern-lint line length limit
	DefaultMaxLineLength = 120

	// DefaultDebugArtifactsPriority orders the debug-artifacts engine
	DefaultDebugArtifactsPriority = 10

	// DefaultPatternLintPriority orders the pattern-lint engine
	DefaultPatternLintPriority = 20
)

// Config represents the main configuration structure
type Config struct {
	// Analysis holds general analysis cycle configuration
	Analysis AnalysisConfig `json:"analysis" mapstructure:"analysis" yaml:"analysis"`

	// Engines holds built-in engine configuration
	Engines EnginesConfig `json:"engines" mapstructure:"engines" yaml:"engines"`

	// Scheduler holds rule scheduler configuration
	Scheduler SchedulerConfig `json:"scheduler" mapstructure:"scheduler" yaml:"scheduler"`

	// Watch holds watch-mode configuration
	Watch WatchConfig `json:"watch" mapstructure:"watch" yaml:"watch"`

	// Storage holds persistence configuration
	Storage StorageConfig `json:"storage" mapstructure:"storage" yaml:"storage"`

	// Output holds output formatting configuration
	Output OutputConfig `json:"output" mapstructure:"output" yaml:"output"`
}

// AnalysisConfig holds general analysis cycle configuration
type AnalysisConfig struct {
	// DedupStrategy selects the intra-cycle deduplication key:
	// exact, location, similar, none
	DedupStrategy string `json:"dedup_strategy" mapstructure:"dedup_strategy" yaml:"dedup_strategy"`

	// FailOnCriticalCrossover makes a critical source overlap fail the cycle
	FailOnCriticalCrossover bool `json:"fail_on_critical_crossover" mapstructure:"fail_on_critical_crossover" yaml:"fail_on_critical_crossover"`

	// CycleTimeoutMs bounds one full engine fan-out in milliseconds
	CycleTimeoutMs int64 `json:"cycle_timeout_ms" mapstructure:"cycle_timeout_ms" yaml:"cycle_timeout_ms"`

	// IncludePatterns specifies file patterns to include
	IncludePatterns []string `json:"include_patterns" mapstructure:"include_patterns" yaml:"include_patterns"`

	// ExcludePatterns specifies file patterns to exclude
	ExcludePatterns []string `json:"exclude_patterns" mapstructure:"exclude_patterns" yaml:"exclude_patterns"`

	// Recursive controls whether to analyze directories recursively
	Recursive bool `json:"recursive" mapstructure:"recursive" yaml:"recursive"`

	// RespectGitignore controls whether .gitignore entries are honored
	// during file collection
	RespectGitignore bool `json:"respect_gitignore" mapstructure:"respect_gitignore" yaml:"respect_gitignore"`
}

// CycleTimeout returns the cycle timeout as a duration
func (c *AnalysisConfig) CycleTimeout() time.Duration {
	return time.Duration(c.CycleTimeoutMs) * time.Millisecond
}

// EnginesConfig holds built-in engine configuration
type EnginesConfig struct {
	// DebugArtifacts configures the console/debugger statement engine
	DebugArtifacts DebugArtifactsConfig `json:"debug_artifacts" mapstructure:"debug_artifacts" yaml:"debug_artifacts"`

	// PatternLint configures the line pattern engine
	PatternLint PatternLintConfig `json:"pattern_lint" mapstructure:"pattern_lint" yaml:"pattern_lint"`
}

// DebugArtifactsConfig holds configuration for the debug artifact engine
type DebugArtifactsConfig struct {
	// Enabled controls whether the engine participates in analysis
	Enabled bool `json:"enabled" mapstructure:"enabled" yaml:"enabled"`

	// Priority orders engine output in merged results (lower first)
	Priority int `json:"priority" mapstructure:"priority" yaml:"priority"`

	// ConsoleSeverity is the severity assigned to console.* calls:
	// error, warn, info
	ConsoleSeverity string `json:"console_severity" mapstructure:"console_severity" yaml:"console_severity"`
}

// PatternLintConfig holds configuration for the pattern lint engine
type PatternLintConfig struct {
	// Enabled controls whether the engine participates in analysis
	Enabled bool `json:"enabled" mapstructure:"enabled" yaml:"enabled"`

	// Priority orders engine output in merged results (lower first)
	Priority int `json:"priority" mapstructure:"priority" yaml:"priority"`

	// MaxLineLength flags lines longer than this many bytes (0 disables)
	MaxLineLength int `json:"max_line_length" mapstructure:"max_line_length" yaml:"max_line_length"`

	// Markers are the annotation markers to flag (TODO, FIXME, ...)
	Markers []string `json:"markers" mapstructure:"markers" yaml:"markers"`
}

// SchedulerConfig holds rule scheduler configuration
type SchedulerConfig struct {
	// DefaultFrequencyMs is the polling interval in milliseconds (>= 1000)
	DefaultFrequencyMs int64 `json:"default_frequency_ms" mapstructure:"default_frequency_ms" yaml:"default_frequency_ms"`

	// MaxConcurrentChecks bounds concurrent rule executions (>= 1)
	MaxConcurrentChecks int `json:"max_concurrent_checks" mapstructure:"max_concurrent_checks" yaml:"max_concurrent_checks"`
}

// Frequency returns the polling interval as a duration
func (c *SchedulerConfig) Frequency() time.Duration {
	return time.Duration(c.DefaultFrequencyMs) * time.Millisecond
}

// WatchConfig holds watch-mode configuration
type WatchConfig struct {
	// IntervalMs is the delay between analysis cycles in milliseconds
	IntervalMs int64 `json:"interval_ms" mapstructure:"interval_ms" yaml:"interval_ms"`

	// Display controls whether per-cycle status lines are printed
	Display bool `json:"display" mapstructure:"display" yaml:"display"`
}

// Interval returns the watch interval as a duration
func (c *WatchConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// StorageConfig holds persistence configuration
type StorageConfig struct {
	// Enabled controls whether analysis results are persisted
	Enabled bool `json:"enabled" mapstructure:"enabled" yaml:"enabled"`

	// Path is the sqlite database location (":memory:" for ephemeral)
	Path string `json:"path" mapstructure:"path" yaml:"path"`

	// RetentionDays is how long resolved violations and metrics are kept
	RetentionDays int `json:"retention_days" mapstructure:"retention_days" yaml:"retention_days"`
}

// OutputConfig holds configuration for output formatting
type OutputConfig struct {
	// Format specifies the output format: text, json, yaml, csv
	Format string `json:"format" mapstructure:"format" yaml:"format"`

	// ShowDetails controls whether to show the per-violation breakdown
	ShowDetails bool `json:"show_details" mapstructure:"show_details" yaml:"show_details"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			DedupStrategy:           DefaultDedupStrategy,
			FailOnCriticalCrossover: false,
			CycleTimeoutMs:          DefaultCycleTimeoutMs,
			IncludePatterns: []string{
				"**/*.js", "**/*.ts", "**/*.jsx", "**/*.tsx",
				"**/*.mjs", "**/*.cjs", "**/*.mts", "**/*.cts",
			},
			ExcludePatterns: []string{
				// Package managers and dependencies
				"node_modules",
				"vendor",
				// Build outputs
				"dist",
				"build",
				"out",
				".output",
				// Framework-specific
				".next",
				".nuxt",
				".vercel",
				// Cache directories
				".cache",
				".turbo",
				"coverage",
				// Version control
				".git",
				// Minified and bundled files
				"*.min.js",
				"*.min.mjs",
				"*.min.cjs",
				"*.bundle.js",
				// Source maps
				"*.map",
			},
			Recursive:        true,
			RespectGitignore: true,
		},
		Engines: EnginesConfig{
			DebugArtifacts: DebugArtifactsConfig{
				Enabled:         true,
				Priority:        DefaultDebugArtifactsPriority,
				ConsoleSeverity: "warn",
			},
			PatternLint: PatternLintConfig{
				Enabled:       true,
				Priority:      DefaultPatternLintPriority,
				MaxLineLength: DefaultMaxLineLength,
				Markers:       []string{"TODO", "FIXME", "HACK", "XXX"},
			},
		},
		Scheduler: SchedulerConfig{
			DefaultFrequencyMs:  DefaultSchedulerFrequencyMs,
			MaxConcurrentChecks: DefaultMaxConcurrentChecks,
		},
		Watch: WatchConfig{
			IntervalMs: DefaultWatchIntervalMs,
			Display:    true,
		},
		Storage: StorageConfig{
			Enabled:       true,
			Path:          DefaultStoragePath,
			RetentionDays: DefaultRetentionDays,
		},
		Output: OutputConfig{
			Format:      "text",
			ShowDetails: false,
		},
	}
}

// LoadConfig loads configuration from file or returns default config
func LoadConfig(configPath string) (*Config, error) {
	return LoadConfigWithTarget(configPath, "")
}

// LoadConfigWithTarget loads configuration with target path context.
// If no config path is given, one is discovered by walking upward from the
// target directory.
func LoadConfigWithTarget(configPath string, targetPath string) (*Config, error) {
	if configPath == "" {
		configPath = findDefaultConfig(targetPath)
	}
	return loadConfigFromFile(configPath)
}

// loadConfigFromFile reads and parses a configuration file
func loadConfigFromFile(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}

	// Create a new viper instance to avoid race conditions
	v := viper.New()
	config := DefaultConfig()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// searchConfigInDirectory searches for configuration files in a specific directory
func searchConfigInDirectory(dir string, candidates []string) string {
	for _, candidate := range candidates {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// findDefaultConfig looks for default configuration files in common locations.
// targetPath is the path being analyzed; the search walks from there up to
// the filesystem root, then falls back to the working directory, XDG config
// and home directories.
func findDefaultConfig(targetPath string) string {
	candidates := []string{
		"sidequest.yaml",
		"sidequest.yml",
		".sidequest.yaml",
		".sidequest.yml",
		"sidequest.json",
		".sidequest.json",
	}

	if targetPath != "" {
		absPath, err := filepath.Abs(targetPath)
		if err == nil {
			info, err := os.Stat(absPath)
			if err == nil && !info.IsDir() {
				absPath = filepath.Dir(absPath)
			}

			// Walk upward with robust termination for volume roots and
			// UNC paths
			volume := filepath.VolumeName(absPath)
			for dir := absPath; ; dir = filepath.Dir(dir) {
				if config := searchConfigInDirectory(dir, candidates); config != "" {
					return config
				}

				parent := filepath.Dir(dir)
				if parent == dir ||
					dir == volume ||
					(volume != "" && dir == volume+string(filepath.Separator)) {
					break
				}
			}
		}
	}

	if config := searchConfigInDirectory(".", candidates); config != "" {
		return config
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		if config := searchConfigInDirectory(filepath.Join(xdgConfig, "sidequest"), candidates); config != "" {
			return config
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		configDir := filepath.Join(home, ".config", "sidequest")
		if config := searchConfigInDirectory(configDir, candidates); config != "" {
			return config
		}

		if config := searchConfigInDirectory(home, candidates); config != "" {
			return config
		}
	}

	if envConfig := os.Getenv("SIDEQUEST_CONFIG"); envConfig != "" {
		if _, err := os.Stat(envConfig); err == nil {
			return envConfig
		}
	}

	return ""
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	validStrategies := map[string]bool{
		"exact":    true,
		"location": true,
		"similar":  true,
		"none":     true,
	}
	if !validStrategies[c.Analysis.DedupStrategy] {
		return fmt.Errorf("invalid analysis.dedup_strategy '%s', must be one of: exact, location, similar, none",
			c.Analysis.DedupStrategy)
	}

	if c.Analysis.CycleTimeoutMs < MinCycleTimeoutMs {
		return fmt.Errorf("analysis.cycle_timeout_ms must be >= %d, got %d",
			MinCycleTimeoutMs, c.Analysis.CycleTimeoutMs)
	}

	if len(c.Analysis.IncludePatterns) == 0 {
		return fmt.Errorf("analysis.include_patterns cannot be empty")
	}

	if c.Scheduler.DefaultFrequencyMs < MinSchedulerFrequencyMs {
		return fmt.Errorf("scheduler.default_frequency_ms must be >= %d, got %d",
			MinSchedulerFrequencyMs, c.Scheduler.DefaultFrequencyMs)
	}

	if c.Scheduler.MaxConcurrentChecks < 1 {
		return fmt.Errorf("scheduler.max_concurrent_checks must be >= 1, got %d",
			c.Scheduler.MaxConcurrentChecks)
	}

	if c.Watch.IntervalMs < MinWatchIntervalMs {
		return fmt.Errorf("watch.interval_ms must be >= %d, got %d",
			MinWatchIntervalMs, c.Watch.IntervalMs)
	}

	if c.Storage.Enabled && c.Storage.Path == "" {
		return fmt.Errorf("storage.path cannot be empty when storage is enabled")
	}

	if c.Storage.RetentionDays < 1 {
		return fmt.Errorf("storage.retention_days must be >= 1, got %d", c.Storage.RetentionDays)
	}

	validFormats := map[string]bool{
		"text": true,
		"json": true,
		"yaml": true,
		"csv":  true,
	}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("invalid output.format '%s', must be one of: text, json, yaml, csv", c.Output.Format)
	}

	if err := c.validateEnginesConfig(); err != nil {
		return err
	}

	return nil
}

// validateEnginesConfig validates the built-in engine configuration
func (c *Config) validateEnginesConfig() error {
	validSeverities := map[string]bool{
		"error": true,
		"warn":  true,
		"info":  true,
	}
	if !validSeverities[c.Engines.DebugArtifacts.ConsoleSeverity] {
		return fmt.Errorf("invalid engines.debug_artifacts.console_severity '%s', must be one of: error, warn, info",
			c.Engines.DebugArtifacts.ConsoleSeverity)
	}

	if c.Engines.DebugArtifacts.Priority < 0 {
		return fmt.Errorf("engines.debug_artifacts.priority must be >= 0, got %d",
			c.Engines.DebugArtifacts.Priority)
	}

	if c.Engines.PatternLint.Priority < 0 {
		return fmt.Errorf("engines.pattern_lint.priority must be >= 0, got %d",
			c.Engines.PatternLint.Priority)
	}

	if c.Engines.PatternLint.MaxLineLength < 0 {
		return fmt.Errorf("engines.pattern_lint.max_line_length must be >= 0, got %d",
			c.Engines.PatternLint.MaxLineLength)
	}

	return nil
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, path string) error {
	// Create a new viper instance to avoid race conditions
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("analysis", config.Analysis)
	v.Set("engines", config.Engines)
	v.Set("scheduler", config.Scheduler)
	v.Set("watch", config.Watch)
	v.Set("storage", config.Storage)
	v.Set("output", config.Output)

	return v.WriteConfig()
}
