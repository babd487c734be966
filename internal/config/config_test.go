package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config == nil {
		t.Fatal("DefaultConfig should not return nil")
	}

	// Verify analysis defaults
	if config.Analysis.DedupStrategy != DefaultDedupStrategy {
		t.Errorf("Expected DedupStrategy %s, got %s", DefaultDedupStrategy, config.Analysis.DedupStrategy)
	}
	if config.Analysis.FailOnCriticalCrossover {
		t.Error("FailOnCriticalCrossover should be false by default")
	}
	if config.Analysis.CycleTimeoutMs != DefaultCycleTimeoutMs {
		t.Errorf("Expected CycleTimeoutMs %d, got %d", DefaultCycleTimeoutMs, config.Analysis.CycleTimeoutMs)
	}
	if !config.Analysis.Recursive {
		t.Error("Recursive should be true by default")
	}
	if len(config.Analysis.IncludePatterns) == 0 {
		t.Error("IncludePatterns should not be empty")
	}
	if len(config.Analysis.ExcludePatterns) == 0 {
		t.Error("ExcludePatterns should not be empty")
	}

	// Verify engine defaults
	if !config.Engines.DebugArtifacts.Enabled {
		t.Error("DebugArtifacts should be enabled by default")
	}
	if !config.Engines.PatternLint.Enabled {
		t.Error("PatternLint should be enabled by default")
	}
	if config.Engines.PatternLint.MaxLineLength != DefaultMaxLineLength {
		t.Errorf("Expected MaxLineLength %d, got %d", DefaultMaxLineLength, config.Engines.PatternLint.MaxLineLength)
	}
	if config.Engines.DebugArtifacts.Priority >= config.Engines.PatternLint.Priority {
		t.Error("DebugArtifacts should have higher priority (lower value) than PatternLint")
	}

	// Verify scheduler defaults
	if config.Scheduler.DefaultFrequencyMs != DefaultSchedulerFrequencyMs {
		t.Errorf("Expected DefaultFrequencyMs %d, got %d", DefaultSchedulerFrequencyMs, config.Scheduler.DefaultFrequencyMs)
	}
	if config.Scheduler.MaxConcurrentChecks != DefaultMaxConcurrentChecks {
		t.Errorf("Expected MaxConcurrentChecks %d, got %d", DefaultMaxConcurrentChecks, config.Scheduler.MaxConcurrentChecks)
	}

	// Verify storage defaults
	if !config.Storage.Enabled {
		t.Error("Storage should be enabled by default")
	}
	if config.Storage.Path != DefaultStoragePath {
		t.Errorf("Expected Path %s, got %s", DefaultStoragePath, config.Storage.Path)
	}

	// Verify output defaults
	if config.Output.Format != "text" {
		t.Errorf("Expected Format 'text', got '%s'", config.Output.Format)
	}
}

func TestConfig_Validate_Valid(t *testing.T) {
	config := DefaultConfig()

	err := config.Validate()
	if err != nil {
		t.Errorf("Default config should be valid, got error: %v", err)
	}
}

func TestConfig_Validate_InvalidDedupStrategy(t *testing.T) {
	config := DefaultConfig()
	config.Analysis.DedupStrategy = "fuzzy"

	err := config.Validate()
	if err == nil {
		t.Error("Expected error for invalid dedup strategy")
	}
}

func TestConfig_Validate_CycleTimeoutTooLow(t *testing.T) {
	config := DefaultConfig()
	config.Analysis.CycleTimeoutMs = 500

	err := config.Validate()
	if err == nil {
		t.Error("Expected error for cycle timeout < 1000ms")
	}
}

func TestConfig_Validate_EmptyIncludePatterns(t *testing.T) {
	config := DefaultConfig()
	config.Analysis.IncludePatterns = []string{}

	err := config.Validate()
	if err == nil {
		t.Error("Expected error for empty include patterns")
	}
}

func TestConfig_Validate_SchedulerFrequencyTooLow(t *testing.T) {
	config := DefaultConfig()
	config.Scheduler.DefaultFrequencyMs = 999

	err := config.Validate()
	if err == nil {
		t.Error("Expected error for scheduler frequency < 1000ms")
	}
}

func TestConfig_Validate_MaxConcurrentChecksTooLow(t *testing.T) {
	config := DefaultConfig()
	config.Scheduler.MaxConcurrentChecks = 0

	err := config.Validate()
	if err == nil {
		t.Error("Expected error for max concurrent checks < 1")
	}
}

func TestConfig_Validate_WatchIntervalTooLow(t *testing.T) {
	config := DefaultConfig()
	config.Watch.IntervalMs = 100

	err := config.Validate()
	if err == nil {
		t.Error("Expected error for watch interval < 1000ms")
	}
}

func TestConfig_Validate_EmptyStoragePath(t *testing.T) {
	config := DefaultConfig()
	config.Storage.Path = ""

	err := config.Validate()
	if err == nil {
		t.Error("Expected error for empty storage path while storage enabled")
	}

	// Disabled storage may leave the path empty
	config.Storage.Enabled = false
	err = config.Validate()
	if err != nil {
		t.Errorf("Disabled storage with empty path should be valid, got: %v", err)
	}
}

func TestConfig_Validate_InvalidRetention(t *testing.T) {
	config := DefaultConfig()
	config.Storage.RetentionDays = 0

	err := config.Validate()
	if err == nil {
		t.Error("Expected error for retention_days < 1")
	}
}

func TestConfig_Validate_InvalidOutputFormat(t *testing.T) {
	config := DefaultConfig()
	config.Output.Format = "xml"

	err := config.Validate()
	if err == nil {
		t.Error("Expected error for invalid output format")
	}
}

func TestConfig_Validate_InvalidConsoleSeverity(t *testing.T) {
	config := DefaultConfig()
	config.Engines.DebugArtifacts.ConsoleSeverity = "warning"

	err := config.Validate()
	if err == nil {
		t.Error("Expected error for unknown console severity")
	}
}

func TestConfig_Validate_NegativePriority(t *testing.T) {
	config := DefaultConfig()
	config.Engines.PatternLint.Priority = -1

	err := config.Validate()
	if err == nil {
		t.Error("Expected error for negative engine priority")
	}
}

func TestConfig_ValidDedupStrategies(t *testing.T) {
	config := DefaultConfig()
	validStrategies := []string{"exact", "location", "similar", "none"}

	for _, strategy := range validStrategies {
		config.Analysis.DedupStrategy = strategy
		err := config.Validate()
		if err != nil {
			t.Errorf("Strategy '%s' should be valid, got error: %v", strategy, err)
		}
	}
}

func TestConfig_ValidOutputFormats(t *testing.T) {
	config := DefaultConfig()
	validFormats := []string{"text", "json", "yaml", "csv"}

	for _, format := range validFormats {
		config.Output.Format = format
		err := config.Validate()
		if err != nil {
			t.Errorf("Format '%s' should be valid, got error: %v", format, err)
		}
	}
}

func TestConfig_ValidConsoleSeverities(t *testing.T) {
	config := DefaultConfig()
	validSeverities := []string{"error", "warn", "info"}

	for _, severity := range validSeverities {
		config.Engines.DebugArtifacts.ConsoleSeverity = severity
		err := config.Validate()
		if err != nil {
			t.Errorf("Severity '%s' should be valid, got error: %v", severity, err)
		}
	}
}

func TestDurationHelpers(t *testing.T) {
	config := DefaultConfig()

	if config.Analysis.CycleTimeout() != time.Duration(DefaultCycleTimeoutMs)*time.Millisecond {
		t.Error("CycleTimeout should convert milliseconds to a duration")
	}
	if config.Scheduler.Frequency() != time.Duration(DefaultSchedulerFrequencyMs)*time.Millisecond {
		t.Error("Frequency should convert milliseconds to a duration")
	}
	if config.Watch.Interval() != time.Duration(DefaultWatchIntervalMs)*time.Millisecond {
		t.Error("Interval should convert milliseconds to a duration")
	}
}

func TestLoadConfig_Default(t *testing.T) {
	// Load with empty path should return default
	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig with empty path failed: %v", err)
	}
	if config == nil {
		t.Fatal("Config should not be nil")
	}

	defaultCfg := DefaultConfig()
	if config.Scheduler.DefaultFrequencyMs != defaultCfg.Scheduler.DefaultFrequencyMs {
		t.Error("Loaded config should match default")
	}
}

func TestLoadConfig_NonExistent(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Expected error for non-existent config file")
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "sidequest.yaml")

	content := []byte("analysis:\n  dedup_strategy: location\nscheduler:\n  default_frequency_ms: 5000\n")
	if err := os.WriteFile(configPath, content, 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Analysis.DedupStrategy != "location" {
		t.Errorf("Expected dedup strategy 'location', got '%s'", config.Analysis.DedupStrategy)
	}
	if config.Scheduler.DefaultFrequencyMs != 5000 {
		t.Errorf("Expected frequency 5000, got %d", config.Scheduler.DefaultFrequencyMs)
	}
	// Unset keys keep their defaults
	if config.Scheduler.MaxConcurrentChecks != DefaultMaxConcurrentChecks {
		t.Error("Unset keys should keep default values")
	}
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "sidequest.yaml")

	content := []byte("scheduler:\n  default_frequency_ms: 10\n")
	if err := os.WriteFile(configPath, content, 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Error("Expected validation error for frequency below minimum")
	}
}

func TestSearchConfigInDirectory(t *testing.T) {
	tempDir := t.TempDir()

	configPath := filepath.Join(tempDir, "sidequest.yaml")
	err := os.WriteFile(configPath, []byte("output:\n  format: json"), 0644)
	if err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	candidates := []string{"sidequest.yaml", "sidequest.yml"}
	result := searchConfigInDirectory(tempDir, candidates)

	if result != configPath {
		t.Errorf("Expected %s, got %s", configPath, result)
	}

	emptyDir := t.TempDir()
	result = searchConfigInDirectory(emptyDir, candidates)
	if result != "" {
		t.Error("Expected empty string for directory without config")
	}
}

func TestFindDefaultConfig_WalksUpward(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "src", "components")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("Failed to create nested dirs: %v", err)
	}

	configPath := filepath.Join(root, ".sidequest.yaml")
	if err := os.WriteFile(configPath, []byte("output:\n  format: text"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	found := findDefaultConfig(nested)
	if found != configPath {
		t.Errorf("Expected %s, got %s", configPath, found)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "sidequest.yaml")

	original := DefaultConfig()
	original.Analysis.DedupStrategy = "similar"
	original.Scheduler.MaxConcurrentChecks = 7

	if err := SaveConfig(original, configPath); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig after save failed: %v", err)
	}

	if loaded.Analysis.DedupStrategy != "similar" {
		t.Errorf("Expected dedup strategy 'similar', got '%s'", loaded.Analysis.DedupStrategy)
	}
	if loaded.Scheduler.MaxConcurrentChecks != 7 {
		t.Errorf("Expected max concurrent 7, got %d", loaded.Scheduler.MaxConcurrentChecks)
	}
}

func TestDefaultConstants(t *testing.T) {
	if DefaultSchedulerFrequencyMs != 30_000 {
		t.Errorf("DefaultSchedulerFrequencyMs should be 30000, got %d", DefaultSchedulerFrequencyMs)
	}
	if MinSchedulerFrequencyMs != 1_000 {
		t.Errorf("MinSchedulerFrequencyMs should be 1000, got %d", MinSchedulerFrequencyMs)
	}
	if DefaultMaxConcurrentChecks != 3 {
		t.Errorf("DefaultMaxConcurrentChecks should be 3, got %d", DefaultMaxConcurrentChecks)
	}
	if DefaultDedupStrategy != "exact" {
		t.Errorf("DefaultDedupStrategy should be 'exact', got '%s'", DefaultDedupStrategy)
	}
	if DefaultRetentionDays != 30 {
		t.Errorf("DefaultRetentionDays should be 30, got %d", DefaultRetentionDays)
	}
}
