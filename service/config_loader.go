package service

import (
	"os"
	"time"

	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/domain"
	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/internal/config"
)

// ConfigurationLoaderImpl loads configuration files and converts them into
// domain requests. Every load returns a fresh value copy, so callers hold
// immutable snapshots rather than shared mutable config.
type ConfigurationLoaderImpl struct{}

// NewConfigurationLoader creates a new configuration loader service
func NewConfigurationLoader() *ConfigurationLoaderImpl {
	return &ConfigurationLoaderImpl{}
}

// LoadConfig loads configuration from the specified path, discovering a
// default file relative to the target path when no path is given
func (c *ConfigurationLoaderImpl) LoadConfig(configPath, targetPath string) (*config.Config, error) {
	cfg, err := config.LoadConfigWithTarget(configPath, targetPath)
	if err != nil {
		return nil, domain.NewConfigError("failed to load configuration file", err)
	}
	return cfg, nil
}

// LoadDefaultConfig returns the default configuration, preferring a
// discovered config file when one exists
func (c *ConfigurationLoaderImpl) LoadDefaultConfig() *config.Config {
	cfg, err := config.LoadConfigWithTarget("", "")
	if err == nil {
		return cfg
	}
	return config.DefaultConfig()
}

// ToAnalyzeRequest converts a configuration snapshot into an analysis
// request for the given target path
func (c *ConfigurationLoaderImpl) ToAnalyzeRequest(cfg *config.Config, path string) *domain.AnalyzeRequest {
	return &domain.AnalyzeRequest{
		Path:                    path,
		OutputFormat:            domain.OutputFormat(cfg.Output.Format),
		OutputWriter:            os.Stdout,
		ShowDetails:             cfg.Output.ShowDetails,
		DedupStrategy:           domain.DedupStrategy(cfg.Analysis.DedupStrategy),
		FailOnCriticalCrossover: cfg.Analysis.FailOnCriticalCrossover,
		CycleTimeout:            cfg.Analysis.CycleTimeout(),
	}
}

// ToWatchOptions converts a configuration snapshot into watch options for
// the given target path
func (c *ConfigurationLoaderImpl) ToWatchOptions(cfg *config.Config, path string) domain.WatchOptions {
	interval := cfg.Watch.Interval()
	if interval < time.Duration(config.MinWatchIntervalMs)*time.Millisecond {
		interval = time.Duration(config.DefaultWatchIntervalMs) * time.Millisecond
	}
	req := c.ToAnalyzeRequest(cfg, path)
	req.NoProgress = true
	return domain.WatchOptions{
		Interval: interval,
		Analyze:  *req,
	}
}
