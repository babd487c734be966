package main

import (
	"fmt"
	"os"

	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/app"
	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/domain"
	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/internal/config"
	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/internal/engine"
	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/internal/storage"
	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/service"
)

// system is the composition root: every component is constructed here with
// its collaborators passed in explicitly. No hidden global instances.
type system struct {
	orchestrator domain.Orchestrator
	scheduler    domain.RuleScheduler
	watchState   domain.WatchStateManager
	storage      domain.Storage
	progress     domain.ProgressManager
}

// buildSystem wires engines, tracker, scheduler, state machine and
// orchestrator from one configuration snapshot
func buildSystem(cfg *config.Config, targetPath string, sink domain.EventSink, withProgress bool) (*system, error) {
	files := app.NewFileHelper(cfg.Analysis.RespectGitignore)

	engines := []domain.Engine{
		engine.NewDebugArtifactEngine(files,
			cfg.Engines.DebugArtifacts.Priority,
			cfg.Engines.DebugArtifacts.Enabled,
			domain.Severity(cfg.Engines.DebugArtifacts.ConsoleSeverity)),
		engine.NewPatternLintEngine(files,
			cfg.Engines.PatternLint.Priority,
			cfg.Engines.PatternLint.Enabled,
			cfg.Engines.PatternLint.MaxLineLength,
			cfg.Engines.PatternLint.Markers),
	}
	engineNames := make([]string, 0, len(engines))
	for _, e := range engines {
		engineNames = append(engineNames, e.Name())
	}

	var store domain.Storage
	var tracker domain.ViolationTracker
	var scheduler domain.RuleScheduler
	if cfg.Storage.Enabled {
		sqlStore, err := storage.Open(cfg.Storage.Path, cfg.Storage.RetentionDays)
		if err != nil {
			return nil, err
		}
		store = sqlStore
		tracker = service.NewViolationTracker(store, engineNames)

		ruleScheduler := service.NewRuleScheduler(store, engines, targetPath, sink)
		if err := ruleScheduler.SetDefaultFrequency(cfg.Scheduler.Frequency()); err != nil {
			_ = sqlStore.Close()
			return nil, err
		}
		if err := ruleScheduler.SetMaxConcurrentChecks(cfg.Scheduler.MaxConcurrentChecks); err != nil {
			_ = sqlStore.Close()
			return nil, err
		}
		scheduler = ruleScheduler
	}

	watchState := service.NewWatchStateManager(sink)
	progress := service.NewProgressManager(withProgress)

	orchestrator := service.NewOrchestrator(
		engines,
		tracker,
		store,
		scheduler,
		watchState,
		service.NewCrossoverDetector(),
		sink,
		progress,
	)

	return &system{
		orchestrator: orchestrator,
		scheduler:    scheduler,
		watchState:   watchState,
		storage:      store,
		progress:     progress,
	}, nil
}

// close releases the system's resources
func (s *system) close() {
	if s.progress != nil {
		s.progress.Close()
	}
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close storage: %v\n", err)
		}
	}
}
