package app

import (
	"context"
	"time"

	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/domain"
)

// StopTimeout bounds the graceful drain when a watch session ends
const StopTimeout = 30 * time.Second

// WatchUseCase drives a continuous watch session
type WatchUseCase struct {
	orchestrator domain.Orchestrator
}

// NewWatchUseCase creates a new watch use case
func NewWatchUseCase(orchestrator domain.Orchestrator) *WatchUseCase {
	return &WatchUseCase{orchestrator: orchestrator}
}

// Execute starts watch mode and blocks until ctx is cancelled, then drains
// in-flight work before returning. The drain uses a fresh timeout context
// because ctx is already cancelled at that point.
func (uc *WatchUseCase) Execute(ctx context.Context, opts domain.WatchOptions) error {
	if err := validateAnalyzeRequest(&opts.Analyze); err != nil {
		return err
	}

	if err := uc.orchestrator.StartWatchMode(ctx, opts); err != nil {
		return err
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), StopTimeout)
	defer cancel()
	return uc.orchestrator.StopWatchMode(stopCtx)
}
