package app

import (
	"context"

	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/domain"
)

// CheckOutcome is the CI-gate verdict of one analysis cycle
type CheckOutcome struct {
	// Result is the full analysis result
	Result *domain.OrchestratorResult

	// FailingCount is the number of violations at or above the threshold
	FailingCount int

	// Passed indicates the check gate succeeded
	Passed bool
}

// CheckUseCase runs an analysis cycle as a pass/fail quality gate
type CheckUseCase struct {
	orchestrator domain.Orchestrator
}

// NewCheckUseCase creates a new check use case
func NewCheckUseCase(orchestrator domain.Orchestrator) *CheckUseCase {
	return &CheckUseCase{orchestrator: orchestrator}
}

// Execute runs one cycle and grades it: the check fails when any violation
// at or above failOn severity remains after deduplication
func (uc *CheckUseCase) Execute(ctx context.Context, req *domain.AnalyzeRequest, failOn domain.Severity) (*CheckOutcome, error) {
	if !failOn.IsValid() {
		return nil, domain.NewInvalidInputError("unknown fail-on severity: "+string(failOn), nil)
	}
	if err := validateAnalyzeRequest(req); err != nil {
		return nil, err
	}

	result, err := uc.orchestrator.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}

	failing := 0
	threshold := failOn.Rank()
	for _, v := range result.Violations {
		if v.Severity.Rank() <= threshold {
			failing++
		}
	}

	return &CheckOutcome{
		Result:       result,
		FailingCount: failing,
		Passed:       failing == 0,
	}, nil
}
