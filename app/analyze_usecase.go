package app

import (
	"context"
	"os"

	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/domain"
)

// AnalyzeUseCase runs one analysis cycle and writes the formatted result
type AnalyzeUseCase struct {
	orchestrator domain.Orchestrator
	formatter    domain.OutputFormatter
}

// NewAnalyzeUseCase creates a new analyze use case
func NewAnalyzeUseCase(orchestrator domain.Orchestrator, formatter domain.OutputFormatter) *AnalyzeUseCase {
	return &AnalyzeUseCase{
		orchestrator: orchestrator,
		formatter:    formatter,
	}
}

// Execute validates the request, runs the cycle and writes the output
func (uc *AnalyzeUseCase) Execute(ctx context.Context, req *domain.AnalyzeRequest) (*domain.OrchestratorResult, error) {
	if err := validateAnalyzeRequest(req); err != nil {
		return nil, err
	}

	result, err := uc.orchestrator.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}

	if req.OutputWriter != nil && uc.formatter != nil {
		if err := uc.formatter.Write(result, req.OutputFormat, req.ShowDetails, req.OutputWriter); err != nil {
			return result, err
		}
	}
	return result, nil
}

// validateAnalyzeRequest checks the request before any engine runs
func validateAnalyzeRequest(req *domain.AnalyzeRequest) error {
	if req == nil || req.Path == "" {
		return domain.NewInvalidInputError("no target path specified", nil)
	}
	if _, err := os.Stat(req.Path); err != nil {
		if os.IsNotExist(err) {
			return domain.NewFileNotFoundError(req.Path, err)
		}
		return domain.NewInvalidInputError("cannot access target path", err)
	}
	if req.OutputFormat != "" && !req.OutputFormat.IsValid() {
		return domain.NewUnsupportedFormatError(string(req.OutputFormat))
	}
	if req.DedupStrategy != "" && !req.DedupStrategy.IsValid() {
		return domain.NewInvalidInputError("unknown dedup strategy: "+string(req.DedupStrategy), nil)
	}
	return nil
}

// AnalyzeUseCaseBuilder builds an AnalyzeUseCase
type AnalyzeUseCaseBuilder struct {
	orchestrator domain.Orchestrator
	formatter    domain.OutputFormatter
}

// NewAnalyzeUseCaseBuilder creates a new builder
func NewAnalyzeUseCaseBuilder() *AnalyzeUseCaseBuilder {
	return &AnalyzeUseCaseBuilder{}
}

// WithOrchestrator sets the orchestrator
func (b *AnalyzeUseCaseBuilder) WithOrchestrator(o domain.Orchestrator) *AnalyzeUseCaseBuilder {
	b.orchestrator = o
	return b
}

// WithFormatter sets the output formatter
func (b *AnalyzeUseCaseBuilder) WithFormatter(f domain.OutputFormatter) *AnalyzeUseCaseBuilder {
	b.formatter = f
	return b
}

// Build creates the AnalyzeUseCase
func (b *AnalyzeUseCaseBuilder) Build() (*AnalyzeUseCase, error) {
	if b.orchestrator == nil {
		return nil, domain.NewInvalidInputError("analyze use case requires an orchestrator", nil)
	}
	return &AnalyzeUseCase{
		orchestrator: b.orchestrator,
		formatter:    b.formatter,
	}, nil
}
