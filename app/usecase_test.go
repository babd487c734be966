package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/domain"
	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/internal/testutil"
)

// mockOrchestrator is a scriptable domain.Orchestrator for use case tests
type mockOrchestrator struct {
	result       *domain.OrchestratorResult
	err          error
	analyzeCalls int
	watchStarted bool
	watchStopped bool
	startErr     error
}

func (m *mockOrchestrator) Analyze(ctx context.Context, req *domain.AnalyzeRequest) (*domain.OrchestratorResult, error) {
	m.analyzeCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockOrchestrator) StartWatchMode(ctx context.Context, opts domain.WatchOptions) error {
	if m.startErr != nil {
		return m.startErr
	}
	m.watchStarted = true
	return nil
}

func (m *mockOrchestrator) StopWatchMode(ctx context.Context) error {
	m.watchStopped = true
	return nil
}

func (m *mockOrchestrator) HealthCheck(ctx context.Context) domain.HealthStatus {
	return domain.HealthStatus{Overall: domain.HealthHealthy}
}

func (m *mockOrchestrator) GetSystemStats() domain.SystemStats {
	return domain.SystemStats{}
}

// mockFormatter records Write calls
type mockFormatter struct {
	writes int
	err    error
}

func (m *mockFormatter) Format(result *domain.OrchestratorResult, format domain.OutputFormat, showDetails bool) (string, error) {
	return "", m.err
}

func (m *mockFormatter) Write(result *domain.OrchestratorResult, format domain.OutputFormat, showDetails bool, writer io.Writer) error {
	m.writes++
	return m.err
}

func resultWith(violations ...domain.Violation) *domain.OrchestratorResult {
	return &domain.OrchestratorResult{
		Violations: violations,
		Summary:    domain.ViolationSummary{Total: len(violations)},
		Timestamp:  time.Now(),
	}
}

func TestAnalyzeUseCaseExecute(t *testing.T) {
	orchestrator := &mockOrchestrator{result: resultWith(testutil.MakeViolation(nil))}
	formatter := &mockFormatter{}
	uc := NewAnalyzeUseCase(orchestrator, formatter)

	var buf bytes.Buffer
	req := &domain.AnalyzeRequest{
		Path:         t.TempDir(),
		OutputFormat: domain.OutputFormatText,
		OutputWriter: &buf,
	}

	result, err := uc.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Summary.Total != 1 {
		t.Errorf("Unexpected result: %+v", result.Summary)
	}
	if formatter.writes != 1 {
		t.Errorf("Expected 1 formatter write, got %d", formatter.writes)
	}
}

func TestAnalyzeUseCaseValidation(t *testing.T) {
	uc := NewAnalyzeUseCase(&mockOrchestrator{result: resultWith()}, nil)
	ctx := context.Background()

	if _, err := uc.Execute(ctx, nil); err == nil {
		t.Error("Expected error for nil request")
	}
	if _, err := uc.Execute(ctx, &domain.AnalyzeRequest{Path: "/nonexistent/path"}); err == nil {
		t.Error("Expected error for missing path")
	}

	req := &domain.AnalyzeRequest{Path: t.TempDir(), OutputFormat: "html"}
	if _, err := uc.Execute(ctx, req); err == nil {
		t.Error("Expected error for invalid format")
	}

	req = &domain.AnalyzeRequest{Path: t.TempDir(), DedupStrategy: "fuzzy"}
	if _, err := uc.Execute(ctx, req); err == nil {
		t.Error("Expected error for invalid dedup strategy")
	}
}

func TestAnalyzeUseCaseSkipsWriteWithoutWriter(t *testing.T) {
	formatter := &mockFormatter{}
	uc := NewAnalyzeUseCase(&mockOrchestrator{result: resultWith()}, formatter)

	req := &domain.AnalyzeRequest{Path: t.TempDir()}
	if _, err := uc.Execute(context.Background(), req); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if formatter.writes != 0 {
		t.Errorf("Expected no writes without a writer, got %d", formatter.writes)
	}
}

func TestAnalyzeUseCaseBuilder(t *testing.T) {
	if _, err := NewAnalyzeUseCaseBuilder().Build(); err == nil {
		t.Error("Expected builder to require an orchestrator")
	}

	uc, err := NewAnalyzeUseCaseBuilder().
		WithOrchestrator(&mockOrchestrator{result: resultWith()}).
		WithFormatter(&mockFormatter{}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if uc == nil {
		t.Fatal("Build returned nil use case")
	}
}

func TestCheckUseCaseGrades(t *testing.T) {
	violations := []domain.Violation{
		testutil.MakeViolation(func(v *domain.Violation) { v.Severity = domain.SeverityError }),
		testutil.MakeViolation(func(v *domain.Violation) { v.Line = 20 }), // warn
		testutil.MakeViolation(func(v *domain.Violation) { v.Line = 30; v.Severity = domain.SeverityInfo }),
	}

	tests := []struct {
		name        string
		failOn      domain.Severity
		wantFailing int
		wantPassed  bool
	}{
		{"fail on error", domain.SeverityError, 1, false},
		{"fail on warn", domain.SeverityWarn, 2, false},
		{"fail on info", domain.SeverityInfo, 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewCheckUseCase(&mockOrchestrator{result: resultWith(violations...)})
			outcome, err := uc.Execute(context.Background(),
				&domain.AnalyzeRequest{Path: t.TempDir()}, tt.failOn)
			if err != nil {
				t.Fatalf("Execute failed: %v", err)
			}
			if outcome.FailingCount != tt.wantFailing {
				t.Errorf("Expected %d failing, got %d", tt.wantFailing, outcome.FailingCount)
			}
			if outcome.Passed != tt.wantPassed {
				t.Errorf("Expected passed=%t, got %t", tt.wantPassed, outcome.Passed)
			}
		})
	}
}

func TestCheckUseCasePassesOnCleanResult(t *testing.T) {
	uc := NewCheckUseCase(&mockOrchestrator{result: resultWith(
		testutil.MakeViolation(func(v *domain.Violation) { v.Severity = domain.SeverityInfo }),
	)})

	outcome, err := uc.Execute(context.Background(),
		&domain.AnalyzeRequest{Path: t.TempDir()}, domain.SeverityError)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !outcome.Passed {
		t.Error("Info findings must not fail an error-level gate")
	}
}

func TestCheckUseCaseValidation(t *testing.T) {
	uc := NewCheckUseCase(&mockOrchestrator{result: resultWith()})

	if _, err := uc.Execute(context.Background(),
		&domain.AnalyzeRequest{Path: t.TempDir()}, "fatal"); err == nil {
		t.Error("Expected error for unknown fail-on severity")
	}
}

func TestCheckUseCasePropagatesAnalysisError(t *testing.T) {
	uc := NewCheckUseCase(&mockOrchestrator{err: errors.New("engines exploded")})

	if _, err := uc.Execute(context.Background(),
		&domain.AnalyzeRequest{Path: t.TempDir()}, domain.SeverityError); err == nil {
		t.Error("Expected the analysis error to propagate")
	}
}

func TestWatchUseCaseLifecycle(t *testing.T) {
	orchestrator := &mockOrchestrator{result: resultWith()}
	uc := NewWatchUseCase(orchestrator)

	ctx, cancel := context.WithCancel(context.Background())
	opts := domain.WatchOptions{
		Interval: time.Second,
		Analyze:  domain.AnalyzeRequest{Path: t.TempDir()},
	}

	done := make(chan error, 1)
	go func() { done <- uc.Execute(ctx, opts) }()

	// Give the session time to start, then cancel
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Execute did not return after cancellation")
	}

	if !orchestrator.watchStarted || !orchestrator.watchStopped {
		t.Errorf("Expected start and stop, got started=%t stopped=%t",
			orchestrator.watchStarted, orchestrator.watchStopped)
	}
}

func TestWatchUseCaseStartFailure(t *testing.T) {
	orchestrator := &mockOrchestrator{startErr: errors.New("already running")}
	uc := NewWatchUseCase(orchestrator)

	opts := domain.WatchOptions{
		Interval: time.Second,
		Analyze:  domain.AnalyzeRequest{Path: t.TempDir()},
	}
	if err := uc.Execute(context.Background(), opts); err == nil {
		t.Error("Expected the start failure to propagate")
	}
	if orchestrator.watchStopped {
		t.Error("Stop must not run after a failed start")
	}
}
