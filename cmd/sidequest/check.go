package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/app"
	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/domain"
	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/service"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// CheckExitError is a custom error type for check command exit codes
type CheckExitError struct {
	Code    int
	Message string
}

func (e *CheckExitError) Error() string {
	return e.Message
}

var (
	checkFailOn     string
	checkJSON       bool
	checkConfigPath string
)

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [path]",
		Short: "Quality gate for CI/CD pipelines",
		Long: `Run one analysis cycle as a pass/fail gate.

Exit codes:
  0 - No violations at or above the fail-on severity
  1 - Violations at or above the fail-on severity remain
  2 - Analysis error (path not found, engine setup failure, etc.)

Examples:
  # Fail on errors only (default)
  sidequest check src/

  # Fail on warnings too
  sidequest check --fail-on warn src/

  # JSON output for machine parsing
  sidequest check --json src/`,
		RunE:          runCheck,
		SilenceUsage:  true, // Don't print usage on errors (we handle our own output)
		SilenceErrors: true, // Don't print error messages (we handle our own output)
	}

	cmd.Flags().StringVar(&checkFailOn, "fail-on", "error",
		"Lowest severity that fails the check: error, warn, info")
	cmd.Flags().BoolVar(&checkJSON, "json", false,
		"Output results as JSON")
	cmd.Flags().StringVarP(&checkConfigPath, "config", "c", "",
		"Path to config file")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}

	loader := service.NewConfigurationLoader()
	cfg, err := loader.LoadConfig(checkConfigPath, path)
	if err != nil {
		return &CheckExitError{Code: 2, Message: fmt.Sprintf("failed to load configuration: %v", err)}
	}
	// The gate is read-only: no lifecycle tracking from CI runs
	cfg.Storage.Enabled = false

	req := loader.ToAnalyzeRequest(cfg, path)
	req.NoProgress = true
	req.OutputWriter = nil
	if checkJSON {
		req.OutputFormat = domain.OutputFormatJSON
	}

	sys, err := buildSystem(cfg, path, domain.NopSink{}, false)
	if err != nil {
		return &CheckExitError{Code: 2, Message: err.Error()}
	}
	defer sys.close()

	useCase := app.NewCheckUseCase(sys.orchestrator)
	outcome, err := useCase.Execute(context.Background(), req, domain.Severity(checkFailOn))
	if err != nil {
		return &CheckExitError{Code: 2, Message: err.Error()}
	}

	if checkJSON {
		formatter := service.NewOutputFormatter()
		if err := formatter.Write(outcome.Result, domain.OutputFormatJSON, true, os.Stdout); err != nil {
			return &CheckExitError{Code: 2, Message: err.Error()}
		}
	} else {
		printCheckSummary(outcome)
	}

	if !outcome.Passed {
		return &CheckExitError{Code: 1}
	}
	return nil
}

// printCheckSummary prints the human-readable gate verdict
func printCheckSummary(outcome *app.CheckOutcome) {
	summary := outcome.Result.Summary
	fmt.Printf("Checked: %d violations (%d error, %d warn, %d info)\n",
		summary.Total,
		summary.BySeverity[domain.SeverityError],
		summary.BySeverity[domain.SeverityWarn],
		summary.BySeverity[domain.SeverityInfo])

	if outcome.Passed {
		color.Green("PASS")
		return
	}
	color.Red("FAIL: %d violations at or above --fail-on severity", outcome.FailingCount)
}
