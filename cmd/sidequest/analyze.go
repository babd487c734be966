package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/app"
	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/domain"
	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/service"
	"github.com/spf13/cobra"
)

var (
	analyzeFormat      string
	analyzeJSON        bool
	analyzeDetails     bool
	analyzeStrategy    string
	analyzeConfigPath  string
	analyzeNoProgress  bool
	analyzeNoStorage   bool
	analyzeFailCritCro bool
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [path]",
		Short: "Run one analysis cycle",
		Long: `Run every enabled engine against the target path, merge and deduplicate
their findings, and print the result.

Examples:
  sidequest analyze src/
  sidequest analyze --format json src/
  sidequest analyze --dedup location --details src/
  sidequest analyze --no-storage src/`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().StringVarP(&analyzeFormat, "format", "f", "",
		"Output format: text, json, yaml, csv")
	cmd.Flags().BoolVar(&analyzeJSON, "json", false,
		"Output results as JSON (shorthand for --format json)")
	cmd.Flags().BoolVarP(&analyzeDetails, "details", "d", false,
		"Show the per-violation breakdown")
	cmd.Flags().StringVar(&analyzeStrategy, "dedup", "",
		"Dedup strategy: exact, location, similar, none")
	cmd.Flags().StringVarP(&analyzeConfigPath, "config", "c", "",
		"Path to config file")
	cmd.Flags().BoolVar(&analyzeNoProgress, "no-progress", false,
		"Disable progress output")
	cmd.Flags().BoolVar(&analyzeNoStorage, "no-storage", false,
		"Skip violation persistence for this run")
	cmd.Flags().BoolVar(&analyzeFailCritCro, "fail-on-crossover", false,
		"Fail when engines report conflicting findings at one position")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}

	loader := service.NewConfigurationLoader()
	cfg, err := loader.LoadConfig(analyzeConfigPath, path)
	if err != nil {
		return err
	}
	if analyzeNoStorage {
		cfg.Storage.Enabled = false
	}

	req := loader.ToAnalyzeRequest(cfg, path)
	if analyzeJSON {
		req.OutputFormat = domain.OutputFormatJSON
	} else if analyzeFormat != "" {
		req.OutputFormat = domain.OutputFormat(analyzeFormat)
	}
	if analyzeStrategy != "" {
		req.DedupStrategy = domain.DedupStrategy(analyzeStrategy)
	}
	if cmd.Flags().Changed("details") {
		req.ShowDetails = analyzeDetails
	}
	if cmd.Flags().Changed("fail-on-crossover") {
		req.FailOnCriticalCrossover = analyzeFailCritCro
	}
	// Progress belongs on a TTY rendering text, not in machine output
	req.NoProgress = analyzeNoProgress || req.OutputFormat != domain.OutputFormatText

	sys, err := buildSystem(cfg, path, domain.NopSink{}, !req.NoProgress)
	if err != nil {
		return err
	}
	defer sys.close()

	useCase, err := app.NewAnalyzeUseCaseBuilder().
		WithOrchestrator(sys.orchestrator).
		WithFormatter(service.NewOutputFormatter()).
		Build()
	if err != nil {
		return err
	}

	result, err := useCase.Execute(context.Background(), req)
	if err != nil {
		return err
	}

	for _, warning := range result.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
	}
	return nil
}
