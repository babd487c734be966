package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/app"
	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/domain"
	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/service"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	watchInterval   time.Duration
	watchConfigPath string
	watchQuiet      bool
)

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Continuously re-analyze a path",
		Long: `Start watch mode: run scheduled rule checks and a full analysis cycle on
an interval until interrupted. Ctrl-C stops the session gracefully,
draining in-flight work first.

Examples:
  sidequest watch src/
  sidequest watch --interval 10s src/
  sidequest watch --quiet src/`,
		Args: cobra.MaximumNArgs(1),
		RunE: runWatch,
	}

	cmd.Flags().DurationVarP(&watchInterval, "interval", "i", 0,
		"Delay between analysis cycles (overrides config)")
	cmd.Flags().StringVarP(&watchConfigPath, "config", "c", "",
		"Path to config file")
	cmd.Flags().BoolVarP(&watchQuiet, "quiet", "q", false,
		"Suppress per-cycle status lines")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}

	loader := service.NewConfigurationLoader()
	cfg, err := loader.LoadConfig(watchConfigPath, path)
	if err != nil {
		return err
	}

	var sink domain.EventSink = domain.NopSink{}
	if !watchQuiet && cfg.Watch.Display {
		sink = newPrintingSink()
	}

	sys, err := buildSystem(cfg, path, sink, false)
	if err != nil {
		return err
	}
	defer sys.close()

	opts := loader.ToWatchOptions(cfg, path)
	if watchInterval > 0 {
		opts.Interval = watchInterval
	}
	opts.Analyze.OutputWriter = nil

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	state := sys.watchState.GetState()
	fmt.Printf("Watching %s (session %s, interval %s). Ctrl-C to stop.\n",
		path, state.SessionID, opts.Interval)

	useCase := app.NewWatchUseCase(sys.orchestrator)
	if err := useCase.Execute(ctx, opts); err != nil {
		return err
	}
	fmt.Println("\nWatch session stopped.")
	return nil
}

// printingSink renders orchestration events as colored status lines.
// It implements domain.EventSink.
type printingSink struct {
	cycleColor *color.Color
	errColor   *color.Color
	ruleColor  *color.Color
}

func newPrintingSink() *printingSink {
	return &printingSink{
		cycleColor: color.New(color.FgGreen),
		errColor:   color.New(color.FgRed),
		ruleColor:  color.New(color.FgCyan),
	}
}

// Publish implements domain.EventSink
func (s *printingSink) Publish(event domain.Event) {
	switch e := event.(type) {
	case domain.CycleEvent:
		s.cycleColor.Printf("[%s] cycle #%d: %d violations (%d error, %d warn) in %s\n",
			e.Timestamp.Format("15:04:05"), e.CycleNumber, e.Total,
			e.BySeverity[domain.SeverityError], e.BySeverity[domain.SeverityWarn],
			e.Duration.Round(time.Millisecond))
	case domain.RuleEvent:
		switch e.Kind {
		case domain.EventRuleCompleted:
			s.ruleColor.Printf("[%s] rule %s (%s): %d findings\n",
				e.Timestamp.Format("15:04:05"), e.Rule, e.Engine, e.ViolationsFound)
		case domain.EventRuleFailed:
			s.errColor.Printf("[%s] rule %s (%s) failed: %s\n",
				e.Timestamp.Format("15:04:05"), e.Rule, e.Engine, e.Err)
		}
	case domain.WatchErrorEvent:
		s.errColor.Printf("[%s] %s error: %s\n",
			e.Timestamp.Format("15:04:05"), e.Op, e.Err)
	case domain.TransitionEvent:
		if !e.Accepted {
			s.errColor.Printf("[%s] rejected state transition %s -> %s\n",
				e.Timestamp.Format("15:04:05"), e.From, e.To)
		}
	}
}
