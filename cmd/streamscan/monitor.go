package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/streamscan/streamscan/internal/config"
	"github.com/streamscan/streamscan/internal/monitor"
	"github.com/streamscan/streamscan/internal/report"
)

// NewMonitorCmd creates the monitor command.
func NewMonitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor [url...]",
		Short: "Continuously verify that known streams stay live",
		Long: `Re-verify known stream URLs on a fixed interval until interrupted.

Without arguments, the monitor seeds itself from the results file
written by a previous scan. Streams that keep answering are tracked in
the active-streams document; streams that stay silent past the
staleness threshold are expired into the history document. The monitor
resumes from the active document on restart.`,
		Example: `  # Monitor everything the last scan found
  streamscan monitor

  # Monitor two specific streams every 30 seconds
  streamscan monitor --interval 30s rtsp://192.168.1.30:554/live http://192.168.1.40:8080/video.mp4`,
		RunE: runMonitorCmd,
	}

	cmd.Flags().DurationP("interval", "i", config.DefaultMonitorInterval, "Pause between verification cycles")
	cmd.Flags().Duration("staleness", config.DefaultStaleness, "Expire streams unseen for this long")
	cmd.Flags().String("results", config.DefaultResultsFile, "URL list used to seed the monitor")
	cmd.Flags().String("active-file", config.DefaultActiveFile, "Active-streams JSON document")
	cmd.Flags().String("history-file", config.DefaultHistoryFile, "Stream-history JSON document")

	return cmd
}

// runMonitorCmd is the entry point for the monitor command.
func runMonitorCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildMonitorConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		logger.Warn("interrupt received, stopping monitor")
		cancel()
	}()

	seeds := args
	if len(seeds) == 0 {
		seeds, err = report.ReadURLList(cfg.ResultsFile)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", cfg.ResultsFile, err)
		}
	}
	if len(seeds) == 0 {
		return fmt.Errorf("no streams to monitor (run a scan first, or pass URLs as arguments)")
	}

	return runMonitor(ctx, cfg, seeds, logger)
}

// buildMonitorConfig builds the monitor configuration from command flags.
func buildMonitorConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	if cfg.MonitorInterval, err = cmd.Flags().GetDuration("interval"); err != nil {
		return nil, fmt.Errorf("failed to get interval flag: %w", err)
	}
	if cfg.Staleness, err = cmd.Flags().GetDuration("staleness"); err != nil {
		return nil, fmt.Errorf("failed to get staleness flag: %w", err)
	}
	if cfg.ResultsFile, err = cmd.Flags().GetString("results"); err != nil {
		return nil, fmt.Errorf("failed to get results flag: %w", err)
	}
	if cfg.ActiveFile, err = cmd.Flags().GetString("active-file"); err != nil {
		return nil, fmt.Errorf("failed to get active-file flag: %w", err)
	}
	if cfg.HistoryFile, err = cmd.Flags().GetString("history-file"); err != nil {
		return nil, fmt.Errorf("failed to get history-file flag: %w", err)
	}

	return cfg, nil
}

// runMonitor runs the liveness monitor over the given seed URLs until
// the context is cancelled. Cancellation is the normal way to stop the
// monitor and is not reported as an error.
func runMonitor(ctx context.Context, cfg *config.Config, seeds []string, logger *slog.Logger) error {
	active := report.NewDocumentStore(cfg.ActiveFile, logger)
	history := report.NewDocumentStore(cfg.HistoryFile, logger)

	mon := monitor.New(active, history,
		monitor.WithInterval(cfg.MonitorInterval),
		monitor.WithStaleness(cfg.Staleness),
		monitor.WithErrorBackoff(cfg.ErrorBackoff),
		monitor.WithLogger(logger),
	)

	err := mon.Start(ctx, seeds)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
