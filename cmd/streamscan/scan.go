package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/streamscan/streamscan/internal/catalog"
	"github.com/streamscan/streamscan/internal/config"
	"github.com/streamscan/streamscan/internal/database"
	applog "github.com/streamscan/streamscan/internal/log"
	"github.com/streamscan/streamscan/internal/model"
	"github.com/streamscan/streamscan/internal/netrange"
	"github.com/streamscan/streamscan/internal/probe"
	"github.com/streamscan/streamscan/internal/report"
	"github.com/streamscan/streamscan/internal/scanner"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [host...]",
		Short: "Discover live media streams on the network",
		Long: `Scan hosts for live media streams.

Without arguments, streamscan derives the /24 subnet of the local
interface and scans all 254 hosts. A different range can be given with
--cidr, explicit hosts as arguments, and mDNS responders can be merged
in with --mdns.

Every answering port is verified with a protocol-level probe (RTSP
handshake, HLS/DASH playlist fetch, WebSocket upgrade, content
sniffing), so the report only lists endpoints that actually behave
like streams. Discovered URLs are also written to a plain-text results
file for later monitoring.

Each scan is recorded in a SQLite history database under the XDG data
directory, so stream sightings can be compared across scans.`,
		Example: `  # Scan the local /24 subnet
  streamscan scan

  # Scan a specific range, skipping the gateway
  streamscan scan --cidr 192.168.1.0/24 --exclude 192.168.1.1

  # Scan two known hosts and keep monitoring what was found
  streamscan scan --monitor 192.168.1.30 192.168.1.31`,
		RunE: runScanCmd,
	}

	cmd.Flags().StringP("cidr", "r", "", "CIDR range to scan (default: local /24 subnet)")
	cmd.Flags().StringSliceP("exclude", "x", nil, "CIDR blocks or addresses that are never scanned")
	cmd.Flags().Bool("mdns", false, "Merge mDNS responders into the target list")
	cmd.Flags().IntP("concurrency", "n", config.DefaultHostConcurrency, "Maximum hosts scanned in parallel")
	cmd.Flags().Int("gate", config.DefaultConnectionGate, "Maximum simultaneous TCP connection attempts")
	cmd.Flags().Int("retries", config.DefaultConnectRetries, "TCP reachability attempts per port")
	cmd.Flags().DurationP("timeout", "t", config.DefaultConnectTimeout, "Per-attempt TCP connect timeout")
	cmd.Flags().Duration("pace", config.DefaultPortPace, "Pause between port checks on one host")
	cmd.Flags().StringP("config", "c", "", "Path to configuration file (default: .streamscan)")
	cmd.Flags().BoolP("json", "j", false, "Output report in JSON format")
	cmd.Flags().BoolP("markdown", "m", false, "Output report in Markdown format")
	cmd.Flags().StringP("output", "o", "", "Write report to file instead of stdout")
	cmd.Flags().String("results", config.DefaultResultsFile, "Plain-text file for discovered stream URLs")
	cmd.Flags().Bool("monitor", false, "Keep verifying discovered streams after the scan")

	return cmd
}

// runScanCmd is the entry point for the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
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

	// First signal cancels the scan gracefully; the partial report is
	// still written.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		logger.Warn("interrupt received, stopping scan")
		cancel()
	}()

	return runScan(ctx, cfg, logger)
}

// buildConfig builds the scan configuration from command flags and the
// optional configuration file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Hosts = args
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	if cfg.CIDR, err = cmd.Flags().GetString("cidr"); err != nil {
		return nil, fmt.Errorf("failed to get cidr flag: %w", err)
	}
	if cfg.Exclude, err = cmd.Flags().GetStringSlice("exclude"); err != nil {
		return nil, fmt.Errorf("failed to get exclude flag: %w", err)
	}
	if cfg.UseMDNS, err = cmd.Flags().GetBool("mdns"); err != nil {
		return nil, fmt.Errorf("failed to get mdns flag: %w", err)
	}
	if cfg.HostConcurrency, err = cmd.Flags().GetInt("concurrency"); err != nil {
		return nil, fmt.Errorf("failed to get concurrency flag: %w", err)
	}
	if cfg.ConnectionGate, err = cmd.Flags().GetInt("gate"); err != nil {
		return nil, fmt.Errorf("failed to get gate flag: %w", err)
	}
	if cfg.ConnectRetries, err = cmd.Flags().GetInt("retries"); err != nil {
		return nil, fmt.Errorf("failed to get retries flag: %w", err)
	}
	if cfg.ConnectTimeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
		return nil, fmt.Errorf("failed to get timeout flag: %w", err)
	}
	if cfg.PortPace, err = cmd.Flags().GetDuration("pace"); err != nil {
		return nil, fmt.Errorf("failed to get pace flag: %w", err)
	}
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return nil, fmt.Errorf("failed to get json flag: %w", err)
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return nil, fmt.Errorf("failed to get markdown flag: %w", err)
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return nil, fmt.Errorf("failed to get output flag: %w", err)
	}
	if cfg.ResultsFile, err = cmd.Flags().GetString("results"); err != nil {
		return nil, fmt.Errorf("failed to get results flag: %w", err)
	}
	if cfg.Monitor, err = cmd.Flags().GetBool("monitor"); err != nil {
		return nil, fmt.Errorf("failed to get monitor flag: %w", err)
	}
	if cfg.ConfigFilePath, err = cmd.Flags().GetString("config"); err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	// An explicitly specified config file must exist; the default search
	// locations are optional.
	if cfg.ConfigFilePath != "" {
		found := config.FindConfigFile(cfg.ConfigFilePath)
		if found == "" {
			return nil, fmt.Errorf("config file not found: %s", cfg.ConfigFilePath)
		}
		if err := config.LoadConfigFile(found, cfg); err != nil {
			return nil, err
		}
	} else if found := config.FindConfigFile(""); found != "" {
		if err := config.LoadConfigFile(found, cfg); err != nil {
			return nil, err
		}
	}

	// Sessions are always recorded in the XDG data directory.
	cfg.SaveToDB = true
	cfg.DBDir = config.XDGDataDir()

	return cfg, nil
}

// getVerboseFlag retrieves the verbose flag, checking the command's own
// flags first and falling back to the root command's persistent flags.
func getVerboseFlag(cmd *cobra.Command) bool {
	if verbose, err := cmd.Flags().GetBool("verbose"); err == nil && verbose {
		return true
	}
	if root := cmd.Root(); root != nil && root != cmd {
		if verbose, err := root.PersistentFlags().GetBool("verbose"); err == nil {
			return verbose
		}
	}
	return false
}

// setupLogger creates the application logger. Warnings and errors only
// by default; --verbose enables debug output. Stream URLs carrying
// credentials are redacted before they reach the log.
func setupLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return applog.NewLogger(os.Stderr, level)
}

// runScan resolves the target host list, scans it, and emits the
// report, results file, and database session.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	started := time.Now()

	hosts, err := resolveTargets(ctx, cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("targets resolved", "hosts", len(hosts))

	cat := catalog.Default()
	if len(cfg.CatalogOverrides) > 0 {
		if err := cat.Apply(cfg.CatalogOverrides); err != nil {
			return fmt.Errorf("invalid catalog overrides: %w", err)
		}
	}

	gate := probe.New(cfg.ConnectionGate,
		probe.WithRetries(cfg.ConnectRetries),
		probe.WithTimeout(cfg.ConnectTimeout),
		probe.WithRetryDelay(cfg.RetryDelay),
		probe.WithLogger(logger),
	)
	hostScanner := scanner.NewHostScanner(cat, gate,
		scanner.WithPortPace(cfg.PortPace),
		scanner.WithHostLogger(logger),
	)
	coordinator := scanner.NewScanCoordinator(hostScanner,
		scanner.WithHostConcurrency(cfg.HostConcurrency),
		scanner.WithCoordinatorLogger(logger),
	)

	// Progress goes to stderr so it never interleaves with a report
	// written to stdout.
	progressDone := make(chan struct{})
	go reportProgress(ctx, progressDone, coordinator, os.Stderr)

	set, scanErr := coordinator.ScanNetwork(ctx, hosts)
	close(progressDone)

	if scanErr != nil && !errors.Is(scanErr, context.Canceled) {
		return scanErr
	}

	rpt := model.NewScanReport(started, time.Now(), coordinator.Progress(), set)

	if cfg.ResultsFile != "" {
		if err := report.WriteURLList(cfg.ResultsFile, rpt.URLs()); err != nil {
			return fmt.Errorf("failed to write results file: %w", err)
		}
		logger.Info("results written", "path", cfg.ResultsFile, "streams", len(rpt.Streams))
	}

	if err := outputReport(cfg, rpt); err != nil {
		return err
	}

	if cfg.SaveToDB && cfg.DBDir != "" {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			logger.Warn("history database unavailable", "error", err)
		} else {
			defer func() { _ = db.Close() }()
			if err := saveScanReport(context.WithoutCancel(ctx), db, rpt, logger); err != nil {
				logger.Warn("failed to record scan session", "error", err)
			}
		}
	}

	// An interrupted scan still reports partial results, but should not
	// fall through into monitoring.
	if errors.Is(scanErr, context.Canceled) {
		return nil
	}

	if cfg.Monitor {
		return runMonitor(ctx, cfg, rpt.URLs(), logger)
	}
	return nil
}

// resolveTargets builds the final host list: explicit hosts, a CIDR
// range, or the local /24 subnet, optionally merged with mDNS
// responders and filtered through the exclusion list.
func resolveTargets(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]string, error) {
	var hosts []string
	switch {
	case len(cfg.Hosts) > 0:
		hosts = netrange.Merge(cfg.Hosts)
	case cfg.CIDR != "":
		expanded, err := netrange.ExpandCIDR(cfg.CIDR)
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR range %q: %w", cfg.CIDR, err)
		}
		hosts = expanded
	default:
		local, err := netrange.LocalSubnetHosts()
		if err != nil {
			return nil, fmt.Errorf("failed to derive local subnet (specify hosts or --cidr): %w", err)
		}
		hosts = local
	}

	if cfg.UseMDNS {
		src := netrange.NewMDNSSource(
			netrange.WithMDNSTimeout(cfg.MDNSTimeout),
			netrange.WithMDNSLogger(logger),
		)
		responders, err := src.Hosts(ctx)
		if err != nil {
			logger.Warn("mDNS discovery failed, continuing without it", "error", err)
		} else {
			hosts = netrange.Merge(hosts, responders)
		}
	}

	excluder, err := netrange.NewExcluder(cfg.Exclude)
	if err != nil {
		return nil, fmt.Errorf("invalid exclusion list: %w", err)
	}
	return excluder.Filter(hosts), nil
}

// reportProgress periodically rewrites a one-line progress counter
// until the scan finishes or the context is cancelled.
func reportProgress(ctx context.Context, done <-chan struct{}, c *scanner.ScanCoordinator, w io.Writer) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			snap := c.Progress()
			fmt.Fprintf(w, "\rscanned %d/%d [%d ok, %d failed]\n",
				snap.Scanned, snap.Total, snap.Successful, snap.Failed)
			return
		case <-ticker.C:
			snap := c.Progress()
			fmt.Fprintf(w, "\rscanned %d/%d [%d ok, %d failed]",
				snap.Scanned, snap.Total, snap.Successful, snap.Failed)
		}
	}
}

// outputReport writes the scan report in the configured format to
// stdout or the configured report file.
func outputReport(cfg *config.Config, rpt *model.ScanReport) error {
	var out io.Writer = os.Stdout
	if cfg.ReportFile != "" {
		if dir := filepath.Dir(cfg.ReportFile); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("failed to create report directory: %w", err)
			}
		}
		f, err := os.OpenFile(cfg.ReportFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(out, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(out)
	default:
		w = report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	}

	if _, err := w.Write(rpt); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// saveScanReport records the scan session in the history database.
// A nil database is a no-op so callers don't need to branch.
func saveScanReport(ctx context.Context, db *database.StreamDB, rpt *model.ScanReport, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	id, err := db.RecordSession(ctx, rpt)
	if err != nil {
		return err
	}
	logger.Info("scan session recorded", "session_id", id, "streams", len(rpt.Streams))
	return nil
}
