package scanner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/streamscan/streamscan/internal/config"
	"github.com/streamscan/streamscan/internal/model"
)

// ScanCoordinator fans host scans out across a target list.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each host gets its own goroutine, but only 'concurrency' goroutines
// run simultaneously. Host failures never propagate through the group:
// an isolated prober error is recorded in the progress counters and the
// remaining hosts keep scanning.
type ScanCoordinator struct {
	// scanner performs the per-host work. It is shared so all hosts
	// count against one connection gate.
	scanner *HostScanner

	// concurrency is the maximum number of hosts scanned in parallel.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// progress tracks the current batch. Replaced at the start of each
	// ScanNetwork call.
	mu       sync.Mutex
	progress *model.ScanProgress
}

// CoordinatorOption configures a ScanCoordinator.
type CoordinatorOption func(*ScanCoordinator)

// WithHostConcurrency sets the maximum number of hosts scanned in
// parallel. Non-positive values keep the default.
func WithHostConcurrency(n int) CoordinatorOption {
	return func(c *ScanCoordinator) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithCoordinatorLogger sets a custom logger.
func WithCoordinatorLogger(logger *slog.Logger) CoordinatorOption {
	return func(c *ScanCoordinator) {
		c.logger = logger
	}
}

// NewScanCoordinator creates a coordinator over the given host scanner.
func NewScanCoordinator(scanner *HostScanner, opts ...CoordinatorOption) *ScanCoordinator {
	c := &ScanCoordinator{
		scanner:     scanner,
		concurrency: config.DefaultHostConcurrency,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c
}

// ScanNetwork scans every host in the list and returns the merged
// candidate set.
//
// An empty host list returns an empty set without spawning any
// goroutines. Context cancellation stops admission of new hosts; the
// accumulated partial set is still returned along with ctx.Err().
func (c *ScanCoordinator) ScanNetwork(ctx context.Context, hosts []string) (model.CandidateSet, error) {
	results := model.NewCandidateSet()
	if len(hosts) == 0 {
		return results, nil
	}

	c.logger.Info("starting network scan",
		"total_hosts", len(hosts),
		"concurrency", c.concurrency,
	)
	start := time.Now()

	progress := model.NewScanProgress(len(hosts))
	c.mu.Lock()
	c.progress = progress
	c.mu.Unlock()

	var resultMu sync.Mutex

	// A bare Group rather than WithContext: one host's failure must not
	// cancel its siblings, and Scan never returns a fatal error.
	g := new(errgroup.Group)
	g.SetLimit(c.concurrency)

	for _, host := range hosts {
		if ctx.Err() != nil {
			break
		}

		g.Go(func() error {
			// Admission raced cancellation: no scan ran, so the
			// counters stay untouched.
			if ctx.Err() != nil {
				return nil
			}

			set, err := c.scanner.Scan(ctx, host)
			if err != nil {
				c.logger.Warn("host scan had failures",
					"host", host,
					"error", err,
				)
			}
			progress.HostDone(err == nil)

			resultMu.Lock()
			results.Merge(set)
			resultMu.Unlock()
			return nil
		})
	}

	_ = g.Wait()

	snap := progress.Snapshot()
	c.logger.Info("network scan complete",
		"scanned", snap.Scanned,
		"successful", snap.Successful,
		"failed", snap.Failed,
		"streams_found", len(results),
		"elapsed", time.Since(start),
	)

	return results, ctx.Err()
}

// Progress returns a snapshot of the current batch's counters.
// Before the first ScanNetwork call it reports an empty batch.
func (c *ScanCoordinator) Progress() model.ProgressSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.progress == nil {
		return model.ProgressSnapshot{}
	}
	return c.progress.Snapshot()
}
