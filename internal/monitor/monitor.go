package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/streamscan/streamscan/internal/config"
	"github.com/streamscan/streamscan/internal/model"
	"github.com/streamscan/streamscan/internal/report"
)

// Monitor re-verifies stream URLs in a fixed-interval loop.
//
// Each cycle probes the union of the seed set and all currently active
// URLs, then sweeps the registry for records whose LastActive has gone
// past the staleness threshold. Stale records are flipped inactive,
// appended to the history document, and evicted; a later rediscovery of
// the same URL starts a fresh record.
//
// Design decision: The stop request is observed at the top of each
// cycle rather than preemptively. A cycle's probes respect the caller's
// context, so worst-case stop latency is one interval plus in-flight
// probe timeouts, which keeps the loop body free of interleaved
// shutdown checks.
type Monitor struct {
	verifier Verifier

	// active and history are the persisted stream documents.
	active  *report.DocumentStore
	history *report.DocumentStore

	// registry holds the live records keyed by URL. Mutated only from
	// the monitor loop goroutine; guarded for the Active() accessor.
	mu       sync.Mutex
	registry map[string]*model.ActiveStreamRecord

	interval  time.Duration
	staleness time.Duration
	backoff   time.Duration

	logger *slog.Logger

	// now is the clock, replaceable in tests.
	now func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval sets the sleep between cycles.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithStaleness sets the expiry threshold.
func WithStaleness(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.staleness = d
		}
	}
}

// WithErrorBackoff sets the shortened sleep after a failed cycle.
func WithErrorBackoff(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.backoff = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// WithVerifier replaces the liveness verifier, for tests.
func WithVerifier(v Verifier) Option {
	return func(m *Monitor) {
		m.verifier = v
	}
}

// withClock replaces the monitor's clock in tests.
func withClock(now func() time.Time) Option {
	return func(m *Monitor) {
		m.now = now
	}
}

// New creates a monitor persisting to the given document stores.
func New(active, history *report.DocumentStore, opts ...Option) *Monitor {
	m := &Monitor{
		active:    active,
		history:   history,
		registry:  make(map[string]*model.ActiveStreamRecord),
		interval:  config.DefaultMonitorInterval,
		staleness: config.DefaultStaleness,
		backoff:   config.DefaultErrorBackoff,
		now:       time.Now,
		stop:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.verifier == nil {
		m.verifier = NewURLVerifier()
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}

	return m
}

// Start runs the monitor loop until the context is cancelled or Stop is
// called. The registry is seeded from the persisted active document so
// a restart picks up where the previous run left off.
func (m *Monitor) Start(ctx context.Context, seeds []string) error {
	m.restore()

	m.logger.Info("monitor started",
		"seeds", len(seeds),
		"restored", len(m.registry),
		"interval", m.interval,
		"staleness", m.staleness,
	)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("monitor stopped", "reason", ctx.Err())
			return ctx.Err()
		case <-m.stop:
			m.logger.Info("monitor stopped", "reason", "stop requested")
			return nil
		default:
		}

		sleep := m.interval
		if err := m.cycle(ctx, seeds); err != nil {
			m.logger.Error("monitor cycle failed", "error", err)
			sleep = m.backoff
		}

		select {
		case <-ctx.Done():
			m.logger.Info("monitor stopped", "reason", ctx.Err())
			return ctx.Err()
		case <-m.stop:
			m.logger.Info("monitor stopped", "reason", "stop requested")
			return nil
		case <-time.After(sleep):
		}
	}
}

// Stop requests cooperative shutdown. Safe to call more than once and
// from any goroutine; the loop observes it at the next cycle boundary.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// Active returns the URLs currently in the live registry, for status
// display.
func (m *Monitor) Active() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	urls := make([]string, 0, len(m.registry))
	for url := range m.registry {
		urls = append(urls, url)
	}
	return urls
}

// restore seeds the registry from the persisted active document.
// Records that went stale while the monitor was down expire on the
// first sweep.
func (m *Monitor) restore() {
	doc := m.active.Load()

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range doc.Streams {
		if rec.Active {
			m.registry[rec.URL] = rec
		}
	}
}

// cycle performs one probe pass and one staleness sweep.
// Probe failures are not errors; only persistence failures surface.
func (m *Monitor) cycle(ctx context.Context, seeds []string) error {
	var errs []error

	for _, url := range m.targets(seeds) {
		if ctx.Err() != nil {
			break
		}
		if err := m.probe(ctx, url); err != nil {
			errs = append(errs, err)
		}
	}

	if err := m.sweep(m.now()); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// targets returns the union of the seed set and the active registry.
func (m *Monitor) targets(seeds []string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]bool, len(seeds)+len(m.registry))
	targets := make([]string, 0, len(seeds)+len(m.registry))

	for _, url := range seeds {
		if url != "" && !seen[url] {
			seen[url] = true
			targets = append(targets, url)
		}
	}
	for url := range m.registry {
		if !seen[url] {
			seen[url] = true
			targets = append(targets, url)
		}
	}
	return targets
}

// probe verifies one URL and updates its record on success.
// An unsuccessful probe changes nothing: expiry is the sweep's job.
func (m *Monitor) probe(ctx context.Context, url string) error {
	result := m.verifier.Verify(ctx, url)
	if !result.Live {
		m.logger.Debug("stream not live", "url", url)
		return nil
	}

	now := m.now()

	m.mu.Lock()
	rec, known := m.registry[url]
	if known {
		rec.Refresh(result.ContentType, result.Size, now)
	} else {
		rec = model.NewActiveStreamRecord(url, result.ContentType, result.Size, now)
		m.registry[url] = rec
		m.logger.Info("stream became active", "url", url, "content_type", result.ContentType)
	}
	m.mu.Unlock()

	if err := m.active.Upsert(rec); err != nil {
		return fmt.Errorf("failed to persist active record for %s: %w", url, err)
	}
	return nil
}

// sweep expires every registry record whose LastActive is older than
// the staleness threshold. Expired records are appended to history
// before removal from the active document.
func (m *Monitor) sweep(now time.Time) error {
	m.mu.Lock()
	var stale []*model.ActiveStreamRecord
	for url, rec := range m.registry {
		if rec.Stale(now, m.staleness) {
			delete(m.registry, url)
			stale = append(stale, rec)
		}
	}
	m.mu.Unlock()

	var errs []error
	for _, rec := range stale {
		rec.Active = false
		m.logger.Info("stream expired",
			"url", rec.URL,
			"last_active", rec.LastActive,
		)

		if err := m.history.Upsert(rec); err != nil {
			errs = append(errs, fmt.Errorf("failed to record history for %s: %w", rec.URL, err))
		}
		if err := m.active.Remove(rec.URL); err != nil {
			errs = append(errs, fmt.Errorf("failed to evict %s: %w", rec.URL, err))
		}
	}
	return errors.Join(errs...)
}
