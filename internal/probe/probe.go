package probe

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// Prober performs gated TCP reachability checks.
// A single Prober is shared across all hosts in a scan so the connection
// gate is truly global.
//
// Design decision: We use semaphore.Weighted rather than a buffered
// channel because acquisition must respect context cancellation: a scan
// interrupted while queued on the gate should stop waiting immediately.
type Prober struct {
	// gate caps simultaneous connection attempts process-wide.
	gate *semaphore.Weighted

	// retries is the number of connect attempts per check.
	retries int

	// timeout is the ceiling for a single connect attempt.
	timeout time.Duration

	// retryDelay is the fixed pause between attempts.
	retryDelay time.Duration

	// logger records debug-level probe outcomes.
	logger *slog.Logger

	// inFlight and peak instrument the gate so tests can assert the
	// concurrency bound is never exceeded.
	inFlight atomic.Int64
	peak     atomic.Int64
}

// Option configures a Prober.
type Option func(*Prober)

// WithRetries sets the number of connect attempts per check.
// Values below one are ignored.
func WithRetries(n int) Option {
	return func(p *Prober) {
		if n > 0 {
			p.retries = n
		}
	}
}

// WithTimeout sets the per-attempt connect timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithRetryDelay sets the pause between connect attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(p *Prober) {
		if d >= 0 {
			p.retryDelay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Prober) {
		p.logger = logger
	}
}

// New creates a Prober whose gate admits at most gateSize simultaneous
// connection attempts.
func New(gateSize int, opts ...Option) *Prober {
	if gateSize <= 0 {
		gateSize = 1
	}

	p := &Prober{
		gate:       semaphore.NewWeighted(int64(gateSize)),
		retries:    2,
		timeout:    2 * time.Second,
		retryDelay: 500 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// Reachable reports whether host:port accepts a TCP connection.
//
// The check makes up to the configured number of attempts with a fixed
// delay between them, holding a gate slot for the whole invocation. The
// slot is released on every exit path. A false return means only "not
// reachable now"; timeout, refusal, and routing failures are not
// distinguished.
func (p *Prober) Reachable(ctx context.Context, host string, port int) bool {
	if err := p.gate.Acquire(ctx, 1); err != nil {
		// Context cancelled while queued; treat as unreachable.
		return false
	}
	defer p.gate.Release(1)

	cur := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		old := p.peak.Load()
		if cur <= old || p.peak.CompareAndSwap(old, cur) {
			break
		}
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	dialer := net.Dialer{Timeout: p.timeout}

	for attempt := 1; attempt <= p.retries; attempt++ {
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			_ = conn.Close()
			return true
		}

		p.logger.Debug("port unreachable",
			"addr", addr,
			"attempt", attempt,
			"error", err,
		)

		if attempt == p.retries || ctx.Err() != nil {
			return false
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(p.retryDelay):
		}
	}

	return false
}

// InFlight returns the number of connection attempts currently holding a
// gate slot.
func (p *Prober) InFlight() int64 {
	return p.inFlight.Load()
}

// PeakInFlight returns the highest number of simultaneous connection
// attempts observed since the Prober was created.
func (p *Prober) PeakInFlight() int64 {
	return p.peak.Load()
}
