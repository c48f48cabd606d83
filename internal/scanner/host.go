package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/streamscan/streamscan/internal/catalog"
	"github.com/streamscan/streamscan/internal/config"
	"github.com/streamscan/streamscan/internal/model"
	"github.com/streamscan/streamscan/internal/probe"
	"github.com/streamscan/streamscan/internal/prober"
)

// HostScanner probes a single host across every protocol in the
// catalog.
//
// Design decision: The reachability gate is checked before any protocol
// prober runs, because most catalog ports on a typical LAN host are
// closed and a failed TCP dial is far cheaper than a protocol
// handshake. Probers for ports that did answer run concurrently and
// join before Scan returns, so one slow endpoint does not serialize
// the rest of the host.
type HostScanner struct {
	// catalog holds the protocol port/path matrix.
	catalog *catalog.Catalog

	// gate performs connection-limited TCP reachability checks.
	// It is shared across all host scans so the process-wide
	// connection ceiling holds regardless of host concurrency.
	gate *probe.Prober

	// probers maps protocol name to its verification prober.
	probers map[string]prober.Prober

	// portPace is the delay inserted between consecutive port checks
	// on the same host.
	portPace time.Duration

	// logger is used for structured scan logging.
	logger *slog.Logger
}

// HostOption configures a HostScanner.
type HostOption func(*HostScanner)

// WithPortPace sets the delay between port checks on one host.
func WithPortPace(d time.Duration) HostOption {
	return func(s *HostScanner) {
		if d >= 0 {
			s.portPace = d
		}
	}
}

// WithHostLogger sets a custom logger.
func WithHostLogger(logger *slog.Logger) HostOption {
	return func(s *HostScanner) {
		s.logger = logger
	}
}

// WithProber registers or replaces the prober for one protocol.
// Used to substitute fixture probers in tests.
func WithProber(p prober.Prober) HostOption {
	return func(s *HostScanner) {
		s.probers[p.Protocol()] = p
	}
}

// NewHostScanner creates a host scanner over the given catalog.
// The gate must be shared between scanners that should count against
// the same connection ceiling.
func NewHostScanner(cat *catalog.Catalog, gate *probe.Prober, opts ...HostOption) *HostScanner {
	s := &HostScanner{
		catalog:  cat,
		gate:     gate,
		probers:  make(map[string]prober.Prober),
		portPace: config.DefaultPortPace,
	}

	for _, protocol := range cat.Protocols() {
		spec, ok := cat.Spec(protocol)
		if !ok {
			continue
		}
		if p := defaultProber(spec); p != nil {
			s.probers[protocol] = p
		}
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// defaultProber builds the verification prober for a catalog spec.
// Protocols without a prober implementation return nil and are skipped.
func defaultProber(spec catalog.Spec) prober.Prober {
	switch spec.Name {
	case "rtsp":
		return prober.NewRTSPProber(spec)
	case "hls":
		return prober.NewHLSProber(spec)
	case "dash":
		return prober.NewDASHProber(spec)
	case "rtmp":
		return prober.NewRTMPProber(spec)
	case "ws", "wss":
		return prober.NewWebSocketProber(spec)
	case "http", "https":
		return prober.NewHTTPProber(spec)
	default:
		return nil
	}
}

// Scan probes one host across the full catalog and returns every
// discovered candidate.
//
// A prober failure never aborts the remaining probers; failures are
// joined into the returned error while the candidate set still carries
// everything that succeeded. Context cancellation stops admission of
// new port checks but waits for in-flight probers before returning the
// partial set.
func (s *HostScanner) Scan(ctx context.Context, host string) (model.CandidateSet, error) {
	start := time.Now()
	results := model.NewCandidateSet()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		probeErrs []error
	)

	first := true
	for _, protocol := range s.catalog.Protocols() {
		p, ok := s.probers[protocol]
		if !ok {
			continue
		}

		for _, port := range s.catalog.PortsFor(protocol) {
			if ctx.Err() != nil {
				wg.Wait()
				return results, nil
			}

			// Pace between checks, not before the first one.
			if !first && !pause(ctx, s.portPace) {
				wg.Wait()
				return results, nil
			}
			first = false

			if !s.gate.Reachable(ctx, host, port) {
				continue
			}

			s.logger.Debug("port answered, probing",
				"host", host,
				"port", port,
				"protocol", protocol,
			)

			wg.Add(1)
			go func(p prober.Prober, port int) {
				defer wg.Done()

				candidates, err := p.Probe(ctx, host, port)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					probeErrs = append(probeErrs,
						fmt.Errorf("%s probe on %s:%d: %w", p.Protocol(), host, port, err))
					return
				}
				for _, c := range candidates {
					results.Add(c)
				}
			}(p, port)
		}
	}

	wg.Wait()

	if len(probeErrs) > 0 {
		s.logger.Warn("host scan finished with prober failures",
			"host", host,
			"failures", len(probeErrs),
			"found", len(results),
		)
		return results, errors.Join(probeErrs...)
	}

	s.logger.Info("host scan complete",
		"host", host,
		"found", len(results),
		"elapsed", time.Since(start),
	)
	return results, nil
}

// pause sleeps for d unless the context is cancelled first.
// Returns false on cancellation.
func pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
