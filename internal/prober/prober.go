package prober

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/streamscan/streamscan/internal/model"
)

// Prober defines the interface for protocol-specific stream probers.
// Each protocol implementation must provide this interface to be used by
// the host scanner.
//
// Design decision: We use an interface rather than a concrete type because
// the scanner treats all protocols uniformly, implementations vary widely,
// and tests can substitute fakes.
type Prober interface {
	// Probe attempts the protocol handshake against every candidate path
	// for the given (host, port) and returns the confirmed candidates.
	//
	// Implementations must respect context cancellation and must treat
	// per-path failures as "no candidate", not as errors.
	Probe(ctx context.Context, host string, port int) ([]model.StreamCandidate, error)

	// Protocol returns the protocol tag (e.g. "rtsp", "hls").
	Protocol() string
}

// options holds settings shared by all prober implementations.
type options struct {
	retryDelay time.Duration
	sniffBytes int
	logger     *slog.Logger
	client     *http.Client
}

// Option configures a prober at construction time.
type Option func(*options)

// WithRetryDelay sets the fixed pause between per-path retry attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.retryDelay = d
		}
	}
}

// WithSniffBytes sets the body sample size read during content sniffing.
func WithSniffBytes(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.sniffBytes = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithHTTPClient overrides the HTTP client used by manifest-fetching
// probers. Tests use this to point probers at httptest servers with
// their fixture TLS configuration.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.client = client
	}
}

// newOptions applies opts over defaults.
func newOptions(timeout time.Duration, opts ...Option) options {
	o := options{
		retryDelay: 500 * time.Millisecond,
		sniffBytes: 8192,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.client == nil {
		o.client = newHTTPClient(timeout)
	}
	return o
}

// newHTTPClient builds the client used for manifest fetches.
// Certificate verification is disabled: LAN cameras and NVRs ship
// self-signed certificates, and the scan asserts nothing about identity,
// only about content.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // LAN devices use self-signed certs
			DisableKeepAlives: true,
		},
	}
}

// endpointURL builds a fully qualified candidate URL.
func endpointURL(scheme, host string, port int, path string) string {
	return fmt.Sprintf("%s://%s:%d/%s", scheme, host, port, path)
}

// pause sleeps for d unless the context ends first.
// Returns false when the context ended.
func pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
