package netrange

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/streamscan/streamscan/internal/config"
)

// mdnsServices are the service types browsed for stream-capable
// devices: cameras advertising RTSP and embedded web servers that may
// front HLS or MJPEG endpoints.
var mdnsServices = []string{"_rtsp._tcp", "_http._tcp"}

// mdnsDomain is the conventional mDNS browse domain.
const mdnsDomain = "local."

// MDNSSource discovers hosts by browsing mDNS service advertisements.
type MDNSSource struct {
	timeout time.Duration
	logger  *slog.Logger
}

// MDNSOption configures an MDNSSource.
type MDNSOption func(*MDNSSource)

// WithMDNSTimeout sets the per-service browse window.
func WithMDNSTimeout(d time.Duration) MDNSOption {
	return func(s *MDNSSource) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMDNSLogger sets a custom logger.
func WithMDNSLogger(logger *slog.Logger) MDNSOption {
	return func(s *MDNSSource) {
		s.logger = logger
	}
}

// NewMDNSSource creates an mDNS host source.
func NewMDNSSource(opts ...MDNSOption) *MDNSSource {
	s := &MDNSSource{
		timeout: config.DefaultMDNSTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Hosts browses every configured service type and returns the IPv4
// addresses of all responders, deduplicated and sorted.
func (s *MDNSSource) Hosts(ctx context.Context) ([]string, error) {
	var lists [][]string

	for _, service := range mdnsServices {
		hosts, err := s.browse(ctx, service)
		if err != nil {
			return nil, fmt.Errorf("mDNS browse of %s failed: %w", service, err)
		}
		lists = append(lists, hosts)
	}

	merged := Merge(lists...)
	s.logger.Info("mDNS discovery complete", "responders", len(merged))
	return merged, nil
}

// browse collects responder addresses for one service type until the
// browse window closes.
func (s *MDNSSource) browse(ctx context.Context, service string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	var hosts []string

	done := make(chan struct{})
	go func() {
		defer close(done)
		for entry := range entries {
			hosts = append(hosts, entryHosts(entry)...)
		}
	}()

	if err := resolver.Browse(ctx, service, mdnsDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	<-done

	return hosts, nil
}

// entryHosts extracts the IPv4 addresses from a service entry.
func entryHosts(entry *zeroconf.ServiceEntry) []string {
	if entry == nil {
		return nil
	}

	hosts := make([]string, 0, len(entry.AddrIPv4))
	for _, addr := range entry.AddrIPv4 {
		if addr != nil {
			hosts = append(hosts, addr.String())
		}
	}
	return hosts
}
