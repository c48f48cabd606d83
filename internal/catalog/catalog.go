package catalog

import (
	"fmt"
	"sort"
	"time"
)

// Protocol names known to the default catalog.
const (
	ProtocolRTSP  = "rtsp"
	ProtocolHTTP  = "http"
	ProtocolHTTPS = "https"
	ProtocolHLS   = "hls"
	ProtocolDASH  = "dash"
	ProtocolRTMP  = "rtmp"
	ProtocolWS    = "ws"
	ProtocolWSS   = "wss"
)

// Spec describes how to locate and validate one streaming protocol's
// endpoints. Specs are immutable after catalog construction.
type Spec struct {
	// Name is the protocol tag (e.g. "rtsp").
	Name string

	// Ports is the ordered candidate port list. No duplicates.
	Ports []int

	// Paths is the list of known endpoint path conventions, without a
	// leading slash (e.g. "live", "hls/index.m3u8").
	Paths []string

	// HeaderSignature is the byte sequence expected at or near the start
	// of a valid response. Empty means no signature check applies.
	HeaderSignature []byte

	// ContentTypes lists content-type substrings that confirm the
	// protocol when matched case-insensitively.
	ContentTypes []string

	// Timeout is the hard ceiling for a single probe attempt.
	Timeout time.Duration

	// Retries is the number of attempts per candidate path.
	Retries int
}

// Catalog maps protocol names to their specs.
// Lookup methods return zero values for unknown protocols so callers can
// treat a missing entry the same as an empty one.
type Catalog struct {
	specs map[string]Spec
}

// videoContentTypes confirm video content for the generic HTTP prober
// and the liveness monitor. Matched as case-insensitive substrings.
var videoContentTypes = []string{
	"video/",
	"application/x-mpegurl",
	"application/vnd.apple.mpegurl",
	"application/dash+xml",
	"application/x-rtsp",
	"application/x-rtmp",
	"application/octet-stream",
	"binary/octet-stream",
	"application/x-flv",
}

// Default returns the built-in protocol catalog.
//
// Port and path conventions follow what IP cameras, NVRs, and small media
// servers commonly expose. Timeouts are per-protocol: RTSP and RTMP fail
// fast on a raw socket, HLS/DASH need headroom for manifest fetch.
func Default() *Catalog {
	return &Catalog{specs: map[string]Spec{
		ProtocolRTSP: {
			Name:  ProtocolRTSP,
			Ports: []int{554, 8554},
			Paths: []string{
				"live", "stream", "cam", "video0", "video1", "h264", "mpeg4",
				"media", "videoMain", "video1+audio1", "primary", "track1",
				"ch01", "ch1", "sub", "main", "av0_0", "av0_1", "streaming",
			},
			HeaderSignature: []byte("RTSP/1.0"),
			Timeout:         5 * time.Second,
			Retries:         3,
		},
		ProtocolHTTP: {
			Name:         ProtocolHTTP,
			Ports:        []int{80, 8080, 8000, 8800, 8888, 3000, 5000},
			Paths:        []string{"stream", "live", "hls", "dash", "channel", "video", "mobile/stream", "mobile/live"},
			ContentTypes: videoContentTypes,
			Timeout:      8 * time.Second,
			Retries:      3,
		},
		ProtocolHTTPS: {
			Name:         ProtocolHTTPS,
			Ports:        []int{443, 8443, 4443},
			Paths:        []string{"stream", "live", "hls", "dash", "channel", "video", "mobile/stream", "mobile/live"},
			ContentTypes: videoContentTypes,
			Timeout:      8 * time.Second,
			Retries:      3,
		},
		ProtocolHLS: {
			Name:  ProtocolHLS,
			Ports: []int{8081, 1935, 8082, 8083},
			Paths: []string{
				"hls", "live", "stream", "streaming", "playlist", "channel",
				"live/stream", "live/channel1", "video", "media", "content",
				"stream1", "stream2", "ch1", "ch2", "feed1", "feed2",
				"mobile/playlist",
			},
			HeaderSignature: []byte("#EXTM3U"),
			ContentTypes:    []string{"application/x-mpegurl", "application/vnd.apple.mpegurl"},
			Timeout:         8 * time.Second,
			Retries:         3,
		},
		ProtocolDASH: {
			Name:  ProtocolDASH,
			Ports: []int{8080, 8081, 8082, 8083},
			Paths: []string{
				"dash", "stream", "live", "content", "media", "channel",
				"video", "streaming", "manifest", "mpd", "output",
			},
			HeaderSignature: []byte("<?xml"),
			ContentTypes:    []string{"application/dash+xml"},
			Timeout:         8 * time.Second,
			Retries:         3,
		},
		ProtocolRTMP: {
			Name:  ProtocolRTMP,
			Ports: []int{1935, 1936, 1937},
			Paths: []string{
				"live", "stream", "app", "broadcast", "channel",
				"streaming", "live/stream", "media", "content",
			},
			Timeout: 5 * time.Second,
			Retries: 3,
		},
		ProtocolWS: {
			Name:    ProtocolWS,
			Ports:   []int{8084, 8085, 8086},
			Paths:   []string{"stream", "live", "ws", "socket", "media"},
			Timeout: 8 * time.Second,
			Retries: 2,
		},
		ProtocolWSS: {
			Name:    ProtocolWSS,
			Ports:   []int{8443, 4443},
			Paths:   []string{"stream", "live", "ws", "socket", "media"},
			Timeout: 8 * time.Second,
			Retries: 2,
		},
	}}
}

// Spec returns the spec for the given protocol.
func (c *Catalog) Spec(protocol string) (Spec, bool) {
	s, ok := c.specs[protocol]
	return s, ok
}

// PortsFor returns the ordered candidate ports for the protocol.
func (c *Catalog) PortsFor(protocol string) []int {
	return c.specs[protocol].Ports
}

// PathsFor returns the path templates for the protocol.
func (c *Catalog) PathsFor(protocol string) []string {
	return c.specs[protocol].Paths
}

// TimeoutFor returns the probe timeout for the protocol.
func (c *Catalog) TimeoutFor(protocol string) time.Duration {
	return c.specs[protocol].Timeout
}

// RetriesFor returns the per-path attempt count for the protocol.
func (c *Catalog) RetriesFor(protocol string) int {
	return c.specs[protocol].Retries
}

// Protocols returns all protocol names in deterministic order.
func (c *Catalog) Protocols() []string {
	names := make([]string, 0, len(c.specs))
	for name := range c.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// VideoContentTypes returns the content-type substrings that identify
// video payloads, for use by the generic prober and the monitor.
func VideoContentTypes() []string {
	return videoContentTypes
}

// Override adjusts one protocol's spec from a configuration file.
// Zero-valued fields leave the default untouched.
type Override struct {
	Ports   []int
	Paths   []string
	Timeout time.Duration
	Retries int
}

// Apply merges per-protocol overrides onto the catalog.
// Unknown protocol names are rejected so a typo in the config file fails
// loudly instead of silently scanning nothing.
func (c *Catalog) Apply(overrides map[string]Override) error {
	for name, ov := range overrides {
		spec, ok := c.specs[name]
		if !ok {
			return fmt.Errorf("unknown protocol %q in catalog overrides", name)
		}
		if len(ov.Ports) > 0 {
			spec.Ports = dedupePorts(ov.Ports)
		}
		if len(ov.Paths) > 0 {
			spec.Paths = ov.Paths
		}
		if ov.Timeout > 0 {
			spec.Timeout = ov.Timeout
		}
		if ov.Retries > 0 {
			spec.Retries = ov.Retries
		}
		c.specs[name] = spec
	}
	return nil
}

// dedupePorts removes duplicates while preserving first-seen order.
// The catalog invariant is an ordered sequence with no duplicates.
func dedupePorts(ports []int) []int {
	seen := make(map[int]bool, len(ports))
	out := make([]int, 0, len(ports))
	for _, p := range ports {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
