package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/streamscan/streamscan/internal/catalog"
)

// Default configuration values.
// These are tuned for a typical home /24 behind consumer Wi-Fi; fragile
// mobile-tethered networks warrant lower concurrency via flags.
const (
	// DefaultHostConcurrency is the number of hosts scanned simultaneously.
	// 20 keeps a /24 scan fast without flooding a consumer access point.
	// Mobile hotspots and lossy Wi-Fi links warrant values of 5-10.
	DefaultHostConcurrency = 20

	// DefaultConnectionGate caps simultaneous raw TCP connection attempts
	// across the whole process, independent of host concurrency. This
	// prevents socket exhaustion during wide-subnet scans.
	DefaultConnectionGate = 50

	// DefaultConnectRetries is the number of TCP reachability attempts per
	// (host, port). Two attempts absorb transient packet loss on lossy
	// links without meaningfully slowing scans of dead hosts.
	DefaultConnectRetries = 2

	// DefaultConnectTimeout is the per-attempt TCP connect ceiling.
	DefaultConnectTimeout = 2 * time.Second

	// DefaultRetryDelay is the fixed pause between retry attempts, both
	// for reachability checks and per-path protocol probes.
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultPortPace is the pause between successive port checks on the
	// same host. Pacing avoids tripping intrusion detection or per-source
	// rate limiting on the target device.
	DefaultPortPace = 200 * time.Millisecond

	// DefaultMonitorInterval is the pause between monitor cycles.
	DefaultMonitorInterval = 10 * time.Second

	// DefaultStaleness is how long a stream may go without a successful
	// re-verification before its record is expired.
	DefaultStaleness = 300 * time.Second

	// DefaultErrorBackoff is the shortened sleep after a monitor cycle
	// fails, so a persistent fault doesn't spin the loop.
	DefaultErrorBackoff = 5 * time.Second

	// DefaultSniffBytes is how much of a response body the generic HTTP
	// prober and the monitor read when sniffing for container signatures.
	DefaultSniffBytes = 8192

	// DefaultMDNSTimeout bounds the optional mDNS browse phase.
	DefaultMDNSTimeout = 10 * time.Second

	// DefaultResultsFile is where discovered URLs are written.
	DefaultResultsFile = "streams.txt"

	// DefaultActiveFile is the active-streams JSON document.
	DefaultActiveFile = "active_streams.json"

	// DefaultHistoryFile is the stream-history JSON document.
	DefaultHistoryFile = "stream_history.json"

	// AppName is the application name used for XDG directory paths.
	AppName = "streamscan"
)

// Config holds all configuration options for streamscan.
// This struct is populated from CLI flags and the optional config file and
// passed through the application via dependency injection rather than
// global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g. ScanConfig, MonitorConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant
// benefit.
type Config struct {
	// HostConcurrency is the host-level bounded-concurrency gate: how many
	// hosts may be under active scanning at once.
	HostConcurrency int

	// ConnectionGate is the global raw-connection gate: how many TCP
	// connection attempts may be in flight at once, across all hosts.
	ConnectionGate int

	// ConnectRetries is the attempt count for TCP reachability checks.
	ConnectRetries int

	// ConnectTimeout is the ceiling for a single TCP connect attempt.
	ConnectTimeout time.Duration

	// RetryDelay is the fixed pause between retry attempts.
	RetryDelay time.Duration

	// PortPace is the pause between port checks on the same host.
	PortPace time.Duration

	// MonitorInterval is the pause between monitor cycles.
	MonitorInterval time.Duration

	// Staleness is the monitor's record expiry threshold.
	Staleness time.Duration

	// ErrorBackoff is the monitor's sleep after a failed cycle.
	ErrorBackoff time.Duration

	// SniffBytes is the body sample size for content sniffing.
	SniffBytes int

	// Verbose enables slog.LevelDebug output.
	// When false, only warnings and errors are logged.
	Verbose bool

	// CIDR is the target network range in CIDR notation.
	// Empty means derive a /24 from the local interface address.
	CIDR string

	// Hosts is an explicit host list. When non-empty it replaces range
	// enumeration entirely.
	Hosts []string

	// Exclude lists CIDR blocks that are filtered out of the host list
	// before scheduling (gateways, printers, the scanning machine itself).
	Exclude []string

	// UseMDNS merges mDNS responders into the host list before scanning.
	UseMDNS bool

	// MDNSTimeout bounds the mDNS browse phase.
	MDNSTimeout time.Duration

	// ResultsFile is the plain-text output path for discovered URLs.
	ResultsFile string

	// ActiveFile is the active-streams JSON document path.
	ActiveFile string

	// HistoryFile is the stream-history JSON document path.
	HistoryFile string

	// Monitor hands discovered streams to the liveness monitor after the
	// scan completes instead of exiting.
	Monitor bool

	// JSONReport enables a JSON scan report on stdout instead of the
	// plain listing. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables a Markdown scan report.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile redirects the scan report to a file instead of stdout.
	ReportFile string

	// DBDir is the directory for the SQLite history database.
	// Empty disables database persistence.
	DBDir string

	// SaveToDB indicates whether scan sessions are recorded.
	SaveToDB bool

	// ConfigFilePath is an explicit config file path. Empty triggers the
	// default search (current directory, then home).
	ConfigFilePath string

	// CatalogOverrides holds per-protocol catalog adjustments loaded from
	// the config file.
	CatalogOverrides map[string]catalog.Override
}

// NewConfig creates a Config with default values.
// All fields are set to safe, sensible defaults for a home network scan.
//
// Design decision: We use a constructor instead of relying on zero values
// because almost every default is non-zero. It also documents what the
// defaults are.
func NewConfig() *Config {
	return &Config{
		HostConcurrency: DefaultHostConcurrency,
		ConnectionGate:  DefaultConnectionGate,
		ConnectRetries:  DefaultConnectRetries,
		ConnectTimeout:  DefaultConnectTimeout,
		RetryDelay:      DefaultRetryDelay,
		PortPace:        DefaultPortPace,
		MonitorInterval: DefaultMonitorInterval,
		Staleness:       DefaultStaleness,
		ErrorBackoff:    DefaultErrorBackoff,
		SniffBytes:      DefaultSniffBytes,
		MDNSTimeout:     DefaultMDNSTimeout,
		ResultsFile:     DefaultResultsFile,
		ActiveFile:      DefaultActiveFile,
		HistoryFile:     DefaultHistoryFile,
	}
}

// XDGDataDir returns the XDG data directory for streamscan.
// On Linux: ~/.local/share/streamscan
// On macOS: ~/Library/Application Support/streamscan
// On Windows: %LOCALAPPDATA%\streamscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for streamscan.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific sentinel error describing what is invalid.
//
// Design decision: We validate once after CLI parsing rather than at each
// point of use, to fail fast with a clear message. The first error found
// is returned because fixing one error often makes others irrelevant.
//
// An empty host list is deliberately NOT an error: scanning nothing yields
// an empty result.
func (c *Config) Validate() error {
	if c.HostConcurrency <= 0 {
		return ErrInvalidHostConcurrency
	}
	if c.ConnectionGate <= 0 {
		return ErrInvalidConnectionGate
	}
	if c.ConnectRetries <= 0 {
		return ErrInvalidConnectRetries
	}
	if c.RetryDelay < 0 || c.PortPace < 0 {
		return ErrInvalidDelay
	}
	if c.MonitorInterval <= 0 {
		return ErrInvalidMonitorInterval
	}
	if c.Staleness <= 0 {
		return ErrInvalidStaleness
	}
	if c.SniffBytes <= 0 {
		return ErrInvalidSniffBytes
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}
