package config

import "errors"

// Configuration validation errors.
// These are returned by Config.Validate() and name exactly what is wrong.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic handling while still providing
// human-readable messages.
var (
	// ErrInvalidHostConcurrency is returned when the host concurrency
	// ceiling is not positive. Zero would admit no hosts at all.
	ErrInvalidHostConcurrency = errors.New("invalid host concurrency: must be positive")

	// ErrInvalidConnectionGate is returned when the global connection gate
	// size is not positive. Zero would block every reachability check.
	ErrInvalidConnectionGate = errors.New("invalid connection gate: must be positive")

	// ErrInvalidConnectRetries is returned when the reachability attempt
	// count is not positive.
	ErrInvalidConnectRetries = errors.New("invalid connect retries: must be positive")

	// ErrInvalidDelay is returned when a pacing or retry delay is
	// negative. Use 0 for no delay.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidMonitorInterval is returned when the monitor cycle
	// interval is not positive.
	ErrInvalidMonitorInterval = errors.New("invalid monitor interval: must be positive")

	// ErrInvalidStaleness is returned when the staleness threshold is not
	// positive. A non-positive threshold would expire every record on the
	// first sweep.
	ErrInvalidStaleness = errors.New("invalid staleness threshold: must be positive")

	// ErrInvalidSniffBytes is returned when the body sample size is not
	// positive.
	ErrInvalidSniffBytes = errors.New("invalid sniff size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
