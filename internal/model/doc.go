// Package model defines the core data structures used throughout streamscan.
//
// This package contains the following main types:
//   - StreamCandidate: A URL that matched a protocol-specific handshake
//   - ActiveStreamRecord: A URL confirmed live by content verification
//   - StreamDocument: The on-disk JSON shape for active/history documents
//   - ScanProgress: Monotonic counters describing an in-flight scan
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (prober, scanner, monitor, report, database)
// need to use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for the active/history
// documents and for database storage.
package model
