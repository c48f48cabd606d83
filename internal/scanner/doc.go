// Package scanner orchestrates stream discovery across hosts.
//
// A HostScanner walks the protocol catalog for one host: it gates every
// (protocol, port) pair behind a TCP reachability check, paces port
// checks to avoid tripping rate limiters on embedded devices, and fans
// protocol probers out concurrently once a port answers.
//
// A ScanCoordinator runs host scans across a target list with a bounded
// errgroup, merging per-host candidate sets into one deduplicated
// result.
package scanner
