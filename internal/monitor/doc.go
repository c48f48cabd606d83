// Package monitor continuously re-verifies discovered stream URLs.
//
// Each URL moves through a small state machine: unverified until its
// first successful liveness probe, active while probes keep succeeding,
// and expired once the staleness threshold elapses without one. Expired
// records are appended to the history document and evicted from the
// live registry; a later rediscovery starts a fresh record.
package monitor
