// Package prober implements protocol-specific handshake logic that turns a
// reachable (host, port) pair into zero or more confirmed stream URLs.
//
// # Architecture
//
// Each protocol implements the Prober interface so the host scanner can
// fan probers out uniformly. Probers are stateless with respect to targets;
// one instance is shared across all hosts in a scan.
//
// Design decision: Each protocol is a separate type rather than a single
// generic prober because the handshake logic varies significantly: RTSP
// speaks a text protocol over a raw socket, HLS/DASH fetch and inspect
// manifests over HTTP, WebSocket needs a full upgrade handshake, and RTMP
// cannot be verified at all without implementing its handshake.
//
// # Failure policy
//
// Connection failure, timeout, and protocol-level rejection are treated
// uniformly as "no candidate here": the prober records nothing and moves to
// the next path. A single path failure never aborts the remaining paths for
// that (host, port). Probe only returns a non-nil error for genuine
// programming or environment faults, never for an endpoint that merely
// declined to speak the protocol.
//
// # Confidence
//
// All probers emit content-verified candidates except RTMP, whose
// candidates are reachability-only and tagged model.ConfidenceHeuristic.
package prober
