// Package probe implements the raw TCP reachability check that gates all
// protocol probing.
//
// Every reachability attempt holds a slot of a process-global connection
// gate while it runs, capping the number of simultaneous TCP connection
// attempts across all hosts. Without the gate, a wide-subnet scan against
// mostly-dead hosts can exhaust the file descriptor table before the first
// timeouts fire.
//
// All failure causes (timeout, connection refused, unreachable network)
// are deliberately collapsed into a single "not reachable now" answer:
// callers never branch on the reason a port was closed.
package probe
