// Package netrange produces the host lists fed into the scanner.
//
// Three sources exist: the local /24 subnet derived from the machine's
// outbound interface, explicit CIDR ranges, and mDNS service browsing.
// An Excluder filters any source against configured exclusion ranges
// before hosts are scheduled.
package netrange
