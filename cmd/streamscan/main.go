// Package main provides the entry point for the streamscan CLI.
//
// streamscan discovers live media streams (RTSP, HLS, DASH, RTMP,
// WebSocket, raw HTTP) on the local network and can keep verifying
// that the discovered streams stay alive.
//
// Usage:
//
//	streamscan scan
//	streamscan scan --cidr 192.168.1.0/24
//	streamscan monitor
//
// See --help for all available options.
package main

// main is the entry point for streamscan.
func main() {
	Execute()
}
