// Package main provides the entry point for the streamscan CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for streamscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "streamscan",
		Short: "Discover and monitor media streams on the local network",
		Long: `streamscan probes hosts on the local network for live media streams:
RTSP cameras, HLS and DASH playlists, RTMP servers, WebSocket feeds,
and raw HTTP video endpoints.

By default, streamscan scans the /24 subnet of the local interface.
Use --cidr for another range, or pass explicit hosts as arguments.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewMonitorCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
