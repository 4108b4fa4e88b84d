// Attrstore-ctl is a command line client for attribute servers.
//
// It reads and writes attributes over WebSocket, and works offline on
// declaration payloads, configuration files and state files.
//
// Usage:
//
//	attrstore-ctl [command] [flags]
//
// See 'attrstore-ctl --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/attrstore/internal/logging"
	"github.com/muurk/attrstore/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "attrstore-ctl",
	Short: "Attribute server client",
	Long: `A command line client for attribute servers.

Online commands (list, get, set, watch) connect to a running server.
Offline commands (parse, config, state) work on local files.`,
	Version: version.Get().Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Silent unless ATTRSTORE_LOG_LEVEL is set.
		return logging.InitializeFromEnv()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("attrstore-ctl %s\n", version.Full())
	},
}
