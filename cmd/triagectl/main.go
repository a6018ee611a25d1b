// Package main implements the triagectl CLI for manual operations against
// a running triaged daemon.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL of the triaged HTTP server.
	serverURL string
	// version information (set via ldflags during build)
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "triagectl",
	Short: "CLI for triaged daemon operations",
	Long: `triagectl is a command-line interface for a running triaged daemon.
It can trigger a triage pass, inspect events and case records, approve
drafted emails, and inject documents for processing.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8420", "triaged server URL")
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(caseCmd)
	rootCmd.AddCommand(eventCmd)
}
