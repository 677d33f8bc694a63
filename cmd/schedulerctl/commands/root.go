// Package commands implements the schedulerctl CLI commands.
package commands

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// httpClient is the plain HTTP client used to hit schedulerd's JSON
	// status endpoints, initialized in PersistentPreRunE. No ConnectRPC
	// or protobuf is involved — see DESIGN.md.
	httpClient *http.Client

	// outputFormat controls the output format for all commands (table or json).
	outputFormat string

	// serverAddr is the schedulerd control-plane address (host:port).
	serverAddr string
)

// rootCmd is the top-level cobra command for schedulerctl.
var rootCmd = &cobra.Command{
	Use:   "schedulerctl",
	Short: "CLI client for schedulerd",
	Long:  "schedulerctl queries schedulerd's JSON status endpoints to inspect multipath scheduler decisions.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		httpClient = &http.Client{Timeout: 5 * time.Second}
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "addr", "localhost:7443",
		"schedulerd control-plane address (host:port)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table",
		"output format: table, json")

	rootCmd.AddCommand(pathsCmd())
	rootCmd.AddCommand(schedulerCmd())
	rootCmd.AddCommand(versionCmd())
}

// Execute runs the root command and exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
