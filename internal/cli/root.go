// Package cli implements the approvald command line: a cobra root command
// with persistent flags for config path and logging verbosity, plus
// subcommands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configFile string
	debug      bool
	verbose    bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "approvald",
	Short: "approvald - approval-distribution gossip node",
	Long: `approvald runs the approval-distribution subsystem standalone: a
peer-to-peer gossip layer that disseminates assignment certificates and
approval votes among parachain validators, following a structured grid
topology with randomized supplementary routing and aggression escalation.`,
	Version: "0.1.0-dev",
}

// Execute runs the root command (its subcommands and flags are registered in
// init) and exits with status 1 on error. Called once by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	// debug, verbose and quiet are parsed but not read: the logger that
	// internal/di builds always logs at every level, debug included.
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging (no effect: debug output is always on)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging (no effect: debug output is always on)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "quiet console output (no effect: output is not suppressed)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}
