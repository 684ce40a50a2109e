// Package cli implements the shiplog command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shiplog-io/shiplog/internal/apperr"
)

// Exit codes for the shiplog CLI. Distinct codes let CI scripts react to an
// overlap block without parsing output.
const (
	ExitSuccess  = 0
	ExitError    = 1
	ExitConflict = 2
)

var rootCmd = &cobra.Command{
	Use:   "shiplog",
	Short: "Draft and publish AI-written changelogs from commit ranges",
	Long: `Shiplog turns a commit range into a reviewed, publishable changelog.

A range can be given three ways: a date window, a tag pair, or a raw SHA
pair. All three resolve to the same canonical form, and every published
changelog records exactly which commits it covered so no commit is ever
published twice within a repository and branch.`,
	Example: `  # Draft a changelog for a date window
  shiplog generate --repo octo/demo --mode date --start 2024-01-01 --end 2024-01-31

  # Draft between two tags and publish it
  shiplog publish --repo octo/demo --mode tag --base v1.0.0 --head v1.1.0

  # List what has been published
  shiplog list --repo octo/demo

  # Run the HTTP API
  shiplog serve`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to project config file (default .shiplog/config.yml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Verbose output")
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		if appErr := apperr.As(err); appErr != nil {
			apperr.Print(appErr)
			if appErr.Kind == apperr.OverlapConflict {
				return ExitConflict
			}
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return ExitError
	}
	return ExitSuccess
}
