package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/shiplog-io/shiplog/internal/apperr"
	"github.com/shiplog-io/shiplog/internal/health"
	"github.com/shiplog-io/shiplog/internal/progress"
)

var doctorCmd = &cobra.Command{
	Use:          "doctor",
	Short:        "Check that the configured upstreams are reachable",
	Example:      `  shiplog doctor`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		symbols := progress.SelectSymbols(progress.DetectTerminalCapabilities())
		report := health.NewChecker(cfg).Run(cmd.Context())

		out := cmd.OutOrStdout()
		for _, check := range report.Checks {
			mark := color.GreenString(symbols.Checkmark)
			if !check.Passed {
				mark = color.RedString(symbols.Failure)
			}
			fmt.Fprintf(out, "%s %-12s %s\n", mark, check.Name, check.Message)
		}

		if !report.Passed {
			return apperr.New(apperr.Validation, "one or more health checks failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
