package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/shiplog-io/shiplog/internal/progress"
)

var generateFlags rangeFlags

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Draft a changelog for a commit range without publishing it",
	Long: `Draft a changelog for a commit range.

The range is resolved, checked against already-published changelogs, and
handed to the drafting model. Nothing is persisted; review the output and
run 'shiplog publish' with the same range to make it permanent.`,
	Example: `  # Date window
  shiplog generate --repo octo/demo --mode date --start 2024-01-01 --end 2024-01-31

  # Between two tags
  shiplog generate --repo octo/demo --mode tag --base v1.0.0 --head v1.1.0

  # From a base SHA to the branch tip, reading a local clone
  shiplog generate --repo octo/demo --mode sha --base a1b2c3d --local .

  # Write the draft to a file
  shiplog generate --repo octo/demo --mode tag --base v1.0.0 -o notes.md`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		req, err := generateFlags.request(cfg)
		if err != nil {
			return err
		}

		svc, err := buildService(cmd.Context(), cfg, generateFlags.local)
		if err != nil {
			return err
		}

		ind := progress.NewIndicator("drafting changelog...")
		ind.Start()
		d, err := svc.Generate(cmd.Context(), req)
		ind.Stop()
		if err != nil {
			return err
		}

		outPath, _ := cmd.Flags().GetString("output")
		if outPath != "" {
			if err := os.WriteFile(outPath, []byte(d.Markdown), 0o644); err != nil {
				return fmt.Errorf("writing draft to %s: %w", outPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Draft for %d commits written to %s\n",
				color.GreenString(ind.Checkmark()), len(d.Range.Commits), outPath)
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), d.Markdown)
		return nil
	},
}

func init() {
	generateFlags.register(generateCmd)
	generateCmd.Flags().StringP("output", "o", "", "Write the draft to a file instead of stdout")
	rootCmd.AddCommand(generateCmd)
}
