package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/shiplog-io/shiplog/internal/changelog"
	"github.com/shiplog-io/shiplog/internal/progress"
)

var publishFlags rangeFlags

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Draft a changelog for a commit range and publish it",
	Long: `Draft a changelog and persist it as published.

With --file, the reviewed markdown is published as-is and no draft is
generated; the range is still resolved so the record carries the exact
commit set it covers.

The overlap check runs twice: once up front and again immediately before
the record is written, in case another publish landed in between. Once
published, the covered commits are locked away from future ranges on the
same repository and branch.`,
	Example: `  # Publish everything between two tags
  shiplog publish --repo octo/demo --mode tag --base v1.0.0 --head v1.1.0

  # Publish a reviewed draft file instead of the generated text
  shiplog publish --repo octo/demo --mode tag --base v1.0.0 -f reviewed.md`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		req, err := publishFlags.request(cfg)
		if err != nil {
			return err
		}

		svc, err := buildService(cmd.Context(), cfg, publishFlags.local)
		if err != nil {
			return err
		}

		// A reviewed file supplies the published text, so only the range is
		// resolved; the generation call is skipped entirely.
		filePath, _ := cmd.Flags().GetString("file")

		var d *changelog.Draft
		if filePath != "" {
			reviewed, err := os.ReadFile(filePath)
			if err != nil {
				return fmt.Errorf("reading reviewed draft %s: %w", filePath, err)
			}
			ind := progress.NewIndicator("resolving range...")
			ind.Start()
			d, err = svc.Resolve(cmd.Context(), req)
			ind.Stop()
			if err != nil {
				return err
			}
			d.Markdown = string(reviewed)
		} else {
			ind := progress.NewIndicator("drafting changelog...")
			ind.Start()
			d, err = svc.Generate(cmd.Context(), req)
			ind.Stop()
			if err != nil {
				return err
			}
		}

		rec, err := svc.Publish(cmd.Context(), d)
		if err != nil {
			return err
		}

		symbols := progress.SelectSymbols(progress.DetectTerminalCapabilities())
		fmt.Fprintf(cmd.OutOrStdout(), "%s Published changelog %s\n",
			color.GreenString(symbols.Checkmark), rec.ID)
		fmt.Fprintf(cmd.OutOrStdout(), "  %s covering %d commits on %s@%s\n",
			rec.RangeDisplay(), len(rec.CommitSHAs), rec.Repo, rec.Branch)
		return nil
	},
}

func init() {
	publishFlags.register(publishCmd)
	publishCmd.Flags().StringP("file", "f", "", "Publish this markdown file instead of the generated draft")
	rootCmd.AddCommand(publishCmd)
}
