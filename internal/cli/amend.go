package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/shiplog-io/shiplog/internal/progress"
)

var amendCmd = &cobra.Command{
	Use:   "amend <changelog-id>",
	Short: "Replace the markdown of a published changelog",
	Long: `Replace the markdown of a published changelog.

Only the document text changes. The commit set a changelog covers is fixed
at publish time and cannot be amended.`,
	Example: `  shiplog amend 3f2b... -f corrected.md`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		filePath, _ := cmd.Flags().GetString("file")
		markdown, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("reading replacement markdown %s: %w", filePath, err)
		}

		svc, err := buildService(cmd.Context(), cfg, "")
		if err != nil {
			return err
		}

		rec, err := svc.Amend(cmd.Context(), args[0], string(markdown))
		if err != nil {
			return err
		}

		symbols := progress.SelectSymbols(progress.DetectTerminalCapabilities())
		fmt.Fprintf(cmd.OutOrStdout(), "%s Amended changelog %s (%s)\n",
			color.GreenString(symbols.Checkmark), rec.ID, rec.RangeDisplay())
		return nil
	},
}

func init() {
	amendCmd.Flags().StringP("file", "f", "", "Markdown file with the replacement text (required)")
	_ = amendCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(amendCmd)
}
