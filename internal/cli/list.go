package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	listHeader = color.New(color.FgCyan, color.Bold).SprintFunc()
	listID     = color.New(color.FgYellow).SprintFunc()
	listDim    = color.New(color.Faint).SprintFunc()
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List published changelogs for a repository",
	Example: `  shiplog list --repo octo/demo
  shiplog list --repo octo/demo --branch release`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		repo, _ := cmd.Flags().GetString("repo")
		branch, _ := cmd.Flags().GetString("branch")

		svc, err := buildService(cmd.Context(), cfg, "")
		if err != nil {
			return err
		}

		records, err := svc.List(cmd.Context(), repo, branch)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(records) == 0 {
			fmt.Fprintf(out, "No published changelogs for %s\n", repo)
			return nil
		}

		fmt.Fprintf(out, "%s\n", listHeader(fmt.Sprintf("Published changelogs for %s (%d)", repo, len(records))))
		for _, rec := range records {
			fmt.Fprintf(out, "  %s  %s  %s  %s\n",
				listID(rec.ID),
				rec.PublishedAt.Format("2006-01-02"),
				rec.RangeDisplay(),
				listDim(fmt.Sprintf("%d commits, %s@%s", len(rec.CommitSHAs), rec.Repo, rec.Branch)))
		}
		return nil
	},
}

func init() {
	listCmd.Flags().String("repo", "", "Repository in owner/name form (required)")
	listCmd.Flags().String("branch", "", "Restrict to one branch")
	_ = listCmd.MarkFlagRequired("repo")
	rootCmd.AddCommand(listCmd)
}
