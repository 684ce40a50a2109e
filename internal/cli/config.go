package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/shiplog-io/shiplog/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage shiplog configuration",
	Long: `Manage shiplog configuration settings.

Configuration is loaded with the following priority (highest to lowest):
  1. Environment variables (SHIPLOG_*)
  2. Project config (.shiplog/config.yml)
  3. User config (~/.config/shiplog/config.yml)
  4. Built-in defaults`,
	Example: `  # Show the effective configuration
  shiplog config show

  # Write a commented starter config
  shiplog config init`,
}

var configShowCmd = &cobra.Command{
	Use:          "show",
	Short:        "Print the effective configuration after merging all sources",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		// Secrets stay out of terminal scrollback.
		if cfg.GitHub.Token != "" {
			cfg.GitHub.Token = "(set)"
		}
		if cfg.OpenAI.APIKey != "" {
			cfg.OpenAI.APIKey = "(set)"
		}

		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("rendering config: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:          "init",
	Short:        "Write a commented starter config to .shiplog/config.yml",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.ProjectConfigPath()
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists; remove it first to reinitialize", path)
		}

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
		if err := os.WriteFile(path, []byte(config.GetDefaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("writing config template: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
