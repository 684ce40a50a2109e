package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shiplog-io/shiplog/internal/changelog"
	"github.com/shiplog-io/shiplog/internal/config"
	"github.com/shiplog-io/shiplog/internal/draft"
	"github.com/shiplog-io/shiplog/internal/github"
	"github.com/shiplog-io/shiplog/internal/localgit"
	"github.com/shiplog-io/shiplog/internal/openai"
	"github.com/shiplog-io/shiplog/internal/overlap"
	"github.com/shiplog-io/shiplog/internal/provider"
	"github.com/shiplog-io/shiplog/internal/resolve"
	"github.com/shiplog-io/shiplog/internal/store"
)

// loadConfig reads configuration honoring the persistent --config flag.
func loadConfig(cmd *cobra.Command) (*config.Configuration, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newHistoryProvider selects between the GitHub API and a local clone.
// localPath wins when set; commands expose it as --local.
func newHistoryProvider(cfg *config.Configuration, localPath string) (provider.Provider, error) {
	if localPath != "" {
		return localgit.Open(localPath)
	}
	return github.NewClient(cfg.GitHub.Token,
		github.WithAPIBase(cfg.GitHub.APIBase),
		github.WithPageSize(cfg.GitHub.PageSize),
		github.WithMaxScanPages(cfg.GitHub.MaxScanPages),
	), nil
}

// newStore opens Postgres when a database URL is configured and falls back to
// the in-memory store otherwise. The in-memory store starts empty, so overlap
// protection only spans the current process.
func newStore(ctx context.Context, cfg *config.Configuration) (store.Store, error) {
	if cfg.Database.URL != "" {
		return store.OpenPostgres(ctx, cfg.Database.URL)
	}
	return store.NewMemoryStore(), nil
}

// buildService assembles the full pipeline from configuration.
func buildService(ctx context.Context, cfg *config.Configuration, localPath string) (*changelog.Service, error) {
	history, err := newHistoryProvider(cfg, localPath)
	if err != nil {
		return nil, err
	}

	st, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	generator := openai.NewClient(openai.Config{
		APIKey:      cfg.OpenAI.APIKey,
		APIBase:     cfg.OpenAI.APIBase,
		Model:       cfg.OpenAI.Model,
		Temperature: float32(cfg.OpenAI.Temperature),
		MaxTokens:   cfg.OpenAI.MaxTokens,
	})

	return changelog.NewService(
		resolve.NewResolver(history),
		overlap.NewDetector(st),
		draft.NewEngine(generator),
		st,
	), nil
}

// rangeFlags are the shared range-selection flags for generate and publish.
type rangeFlags struct {
	repo   string
	branch string
	mode   string
	start  string
	end    string
	base   string
	head   string
	local  string
}

// register adds the shared flags to a command.
func (f *rangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.repo, "repo", "", "Repository in owner/name form (required)")
	cmd.Flags().StringVar(&f.branch, "branch", "", "Branch to read history from (default from config)")
	cmd.Flags().StringVar(&f.mode, "mode", "", "Range mode: date, sha, or tag (required)")
	cmd.Flags().StringVar(&f.start, "start", "", "Start date YYYY-MM-DD (date mode)")
	cmd.Flags().StringVar(&f.end, "end", "", "End date YYYY-MM-DD (date mode)")
	cmd.Flags().StringVar(&f.base, "base", "", "Base tag or SHA (tag and sha modes)")
	cmd.Flags().StringVar(&f.head, "head", "", "Head tag or SHA (defaults to branch tip)")
	cmd.Flags().StringVar(&f.local, "local", "", "Path to a local clone to read instead of the GitHub API")
	_ = cmd.MarkFlagRequired("repo")
	_ = cmd.MarkFlagRequired("mode")
}

// request turns the flags into a pipeline request, filling the branch default
// from config.
func (f *rangeFlags) request(cfg *config.Configuration) (changelog.Request, error) {
	spec, err := resolve.ParseSpec(f.mode, f.start, f.end, f.base, f.head)
	if err != nil {
		return changelog.Request{}, err
	}

	branch := f.branch
	if branch == "" {
		branch = cfg.Git.DefaultBranch
	}
	return changelog.Request{Repo: f.repo, Branch: branch, Spec: spec}, nil
}
