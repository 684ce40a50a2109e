// Package config provides hierarchical configuration management for shiplog
// using koanf. Configuration is loaded with priority: environment variables >
// project config (.shiplog/config.yml) > user config
// (~/.config/shiplog/config.yml) > defaults.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Source tracks where a configuration value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceUser    Source = "user"
	SourceProject Source = "project"
	SourceEnv     Source = "env"
)

// Configuration is the full shiplog configuration tree.
type Configuration struct {
	GitHub   GitHubConfig   `koanf:"github" yaml:"github"`
	OpenAI   OpenAIConfig   `koanf:"openai" yaml:"openai"`
	Database DatabaseConfig `koanf:"database" yaml:"database"`
	Server   ServerConfig   `koanf:"server" yaml:"server"`
	Git      GitConfig      `koanf:"git" yaml:"git"`
}

// GitHubConfig configures the commit history provider client.
type GitHubConfig struct {
	// Token authenticates API requests. Empty means unauthenticated, which
	// works for public repositories at a reduced rate limit.
	Token   string `koanf:"token" yaml:"token"`
	APIBase string `koanf:"api_base" yaml:"api_base" validate:"required,url"`
	// PageSize is the per_page value for commit listing requests.
	PageSize int `koanf:"page_size" yaml:"page_size" validate:"min=1,max=100"`
	// MaxScanPages bounds how many pages a date-boundary scan may walk
	// before giving up on very large histories.
	MaxScanPages int `koanf:"max_scan_pages" yaml:"max_scan_pages" validate:"min=1"`
}

// OpenAIConfig configures the changelog generation client.
type OpenAIConfig struct {
	APIKey      string  `koanf:"api_key" yaml:"api_key"`
	APIBase     string  `koanf:"api_base" yaml:"api_base" validate:"required,url"`
	Model       string  `koanf:"model" yaml:"model" validate:"required"`
	Temperature float64 `koanf:"temperature" yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `koanf:"max_tokens" yaml:"max_tokens" validate:"min=1"`
}

// DatabaseConfig configures the publication store. An empty URL selects the
// in-memory store, which does not survive process restarts.
type DatabaseConfig struct {
	URL string `koanf:"url" yaml:"url"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Addr string `koanf:"addr" yaml:"addr" validate:"required"`
	// ShutdownGraceSeconds is how long in-flight requests get to finish
	// after a termination signal.
	ShutdownGraceSeconds int `koanf:"shutdown_grace_seconds" yaml:"shutdown_grace_seconds" validate:"min=1"`
}

// GitConfig sets repository defaults shared by the CLI commands.
type GitConfig struct {
	// DefaultBranch is used when a command does not pass --branch.
	DefaultBranch string `koanf:"default_branch" yaml:"default_branch" validate:"required"`
}

// LoadOptions configures how configuration is loaded.
type LoadOptions struct {
	// ProjectConfigPath overrides the project config path
	// (default: .shiplog/config.yml).
	ProjectConfigPath string
	// UserConfigPath overrides the user config path (for testing).
	UserConfigPath string
	// SkipEnv disables environment variable overrides (for testing).
	SkipEnv bool
}

// Load loads configuration from user, project, and environment sources.
// Priority: environment variables > project config > user config > defaults.
func Load(projectConfigPath string) (*Configuration, error) {
	return LoadWithOptions(LoadOptions{ProjectConfigPath: projectConfigPath})
}

// LoadWithOptions loads configuration with custom options.
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	k := koanf.New(".")

	loadDefaults(k)

	userPath := opts.UserConfigPath
	if userPath == "" {
		userPath, _ = UserConfigPath()
	}
	if err := loadFileConfig(k, userPath, "user"); err != nil {
		return nil, err
	}

	projectPath := opts.ProjectConfigPath
	if projectPath == "" {
		projectPath = ProjectConfigPath()
	}
	if err := loadFileConfig(k, projectPath, "project"); err != nil {
		return nil, err
	}

	if !opts.SkipEnv {
		if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
			return nil, fmt.Errorf("loading environment config: %w", err)
		}
	}

	return finalizeConfig(k)
}

// loadDefaults applies default configuration values.
func loadDefaults(k *koanf.Koanf) {
	for key, value := range GetDefaults() {
		k.Set(key, value)
	}
}

// loadFileConfig validates syntax and loads one YAML config file. A missing
// file is not an error.
func loadFileConfig(k *koanf.Koanf, path, configType string) error {
	if !fileExists(path) {
		return nil
	}
	if err := ValidateYAMLSyntax(path); err != nil {
		return fmt.Errorf("validating YAML syntax for %s config: %w", configType, err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("loading %s config %s: %w", configType, path, err)
	}
	return nil
}

// finalizeConfig unmarshals and validates the merged tree.
func finalizeConfig(k *koanf.Koanf) (*Configuration, error) {
	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := ValidateConfigValues(&cfg, "config"); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// envPrefix namespaces shiplog environment overrides.
const envPrefix = "SHIPLOG_"

// envKeys maps recognized environment variables to config keys. Config keys
// contain underscores of their own, so a mechanical prefix-strip-and-lower
// transform is ambiguous; the explicit table is not.
var envKeys = map[string]string{
	"SHIPLOG_GITHUB_TOKEN":          "github.token",
	"SHIPLOG_GITHUB_API_BASE":       "github.api_base",
	"SHIPLOG_GITHUB_PAGE_SIZE":      "github.page_size",
	"SHIPLOG_GITHUB_MAX_SCAN_PAGES": "github.max_scan_pages",
	"SHIPLOG_OPENAI_API_KEY":        "openai.api_key",
	"SHIPLOG_OPENAI_API_BASE":       "openai.api_base",
	"SHIPLOG_OPENAI_MODEL":          "openai.model",
	"SHIPLOG_OPENAI_TEMPERATURE":    "openai.temperature",
	"SHIPLOG_OPENAI_MAX_TOKENS":     "openai.max_tokens",
	"SHIPLOG_DATABASE_URL":          "database.url",
	"SHIPLOG_SERVER_ADDR":           "server.addr",
	"SHIPLOG_SERVER_SHUTDOWN_GRACE": "server.shutdown_grace_seconds",
	"SHIPLOG_GIT_DEFAULT_BRANCH":    "git.default_branch",
}

// envTransform converts environment variable names to config keys.
// Unrecognized SHIPLOG_ variables are dropped rather than guessed at.
func envTransform(s string) string {
	if key, ok := envKeys[strings.ToUpper(s)]; ok {
		return key
	}
	return ""
}

// fileExists returns true if the file exists and is readable.
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
