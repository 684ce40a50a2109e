package config

// GetDefaultConfigTemplate returns a fully commented config template written
// by 'shiplog config init'.
func GetDefaultConfigTemplate() string {
	return `# Shiplog Configuration
# See 'shiplog config -h' for commands.

# GitHub commit history provider
github:
  token: ""                  # API token (or set SHIPLOG_GITHUB_TOKEN)
  api_base: https://api.github.com
  page_size: 100             # Commits per page when listing (1-100)
  max_scan_pages: 10         # Pages to scan before a date lookup gives up

# OpenAI changelog drafting
openai:
  api_key: ""                # API key (or set SHIPLOG_OPENAI_API_KEY)
  api_base: https://api.openai.com/v1
  model: gpt-4o-mini
  temperature: 0.2           # Low temperature keeps the tone consistent
  max_tokens: 1500

# Publication store
database:
  url: ""                    # postgres:// URL; empty uses the in-memory store

# HTTP API server
server:
  addr: :8080
  shutdown_grace_seconds: 10 # Drain window for in-flight requests

# Repository defaults
git:
  default_branch: main
`
}

// GetDefaults returns the default configuration values.
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"github.token":          "",
		"github.api_base":       "https://api.github.com",
		"github.page_size":      100,
		"github.max_scan_pages": 10,

		"openai.api_key":     "",
		"openai.api_base":    "https://api.openai.com/v1",
		"openai.model":       "gpt-4o-mini",
		"openai.temperature": 0.2,
		"openai.max_tokens":  1500,

		"database.url": "",

		"server.addr":                   ":8080",
		"server.shutdown_grace_seconds": 10,

		"git.default_branch": "main",
	}
}
