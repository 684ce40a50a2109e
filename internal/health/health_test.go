package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiplog-io/shiplog/internal/config"
)

func testConfig(apiBase string) *config.Configuration {
	return &config.Configuration{
		GitHub: config.GitHubConfig{APIBase: apiBase, Token: "tok"},
		OpenAI: config.OpenAIConfig{APIKey: "key", Model: "gpt-4o-mini"},
	}
}

func findCheck(t *testing.T, report *Report, name string) CheckResult {
	t.Helper()
	for _, c := range report.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("check %q not in report", name)
	return CheckResult{}
}

func TestRunAllHealthy(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	report := NewChecker(testConfig(upstream.URL)).Run(context.Background())

	assert.True(t, report.Passed)
	require.Len(t, report.Checks, 3)
	for _, c := range report.Checks {
		assert.True(t, c.Passed, "check %s: %s", c.Name, c.Message)
	}
}

func TestRunGitHubUnreachable(t *testing.T) {
	// Nothing listens here.
	report := NewChecker(testConfig("http://127.0.0.1:1")).Run(context.Background())

	assert.False(t, report.Passed)
	gh := findCheck(t, report, "github api")
	assert.False(t, gh.Passed)
	assert.Contains(t, gh.Message, "unreachable")
}

func TestRunMissingOpenAIKey(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer upstream.Close()

	cfg := testConfig(upstream.URL)
	cfg.OpenAI.APIKey = ""

	report := NewChecker(cfg).Run(context.Background())

	assert.False(t, report.Passed)
	key := findCheck(t, report, "openai key")
	assert.False(t, key.Passed)
	assert.Contains(t, key.Message, "api_key")
}

func TestRunNoTokenNotesPublicOnly(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer upstream.Close()

	cfg := testConfig(upstream.URL)
	cfg.GitHub.Token = ""

	report := NewChecker(cfg).Run(context.Background())

	gh := findCheck(t, report, "github api")
	assert.True(t, gh.Passed)
	assert.Contains(t, gh.Message, "public repos only")
}

func TestRunInMemoryStoreIsHealthyWithWarning(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer upstream.Close()

	report := NewChecker(testConfig(upstream.URL)).Run(context.Background())

	db := findCheck(t, report, "database")
	assert.True(t, db.Passed)
	assert.Contains(t, db.Message, "in-memory")
}
