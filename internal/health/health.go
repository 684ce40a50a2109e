// Package health provides dependency health checks for shiplog. It validates
// that the configured upstreams (GitHub API, OpenAI API, database) are
// reachable and configured, returning structured reports used by the
// 'shiplog doctor' command.
package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shiplog-io/shiplog/internal/config"
	"github.com/shiplog-io/shiplog/internal/store"
)

// CheckResult represents the result of a single health check.
type CheckResult struct {
	Name    string
	Passed  bool
	Message string
}

// Report contains all health check results.
type Report struct {
	Checks []CheckResult
	Passed bool
}

// Checker runs the configured checks. The HTTP client is replaceable for
// tests.
type Checker struct {
	cfg        *config.Configuration
	httpClient *http.Client
}

// NewChecker builds a checker for the given configuration.
func NewChecker(cfg *config.Configuration) *Checker {
	return &Checker{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// WithHTTPClient replaces the HTTP client used for reachability checks.
func (c *Checker) WithHTTPClient(hc *http.Client) *Checker {
	c.httpClient = hc
	return c
}

// Run executes all checks and returns a report.
func (c *Checker) Run(ctx context.Context) *Report {
	report := &Report{Passed: true}

	report.add(c.checkGitHub(ctx))
	report.add(c.checkOpenAIKey())
	report.add(c.checkDatabase(ctx))

	return report
}

func (r *Report) add(res CheckResult) {
	r.Checks = append(r.Checks, res)
	if !res.Passed {
		r.Passed = false
	}
}

// checkGitHub verifies the GitHub API base answers HTTP at all. Any status
// counts as reachable; auth problems surface per-request later.
func (c *Checker) checkGitHub(ctx context.Context) CheckResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.GitHub.APIBase, nil)
	if err != nil {
		return CheckResult{Name: "github api", Message: fmt.Sprintf("invalid API base: %v", err)}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return CheckResult{Name: "github api", Message: fmt.Sprintf("unreachable: %v", err)}
	}
	resp.Body.Close()

	msg := fmt.Sprintf("reachable at %s", c.cfg.GitHub.APIBase)
	if c.cfg.GitHub.Token == "" {
		msg += " (no token; public repos only)"
	}
	return CheckResult{Name: "github api", Passed: true, Message: msg}
}

// checkOpenAIKey verifies a generation key is configured. No request is made;
// a live probe would spend tokens.
func (c *Checker) checkOpenAIKey() CheckResult {
	if c.cfg.OpenAI.APIKey == "" {
		return CheckResult{Name: "openai key", Message: "openai.api_key is not set; generation will fail"}
	}
	return CheckResult{Name: "openai key", Passed: true,
		Message: fmt.Sprintf("configured for model %s", c.cfg.OpenAI.Model)}
}

// checkDatabase pings the configured store.
func (c *Checker) checkDatabase(ctx context.Context) CheckResult {
	if c.cfg.Database.URL == "" {
		return CheckResult{Name: "database", Passed: true,
			Message: "no database.url; using in-memory store (published ranges reset on restart)"}
	}

	st, err := store.OpenPostgres(ctx, c.cfg.Database.URL)
	if err != nil {
		return CheckResult{Name: "database", Message: fmt.Sprintf("connection failed: %v", err)}
	}
	st.Close()
	return CheckResult{Name: "database", Passed: true, Message: "connected"}
}
