// Package github implements the commit-history provider contract against the
// GitHub REST API: tag resolution (with annotated-tag dereferencing), date
// boundary lookup over paginated history, and two-endpoint compare diffs.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shiplog-io/shiplog/internal/apperr"
	"github.com/shiplog-io/shiplog/internal/provider"
)

const (
	// DefaultAPIBase is the public GitHub REST API endpoint.
	DefaultAPIBase = "https://api.github.com"
	// DefaultPageSize is the per_page value for history listing.
	DefaultPageSize = 100
	// DefaultMaxScanPages bounds how much history a date-boundary lookup will
	// walk before giving up. Exceeding it is a distinct failure, not a wrong
	// answer.
	DefaultMaxScanPages = 10

	defaultTimeout = 30 * time.Second
)

// Client talks to the GitHub REST API. The zero value is not usable; construct
// with NewClient.
type Client struct {
	apiBase      string
	token        string
	pageSize     int
	maxScanPages int
	httpClient   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAPIBase overrides the API endpoint (GitHub Enterprise, test servers).
func WithAPIBase(base string) Option {
	return func(c *Client) { c.apiBase = base }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithPageSize sets the per-page size for history listing.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithMaxScanPages sets the pagination depth limit for boundary lookups.
func WithMaxScanPages(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxScanPages = n
		}
	}
}

// NewClient creates a GitHub provider client. An empty token means
// unauthenticated requests.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		apiBase:      DefaultAPIBase,
		token:        token,
		pageSize:     DefaultPageSize,
		maxScanPages: DefaultMaxScanPages,
		httpClient:   &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// refObject is the object a ref or tag-object response points at.
type refObject struct {
	SHA  string `json:"sha"`
	Type string `json:"type"`
}

// commitJSON is one entry of a commit list or compare response.
type commitJSON struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name string    `json:"name"`
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

func (c commitJSON) toCommitRef() provider.CommitRef {
	return provider.CommitRef{
		SHA:        c.SHA,
		Message:    c.Commit.Message,
		AuthorName: c.Commit.Author.Name,
		AuthoredAt: c.Commit.Author.Date,
	}
}

// ResolveTag resolves a tag to its commit SHA. Lightweight tags point directly
// at a commit; annotated tags point at a tag object which is dereferenced with
// a second lookup.
func (c *Client) ResolveTag(ctx context.Context, repo, tag string) (string, error) {
	var ref struct {
		Object refObject `json:"object"`
	}
	path := fmt.Sprintf("/repos/%s/git/ref/tags/%s", repo, url.PathEscape(tag))
	if err := c.getJSON(ctx, path, nil, &ref); err != nil {
		if apperr.IsKind(err, apperr.NotFound) {
			return "", apperr.New(apperr.NotFound, "tag %q not found in %s", tag, repo).WithScope(repo, "")
		}
		return "", err
	}

	if ref.Object.Type != "tag" {
		return ref.Object.SHA, nil
	}

	// Annotated tag: the ref points at a tag object, not the commit.
	var tagObj struct {
		Object refObject `json:"object"`
	}
	path = fmt.Sprintf("/repos/%s/git/tags/%s", repo, ref.Object.SHA)
	if err := c.getJSON(ctx, path, nil, &tagObj); err != nil {
		return "", err
	}
	return tagObj.Object.SHA, nil
}

// BoundaryCommitByDate finds the oldest commit at or after the date (EdgeStart)
// or the newest commit at or before it (EdgeEnd) on a branch, paginating until
// the answer is known or the scan depth is exhausted.
func (c *Client) BoundaryCommitByDate(ctx context.Context, repo, branch string, at time.Time, edge provider.Edge) (string, error) {
	query := url.Values{
		"sha":      {branch},
		"per_page": {strconv.Itoa(c.pageSize)},
	}
	if edge == provider.EdgeStart {
		query.Set("since", at.Format(time.RFC3339))
	} else {
		query.Set("until", at.Format(time.RFC3339))
	}

	// The listing is newest first. For the end edge the first commit of the
	// first page is the answer. For the start edge the oldest matching commit
	// is wanted, so pages are walked to the end of the window.
	var last commitJSON
	seen := false
	for page := 1; ; page++ {
		if page > c.maxScanPages {
			return "", apperr.New(apperr.NotFound,
				"history scan exceeded %d pages looking for the %s boundary on %s@%s; narrow the date window",
				c.maxScanPages, edge, repo, branch).WithScope(repo, branch)
		}

		query.Set("page", strconv.Itoa(page))
		var commits []commitJSON
		if err := c.getJSON(ctx, "/repos/"+repo+"/commits", query, &commits); err != nil {
			return "", err
		}

		if len(commits) == 0 {
			break
		}
		if edge == provider.EdgeEnd {
			return commits[0].SHA, nil
		}
		last = commits[len(commits)-1]
		seen = true
		if len(commits) < c.pageSize {
			break
		}
	}

	if !seen {
		return "", apperr.New(apperr.NotFound,
			"no commits at the %s boundary %s on %s@%s",
			edge, at.Format("2006-01-02"), repo, branch).WithScope(repo, branch)
	}
	return last.SHA, nil
}

// DiffCommits compares base...head and returns the commits only reachable from
// head, newest first.
func (c *Client) DiffCommits(ctx context.Context, repo, baseRef, headRef string) ([]provider.CommitRef, error) {
	var compare struct {
		Commits []commitJSON `json:"commits"`
	}
	path := fmt.Sprintf("/repos/%s/compare/%s...%s", repo, baseRef, headRef)
	if err := c.getJSON(ctx, path, nil, &compare); err != nil {
		if apperr.IsKind(err, apperr.NotFound) {
			return nil, apperr.New(apperr.NotFound,
				"cannot compare %s...%s in %s: one of the endpoints does not exist",
				baseRef, headRef, repo).WithScope(repo, "")
		}
		return nil, err
	}

	// GitHub returns compare commits oldest first; callers want newest first.
	refs := make([]provider.CommitRef, 0, len(compare.Commits))
	for i := len(compare.Commits) - 1; i >= 0; i-- {
		refs = append(refs, compare.Commits[i].toCommitRef())
	}
	return refs, nil
}

// getJSON performs one API GET and decodes the response, classifying failures
// with apperr kinds.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.apiBase + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return apperr.Wrap(err, apperr.Upstream, "creating request")
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Wrap(err, apperr.Upstream, "calling commit-history provider")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusUnprocessableEntity:
		// 422 is GitHub's answer for unknown SHAs in compare requests.
		return apperr.New(apperr.NotFound, "provider returned %d for %s", resp.StatusCode, path)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperr.New(apperr.Upstream, "provider returned status %d for %s: %s", resp.StatusCode, path, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Wrap(err, apperr.Upstream, "decoding provider response")
	}
	return nil
}
