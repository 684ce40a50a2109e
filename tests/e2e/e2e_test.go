//go:build e2e

// Package e2e exercises the shiplog HTTP API over a real TCP listener with
// stubbed GitHub and OpenAI upstreams.
//
// To run these tests:
//
//	go test -tags=e2e ./tests/e2e/...
package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiplog-io/shiplog/internal/changelog"
	"github.com/shiplog-io/shiplog/internal/draft"
	"github.com/shiplog-io/shiplog/internal/github"
	"github.com/shiplog-io/shiplog/internal/openai"
	"github.com/shiplog-io/shiplog/internal/overlap"
	"github.com/shiplog-io/shiplog/internal/resolve"
	"github.com/shiplog-io/shiplog/internal/server"
	"github.com/shiplog-io/shiplog/internal/store"
)

// fakeGitHub serves just enough of the REST API for a tag-mode resolve.
func fakeGitHub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/demo/git/ref/tags/v1.0.0", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"object":{"sha":"aaaaaaa0000000000000000000000000000000aa","type":"commit"}}`)
	})
	mux.HandleFunc("/repos/octo/demo/git/ref/tags/v1.1.0", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"object":{"sha":"bbbbbbb0000000000000000000000000000000bb","type":"commit"}}`)
	})
	mux.HandleFunc("/repos/octo/demo/compare/", func(w http.ResponseWriter, r *http.Request) {
		// Oldest first, as the compare endpoint returns them.
		fmt.Fprint(w, `{"commits":[
			{"sha":"c1c1c1c0000000000000000000000000000000c1","commit":{"message":"Fix panic on empty input","author":{"name":"Octo Cat","date":"2024-01-01T10:00:00Z"}}},
			{"sha":"c2c2c2c0000000000000000000000000000000c2","commit":{"message":"Improve retry backoff","author":{"name":"Octo Cat","date":"2024-01-02T10:00:00Z"}}}
		]}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// fakeOpenAI returns a fixed chat completion.
func fakeOpenAI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"content":"# Release Notes — 2024-01-02\n\n## Bug Fixes\n- Fixed a panic on empty input (`+"`c1c1c1c`"+`)\n"}}]}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func startAPI(t *testing.T) (baseURL string, shutdown func()) {
	t.Helper()
	gh := fakeGitHub(t)
	ai := fakeOpenAI(t)

	st := store.NewMemoryStore()
	svc := changelog.NewService(
		resolve.NewResolver(github.NewClient("", github.WithAPIBase(gh.URL))),
		overlap.NewDetector(st),
		draft.NewEngine(openai.NewClient(openai.Config{APIKey: "test", APIBase: ai.URL})),
		st,
	)

	srv := server.New(server.Settings{Addr: "127.0.0.1:0"}, svc, nil)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, srv.Start(ctx))

	return "http://" + srv.Addr(), func() {
		cancel()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		_ = srv.Shutdown(shutdownCtx)
	}
}

func postJSON(t *testing.T, url, body string) (int, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

const tagBody = `{"repo":"octo/demo","branch":"main","mode":"tag","base":"v1.0.0","head":"v1.1.0"}`

func TestPublishListAmendOverHTTP(t *testing.T) {
	baseURL, shutdown := startAPI(t)
	defer shutdown()

	// Draft the tag range first; publish is a separate request carrying the
	// reviewed text and the commit set the draft resolved to.
	code, body := postJSON(t, baseURL+"/api/changelogs/generate", tagBody)
	require.Equal(t, http.StatusOK, code, "body: %s", body)
	var drafted struct {
		Repo     string   `json:"repo"`
		Branch   string   `json:"branch"`
		Mode     string   `json:"mode"`
		BaseSHA  string   `json:"baseSha"`
		HeadSHA  string   `json:"headSha"`
		Commits  []string `json:"commitShas"`
		Markdown string   `json:"markdown"`
	}
	require.NoError(t, json.Unmarshal(body, &drafted))

	pubBody, err := json.Marshal(map[string]any{
		"repo":           drafted.Repo,
		"branch":         drafted.Branch,
		"mode":           drafted.Mode,
		"baseSha":        drafted.BaseSHA,
		"headSha":        drafted.HeadSHA,
		"markdown":       drafted.Markdown + "\nReviewed before publishing.\n",
		"commitShas":     drafted.Commits,
		"originalParams": map[string]string{"base": "v1.0.0", "head": "v1.1.0"},
	})
	require.NoError(t, err)

	code, body = postJSON(t, baseURL+"/api/changelogs", string(pubBody))
	require.Equal(t, http.StatusCreated, code, "body: %s", body)
	var rec store.ReleaseRecord
	require.NoError(t, json.Unmarshal(body, &rec))
	assert.Equal(t, "tag", rec.Mode)
	assert.Equal(t, "v1.0.0", rec.BaseTag)
	assert.Contains(t, rec.Markdown, "Bug Fixes")
	assert.Contains(t, rec.Markdown, "Reviewed before publishing")
	assert.Equal(t, []string{
		"c2c2c2c0000000000000000000000000000000c2",
		"c1c1c1c0000000000000000000000000000000c1",
	}, rec.CommitSHAs)

	// A second publish of the same range conflicts.
	code, body = postJSON(t, baseURL+"/api/changelogs", string(pubBody))
	require.Equal(t, http.StatusConflict, code, "body: %s", body)

	// The published record is listed.
	resp, err := http.Get(baseURL + "/api/changelogs?repo=octo/demo&branch=main")
	require.NoError(t, err)
	listBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	var listed []store.ReleaseRecord
	require.NoError(t, json.Unmarshal(listBody, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, rec.ID, listed[0].ID)

	// Amend the markdown in place.
	req, err := http.NewRequest(http.MethodPatch, baseURL+"/api/changelogs/"+rec.ID,
		strings.NewReader(`{"markdown":"# Reviewed\n"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	amendResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	amendBody, err := io.ReadAll(amendResp.Body)
	amendResp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, amendResp.StatusCode)
	var amended store.ReleaseRecord
	require.NoError(t, json.Unmarshal(amendBody, &amended))
	assert.Equal(t, "# Reviewed\n", amended.Markdown)
	assert.Equal(t, rec.CommitSHAs, amended.CommitSHAs)
}

func TestGenerateIsReadOnlyOverHTTP(t *testing.T) {
	baseURL, shutdown := startAPI(t)
	defer shutdown()

	code, body := postJSON(t, baseURL+"/api/changelogs/generate", tagBody)
	require.Equal(t, http.StatusOK, code, "body: %s", body)

	// Generating twice never conflicts; nothing was persisted.
	code, body = postJSON(t, baseURL+"/api/changelogs/generate", tagBody)
	require.Equal(t, http.StatusOK, code, "body: %s", body)

	resp, err := http.Get(baseURL + "/api/changelogs?repo=octo/demo")
	require.NoError(t, err)
	listBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(listBody))
}
