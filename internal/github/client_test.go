package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiplog-io/shiplog/internal/apperr"
	"github.com/shiplog-io/shiplog/internal/provider"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient("test-token", WithAPIBase(server.URL))
}

func TestResolveTag(t *testing.T) {
	tests := map[string]struct {
		handler  http.HandlerFunc
		wantSHA  string
		wantErr  bool
		wantKind apperr.Kind
	}{
		"lightweight tag resolves directly": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/repos/octo/demo/git/ref/tags/v1.0.0", r.URL.Path)
				writeJSON(w, map[string]any{
					"object": map[string]any{"sha": "aaaa111", "type": "commit"},
				})
			},
			wantSHA: "aaaa111",
		},
		"annotated tag dereferences to commit": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/repos/octo/demo/git/ref/tags/v1.0.0":
					writeJSON(w, map[string]any{
						"object": map[string]any{"sha": "tagobj99", "type": "tag"},
					})
				case "/repos/octo/demo/git/tags/tagobj99":
					writeJSON(w, map[string]any{
						"object": map[string]any{"sha": "bbbb222", "type": "commit"},
					})
				default:
					t.Fatalf("unexpected path %s", r.URL.Path)
				}
			},
			wantSHA: "bbbb222",
		},
		"missing tag is not found": {
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			wantErr:  true,
			wantKind: apperr.NotFound,
		},
		"server error is upstream": {
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantErr:  true,
			wantKind: apperr.Upstream,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)

			sha, err := client.ResolveTag(context.Background(), "octo/demo", "v1.0.0")

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperr.IsKind(err, tt.wantKind), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSHA, sha)
		})
	}
}

func TestResolveTagSendsAuthHeader(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, map[string]any{
			"object": map[string]any{"sha": "aaaa111", "type": "commit"},
		})
	}))

	_, err := client.ResolveTag(context.Background(), "octo/demo", "v1.0.0")

	require.NoError(t, err)
	assert.Equal(t, "Bearer test-token", gotAuth)
}

func TestBoundaryCommitByDate(t *testing.T) {
	window := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("end edge takes newest commit of first page", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, window.Format(time.RFC3339), r.URL.Query().Get("until"))
			assert.Equal(t, "main", r.URL.Query().Get("sha"))
			writeJSON(w, []map[string]any{
				commitPayload("c3"), commitPayload("c2"), commitPayload("c1"),
			})
		}))

		sha, err := client.BoundaryCommitByDate(context.Background(), "octo/demo", "main", window, provider.EdgeEnd)

		require.NoError(t, err)
		assert.Equal(t, "c3", sha)
	})

	t.Run("start edge walks pages to the oldest commit", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, window.Format(time.RFC3339), r.URL.Query().Get("since"))
			switch r.URL.Query().Get("page") {
			case "1":
				writeJSON(w, []map[string]any{commitPayload("c4"), commitPayload("c3")})
			case "2":
				writeJSON(w, []map[string]any{commitPayload("c2"), commitPayload("c1")})
			default:
				writeJSON(w, []map[string]any{})
			}
		}))
		defer server.Close()
		client := NewClient("", WithAPIBase(server.URL), WithPageSize(2))

		sha, err := client.BoundaryCommitByDate(context.Background(), "octo/demo", "main", window, provider.EdgeStart)

		require.NoError(t, err)
		assert.Equal(t, "c1", sha)
	})

	t.Run("empty window is not found with dates in message", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, []map[string]any{})
		}))

		_, err := client.BoundaryCommitByDate(context.Background(), "octo/demo", "main", window, provider.EdgeStart)

		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.NotFound))
		assert.Contains(t, err.Error(), "2024-01-01")
	})

	t.Run("scan depth exhausted is a distinct failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Every page is full, so the oldest commit is never reached.
			writeJSON(w, []map[string]any{commitPayload("x1"), commitPayload("x2")})
		}))
		defer server.Close()
		client := NewClient("", WithAPIBase(server.URL), WithPageSize(2), WithMaxScanPages(3))

		_, err := client.BoundaryCommitByDate(context.Background(), "octo/demo", "main", window, provider.EdgeStart)

		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.NotFound))
		assert.Contains(t, err.Error(), "exceeded 3 pages")
	})
}

func TestDiffCommits(t *testing.T) {
	t.Run("reverses compare order to newest first", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/repos/octo/demo/compare/base1...HEAD", r.URL.Path)
			writeJSON(w, map[string]any{
				"commits": []map[string]any{
					commitPayload("old1"), commitPayload("mid2"), commitPayload("new3"),
				},
			})
		}))

		commits, err := client.DiffCommits(context.Background(), "octo/demo", "base1", provider.Head)

		require.NoError(t, err)
		require.Len(t, commits, 3)
		assert.Equal(t, "new3", commits[0].SHA)
		assert.Equal(t, "old1", commits[2].SHA)
	})

	t.Run("unknown endpoint is not found", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
		}))

		_, err := client.DiffCommits(context.Background(), "octo/demo", "nope", "HEAD")

		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.NotFound))
		assert.Contains(t, err.Error(), "nope...HEAD")
	})

	t.Run("transport failure is upstream", func(t *testing.T) {
		client := NewClient("", WithAPIBase("http://127.0.0.1:1"))

		_, err := client.DiffCommits(context.Background(), "octo/demo", "a", "b")

		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.Upstream))
	})
}

func commitPayload(sha string) map[string]any {
	return map[string]any{
		"sha": sha,
		"commit": map[string]any{
			"message": fmt.Sprintf("commit %s", sha),
			"author": map[string]any{
				"name": "Octo Cat",
				"date": "2024-01-01T12:00:00Z",
			},
		},
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
