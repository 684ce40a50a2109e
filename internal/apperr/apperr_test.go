package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindHTTPStatus(t *testing.T) {
	tests := map[string]struct {
		kind Kind
		want int
	}{
		"validation maps to 400":       {kind: Validation, want: http.StatusBadRequest},
		"not found maps to 404":        {kind: NotFound, want: http.StatusNotFound},
		"upstream maps to 502":         {kind: Upstream, want: http.StatusBadGateway},
		"generation maps to 503":       {kind: Generation, want: http.StatusServiceUnavailable},
		"overlap conflict maps to 409": {kind: OverlapConflict, want: http.StatusConflict},
		"storage maps to 500":          {kind: Storage, want: http.StatusInternalServerError},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.HTTPStatus())
		})
	}
}

func TestNewCarriesKindAndMessage(t *testing.T) {
	err := New(NotFound, "tag %q not found in %s", "v1.2.0", "octo/demo")

	assert.Equal(t, NotFound, err.Kind)
	assert.Equal(t, `tag "v1.2.0" not found in octo/demo`, err.Error())
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(cause, Upstream, "listing commits")

	require.NotNil(t, err)
	assert.Equal(t, Upstream, err.Kind)
	assert.Equal(t, "listing commits: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, Storage, "inserting record"))
}

func TestAsUnwrapsThroughChain(t *testing.T) {
	inner := New(OverlapConflict, "range overlaps a published changelog").WithScope("octo/demo", "main")
	wrapped := fmt.Errorf("publish failed: %w", inner)

	got := As(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, OverlapConflict, got.Kind)
	assert.Equal(t, "octo/demo", got.Repo)
	assert.Equal(t, "main", got.Branch)
}

func TestAsReturnsNilForPlainError(t *testing.T) {
	assert.Nil(t, As(errors.New("plain")))
}

func TestKindOfDefaultsToStorage(t *testing.T) {
	assert.Equal(t, Storage, KindOf(errors.New("unclassified")))
	assert.Equal(t, Validation, KindOf(New(Validation, "missing start date")))
}

func TestIsKind(t *testing.T) {
	err := New(Generation, "generator unavailable")

	assert.True(t, IsKind(err, Generation))
	assert.False(t, IsKind(err, Upstream))
	assert.False(t, IsKind(errors.New("plain"), Generation))
}

func TestFormatPlainIncludesScope(t *testing.T) {
	err := New(NotFound, "no commits in window").WithScope("octo/demo", "main").WithMode("date")

	out := FormatPlain(err)
	assert.Contains(t, out, "Error [Not Found]: no commits in window")
	assert.Contains(t, out, "repo octo/demo@main")
	assert.Contains(t, out, "mode date")
}
