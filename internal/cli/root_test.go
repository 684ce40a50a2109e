package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiplog-io/shiplog/internal/apperr"
	"github.com/shiplog-io/shiplog/internal/config"
	"github.com/shiplog-io/shiplog/internal/resolve"
)

func TestRootCmdStructure(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "shiplog", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.NotEmpty(t, rootCmd.Example)
	assert.True(t, rootCmd.SilenceUsage)
}

func TestRootCmdPersistentFlags(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"config", "verbose"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "flag %s should exist", name)
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	t.Parallel()

	registered := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		registered[cmd.Name()] = true
	}

	for _, name := range []string{"generate", "publish", "list", "amend", "serve", "doctor", "config", "version"} {
		assert.True(t, registered[name], "command %s should be registered", name)
	}
}

func TestRangeFlagsShared(t *testing.T) {
	t.Parallel()

	for _, cmd := range []struct {
		name  string
		flags []string
	}{
		{"generate", []string{"repo", "branch", "mode", "start", "end", "base", "head", "local", "output"}},
		{"publish", []string{"repo", "branch", "mode", "start", "end", "base", "head", "local", "file"}},
	} {
		target, _, err := rootCmd.Find([]string{cmd.name})
		require.NoError(t, err)
		for _, flag := range cmd.flags {
			assert.NotNil(t, target.Flags().Lookup(flag), "%s should have --%s", cmd.name, flag)
		}
	}
}

func TestRangeFlagsRequest(t *testing.T) {
	t.Parallel()

	cfg := &config.Configuration{Git: config.GitConfig{DefaultBranch: "main"}}

	tests := map[string]struct {
		flags      rangeFlags
		wantBranch string
		wantMode   resolve.Mode
		wantErr    bool
	}{
		"branch defaults from config": {
			flags:      rangeFlags{repo: "octo/demo", mode: "tag", base: "v1.0.0"},
			wantBranch: "main",
			wantMode:   resolve.ModeTag,
		},
		"explicit branch wins": {
			flags:      rangeFlags{repo: "octo/demo", branch: "release", mode: "sha", base: "a1b2c3d"},
			wantBranch: "release",
			wantMode:   resolve.ModeSHA,
		},
		"date mode carries both bounds": {
			flags:      rangeFlags{repo: "octo/demo", mode: "date", start: "2024-01-01", end: "2024-01-31"},
			wantBranch: "main",
			wantMode:   resolve.ModeDate,
		},
		"unknown mode rejected": {
			flags:   rangeFlags{repo: "octo/demo", mode: "range"},
			wantErr: true,
		},
		"date mode missing end rejected": {
			flags:   rangeFlags{repo: "octo/demo", mode: "date", start: "2024-01-01"},
			wantErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req, err := tc.flags.request(cfg)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, apperr.IsKind(err, apperr.Validation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantBranch, req.Branch)
			assert.Equal(t, tc.wantMode, req.Spec.Mode())
		})
	}
}
