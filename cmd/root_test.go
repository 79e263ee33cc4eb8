package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appctl/internal/api"
)

func TestSetVersion(t *testing.T) {
	original := GetVersion()
	defer SetVersion(original)

	SetVersion("1.2.3-test")
	assert.Equal(t, "1.2.3-test", rootCmd.Version)
	assert.Equal(t, "1.2.3-test", GetVersion())
}

func TestRootCommand(t *testing.T) {
	root := newRootCmd()
	assert.Equal(t, "appctl", root.Use)
	assert.NotEmpty(t, root.Short)
	assert.NotEmpty(t, root.Long)
	assert.True(t, root.SilenceUsage)

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"install", "upgrade", "remove", "history", "version"}, names)

	assert.NotNil(t, root.PersistentFlags().Lookup("config-path"))
	assert.NotNil(t, root.PersistentFlags().Lookup("log-level"))
}

func TestVersionTemplate(t *testing.T) {
	root := newRootCmd()
	root.Version = "1.0.0"

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"--version"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "appctl version 1.0.0\n", buf.String())
}

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	root.Version = "1.2.3-test"

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "appctl version 1.2.3-test\n", buf.String())

	cmd := newVersionCmd()
	assert.Equal(t, "version", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotNil(t, cmd.Run)
}

func TestGetExitCode(t *testing.T) {
	blocking := &api.BlockingError{Pairs: []api.PairKey{{App: "legacy", Host: "primary.example"}}}
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: ExitCodeSuccess},
		{name: "general", err: errors.New("boom"), want: ExitCodeError},
		{name: "blocked", err: &api.StageError{Stage: "RunningDryRun", Err: blocking}, want: ExitCodeBlocked},
		{name: "cancelled", err: fmt.Errorf("prompt: %w", api.ErrCancelled), want: ExitCodeCancelled},
		{name: "partial", err: &partialFailureError{failed: 1, total: 2}, want: ExitCodePartialFailure},
		{name: "input required", err: api.ErrInputRequired, want: ExitCodeError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getExitCode(tt.err))
		})
	}
}

func TestLifecycleCommands(t *testing.T) {
	root := newRootCmd()
	for _, action := range []api.Action{api.ActionInstall, api.ActionUpgrade, api.ActionRemove} {
		cmd, _, err := root.Find([]string{string(action)})
		require.NoError(t, err)
		assert.Equal(t, string(action), cmd.Name())
		assert.NotEmpty(t, cmd.Short)
		assert.Contains(t, cmd.Example, "appctl "+string(action))
		for _, flag := range []string{"host", "set", "yes", "no-input", "prompt", "output", "json", "quiet"} {
			assert.NotNil(t, cmd.Flags().Lookup(flag), "%s --%s", action, flag)
		}
	}
}

func TestLifecycle_RequiresApps(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"install"})
	assert.Error(t, root.Execute())
}
