package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appctl/internal/api"
	"appctl/internal/cli"
	"appctl/internal/config"
	"appctl/internal/history"
	"appctl/internal/orchestrator"
)

const testDomain = `
hosts:
  - name: primary.example
    role: primary
    installed:
      - id: mail
        version: "4.0"
  - name: replica.example
    role: replica
catalog:
  - id: db
    name: Database
    version: "15"
  - id: mail
    name: Mail
    version: "4.1"
  - id: legacy
    name: Legacy portal
    version: "0.9"
    endOfLife: true
outcomes:
  - host: primary.example
    app: mail
    fail: true
    messages: [mail queue is locked]
`

type testEnv struct {
	dir    string
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestEnv(t *testing.T, extraConfig string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "domain.yaml"), []byte(testDomain), 0o644))
	cfg := "backend:\n  type: fixture\n  fixture: domain.yaml\n" + extraConfig
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(cfg), 0o644))
	return &testEnv{dir: dir, stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
}

func (e *testEnv) app(t *testing.T) *Application {
	t.Helper()
	a, err := NewApplication(&Config{ConfigPath: e.dir, Stdout: e.stdout, Stderr: e.stderr})
	require.NoError(t, err)
	return a
}

func (e *testEnv) summary(t *testing.T) history.Record {
	t.Helper()
	var rec history.Record
	require.NoError(t, json.Unmarshal(e.stdout.Bytes(), &rec))
	return rec
}

func nonInteractive(extra ...func(*cli.RunFlags)) *cli.RunFlags {
	f := &cli.RunFlags{NoInput: true, Quiet: true, JSON: true, OutputFormat: "table"}
	for _, fn := range extra {
		fn(f)
	}
	return f
}

func TestNewApplication_LoadsConfig(t *testing.T) {
	env := newTestEnv(t, "history:\n  enabled: true\n  limit: 5\n")
	a := env.app(t)

	s := a.Settings()
	assert.Equal(t, config.BackendFixture, s.Backend.Type)
	assert.Equal(t, filepath.Join(env.dir, "domain.yaml"), s.Backend.Fixture)
	assert.True(t, s.History.Enabled)
	assert.Equal(t, 5, s.History.Limit)
}

func TestNewApplication_Errors(t *testing.T) {
	env := newTestEnv(t, "")
	_, err := NewApplication(&Config{ConfigPath: env.dir, LogLevel: "loud", Stderr: env.stderr})
	assert.Error(t, err)

	bad := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bad, "config.yaml"), []byte("backend:\n  type: carrier-pigeon\n"), 0o644))
	_, err = NewApplication(&Config{ConfigPath: bad, Stderr: env.stderr})
	assert.Error(t, err)
}

func TestRun_InstallOnPreselectedHost(t *testing.T) {
	env := newTestEnv(t, "history:\n  enabled: true\n")
	a := env.app(t)

	flags := nonInteractive(func(f *cli.RunFlags) { f.Hosts = []string{"db=primary.example"} })
	outcome, err := a.Run(context.Background(), api.ActionInstall, []string{"db"}, flags)
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StateDone, outcome.State)
	assert.False(t, outcome.HasErrors)

	rec := env.summary(t)
	assert.Equal(t, outcome.RunID, rec.RunID)
	assert.Equal(t, []string{"db"}, rec.Requested)
	require.Len(t, rec.Pairs, 1)
	assert.Equal(t, api.Host("primary.example"), rec.Pairs[0].Host)
	assert.True(t, rec.Pairs[0].Succeeded)

	store, err := a.History()
	require.NoError(t, err)
	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, outcome.RunID, records[0].RunID)
}

func TestRun_PartialFailure(t *testing.T) {
	env := newTestEnv(t, "")
	a := env.app(t)

	outcome, err := a.Run(context.Background(), api.ActionRemove, []string{"mail"}, nonInteractive())
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StateDone, outcome.State)
	assert.True(t, outcome.HasErrors)

	rec := env.summary(t)
	require.Len(t, rec.Pairs, 1)
	assert.False(t, rec.Pairs[0].Succeeded)
	assert.Equal(t, []string{"mail queue is locked"}, rec.Pairs[0].Messages)
}

func TestRun_BlockingWithoutPrompter(t *testing.T) {
	env := newTestEnv(t, "")
	a := env.app(t)

	flags := nonInteractive(func(f *cli.RunFlags) { f.Hosts = []string{"legacy=primary.example"} })
	outcome, err := a.Run(context.Background(), api.ActionInstall, []string{"legacy"}, flags)
	require.Error(t, err)
	assert.Equal(t, orchestrator.StateFailed, outcome.State)

	var blocking *api.BlockingError
	require.True(t, errors.As(err, &blocking))
	assert.Equal(t, []api.PairKey{{App: "legacy", Host: "primary.example"}}, blocking.Pairs)
	assert.Equal(t, string(orchestrator.StateFailed), env.summary(t).State)
}

func TestRun_HostChoiceNeedsInput(t *testing.T) {
	env := newTestEnv(t, "")
	a := env.app(t)

	outcome, err := a.Run(context.Background(), api.ActionInstall, []string{"db"}, nonInteractive())
	require.Error(t, err)
	assert.True(t, api.IsInputRequired(err))
	assert.Equal(t, orchestrator.StateFailed, outcome.State)
}

func TestRun_InvalidFlags(t *testing.T) {
	env := newTestEnv(t, "")
	a := env.app(t)

	tests := []struct {
		name  string
		flags *cli.RunFlags
	}{
		{name: "format", flags: &cli.RunFlags{OutputFormat: "html"}},
		{name: "host", flags: &cli.RunFlags{Hosts: []string{"db"}}},
		{name: "setting", flags: &cli.RunFlags{Settings: []string{"port=1"}}},
		{name: "prompt", flags: &cli.RunFlags{Prompt: "voice"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := a.Run(context.Background(), api.ActionInstall, []string{"db"}, tt.flags)
			assert.Error(t, err)
			assert.Nil(t, outcome)
		})
	}
	assert.Empty(t, env.stdout.String())
}

func TestHistory_Disabled(t *testing.T) {
	env := newTestEnv(t, "")
	_, err := env.app(t).History()
	assert.ErrorIs(t, err, ErrHistoryDisabled)
}

func TestHistory_CustomPath(t *testing.T) {
	path := t.TempDir()
	env := newTestEnv(t, "history:\n  enabled: true\n  path: "+path+"\n")
	a := env.app(t)

	flags := nonInteractive(func(f *cli.RunFlags) { f.Hosts = []string{"db=replica.example"} })
	_, err := a.Run(context.Background(), api.ActionInstall, []string{"db"}, flags)
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(path, "runs"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestNewBackend(t *testing.T) {
	_, endpoint, err := newBackend(config.BackendConfig{Type: config.BackendRemote, URL: "http://localhost:8470"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8470", endpoint)

	_, _, err = newBackend(config.BackendConfig{Type: config.BackendRemote, URL: "ftp://files"})
	assert.Error(t, err)

	_, _, err = newBackend(config.BackendConfig{Type: config.BackendFixture, Fixture: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)

	_, _, err = newBackend(config.BackendConfig{Type: "carrier-pigeon"})
	assert.Error(t, err)
}
