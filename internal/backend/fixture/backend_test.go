package fixture

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appctl/internal/api"
	"appctl/internal/risk"
)

const (
	primary = api.Host("primary.example")
	replica = api.Host("replica.example")
	offline = api.Host("offline.example")
)

func openTestdata(t *testing.T) *Backend {
	t.Helper()
	b, err := Open("testdata/domain.yaml")
	require.NoError(t, err)
	return b
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"host without name", "hosts:\n  - role: primary\n"},
		{"duplicate host", "hosts:\n  - name: a\n  - name: a\n"},
		{"duplicate app", "catalog:\n  - id: wiki\n  - id: wiki\n"},
		{"finding on unknown host", "hosts:\n  - name: a\nfindings:\n  - host: b\n    app: x\n    kind: k\n"},
		{"finding without kind", "hosts:\n  - name: a\nfindings:\n  - host: a\n    app: x\n"},
		{"outcome on unknown host", "outcomes:\n  - host: b\n    app: x\n"},
		{"not yaml", "hosts: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad_Testdata(t *testing.T) {
	f, err := Load("testdata/domain.yaml")
	require.NoError(t, err)
	assert.Len(t, f.Hosts, 3)
	assert.True(t, f.Hosts[1].Container)
	assert.True(t, f.Hosts[2].Unreachable)

	require.Len(t, f.Catalog, 5)
	wiki := f.Catalog[0]
	assert.Equal(t, "wiki", wiki.ID)
	assert.Equal(t, []string{"db"}, wiki.DependsOn)
	assert.Equal(t, []string{"wiki-server", "wiki-cli"}, wiki.Packages)
	require.Len(t, wiki.Settings.Fields, 1)
	assert.Equal(t, api.SettingInt, wiki.Settings.Fields[0].Type)

	_, err = Load("testdata/missing.yaml")
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	b := openTestdata(t)

	resp, err := b.Resolve(context.Background(), api.ResolveRequest{Apps: []string{"wiki"}, Action: api.ActionInstall})
	require.NoError(t, err)
	var ids []string
	for _, a := range resp.Apps {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"db", "wiki"}, ids)
	assert.Equal(t, []string{"db"}, resp.AutoInstalled)
	assert.Contains(t, resp.Settings, "wiki")

	resp, err = b.Resolve(context.Background(), api.ResolveRequest{Apps: []string{"wiki"}, Action: api.ActionUpgrade})
	require.NoError(t, err)
	require.Len(t, resp.Apps, 1)
	assert.Empty(t, resp.AutoInstalled)

	_, err = b.Resolve(context.Background(), api.ResolveRequest{Apps: []string{"nope"}, Action: api.ActionInstall})
	var resErr *api.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, api.ReasonUnknownApplication, resErr.Reason)
	assert.Equal(t, "nope", resErr.App)
}

func TestResolve_GraphErrors(t *testing.T) {
	f, err := Parse([]byte(`
hosts:
  - name: a
    installed: [{id: mail}]
catalog:
  - id: x
    dependsOn: [y]
  - id: y
    dependsOn: [x]
  - id: lonely
    dependsOn: [ghost]
  - id: blog
    dependsOn: [mail]
  - id: mail
`))
	require.NoError(t, err)
	b := New(f)

	_, err = b.Resolve(context.Background(), api.ResolveRequest{Apps: []string{"x"}, Action: api.ActionInstall})
	var resErr *api.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, api.ReasonUnresolvableDependency, resErr.Reason)
	assert.Contains(t, resErr.Message, "dependency cycle")

	_, err = b.Resolve(context.Background(), api.ResolveRequest{Apps: []string{"lonely"}, Action: api.ActionInstall})
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, api.ReasonUnresolvableDependency, resErr.Reason)
	assert.Equal(t, "lonely", resErr.App)

	resp, err := b.Resolve(context.Background(), api.ResolveRequest{Apps: []string{"blog"}, Action: api.ActionInstall})
	require.NoError(t, err)
	assert.Empty(t, resp.AutoInstalled)
	require.Len(t, resp.Apps, 1)
	assert.Equal(t, "blog", resp.Apps[0].ID)
}

func TestDomain_ReturnsCopy(t *testing.T) {
	b := openTestdata(t)
	d, err := b.Domain(context.Background())
	require.NoError(t, err)
	require.Len(t, d.Hosts, 3)
	assert.True(t, d.Hosts[0].Local)

	d.Hosts[0].Installed[0].ID = "changed"
	again, err := b.Domain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "mail", again.Hosts[0].Installed[0].ID)
}

func TestDryRun_Findings(t *testing.T) {
	b := openTestdata(t)

	resp, err := b.DryRun(context.Background(), api.BackendRequest{
		Action: api.ActionInstall,
		Apps:   []string{"wiki", "db", "chat", "legacy"},
		Hosts: map[api.Host][]string{
			primary: {"wiki", "db"},
			replica: {"chat"},
			offline: {"legacy"},
		},
		DryRun: true,
	})
	require.NoError(t, err)

	assert.NotContains(t, resp, offline)

	p := resp[primary]
	assert.Equal(t, []string{"wiki-server", "wiki-cli"}, p.Packages["wiki"].Install)
	assert.Equal(t, []string{"db"}, p.Packages["db"].Install)
	assert.Empty(t, p.Errors)
	require.Contains(t, p.Warnings, risk.KindEnoughRAM)
	assert.Contains(t, p.Warnings[risk.KindEnoughRAM], "wiki")

	r := resp[replica]
	require.Contains(t, r.Errors, risk.KindNoDockerInDocker)
	assert.Contains(t, r.Errors[risk.KindNoDockerInDocker], "chat")
}

func TestDryRun_InstallChecks(t *testing.T) {
	b := openTestdata(t)

	tests := []struct {
		name   string
		action api.Action
		host   api.Host
		apps   []string
		kind   api.FindingKind
		app    string
	}{
		{"already installed", api.ActionInstall, primary, []string{"mail"}, risk.KindNotInstalled, "mail"},
		{"role mismatch", api.ActionInstall, replica, []string{"mail"}, risk.KindServerRole, "mail"},
		{"end of life", api.ActionInstall, primary, []string{"legacy"}, risk.KindNotEndOfLife, "legacy"},
		{"missing dependency", api.ActionInstall, primary, []string{"wiki"}, risk.KindDependencies, "wiki"},
		{"upgrade not installed", api.ActionUpgrade, replica, []string{"db"}, risk.KindInstalled, "db"},
		{"remove not installed", api.ActionRemove, primary, []string{"db"}, risk.KindInstalled, "db"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := b.DryRun(context.Background(), api.BackendRequest{
				Action: tt.action,
				Apps:   tt.apps,
				Hosts:  map[api.Host][]string{tt.host: tt.apps},
				DryRun: true,
			})
			require.NoError(t, err)
			errs := resp[tt.host].Errors
			require.Contains(t, errs, tt.kind)
			assert.Contains(t, errs[tt.kind], tt.app)
		})
	}
}

func TestDryRun_HostFailure(t *testing.T) {
	f, err := Parse([]byte(`
hosts:
  - name: broken.example
    failure: analyzer crashed
catalog:
  - id: wiki
`))
	require.NoError(t, err)

	resp, err := New(f).DryRun(context.Background(), api.BackendRequest{
		Action: api.ActionInstall,
		Apps:   []string{"wiki"},
		Hosts:  map[api.Host][]string{"broken.example": {"wiki"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "analyzer crashed", resp["broken.example"].Failure)
}

func TestExecute_UpdatesDomain(t *testing.T) {
	b := openTestdata(t)

	var progress []api.ProgressEvent
	resp, err := b.Execute(context.Background(), api.BackendRequest{
		Action: api.ActionInstall,
		Apps:   []string{"db", "chat"},
		Hosts: map[api.Host][]string{
			primary: {"db"},
			replica: {"chat"},
		},
	}, func(ev api.ProgressEvent) { progress = append(progress, ev) })
	require.NoError(t, err)

	assert.True(t, resp[primary]["db"].Success)
	assert.True(t, resp[replica]["chat"].Success)
	require.Len(t, progress, 2)
	assert.Equal(t, "Installing db on primary.example", progress[0].Message)
	assert.Equal(t, "Installing chat on replica.example", progress[1].Message)

	d, err := b.Domain(context.Background())
	require.NoError(t, err)
	assert.True(t, d.Hosts[0].Has("db"))
	assert.True(t, d.Hosts[1].Has("chat"))

	_, err = b.Execute(context.Background(), api.BackendRequest{
		Action: api.ActionRemove,
		Apps:   []string{"db"},
		Hosts:  map[api.Host][]string{primary: {"db"}},
	}, nil)
	require.NoError(t, err)
	d, err = b.Domain(context.Background())
	require.NoError(t, err)
	assert.False(t, d.Hosts[0].Has("db"))
}

func TestExecute_ScriptedFailure(t *testing.T) {
	b := openTestdata(t)

	var progress []api.ProgressEvent
	resp, err := b.Execute(context.Background(), api.BackendRequest{
		Action: api.ActionUpgrade,
		Apps:   []string{"mail"},
		Hosts:  map[api.Host][]string{primary: {"mail"}},
	}, func(ev api.ProgressEvent) { progress = append(progress, ev) })
	require.NoError(t, err)

	outcome := resp[primary]["mail"]
	assert.False(t, outcome.Success)
	assert.Equal(t, []string{"mail queue is locked"}, outcome.Messages)
	require.Len(t, progress, 2)
	assert.True(t, progress[1].IsError())

	d, err := b.Domain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "4.0", d.Hosts[0].Installed[0].Version)
}

func TestExecute_UnreachableHostKeepsOtherHosts(t *testing.T) {
	b := openTestdata(t)

	var progress []api.ProgressEvent
	resp, err := b.Execute(context.Background(), api.BackendRequest{
		Action: api.ActionInstall,
		Apps:   []string{"db"},
		Hosts:  map[api.Host][]string{primary: {"db"}, offline: {"db"}},
	}, func(ev api.ProgressEvent) { progress = append(progress, ev) })
	require.NoError(t, err)

	assert.True(t, resp[primary]["db"].Success)
	failed := resp[offline]["db"]
	assert.False(t, failed.Success)
	assert.Equal(t, []string{"execute on offline.example: host is unreachable"}, failed.Messages)

	require.Len(t, progress, 2)
	assert.True(t, progress[0].IsError())
	assert.Contains(t, progress[0].Message, "offline.example")
	assert.Equal(t, "Installing db on primary.example", progress[1].Message)

	d, err := b.Domain(context.Background())
	require.NoError(t, err)
	assert.True(t, d.Hosts[0].Has("db"))
}
