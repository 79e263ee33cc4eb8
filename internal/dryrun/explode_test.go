package dryrun

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appctl/internal/api"
	"appctl/internal/risk"
)

const (
	hostA api.Host = "a.example"
	hostB api.Host = "b.example"
)

func twoHosts() api.HostAssignment {
	return api.HostAssignment{
		hostA: {{ID: "wiki"}, {ID: "db"}},
		hostB: {{ID: "mail"}},
	}
}

func keys(results map[api.PairKey]api.DryRunResult) []string {
	var out []string
	for k := range results {
		out = append(out, k.String())
	}
	sort.Strings(out)
	return out
}

func TestExplode_ExactPairSet(t *testing.T) {
	resp := api.DryRunResponse{
		hostA: {Packages: map[string]api.PackageChanges{"wiki": {Install: []string{"wiki-core"}}}},
		hostB: {},
	}
	results := Explode(twoHosts(), resp)

	assert.Equal(t, []string{"db@a.example", "mail@b.example", "wiki@a.example"}, keys(results))
	assert.Equal(t, []string{"wiki-core"}, results[api.PairKey{App: "wiki", Host: hostA}].Packages.Install)
	for _, r := range results {
		assert.True(t, r.HostReachable)
		assert.True(t, r.VersionCompatible)
		assert.False(t, risk.IsBlocking(r))
	}
}

func TestExplode_MissingHostIsUnreachable(t *testing.T) {
	resp := api.DryRunResponse{hostB: {}}
	results := Explode(twoHosts(), resp)

	assert.Equal(t, []string{"__all__@a.example", "db@a.example", "mail@b.example", "wiki@a.example"}, keys(results))
	for _, app := range []string{"wiki", "db", api.AllApps} {
		r := results[api.PairKey{App: app, Host: hostA}]
		assert.False(t, r.HostReachable, app)
		assert.Equal(t, false, r.Blocking[risk.KindReachable].Detail, app)
		assert.True(t, r.Packages.Empty(), app)
	}
	assert.True(t, results[api.PairKey{App: "mail", Host: hostB}].HostReachable)
}

func TestExplode_AllAppsListedUnreachable(t *testing.T) {
	resp := api.DryRunResponse{
		hostA: {Unreachable: []string{"wiki", "db"}, Packages: map[string]api.PackageChanges{"wiki": {Install: []string{"x"}}}},
		hostB: {},
	}
	results := Explode(twoHosts(), resp)

	synthetic, ok := results[api.PairKey{App: api.AllApps, Host: hostA}]
	require.True(t, ok)
	assert.Contains(t, synthetic.Blocking, risk.KindReachable)
	assert.True(t, results[api.PairKey{App: "wiki", Host: hostA}].Packages.Empty())
}

func TestExplode_PartiallyUnreachable(t *testing.T) {
	resp := api.DryRunResponse{
		hostA: {Unreachable: []string{"db"}},
		hostB: {},
	}
	results := Explode(twoHosts(), resp)

	assert.NotContains(t, results, api.PairKey{App: api.AllApps, Host: hostA})
	assert.Contains(t, results[api.PairKey{App: "db", Host: hostA}].Blocking, risk.KindReachable)
	assert.Empty(t, results[api.PairKey{App: "wiki", Host: hostA}].Blocking)
}

func TestExplode_FindingsAndMergedFlags(t *testing.T) {
	resp := api.DryRunResponse{
		hostA: {
			Packages: map[string]api.PackageChanges{"wiki": {Broken: []string{"libold"}}},
			Errors: map[api.FindingKind]map[string]any{
				risk.KindValidLicense:      {"wiki": map[string]any{"license": "enterprise"}},
				risk.KindBrokenPackages:    {"wiki": []any{"libold", "libnew"}},
				risk.KindCompatibleVersion: {"db": true},
				risk.KindNotLocked:         {"ghost": true},
			},
			Warnings: map[api.FindingKind]map[string]any{
				risk.KindUpdateRepositories: {api.AllApps: true},
				risk.KindEnoughRAM:          {"db": map[string]any{"required": "4G"}},
			},
		},
		hostB: {},
	}
	results := Explode(twoHosts(), resp)

	wiki := results[api.PairKey{App: "wiki", Host: hostA}]
	assert.Contains(t, wiki.Blocking, risk.KindValidLicense)
	assert.Equal(t, []string{"libold", "libnew"}, wiki.Packages.Broken)
	assert.NotContains(t, wiki.Blocking, risk.KindBrokenPackages)

	db := results[api.PairKey{App: "db", Host: hostA}]
	assert.False(t, db.VersionCompatible)
	assert.Empty(t, db.Blocking)
	assert.True(t, risk.IsBlocking(db))
	assert.Contains(t, db.Advisory, risk.KindEnoughRAM)

	assert.NotContains(t, results, api.PairKey{App: api.AllApps, Host: hostA})
	assert.Contains(t, wiki.Advisory, risk.KindUpdateRepositories)
	assert.Contains(t, db.Advisory, risk.KindUpdateRepositories)
	assert.NotContains(t, results[api.PairKey{App: "mail", Host: hostB}].Advisory, risk.KindUpdateRepositories)

	assert.NotContains(t, results, api.PairKey{App: "ghost", Host: hostA})
}

func TestExplode_HostLevelFindingsOnReachableHost(t *testing.T) {
	resp := api.DryRunResponse{
		hostA: {Errors: map[api.FindingKind]map[string]any{
			risk.KindNotLocked: {api.AllApps: map[string]any{"lock": "held by yum"}},
		}},
		hostB: {},
	}
	results := Explode(twoHosts(), resp)

	assert.Equal(t, []string{"db@a.example", "mail@b.example", "wiki@a.example"}, keys(results))
	for _, app := range []string{"wiki", "db"} {
		r := results[api.PairKey{App: app, Host: hostA}]
		assert.True(t, r.HostReachable, app)
		assert.Equal(t, map[string]any{"lock": "held by yum"}, r.Blocking[risk.KindNotLocked].Detail, app)
	}
	assert.Empty(t, results[api.PairKey{App: "mail", Host: hostB}].Blocking)
}

func TestExplode_HostFailureIsBlockingTransportFinding(t *testing.T) {
	resp := api.DryRunResponse{
		hostA: {},
		hostB: {Failure: "analyzer crashed"},
	}
	results := Explode(twoHosts(), resp)

	mail := results[api.PairKey{App: "mail", Host: hostB}]
	require.Contains(t, mail.Blocking, risk.KindTransport)
	assert.Equal(t, map[string]any{"error": "analyzer crashed"}, mail.Blocking[risk.KindTransport].Detail)
	assert.Contains(t, results, api.PairKey{App: api.AllApps, Host: hostB})
	assert.False(t, risk.IsBlocking(results[api.PairKey{App: "wiki", Host: hostA}]))
}

func TestExplode_IgnoresUnassignedHosts(t *testing.T) {
	resp := api.DryRunResponse{
		hostA:       {},
		hostB:       {},
		"c.example": {Unreachable: []string{"wiki"}},
	}
	results := Explode(twoHosts(), resp)
	assert.Len(t, results, 3)
}
