package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appctl/internal/api"
)

var (
	wikiA = api.PairKey{App: "wiki", Host: "a.example"}
	dbA   = api.PairKey{App: "db", Host: "a.example"}
	mailB = api.PairKey{App: "mail", Host: "b.example"}
)

func withBlocking(kind api.FindingKind) api.DryRunResult {
	r := api.NewDryRunResult()
	r.Blocking[kind] = api.Finding{Kind: kind}
	return r
}

func withAdvisory(kind api.FindingKind) api.DryRunResult {
	r := api.NewDryRunResult()
	r.Advisory[kind] = api.Finding{Kind: kind}
	return r
}

func TestIsBlocking(t *testing.T) {
	tests := []struct {
		name   string
		result func() api.DryRunResult
		want   bool
	}{
		{"clean", api.NewDryRunResult, false},
		{"blocking finding", func() api.DryRunResult { return withBlocking(KindValidLicense) }, true},
		{"broken packages", func() api.DryRunResult {
			r := api.NewDryRunResult()
			r.Packages.Broken = []string{"libfoo"}
			return r
		}, true},
		{"incompatible version", func() api.DryRunResult {
			r := api.NewDryRunResult()
			r.VersionCompatible = false
			return r
		}, true},
		{"advisory only", func() api.DryRunResult { return withAdvisory(KindUpdateRepositories) }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBlocking(tt.result()))
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		results      map[api.PairKey]api.DryRunResult
		info         PreExecutionInfo
		wantBlocking bool
		wantAdvisory bool
		wantShown    bool
	}{
		{
			name:    "nothing at all skips confirmation",
			results: map[api.PairKey]api.DryRunResult{wikiA: api.NewDryRunResult()},
		},
		{
			name:      "auto-installed dependency is shown",
			results:   map[api.PairKey]api.DryRunResult{wikiA: api.NewDryRunResult(), dbA: api.NewDryRunResult()},
			info:      PreExecutionInfo{AutoInstalled: true},
			wantShown: true,
		},
		{
			name:      "settings needing input are shown",
			results:   map[api.PairKey]api.DryRunResult{wikiA: api.NewDryRunResult()},
			info:      PreExecutionInfo{SettingsRequired: true},
			wantShown: true,
		},
		{
			name:         "advisory only",
			results:      map[api.PairKey]api.DryRunResult{wikiA: withAdvisory(KindUpdateRepositories)},
			wantAdvisory: true,
			wantShown:    true,
		},
		{
			name: "one blocking pair blocks the run",
			results: map[api.PairKey]api.DryRunResult{
				wikiA: api.NewDryRunResult(),
				mailB: withBlocking(KindReachable),
			},
			wantBlocking: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Classify(tt.results, tt.info)
			assert.Equal(t, tt.wantBlocking, a.HasBlockingIssues)
			assert.Equal(t, tt.wantAdvisory, a.HasAdvisory)
			assert.Equal(t, tt.wantShown, a.NeedsToBeShown)
		})
	}
}

func TestClassify_Idempotent(t *testing.T) {
	results := map[api.PairKey]api.DryRunResult{
		wikiA: withAdvisory(KindEnoughRAM),
		dbA:   withBlocking(KindNotLocked),
		mailB: api.NewDryRunResult(),
	}
	first := Classify(results, PreExecutionInfo{AutoInstalled: true})
	second := Classify(results, PreExecutionInfo{AutoInstalled: true})

	assert.Equal(t, first, second)
	assert.Equal(t, []api.PairKey{dbA}, first.BlockingPairs)
	assert.Equal(t, []api.PairKey{wikiA}, first.AdvisoryPairs)
}

func TestPolicy_Apply(t *testing.T) {
	r := api.NewDryRunResult()
	r.Blocking[KindValidLicense] = api.Finding{Kind: KindValidLicense}
	r.Blocking[KindReachable] = api.Finding{Kind: KindReachable}
	r.Advisory[KindEnoughRAM] = api.Finding{Kind: KindEnoughRAM}

	relaxed := Policy{AdvisoryKinds: []api.FindingKind{KindValidLicense}}.Apply(r)
	assert.Contains(t, relaxed.Advisory, KindValidLicense)
	assert.Contains(t, relaxed.Blocking, KindReachable)
	assert.Contains(t, relaxed.Advisory, KindEnoughRAM)

	// The input is not mutated.
	assert.Contains(t, r.Blocking, KindValidLicense)

	strict := Policy{Strict: true, AdvisoryKinds: []api.FindingKind{KindValidLicense}}.Apply(r)
	assert.Empty(t, strict.Advisory)
	assert.Len(t, strict.Blocking, 3)
}

func TestPolicy_FixedKindsStayBlocking(t *testing.T) {
	r := api.NewDryRunResult()
	r.Advisory[KindCompatibleVersion] = api.Finding{Kind: KindCompatibleVersion}

	out := Policy{}.Apply(r)
	assert.Contains(t, out.Blocking, KindCompatibleVersion)
	assert.Empty(t, out.Advisory)
}

func TestPolicy_Validate(t *testing.T) {
	assert.NoError(t, Policy{AdvisoryKinds: []api.FindingKind{KindValidLicense, KindNotLocked}}.Validate())
	assert.Error(t, Policy{AdvisoryKinds: []api.FindingKind{KindBrokenPackages}}.Validate())
	assert.Error(t, Policy{AdvisoryKinds: []api.FindingKind{"mustBeShiny"}}.Validate())
}

func TestExplain(t *testing.T) {
	exp := Explain(wikiA, api.Finding{
		Kind:   KindServerRole,
		Detail: map[string]any{"role": "backup", "allowed": []any{"primary", "replica"}},
	}, true)
	assert.Equal(t, "Server role mismatch", exp.Title)
	assert.Equal(t, "wiki cannot run on a backup (allowed: primary, replica).", exp.Text)
	assert.True(t, exp.Blocking)

	exp = Explain(api.PairKey{App: api.AllApps, Host: "a.example"}, api.Finding{Kind: KindReachable, Detail: false}, true)
	assert.Equal(t, "a.example could not be contacted.", exp.Text)

	exp = Explain(wikiA, api.Finding{Kind: KindUpdateRepositories}, false)
	assert.Contains(t, exp.Text, "errata may be included")
}

func TestExplain_UnknownKindIsGeneric(t *testing.T) {
	exp := Explain(wikiA, api.Finding{Kind: "mustBeShiny", Detail: map[string]any{"shine": 3}}, false)
	assert.Equal(t, "mustBeShiny", exp.Title)
	assert.Equal(t, `mustBeShiny reported for wiki on a.example: {"shine":3}.`, exp.Text)
}

func TestReports_GroupedByHostAndMarksDependencies(t *testing.T) {
	apps := api.ApplicationSet{
		Requested:     []api.ResolvedApp{{AppRef: api.AppRef{ID: "wiki", Name: "Wiki"}}},
		AutoInstalled: []api.ResolvedApp{{AppRef: api.AppRef{ID: "db"}}},
	}
	broken := api.NewDryRunResult()
	broken.Packages.Broken = []string{"libfoo"}
	allA := api.PairKey{App: api.AllApps, Host: "a.example"}
	results := map[api.PairKey]api.DryRunResult{
		wikiA: broken,
		dbA:   api.NewDryRunResult(),
		allA:  withAdvisory(KindUpdateRepositories),
	}

	reports := Reports(results, apps)
	require.Len(t, reports, 3)
	assert.Equal(t, api.AllApps, reports[0].Key.App)
	assert.Equal(t, "db", reports[1].Key.App)
	assert.True(t, reports[1].AutoInstalled)
	assert.Equal(t, "Wiki", reports[2].App.Name)
	require.Len(t, reports[2].Blocking, 1)
	assert.Equal(t, KindBrokenPackages, reports[2].Blocking[0].Kind)
	assert.Contains(t, reports[2].Blocking[0].Text, "libfoo")
}

func TestStartLabel(t *testing.T) {
	assert.Equal(t, "Install", StartLabel(api.ActionInstall, false))
	assert.Equal(t, "Install anyway", StartLabel(api.ActionInstall, true))
	assert.Equal(t, "Remove", StartLabel(api.ActionRemove, false))
}

func TestRegistry_AllTemplatesRender(t *testing.T) {
	for _, kind := range Kinds() {
		exp := Explain(wikiA, api.Finding{Kind: kind}, true)
		assert.NotEmpty(t, exp.Text, kind)
		assert.NotContains(t, exp.Text, "<no value>", kind)
	}
}
