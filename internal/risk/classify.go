package risk

import (
	"sort"

	"appctl/internal/api"
)

// IsBlocking reports whether a single result blocks execution.
func IsBlocking(r api.DryRunResult) bool {
	return len(r.Blocking) > 0 || len(r.Packages.Broken) > 0 || !r.VersionCompatible
}

// IsAdvisory reports whether a single result carries advisory findings.
func IsAdvisory(r api.DryRunResult) bool {
	return len(r.Advisory) > 0
}

// PreExecutionInfo is information outside the result set that still
// requires the confirmation stage.
type PreExecutionInfo struct {
	AutoInstalled    bool
	SettingsRequired bool
}

// Assessment is the classification of a run's dry-run results.
type Assessment struct {
	HasBlockingIssues bool
	HasAdvisory       bool
	NeedsToBeShown    bool

	// BlockingPairs and AdvisoryPairs list the affected keys in display order.
	BlockingPairs []api.PairKey
	AdvisoryPairs []api.PairKey
}

// Classify derives the assessment of a result set. It is a pure function:
// classifying the same input twice yields the same assessment.
func Classify(results map[api.PairKey]api.DryRunResult, info PreExecutionInfo) Assessment {
	var a Assessment
	for key, r := range results {
		if IsBlocking(r) {
			a.HasBlockingIssues = true
			a.BlockingPairs = append(a.BlockingPairs, key)
		}
		if IsAdvisory(r) {
			a.HasAdvisory = true
			a.AdvisoryPairs = append(a.AdvisoryPairs, key)
		}
	}
	api.SortPairs(a.BlockingPairs)
	api.SortPairs(a.AdvisoryPairs)
	a.NeedsToBeShown = a.HasAdvisory || info.AutoInstalled || info.SettingsRequired
	return a
}

// StartLabel returns the label of the execution control: the action name,
// or its warning variant when advisory findings were accepted.
func StartLabel(action api.Action, hasAdvisory bool) string {
	if hasAdvisory {
		return action.Label() + " anyway"
	}
	return action.Label()
}

// Reports builds the per-pair report shown before execution, grouped by
// host and then by application. Host-level records come first on each host.
func Reports(results map[api.PairKey]api.DryRunResult, apps api.ApplicationSet) []api.PairReport {
	keys := make([]api.PairKey, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	api.SortPairs(keys)

	reports := make([]api.PairReport, 0, len(keys))
	for _, key := range keys {
		r := results[key]
		report := api.PairReport{
			Key:           key,
			App:           api.AppRef{ID: key.App},
			AutoInstalled: apps.IsAutoInstalled(key.App),
			Packages:      r.Packages,
			Blocking:      explainAll(key, r.Blocking, true),
			Advisory:      explainAll(key, r.Advisory, false),
		}
		if app, ok := apps.Get(key.App); ok {
			report.App = app.AppRef
		}
		if len(r.Packages.Broken) > 0 && r.Blocking[KindBrokenPackages].Kind == "" {
			report.Blocking = append(report.Blocking, Explain(key, api.Finding{
				Kind:   KindBrokenPackages,
				Detail: map[string]any{"packages": toAny(r.Packages.Broken)},
			}, true))
		}
		if !r.VersionCompatible && r.Blocking[KindCompatibleVersion].Kind == "" {
			report.Blocking = append(report.Blocking, Explain(key, api.Finding{Kind: KindCompatibleVersion}, true))
		}
		reports = append(reports, report)
	}
	return reports
}

func explainAll(key api.PairKey, findings map[api.FindingKind]api.Finding, blocking bool) []api.Explanation {
	kinds := make([]api.FindingKind, 0, len(findings))
	for k := range findings {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	out := make([]api.Explanation, 0, len(kinds))
	for _, k := range kinds {
		f := findings[k]
		if f.Kind == "" {
			f.Kind = k
		}
		out = append(out, Explain(key, f, blocking))
	}
	return out
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
