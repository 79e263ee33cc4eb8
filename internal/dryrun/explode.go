// Package dryrun turns the per-host dry-run response of the analyzer into
// per-pair results keyed by (application, host).
package dryrun

import (
	"fmt"

	"appctl/internal/api"
	"appctl/internal/risk"
	"appctl/pkg/logging"
)

// Explode maps the analyzer response onto every pair of the assignment.
//
// A host missing from the response, or one whose every application is
// listed as unreachable, marks all its pairs unreachable and gains a
// synthetic (AllApps, host) record carrying the same finding. So does a
// host whose analysis failed. Findings addressed to AllApps on a host that
// answered are copied onto every pair of that host. Entries for hosts or
// applications outside the assignment are ignored.
func Explode(assignment api.HostAssignment, resp api.DryRunResponse) map[api.PairKey]api.DryRunResult {
	results := make(map[api.PairKey]api.DryRunResult)

	for host := range resp {
		if _, ok := assignment[host]; !ok {
			logging.Warn("DryRun", "Ignoring dry-run report for unassigned host %s", host)
		}
	}

	for _, host := range assignment.Hosts() {
		apps := assignment[host]
		report, ok := resp[host]

		switch {
		case !ok || allUnreachable(apps, report.Unreachable):
			logging.Info("DryRun", "Host %s is unreachable", host)
			markHost(results, host, apps, api.Finding{Kind: risk.KindReachable, Detail: false}, false)
			continue
		case report.Failure != "":
			logging.Warn("DryRun", "Dry run failed on host %s: %s", host, report.Failure)
			markHost(results, host, apps, api.Finding{
				Kind:   risk.KindTransport,
				Detail: map[string]any{"error": report.Failure},
			}, true)
			continue
		}

		unreachable := toSet(report.Unreachable)
		for _, ref := range apps {
			key := api.PairKey{App: ref.ID, Host: host}
			r := api.NewDryRunResult()
			if unreachable[ref.ID] {
				r.HostReachable = false
				r.Blocking[risk.KindReachable] = api.Finding{Kind: risk.KindReachable, Detail: false}
			} else if pkgs, ok := report.Packages[ref.ID]; ok {
				r.Packages = pkgs
			}
			results[key] = r
		}

		merge(results, host, apps, report.Errors, true)
		merge(results, host, apps, report.Warnings, false)
	}
	return results
}

func markHost(results map[api.PairKey]api.DryRunResult, host api.Host, apps []api.AppRef, finding api.Finding, reachable bool) {
	keys := make([]api.PairKey, 0, len(apps)+1)
	for _, ref := range apps {
		keys = append(keys, api.PairKey{App: ref.ID, Host: host})
	}
	keys = append(keys, api.PairKey{App: api.AllApps, Host: host})

	for _, key := range keys {
		r := api.NewDryRunResult()
		r.HostReachable = reachable
		r.Blocking[finding.Kind] = finding
		results[key] = r
	}
}

func merge(results map[api.PairKey]api.DryRunResult, host api.Host, apps []api.AppRef, findings map[api.FindingKind]map[string]any, blocking bool) {
	for kind, perApp := range findings {
		for appID, detail := range perApp {
			targets := []api.PairKey{{App: appID, Host: host}}
			if appID == api.AllApps {
				targets = targets[:0]
				for _, ref := range apps {
					targets = append(targets, api.PairKey{App: ref.ID, Host: host})
				}
			}
			for _, key := range targets {
				r, ok := results[key]
				if !ok {
					logging.Warn("DryRun", "Ignoring %s finding for unassigned pair %s", kind, key)
					continue
				}
				results[key] = apply(r, kind, detail, blocking)
			}
		}
	}
}

func apply(r api.DryRunResult, kind api.FindingKind, detail any, blocking bool) api.DryRunResult {
	switch kind {
	case risk.KindCompatibleVersion:
		r.VersionCompatible = false
		if m, ok := detail.(map[string]any); ok && len(m) > 0 {
			r.Blocking[kind] = api.Finding{Kind: kind, Detail: detail}
		}
	case risk.KindBrokenPackages:
		if pkgs, ok := stringList(detail); ok {
			r.Packages.Broken = appendUnique(r.Packages.Broken, pkgs...)
		} else {
			r.Blocking[kind] = api.Finding{Kind: kind, Detail: detail}
		}
	default:
		f := api.Finding{Kind: kind, Detail: detail}
		if blocking {
			r.Blocking[kind] = f
		} else {
			r.Advisory[kind] = f
		}
	}
	return r
}

func allUnreachable(apps []api.AppRef, unreachable []string) bool {
	if len(unreachable) == 0 {
		return false
	}
	set := toSet(unreachable)
	if set[api.AllApps] {
		return true
	}
	for _, ref := range apps {
		if !set[ref.ID] {
			return false
		}
	}
	return true
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func stringList(v any) ([]string, bool) {
	switch l := v.(type) {
	case []string:
		return l, true
	case []any:
		out := make([]string, 0, len(l))
		for _, item := range l {
			out = append(out, fmt.Sprint(item))
		}
		return out, true
	}
	return nil, false
}

func appendUnique(dst []string, items ...string) []string {
	seen := toSet(dst)
	for _, it := range items {
		if !seen[it] {
			dst = append(dst, it)
			seen[it] = true
		}
	}
	return dst
}
