// Package placement assigns every application of a run to exactly one host.
package placement

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"appctl/internal/api"
	"appctl/pkg/logging"
)

// Assigner places applications on hosts, asking the prompter only when the
// placement cannot be derived automatically.
type Assigner struct {
	prompter api.Prompter
}

// New creates an Assigner. A nil prompter makes the assigner
// non-interactive: ambiguous placements fail with api.ErrInputRequired.
func New(prompter api.Prompter) *Assigner {
	return &Assigner{prompter: prompter}
}

// Assign returns a complete assignment for apps.
//
// Preselected hosts are honored when eligible and rejected with a
// *api.HostAssignmentError otherwise. For upgrade and remove an application
// with exactly one eligible host is placed there; an install is placed
// without asking only in a single-host domain. An auto-installed dependency
// follows the host of an application that depends on it when that host is
// eligible.
// Everything else is asked for, re-asking with the problems listed until
// the answer is complete and valid or the prompter cancels.
func (a *Assigner) Assign(ctx context.Context, action api.Action, apps api.ApplicationSet, domain api.Domain, preselected map[string]api.Host) (api.HostAssignment, error) {
	all := apps.All()
	cands := make(map[string]Candidates, len(all))
	for _, app := range all {
		c := Eligibility(action, app, domain)
		if len(c.Eligible) == 0 {
			return nil, &api.HostAssignmentError{App: app.ID, Exclusions: c.Excluded}
		}
		cands[app.ID] = c
	}

	decided := make(map[string]api.Host, len(all))
	for _, id := range sortedKeys(preselected) {
		host := preselected[id]
		c, ok := cands[id]
		if !ok {
			return nil, fmt.Errorf("host preselected for %q, which is not part of this run", id)
		}
		if !c.Allows(host) {
			ex, found := c.exclusion(host)
			if !found {
				ex = api.HostExclusion{Host: host, Reason: api.ExclusionNotInDomain}
			}
			return nil, &api.HostAssignmentError{App: id, Requested: host, Exclusions: []api.HostExclusion{ex}}
		}
		decided[id] = host
	}

	a.derive(action, apps, domain, cands, decided)

	var problems []string
	for len(decided) < len(all) {
		pending := a.pending(apps, cands, decided)
		if a.prompter == nil {
			return nil, fmt.Errorf("choose a host for %s with --host: %w", strings.Join(pending, ", "), api.ErrInputRequired)
		}
		if err := ctx.Err(); err != nil {
			return nil, api.ErrCancelled
		}

		view := api.HostChoiceView{Action: action, Problems: problems}
		for _, app := range all {
			c := cands[app.ID]
			view.Choices = append(view.Choices, api.HostChoice{
				App:           app.AppRef,
				AutoInstalled: apps.IsAutoInstalled(app.ID),
				Eligible:      c.Eligible,
				Excluded:      c.Excluded,
				Current:       decided[app.ID],
			})
		}

		logging.Debug("Placement", "Asking for hosts of %s", strings.Join(pending, ", "))
		answer, err := a.prompter.ChooseHosts(ctx, view)
		if err != nil {
			return nil, err
		}

		problems = nil
		for _, app := range all {
			host, ok := answer[app.ID]
			if !ok || host == "" {
				continue
			}
			if !cands[app.ID].Allows(host) {
				problems = append(problems, fmt.Sprintf("%s cannot be placed on %s", app.ID, host))
				continue
			}
			decided[app.ID] = host
		}
		a.derive(action, apps, domain, cands, decided)
		for _, id := range a.pending(apps, cands, decided) {
			problems = append(problems, fmt.Sprintf("no host chosen for %s", id))
		}
	}

	assignment := make(api.HostAssignment)
	for _, app := range all {
		host := decided[app.ID]
		assignment[host] = append(assignment[host], app.AppRef)
		logging.Info("Placement", "Placing %s on %s", app.ID, host)
	}
	if err := Validate(action, apps, domain, assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

// derive places every undecided application that can be placed without
// asking, repeating until nothing changes.
func (a *Assigner) derive(action api.Action, apps api.ApplicationSet, domain api.Domain, cands map[string]Candidates, decided map[string]api.Host) {
	all := apps.All()
	single := action != api.ActionInstall || len(domain.Hosts) == 1
	for changed := true; changed; {
		changed = false
		for _, app := range all {
			if _, ok := decided[app.ID]; ok {
				continue
			}
			c := cands[app.ID]
			if apps.IsAutoInstalled(app.ID) {
				if host, ok := dependentHost(all, app.ID, decided); ok && c.Allows(host) {
					decided[app.ID] = host
					changed = true
					continue
				}
			}
			if single && len(c.Eligible) == 1 {
				decided[app.ID] = c.Eligible[0]
				changed = true
			}
		}
	}
}

func (a *Assigner) pending(apps api.ApplicationSet, cands map[string]Candidates, decided map[string]api.Host) []string {
	var out []string
	for _, app := range apps.All() {
		if _, ok := decided[app.ID]; !ok {
			out = append(out, app.ID)
		}
	}
	return out
}

// dependentHost returns the host of the first placed application that
// depends on dep.
func dependentHost(all []api.ResolvedApp, dep string, decided map[string]api.Host) (api.Host, bool) {
	for _, app := range all {
		host, ok := decided[app.ID]
		if !ok {
			continue
		}
		for _, d := range app.DependsOn {
			if d == dep {
				return host, true
			}
		}
	}
	return "", false
}

// Validate checks that assignment covers every application of apps exactly
// once, holds nothing else and places no application on an ineligible host.
func Validate(action api.Action, apps api.ApplicationSet, domain api.Domain, assignment api.HostAssignment) error {
	var problems []string
	seen := make(map[string]int)
	for _, host := range assignment.Hosts() {
		for _, ref := range assignment[host] {
			seen[ref.ID]++
			app, ok := apps.Get(ref.ID)
			if !ok {
				problems = append(problems, fmt.Sprintf("%s is not part of the application set", ref.ID))
				continue
			}
			if !Eligibility(action, app, domain).Allows(host) {
				problems = append(problems, fmt.Sprintf("%s is not eligible for %s", host, ref.ID))
			}
		}
	}
	for _, id := range apps.IDs() {
		switch n := seen[id]; {
		case n == 0:
			problems = append(problems, fmt.Sprintf("%s is not assigned", id))
		case n > 1:
			problems = append(problems, fmt.Sprintf("%s is assigned %d times", id, n))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid host assignment: %s", strings.Join(problems, "; "))
	}
	return nil
}

func sortedKeys(m map[string]api.Host) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParsePreselection parses "app=host" pairs as given to --host.
func ParsePreselection(pairs []string) (map[string]api.Host, error) {
	out := make(map[string]api.Host, len(pairs))
	for _, p := range pairs {
		app, host, ok := strings.Cut(p, "=")
		app, host = strings.TrimSpace(app), strings.TrimSpace(host)
		if !ok || app == "" || host == "" {
			return nil, fmt.Errorf("invalid host selection %q (expected app=host)", p)
		}
		out[app] = api.Host(host)
	}
	return out, nil
}
