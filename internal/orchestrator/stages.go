package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"appctl/internal/api"
	"appctl/internal/dryrun"
	"appctl/internal/events"
	"appctl/internal/placement"
	"appctl/internal/results"
	"appctl/internal/risk"
	"appctl/internal/settings"
	"appctl/pkg/logging"
)

func (r *run) resolve(ctx context.Context) (State, error) {
	rc := r.rc
	if !rc.Action.Valid() {
		return StateFailed, fmt.Errorf("unknown action %q", rc.Action)
	}
	if len(rc.Requested) == 0 {
		return StateFailed, errors.New("no applications requested")
	}

	resp, err := r.orch.cfg.Resolver.Resolve(ctx, api.ResolveRequest{Apps: rc.Requested, Action: rc.Action})
	if err != nil {
		return StateFailed, err
	}

	byID := make(map[string]api.ResolvedApp, len(resp.Apps))
	for _, app := range resp.Apps {
		if app.Settings.Empty() {
			if schema, ok := resp.Settings[app.ID]; ok {
				app.Settings = schema
			}
		}
		byID[app.ID] = app
	}

	var set api.ApplicationSet
	seen := make(map[string]bool, len(byID))
	for _, id := range rc.Requested {
		app, ok := byID[id]
		if !ok {
			return StateFailed, api.NewUnknownApplicationError(id)
		}
		seen[id] = true
		set.Requested = append(set.Requested, app)
	}
	for _, id := range resp.AutoInstalled {
		if seen[id] {
			continue
		}
		app, ok := byID[id]
		if !ok {
			return StateFailed, api.NewUnresolvableDependencyError(id, "the dependency was listed without a catalog entry")
		}
		seen[id] = true
		set.AutoInstalled = append(set.AutoInstalled, app)
	}
	// Applications the resolver returned without flagging them are still
	// part of the affected set.
	for _, app := range resp.Apps {
		if seen[app.ID] {
			continue
		}
		logging.Debug("Orchestrator", "Treating unlisted application %s as a dependency", app.ID)
		seen[app.ID] = true
		set.AutoInstalled = append(set.AutoInstalled, app)
	}

	if errs := settings.CheckRequest(rc.Action, set, rc.SettingsInput); errs.HasErrors() {
		return StateFailed, fmt.Errorf("invalid settings: %w", errs)
	}

	rc.Apps = set
	r.emit(events.ReasonDependenciesResolved, events.EventData{Apps: set.IDs(), Count: set.Len()})
	return StateAssigningHosts, nil
}

func (r *run) assign(ctx context.Context) (State, error) {
	rc := r.rc
	domain, err := r.orch.cfg.Inventory.Domain(ctx)
	if err != nil {
		return StateFailed, fmt.Errorf("failed to list hosts: %w", err)
	}

	assignment, err := placement.New(r.orch.cfg.Prompter).Assign(ctx, rc.Action, rc.Apps, domain, rc.PreselectedHosts)
	if err != nil {
		return StateFailed, err
	}
	rc.Assignment = assignment

	hosts := make([]string, 0, len(assignment))
	for _, h := range assignment.Hosts() {
		hosts = append(hosts, string(h))
	}
	r.emit(events.ReasonHostsAssigned, events.EventData{Hosts: hosts, Count: len(assignment.Pairs())})
	return StateRunningDryRun, nil
}

func (r *run) dryRun(ctx context.Context) (State, error) {
	rc := r.rc
	cfg := r.orch.cfg

	typed, errs := settings.Validate(rc.Action, rc.Apps, rc.SettingsInput)
	req := api.NewBackendRequest(rc.Action, rc.Apps, rc.Assignment, typed, true)
	resp, err := cfg.Backend.DryRun(ctx, req)
	if err != nil {
		return StateFailed, fmt.Errorf("dry run failed: %w", err)
	}

	rc.DryRun = cfg.Policy.ApplyAll(dryrun.Explode(rc.Assignment, resp))
	settingsRequired := settings.NeedsInput(rc.Action, rc.Apps, rc.SettingsInput) || errs.HasErrors()
	r.settingsProblem = settings.Problems(errs)
	r.assessment = risk.Classify(rc.DryRun, risk.PreExecutionInfo{
		AutoInstalled:    len(rc.Apps.AutoInstalled) > 0,
		SettingsRequired: settingsRequired,
	})
	a := r.assessment
	r.emit(events.ReasonDryRunCompleted, events.EventData{Count: len(rc.DryRun)})

	if a.HasBlockingIssues {
		return r.block(ctx)
	}

	if a.NeedsToBeShown && !(cfg.SkipConfirmation && !settingsRequired) {
		return StateConfirming, nil
	}

	r.skip(StateConfirming)
	if a.HasAdvisory {
		r.acknowledge()
	}
	rc.Settings = typed
	return StateExecuting, nil
}

// block halts the run on blocking findings. The caller may only cancel or
// fix the cause and retry from the start.
func (r *run) block(ctx context.Context) (State, error) {
	rc := r.rc
	a := r.assessment
	r.emit(events.ReasonBlockingFound, events.EventData{Apps: pairNames(a.BlockingPairs), Count: len(a.BlockingPairs)})

	if r.orch.cfg.Prompter == nil {
		return StateFailed, &api.BlockingError{Pairs: a.BlockingPairs}
	}

	var pairs []api.PairReport
	for _, rep := range risk.Reports(rc.DryRun, rc.Apps) {
		if len(rep.Blocking) > 0 {
			pairs = append(pairs, rep)
		}
	}
	decision, err := r.orch.cfg.Prompter.ReviewBlocking(ctx, api.BlockingView{Action: rc.Action, Pairs: pairs})
	if err != nil {
		return StateFailed, err
	}
	if decision != api.DecisionRetry {
		return StateCancelled, api.ErrCancelled
	}

	r.outcome.Attempts++
	logging.Info("Orchestrator", "Run %s retrying, attempt %d", r.outcome.RunID, r.outcome.Attempts)
	r.reset()
	r.emit(events.ReasonRunRetried, events.EventData{Count: r.outcome.Attempts})
	return StateResolvingDependencies, nil
}

func (r *run) confirm(ctx context.Context) (State, error) {
	rc := r.rc
	a := r.assessment
	prompter := r.orch.cfg.Prompter

	if prompter == nil {
		if len(r.settingsProblem) > 0 {
			return StateFailed, fmt.Errorf("%s; pass them with --set: %w", strings.Join(r.settingsProblem, "; "), api.ErrInputRequired)
		}
		if a.HasAdvisory && !r.orch.cfg.SkipConfirmation {
			return StateFailed, fmt.Errorf("warnings on %s need confirmation; re-run with --yes: %w",
				strings.Join(pairNames(a.AdvisoryPairs), ", "), api.ErrInputRequired)
		}
		typed, _ := settings.Validate(rc.Action, rc.Apps, rc.SettingsInput)
		rc.Settings = typed
		if a.HasAdvisory {
			r.acknowledge()
		}
		return StateExecuting, nil
	}

	input := rc.SettingsInput
	problems := r.settingsProblem
	for {
		if err := ctx.Err(); err != nil {
			return StateCancelled, api.ErrCancelled
		}

		view := api.ConfirmationView{
			Action:      rc.Action,
			StartLabel:  risk.StartLabel(rc.Action, a.HasAdvisory),
			HasAdvisory: a.HasAdvisory,
			Pairs:       risk.Reports(rc.DryRun, rc.Apps),
			Settings:    settings.Prompts(rc.Action, rc.Apps, input),
			Problems:    problems,
		}
		answer, err := prompter.Confirm(ctx, view)
		if err != nil {
			return StateFailed, err
		}
		if !answer.Proceed {
			return StateCancelled, api.ErrCancelled
		}

		input = settings.Merge(rc.Apps, input, answer.Settings)
		typed, errs := settings.Validate(rc.Action, rc.Apps, input)
		if errs.HasErrors() {
			problems = settings.Problems(errs)
			logging.Debug("Orchestrator", "Settings rejected: %s", errs.Error())
			continue
		}

		rc.SettingsInput = input
		rc.Settings = typed
		if a.HasAdvisory {
			r.acknowledge()
		}
		return StateExecuting, nil
	}
}

func (r *run) acknowledge() {
	r.rc.AdvisoryAcknowledged = true
	r.emit(events.ReasonAdvisoryAccepted, events.EventData{
		Apps:  pairNames(r.assessment.AdvisoryPairs),
		Count: len(r.assessment.AdvisoryPairs),
	})
}

// execute issues the runner call. It is detached from the caller's context:
// once issued, a run always proceeds to aggregation.
func (r *run) execute(ctx context.Context) (State, error) {
	rc := r.rc
	req := api.NewBackendRequest(rc.Action, rc.Apps, rc.Assignment, rc.Settings, false)

	hosts := make([]string, 0, len(req.Hosts))
	for _, h := range rc.Assignment.Hosts() {
		hosts = append(hosts, string(h))
	}
	r.emit(events.ReasonExecutionStarted, events.EventData{Hosts: hosts, Apps: req.Apps, Count: len(rc.Assignment.Pairs())})

	progress := func(ev api.ProgressEvent) {
		rc.AppendProgress(ev)
		r.emit(events.ReasonExecutionProgress, events.EventData{Level: string(ev.Level), Message: ev.Message})
	}

	resp, err := r.orch.cfg.Backend.Execute(context.WithoutCancel(ctx), req, progress)
	if err != nil {
		logging.Error("Orchestrator", err, "Execution of run %s failed", r.outcome.RunID)
		rc.AddError(err.Error())
	}
	r.execResp = resp
	r.execErr = err
	return StateAggregating, nil
}

func (r *run) aggregate() (State, error) {
	rc := r.rc
	summary := results.Aggregate(rc.Assignment, r.execResp, r.execErr)
	rc.Execution = summary.Results
	r.outcome.HasErrors = summary.HasErrors

	failures := summary.Failures()
	r.emit(events.ReasonExecutionFinished, events.EventData{Count: len(summary.Results), Failed: len(failures)})

	if summary.HasErrors || len(summary.Messages()) > 0 || len(rc.Errors()) > 0 {
		return StateReportingAftermath, nil
	}
	r.skip(StateReportingAftermath)
	return StateDone, nil
}

// aftermath shows failures and post-action messages. The run is complete
// whatever the prompter answers.
func (r *run) aftermath(ctx context.Context) (State, error) {
	prompter := r.orch.cfg.Prompter
	if prompter == nil {
		return StateDone, nil
	}

	rc := r.rc
	summary := results.Summary{Results: rc.Execution, HasErrors: r.outcome.HasErrors}
	view := api.AftermathView{
		Action:    rc.Action,
		CanFinish: !summary.HasErrors,
		Failures:  summary.Failures(),
		Messages:  summary.Messages(),
		Errors:    rc.Errors(),
	}
	if err := prompter.ShowAftermath(context.WithoutCancel(ctx), view); err != nil {
		logging.Warn("Orchestrator", "Aftermath of run %s not shown: %v", r.outcome.RunID, err)
	}
	return StateDone, nil
}

func pairNames(keys []api.PairKey) []string {
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, k.String())
	}
	return names
}

func copyInput(in map[string]map[string]string) map[string]map[string]string {
	out := make(map[string]map[string]string, len(in))
	for id, values := range in {
		copied := make(map[string]string, len(values))
		for k, v := range values {
			copied[k] = v
		}
		out[id] = copied
	}
	return out
}
