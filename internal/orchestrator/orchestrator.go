package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"appctl/internal/api"
	"appctl/internal/events"
	"appctl/internal/risk"
	"appctl/pkg/logging"
)

// Recorder stores the outcome of finished runs.
type Recorder interface {
	Record(ctx context.Context, outcome *Outcome) error
}

// Config holds the collaborators of an Orchestrator.
type Config struct {
	Resolver  api.Resolver
	Inventory api.Inventory
	Backend   api.Backend

	// Prompter carries the interactive stages. A nil prompter makes every
	// run non-interactive.
	Prompter api.Prompter

	// Policy reclassifies dry-run findings before gating.
	Policy risk.Policy

	// SkipConfirmation accepts advisory findings without asking. Blocking
	// findings and missing required settings are never skipped.
	SkipConfirmation bool

	// Events receives pipeline events. Optional.
	Events *events.Bus

	// History records finished runs. Optional.
	History Recorder

	// NewRunID generates run identifiers. Defaults to random UUIDs.
	NewRunID func() string
}

// Request is a caller's lifecycle request.
type Request struct {
	Action api.Action
	Apps   []string

	// Hosts preselects placements by application ID.
	Hosts map[string]api.Host

	// Settings holds raw setting values by application ID and field name.
	Settings map[string]map[string]string
}

// Outcome describes a finished run.
type Outcome struct {
	RunID  string
	Action api.Action
	State  State

	// Transitions lists every state the run entered, the terminal one last.
	Transitions []State

	// Context is the accumulator of the last attempt.
	Context    *api.RunContext
	Assessment risk.Assessment

	// HasErrors is set when at least one pair failed to execute.
	HasErrors bool

	// Err is nil for Done, api.ErrCancelled for Cancelled and an
	// *api.StageError for Failed.
	Err error

	// Attempts counts the fix-and-retry restarts plus one.
	Attempts int

	Started  time.Time
	Finished time.Time
}

// Duration returns the wall clock time of the run.
func (o *Outcome) Duration() time.Duration {
	return o.Finished.Sub(o.Started)
}

// Orchestrator runs lifecycle requests through the pipeline.
type Orchestrator struct {
	cfg Config
	now func() time.Time
}

// New creates an Orchestrator after checking its configuration.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Resolver == nil {
		return nil, errors.New("orchestrator requires a resolver")
	}
	if cfg.Inventory == nil {
		return nil, errors.New("orchestrator requires an inventory")
	}
	if cfg.Backend == nil {
		return nil, errors.New("orchestrator requires a backend")
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid finding policy: %w", err)
	}
	if cfg.NewRunID == nil {
		cfg.NewRunID = func() string { return uuid.New().String() }
	}
	return &Orchestrator{cfg: cfg, now: time.Now}, nil
}

// Run drives req to a terminal state. The returned Outcome is never nil and
// the returned error equals Outcome.Err.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Outcome, error) {
	r := &run{
		orch: o,
		req:  req,
		outcome: &Outcome{
			RunID:    o.cfg.NewRunID(),
			Action:   req.Action,
			Attempts: 1,
			Started:  o.now(),
		},
	}
	r.reset()

	logging.Info("Orchestrator", "Starting run %s: %s %v", r.outcome.RunID, req.Action, req.Apps)
	o.cfg.Events.Emit(events.ReasonRunStarted, events.EventData{
		RunID:  r.outcome.RunID,
		Action: string(req.Action),
		Apps:   req.Apps,
	})

	state := StateResolvingDependencies
	for !state.Terminal() {
		r.enter(state)

		var next State
		var err error
		if state.Cancellable() && ctx.Err() != nil {
			err = api.ErrCancelled
		} else {
			next, err = r.step(ctx, state)
		}
		if err != nil {
			next = r.fail(ctx, state, err)
		}
		state = next
	}

	r.finish(ctx, state)
	return r.outcome, r.outcome.Err
}

// run is the mutable state of a single Run call.
type run struct {
	orch    *Orchestrator
	req     Request
	outcome *Outcome
	rc      *api.RunContext

	assessment      risk.Assessment
	settingsProblem []string
	execResp        api.ExecutionResponse
	execErr         error
	failedStage     State
}

// reset starts a fresh accumulator from the caller's request.
func (r *run) reset() {
	rc := api.NewRunContext(r.outcome.RunID, r.req.Action, dedupe(r.req.Apps))
	for id, host := range r.req.Hosts {
		rc.PreselectedHosts[id] = host
	}
	rc.SettingsInput = copyInput(r.req.Settings)
	r.rc = rc
	r.assessment = risk.Assessment{}
	r.settingsProblem = nil
	r.execResp = nil
	r.execErr = nil
	r.outcome.Context = rc
}

func (r *run) enter(state State) {
	r.outcome.Transitions = append(r.outcome.Transitions, state)
	logging.Debug("Orchestrator", "Run %s entering %s", r.outcome.RunID, state)
	r.emit(events.ReasonStageEntered, events.EventData{Stage: string(state)})
}

func (r *run) skip(state State) {
	logging.Debug("Orchestrator", "Run %s skipping %s", r.outcome.RunID, state)
	r.emit(events.ReasonStageSkipped, events.EventData{Stage: string(state)})
}

func (r *run) emit(reason events.EventReason, data events.EventData) {
	data.RunID = r.outcome.RunID
	if data.Action == "" {
		data.Action = string(r.req.Action)
	}
	r.orch.cfg.Events.Emit(reason, data)
}

func (r *run) step(ctx context.Context, state State) (State, error) {
	switch state {
	case StateResolvingDependencies:
		return r.resolve(ctx)
	case StateAssigningHosts:
		return r.assign(ctx)
	case StateRunningDryRun:
		return r.dryRun(ctx)
	case StateConfirming:
		return r.confirm(ctx)
	case StateExecuting:
		return r.execute(ctx)
	case StateAggregating:
		return r.aggregate()
	case StateReportingAftermath:
		return r.aftermath(ctx)
	}
	return StateFailed, fmt.Errorf("no transition from state %s", state)
}

// fail maps a stage error to the terminal state. Cancellation, by the
// prompter or by the caller's context, is a clean exit.
func (r *run) fail(ctx context.Context, state State, err error) State {
	r.failedStage = state
	if api.IsCancelled(err) || (state.Cancellable() && ctx.Err() != nil) {
		logging.Info("Orchestrator", "Run %s cancelled during %s", r.outcome.RunID, state)
		r.outcome.Err = api.ErrCancelled
		return StateCancelled
	}
	logging.Error("Orchestrator", err, "Run %s failed during %s", r.outcome.RunID, state)
	r.rc.AddError(err.Error())
	r.outcome.Err = &api.StageError{Stage: string(state), Err: err}
	return StateFailed
}

func (r *run) finish(ctx context.Context, state State) {
	out := r.outcome
	out.State = state
	out.Transitions = append(out.Transitions, state)
	out.Assessment = r.assessment
	out.Finished = r.orch.now()

	switch state {
	case StateDone:
		failed := 0
		for _, res := range r.rc.Execution {
			if !res.Succeeded {
				failed++
			}
		}
		logging.Info("Orchestrator", "Run %s finished: %d of %d failed", out.RunID, failed, len(r.rc.Execution))
		r.emit(events.ReasonRunCompleted, events.EventData{
			Count:    len(r.rc.Execution),
			Failed:   failed,
			Duration: out.Duration(),
		})
	case StateCancelled:
		r.emit(events.ReasonRunCancelled, events.EventData{
			Stage:    string(r.failedStage),
			Duration: out.Duration(),
		})
	case StateFailed:
		r.emit(events.ReasonRunFailed, events.EventData{
			Stage:    string(r.failedStage),
			Error:    errors.Unwrap(out.Err).Error(),
			Duration: out.Duration(),
		})
	}

	if r.orch.cfg.History != nil {
		if err := r.orch.cfg.History.Record(context.WithoutCancel(ctx), out); err != nil {
			logging.Warn("Orchestrator", "Failed to record run %s: %v", out.RunID, err)
		}
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
