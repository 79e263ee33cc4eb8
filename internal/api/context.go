package api

import "sync"

// RunContext accumulates the state of one lifecycle run. It is created when
// the run starts, mutated in place by each stage and discarded once the run
// reaches a terminal state. It is never persisted.
//
// Stages run strictly one after another, so most fields need no locking.
// The progress log and error list are the exception: the execution stream
// appends to them while the runner call is in flight.
type RunContext struct {
	RunID     string
	Action    Action
	Requested []string

	Apps       ApplicationSet
	Assignment HostAssignment

	// PreselectedHosts holds caller supplied placements (--host app=host).
	PreselectedHosts map[string]Host

	// SettingsInput holds raw caller supplied setting values, keyed by app
	// and field name. Settings holds the validated, typed values.
	SettingsInput map[string]map[string]string
	Settings      AppSettings

	DryRun    map[PairKey]DryRunResult
	Execution map[PairKey]ExecutionResult

	// AdvisoryAcknowledged records that the caller accepted advisory
	// findings for this run.
	AdvisoryAcknowledged bool

	mu     sync.Mutex
	log    []ProgressEvent
	errors []string
}

// NewRunContext creates the accumulator for a new run.
//
// Args:
//   - runID: Unique identifier of the run
//   - action: The lifecycle operation, fixed for the run
//   - requested: Application IDs requested by the caller
//
// Returns:
//   - *RunContext: A context with empty result sets
func NewRunContext(runID string, action Action, requested []string) *RunContext {
	req := make([]string, len(requested))
	copy(req, requested)
	return &RunContext{
		RunID:            runID,
		Action:           action,
		Requested:        req,
		PreselectedHosts: map[string]Host{},
		SettingsInput:    map[string]map[string]string{},
		Settings:         AppSettings{},
		DryRun:           map[PairKey]DryRunResult{},
		Execution:        map[PairKey]ExecutionResult{},
	}
}

// AppendProgress folds a progress event into the run log in arrival order.
// ERROR and CRITICAL events are also added to the error list.
func (rc *RunContext) AppendProgress(ev ProgressEvent) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.log = append(rc.log, ev)
	if ev.IsError() {
		rc.errors = append(rc.errors, ev.Message)
	}
}

// AddError records a terminal error message for the run.
func (rc *RunContext) AddError(msg string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.errors = append(rc.errors, msg)
}

// Log returns a copy of the progress log.
func (rc *RunContext) Log() []ProgressEvent {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	out := make([]ProgressEvent, len(rc.log))
	copy(out, rc.log)
	return out
}

// Errors returns a copy of the error list.
func (rc *RunContext) Errors() []string {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	out := make([]string, len(rc.errors))
	copy(out, rc.errors)
	return out
}
