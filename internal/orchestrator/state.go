package orchestrator

// State is a pipeline state of a run.
type State string

const (
	StateResolvingDependencies State = "ResolvingDependencies"
	StateAssigningHosts        State = "AssigningHosts"
	StateRunningDryRun         State = "RunningDryRun"
	StateConfirming            State = "Confirming"
	StateExecuting             State = "Executing"
	StateAggregating           State = "Aggregating"
	StateReportingAftermath    State = "ReportingAftermath"
	StateDone                  State = "Done"
	StateCancelled             State = "Cancelled"
	StateFailed                State = "Failed"
)

// Terminal reports whether no transition leaves the state.
func (s State) Terminal() bool {
	switch s {
	case StateDone, StateCancelled, StateFailed:
		return true
	}
	return false
}

// Cancellable reports whether the caller can still cancel in this state.
// From Executing on the run always reaches Aggregating.
func (s State) Cancellable() bool {
	switch s {
	case StateResolvingDependencies, StateAssigningHosts, StateRunningDryRun, StateConfirming:
		return true
	}
	return false
}
