// Package orchestrator drives a lifecycle run through the pipeline states.
//
// A run is an explicit state machine over a single api.RunContext that is
// handed from stage to stage:
//
//	ResolvingDependencies → AssigningHosts → RunningDryRun → (Confirming)
//	    → Executing → Aggregating → (ReportingAftermath) → Done
//
// Cancelled and Failed are terminal and reachable from every non-terminal
// state. Stages in parentheses are interactive and are skipped when their
// predicate is false: Confirming when the dry run produced nothing worth
// showing (or confirmation was waived), ReportingAftermath when execution
// produced neither errors nor messages.
//
// # Gating
//
// Blocking findings always halt the run before Executing. With a prompter
// the user may cancel or fix and retry, which restarts the run from
// ResolvingDependencies with a fresh context. Without a prompter the run
// fails with an *api.BlockingError. Advisory findings pause at Confirming
// unless Config.SkipConfirmation is set.
//
// # Cancellation
//
// Context cancellation and prompter cancellation are clean exits to
// Cancelled up to and including Confirming. Once Executing starts, the
// runner call is detached from the caller's context and the run always
// reaches Aggregating; there is no rollback.
//
// # Usage Example
//
//	orch, err := orchestrator.New(orchestrator.Config{
//	    Resolver:  backend,
//	    Inventory: backend,
//	    Backend:   backend,
//	    Prompter:  prompter,
//	    Events:    bus,
//	})
//	if err != nil {
//	    return err
//	}
//	outcome, err := orch.Run(ctx, orchestrator.Request{
//	    Action: api.ActionInstall,
//	    Apps:   []string{"wiki"},
//	})
//
// Run always returns an Outcome; the error is nil for Done, api.ErrCancelled
// for Cancelled and an *api.StageError for Failed.
package orchestrator
