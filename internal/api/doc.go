// Package api defines the shared vocabulary of the appctl pipeline.
//
// Every stage of a lifecycle run (dependency resolution, host assignment,
// dry run, risk classification, execution and aggregation) exchanges the
// types declared here, and every collaborator the pipeline talks to is
// described by an interface in this package. Keeping the contract in one
// place lets the orchestrator, the backends and the prompters evolve
// independently without import cycles.
//
// # Core Types
//
//   - Action: the immutable intent of a run (install, upgrade, remove)
//   - ApplicationSet: requested applications plus auto-installed dependencies
//   - HostAssignment: the placement of every application on exactly one host
//   - PairKey: the (application, host) key indexing dry-run and execution results
//   - DryRunResult, ExecutionResult: per-pair outcomes of the two backend calls
//   - RunContext: the per-run accumulator passed from stage to stage
//
// # Collaborators
//
//   - Resolver: expands requested applications into the full application set
//   - Inventory: lists the hosts of the domain and what they run
//   - Backend: performs dry runs and streamed executions
//   - Prompter: carries the interactive stages (host choice, confirmation,
//     blocking review, aftermath)
//
// # Wire Contract
//
// BackendRequest, DryRunResponse, ExecutionResponse, ResolveRequest and
// ResolveResponse mirror the JSON exchanged with a remote backend. The same
// shapes are produced by the offline fixture backend, so the pipeline never
// distinguishes between the two.
//
// # Errors
//
// Typed errors (ResolutionError, HostAssignmentError, TransportError,
// BlockingError, StageError) are matched with the Is* helpers, which use
// errors.As and therefore see through wrapping.
package api
