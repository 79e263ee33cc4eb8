// Package logging provides the structured logging used across appctl.
//
// It is a thin layer over log/slog that tags every entry with a subsystem
// name, so pipeline stages can be filtered independently:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Orchestrator", "Run %s entered %s", runID, state)
//	logging.Error("Backend", err, "Dry run request failed")
//
// # Subsystems
//
//   - **Orchestrator**: pipeline state transitions
//   - **Placement**: host assignment decisions
//   - **DryRun**: exploding analyzer responses into per-pair records
//   - **Risk**: blocking/advisory classification
//   - **Results**: execution result aggregation
//   - **Backend**, **Fixture**: collaborator transports
//   - **Events**: pipeline event fan-out
//   - **Bootstrap**: configuration loading and service setup
//   - **Config**, **Storage**, **History**, **Prompt**, **CLI**: ambient plumbing
//
// Until one of the Init functions is called, entries are discarded.
//
// # Thread Safety
//
// Initialization is expected once at startup; logging itself is safe for
// concurrent use.
package logging
