// Package prompt carries the interactive stages of a run.
//
// A Prompter renders each pipeline view through a formatting.Formatter and
// asks its questions through a UI. Two UIs exist: HuhUI draws charmbracelet
// huh forms, LineUI reads plain lines with readline. Runs without a
// prompter are non-interactive and are handled by the orchestrator itself:
// they stop with api.ErrInputRequired wherever an answer is needed.
//
// Aborting a form (Ctrl+C, Esc or EOF) is reported as api.ErrCancelled,
// which the orchestrator turns into the Cancelled state.
package prompt
