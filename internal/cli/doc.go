// Package cli holds the command-line plumbing shared by the appctl commands.
//
// # Components
//
// RunFlags registers and interprets the flags of the lifecycle commands
// (install, upgrade, remove): host preselection, setting values, prompt mode
// and summary format.
//
// Progress subscribes to the pipeline event bus and drives a spinner while a
// run waits on the backend. Warnings and errors streamed during execution
// are printed above the spinner; interactive stages stop it.
//
// ClassifyConnectionError and ExplainBackendError turn transport failures
// into messages that say what to check: TLS, DNS, timeouts or an unreachable
// backend.
package cli
