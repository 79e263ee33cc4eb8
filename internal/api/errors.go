package api

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared by the pipeline and its prompters.
var (
	// ErrCancelled reports a clean cancellation by the user or the caller's
	// context. A cancelled run is a terminal state, not a failure.
	ErrCancelled = errors.New("run cancelled")

	// ErrInputRequired reports that a stage needs an answer the caller
	// cannot give, e.g. a non-interactive run that needs a host choice.
	ErrInputRequired = errors.New("input required")
)

// ResolutionReason classifies dependency resolution failures.
type ResolutionReason string

const (
	ReasonUnknownApplication     ResolutionReason = "UnknownApplication"
	ReasonUnresolvableDependency ResolutionReason = "UnresolvableDependency"
)

// ResolutionError reports that the requested applications could not be
// expanded into an application set. It aborts the run with no partial result.
type ResolutionError struct {
	// Reason classifies the failure
	Reason ResolutionReason

	// App is the application ID the failure refers to
	App string

	// Message provides additional context from the resolver
	Message string
}

// Error implements the error interface for ResolutionError.
//
// Returns:
//   - string: The error message describing the resolution failure
func (e *ResolutionError) Error() string {
	var b strings.Builder
	switch e.Reason {
	case ReasonUnknownApplication:
		fmt.Fprintf(&b, "unknown application %q", e.App)
	case ReasonUnresolvableDependency:
		fmt.Fprintf(&b, "unresolvable dependency for %q", e.App)
	default:
		fmt.Fprintf(&b, "resolution of %q failed", e.App)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// NewUnknownApplicationError creates a ResolutionError for an ID missing
// from the catalog.
//
// Args:
//   - app: The unknown application ID
//
// Returns:
//   - *ResolutionError: The error with reason UnknownApplication
func NewUnknownApplicationError(app string) *ResolutionError {
	return &ResolutionError{Reason: ReasonUnknownApplication, App: app}
}

// NewUnresolvableDependencyError creates a ResolutionError for a dependency
// that cannot be satisfied.
//
// Args:
//   - app: The application whose dependency failed
//   - message: What could not be resolved
//
// Returns:
//   - *ResolutionError: The error with reason UnresolvableDependency
func NewUnresolvableDependencyError(app, message string) *ResolutionError {
	return &ResolutionError{Reason: ReasonUnresolvableDependency, App: app, Message: message}
}

// IsResolution checks if an error is or wraps a ResolutionError.
//
// Args:
//   - err: The error to check
//
// Returns:
//   - bool: true if the error is or wraps a ResolutionError
func IsResolution(err error) bool {
	var resErr *ResolutionError
	return errors.As(err, &resErr)
}

// HostAssignmentError reports that an application cannot be placed on any
// host, or on the host the caller asked for.
type HostAssignmentError struct {
	// App is the application that could not be placed
	App string

	// Requested is the host the caller preselected, if any
	Requested Host

	// Exclusions lists the hosts considered and why each was rejected
	Exclusions []HostExclusion
}

// Error implements the error interface for HostAssignmentError.
func (e *HostAssignmentError) Error() string {
	var reasons []string
	for _, ex := range e.Exclusions {
		reasons = append(reasons, fmt.Sprintf("%s: %s", ex.Host, ex.Reason))
	}
	detail := ""
	if len(reasons) > 0 {
		detail = " (" + strings.Join(reasons, ", ") + ")"
	}
	if e.Requested != "" {
		return fmt.Sprintf("application %q cannot be placed on host %q%s", e.App, e.Requested, detail)
	}
	return fmt.Sprintf("no eligible host for application %q%s", e.App, detail)
}

// IsHostAssignment checks if an error is or wraps a HostAssignmentError.
func IsHostAssignment(err error) bool {
	var hostErr *HostAssignmentError
	return errors.As(err, &hostErr)
}

// TransportError reports a failure talking to a single host or endpoint.
// When it affects one host during the dry run it is recorded as a blocking
// finding instead of failing the run.
type TransportError struct {
	Host Host
	Op   string
	Err  error
}

// Error implements the error interface for TransportError.
func (e *TransportError) Error() string {
	if e.Host != "" {
		return fmt.Sprintf("%s on %s: %v", e.Op, e.Host, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport checks if an error is or wraps a TransportError.
func IsTransport(err error) bool {
	var tErr *TransportError
	return errors.As(err, &tErr)
}

// BlockingError reports that blocking findings halted the run before
// execution. It is never overridable.
type BlockingError struct {
	// Pairs lists the keys that carry blocking findings
	Pairs []PairKey
}

// Error implements the error interface for BlockingError.
func (e *BlockingError) Error() string {
	keys := make([]string, 0, len(e.Pairs))
	for _, k := range e.Pairs {
		keys = append(keys, k.String())
	}
	return fmt.Sprintf("blocking issues found for %s", strings.Join(keys, ", "))
}

// IsBlocking checks if an error is or wraps a BlockingError.
func IsBlocking(err error) bool {
	var bErr *BlockingError
	return errors.As(err, &bErr)
}

// StageError wraps the error that moved a run to the Failed state with the
// name of the stage it originated in.
type StageError struct {
	Stage string
	Err   error
}

// Error implements the error interface for StageError.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap returns the originating error.
func (e *StageError) Unwrap() error {
	return e.Err
}

// IsCancelled checks if an error is or wraps ErrCancelled.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// IsInputRequired checks if an error is or wraps ErrInputRequired.
func IsInputRequired(err error) bool {
	return errors.Is(err, ErrInputRequired)
}
