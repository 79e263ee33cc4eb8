package events

import (
	"time"
)

// EventType represents the severity of a pipeline event.
type EventType string

const (
	// EventTypeNormal indicates normal, non-problematic events.
	EventTypeNormal EventType = "Normal"

	// EventTypeWarning indicates events that may require attention.
	EventTypeWarning EventType = "Warning"
)

// EventReason represents the reason code for an event.
type EventReason string

// Run lifecycle event reasons
const (
	// ReasonRunStarted indicates a new run was created.
	ReasonRunStarted EventReason = "RunStarted"

	// ReasonStageEntered indicates the run entered a pipeline state.
	ReasonStageEntered EventReason = "StageEntered"

	// ReasonStageSkipped indicates an interactive state was skipped because
	// its predicate was false.
	ReasonStageSkipped EventReason = "StageSkipped"

	// ReasonRunRetried indicates the user chose to fix and retry.
	ReasonRunRetried EventReason = "RunRetried"

	// ReasonRunCompleted indicates the run reached Done.
	ReasonRunCompleted EventReason = "RunCompleted"

	// ReasonRunFailed indicates the run reached Failed.
	ReasonRunFailed EventReason = "RunFailed"

	// ReasonRunCancelled indicates the run reached Cancelled.
	ReasonRunCancelled EventReason = "RunCancelled"
)

// Stage outcome event reasons
const (
	// ReasonDependenciesResolved indicates the application set is known.
	ReasonDependenciesResolved EventReason = "DependenciesResolved"

	// ReasonHostsAssigned indicates every application has a host.
	ReasonHostsAssigned EventReason = "HostsAssigned"

	// ReasonDryRunCompleted indicates the dry run finished and was classified.
	ReasonDryRunCompleted EventReason = "DryRunCompleted"

	// ReasonBlockingFound indicates blocking findings halted the run.
	ReasonBlockingFound EventReason = "BlockingFound"

	// ReasonAdvisoryAccepted indicates advisory findings were accepted.
	ReasonAdvisoryAccepted EventReason = "AdvisoryAccepted"

	// ReasonExecutionStarted indicates the runner call was issued.
	ReasonExecutionStarted EventReason = "ExecutionStarted"

	// ReasonExecutionProgress carries one streamed progress line.
	ReasonExecutionProgress EventReason = "ExecutionProgress"

	// ReasonExecutionFinished indicates the final payload was aggregated.
	ReasonExecutionFinished EventReason = "ExecutionFinished"
)

// EventData holds the data used to render event messages.
type EventData struct {
	// RunID identifies the run the event belongs to.
	RunID string

	// Action is the lifecycle operation of the run.
	Action string

	// Stage is the pipeline state the event refers to.
	Stage string

	// Apps lists application IDs involved in the event.
	Apps []string

	// Hosts lists hosts involved in the event.
	Hosts []string

	// Level is the progress level of ExecutionProgress events.
	Level string

	// Message is the progress line of ExecutionProgress events.
	Message string

	// Count and Failed summarize pair counts.
	Count  int
	Failed int

	// Error contains error information for failure events.
	Error string

	// Duration is the elapsed time of the run or stage.
	Duration time.Duration
}

// Event is a rendered pipeline event delivered to subscribers.
type Event struct {
	Reason  EventReason
	Type    EventType
	Message string
	Data    EventData
	Time    time.Time
}

// getEventType determines the event type based on the reason and data.
func getEventType(reason EventReason, data EventData) EventType {
	switch reason {
	case ReasonBlockingFound,
		ReasonAdvisoryAccepted,
		ReasonRunFailed,
		ReasonRunCancelled:
		return EventTypeWarning
	case ReasonExecutionProgress:
		switch data.Level {
		case "WARNING", "ERROR", "CRITICAL":
			return EventTypeWarning
		}
	case ReasonExecutionFinished:
		if data.Failed > 0 {
			return EventTypeWarning
		}
	}
	return EventTypeNormal
}
