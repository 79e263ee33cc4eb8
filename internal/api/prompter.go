package api

import "context"

// ExclusionReason explains why a host cannot receive an application.
type ExclusionReason string

const (
	ExclusionAlreadyInstalled ExclusionReason = "already-installed"
	ExclusionRoleMismatch     ExclusionReason = "role-mismatch"
	ExclusionNotInstalled     ExclusionReason = "not-installed"
	ExclusionNotInDomain      ExclusionReason = "not-in-domain"
)

// HostExclusion pairs an ineligible host with the reason it was excluded.
type HostExclusion struct {
	Host   Host            `json:"host"`
	Reason ExclusionReason `json:"reason"`
}

// HostChoice is the placement question for one application.
type HostChoice struct {
	App           AppRef
	AutoInstalled bool
	Eligible      []Host
	Excluded      []HostExclusion

	// Current is the host already chosen automatically, if any.
	Current Host
}

// HostChoiceView is shown while assigning hosts.
type HostChoiceView struct {
	Action  Action
	Choices []HostChoice

	// Problems lists what was wrong with the previous answer.
	Problems []string
}

// Explanation is the rendered form of one finding.
type Explanation struct {
	Kind        FindingKind `json:"kind"`
	Title       string      `json:"title"`
	Text        string      `json:"text"`
	Remediation string      `json:"remediation,omitempty"`
	Blocking    bool        `json:"blocking"`
}

// PairReport is the pre-execution information for one PairKey.
type PairReport struct {
	Key           PairKey
	App           AppRef
	AutoInstalled bool
	Packages      PackageChanges
	Blocking      []Explanation
	Advisory      []Explanation
}

// SettingsPrompt asks for the settings of one application.
type SettingsPrompt struct {
	App    AppRef
	Schema SettingsSchema

	// Values holds the current raw values, defaults applied.
	Values map[string]string
}

// ConfirmationView is shown before execution.
type ConfirmationView struct {
	Action      Action
	StartLabel  string
	HasAdvisory bool
	Pairs       []PairReport
	Settings    []SettingsPrompt

	// Problems lists settings validation failures of the previous answer.
	Problems []string
}

// Confirmation is the caller's answer to a ConfirmationView.
type Confirmation struct {
	Proceed  bool
	Settings map[string]map[string]string
}

// BlockingView is shown when blocking findings halt the run.
type BlockingView struct {
	Action Action
	Pairs  []PairReport
}

// Decision is the caller's answer to a BlockingView.
type Decision int

const (
	DecisionCancel Decision = iota
	DecisionRetry
)

// PairOutcome is the execution result of one PairKey.
type PairOutcome struct {
	Key    PairKey
	Result ExecutionResult
}

// AftermathView is shown after execution when there were errors or messages.
type AftermathView struct {
	Action Action

	// CanFinish is false when any pair failed; only "back" is offered then.
	CanFinish bool
	Failures  []PairOutcome
	Messages  []PairOutcome
	Errors    []string
}

// Prompter carries the interactive stages of a run. Implementations return
// ErrCancelled when the user cancels and ErrInputRequired when they cannot
// obtain an answer.
type Prompter interface {
	ChooseHosts(ctx context.Context, view HostChoiceView) (map[string]Host, error)
	Confirm(ctx context.Context, view ConfirmationView) (Confirmation, error)
	ReviewBlocking(ctx context.Context, view BlockingView) (Decision, error)
	ShowAftermath(ctx context.Context, view AftermathView) error
}
