package api

import "context"

// BackendRequest is the request sent for both the dry run and the execution.
type BackendRequest struct {
	Apps     []string          `json:"apps"`
	Action   Action            `json:"action"`
	Hosts    map[Host][]string `json:"hosts"`
	Settings AppSettings       `json:"settings,omitempty"`
	DryRun   bool              `json:"dry_run"`
}

// NewBackendRequest builds the request for a run's application set and
// assignment. The same shape is used for the dry run and the execution.
func NewBackendRequest(action Action, apps ApplicationSet, assignment HostAssignment, settings AppSettings, dryRun bool) BackendRequest {
	return BackendRequest{
		Apps:     apps.IDs(),
		Action:   action,
		Hosts:    assignment.Wire(),
		Settings: settings,
		DryRun:   dryRun,
	}
}

// HostDryRun is the dry-run report of a single host.
type HostDryRun struct {
	// Unreachable lists the applications whose host could not be contacted.
	Unreachable []string `json:"unreachable,omitempty" yaml:"unreachable,omitempty"`

	// Failure is set when the analyzer could not evaluate this host at all.
	Failure string `json:"failure,omitempty" yaml:"failure,omitempty"`

	Packages map[string]PackageChanges      `json:"packages,omitempty" yaml:"packages,omitempty"`
	Errors   map[FindingKind]map[string]any `json:"errors,omitempty" yaml:"errors,omitempty"`
	Warnings map[FindingKind]map[string]any `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// DryRunResponse maps each host to its dry-run report.
type DryRunResponse map[Host]HostDryRun

// AppOutcome is the final execution outcome of one application on a host.
type AppOutcome struct {
	Success  bool     `json:"success" yaml:"success"`
	Messages []string `json:"messages,omitempty" yaml:"messages,omitempty"`
}

// ExecutionResponse is the final execution payload, keyed by host then app.
type ExecutionResponse map[Host]map[string]AppOutcome

// ResolveRequest asks the resolver to expand the requested applications.
type ResolveRequest struct {
	Apps   []string `json:"apps"`
	Action Action   `json:"action"`
}

// ResolveResponse is the resolver's answer.
type ResolveResponse struct {
	Apps          []ResolvedApp             `json:"apps"`
	AutoInstalled []string                  `json:"auto_installed,omitempty"`
	Settings      map[string]SettingsSchema `json:"settings,omitempty"`
}

// Resolver expands requested applications into the full set affected by a
// run, including transitive dependencies.
type Resolver interface {
	// Resolve returns the resolved applications or a *ResolutionError.
	Resolve(ctx context.Context, req ResolveRequest) (ResolveResponse, error)
}

// Inventory lists the hosts of the managed domain.
type Inventory interface {
	Domain(ctx context.Context) (Domain, error)
}

// ProgressFunc receives execution progress events in arrival order.
type ProgressFunc func(ProgressEvent)

// Backend evaluates and performs lifecycle operations on hosts.
type Backend interface {
	// DryRun evaluates the request without changing any host.
	DryRun(ctx context.Context, req BackendRequest) (DryRunResponse, error)

	// Execute performs the request, streaming progress to progress, and
	// returns the final per-pair payload. A returned error means the call
	// failed after being issued.
	Execute(ctx context.Context, req BackendRequest, progress ProgressFunc) (ExecutionResponse, error)
}
