package api

import (
	"fmt"
	"sort"
	"strings"
)

// Action is the lifecycle operation requested for a run. It is fixed when
// the run starts and never changes afterwards.
type Action string

const (
	ActionInstall Action = "install"
	ActionUpgrade Action = "upgrade"
	ActionRemove  Action = "remove"
)

// ParseAction converts a user supplied string into an Action.
//
// Args:
//   - s: The action name, matched case-insensitively
//
// Returns:
//   - Action: The parsed action
//   - error: Non-nil when s is not one of install, upgrade or remove
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("unknown action %q (expected install, upgrade or remove)", s)
	}
	return a, nil
}

// Valid reports whether the action is one of the supported operations.
func (a Action) Valid() bool {
	switch a {
	case ActionInstall, ActionUpgrade, ActionRemove:
		return true
	}
	return false
}

// Label returns the human facing verb used on the start control, e.g. "Install".
func (a Action) Label() string {
	if a == "" {
		return ""
	}
	return strings.ToUpper(string(a[:1])) + string(a[1:])
}

// AppRef identifies an application in the catalog.
type AppRef struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// DisplayName returns the friendly name, falling back to the ID.
func (r AppRef) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

// String renders the reference as "id" or "id@version".
func (r AppRef) String() string {
	if r.Version == "" {
		return r.ID
	}
	return r.ID + "@" + r.Version
}

// ResolvedApp is a catalog entry as returned by the dependency resolver.
type ResolvedApp struct {
	AppRef `yaml:",inline"`

	// DependsOn lists the IDs of applications this one requires.
	DependsOn []string `json:"depends_on,omitempty" yaml:"dependsOn,omitempty"`

	// Settings declares the settings the application accepts at install time.
	Settings SettingsSchema `json:"settings,omitempty" yaml:"settings,omitempty"`

	// Container marks applications shipped as containers.
	Container bool `json:"container,omitempty" yaml:"container,omitempty"`

	// EndOfLife marks applications that are no longer supported.
	EndOfLife bool `json:"end_of_life,omitempty" yaml:"endOfLife,omitempty"`

	// Roles lists the server roles the application may be installed on.
	// An empty list accepts any role.
	Roles []string `json:"roles,omitempty" yaml:"roles,omitempty"`
}

// AllowsRole reports whether the application may run on a host with role.
func (a ResolvedApp) AllowsRole(role string) bool {
	if len(a.Roles) == 0 {
		return true
	}
	for _, r := range a.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// Host is the fully qualified name of a managed server.
type Host string

// HostInfo describes one host of the domain.
type HostInfo struct {
	Name      Host     `json:"name" yaml:"name"`
	Role      string   `json:"role,omitempty" yaml:"role,omitempty"`
	Local     bool     `json:"local,omitempty" yaml:"local,omitempty"`
	Installed []AppRef `json:"installed,omitempty" yaml:"installed,omitempty"`
}

// Has reports whether the application with appID is installed on the host.
func (h HostInfo) Has(appID string) bool {
	for _, ref := range h.Installed {
		if ref.ID == appID {
			return true
		}
	}
	return false
}

// Domain is the set of hosts managed together.
type Domain struct {
	Hosts []HostInfo `json:"hosts" yaml:"hosts"`
}

// Lookup returns the host with the given name.
func (d Domain) Lookup(name Host) (HostInfo, bool) {
	for _, h := range d.Hosts {
		if h.Name == name {
			return h, true
		}
	}
	return HostInfo{}, false
}

// Names returns the host names in domain order.
func (d Domain) Names() []Host {
	names := make([]Host, 0, len(d.Hosts))
	for _, h := range d.Hosts {
		names = append(names, h.Name)
	}
	return names
}

// ApplicationSet is the ordered set of applications affected by a run.
// Requested and AutoInstalled are disjoint by ID and IDs are unique.
type ApplicationSet struct {
	Requested     []ResolvedApp `json:"requested"`
	AutoInstalled []ResolvedApp `json:"auto_installed,omitempty"`
}

// All returns requested applications followed by auto-installed ones.
func (s ApplicationSet) All() []ResolvedApp {
	all := make([]ResolvedApp, 0, len(s.Requested)+len(s.AutoInstalled))
	all = append(all, s.Requested...)
	return append(all, s.AutoInstalled...)
}

// IDs returns the application IDs in set order.
func (s ApplicationSet) IDs() []string {
	all := s.All()
	ids := make([]string, 0, len(all))
	for _, a := range all {
		ids = append(ids, a.ID)
	}
	return ids
}

// Get returns the application with the given ID.
func (s ApplicationSet) Get(id string) (ResolvedApp, bool) {
	for _, a := range s.All() {
		if a.ID == id {
			return a, true
		}
	}
	return ResolvedApp{}, false
}

// IsAutoInstalled reports whether id was pulled in as a dependency.
func (s ApplicationSet) IsAutoInstalled(id string) bool {
	for _, a := range s.AutoInstalled {
		if a.ID == id {
			return true
		}
	}
	return false
}

// Len returns the number of applications in the set.
func (s ApplicationSet) Len() int {
	return len(s.Requested) + len(s.AutoInstalled)
}

// HostAssignment maps each host to the applications placed on it. Every
// application of the set appears in exactly one host's list exactly once.
type HostAssignment map[Host][]AppRef

// HostOf returns the host the application is placed on.
func (a HostAssignment) HostOf(appID string) (Host, bool) {
	for host, refs := range a {
		for _, ref := range refs {
			if ref.ID == appID {
				return host, true
			}
		}
	}
	return "", false
}

// Hosts returns the assigned host names in sorted order.
func (a HostAssignment) Hosts() []Host {
	hosts := make([]Host, 0, len(a))
	for h := range a {
		hosts = append(hosts, h)
	}
	sort.Slice(hosts, func(i, j int) bool { return hosts[i] < hosts[j] })
	return hosts
}

// Pairs returns every (application, host) key of the assignment, ordered by
// host and then by the order applications were placed on it.
func (a HostAssignment) Pairs() []PairKey {
	var pairs []PairKey
	for _, host := range a.Hosts() {
		for _, ref := range a[host] {
			pairs = append(pairs, PairKey{App: ref.ID, Host: host})
		}
	}
	return pairs
}

// Wire converts the assignment to the {host: [appId]} request shape.
func (a HostAssignment) Wire() map[Host][]string {
	out := make(map[Host][]string, len(a))
	for host, refs := range a {
		ids := make([]string, 0, len(refs))
		for _, ref := range refs {
			ids = append(ids, ref.ID)
		}
		out[host] = ids
	}
	return out
}

// AllApps is the synthetic application ID used for host-level findings.
const AllApps = "__all__"

// PairKey indexes per-pair results of a run.
type PairKey struct {
	App  string `json:"app"`
	Host Host   `json:"host"`
}

// IsHostLevel reports whether the key addresses a whole host.
func (k PairKey) IsHostLevel() bool {
	return k.App == AllApps
}

// String renders the key as "app@host".
func (k PairKey) String() string {
	return fmt.Sprintf("%s@%s", k.App, k.Host)
}

// SortPairs orders keys by host, then puts host-level keys first, then app ID.
func SortPairs(keys []PairKey) {
	sort.SliceStable(keys, func(i, j int) bool {
		if keys[i].Host != keys[j].Host {
			return keys[i].Host < keys[j].Host
		}
		if keys[i].IsHostLevel() != keys[j].IsHostLevel() {
			return keys[i].IsHostLevel()
		}
		return keys[i].App < keys[j].App
	})
}

// FindingKind identifies a dry-run finding. The known kinds form a closed
// registry maintained by the risk package.
type FindingKind string

// Finding is a single dry-run finding with its structured payload.
type Finding struct {
	Kind   FindingKind `json:"kind"`
	Detail any         `json:"detail,omitempty"`
}

// PackageChanges lists the packages a dry run would touch.
type PackageChanges struct {
	Install []string `json:"install,omitempty" yaml:"install,omitempty"`
	Remove  []string `json:"remove,omitempty" yaml:"remove,omitempty"`
	Broken  []string `json:"broken,omitempty" yaml:"broken,omitempty"`
}

// Empty reports whether no package would change.
func (p PackageChanges) Empty() bool {
	return len(p.Install) == 0 && len(p.Remove) == 0 && len(p.Broken) == 0
}

// DryRunResult is the dry-run outcome for one PairKey.
type DryRunResult struct {
	Packages          PackageChanges          `json:"packages"`
	Blocking          map[FindingKind]Finding `json:"blocking,omitempty"`
	Advisory          map[FindingKind]Finding `json:"advisory,omitempty"`
	HostReachable     bool                    `json:"host_reachable"`
	VersionCompatible bool                    `json:"version_compatible"`
}

// NewDryRunResult returns an empty result for a reachable, compatible pair.
func NewDryRunResult() DryRunResult {
	return DryRunResult{
		Blocking:          map[FindingKind]Finding{},
		Advisory:          map[FindingKind]Finding{},
		HostReachable:     true,
		VersionCompatible: true,
	}
}

// ExecutionResult is the execution outcome for one PairKey.
type ExecutionResult struct {
	Succeeded bool     `json:"succeeded" yaml:"succeeded"`
	Messages  []string `json:"messages,omitempty" yaml:"messages,omitempty"`
}

// SettingType is the value type of a setting field.
type SettingType string

const (
	SettingString SettingType = "string"
	SettingBool   SettingType = "bool"
	SettingInt    SettingType = "int"
)

// SettingField declares one configurable value of an application.
type SettingField struct {
	Name     string      `json:"name" yaml:"name"`
	Label    string      `json:"label,omitempty" yaml:"label,omitempty"`
	Type     SettingType `json:"type,omitempty" yaml:"type,omitempty"`
	Required bool        `json:"required,omitempty" yaml:"required,omitempty"`
	Default  string      `json:"default,omitempty" yaml:"default,omitempty"`
	Choices  []string    `json:"choices,omitempty" yaml:"choices,omitempty"`
}

// Title returns the label, falling back to the field name.
func (f SettingField) Title() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// SettingsSchema is the settings declaration of an application.
type SettingsSchema struct {
	Fields []SettingField `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Empty reports whether the schema declares no fields.
func (s SettingsSchema) Empty() bool {
	return len(s.Fields) == 0
}

// AppSettings holds validated setting values keyed by application ID.
type AppSettings map[string]map[string]any

// ProgressLevel is the severity of an execution progress event.
type ProgressLevel string

const (
	LevelDebug    ProgressLevel = "DEBUG"
	LevelInfo     ProgressLevel = "INFO"
	LevelWarning  ProgressLevel = "WARNING"
	LevelError    ProgressLevel = "ERROR"
	LevelCritical ProgressLevel = "CRITICAL"
)

// ProgressEvent is one streamed event emitted while executing.
type ProgressEvent struct {
	Level   ProgressLevel `json:"level"`
	Message string        `json:"message"`
}

// IsError reports whether the event must also be recorded as an error.
func (e ProgressEvent) IsError() bool {
	switch ProgressLevel(strings.ToUpper(string(e.Level))) {
	case LevelError, LevelCritical:
		return true
	}
	return false
}
