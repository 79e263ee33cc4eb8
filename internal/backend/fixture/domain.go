package fixture

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"appctl/internal/api"
)

// File is the YAML description of a fixture domain.
type File struct {
	Hosts    []Host            `yaml:"hosts"`
	Catalog  []CatalogEntry    `yaml:"catalog"`
	Findings []ScriptedFinding `yaml:"findings,omitempty"`
	Outcomes []ScriptedOutcome `yaml:"outcomes,omitempty"`
}

// Host is a managed server of the fixture domain.
type Host struct {
	api.HostInfo `yaml:",inline"`

	// Unreachable makes the host absent from every dry-run report.
	Unreachable bool `yaml:"unreachable,omitempty"`

	// Container marks hosts that are themselves containers.
	Container bool `yaml:"container,omitempty"`

	// Failure makes the analyzer fail on this host with the given message.
	Failure string `yaml:"failure,omitempty"`
}

// CatalogEntry is an installable application.
type CatalogEntry struct {
	api.ResolvedApp `yaml:",inline"`

	// Packages lists the system packages of the application. Defaults to
	// the application ID.
	Packages []string `yaml:"packages,omitempty"`
}

func (e CatalogEntry) packages() []string {
	if len(e.Packages) > 0 {
		return e.Packages
	}
	return []string{e.ID}
}

// ScriptedFinding is reported by every dry run that places App on Host.
// App may be api.AllApps for host-level findings.
type ScriptedFinding struct {
	Host     api.Host        `yaml:"host"`
	App      string          `yaml:"app"`
	Kind     api.FindingKind `yaml:"kind"`
	Blocking bool            `yaml:"blocking,omitempty"`
	Detail   any             `yaml:"detail,omitempty"`
}

// ScriptedOutcome overrides the execution outcome of App on Host.
type ScriptedOutcome struct {
	Host     api.Host            `yaml:"host"`
	App      string              `yaml:"app"`
	Fail     bool                `yaml:"fail,omitempty"`
	Messages []string            `yaml:"messages,omitempty"`
	Progress []api.ProgressEvent `yaml:"progress,omitempty"`
}

// Load reads and validates a fixture domain file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a fixture domain document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	hosts := make(map[api.Host]bool, len(f.Hosts))
	for i, h := range f.Hosts {
		if h.Name == "" {
			return fmt.Errorf("fixture host %d has no name", i)
		}
		if hosts[h.Name] {
			return fmt.Errorf("fixture host %s is listed twice", h.Name)
		}
		hosts[h.Name] = true
	}

	apps := make(map[string]bool, len(f.Catalog))
	for i, e := range f.Catalog {
		if e.ID == "" {
			return fmt.Errorf("fixture catalog entry %d has no id", i)
		}
		if apps[e.ID] {
			return fmt.Errorf("fixture catalog lists %s twice", e.ID)
		}
		apps[e.ID] = true
	}

	for _, s := range f.Findings {
		if !hosts[s.Host] {
			return fmt.Errorf("scripted finding %s refers to unknown host %s", s.Kind, s.Host)
		}
		if s.Kind == "" {
			return fmt.Errorf("scripted finding on %s has no kind", s.Host)
		}
	}
	for _, s := range f.Outcomes {
		if !hosts[s.Host] {
			return fmt.Errorf("scripted outcome for %s refers to unknown host %s", s.App, s.Host)
		}
	}
	return nil
}
