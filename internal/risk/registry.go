package risk

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"appctl/internal/api"
	"appctl/pkg/logging"
)

// Known finding kinds. The set is closed: analyzer keys outside it are
// rendered with a generic explanation.
const (
	KindReachable          api.FindingKind = "mustBeReachable"
	KindTransport          api.FindingKind = "mustAnswerDryRun"
	KindValidLicense       api.FindingKind = "mustHaveValidLicense"
	KindServerRole         api.FindingKind = "mustMatchServerRole"
	KindDependencies       api.FindingKind = "mustHaveDependencies"
	KindNotLocked          api.FindingKind = "mustNotBeLocked"
	KindNoDockerInDocker   api.FindingKind = "mustNotBeDockerInDocker"
	KindNotEndOfLife       api.FindingKind = "mustNotBeEndOfLife"
	KindCompatibleVersion  api.FindingKind = "mustHaveCompatibleVersion"
	KindBrokenPackages     api.FindingKind = "mustNotHaveBrokenPackages"
	KindNotInstalled       api.FindingKind = "mustNotBeInstalled"
	KindInstalled          api.FindingKind = "mustBeInstalled"
	KindUpdateRepositories api.FindingKind = "updateRepositories"
	KindEnoughRAM          api.FindingKind = "shallHaveEnoughRam"
	KindEnoughFreeSpace    api.FindingKind = "shallHaveEnoughFreeSpace"
)

// Definition describes how a finding kind is explained and classified.
type Definition struct {
	Kind        api.FindingKind
	Title       string
	Explain     string // text/template with sprig functions
	Remediation string

	// DefaultBlocking is the classification analyzers use when reporting
	// the kind.
	DefaultBlocking bool

	// Fixed kinds always block; policy cannot reclassify them.
	Fixed bool
}

var definitions = []Definition{
	{
		Kind:            KindReachable,
		Title:           "Host unreachable",
		Explain:         `{{ .Host }} could not be contacted{{ with .Detail.reason }}: {{ . }}{{ end }}.`,
		Remediation:     "Check that the host is running and reachable from the domain controller.",
		DefaultBlocking: true,
		Fixed:           true,
	},
	{
		Kind:            KindTransport,
		Title:           "Dry run failed",
		Explain:         `The dry run could not be evaluated on {{ .Host }}{{ with .Detail.error }}: {{ . }}{{ end }}.`,
		Remediation:     "Retry once the host answers again.",
		DefaultBlocking: true,
		Fixed:           true,
	},
	{
		Kind:            KindValidLicense,
		Title:           "License required",
		Explain:         `{{ .App }} requires a valid {{ default "subscription" .Detail.license }} license on {{ .Host }}.`,
		Remediation:     "Add a valid license to the domain.",
		DefaultBlocking: true,
	},
	{
		Kind:            KindServerRole,
		Title:           "Server role mismatch",
		Explain:         `{{ .App }} cannot run on a {{ default "server" .Detail.role }}{{ with .Detail.allowed }} (allowed: {{ join ", " . }}){{ end }}.`,
		Remediation:     "Choose a host with a matching server role.",
		DefaultBlocking: true,
	},
	{
		Kind:            KindDependencies,
		Title:           "Missing dependencies",
		Explain:         `{{ .App }} needs {{ with .Detail.missing }}{{ join ", " . }}{{ else }}other applications{{ end }}, which cannot be provided on {{ .Host }}.`,
		Remediation:     "Install the missing applications first.",
		DefaultBlocking: true,
	},
	{
		Kind:            KindNotLocked,
		Title:           "Host locked",
		Explain:         `{{ .Host }} is locked by another operation{{ with .Detail.holder }} ({{ . }}){{ end }}.`,
		Remediation:     "Wait for the running operation to finish.",
		DefaultBlocking: true,
	},
	{
		Kind:            KindNoDockerInDocker,
		Title:           "Nested containers",
		Explain:         `{{ .App }} is a container application and {{ .Host }} itself runs inside a container.`,
		Remediation:     "Choose a host that is not containerized.",
		DefaultBlocking: true,
	},
	{
		Kind:            KindNotEndOfLife,
		Title:           "End of life",
		Explain:         `{{ .App }} has reached its end of life and can no longer be {{ default "installed" .Detail.action }}.`,
		Remediation:     "Pick a supported replacement application.",
		DefaultBlocking: true,
	},
	{
		Kind:            KindCompatibleVersion,
		Title:           "Incompatible version",
		Explain:         `{{ .App }} is not compatible with {{ .Host }}{{ with .Detail.required }} (requires {{ . }}){{ end }}.`,
		Remediation:     "Upgrade the host first.",
		DefaultBlocking: true,
		Fixed:           true,
	},
	{
		Kind:            KindBrokenPackages,
		Title:           "Broken packages",
		Explain:         `The operation would leave broken packages on {{ .Host }}{{ with .Detail.packages }}: {{ join ", " . }}{{ end }}.`,
		Remediation:     "Repair the package state of the host.",
		DefaultBlocking: true,
		Fixed:           true,
	},
	{
		Kind:            KindNotInstalled,
		Title:           "Already installed",
		Explain:         `{{ .App }} is already installed on {{ .Host }}.`,
		DefaultBlocking: true,
	},
	{
		Kind:            KindInstalled,
		Title:           "Not installed",
		Explain:         `{{ .App }} is not installed on {{ .Host }}.`,
		DefaultBlocking: true,
	},
	{
		Kind:        KindUpdateRepositories,
		Title:       "Repository updates",
		Explain:     `Package repositories of {{ .Host }} will be updated; errata may be included.`,
		Remediation: "Review pending errata before continuing.",
	},
	{
		Kind:        KindEnoughRAM,
		Title:       "Low memory",
		Explain:     `{{ .Host }} may not have enough memory for {{ .App }}{{ with .Detail.required }} (recommended {{ . }}){{ end }}.`,
		Remediation: "Add memory or choose another host.",
	},
	{
		Kind:        KindEnoughFreeSpace,
		Title:       "Low disk space",
		Explain:     `{{ .Host }} may not have enough free space for {{ .App }}{{ with .Detail.required }} (recommended {{ . }}){{ end }}.`,
		Remediation: "Free disk space or choose another host.",
	},
}

var genericTemplate = template.Must(template.New("generic").Funcs(sprig.TxtFuncMap()).Parse(
	`{{ .Kind }} reported for {{ .App }} on {{ .Host }}{{ with .Detail }}: {{ toJson . }}{{ end }}.`))

type compiled struct {
	def  Definition
	tmpl *template.Template
}

var registry = compile(definitions)

func compile(defs []Definition) map[api.FindingKind]compiled {
	out := make(map[api.FindingKind]compiled, len(defs))
	for _, def := range defs {
		tmpl := template.Must(template.New(string(def.Kind)).
			Funcs(sprig.TxtFuncMap()).
			Option("missingkey=zero").
			Parse(def.Explain))
		out[def.Kind] = compiled{def: def, tmpl: tmpl}
	}
	return out
}

// Lookup returns the definition of kind.
func Lookup(kind api.FindingKind) (Definition, bool) {
	c, ok := registry[kind]
	return c.def, ok
}

// Known reports whether kind is part of the registry.
func Known(kind api.FindingKind) bool {
	_, ok := registry[kind]
	return ok
}

// IsFixed reports whether kind always blocks.
func IsFixed(kind api.FindingKind) bool {
	c, ok := registry[kind]
	return ok && c.def.Fixed
}

// Kinds returns every registered kind in sorted order.
func Kinds() []api.FindingKind {
	kinds := make([]api.FindingKind, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

type explainData struct {
	Kind   api.FindingKind
	App    string
	Host   api.Host
	Detail map[string]any
}

// Explain renders a finding for key. Host-level keys name the host instead
// of an application.
func Explain(key api.PairKey, finding api.Finding, blocking bool) api.Explanation {
	data := explainData{
		Kind:   finding.Kind,
		App:    key.App,
		Host:   key.Host,
		Detail: detailMap(finding.Detail),
	}
	if key.IsHostLevel() {
		data.App = "every application on " + string(key.Host)
	}

	exp := api.Explanation{Kind: finding.Kind, Blocking: blocking}
	tmpl := genericTemplate
	if c, ok := registry[finding.Kind]; ok {
		exp.Title = c.def.Title
		exp.Remediation = c.def.Remediation
		tmpl = c.tmpl
	} else {
		exp.Title = string(finding.Kind)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		logging.Warn("Risk", "Failed to render explanation for %s on %s: %v", finding.Kind, key, err)
		exp.Text = exp.Title
		return exp
	}
	exp.Text = strings.TrimSpace(buf.String())
	return exp
}

func detailMap(detail any) map[string]any {
	switch d := detail.(type) {
	case nil:
		return map[string]any{}
	case map[string]any:
		return d
	case bool:
		// Analyzers report plain flags such as {"mustBeReachable": false}.
		return map[string]any{}
	default:
		return map[string]any{"value": d, "reason": fmt.Sprint(d)}
	}
}
