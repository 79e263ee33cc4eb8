package formatting

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"appctl/internal/api"
	"appctl/internal/history"
)

// PrettyJSON formats any value as indented JSON for human-readable display.
// It handles marshaling errors gracefully by falling back to fmt.Sprintf.
//
// Parameters:
//   - v: The value to format as JSON (any type)
//
// Returns:
//   - string: Formatted JSON with 2-space indentation, or string representation on error
func PrettyJSON(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// appLabel renders an application for display, marking dependencies.
func appLabel(ref api.AppRef, auto bool) string {
	label := ref.DisplayName()
	if ref.Version != "" {
		label += " " + ref.Version
	}
	if auto {
		label += " (dependency)"
	}
	return label
}

func reportLabel(r api.PairReport) string {
	if r.Key.IsHostLevel() {
		return "all applications"
	}
	ref := r.App
	if ref.ID == "" {
		ref.ID = r.Key.App
	}
	return appLabel(ref, r.AutoInstalled)
}

func pairLabel(key api.PairKey) string {
	if key.IsHostLevel() {
		return "all applications"
	}
	return key.App
}

func packageSummary(p api.PackageChanges) string {
	if p.Empty() {
		return "-"
	}
	var parts []string
	for _, name := range p.Install {
		parts = append(parts, "+"+name)
	}
	for _, name := range p.Remove {
		parts = append(parts, "-"+name)
	}
	for _, name := range p.Broken {
		parts = append(parts, "!"+name)
	}
	return strings.Join(parts, " ")
}

func exclusionText(reason api.ExclusionReason) string {
	switch reason {
	case api.ExclusionAlreadyInstalled:
		return "already installed"
	case api.ExclusionRoleMismatch:
		return "role not supported"
	case api.ExclusionNotInstalled:
		return "not installed"
	case api.ExclusionNotInDomain:
		return "not in domain"
	}
	return string(reason)
}

func hostList(hosts []api.Host) string {
	if len(hosts) == 0 {
		return "-"
	}
	names := make([]string, len(hosts))
	for i, h := range hosts {
		names[i] = string(h)
	}
	return strings.Join(names, ", ")
}

func exclusionList(excluded []api.HostExclusion) string {
	if len(excluded) == 0 {
		return "-"
	}
	parts := make([]string, len(excluded))
	for i, ex := range excluded {
		parts[i] = fmt.Sprintf("%s (%s)", ex.Host, exclusionText(ex.Reason))
	}
	return strings.Join(parts, ", ")
}

func explanationLine(e api.Explanation) string {
	line := e.Title
	if e.Text != "" {
		line += ": " + e.Text
	}
	return line
}

func settingValue(field api.SettingField, values map[string]string) string {
	if v, ok := values[field.Name]; ok && v != "" {
		return v
	}
	if field.Required {
		return "<required>"
	}
	return "-"
}

// shortID abbreviates a run ID for list output.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(100 * time.Millisecond).String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func resultText(succeeded bool) string {
	if succeeded {
		return "ok"
	}
	return "failed"
}

func runApps(rec *history.Record) string {
	apps := strings.Join(rec.Requested, ", ")
	if len(rec.AutoInstalled) > 0 {
		apps += fmt.Sprintf(" (+%d)", len(rec.AutoInstalled))
	}
	if apps == "" {
		return "-"
	}
	return apps
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
