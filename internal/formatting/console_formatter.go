package formatting

import (
	"fmt"
	"strings"

	"appctl/internal/api"
	"appctl/internal/history"
)

// ConsoleFormatter provides simple console output formatting
type ConsoleFormatter struct {
	options Options
}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter(options Options) Formatter {
	return &ConsoleFormatter{
		options: options,
	}
}

// FormatHostChoices formats the placement question for console output
func (f *ConsoleFormatter) FormatHostChoices(view api.HostChoiceView) string {
	var output []string
	output = append(output, fmt.Sprintf("Choose hosts to %s on:", view.Action))
	for i, c := range view.Choices {
		line := fmt.Sprintf("  %d. %-30s eligible: %s", i+1, appLabel(c.App, c.AutoInstalled), hostList(c.Eligible))
		if c.Current != "" {
			line += fmt.Sprintf(" [current: %s]", c.Current)
		}
		output = append(output, line)
		if len(c.Excluded) > 0 && !f.options.Quiet {
			output = append(output, fmt.Sprintf("     excluded: %s", exclusionList(c.Excluded)))
		}
	}
	for _, p := range view.Problems {
		output = append(output, "  ! "+p)
	}
	return strings.Join(output, "\n")
}

// FormatConfirmation formats the pre-execution summary for console output
func (f *ConsoleFormatter) FormatConfirmation(view api.ConfirmationView) string {
	var output []string
	output = append(output, fmt.Sprintf("Ready to %s:", view.Action))
	for _, r := range view.Pairs {
		output = append(output, fmt.Sprintf("  %-30s on %-25s %s", reportLabel(r), r.Key.Host, packageSummary(r.Packages)))
		for _, e := range r.Advisory {
			output = append(output, "     warning: "+explanationLine(e))
			if e.Remediation != "" && !f.options.Quiet {
				output = append(output, "              "+e.Remediation)
			}
		}
	}
	if len(view.Settings) > 0 {
		output = append(output, "Settings:")
		for _, p := range view.Settings {
			for _, field := range p.Schema.Fields {
				output = append(output, fmt.Sprintf("  %s.%s = %s", p.App.ID, field.Name, settingValue(field, p.Values)))
			}
		}
	}
	for _, p := range view.Problems {
		output = append(output, "  ! "+p)
	}
	return strings.Join(output, "\n")
}

// FormatBlocking formats blocking findings for console output
func (f *ConsoleFormatter) FormatBlocking(view api.BlockingView) string {
	var output []string
	output = append(output, fmt.Sprintf("Cannot %s:", view.Action))
	for _, r := range view.Pairs {
		for _, e := range r.Blocking {
			output = append(output, fmt.Sprintf("  %s on %s: %s", reportLabel(r), r.Key.Host, explanationLine(e)))
			if e.Remediation != "" {
				output = append(output, "     "+e.Remediation)
			}
		}
	}
	return strings.Join(output, "\n")
}

// FormatAftermath formats execution results for console output
func (f *ConsoleFormatter) FormatAftermath(view api.AftermathView) string {
	var output []string
	if view.CanFinish {
		output = append(output, fmt.Sprintf("%s finished.", view.Action.Label()))
	} else {
		output = append(output, fmt.Sprintf("%s finished with failures.", view.Action.Label()))
	}
	for _, o := range append(append([]api.PairOutcome{}, view.Failures...), view.Messages...) {
		output = append(output, fmt.Sprintf("  %s on %s: %s", pairLabel(o.Key), o.Key.Host, resultText(o.Result.Succeeded)))
		for _, m := range o.Result.Messages {
			output = append(output, "     "+m)
		}
	}
	if len(view.Errors) > 0 {
		output = append(output, "Errors:")
		for _, e := range view.Errors {
			output = append(output, "  "+e)
		}
	}
	return strings.Join(output, "\n")
}

// FormatRun formats a run summary for console output
func (f *ConsoleFormatter) FormatRun(rec *history.Record) string {
	var output []string
	state := rec.State
	if rec.HasErrors {
		state += " (with failures)"
	}
	output = append(output, fmt.Sprintf("Run %s: %s %s -> %s", rec.RunID, rec.Action, runApps(rec), state))
	if rec.Error != "" {
		output = append(output, "  error: "+rec.Error)
	}
	for _, p := range rec.Pairs {
		output = append(output, fmt.Sprintf("  %s on %s: %s", pairLabel(api.PairKey{App: p.App, Host: p.Host}), p.Host, resultText(p.Succeeded)))
	}
	if !f.options.Quiet {
		output = append(output, fmt.Sprintf("  attempts: %d, duration: %s", rec.Attempts, formatDuration(rec.Duration())))
	}
	return strings.Join(output, "\n")
}

// FormatHistory formats the run list for console output
func (f *ConsoleFormatter) FormatHistory(records []*history.Record) string {
	if len(records) == 0 {
		return "No runs recorded."
	}

	var output []string
	output = append(output, fmt.Sprintf("Recorded runs (%d):", len(records)))
	for i, rec := range records {
		output = append(output, fmt.Sprintf("  %d. %s  %-8s %-30s %s", i+1, shortID(rec.RunID), rec.Action, truncate(runApps(rec), 30), rec.State))
	}
	return strings.Join(output, "\n")
}

// SetOptions updates the formatter options
func (f *ConsoleFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *ConsoleFormatter) GetOptions() Options {
	return f.options
}
