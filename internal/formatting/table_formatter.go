package formatting

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"appctl/internal/api"
	"appctl/internal/history"
	"appctl/internal/orchestrator"
)

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(options Options) Formatter {
	return &TableFormatter{
		options: options,
	}
}

// FormatHostChoices lists the placement question of each application.
func (f *TableFormatter) FormatHostChoices(view api.HostChoiceView) string {
	var b strings.Builder
	f.title(&b, fmt.Sprintf("Choose hosts to %s on", view.Action))

	t := f.createTable()
	t.AppendHeader(f.header("#", "APPLICATION", "ELIGIBLE HOSTS", "CURRENT", "EXCLUDED"))
	for i, c := range view.Choices {
		current := "-"
		if c.Current != "" {
			current = string(c.Current)
		}
		t.AppendRow(table.Row{
			i + 1,
			appLabel(c.App, c.AutoInstalled),
			hostList(c.Eligible),
			current,
			exclusionList(c.Excluded),
		})
	}
	b.WriteString(t.Render())
	b.WriteString("\n")
	f.problems(&b, view.Problems)
	return b.String()
}

// FormatConfirmation renders the pre-execution summary.
func (f *TableFormatter) FormatConfirmation(view api.ConfirmationView) string {
	var b strings.Builder
	f.title(&b, fmt.Sprintf("Ready to %s", view.Action))

	t := f.createTable()
	t.AppendHeader(f.header("APPLICATION", "HOST", "PACKAGES", "NOTES"))
	for _, r := range view.Pairs {
		notes := make([]string, 0, len(r.Advisory))
		for _, e := range r.Advisory {
			notes = append(notes, f.color(text.FgYellow, e.Title))
		}
		t.AppendRow(table.Row{
			reportLabel(r),
			string(r.Key.Host),
			packageSummary(r.Packages),
			strings.Join(notes, "\n"),
		})
	}
	b.WriteString(t.Render())
	b.WriteString("\n")

	if view.HasAdvisory {
		b.WriteString("\n")
		b.WriteString(f.color(text.FgYellow, "Warnings:"))
		b.WriteString("\n")
		for _, r := range view.Pairs {
			for _, e := range r.Advisory {
				fmt.Fprintf(&b, "  %s on %s: %s\n", reportLabel(r), r.Key.Host, explanationLine(e))
				if e.Remediation != "" && !f.options.Quiet {
					fmt.Fprintf(&b, "    %s\n", e.Remediation)
				}
			}
		}
	}

	if len(view.Settings) > 0 {
		b.WriteString("\n")
		st := f.createTable()
		st.AppendHeader(f.header("APPLICATION", "SETTING", "VALUE", "TYPE"))
		for _, p := range view.Settings {
			for _, field := range p.Schema.Fields {
				typ := string(field.Type)
				if typ == "" {
					typ = string(api.SettingString)
				}
				if len(field.Choices) > 0 {
					typ += " (" + strings.Join(field.Choices, "|") + ")"
				}
				st.AppendRow(table.Row{
					appLabel(p.App, false),
					field.Title(),
					settingValue(field, p.Values),
					typ,
				})
			}
		}
		b.WriteString(st.Render())
		b.WriteString("\n")
	}

	f.problems(&b, view.Problems)
	return b.String()
}

// FormatBlocking lists the findings that halt the run.
func (f *TableFormatter) FormatBlocking(view api.BlockingView) string {
	var b strings.Builder
	f.title(&b, fmt.Sprintf("Cannot %s", view.Action))

	t := f.createTable()
	t.AppendHeader(f.header("APPLICATION", "HOST", "PROBLEM", "REMEDIATION"))
	for _, r := range view.Pairs {
		for _, e := range r.Blocking {
			remediation := e.Remediation
			if remediation == "" {
				remediation = "-"
			}
			t.AppendRow(table.Row{
				reportLabel(r),
				string(r.Key.Host),
				f.color(text.FgRed, explanationLine(e)),
				remediation,
			})
		}
	}
	b.WriteString(t.Render())
	b.WriteString("\n")
	return b.String()
}

// FormatAftermath lists failed pairs, result messages and run errors.
func (f *TableFormatter) FormatAftermath(view api.AftermathView) string {
	var b strings.Builder
	if view.CanFinish {
		f.title(&b, fmt.Sprintf("%s finished", view.Action.Label()))
	} else {
		f.title(&b, fmt.Sprintf("%s finished with failures", view.Action.Label()))
	}

	if len(view.Failures) > 0 || len(view.Messages) > 0 {
		t := f.createTable()
		t.AppendHeader(f.header("APPLICATION", "HOST", "RESULT", "MESSAGES"))
		for _, o := range view.Failures {
			t.AppendRow(f.outcomeRow(o))
		}
		for _, o := range view.Messages {
			t.AppendRow(f.outcomeRow(o))
		}
		b.WriteString(t.Render())
		b.WriteString("\n")
	}

	if len(view.Errors) > 0 {
		b.WriteString(f.color(text.FgRed, "Errors:"))
		b.WriteString("\n")
		for _, e := range view.Errors {
			fmt.Fprintf(&b, "  %s\n", e)
		}
	}
	return b.String()
}

// FormatRun renders the summary of one run.
func (f *TableFormatter) FormatRun(rec *history.Record) string {
	var b strings.Builder

	t := f.createTable()
	rows := []table.Row{
		{f.key("RUN"), rec.RunID},
		{f.key("ACTION"), string(rec.Action)},
		{f.key("APPLICATIONS"), runApps(rec)},
		{f.key("STATE"), f.state(rec)},
		{f.key("ATTEMPTS"), rec.Attempts},
		{f.key("STARTED"), formatTime(rec.Started)},
		{f.key("DURATION"), formatDuration(rec.Duration())},
	}
	if rec.Error != "" {
		rows = append(rows, table.Row{f.key("ERROR"), f.color(text.FgRed, rec.Error)})
	}
	t.AppendRows(rows)
	b.WriteString(t.Render())
	b.WriteString("\n")

	if len(rec.Pairs) > 0 {
		pt := f.createTable()
		pt.AppendHeader(f.header("APPLICATION", "HOST", "RESULT", "MESSAGES"))
		for _, p := range rec.Pairs {
			pt.AppendRow(table.Row{
				pairLabel(api.PairKey{App: p.App, Host: p.Host}),
				string(p.Host),
				f.result(p.Succeeded),
				strings.Join(p.Messages, "\n"),
			})
		}
		b.WriteString(pt.Render())
		b.WriteString("\n")
	}

	if len(rec.Errors) > 0 && !f.options.Quiet {
		b.WriteString(f.color(text.FgRed, "Errors:"))
		b.WriteString("\n")
		for _, e := range rec.Errors {
			fmt.Fprintf(&b, "  %s\n", e)
		}
	}
	return b.String()
}

// FormatHistory lists recorded runs, most recent first.
func (f *TableFormatter) FormatHistory(records []*history.Record) string {
	if len(records) == 0 {
		return f.formatEmptyMessage("📋", "No runs recorded")
	}

	t := f.createTable()
	t.AppendHeader(f.header("RUN", "ACTION", "APPLICATIONS", "STATE", "FAILED", "STARTED", "DURATION"))
	for _, rec := range records {
		t.AppendRow(table.Row{
			shortID(rec.RunID),
			string(rec.Action),
			truncate(runApps(rec), 40),
			f.state(rec),
			rec.Failed(),
			formatTime(rec.Started),
			formatDuration(rec.Duration()),
		})
	}
	out := t.Render() + "\n"
	if !f.options.Quiet {
		out += fmt.Sprintf("\n%s %s %s\n",
			f.color(text.FgHiBlue, "Total:"),
			f.color(text.FgHiWhite, fmt.Sprint(len(records))),
			f.color(text.FgHiBlue, "runs"))
	}
	return out
}

// SetOptions updates the formatter options
func (f *TableFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *TableFormatter) GetOptions() Options {
	return f.options
}

// Helper methods

// createTable creates a new table with standard styling
func (f *TableFormatter) createTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	return t
}

func (f *TableFormatter) header(names ...string) table.Row {
	row := make(table.Row, len(names))
	for i, n := range names {
		row[i] = f.color(text.FgHiCyan, n)
	}
	return row
}

func (f *TableFormatter) key(name string) string {
	return f.color(text.FgHiCyan, name)
}

func (f *TableFormatter) color(c text.Color, s string) string {
	if !f.options.Color {
		return s
	}
	return c.Sprint(s)
}

func (f *TableFormatter) title(b *strings.Builder, title string) {
	if f.options.Quiet {
		return
	}
	b.WriteString(f.color(text.Bold, title))
	b.WriteString("\n")
}

func (f *TableFormatter) problems(b *strings.Builder, problems []string) {
	for _, p := range problems {
		fmt.Fprintf(b, "%s %s\n", f.color(text.FgRed, "✗"), p)
	}
}

func (f *TableFormatter) result(succeeded bool) string {
	if succeeded {
		return f.color(text.FgGreen, resultText(true))
	}
	return f.color(text.FgRed, resultText(false))
}

func (f *TableFormatter) state(rec *history.Record) string {
	switch {
	case rec.State == string(orchestrator.StateDone) && !rec.HasErrors:
		return f.color(text.FgGreen, rec.State)
	case rec.State == string(orchestrator.StateDone):
		return f.color(text.FgYellow, rec.State+" (with failures)")
	case rec.State == string(orchestrator.StateCancelled):
		return f.color(text.FgYellow, rec.State)
	}
	return f.color(text.FgRed, rec.State)
}

func (f *TableFormatter) outcomeRow(o api.PairOutcome) table.Row {
	return table.Row{
		pairLabel(o.Key),
		string(o.Key.Host),
		f.result(o.Result.Succeeded),
		strings.Join(o.Result.Messages, "\n"),
	}
}

// formatEmptyMessage formats empty result messages
func (f *TableFormatter) formatEmptyMessage(icon, message string) string {
	return fmt.Sprintf("%s %s\n", f.color(text.FgYellow, icon), f.color(text.FgYellow, message))
}
