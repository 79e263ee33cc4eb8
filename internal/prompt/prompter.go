package prompt

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"appctl/internal/api"
	"appctl/internal/formatting"
	"appctl/pkg/logging"
)

const (
	choiceRetry  = "Retry"
	choiceCancel = "Cancel"
	choiceFinish = "Finish"
	choiceBack   = "Back"
)

// Prompter carries the interactive stages of a run over a UI. Each view is
// rendered to out before the questions are asked.
type Prompter struct {
	ui        UI
	formatter formatting.Formatter
	out       io.Writer
}

var _ api.Prompter = (*Prompter)(nil)

// New creates a prompter asking through ui and rendering views with
// formatter to out.
func New(ui UI, formatter formatting.Formatter, out io.Writer) *Prompter {
	return &Prompter{ui: ui, formatter: formatter, out: out}
}

// ChooseHosts asks for the host of every application not placed yet.
func (p *Prompter) ChooseHosts(ctx context.Context, view api.HostChoiceView) (map[string]api.Host, error) {
	if err := ctx.Err(); err != nil {
		return nil, api.ErrCancelled
	}
	p.show(p.formatter.FormatHostChoices(view))

	answer := make(map[string]api.Host, len(view.Choices))
	for _, c := range view.Choices {
		if c.Current != "" || len(c.Eligible) == 0 {
			continue
		}
		options := make([]string, len(c.Eligible))
		for i, h := range c.Eligible {
			options[i] = string(h)
		}
		choice := options[0]
		if err := p.ui.Select(fmt.Sprintf("Host for %s", c.App.DisplayName()), options, &choice); err != nil {
			return nil, err
		}
		answer[c.App.ID] = api.Host(choice)
	}
	logging.Debug("Prompt", "Chose hosts %v", answer)
	return answer, nil
}

// Confirm shows the pre-execution summary, asks for settings and then for
// the start or cancel decision.
func (p *Prompter) Confirm(ctx context.Context, view api.ConfirmationView) (api.Confirmation, error) {
	if err := ctx.Err(); err != nil {
		return api.Confirmation{}, api.ErrCancelled
	}
	p.show(p.formatter.FormatConfirmation(view))

	settings := make(map[string]map[string]string, len(view.Settings))
	for _, sp := range view.Settings {
		values := make(map[string]string, len(sp.Schema.Fields))
		for _, field := range sp.Schema.Fields {
			value := sp.Values[field.Name]
			if err := p.askSetting(sp.App, field, &value); err != nil {
				return api.Confirmation{}, err
			}
			values[field.Name] = value
		}
		settings[sp.App.ID] = values
	}

	start := view.StartLabel
	if start == "" {
		start = view.Action.Label()
	}
	choice := start
	if err := p.ui.Select("Proceed?", []string{start, choiceCancel}, &choice); err != nil {
		return api.Confirmation{}, err
	}
	return api.Confirmation{Proceed: choice == start, Settings: settings}, nil
}

func (p *Prompter) askSetting(app api.AppRef, field api.SettingField, value *string) error {
	title := fmt.Sprintf("%s: %s", app.DisplayName(), field.Title())
	switch {
	case len(field.Choices) > 0:
		if *value == "" {
			*value = field.Choices[0]
		}
		return p.ui.Select(title, field.Choices, value)
	case field.Type == api.SettingBool:
		b, _ := strconv.ParseBool(*value)
		if err := p.ui.Confirm(title, &b); err != nil {
			return err
		}
		*value = strconv.FormatBool(b)
		return nil
	}
	return p.ui.Input(title, value)
}

// ReviewBlocking shows the blocking findings and asks whether to retry.
func (p *Prompter) ReviewBlocking(ctx context.Context, view api.BlockingView) (api.Decision, error) {
	if err := ctx.Err(); err != nil {
		return api.DecisionCancel, api.ErrCancelled
	}
	p.show(p.formatter.FormatBlocking(view))

	choice := choiceCancel
	if err := p.ui.Select("Fix the problems and retry, or cancel", []string{choiceRetry, choiceCancel}, &choice); err != nil {
		return api.DecisionCancel, err
	}
	if choice == choiceRetry {
		return api.DecisionRetry, nil
	}
	return api.DecisionCancel, nil
}

// ShowAftermath shows the execution results and waits for acknowledgement.
// Only "Back" is offered when a pair failed.
func (p *Prompter) ShowAftermath(_ context.Context, view api.AftermathView) error {
	p.show(p.formatter.FormatAftermath(view))

	option := choiceFinish
	if !view.CanFinish {
		option = choiceBack
	}
	choice := option
	err := p.ui.Select("Done", []string{option}, &choice)
	if api.IsCancelled(err) {
		return nil
	}
	return err
}

func (p *Prompter) show(s string) {
	if s == "" {
		return
	}
	fmt.Fprintln(p.out, s)
}
