package app

import (
	"context"
	"fmt"

	"appctl/internal/api"
	"appctl/internal/cli"
	"appctl/internal/events"
	"appctl/internal/formatting"
	"appctl/internal/history"
	"appctl/internal/orchestrator"
	"appctl/internal/prompt"
	"appctl/pkg/logging"
)

// Run drives one lifecycle request to a terminal state and prints its
// summary to Stdout.
//
// The returned outcome is nil only when the run could not be set up (bad
// flags, unreachable configuration). Otherwise the returned error is the
// outcome's error, with transport failures explained for the configured
// endpoint.
func (a *Application) Run(ctx context.Context, action api.Action, apps []string, flags *cli.RunFlags) (*orchestrator.Outcome, error) {
	format, err := flags.Format()
	if err != nil {
		return nil, err
	}
	hosts, err := flags.Placements()
	if err != nil {
		return nil, err
	}
	values, err := flags.SettingValues()
	if err != nil {
		return nil, err
	}
	mode, err := flags.PromptMode(a.settings.Prompt.Mode)
	if err != nil {
		return nil, err
	}

	services, err := a.InitializeServices()
	if err != nil {
		return nil, err
	}

	views := formatting.NewFactory().CreateFormatter(formatting.Options{
		Format: formatting.FormatTable,
		Color:  isTerminal(a.config.Stderr),
	})
	prompter, closePrompter, err := prompt.Open(mode, views, a.promptHistoryPath())
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := closePrompter(); err != nil {
			logging.Warn("Prompt", "Failed to close prompt: %v", err)
		}
	}()

	bus := events.NewBus()
	var progress *cli.Progress
	if !flags.Quiet {
		progress = cli.NewProgress(bus, a.config.Stderr, isTerminal(a.config.Stderr))
	}

	orchCfg := orchestrator.Config{
		Resolver:         services.Backend,
		Inventory:        services.Backend,
		Backend:          services.Backend,
		Prompter:         prompter,
		Policy:           a.settings.Pipeline.Policy(),
		SkipConfirmation: a.settings.Pipeline.SkipConfirmation || flags.Yes,
		Events:           bus,
	}
	if services.History != nil {
		orchCfg.History = services.History
	}
	orch, err := orchestrator.New(orchCfg)
	if err != nil {
		bus.Close()
		if progress != nil {
			progress.Wait()
		}
		return nil, err
	}

	outcome, runErr := orch.Run(ctx, orchestrator.Request{
		Action:   action,
		Apps:     apps,
		Hosts:    hosts,
		Settings: values,
	})
	bus.Close()
	if progress != nil {
		progress.Wait()
	}

	summary := a.Formatter(format, flags.Quiet).FormatRun(history.NewRecord(outcome))
	fmt.Fprintln(a.config.Stdout, summary)

	return outcome, cli.ExplainBackendError(runErr, services.Endpoint)
}
