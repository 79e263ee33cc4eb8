package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"appctl/internal/api"
	"appctl/internal/app"
	"appctl/internal/cli"
	"appctl/internal/history"
	"appctl/internal/orchestrator"
)

var lifecycleDescriptions = map[api.Action]struct{ short, long string }{
	api.ActionInstall: {
		short: "Install applications on the hosts of the domain",
		long: `Installs the given applications. Dependencies that are not installed
anywhere in the domain are added automatically and placed with the application
that needs them.

Each application is placed on a host whose role allows it. When more than one
host qualifies, appctl asks, unless a host is given with --host.`,
	},
	api.ActionUpgrade: {
		short: "Upgrade applications where they are installed",
		long: `Upgrades the given applications on the host that runs them.
Applications installed on several hosts need a choice, interactively or with
--host.`,
	},
	api.ActionRemove: {
		short: "Remove applications from the hosts that run them",
		long: `Removes the given applications from the host that runs them.
Applications installed on several hosts need a choice, interactively or with
--host.`,
	},
}

// newLifecycleCmd creates the command running action on its arguments.
func newLifecycleCmd(action api.Action) *cobra.Command {
	flags := &cli.RunFlags{}
	desc := lifecycleDescriptions[action]

	cmd := &cobra.Command{
		Use:   string(action) + " APP [APP...]",
		Short: desc.short,
		Long: desc.long + `

Findings of the dry run are shown before anything changes. Warnings need a
confirmation (or --yes); blocking problems can only be fixed and retried.
Without a terminal, or with --no-input, appctl never asks and fails where an
answer would be needed.

Exit codes: 0 success, 1 error, 2 blocked, 3 cancelled, 4 some applications failed.`,
		Example: fmt.Sprintf(`  appctl %[1]s wiki
  appctl %[1]s wiki --host wiki=primary.example --yes
  appctl %[1]s wiki --set wiki.port=9090 --no-input --json`, action),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLifecycle(cmd, action, args, flags)
		},
	}
	cli.RegisterRunFlags(cmd, flags)
	return cmd
}

func runLifecycle(cmd *cobra.Command, action api.Action, apps []string, flags *cli.RunFlags) error {
	application, err := app.NewApplication(&app.Config{
		ConfigPath: configPath,
		LogLevel:   logLevel,
		Stdout:     cmd.OutOrStdout(),
		Stderr:     cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outcome, err := application.Run(ctx, action, apps, flags)
	if err != nil {
		return err
	}
	return partialFailure(outcome)
}

func partialFailure(outcome *orchestrator.Outcome) error {
	if !outcome.HasErrors {
		return nil
	}
	rec := history.NewRecord(outcome)
	return &partialFailureError{failed: rec.Failed(), total: len(rec.Pairs)}
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
