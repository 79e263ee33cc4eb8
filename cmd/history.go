package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"appctl/internal/app"
	"appctl/internal/formatting"
	"appctl/internal/history"
)

var (
	historyOutputFormat string
	historyQuiet        bool
)

// newHistoryCmd creates the history command and its list and show subcommands.
func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past runs",
		Long: `Shows the summaries of past runs. Runs are only recorded when
history.enabled is set in config.yaml.`,
	}
	cmd.PersistentFlags().StringVarP(&historyOutputFormat, "output", "o", "table", "Output format (table, console, json, yaml)")
	cmd.PersistentFlags().BoolVarP(&historyQuiet, "quiet", "q", false, "Suppress non-essential output")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List recorded runs, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd, func(store *history.Store, f formatting.Formatter) (string, error) {
				records, err := store.List()
				if err != nil {
					return "", err
				}
				return f.FormatHistory(records), nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show one run; a unique prefix of the run ID is enough",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd, func(store *history.Store, f formatting.Formatter) (string, error) {
				rec, err := store.Get(args[0])
				if err != nil {
					return "", err
				}
				return f.FormatRun(rec), nil
			})
		},
	})

	return cmd
}

func withHistory(cmd *cobra.Command, render func(*history.Store, formatting.Formatter) (string, error)) error {
	format, err := formatting.ParseFormat(historyOutputFormat)
	if err != nil {
		return err
	}
	application, err := app.NewApplication(&app.Config{
		ConfigPath: configPath,
		LogLevel:   logLevel,
		Stdout:     cmd.OutOrStdout(),
		Stderr:     cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	store, err := application.History()
	if err != nil {
		return err
	}
	out, err := render(store, application.Formatter(format, historyQuiet))
	if err != nil {
		return err
	}
	fmt.Fprintln(application.Stdout(), out)
	return nil
}
