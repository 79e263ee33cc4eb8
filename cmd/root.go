package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"appctl/internal/api"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeBlocked indicates blocking findings stopped a non-interactive run.
	ExitCodeBlocked = 2
	// ExitCodeCancelled indicates the user cancelled the run.
	ExitCodeCancelled = 3
	// ExitCodePartialFailure indicates the run finished but some applications failed.
	ExitCodePartialFailure = 4
)

var (
	// configPath is the directory holding config.yaml.
	configPath string
	// logLevel overrides logging.level from config.yaml.
	logLevel string
)

// rootCmd represents the base command for the appctl application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = newRootCmd()

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "appctl",
		Short: "Install, upgrade and remove applications across the hosts of a domain",
		Long: `appctl installs, upgrades and removes applications on the hosts of a
managed domain. Every run resolves dependencies, places each application on a
host, checks the hosts with a dry run and asks for confirmation when the dry
run finds something worth a second look. Blocking problems stop the run before
anything is changed.

Configuration is read from ~/.config/appctl/config.yaml, or from the directory
given with --config-path.`,
		// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
		SilenceUsage: true,
	}
	cmd.SetVersionTemplate(`{{printf "appctl version %s\n" .Version}}`)

	cmd.PersistentFlags().StringVar(&configPath, "config-path", "", "Configuration directory (default ~/.config/appctl)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (default from config)")

	cmd.AddCommand(newLifecycleCmd(api.ActionInstall))
	cmd.AddCommand(newLifecycleCmd(api.ActionUpgrade))
	cmd.AddCommand(newLifecycleCmd(api.ActionRemove))
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// partialFailureError reports a run that finished with failed applications.
type partialFailureError struct {
	failed int
	total  int
}

func (e *partialFailureError) Error() string {
	return fmt.Sprintf("%d of %d applications failed", e.failed, e.total)
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	var blocking *api.BlockingError
	if errors.As(err, &blocking) {
		return ExitCodeBlocked
	}

	if api.IsCancelled(err) {
		return ExitCodeCancelled
	}

	var partial *partialFailureError
	if errors.As(err, &partial) {
		return ExitCodePartialFailure
	}

	return ExitCodeError
}
