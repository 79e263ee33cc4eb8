package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"appctl/internal/api"
	"appctl/internal/config"
	"appctl/internal/formatting"
	"appctl/internal/placement"
	"appctl/internal/settings"
)

// RunFlags holds the flag values shared by the install, upgrade and
// remove commands.
type RunFlags struct {
	// Hosts preselects placements as app=host pairs
	Hosts []string
	// Settings supplies setting values as app.key=value pairs
	Settings []string
	// Yes accepts advisory findings without asking
	Yes bool
	// NoInput disables every prompt
	NoInput bool
	// Prompt overrides the configured prompt mode
	Prompt string
	// OutputFormat specifies the format of the run summary
	OutputFormat string
	// JSON is shorthand for --output json
	JSON bool
	// Quiet suppresses progress indicators and non-essential output
	Quiet bool
}

// RegisterRunFlags registers the flags of a lifecycle command.
//
// The registered flags are:
//   - --host: Place an application on a host (app=host), repeatable
//   - --set: Set an application setting (app.key=value), repeatable
//   - --yes/-y: Proceed past warnings without asking
//   - --no-input: Never prompt; fail where input is needed
//   - --prompt: Prompt mode (auto, huh, line, none)
//   - --output/-o: Summary format (table, console, json, yaml)
//   - --json: Shorthand for --output json
//   - --quiet/-q: Suppress non-essential output
func RegisterRunFlags(cmd *cobra.Command, flags *RunFlags) {
	cmd.Flags().StringArrayVar(&flags.Hosts, "host", nil, "Place an application on a host (app=host)")
	cmd.Flags().StringArrayVar(&flags.Settings, "set", nil, "Set an application setting (app.key=value)")
	cmd.Flags().BoolVarP(&flags.Yes, "yes", "y", false, "Proceed past warnings without asking")
	cmd.Flags().BoolVar(&flags.NoInput, "no-input", false, "Never prompt; fail where input is needed")
	cmd.Flags().StringVar(&flags.Prompt, "prompt", "", "Prompt mode: auto, huh, line or none (default from config)")
	cmd.Flags().StringVarP(&flags.OutputFormat, "output", "o", "table", "Summary format (table, console, json, yaml)")
	cmd.Flags().BoolVar(&flags.JSON, "json", false, "Print the run summary as JSON")
	cmd.Flags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.MarkFlagsMutuallyExclusive("no-input", "prompt")
}

// Format returns the summary format selected by the flags.
func (f *RunFlags) Format() (formatting.OutputFormat, error) {
	if f.JSON {
		return formatting.FormatJSON, nil
	}
	return formatting.ParseFormat(f.OutputFormat)
}

// PromptMode returns the prompt mode, falling back to the configured one.
func (f *RunFlags) PromptMode(configured string) (string, error) {
	mode := configured
	switch {
	case f.NoInput:
		mode = config.PromptNone
	case f.Prompt != "":
		mode = f.Prompt
	}
	switch mode {
	case config.PromptAuto, config.PromptHuh, config.PromptLine, config.PromptNone:
		return mode, nil
	}
	return "", fmt.Errorf("invalid --prompt %q (expected auto, huh, line or none)", mode)
}

// Placements parses the --host flags.
func (f *RunFlags) Placements() (map[string]api.Host, error) {
	return placement.ParsePreselection(f.Hosts)
}

// SettingValues parses the --set flags.
func (f *RunFlags) SettingValues() (map[string]map[string]string, error) {
	return settings.ParseAssignments(f.Settings)
}
