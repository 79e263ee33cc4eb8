package prompt

import (
	"fmt"
	"os"

	"appctl/internal/api"
	"appctl/internal/config"
	"appctl/internal/formatting"
	"appctl/pkg/logging"
)

// Open returns the prompter for a configured mode along with a function
// releasing the terminal. A nil prompter makes the run non-interactive.
//
// Args:
//   - mode: One of auto, huh, line or none. auto picks huh on a terminal
//     and none otherwise.
//   - formatter: Renders the views before each question
//   - historyFile: readline history for line mode, may be empty
func Open(mode string, formatter formatting.Formatter, historyFile string) (api.Prompter, func() error, error) {
	noop := func() error { return nil }

	if mode == config.PromptAuto {
		mode = config.PromptNone
		if IsInteractive() {
			mode = config.PromptHuh
		}
	}
	logging.Debug("Prompt", "Using %s prompts", mode)

	switch mode {
	case config.PromptNone:
		return nil, noop, nil
	case config.PromptHuh:
		return New(NewHuhUI(), formatter, os.Stderr), noop, nil
	case config.PromptLine:
		ui, err := NewLineUI(historyFile)
		if err != nil {
			return nil, noop, err
		}
		return New(ui, formatter, os.Stderr), ui.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown prompt mode %q", mode)
}
