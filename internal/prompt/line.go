package prompt

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"appctl/internal/api"
	"appctl/pkg/logging"
)

// lineReader is the part of *readline.Instance used by LineUI.
type lineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
	Close() error
}

// LineUI implements UI with plain line prompts for terminals where full
// screen forms are unwanted.
type LineUI struct {
	rl  lineReader
	out io.Writer

	// complete installs tab completion for the current question.
	complete func(items []string)
}

// NewLineUI opens a readline prompt on the terminal. historyFile may be
// empty.
func NewLineUI(historyFile string) (*LineUI, error) {
	config := &readline.Config{
		Prompt:          "> ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          os.Stderr,

		HistorySearchFold: true,
	}

	rl, err := readline.NewEx(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create readline instance: %w", err)
	}

	ui := newLineUI(rl, os.Stderr)
	ui.complete = func(items []string) {
		pcs := make([]readline.PrefixCompleterInterface, len(items))
		for i, item := range items {
			pcs[i] = readline.PcItem(item)
		}
		rl.Config.AutoComplete = readline.NewPrefixCompleter(pcs...)
	}
	return ui, nil
}

func newLineUI(rl lineReader, out io.Writer) *LineUI {
	return &LineUI{rl: rl, out: out, complete: func([]string) {}}
}

// Close releases the terminal.
func (ui *LineUI) Close() error {
	return ui.rl.Close()
}

// Select lists the options and reads either a number or an option name.
// An empty answer keeps the current value when it is one of the options.
func (ui *LineUI) Select(title string, options []string, current *string) error {
	if len(options) == 0 {
		return fmt.Errorf("no options for %q", title)
	}

	fmt.Fprintln(ui.out, title)
	for i, o := range options {
		marker := " "
		if o == *current {
			marker = "*"
		}
		fmt.Fprintf(ui.out, " %s %d) %s\n", marker, i+1, o)
	}
	ui.complete(options)
	defer ui.complete(nil)

	for {
		line, err := ui.read(fmt.Sprintf("choice [1-%d]: ", len(options)))
		if err != nil {
			return err
		}
		if line == "" && contains(options, *current) {
			return nil
		}
		if choice, ok := pick(options, line); ok {
			*current = choice
			return nil
		}
		fmt.Fprintf(ui.out, "%q is not one of the options\n", line)
	}
}

// Confirm reads a yes or no answer. An empty answer keeps the current value.
func (ui *LineUI) Confirm(title string, value *bool) error {
	hint := "y/N"
	if *value {
		hint = "Y/n"
	}
	for {
		line, err := ui.read(fmt.Sprintf("%s [%s]: ", title, hint))
		if err != nil {
			return err
		}
		switch strings.ToLower(line) {
		case "":
			return nil
		case "y", "yes":
			*value = true
			return nil
		case "n", "no":
			*value = false
			return nil
		}
		fmt.Fprintln(ui.out, "please answer yes or no")
	}
}

// Input reads a value. An empty answer keeps the current value.
func (ui *LineUI) Input(title string, value *string) error {
	prompt := title + ": "
	if *value != "" {
		prompt = fmt.Sprintf("%s [%s]: ", title, *value)
	}
	line, err := ui.read(prompt)
	if err != nil {
		return err
	}
	if line != "" {
		*value = line
	}
	return nil
}

func (ui *LineUI) read(prompt string) (string, error) {
	ui.rl.SetPrompt(prompt)
	line, err := ui.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return "", api.ErrCancelled
	}
	if err != nil {
		logging.Error("Prompt", err, "Reading answer failed")
		return "", fmt.Errorf("readline error: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func pick(options []string, answer string) (string, bool) {
	if n, err := strconv.Atoi(answer); err == nil {
		if n >= 1 && n <= len(options) {
			return options[n-1], true
		}
		return "", false
	}
	for _, o := range options {
		if strings.EqualFold(o, answer) {
			return o, true
		}
	}
	return "", false
}

func contains(options []string, s string) bool {
	for _, o := range options {
		if o == s {
			return true
		}
	}
	return false
}
