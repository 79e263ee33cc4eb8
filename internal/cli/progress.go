package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"

	"appctl/internal/events"
	"appctl/internal/orchestrator"
	"appctl/pkg/logging"
)

const progressBuffer = 256

// indicator is the part of a spinner driven by Progress.
type indicator interface {
	Start()
	Stop()
	SetSuffix(suffix string)
}

type spinnerIndicator struct {
	s *spinner.Spinner
}

func (i *spinnerIndicator) Start() { i.s.Start() }
func (i *spinnerIndicator) Stop()  { i.s.Stop() }

func (i *spinnerIndicator) SetSuffix(suffix string) {
	i.s.Lock()
	i.s.Suffix = suffix
	i.s.Unlock()
}

// Progress follows the pipeline events of a run. It spins while the dry run
// and the execution wait on the backend and prints warnings and errors
// streamed during execution. Interactive stages stop the spinner so prompts
// are not overwritten.
type Progress struct {
	ind    indicator
	out    io.Writer
	color  bool
	events <-chan events.Event
	done   chan struct{}

	spinning bool
}

// NewProgress subscribes to bus and starts following it. Call Wait after
// closing the bus.
func NewProgress(bus *events.Bus, out io.Writer, color bool) *Progress {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	return newProgress(bus, out, color, &spinnerIndicator{s: s})
}

func newProgress(bus *events.Bus, out io.Writer, color bool, ind indicator) *Progress {
	p := &Progress{
		ind:    ind,
		out:    out,
		color:  color,
		events: bus.Subscribe(progressBuffer),
		done:   make(chan struct{}),
	}
	go p.loop()
	return p
}

// Wait blocks until the event stream is closed and the spinner stopped.
func (p *Progress) Wait() {
	<-p.done
}

func (p *Progress) loop() {
	defer close(p.done)
	for ev := range p.events {
		p.handle(ev)
	}
	p.stop()
}

func (p *Progress) handle(ev events.Event) {
	switch ev.Reason {
	case events.ReasonStageEntered:
		switch orchestrator.State(ev.Data.Stage) {
		case orchestrator.StateResolvingDependencies:
			p.spin(" Resolving dependencies...")
		case orchestrator.StateRunningDryRun:
			p.spin(" Checking hosts...")
		case orchestrator.StateExecuting:
			// ExecutionStarted follows with the host list.
		default:
			p.stop()
		}
	case events.ReasonExecutionStarted:
		p.spin(" " + ev.Message + "...")
	case events.ReasonExecutionProgress:
		if ev.Type == events.EventTypeWarning {
			p.println(p.paint(text.FgYellow, ev.Message))
			return
		}
		if p.spinning {
			p.ind.SetSuffix(" " + ev.Message)
		}
	case events.ReasonRunRetried:
		p.stop()
		p.println(ev.Message)
	case events.ReasonDependenciesResolved, events.ReasonHostsAssigned:
		logging.Debug("CLI", "%s", ev.Message)
	case events.ReasonRunCompleted, events.ReasonRunFailed, events.ReasonRunCancelled:
		p.stop()
	}
}

func (p *Progress) spin(suffix string) {
	p.ind.SetSuffix(suffix)
	if !p.spinning {
		p.ind.Start()
		p.spinning = true
	}
}

func (p *Progress) stop() {
	if p.spinning {
		p.ind.Stop()
		p.spinning = false
	}
}

// println prints a line above the spinner.
func (p *Progress) println(line string) {
	wasSpinning := p.spinning
	p.stop()
	fmt.Fprintln(p.out, line)
	if wasSpinning {
		p.ind.Start()
		p.spinning = true
	}
}

func (p *Progress) paint(c text.Color, s string) string {
	if !p.color {
		return s
	}
	return c.Sprint(s)
}
