package events

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// MessageTemplateEngine renders event messages from text/template sources
// with the sprig function library.
type MessageTemplateEngine struct {
	mu        sync.RWMutex
	templates map[EventReason]*template.Template
	sources   map[EventReason]string
}

// NewMessageTemplateEngine creates a new message template engine with default templates.
func NewMessageTemplateEngine() *MessageTemplateEngine {
	engine := &MessageTemplateEngine{
		templates: make(map[EventReason]*template.Template),
		sources:   make(map[EventReason]string),
	}
	engine.loadDefaultTemplates()
	return engine
}

var defaultTemplates = map[EventReason]string{
	// Run lifecycle
	ReasonRunStarted:   `Run {{ .RunID | trunc 8 }} started: {{ .Action }} {{ join ", " .Apps }}`,
	ReasonStageEntered: `{{ .Stage }}`,
	ReasonStageSkipped: `{{ .Stage }} skipped`,
	ReasonRunRetried:   `Retrying {{ .Action }} from the start`,
	ReasonRunCompleted: `{{ .Action | title }} finished{{ if .Failed }} with {{ .Failed }} of {{ .Count }} failed{{ end }}{{ if .Duration }} in {{ .Duration }}{{ end }}`,
	ReasonRunFailed:    `{{ .Action | title }} failed in {{ .Stage }}{{ if .Error }}: {{ .Error }}{{ end }}`,
	ReasonRunCancelled: `{{ .Action | title }} cancelled{{ if .Stage }} during {{ .Stage }}{{ end }}`,

	// Stage outcomes
	ReasonDependenciesResolved: `Resolved {{ .Count }} application{{ if ne .Count 1 }}s{{ end }}: {{ join ", " .Apps }}`,
	ReasonHostsAssigned:        `Assigned to {{ join ", " (.Hosts | uniq) }}`,
	ReasonDryRunCompleted:      `Dry run checked {{ .Count }} pair{{ if ne .Count 1 }}s{{ end }}`,
	ReasonBlockingFound:        `Blocking issues on {{ join ", " .Apps }}`,
	ReasonAdvisoryAccepted:     `Continuing despite warnings on {{ join ", " .Apps }}`,
	ReasonExecutionStarted:     `Running {{ .Action }} on {{ join ", " .Hosts }}`,
	ReasonExecutionProgress:    `{{ .Message }}`,
	ReasonExecutionFinished:    `{{ sub .Count .Failed }} of {{ .Count }} succeeded`,
}

// loadDefaultTemplates initializes the default message templates for all event reasons.
func (e *MessageTemplateEngine) loadDefaultTemplates() {
	for reason, src := range defaultTemplates {
		if err := e.SetTemplate(reason, src); err != nil {
			panic(fmt.Sprintf("default template for %s: %v", reason, err))
		}
	}
}

// Render generates a message for the given event reason and data.
func (e *MessageTemplateEngine) Render(reason EventReason, data EventData) string {
	e.mu.RLock()
	tmpl, exists := e.templates[reason]
	e.mu.RUnlock()
	if !exists {
		// Fallback for unknown event reasons
		return fmt.Sprintf("Event: %s for run %s", string(reason), data.RunID)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Sprintf("Event: %s (%v)", string(reason), err)
	}
	return strings.TrimSpace(buf.String())
}

// SetTemplate allows customizing the message template for a specific event reason.
func (e *MessageTemplateEngine) SetTemplate(reason EventReason, source string) error {
	tmpl, err := template.New(string(reason)).Funcs(sprig.TxtFuncMap()).Parse(source)
	if err != nil {
		return fmt.Errorf("failed to parse template for %s: %w", reason, err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[reason] = tmpl
	e.sources[reason] = source
	return nil
}

// GetTemplate returns the template source for a specific event reason.
func (e *MessageTemplateEngine) GetTemplate(reason EventReason) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	source, exists := e.sources[reason]
	return source, exists
}
