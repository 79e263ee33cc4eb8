package formatting

import (
	"encoding/json"
	"fmt"

	"appctl/internal/api"
	"appctl/internal/history"
)

// JSONFormatter provides structured JSON output formatting
type JSONFormatter struct {
	options Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(options Options) Formatter {
	return &JSONFormatter{
		options: options,
	}
}

// FormatHostChoices formats the placement question as JSON
func (f *JSONFormatter) FormatHostChoices(view api.HostChoiceView) string {
	return f.marshal(hostChoicesDoc(view))
}

// FormatConfirmation formats the pre-execution summary as JSON
func (f *JSONFormatter) FormatConfirmation(view api.ConfirmationView) string {
	return f.marshal(confirmationDoc(view))
}

// FormatBlocking formats blocking findings as JSON
func (f *JSONFormatter) FormatBlocking(view api.BlockingView) string {
	return f.marshal(blockingDoc(view))
}

// FormatAftermath formats execution results as JSON
func (f *JSONFormatter) FormatAftermath(view api.AftermathView) string {
	return f.marshal(aftermathDoc(view))
}

// FormatRun formats a run summary as JSON
func (f *JSONFormatter) FormatRun(rec *history.Record) string {
	return f.marshal(rec)
}

// FormatHistory formats the run list as JSON
func (f *JSONFormatter) FormatHistory(records []*history.Record) string {
	return f.marshal(historyDoc(records))
}

// SetOptions updates the formatter options
func (f *JSONFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *JSONFormatter) GetOptions() Options {
	return f.options
}

// marshal converts data to JSON string with appropriate formatting
func (f *JSONFormatter) marshal(data interface{}) string {
	if !f.options.Quiet {
		return PrettyJSON(data)
	}

	// Compact JSON for quiet mode
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Sprintf(`{"error": "Failed to format JSON: %v"}`, err)
	}
	return string(jsonBytes)
}
