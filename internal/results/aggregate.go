// Package results folds the final execution payload into one
// ExecutionResult per attempted (application, host) pair.
package results

import (
	"fmt"

	"appctl/internal/api"
	"appctl/pkg/logging"
)

const (
	// MissingResultMessage is recorded for pairs absent from the payload.
	MissingResultMessage = "no result reported for this application"

	// DefaultFailureMessage is recorded for failed pairs without messages.
	DefaultFailureMessage = "the operation failed without further details"
)

// Summary is the aggregated outcome of an execution.
type Summary struct {
	Results   map[api.PairKey]api.ExecutionResult
	HasErrors bool
}

// Aggregate produces a result for every pair of assignment. When execErr is
// non-nil the runner call failed after being issued and every pair is
// recorded as failed. Payload entries outside the assignment are ignored.
func Aggregate(assignment api.HostAssignment, resp api.ExecutionResponse, execErr error) Summary {
	s := Summary{Results: make(map[api.PairKey]api.ExecutionResult)}

	for _, key := range assignment.Pairs() {
		var r api.ExecutionResult
		switch {
		case execErr != nil:
			r = api.ExecutionResult{Messages: []string{fmt.Sprintf("execution failed: %v", execErr)}}
		default:
			outcome, ok := resp[key.Host][key.App]
			if !ok {
				logging.Warn("Results", "No result reported for %s", key)
				r = api.ExecutionResult{Messages: []string{MissingResultMessage}}
				break
			}
			r = api.ExecutionResult{Succeeded: outcome.Success, Messages: outcome.Messages}
			if !r.Succeeded && len(r.Messages) == 0 {
				r.Messages = []string{DefaultFailureMessage}
			}
		}
		if !r.Succeeded {
			s.HasErrors = true
		}
		s.Results[key] = r
	}

	for host, apps := range resp {
		for appID := range apps {
			key := api.PairKey{App: appID, Host: host}
			if _, ok := s.Results[key]; !ok {
				logging.Warn("Results", "Ignoring result for unattempted pair %s", key)
			}
		}
	}
	return s
}

// Failures returns the failed pairs in display order.
func (s Summary) Failures() []api.PairOutcome {
	return s.filter(func(r api.ExecutionResult) bool { return !r.Succeeded })
}

// Messages returns the successful pairs that carry post-action messages.
func (s Summary) Messages() []api.PairOutcome {
	return s.filter(func(r api.ExecutionResult) bool { return r.Succeeded && len(r.Messages) > 0 })
}

func (s Summary) filter(keep func(api.ExecutionResult) bool) []api.PairOutcome {
	keys := make([]api.PairKey, 0, len(s.Results))
	for k, r := range s.Results {
		if keep(r) {
			keys = append(keys, k)
		}
	}
	api.SortPairs(keys)
	out := make([]api.PairOutcome, 0, len(keys))
	for _, k := range keys {
		out = append(out, api.PairOutcome{Key: k, Result: s.Results[k]})
	}
	return out
}
