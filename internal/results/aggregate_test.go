package results

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appctl/internal/api"
)

var assignment = api.HostAssignment{
	"a.example": {{ID: "wiki"}, {ID: "db"}},
	"b.example": {{ID: "mail"}},
}

func TestAggregate_OneResultPerPair(t *testing.T) {
	resp := api.ExecutionResponse{
		"a.example": {
			"wiki": {Success: true, Messages: []string{"visit /wiki to finish setup"}},
			"db":   {Success: true},
		},
		"b.example": {"mail": {Success: false, Messages: []string{"port 25 in use"}}},
	}

	s := Aggregate(assignment, resp, nil)
	assert.Len(t, s.Results, 3)
	assert.True(t, s.HasErrors)

	failures := s.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, api.PairKey{App: "mail", Host: "b.example"}, failures[0].Key)
	assert.Equal(t, []string{"port 25 in use"}, failures[0].Result.Messages)

	messages := s.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "wiki", messages[0].Key.App)
}

func TestAggregate_AllSucceeded(t *testing.T) {
	resp := api.ExecutionResponse{
		"a.example": {"wiki": {Success: true}, "db": {Success: true}},
		"b.example": {"mail": {Success: true}},
	}
	s := Aggregate(assignment, resp, nil)
	assert.False(t, s.HasErrors)
	assert.Empty(t, s.Failures())
	assert.Empty(t, s.Messages())
}

func TestAggregate_MissingPairsFail(t *testing.T) {
	resp := api.ExecutionResponse{
		"a.example": {"wiki": {Success: true}, "db": {Success: false}},
	}
	s := Aggregate(assignment, resp, nil)

	assert.True(t, s.HasErrors)
	assert.Equal(t, []string{MissingResultMessage}, s.Results[api.PairKey{App: "mail", Host: "b.example"}].Messages)
	assert.Equal(t, []string{DefaultFailureMessage}, s.Results[api.PairKey{App: "db", Host: "a.example"}].Messages)
}

func TestAggregate_RunnerErrorFailsEveryPair(t *testing.T) {
	resp := api.ExecutionResponse{"a.example": {"wiki": {Success: true}}}
	s := Aggregate(assignment, resp, errors.New("stream closed"))

	assert.True(t, s.HasErrors)
	assert.Len(t, s.Failures(), 3)
	for _, r := range s.Results {
		assert.Equal(t, []string{"execution failed: stream closed"}, r.Messages)
	}
}

func TestAggregate_IgnoresExtraEntries(t *testing.T) {
	resp := api.ExecutionResponse{
		"a.example": {"wiki": {Success: true}, "db": {Success: true}, "ghost": {Success: false}},
		"b.example": {"mail": {Success: true}},
		"c.example": {"wiki": {Success: false}},
	}
	s := Aggregate(assignment, resp, nil)
	assert.Len(t, s.Results, 3)
	assert.False(t, s.HasErrors)
}
