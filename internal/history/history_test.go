package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appctl/internal/api"
	"appctl/internal/config"
	"appctl/internal/orchestrator"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T, limit int) *Store {
	t.Helper()
	return NewStore(config.NewStorageWithPath(t.TempDir()), limit)
}

func record(id string, offset time.Duration) *Record {
	return &Record{
		RunID:     id,
		Action:    api.ActionInstall,
		State:     string(orchestrator.StateDone),
		Attempts:  1,
		Requested: []string{"wiki"},
		Started:   t0.Add(offset),
		Finished:  t0.Add(offset + 3*time.Second),
	}
}

func TestNewRecord(t *testing.T) {
	rc := api.NewRunContext("run-1", api.ActionInstall, []string{"wiki"})
	rc.Apps = api.ApplicationSet{
		Requested:     []api.ResolvedApp{{AppRef: api.AppRef{ID: "wiki"}}},
		AutoInstalled: []api.ResolvedApp{{AppRef: api.AppRef{ID: "db"}}},
	}
	rc.AdvisoryAcknowledged = true
	rc.Execution[api.PairKey{App: "wiki", Host: "b.example"}] = api.ExecutionResult{Succeeded: false, Messages: []string{"port taken"}}
	rc.Execution[api.PairKey{App: "db", Host: "a.example"}] = api.ExecutionResult{Succeeded: true}
	rc.AddError("port taken")

	rec := NewRecord(&orchestrator.Outcome{
		RunID:     "run-1",
		Action:    api.ActionInstall,
		State:     orchestrator.StateDone,
		Context:   rc,
		HasErrors: true,
		Attempts:  2,
		Started:   t0,
		Finished:  t0.Add(5 * time.Second),
	})

	assert.Equal(t, "Done", rec.State)
	assert.Empty(t, rec.Error)
	assert.Equal(t, []string{"wiki"}, rec.Requested)
	assert.Equal(t, []string{"db"}, rec.AutoInstalled)
	assert.True(t, rec.AdvisoryAcknowledged)
	assert.True(t, rec.HasErrors)
	assert.Equal(t, 2, rec.Attempts)
	assert.Equal(t, []string{"port taken"}, rec.Errors)
	assert.Equal(t, 5*time.Second, rec.Duration())

	require.Len(t, rec.Pairs, 2)
	assert.Equal(t, "db", rec.Pairs[0].App)
	assert.Equal(t, api.Host("a.example"), rec.Pairs[0].Host)
	assert.Equal(t, "wiki", rec.Pairs[1].App)
	assert.Equal(t, 1, rec.Failed())
}

func TestNewRecord_Cancelled(t *testing.T) {
	rec := NewRecord(&orchestrator.Outcome{
		RunID:  "run-2",
		Action: api.ActionRemove,
		State:  orchestrator.StateCancelled,
		Err:    api.ErrCancelled,
	})
	assert.Equal(t, "Cancelled", rec.State)
	assert.Equal(t, api.ErrCancelled.Error(), rec.Error)
	assert.Empty(t, rec.Pairs)
}

func TestStore_SaveListGet(t *testing.T) {
	s := newStore(t, 0)

	require.NoError(t, s.Save(record("b2c4-old", 0)))
	require.NoError(t, s.Save(record("a1f0-new", time.Hour)))
	require.NoError(t, s.Save(record("a1f9-mid", time.Minute)))

	recs, err := s.List()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "a1f0-new", recs[0].RunID)
	assert.Equal(t, "a1f9-mid", recs[1].RunID)
	assert.Equal(t, "b2c4-old", recs[2].RunID)

	rec, err := s.Get("b2")
	require.NoError(t, err)
	assert.Equal(t, "b2c4-old", rec.RunID)
	assert.Equal(t, []string{"wiki"}, rec.Requested)
	assert.True(t, rec.Started.Equal(t0))

	rec, err = s.Get("a1f0-new")
	require.NoError(t, err)
	assert.Equal(t, "a1f0-new", rec.RunID)

	_, err = s.Get("a1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")

	_, err = s.Get("zz")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Get("")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListEmpty(t *testing.T) {
	recs, err := newStore(t, 10).List()
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestStore_Prunes(t *testing.T) {
	s := newStore(t, 2)

	for i, id := range []string{"r1", "r2", "r3", "r4"} {
		require.NoError(t, s.Save(record(id, time.Duration(i)*time.Minute)))
	}

	recs, err := s.List()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "r4", recs[0].RunID)
	assert.Equal(t, "r3", recs[1].RunID)

	_, err = s.Get("r1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_RecordImplementsRecorder(t *testing.T) {
	s := newStore(t, 0)
	var r orchestrator.Recorder = s

	err := r.Record(context.Background(), &orchestrator.Outcome{
		RunID:    "run-9",
		Action:   api.ActionUpgrade,
		State:    orchestrator.StateFailed,
		Err:      &api.StageError{Stage: string(orchestrator.StateRunningDryRun), Err: api.ErrInputRequired},
		Started:  t0,
		Finished: t0,
	})
	require.NoError(t, err)

	rec, err := s.Get("run-9")
	require.NoError(t, err)
	assert.Equal(t, "Failed", rec.State)
	assert.NotEmpty(t, rec.Error)
}
