package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		in      string
		want    Action
		wantErr bool
	}{
		{"install", ActionInstall, false},
		{"Upgrade", ActionUpgrade, false},
		{" remove ", ActionRemove, false},
		{"reinstall", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAction(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "Install", ActionInstall.Label())
}

func TestApplicationSet(t *testing.T) {
	set := ApplicationSet{
		Requested:     []ResolvedApp{{AppRef: AppRef{ID: "wiki"}}},
		AutoInstalled: []ResolvedApp{{AppRef: AppRef{ID: "db"}}},
	}

	assert.Equal(t, []string{"wiki", "db"}, set.IDs())
	assert.Equal(t, 2, set.Len())
	assert.True(t, set.IsAutoInstalled("db"))
	assert.False(t, set.IsAutoInstalled("wiki"))

	app, ok := set.Get("db")
	require.True(t, ok)
	assert.Equal(t, "db", app.ID)
	_, ok = set.Get("mail")
	assert.False(t, ok)
}

func TestHostAssignment_PairsAreSortedByHost(t *testing.T) {
	a := HostAssignment{
		"b.example": {{ID: "mail"}},
		"a.example": {{ID: "wiki"}, {ID: "db"}},
	}

	assert.Equal(t, []PairKey{
		{App: "wiki", Host: "a.example"},
		{App: "db", Host: "a.example"},
		{App: "mail", Host: "b.example"},
	}, a.Pairs())

	host, ok := a.HostOf("mail")
	require.True(t, ok)
	assert.Equal(t, Host("b.example"), host)
	assert.Equal(t, map[Host][]string{"a.example": {"wiki", "db"}, "b.example": {"mail"}}, a.Wire())
}

func TestSortPairs_HostLevelFirst(t *testing.T) {
	keys := []PairKey{
		{App: "wiki", Host: "a.example"},
		{App: AllApps, Host: "a.example"},
		{App: "db", Host: "a.example"},
	}
	SortPairs(keys)
	assert.Equal(t, AllApps, keys[0].App)
	assert.Equal(t, "db", keys[1].App)
}

func TestResolvedApp_JSONFlattensRef(t *testing.T) {
	var app ResolvedApp
	require.NoError(t, json.Unmarshal([]byte(`{"id":"wiki","version":"2.1","depends_on":["db"],"roles":["primary"]}`), &app))

	assert.Equal(t, "wiki", app.ID)
	assert.Equal(t, "wiki@2.1", app.String())
	assert.Equal(t, []string{"db"}, app.DependsOn)
	assert.True(t, app.AllowsRole("PRIMARY"))
	assert.False(t, app.AllowsRole("backup"))
}

func TestRunContext_ProgressFoldsErrors(t *testing.T) {
	rc := NewRunContext("run-1", ActionInstall, []string{"wiki"})
	rc.AppendProgress(ProgressEvent{Level: LevelInfo, Message: "starting"})
	rc.AppendProgress(ProgressEvent{Level: "critical", Message: "disk full"})
	rc.AddError("aggregation failed")

	assert.Len(t, rc.Log(), 2)
	assert.Equal(t, []string{"disk full", "aggregation failed"}, rc.Errors())
}
