// Package history keeps a summary of finished runs.
//
// Each run is stored as one YAML document under the "runs" entity of the
// configuration storage. Only the aftermath summary is kept: the run's
// accumulator never leaves the process.
package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"appctl/internal/api"
	"appctl/internal/config"
	"appctl/internal/orchestrator"
	"appctl/pkg/logging"
)

const entityType = "runs"

// ErrNotFound is returned when no record matches an ID.
var ErrNotFound = errors.New("run not found")

// PairRecord is the execution result of one application on one host.
type PairRecord struct {
	App       string   `yaml:"app" json:"app"`
	Host      api.Host `yaml:"host" json:"host"`
	Succeeded bool     `yaml:"succeeded" json:"succeeded"`
	Messages  []string `yaml:"messages,omitempty" json:"messages,omitempty"`
}

// Record summarizes a finished run.
type Record struct {
	RunID    string     `yaml:"runId" json:"run_id"`
	Action   api.Action `yaml:"action" json:"action"`
	State    string     `yaml:"state" json:"state"`
	Error    string     `yaml:"error,omitempty" json:"error,omitempty"`
	Attempts int        `yaml:"attempts" json:"attempts"`

	Requested     []string `yaml:"requested" json:"requested"`
	AutoInstalled []string `yaml:"autoInstalled,omitempty" json:"auto_installed,omitempty"`

	HasErrors            bool         `yaml:"hasErrors" json:"has_errors"`
	AdvisoryAcknowledged bool         `yaml:"advisoryAcknowledged,omitempty" json:"advisory_acknowledged,omitempty"`
	Pairs                []PairRecord `yaml:"pairs,omitempty" json:"pairs,omitempty"`
	Errors               []string     `yaml:"errors,omitempty" json:"errors,omitempty"`

	Started  time.Time `yaml:"started" json:"started"`
	Finished time.Time `yaml:"finished" json:"finished"`
}

// Duration returns the wall clock time of the run.
func (r *Record) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Failed returns the number of failed pairs.
func (r *Record) Failed() int {
	n := 0
	for _, p := range r.Pairs {
		if !p.Succeeded {
			n++
		}
	}
	return n
}

// NewRecord summarizes an outcome.
func NewRecord(o *orchestrator.Outcome) *Record {
	rec := &Record{
		RunID:    o.RunID,
		Action:   o.Action,
		State:    string(o.State),
		Attempts: o.Attempts,
		Started:  o.Started,
		Finished: o.Finished,
	}
	if o.Err != nil {
		rec.Error = o.Err.Error()
	}
	rec.HasErrors = o.HasErrors

	rc := o.Context
	if rc == nil {
		return rec
	}
	rec.Requested = append([]string(nil), rc.Requested...)
	for _, app := range rc.Apps.AutoInstalled {
		rec.AutoInstalled = append(rec.AutoInstalled, app.ID)
	}
	rec.AdvisoryAcknowledged = rc.AdvisoryAcknowledged
	rec.Errors = rc.Errors()

	keys := make([]api.PairKey, 0, len(rc.Execution))
	for k := range rc.Execution {
		keys = append(keys, k)
	}
	api.SortPairs(keys)
	for _, k := range keys {
		res := rc.Execution[k]
		rec.Pairs = append(rec.Pairs, PairRecord{
			App:       k.App,
			Host:      k.Host,
			Succeeded: res.Succeeded,
			Messages:  res.Messages,
		})
	}
	return rec
}

// Store persists run records.
type Store struct {
	storage *config.Storage
	limit   int
}

var _ orchestrator.Recorder = (*Store)(nil)

// NewStore creates a store over storage. When limit is positive, only the
// most recent limit records are kept.
func NewStore(storage *config.Storage, limit int) *Store {
	return &Store{storage: storage, limit: limit}
}

// Record implements orchestrator.Recorder.
func (s *Store) Record(_ context.Context, o *orchestrator.Outcome) error {
	return s.Save(NewRecord(o))
}

// Save writes rec and prunes old records beyond the limit.
func (s *Store) Save(rec *Record) error {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode run %s: %w", rec.RunID, err)
	}
	if err := s.storage.Save(entityType, rec.RunID, data); err != nil {
		return err
	}
	logging.Debug("History", "Recorded run %s (%s)", rec.RunID, rec.State)
	return s.prune()
}

// List returns every record, most recent first. Unreadable records are
// skipped with a warning.
func (s *Store) List() ([]*Record, error) {
	names, err := s.storage.List(entityType)
	if err != nil {
		return nil, err
	}
	records := make([]*Record, 0, len(names))
	for _, name := range names {
		rec, err := s.load(name)
		if err != nil {
			logging.Warn("History", "Skipping run %s: %v", name, err)
			continue
		}
		records = append(records, rec)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Started.After(records[j].Started)
	})
	return records, nil
}

// Get returns the record whose ID equals or starts with id. An ambiguous
// prefix is an error.
func (s *Store) Get(id string) (*Record, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrNotFound)
	}
	names, err := s.storage.List(entityType)
	if err != nil {
		return nil, err
	}
	var matches []string
	for _, name := range names {
		if name == id {
			return s.load(name)
		}
		if strings.HasPrefix(name, id) {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return s.load(matches[0])
	}
	return nil, fmt.Errorf("run id %q is ambiguous: matches %s", id, strings.Join(matches, ", "))
}

func (s *Store) load(name string) (*Record, error) {
	data, err := s.storage.Load(entityType, name)
	if err != nil {
		if errors.Is(err, config.ErrEntityNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, err
	}
	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode run %s: %w", name, err)
	}
	return &rec, nil
}

func (s *Store) prune() error {
	if s.limit <= 0 {
		return nil
	}
	records, err := s.List()
	if err != nil {
		return err
	}
	for _, rec := range records[min(s.limit, len(records)):] {
		if err := s.storage.Delete(entityType, rec.RunID); err != nil && !errors.Is(err, config.ErrEntityNotFound) {
			return err
		}
		logging.Debug("History", "Pruned run %s", rec.RunID)
	}
	return nil
}
