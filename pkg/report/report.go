// Package report renders reconciliation outcomes as CSV and JSONL
// artifacts. It is purely a sink: nothing here feeds back into planning.
package report

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/fleetops/rostersync/pkg/errors"
)

// Kind classifies a planned action.
type Kind string

const (
	KindCreate     Kind = "create"
	KindUpdate     Kind = "update"
	KindSkip       Kind = "skip"
	KindDeactivate Kind = "deactivate"
	KindReactivate Kind = "reactivate"
	KindQuarantine Kind = "quarantine"
	KindDelete     Kind = "delete"
	KindError      Kind = "error"
)

// Action is one planned (and possibly applied) reconciliation decision.
// Actions are recorded for every row, including no-op skips, so a dry run
// is a complete preview of apply mode. EntityID is the remote record id
// (address or driver); SourceID is the source-system identifier (Encompass
// customer id or payroll employee code).
type Action struct {
	At       string `json:"at"`
	Kind     Kind   `json:"kind"`
	EntityID string `json:"entity_id,omitempty"`
	SourceID string `json:"source_id,omitempty"`
	Reason   string `json:"reason"`
	Payload  any    `json:"payload,omitempty"`
	Diff     any    `json:"diff,omitempty"`
	Error    string `json:"error,omitempty"`
}

// NewAction stamps an action with the current UTC time.
func NewAction(kind Kind, entityID, sourceID, reason string) Action {
	return Action{
		At:       time.Now().UTC().Format(time.RFC3339),
		Kind:     kind,
		EntityID: entityID,
		SourceID: sourceID,
		Reason:   reason,
	}
}

// Sink writes artifacts under one output directory, each run stamped with a
// unique id.
type Sink struct {
	dir   string
	runID string
}

// NewSink creates the output directory and assigns a run id.
func NewSink(dir string) (*Sink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.WrapIO("mkdir", dir, err)
	}
	return &Sink{dir: dir, runID: uuid.NewString()}, nil
}

// RunID returns the unique id for this run.
func (s *Sink) RunID() string { return s.runID }

// Dir returns the output directory.
func (s *Sink) Dir() string { return s.dir }

// Sub returns a sink writing into a subdirectory with the same run id.
func (s *Sink) Sub(name string) (*Sink, error) {
	dir := filepath.Join(s.dir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.WrapIO("mkdir", dir, err)
	}
	return &Sink{dir: dir, runID: s.runID}, nil
}

// WriteActionsJSONL renders the ordered action list as one JSON object per
// line.
func (s *Sink) WriteActionsJSONL(name string, actions []Action) error {
	path := filepath.Join(s.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	for _, a := range actions {
		if err := enc.Encode(a); err != nil {
			return errors.WrapIO("write", path, err)
		}
	}
	return nil
}

// WriteCSV renders rows with a fixed column order. Missing cells render
// empty.
func (s *Sink) WriteCSV(name string, fieldnames []string, rows []map[string]string) error {
	path := filepath.Join(s.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(fieldnames); err != nil {
		return errors.WrapIO("write", path, err)
	}
	record := make([]string, len(fieldnames))
	for _, row := range rows {
		for i, col := range fieldnames {
			record[i] = row[col]
		}
		if err := w.Write(record); err != nil {
			return errors.WrapIO("write", path, err)
		}
	}
	w.Flush()
	return w.Error()
}

// WriteSummaryCSV renders the per-kind action counts plus the run id as
// metric/value rows.
func (s *Sink) WriteSummaryCSV(name string, actions []Action) error {
	counts := Summarize(actions)
	metrics := make([]string, 0, len(counts))
	for k := range counts {
		metrics = append(metrics, k)
	}
	sort.Strings(metrics)

	rows := []map[string]string{{"metric": "run_id", "value": s.runID}}
	for _, m := range metrics {
		rows = append(rows, map[string]string{
			"metric": m,
			"value":  strconv.Itoa(counts[m]),
		})
	}
	return s.WriteCSV(name, []string{"metric", "value"}, rows)
}

// Summarize counts actions by kind.
func Summarize(actions []Action) map[string]int {
	counts := make(map[string]int)
	for _, a := range actions {
		counts[string(a.Kind)]++
	}
	return counts
}
