// Package sync implements the address reconciliation engine: desired-state
// construction, matching, diffing, action planning, the safe-delete state
// machine, and the full/daily pass orchestrators.
package sync

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/fleetops/rostersync/pkg/errors"
	"github.com/fleetops/rostersync/pkg/logging"
)

// State is the persisted sync state: the last-applied fingerprint per remote
// id and the quarantine timestamp per delete candidate. It is the fallback
// when a record's own external-id fingerprint is unavailable and the clock
// source for retention eligibility.
type State struct {
	Fingerprints     map[string]string `json:"fingerprints"`
	CandidateDeletes map[string]string `json:"candidate_deletes"`
}

// NewState returns an empty state.
func NewState() *State {
	return &State{
		Fingerprints:     map[string]string{},
		CandidateDeletes: map[string]string{},
	}
}

// LoadState reads the state file. A missing or corrupt file yields an empty
// state, never an error: re-planning from scratch is always safe because
// unchanged records re-diff to empty patches.
func LoadState(path string) *State {
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Warn().Err(err).Str("path", path).Msg("unreadable state file, starting empty")
		}
		return NewState()
	}
	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("corrupt state file, starting empty")
		return NewState()
	}
	if s.Fingerprints == nil {
		s.Fingerprints = map[string]string{}
	}
	if s.CandidateDeletes == nil {
		s.CandidateDeletes = map[string]string{}
	}
	return &s
}

// Save writes the state file atomically via a temp file and rename.
func (s *State) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapIO("mkdir", dir, err)
		}
	}
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(raw, '\n'), 0o644); err != nil {
		return errors.WrapIO("write", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.WrapIO("rename", path, err)
	}
	return nil
}

// MarkCandidate records the quarantine timestamp for id the first time it is
// seen as a delete candidate. An existing timestamp is never reset, so the
// retention clock survives repeated passes.
func (s *State) MarkCandidate(id string, now time.Time) {
	if _, ok := s.CandidateDeletes[id]; ok {
		return
	}
	s.CandidateDeletes[id] = now.UTC().Format(time.RFC3339)
}

// Forget removes all state for a hard-deleted record.
func (s *State) Forget(id string) {
	delete(s.Fingerprints, id)
	delete(s.CandidateDeletes, id)
}

// EligibleForHardDelete reports whether id has sat quarantined for at least
// the retention window. Missing or unparsable timestamps are never eligible.
func (s *State) EligibleForHardDelete(id string, retentionDays int, now time.Time) bool {
	ts, ok := s.CandidateDeletes[id]
	if !ok || ts == "" {
		return false
	}
	qt, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return false
	}
	return now.UTC().Sub(qt) >= time.Duration(retentionDays)*24*time.Hour
}
