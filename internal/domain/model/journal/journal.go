// Package journal models the audit record of one orchestration run: the
// journal itself, its per-host records and their ordered task entries.
package journal

import (
	"encoding/json"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// UnknownHost is the key used for events that carry no host identifier.
const UnknownHost = "unknown"

// Journal is the structured audit record for one orchestration run.
type Journal struct {
	ID          string          `json:"id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	Operator    *Operator       `json:"operator,omitempty"`
	Environment json.RawMessage `json:"environment,omitempty"`
	Hosts       *HostMap        `json:"hosts"`
	Summary     json.RawMessage `json:"summary,omitempty"`
}

// NewJournal creates an empty journal stamped with the run start time
func NewJournal(id string, createdAt time.Time) *Journal {
	return &Journal{
		ID:        id,
		CreatedAt: createdAt,
		Hosts:     NewHostMap(),
	}
}

// Totals returns the number of successes and failures across all hosts
func (j *Journal) Totals() (successes, failures int) {
	if j.Hosts == nil {
		return 0, 0
	}
	for _, h := range j.Hosts.Records() {
		successes += h.SuccessCount
		failures += h.FailureCount
	}
	return successes, failures
}

// HostCount returns the number of hosts touched by the run
func (j *Journal) HostCount() int {
	if j.Hosts == nil {
		return 0
	}
	return j.Hosts.Len()
}

// Operator identifies the user who initiated the run.
type Operator struct {
	Username string `json:"username"`
	UID      string `json:"uid,omitempty"`
	Name     string `json:"name,omitempty"`
	HomeDir  string `json:"home_dir,omitempty"`
}

// HostRecord aggregates the outcomes of one host within a journal.
type HostRecord struct {
	Name         string      `json:"name"`
	SuccessCount int         `json:"success_count"`
	FailureCount int         `json:"failure_count"`
	Tasks        []TaskEntry `json:"tasks"`
}

func newHostRecord(name string) *HostRecord {
	return &HostRecord{Name: name, Tasks: []TaskEntry{}}
}

// appendTask numbers the entry from the current length, appends it and
// bumps the counter matching its outcome.
func (h *HostRecord) appendTask(entry TaskEntry) TaskEntry {
	entry.Position = len(h.Tasks) + 1
	h.Tasks = append(h.Tasks, entry)
	if entry.Outcome == OutcomeFailed {
		h.FailureCount++
	} else {
		h.SuccessCount++
	}
	return entry
}

// Outcome is the observed result of one task on one host.
type Outcome string

const (
	OutcomeOK     Outcome = "ok"
	OutcomeFailed Outcome = "failed"
)

// TaskEntry is one recorded task outcome for a host. Raw always holds the
// orchestration engine's payload, compacted but otherwise unchanged;
// Structured is an optional overlay added when a known producer was recognized.
type TaskEntry struct {
	Timestamp  time.Time       `json:"timestamp"`
	Position   int             `json:"position"`
	Outcome    Outcome         `json:"outcome"`
	Module     string          `json:"module"`
	Raw        json.RawMessage `json:"raw_result"`
	Structured *Classification `json:"structured,omitempty"`
}

// NormalizeHost returns the canonical key for a host identifier
func NormalizeHost(host string) string {
	h := strings.TrimSpace(norm.NFC.String(host))
	if h == "" {
		return UnknownHost
	}
	return h
}
