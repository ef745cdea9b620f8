package journal

import (
	"encoding/json"
	"fmt"
	"os/user"
	"time"
)

// UserLookup resolves the identity of the user running the process.
type UserLookup func() (*Operator, error)

// CurrentUser resolves the operator from the process's current user
func CurrentUser() (*Operator, error) {
	u, err := user.Current()
	if err != nil {
		return nil, err
	}
	return &Operator{
		Username: u.Username,
		UID:      u.Uid,
		Name:     u.Name,
		HomeDir:  u.HomeDir,
	}, nil
}

// Builder folds a stream of per-host task events into one Journal.
// It is not safe for concurrent use; events arrive from a single caller.
type Builder struct {
	journal    *Journal
	now        func() time.Time
	lookupUser UserLookup
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithClock overrides the time source
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) { b.now = now }
}

// WithUserLookup overrides how the operator identity is resolved
func WithUserLookup(lookup UserLookup) BuilderOption {
	return func(b *Builder) { b.lookupUser = lookup }
}

// NewBuilder starts a new journal
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		now:        func() time.Time { return time.Now().UTC() },
		lookupUser: CurrentUser,
	}
	for _, opt := range opts {
		opt(b)
	}
	created := b.now()
	b.journal = NewJournal(GenerateID(created), created)
	return b
}

// Journal returns the journal under construction
func (b *Builder) Journal() *Journal {
	return b.journal
}

// RegisterHost ensures a record exists for host. Idempotent.
func (b *Builder) RegisterHost(host string) *HostRecord {
	rec, _ := b.journal.Hosts.Ensure(NormalizeHost(host))
	return rec
}

// RecordSuccess appends a successful task entry for host.
// The returned error is always a *BuildError and never prevents recording.
func (b *Builder) RecordSuccess(host string, raw json.RawMessage) (TaskEntry, error) {
	return b.record(host, raw, OutcomeOK)
}

// RecordFailure appends a failed task entry for host.
// The returned error is always a *BuildError and never prevents recording.
func (b *Builder) RecordFailure(host string, raw json.RawMessage) (TaskEntry, error) {
	return b.record(host, raw, OutcomeFailed)
}

func (b *Builder) record(host string, raw json.RawMessage, outcome Outcome) (TaskEntry, error) {
	// Unregistered hosts are registered implicitly.
	rec := b.RegisterHost(host)

	stored, normErr := normalizeRaw(raw)
	entry := TaskEntry{
		Timestamp: b.now(),
		Outcome:   outcome,
		Module:    ModuleName(stored),
		Raw:       stored,
	}
	if outcome == OutcomeOK && IsPackageProducer(entry.Module) {
		entry.Structured = Classify(entry.Module, ResultLines(stored))
	}
	entry = rec.appendTask(entry)

	if normErr != nil {
		return entry, &BuildError{Host: rec.Name, Err: normErr}
	}
	return entry, nil
}

// CaptureOperator sets the journal operator from the current user.
// Once set, later calls are no-ops.
func (b *Builder) CaptureOperator() error {
	if b.journal.Operator != nil {
		return nil
	}
	op, err := b.lookupUser()
	if err != nil {
		return &BuildError{Err: fmt.Errorf("resolve operator: %w", err)}
	}
	b.journal.Operator = op
	return nil
}

// CaptureEnvironment stores the environment found in a facts payload.
// Last write wins.
func (b *Builder) CaptureEnvironment(host string, raw json.RawMessage) error {
	env, ok := FactsEnvironment(raw)
	if !ok {
		return &BuildError{Host: NormalizeHost(host), Err: fmt.Errorf("no ansible_facts in facts payload")}
	}
	stored, err := normalizeRaw(env)
	if err != nil {
		return &BuildError{Host: NormalizeHost(host), Err: err}
	}
	b.journal.Environment = stored
	return nil
}

// SetSummary attaches the engine's end-of-run summary payload
func (b *Builder) SetSummary(raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	if stored, err := normalizeRaw(raw); err == nil {
		b.journal.Summary = stored
	}
}
