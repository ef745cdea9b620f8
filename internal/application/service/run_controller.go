package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/YoshitsuguKoike/auditjournal/internal/app"
	"github.com/YoshitsuguKoike/auditjournal/internal/application/port/output"
	"github.com/YoshitsuguKoike/auditjournal/internal/domain/model/journal"
	"github.com/YoshitsuguKoike/auditjournal/internal/domain/repository"
)

// RunState is the lifecycle state of the journal owned by a RunController
type RunState string

const (
	StateCollecting RunState = "collecting" // Events fold into the journal
	StateFinalizing RunState = "finalizing" // Store then deliver in progress
	StateDone       RunState = "done"       // Terminal for this journal
)

// RunControllerConfig holds configuration for the run controller
type RunControllerConfig struct {
	// PerTaskFinalize finalizes after every successful task while no run
	// boundary has been announced (legacy single-task invocations).
	PerTaskFinalize bool
}

// FinalizeReport describes one finalization
type FinalizeReport struct {
	RecordID int64
	Delivery output.DeliveryResult
}

// RunController drives one run's journal from the first event to storage
// and delivery. Events must be delivered from a single goroutine.
type RunController struct {
	builder   *journal.Builder
	store     repository.JournalCacheRepository
	collector output.CollectorGateway
	logger    app.Logger
	config    RunControllerConfig

	state       RunState
	runBoundary bool
	unsaved     bool
	reports     []FinalizeReport
}

// NewRunController creates a controller in the Collecting state
func NewRunController(
	builder *journal.Builder,
	store repository.JournalCacheRepository,
	collector output.CollectorGateway,
	logger app.Logger,
	config RunControllerConfig,
) *RunController {
	if logger == nil {
		logger = app.NopLogger()
	}
	return &RunController{
		builder:   builder,
		store:     store,
		collector: collector,
		logger:    logger,
		config:    config,
		state:     StateCollecting,
		unsaved:   true,
	}
}

// State returns the current lifecycle state
func (c *RunController) State() RunState {
	return c.state
}

// Journal returns the journal being collected
func (c *RunController) Journal() *journal.Journal {
	return c.builder.Journal()
}

// Unsaved reports whether the journal holds events that no finalization
// has stored yet. A controller that never finalized is always unsaved.
func (c *RunController) Unsaved() bool {
	return c.unsaved
}

// Reports returns the finalizations performed so far
func (c *RunController) Reports() []FinalizeReport {
	return append([]FinalizeReport(nil), c.reports...)
}

// OnHostTaskFailed registers the host and records a failure
func (c *RunController) OnHostTaskFailed(ctx context.Context, host string, result json.RawMessage) error {
	if !c.accepting("task_failed") {
		return nil
	}
	c.unsaved = true
	c.builder.RegisterHost(host)
	if _, err := c.builder.RecordFailure(host, result); err != nil {
		c.logBuildError(err)
	}
	return nil
}

// OnHostTaskOK registers the host, resolves the operator on first success,
// captures the environment from facts-gathering tasks and records a success.
// It only returns an error when per-task finalization fails to store.
func (c *RunController) OnHostTaskOK(ctx context.Context, host string, result json.RawMessage) error {
	if !c.accepting("task_ok") {
		return nil
	}
	c.unsaved = true
	c.builder.RegisterHost(host)
	if err := c.builder.CaptureOperator(); err != nil {
		c.logBuildError(err)
	}
	if journal.IsFactsGathering(result) {
		if err := c.builder.CaptureEnvironment(host, result); err != nil {
			c.logBuildError(err)
		}
	}
	if _, err := c.builder.RecordSuccess(host, result); err != nil {
		c.logBuildError(err)
	}

	if !c.runBoundary && c.config.PerTaskFinalize {
		_, err := c.finalize(ctx, StateCollecting)
		return err
	}
	return nil
}

// OnRunBoundaryStart marks the run as multi-step: only OnRunEnd finalizes
func (c *RunController) OnRunBoundaryStart() {
	if !c.accepting("run_start") {
		return
	}
	c.runBoundary = true
}

// OnRunEnd attaches the engine's summary and finalizes the journal.
// The only error it returns is a *journal.StoreError.
func (c *RunController) OnRunEnd(ctx context.Context, summary json.RawMessage) (*FinalizeReport, error) {
	if !c.accepting("run_end") {
		return nil, nil
	}
	c.builder.SetSummary(summary)
	return c.finalize(ctx, StateDone)
}

// finalize stores the journal and then offers a copy to the collector.
// next is the state entered after a successful store.
func (c *RunController) finalize(ctx context.Context, next RunState) (*FinalizeReport, error) {
	c.state = StateFinalizing
	j := c.builder.Journal()

	id, err := c.store.Append(ctx, j)
	if err != nil {
		c.state = StateDone
		var storeErr *journal.StoreError
		if !errors.As(err, &storeErr) {
			storeErr = &journal.StoreError{Op: "append", Err: err}
		}
		c.logger.Error("journal %s could not be stored: %v", j.ID, storeErr)
		return nil, storeErr
	}
	c.logger.Debug("journal %s stored as record %d", j.ID, id)

	c.unsaved = false

	report := FinalizeReport{RecordID: id, Delivery: c.deliver(ctx, j, id)}
	c.reports = append(c.reports, report)
	c.state = next
	return &report, nil
}

// deliver never fails the run: the journal is already durable.
func (c *RunController) deliver(ctx context.Context, j *journal.Journal, id int64) output.DeliveryResult {
	snapshot, err := journal.Clone(j)
	if err != nil {
		c.logger.Warn("journal %s (record %d) not delivered: snapshot failed: %v", j.ID, id, err)
		return output.DeliveryResult{
			Status: output.DeliveryFailed,
			Err:    &journal.DeliveryError{Err: err},
		}
	}

	result := c.collector.Send(ctx, snapshot)
	switch result.Status {
	case output.DeliveryDelivered:
		c.logger.Info("journal %s (record %d) delivered", j.ID, id)
	case output.DeliverySkipped:
		c.logger.Debug("journal %s (record %d) kept locally: no collector configured", j.ID, id)
	default:
		c.logger.Warn("journal %s could not be delivered, kept in local store as record %d: %v", j.ID, id, result.Err)
	}
	return result
}

func (c *RunController) accepting(event string) bool {
	if c.state == StateCollecting {
		return true
	}
	c.logger.Debug("ignoring %s event: run is %s", event, c.state)
	return false
}

func (c *RunController) logBuildError(err error) {
	c.logger.Debug("journal build: %v", err)
}
