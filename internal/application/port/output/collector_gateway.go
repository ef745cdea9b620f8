package output

import (
	"context"
	"time"

	"github.com/YoshitsuguKoike/auditjournal/internal/domain/model/journal"
)

// CollectorGateway delivers finished journals to the remote collector.
// Send never returns an error: every outcome is reported in the result.
type CollectorGateway interface {
	Send(ctx context.Context, j *journal.Journal) DeliveryResult
}

// DeliveryStatus classifies a delivery attempt
type DeliveryStatus string

const (
	DeliveryDelivered DeliveryStatus = "delivered" // Collector answered 201
	DeliveryFailed    DeliveryStatus = "failed"    // Network error or any other status
	DeliverySkipped   DeliveryStatus = "skipped"   // No collector configured
)

// DeliveryResult is the outcome of one delivery attempt
type DeliveryResult struct {
	Status     DeliveryStatus
	StatusCode int                    // HTTP status, 0 when no response was received
	Err        *journal.DeliveryError // Set when Status is DeliveryFailed
	Elapsed    time.Duration
}

// Delivered reports whether the collector accepted the journal
func (r DeliveryResult) Delivered() bool {
	return r.Status == DeliveryDelivered
}
