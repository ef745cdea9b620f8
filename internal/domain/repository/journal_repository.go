package repository

import (
	"context"
	"time"

	"github.com/YoshitsuguKoike/auditjournal/internal/domain/model/journal"
)

// CacheRecord is one durably stored, encoded journal
type CacheRecord struct {
	ID       int64     // Store-assigned, strictly increasing, never reused
	StoredAt time.Time // Time of the store write (not the run start)
	Payload  []byte    // Encoded journal, opaque to the store
}

// JournalCacheRepository is the append-only local store of finished journals.
// There is deliberately no update or delete.
type JournalCacheRepository interface {
	// Append encodes and commits the journal, returning its new id
	Append(ctx context.Context, j *journal.Journal) (int64, error)

	// List returns all committed records in ascending id order
	List(ctx context.Context) ([]*CacheRecord, error)

	// ListSince returns committed records with id greater than afterID
	ListSince(ctx context.Context, afterID int64) ([]*CacheRecord, error)

	// Get returns a single record, or nil if no record has that id
	Get(ctx context.Context, id int64) (*CacheRecord, error)
}
