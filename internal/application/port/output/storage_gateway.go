package output

import (
	"context"
	"time"
)

// ArchiveGateway copies stored journals to long-term storage
// Supports both local filesystem and cloud storage (S3)
type ArchiveGateway interface {
	// SaveJournal writes one journal document, keyed by its store id.
	// Saving the same record twice overwrites the previous copy.
	SaveJournal(ctx context.Context, req SaveJournalRequest) (*ArchiveMetadata, error)

	// ListArchived lists archived journals in ascending record id order
	ListArchived(ctx context.Context) ([]*ArchiveMetadata, error)
}

// SaveJournalRequest represents a request to archive one journal
type SaveJournalRequest struct {
	RecordID  int64             // Store id of the cache record
	StoredAt  time.Time         // Store write time of the cache record
	JournalID string            // Journal id assigned at run start
	Content   []byte            // JSON document of the journal
	Metadata  map[string]string // Additional metadata
}

// ArchiveMetadata contains information about an archived journal
type ArchiveMetadata struct {
	RecordID    int64     // Store id of the cache record
	JournalID   string    // Journal id assigned at run start
	StoragePath string    // Storage path (e.g., s3://bucket/key)
	Size        int64     // Size in bytes
	ArchivedAt  time.Time // Upload timestamp
}
