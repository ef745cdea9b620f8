package dto

import (
	"time"

	"github.com/YoshitsuguKoike/auditjournal/internal/domain/model/journal"
)

// JournalSummaryDTO is one row of the summary listing
type JournalSummaryDTO struct {
	RecordID  int64     `json:"id"`
	StoredAt  time.Time `json:"stored_at"`
	JournalID string    `json:"journal_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Hosts     int       `json:"hosts"`
	Successes int       `json:"successes"`
	Failures  int       `json:"failures"`
}

// JournalRecordDTO is a decoded cache record
type JournalRecordDTO struct {
	RecordID int64            `json:"id"`
	StoredAt time.Time        `json:"stored_at"`
	Journal  *journal.Journal `json:"journal"`
}

// SkippedRecordDTO identifies a cache record that could not be decoded
type SkippedRecordDTO struct {
	RecordID int64  `json:"id"`
	Reason   string `json:"reason"`
}

// SummaryListResponse is the result of a summary listing
type SummaryListResponse struct {
	Rows    []JournalSummaryDTO `json:"rows"`
	Skipped []SkippedRecordDTO  `json:"skipped,omitempty"`
}

// RecordListResponse is the result of a full listing
type RecordListResponse struct {
	Records []JournalRecordDTO `json:"records"`
	Skipped []SkippedRecordDTO `json:"skipped,omitempty"`
}

// ExportResponse holds every decodable journal in store order
type ExportResponse struct {
	Journals []*journal.Journal `json:"journals"`
	Skipped  []SkippedRecordDTO `json:"skipped,omitempty"`
}

// BlameTaskDTO attributes one task of a host
type BlameTaskDTO struct {
	Position  int       `json:"position"`
	Module    string    `json:"module"`
	Outcome   string    `json:"outcome"`
	Changed   *bool     `json:"changed,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// BlameRecordDTO attributes a host's outcomes in one run to its operator
type BlameRecordDTO struct {
	Host      string            `json:"host"`
	RecordID  int64             `json:"id"`
	StoredAt  time.Time         `json:"stored_at"`
	JournalID string            `json:"journal_id,omitempty"`
	Operator  *journal.Operator `json:"operator"`
	Tasks     []BlameTaskDTO    `json:"tasks"`
}

// BlameResponse is the result of a blame reconstruction
type BlameResponse struct {
	Host    string             `json:"host"`
	Records []BlameRecordDTO   `json:"records"`
	Skipped []SkippedRecordDTO `json:"skipped,omitempty"`
}

// ResendResultDTO is the outcome of re-delivering one cache record
type ResendResultDTO struct {
	RecordID   int64  `json:"id"`
	Status     string `json:"status"`
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ResendResponse is the result of a resend pass
type ResendResponse struct {
	Results   []ResendResultDTO  `json:"results"`
	Delivered int                `json:"delivered"`
	Failed    int                `json:"failed"`
	Skipped   []SkippedRecordDTO `json:"skipped,omitempty"`
}

// ArchiveResultDTO is the outcome of archiving one cache record
type ArchiveResultDTO struct {
	RecordID    int64  `json:"id"`
	StoragePath string `json:"storage_path,omitempty"`
	Size        int64  `json:"size"`
	Error       string `json:"error,omitempty"`
}

// ArchiveResponse is the result of an archive pass
type ArchiveResponse struct {
	Results  []ArchiveResultDTO `json:"results"`
	Archived int                `json:"archived"`
	Skipped  []SkippedRecordDTO `json:"skipped,omitempty"`
}

// ArchivedJournalDTO is one journal already present in an archive
type ArchivedJournalDTO struct {
	RecordID    int64     `json:"id"`
	JournalID   string    `json:"journal_id,omitempty"`
	StoragePath string    `json:"storage_path"`
	Size        int64     `json:"size"`
	ArchivedAt  time.Time `json:"archived_at"`
}

// ArchiveListResponse is the content listing of an archive
type ArchiveListResponse struct {
	Entries []ArchivedJournalDTO `json:"entries"`
}
