// Package replay reads stored journals back for listings, exports, blame
// reconstruction, re-delivery and archiving. It never modifies the store.
package replay

import (
	"context"
	"errors"
	"fmt"

	"github.com/YoshitsuguKoike/auditjournal/internal/app"
	"github.com/YoshitsuguKoike/auditjournal/internal/application/dto"
	"github.com/YoshitsuguKoike/auditjournal/internal/application/port/output"
	"github.com/YoshitsuguKoike/auditjournal/internal/domain/model/journal"
	"github.com/YoshitsuguKoike/auditjournal/internal/domain/repository"
)

// ErrRecordNotFound is returned when a requested record id is not in the store
var ErrRecordNotFound = errors.New("record not found")

// UseCase implements the Query/Replay engine over the journal cache
type UseCase struct {
	repo   repository.JournalCacheRepository
	logger app.Logger
}

// NewUseCase creates a new replay use case
func NewUseCase(repo repository.JournalCacheRepository, logger app.Logger) *UseCase {
	if logger == nil {
		logger = app.NopLogger()
	}
	return &UseCase{repo: repo, logger: logger}
}

// decodedRecord pairs a cache record with its decoded journal
type decodedRecord struct {
	record  *repository.CacheRecord
	journal *journal.Journal
}

// load lists records after afterID and decodes them. Records that fail to
// decode are skipped and reported; they never abort the listing.
func (u *UseCase) load(ctx context.Context, afterID int64) ([]decodedRecord, []dto.SkippedRecordDTO, error) {
	records, err := u.repo.ListSince(ctx, afterID)
	if err != nil {
		return nil, nil, err
	}

	decoded := make([]decodedRecord, 0, len(records))
	var skipped []dto.SkippedRecordDTO
	for _, rec := range records {
		j, err := journal.DecodePayload(rec.Payload)
		if err != nil {
			var decodeErr *journal.DecodeError
			if errors.As(err, &decodeErr) {
				decodeErr.RecordID = rec.ID
			}
			u.logger.Warn("skipping record %d: %v", rec.ID, err)
			skipped = append(skipped, dto.SkippedRecordDTO{RecordID: rec.ID, Reason: err.Error()})
			continue
		}
		decoded = append(decoded, decodedRecord{record: rec, journal: j})
	}
	return decoded, skipped, nil
}

// Summaries returns one row per decodable record in store order
func (u *UseCase) Summaries(ctx context.Context) (*dto.SummaryListResponse, error) {
	decoded, skipped, err := u.load(ctx, 0)
	if err != nil {
		return nil, err
	}

	resp := &dto.SummaryListResponse{Rows: make([]dto.JournalSummaryDTO, 0, len(decoded)), Skipped: skipped}
	for _, d := range decoded {
		successes, failures := d.journal.Totals()
		resp.Rows = append(resp.Rows, dto.JournalSummaryDTO{
			RecordID:  d.record.ID,
			StoredAt:  d.record.StoredAt,
			JournalID: d.journal.ID,
			CreatedAt: d.journal.CreatedAt,
			Hosts:     d.journal.HostCount(),
			Successes: successes,
			Failures:  failures,
		})
	}
	return resp, nil
}

// Records returns every decodable record with its store metadata
func (u *UseCase) Records(ctx context.Context) (*dto.RecordListResponse, error) {
	decoded, skipped, err := u.load(ctx, 0)
	if err != nil {
		return nil, err
	}

	resp := &dto.RecordListResponse{Records: make([]dto.JournalRecordDTO, 0, len(decoded)), Skipped: skipped}
	for _, d := range decoded {
		resp.Records = append(resp.Records, dto.JournalRecordDTO{
			RecordID: d.record.ID,
			StoredAt: d.record.StoredAt,
			Journal:  d.journal,
		})
	}
	return resp, nil
}

// Export returns every decodable journal in store order
func (u *UseCase) Export(ctx context.Context) (*dto.ExportResponse, error) {
	decoded, skipped, err := u.load(ctx, 0)
	if err != nil {
		return nil, err
	}

	resp := &dto.ExportResponse{Journals: make([]*journal.Journal, 0, len(decoded)), Skipped: skipped}
	for _, d := range decoded {
		resp.Journals = append(resp.Journals, d.journal)
	}
	return resp, nil
}

// Blame attributes every recorded task of host to the operator of its run.
// A host absent from every journal yields an empty result.
func (u *UseCase) Blame(ctx context.Context, host string) (*dto.BlameResponse, error) {
	decoded, skipped, err := u.load(ctx, 0)
	if err != nil {
		return nil, err
	}

	key := journal.NormalizeHost(host)
	resp := &dto.BlameResponse{Host: key, Records: []dto.BlameRecordDTO{}, Skipped: skipped}
	for _, d := range decoded {
		rec, ok := d.journal.Hosts.Get(key)
		if !ok {
			continue
		}
		resp.Records = append(resp.Records, dto.BlameRecordDTO{
			Host:      key,
			RecordID:  d.record.ID,
			StoredAt:  d.record.StoredAt,
			JournalID: d.journal.ID,
			Operator:  d.journal.Operator,
			Tasks:     blameTasks(rec),
		})
	}
	return resp, nil
}

func blameTasks(rec *journal.HostRecord) []dto.BlameTaskDTO {
	tasks := make([]dto.BlameTaskDTO, 0, len(rec.Tasks))
	for _, t := range rec.Tasks {
		module := t.Module
		if module == "" {
			module = journal.ModuleName(t.Raw)
		}
		bt := dto.BlameTaskDTO{
			Position:  t.Position,
			Module:    module,
			Outcome:   string(t.Outcome),
			Timestamp: t.Timestamp,
		}
		if changed, ok := journal.Changed(t.Raw); ok {
			bt.Changed = &changed
		}
		tasks = append(tasks, bt)
	}
	return tasks
}

// Resend re-attempts delivery of every stored journal with id > afterID.
// The store is not modified; delivery outcomes are only reported.
func (u *UseCase) Resend(ctx context.Context, collector output.CollectorGateway, afterID int64) (*dto.ResendResponse, error) {
	decoded, skipped, err := u.load(ctx, afterID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ResendResponse{Results: make([]dto.ResendResultDTO, 0, len(decoded)), Skipped: skipped}
	for _, d := range decoded {
		u.resendOne(ctx, collector, d, resp)
	}
	return resp, nil
}

// ResendRecord re-attempts delivery of the single record id. An id with no
// record yields ErrRecordNotFound; an undecodable record is reported as skipped.
func (u *UseCase) ResendRecord(ctx context.Context, collector output.CollectorGateway, id int64) (*dto.ResendResponse, error) {
	rec, err := u.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("record %d: %w", id, ErrRecordNotFound)
	}

	resp := &dto.ResendResponse{Results: []dto.ResendResultDTO{}}
	j, err := journal.DecodePayload(rec.Payload)
	if err != nil {
		u.logger.Warn("skipping record %d: %v", rec.ID, err)
		resp.Skipped = []dto.SkippedRecordDTO{{RecordID: rec.ID, Reason: err.Error()}}
		return resp, nil
	}
	u.resendOne(ctx, collector, decodedRecord{record: rec, journal: j}, resp)
	return resp, nil
}

func (u *UseCase) resendOne(ctx context.Context, collector output.CollectorGateway, d decodedRecord, resp *dto.ResendResponse) {
	result := collector.Send(ctx, d.journal)
	r := dto.ResendResultDTO{
		RecordID:   d.record.ID,
		Status:     string(result.Status),
		StatusCode: result.StatusCode,
	}
	switch result.Status {
	case output.DeliveryDelivered:
		resp.Delivered++
	case output.DeliveryFailed:
		resp.Failed++
		if result.Err != nil {
			r.Error = result.Err.Error()
		}
		u.logger.Warn("record %d could not be delivered: %v", d.record.ID, result.Err)
	}
	resp.Results = append(resp.Results, r)
}

// Archive copies every decodable journal to the archive gateway
func (u *UseCase) Archive(ctx context.Context, gateway output.ArchiveGateway) (*dto.ArchiveResponse, error) {
	decoded, skipped, err := u.load(ctx, 0)
	if err != nil {
		return nil, err
	}

	resp := &dto.ArchiveResponse{Results: make([]dto.ArchiveResultDTO, 0, len(decoded)), Skipped: skipped}
	for _, d := range decoded {
		content, err := journal.MarshalIndent(d.journal, "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal record %d: %w", d.record.ID, err)
		}
		meta, err := gateway.SaveJournal(ctx, output.SaveJournalRequest{
			RecordID:  d.record.ID,
			StoredAt:  d.record.StoredAt,
			JournalID: d.journal.ID,
			Content:   content,
		})
		if err != nil {
			u.logger.Warn("record %d could not be archived: %v", d.record.ID, err)
			resp.Results = append(resp.Results, dto.ArchiveResultDTO{RecordID: d.record.ID, Error: err.Error()})
			continue
		}
		resp.Archived++
		resp.Results = append(resp.Results, dto.ArchiveResultDTO{
			RecordID:    d.record.ID,
			StoragePath: meta.StoragePath,
			Size:        meta.Size,
		})
	}
	return resp, nil
}

// Archived lists what the archive gateway already holds, in record id order
func (u *UseCase) Archived(ctx context.Context, gateway output.ArchiveGateway) (*dto.ArchiveListResponse, error) {
	entries, err := gateway.ListArchived(ctx)
	if err != nil {
		return nil, fmt.Errorf("list archive: %w", err)
	}

	resp := &dto.ArchiveListResponse{Entries: make([]dto.ArchivedJournalDTO, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, dto.ArchivedJournalDTO{
			RecordID:    e.RecordID,
			JournalID:   e.JournalID,
			StoragePath: e.StoragePath,
			Size:        e.Size,
			ArchivedAt:  e.ArchivedAt,
		})
	}
	return resp, nil
}
