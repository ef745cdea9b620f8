package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/YoshitsuguKoike/auditjournal/internal/domain/model/journal"
	"github.com/YoshitsuguKoike/auditjournal/internal/domain/repository"
)

// storedAtLayout is the text format of journal_cache.stored_at
const storedAtLayout = time.RFC3339Nano

// JournalCacheRepositoryImpl implements JournalCacheRepository using SQLite
type JournalCacheRepositoryImpl struct {
	db  *sql.DB
	now func() time.Time
}

// NewJournalCacheRepository creates a new JournalCacheRepository implementation
func NewJournalCacheRepository(db *sql.DB) *JournalCacheRepositoryImpl {
	return &JournalCacheRepositoryImpl{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Append encodes the journal and commits it as a new row
func (r *JournalCacheRepositoryImpl) Append(ctx context.Context, j *journal.Journal) (int64, error) {
	payload, err := journal.EncodePayload(j)
	if err != nil {
		return 0, &journal.StoreError{Op: "encode", Err: err}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &journal.StoreError{Op: "append", Err: fmt.Errorf("begin transaction: %w", err)}
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO journal_cache (stored_at, payload) VALUES (?, ?)`,
		r.now().UTC().Format(storedAtLayout), payload,
	)
	if err != nil {
		return 0, &journal.StoreError{Op: "append", Err: fmt.Errorf("insert: %w", err)}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &journal.StoreError{Op: "append", Err: fmt.Errorf("last insert id: %w", err)}
	}

	if err := tx.Commit(); err != nil {
		return 0, &journal.StoreError{Op: "append", Err: fmt.Errorf("commit: %w", err)}
	}
	return id, nil
}

// List returns all records in ascending id order
func (r *JournalCacheRepositoryImpl) List(ctx context.Context) ([]*repository.CacheRecord, error) {
	return r.ListSince(ctx, 0)
}

// ListSince returns records with id greater than afterID, ascending.
// A single SELECT reads one consistent snapshot of committed rows.
func (r *JournalCacheRepositoryImpl) ListSince(ctx context.Context, afterID int64) ([]*repository.CacheRecord, error) {
	query := `
		SELECT id, stored_at, payload
		FROM journal_cache
		WHERE id > ?
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, afterID)
	if err != nil {
		return nil, &journal.StoreError{Op: "list", Err: fmt.Errorf("query: %w", err)}
	}
	defer rows.Close()

	records := []*repository.CacheRecord{}
	for rows.Next() {
		rec, err := scanCacheRecord(rows)
		if err != nil {
			return nil, &journal.StoreError{Op: "list", Err: err}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &journal.StoreError{Op: "list", Err: fmt.Errorf("iterate: %w", err)}
	}
	return records, nil
}

// Get retrieves one record, nil if absent
func (r *JournalCacheRepositoryImpl) Get(ctx context.Context, id int64) (*repository.CacheRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, stored_at, payload FROM journal_cache WHERE id = ?`, id)

	rec, err := scanCacheRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &journal.StoreError{Op: "get", Err: err}
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCacheRecord(s rowScanner) (*repository.CacheRecord, error) {
	var (
		rec      repository.CacheRecord
		storedAt string
	)
	if err := s.Scan(&rec.ID, &storedAt, &rec.Payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan journal_cache row: %w", err)
	}
	t, err := time.Parse(storedAtLayout, storedAt)
	if err != nil {
		// Unparseable stored_at leaves a zero time; ordering is by id.
		t = time.Time{}
	}
	rec.StoredAt = t
	return &rec, nil
}

var _ repository.JournalCacheRepository = (*JournalCacheRepositoryImpl)(nil)
