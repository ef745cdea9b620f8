package mock

import (
	"context"
	"sync"
	"time"

	"github.com/YoshitsuguKoike/auditjournal/internal/domain/model/journal"
	"github.com/YoshitsuguKoike/auditjournal/internal/domain/repository"
)

// MockJournalCacheRepository is an in-memory JournalCacheRepository
type MockJournalCacheRepository struct {
	mu      sync.RWMutex
	records []*repository.CacheRecord
	nextID  int64

	// AppendErr, when set, is returned by every Append
	AppendErr error
}

// NewMockJournalCacheRepository creates a new mock journal cache repository
func NewMockJournalCacheRepository() *MockJournalCacheRepository {
	return &MockJournalCacheRepository{nextID: 1}
}

func (m *MockJournalCacheRepository) Append(ctx context.Context, j *journal.Journal) (int64, error) {
	if m.AppendErr != nil {
		return 0, m.AppendErr
	}
	payload, err := journal.EncodePayload(j)
	if err != nil {
		return 0, err
	}
	return m.AppendRaw(payload), nil
}

// AppendRaw stores an arbitrary payload, bypassing encoding
func (m *MockJournalCacheRepository) AppendRaw(payload []byte) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.records = append(m.records, &repository.CacheRecord{
		ID:       id,
		StoredAt: time.Now().UTC(),
		Payload:  append([]byte(nil), payload...),
	})
	return id
}

func (m *MockJournalCacheRepository) List(ctx context.Context) ([]*repository.CacheRecord, error) {
	return m.ListSince(ctx, 0)
}

func (m *MockJournalCacheRepository) ListSince(ctx context.Context, afterID int64) ([]*repository.CacheRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*repository.CacheRecord, 0, len(m.records))
	for _, r := range m.records {
		if r.ID > afterID {
			c := *r
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *MockJournalCacheRepository) Get(ctx context.Context, id int64) (*repository.CacheRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.records {
		if r.ID == id {
			c := *r
			return &c, nil
		}
	}
	return nil, nil
}

// Len returns the number of stored records
func (m *MockJournalCacheRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
