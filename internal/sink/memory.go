package sink

import (
	"context"
	"sync"

	"github.com/law-makers/bizcrawl/pkg/models"
)

// MemoryStore keeps records in process memory
type MemoryStore struct {
	mu      sync.Mutex
	byURL   map[string]struct{}
	records []models.BusinessRecord
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byURL: make(map[string]struct{})}
}

func (m *MemoryStore) UpsertIfAbsent(ctx context.Context, rec models.BusinessRecord) (models.SinkOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec.Domain != nil {
		if _, ok := m.byURL[*rec.Domain]; ok {
			return models.OutcomeDuplicate, nil
		}
		m.byURL[*rec.Domain] = struct{}{}
	}
	m.records = append(m.records, rec)
	return models.OutcomeInserted, nil
}

func (m *MemoryStore) DeleteAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byURL = make(map[string]struct{})
	m.records = nil
	return nil
}

// Records returns a copy of the stored records in insertion order
func (m *MemoryStore) Records() []models.BusinessRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.BusinessRecord(nil), m.records...)
}

func (m *MemoryStore) Close() error { return nil }

// discardStore accepts and drops every record
type discardStore struct{}

// NewDiscardStore returns a Store that persists nothing
func NewDiscardStore() Store { return discardStore{} }

func (discardStore) UpsertIfAbsent(ctx context.Context, rec models.BusinessRecord) (models.SinkOutcome, error) {
	return models.OutcomeInserted, nil
}
func (discardStore) DeleteAll(ctx context.Context) error { return nil }
func (discardStore) Close() error                        { return nil }
