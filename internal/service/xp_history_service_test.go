package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"lingo_xp/internal/domain"

	"github.com/stretchr/testify/assert"
)

type memHistoryStore struct {
	mu      sync.Mutex
	records []domain.XPHistoryRecord
	fail    bool
	block   chan struct{}
}

func (m *memHistoryStore) Create(ctx context.Context, rec *domain.XPHistoryRecord) error {
	if m.block != nil {
		<-m.block
	}
	if m.fail {
		return errors.New("insert failed")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, *rec)
	return nil
}

func TestXPHistoryService_WritesInOrder(t *testing.T) {
	store := &memHistoryStore{}
	s := NewXPHistoryService(store, 16)

	for i := int64(1); i <= 5; i++ {
		s.Record(domain.XPHistoryRecord{UserID: "u", Amount: i})
	}
	s.Close()

	assert.Len(t, store.records, 5)
	for i, rec := range store.records {
		assert.Equal(t, int64(i+1), rec.Amount)
	}
}

func TestXPHistoryService_FailuresAreSwallowed(t *testing.T) {
	s := NewXPHistoryService(&memHistoryStore{fail: true}, 4)
	s.Record(domain.XPHistoryRecord{UserID: "u", Amount: 1})
	s.Close()
}

func TestXPHistoryService_FullQueueDoesNotBlock(t *testing.T) {
	store := &memHistoryStore{block: make(chan struct{})}
	s := NewXPHistoryService(store, 1)

	for i := 0; i < 10; i++ {
		s.Record(domain.XPHistoryRecord{UserID: "u", Amount: int64(i)})
	}
	close(store.block)
	s.Close()

	assert.Less(t, len(store.records), 10)
}

func TestXPHistoryService_RecordAfterClose(t *testing.T) {
	s := NewXPHistoryService(&memHistoryStore{}, 1)
	s.Close()
	s.Record(domain.XPHistoryRecord{UserID: "u"})
	s.Close()
}
