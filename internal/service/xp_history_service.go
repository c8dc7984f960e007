package service

import (
	"context"
	"sync"
	"time"

	"lingo_xp/internal/domain"
	"lingo_xp/internal/logger"
)

// HistoryStore persists xp history records
type HistoryStore interface {
	Create(ctx context.Context, rec *domain.XPHistoryRecord) error
}

// XPHistoryService appends XP history off the request path. Records are queued
// and written by a single worker; a full queue or a failed insert drops the record
// and never fails the XP update that produced it.
type XPHistoryService struct {
	store   HistoryStore
	queue   chan domain.XPHistoryRecord
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewXPHistoryService starts the writer goroutine
func NewXPHistoryService(store HistoryStore, queueSize int) *XPHistoryService {
	if queueSize < 1 {
		queueSize = 1
	}
	s := &XPHistoryService{
		store:   store,
		queue:   make(chan domain.XPHistoryRecord, queueSize),
		timeout: 5 * time.Second,
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

// Record enqueues rec without blocking
func (s *XPHistoryService) Record(rec domain.XPHistoryRecord) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		XPHistoryDropped.Inc()
		return
	}

	select {
	case s.queue <- rec:
	default:
		XPHistoryDropped.Inc()
		logger.Warn("xp history queue full, dropping record", "user_id", rec.UserID, "source", rec.Source, "xp_amount", rec.Amount)
	}
}

// Close stops accepting records and waits until the queue is drained
func (s *XPHistoryService) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()
	<-s.done
}

func (s *XPHistoryService) run() {
	defer close(s.done)
	for rec := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		if err := s.store.Create(ctx, &rec); err != nil {
			XPHistoryDropped.Inc()
			logger.Error("failed to write xp history", "error", err, "user_id", rec.UserID, "source", rec.Source)
		}
		cancel()
	}
}
