// Package reminder runs the firing loop: it finds due firing records, delivers
// them to their owners and retires what was delivered.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hrygo/remindme/store"
)

// FiringStore is the part of the record store the firing loop needs.
type FiringStore interface {
	ListDueFiringRecords(ctx context.Context, now time.Time) ([]*store.FiringRecord, error)
	ConsumeFiringRecords(ctx context.Context, ids []int64) error
	AcknowledgeFiringRecords(ctx context.Context, ids []int64, firedAt time.Time) error
}

// Notifier delivers a reminder text to a chat.
type Notifier interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// CycleResult summarizes one firing cycle.
type CycleResult struct {
	Due       int
	Delivered int
	Failed    int
}

// Service processes due firing records.
type Service struct {
	store    FiringStore
	notifier Notifier
	metrics  *MetricsCollector
	now      func() time.Time
	logger   *slog.Logger
	mu       sync.Mutex
}

// NewService creates a new firing service.
func NewService(store FiringStore, notifier Notifier) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		metrics:  NewMetricsCollector(),
		now:      time.Now,
		logger:   slog.Default(),
	}
}

// SetLogger sets a custom logger.
func (s *Service) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Metrics returns the collector fed by ProcessDue.
func (s *Service) Metrics() *MetricsCollector {
	return s.metrics
}

// ProcessDue delivers every due record once.
//
// Delivered absolute records are consumed and delivered recurrent records are
// acknowledged for the current day. Records whose delivery failed stay due and
// are retried on the next cycle. A crash between delivery and retirement
// delivers again, so delivery is at-least-once.
func (s *Service) ProcessDue(ctx context.Context) (CycleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	now := s.now()

	records, err := s.store.ListDueFiringRecords(ctx, now)
	if err != nil {
		s.metrics.RecordCycle(time.Since(start), err)
		return CycleResult{}, fmt.Errorf("failed to list due records: %w", err)
	}

	result := CycleResult{Due: len(records)}
	var consumed, acknowledged []int64
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			break
		}
		if err := s.deliver(ctx, r); err != nil {
			result.Failed++
			s.logger.Warn("failed to deliver reminder",
				"record_id", r.ID,
				"chat_id", r.OwnerID,
				"error", err,
			)
			continue
		}
		result.Delivered++
		switch r.Kind {
		case store.FiringKindRecurrent:
			acknowledged = append(acknowledged, r.ID)
		default:
			consumed = append(consumed, r.ID)
		}
	}

	var retireErr error
	if err := s.store.ConsumeFiringRecords(ctx, consumed); err != nil {
		retireErr = fmt.Errorf("failed to consume delivered records: %w", err)
	}
	if err := s.store.AcknowledgeFiringRecords(ctx, acknowledged, now); err != nil && retireErr == nil {
		retireErr = fmt.Errorf("failed to acknowledge delivered records: %w", err)
	}

	s.metrics.RecordProcessed(result.Delivered)
	s.metrics.RecordFailed(result.Failed)
	s.metrics.RecordCycle(time.Since(start), retireErr)

	return result, retireErr
}

func (s *Service) deliver(ctx context.Context, r *store.FiringRecord) error {
	if s.notifier == nil {
		return fmt.Errorf("notifier not configured")
	}
	return s.notifier.Send(ctx, r.OwnerID, r.Text)
}
