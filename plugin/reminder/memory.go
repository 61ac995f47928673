package reminder

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hrygo/remindme/server/timezone"
	"github.com/hrygo/remindme/store"
)

// MemoryStore is an in-memory FiringStore for testing.
// It evaluates the same due predicate as the SQL drivers.
type MemoryStore struct {
	records  map[int64]*store.FiringRecord
	nextID   int64
	location *time.Location
	failNext error
	mu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory store evaluating days in loc.
func NewMemoryStore(loc *time.Location) *MemoryStore {
	if loc == nil {
		loc = time.UTC
	}
	return &MemoryStore{
		records:  make(map[int64]*store.FiringRecord),
		location: loc,
	}
}

// Add stores copies of records and returns their ids.
func (s *MemoryStore) Add(records ...*store.FiringRecord) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(records))
	for _, r := range records {
		s.nextID++
		cp := *r
		cp.ID = s.nextID
		s.records[cp.ID] = &cp
		ids = append(ids, cp.ID)
	}
	return ids
}

// Get returns a copy of a record.
func (s *MemoryStore) Get(id int64) (*store.FiringRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, false
	}
	cp := *r
	return &cp, true
}

// FailNext makes the next store call return err.
func (s *MemoryStore) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

func (s *MemoryStore) takeFailure() error {
	err := s.failNext
	s.failNext = nil
	return err
}

// ListDueFiringRecords implements FiringStore.
func (s *MemoryStore) ListDueFiringRecords(_ context.Context, now time.Time) ([]*store.FiringRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return nil, err
	}

	dow := timezone.ISOWeekday(now, s.location)
	minute := timezone.MinutesOfDay(now, s.location)
	dayStart := timezone.StartOfDay(now, s.location).Unix()

	due := make([]*store.FiringRecord, 0)
	for _, r := range s.records {
		if r.Consumed {
			continue
		}
		switch r.Kind {
		case store.FiringKindAbsolute:
			if *r.FiresTs < now.Unix() {
				cp := *r
				due = append(due, &cp)
			}
		case store.FiringKindRecurrent:
			m, _ := r.MinuteOfDay()
			if *r.DayOfWeek == dow && m < minute && (r.LastFiredTs == nil || *r.LastFiredTs < dayStart) {
				cp := *r
				due = append(due, &cp)
			}
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	return due, nil
}

// ConsumeFiringRecords implements FiringStore.
func (s *MemoryStore) ConsumeFiringRecords(_ context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	for _, id := range ids {
		if r, ok := s.records[id]; ok {
			r.Consumed = true
		}
	}
	return nil
}

// AcknowledgeFiringRecords implements FiringStore.
func (s *MemoryStore) AcknowledgeFiringRecords(_ context.Context, ids []int64, firedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	ts := firedAt.Unix()
	for _, id := range ids {
		if r, ok := s.records[id]; ok && r.Kind == store.FiringKindRecurrent {
			r.LastFiredTs = &ts
		}
	}
	return nil
}

// SentMessage is a delivery recorded by MockNotifier.
type SentMessage struct {
	ChatID int64
	Text   string
	SentAt time.Time
}

// MockNotifier records deliveries for testing.
type MockNotifier struct {
	SentMessages []SentMessage
	ShouldFail   bool
	// FailFor fails deliveries to the listed chats only.
	FailFor map[int64]bool
	mu      sync.Mutex
}

// NewMockNotifier creates a new mock notifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{
		SentMessages: make([]SentMessage, 0),
		FailFor:      make(map[int64]bool),
	}
}

// Send records a sent message.
func (n *MockNotifier) Send(_ context.Context, chatID int64, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.ShouldFail || n.FailFor[chatID] {
		return fmt.Errorf("mock notifier failure")
	}

	n.SentMessages = append(n.SentMessages, SentMessage{
		ChatID: chatID,
		Text:   text,
		SentAt: time.Now(),
	})
	return nil
}

// GetSentCount returns the number of messages sent.
func (n *MockNotifier) GetSentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.SentMessages)
}

// SetFailFor toggles failures for one chat.
func (n *MockNotifier) SetFailFor(chatID int64, fail bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.FailFor[chatID] = fail
}
