package store

import (
	"context"
	"time"
)

// FiringKind is the kind of a firing record.
type FiringKind string

const (
	// FiringKindAbsolute fires once at FiresTs.
	FiringKindAbsolute FiringKind = "absolute"
	// FiringKindRecurrent fires on DayOfWeek at Hour:Minute on the civil clock, every week.
	FiringKindRecurrent FiringKind = "recurrent"
)

// FiringRecord is one concrete delivery obligation.
//
// Absolute records have FiresTs set and the recurrence fields nil; recurrent
// records have DayOfWeek, Hour and Minute set and FiresTs nil.
type FiringRecord struct {
	ID        int64
	Kind      FiringKind
	OwnerID   int64
	Text      string
	CreatedTs int64

	// FiresTs is the unix time (UTC) of an absolute record.
	FiresTs *int64

	// DayOfWeek is the ISO weekday (Monday = 1) of a recurrent record.
	DayOfWeek *int
	Hour      *int
	Minute    *int
	// LastFiredTs is the last delivery of a recurrent record.
	LastFiredTs *int64

	Consumed bool
}

// FiresAt returns the firing instant of an absolute record.
func (r *FiringRecord) FiresAt() (time.Time, bool) {
	if r.FiresTs == nil {
		return time.Time{}, false
	}
	return time.Unix(*r.FiresTs, 0).UTC(), true
}

// MinuteOfDay returns hour*60+minute of a recurrent record.
func (r *FiringRecord) MinuteOfDay() (int, bool) {
	if r.Hour == nil || r.Minute == nil {
		return 0, false
	}
	return *r.Hour*60 + *r.Minute, true
}

// Valid reports whether the record satisfies the kind invariant.
func (r *FiringRecord) Valid() bool {
	switch r.Kind {
	case FiringKindAbsolute:
		return r.FiresTs != nil && r.DayOfWeek == nil && r.Hour == nil && r.Minute == nil
	case FiringKindRecurrent:
		if r.FiresTs != nil || r.DayOfWeek == nil || r.Hour == nil || r.Minute == nil {
			return false
		}
		return *r.DayOfWeek >= 1 && *r.DayOfWeek <= 7 &&
			*r.Hour >= 0 && *r.Hour <= 23 &&
			*r.Minute >= 0 && *r.Minute <= 59
	default:
		return false
	}
}

// FindFiringRecord is the find condition for firing records.
type FindFiringRecord struct {
	ID       *int64
	OwnerID  *int64
	Consumed *bool

	Limit  *int
	Offset *int
}

// FindDueFiringRecord carries the due predicate arguments, already evaluated
// on the civil calendar of the configured timezone.
type FindDueFiringRecord struct {
	// NowTs is compared against absolute records.
	NowTs int64
	// DayOfWeek is the ISO weekday of now.
	DayOfWeek int
	// MinuteOfDay is hour*60+minute of now.
	MinuteOfDay int
	// DayStartTs is the start of the civil day containing now.
	DayStartTs int64
}

// ConsumeFiringRecords marks records as delivered or cancelled.
type ConsumeFiringRecords struct {
	IDs []int64
}

// AcknowledgeFiringRecords stamps the last delivery of recurrent records.
type AcknowledgeFiringRecords struct {
	IDs     []int64
	FiredTs int64
}

// CreateFiringRecords inserts all records in one transaction and returns their ids in input order.
func (s *Store) CreateFiringRecords(ctx context.Context, records []*FiringRecord) ([]int64, error) {
	if len(records) == 0 {
		return []int64{}, nil
	}
	for _, r := range records {
		if !r.Valid() {
			return nil, errInvalidRecord(r)
		}
	}
	created, err := s.driver.CreateFiringRecords(ctx, records)
	if err != nil {
		return nil, wrapUnavailable(err, "failed to create firing records")
	}
	ids := make([]int64, 0, len(created))
	for _, r := range created {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// ListFiringRecords lists records with filter.
func (s *Store) ListFiringRecords(ctx context.Context, find *FindFiringRecord) ([]*FiringRecord, error) {
	list, err := s.driver.ListFiringRecords(ctx, find)
	if err != nil {
		return nil, wrapUnavailable(err, "failed to list firing records")
	}
	return list, nil
}

// GetFiringRecord gets a record by id.
func (s *Store) GetFiringRecord(ctx context.Context, id int64) (*FiringRecord, error) {
	list, err := s.ListFiringRecords(ctx, &FindFiringRecord{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// ListDueFiringRecords returns every non-consumed record that is due at now.
// No ordering is guaranteed.
func (s *Store) ListDueFiringRecords(ctx context.Context, now time.Time) ([]*FiringRecord, error) {
	list, err := s.driver.ListDueFiringRecords(ctx, s.dueCondition(now))
	if err != nil {
		return nil, wrapUnavailable(err, "failed to list due firing records")
	}
	return list, nil
}

// ConsumeFiringRecords soft-deletes the given ids. Unknown or already consumed ids are ignored.
func (s *Store) ConsumeFiringRecords(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.driver.ConsumeFiringRecords(ctx, &ConsumeFiringRecords{IDs: ids}); err != nil {
		return wrapUnavailable(err, "failed to consume firing records")
	}
	return nil
}

// AcknowledgeFiringRecords marks recurrent records as delivered for the civil day of firedAt.
func (s *Store) AcknowledgeFiringRecords(ctx context.Context, ids []int64, firedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	ack := &AcknowledgeFiringRecords{IDs: ids, FiredTs: firedAt.Unix()}
	if err := s.driver.AcknowledgeFiringRecords(ctx, ack); err != nil {
		return wrapUnavailable(err, "failed to acknowledge firing records")
	}
	return nil
}
