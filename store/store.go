package store

import (
	"time"

	apperrors "github.com/hrygo/remindme/internal/errors"
	"github.com/hrygo/remindme/internal/profile"
	"github.com/hrygo/remindme/server/timezone"
)

// Store provides database access to firing records.
// It is safe for concurrent use.
type Store struct {
	profile  *profile.Profile
	driver   Driver
	location *time.Location
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:   driver,
		profile:  profile,
		location: profile.Location(),
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

// Location returns the civil timezone the due query is evaluated in.
func (s *Store) Location() *time.Location {
	return s.location
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) dueCondition(now time.Time) *FindDueFiringRecord {
	return &FindDueFiringRecord{
		NowTs:       now.Unix(),
		DayOfWeek:   timezone.ISOWeekday(now, s.location),
		MinuteOfDay: timezone.MinutesOfDay(now, s.location),
		DayStartTs:  timezone.StartOfDay(now, s.location).Unix(),
	}
}

func wrapUnavailable(err error, msg string) error {
	return apperrors.StoreUnavailable(msg, err)
}

func errInvalidRecord(r *FiringRecord) error {
	return apperrors.InvalidArgument("firing record violates the kind invariant").
		WithContext("kind", r.Kind)
}
