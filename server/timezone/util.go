// Package timezone provides the civil calendar helpers used by expansion and the due query.
//
// Firing instants are stored in UTC; day-of-week and time-of-day arithmetic happens on
// the civil calendar of the configured location.
package timezone

import (
	"fmt"
	"time"

	// Embedded tzdata so the configured zone resolves on hosts without zoneinfo.
	_ "time/tzdata"
)

var (
	// UTC is the coordinated universal time timezone
	UTC = time.UTC
)

// DefaultTimezone is the civil timezone used when none is configured.
const DefaultTimezone = "Asia/Jerusalem"

// ParseTimezone parses an IANA timezone identifier (e.g., "Europe/Berlin").
// If the timezone is invalid, returns UTC and an error.
func ParseTimezone(tz string) (*time.Location, error) {
	if tz == "" || tz == "UTC" {
		return UTC, nil
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return UTC, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}

	return loc, nil
}

// MustParseTimezone parses a timezone or panics if invalid.
func MustParseTimezone(tz string) *time.Location {
	loc, err := ParseTimezone(tz)
	if err != nil {
		panic(err)
	}
	return loc
}

// IsValidTimezone checks if a timezone identifier is valid.
func IsValidTimezone(tz string) bool {
	_, err := ParseTimezone(tz)
	return err == nil
}

// ToUserTimezone converts a Unix timestamp to the given timezone.
func ToUserTimezone(ts int64, tz *time.Location) time.Time {
	if tz == nil {
		tz = UTC
	}
	return time.Unix(ts, 0).In(tz)
}

// ISOWeekday returns the ISO weekday of t in tz: Monday = 1 ... Sunday = 7.
func ISOWeekday(t time.Time, tz *time.Location) int {
	if tz == nil {
		tz = UTC
	}
	wd := int(t.In(tz).Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// MinutesOfDay returns hour*60+minute of t on the civil clock of tz.
func MinutesOfDay(t time.Time, tz *time.Location) int {
	if tz == nil {
		tz = UTC
	}
	local := t.In(tz)
	return local.Hour()*60 + local.Minute()
}

// StartOfDay returns the start of the day (00:00:00) in the given timezone.
func StartOfDay(t time.Time, tz *time.Location) time.Time {
	if tz == nil {
		tz = UTC
	}
	local := t.In(tz)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, tz)
}
