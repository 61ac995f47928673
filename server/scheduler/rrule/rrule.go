// Package rrule renders recurrent firing records as iCalendar (RFC 5545)
// recurrence rules and computes their next occurrence.
package rrule

import (
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/remindme/store"
)

// Frequency represents the recurrence frequency.
type Frequency string

const (
	Daily  Frequency = "DAILY"
	Weekly Frequency = "WEEKLY"
)

// Weekday represents the day of week for recurrence.
type Weekday string

const (
	Monday    Weekday = "MO"
	Tuesday   Weekday = "TU"
	Wednesday Weekday = "WE"
	Thursday  Weekday = "TH"
	Friday    Weekday = "FR"
	Saturday  Weekday = "SA"
	Sunday    Weekday = "SU"
)

// isoWeekdays maps ISO day numbers (Monday=1..Sunday=7) to RRULE codes.
var isoWeekdays = [...]Weekday{1: Monday, 2: Tuesday, 3: Wednesday, 4: Thursday, 5: Friday, 6: Saturday, 7: Sunday}

// FromISO returns the RRULE code of an ISO weekday.
func FromISO(day int) (Weekday, error) {
	if day < 1 || day > 7 {
		return "", fmt.Errorf("invalid iso weekday %d", day)
	}
	return isoWeekdays[day], nil
}

// ISO returns the ISO day number of the weekday, or 0 if unknown.
func (d Weekday) ISO() int {
	for i, w := range isoWeekdays {
		if w == d && i > 0 {
			return i
		}
	}
	return 0
}

// Rule is a weekly or daily recurrence at fixed times of day.
type Rule struct {
	Frequency Frequency // FREQ
	ByDay     []Weekday // BYDAY
	ByHour    []int     // BYHOUR
	ByMinute  []int     // BYMINUTE
}

// FromRecord builds the rule of a recurrent firing record.
func FromRecord(r *store.FiringRecord) (*Rule, error) {
	if r.Kind != store.FiringKindRecurrent || r.DayOfWeek == nil || r.Hour == nil || r.Minute == nil {
		return nil, fmt.Errorf("record %d is not recurrent", r.ID)
	}
	day, err := FromISO(*r.DayOfWeek)
	if err != nil {
		return nil, err
	}
	return &Rule{
		Frequency: Weekly,
		ByDay:     []Weekday{day},
		ByHour:    []int{*r.Hour},
		ByMinute:  []int{*r.Minute},
	}, nil
}

// Next returns the first occurrence strictly after t, evaluated in loc.
// A rule without hours or minutes has no occurrence and yields the zero time.
func (r *Rule) Next(after time.Time, loc *time.Location) time.Time {
	if len(r.ByHour) == 0 || len(r.ByMinute) == 0 {
		return time.Time{}
	}
	local := after.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	// Eight days covers a full week plus the remainder of today.
	for i := 0; i < 8; i++ {
		date := day.AddDate(0, 0, i)
		if !r.matchesDay(date) {
			continue
		}
		var best time.Time
		for _, h := range r.ByHour {
			for _, m := range r.ByMinute {
				at := time.Date(date.Year(), date.Month(), date.Day(), h, m, 0, 0, loc)
				if at.After(after) && (best.IsZero() || at.Before(best)) {
					best = at
				}
			}
		}
		if !best.IsZero() {
			return best
		}
	}
	return time.Time{}
}

func (r *Rule) matchesDay(date time.Time) bool {
	if r.Frequency == Daily || len(r.ByDay) == 0 {
		return true
	}
	iso := int(date.Weekday())
	if iso == 0 {
		iso = 7
	}
	for _, d := range r.ByDay {
		if d.ISO() == iso {
			return true
		}
	}
	return false
}

// String returns the RRULE string representation.
func (r *Rule) String() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("FREQ=%s", r.Frequency))

	if len(r.ByDay) > 0 {
		dayStrs := make([]string, len(r.ByDay))
		for i, day := range r.ByDay {
			dayStrs[i] = string(day)
		}
		parts = append(parts, fmt.Sprintf("BYDAY=%s", strings.Join(dayStrs, ",")))
	}

	if len(r.ByHour) > 0 {
		parts = append(parts, fmt.Sprintf("BYHOUR=%s", intListToString(r.ByHour)))
	}

	if len(r.ByMinute) > 0 {
		parts = append(parts, fmt.Sprintf("BYMINUTE=%s", intListToString(r.ByMinute)))
	}

	return strings.Join(parts, ";")
}

func intListToString(nums []int) string {
	strs := make([]string, len(nums))
	for i, num := range nums {
		strs[i] = fmt.Sprintf("%d", num)
	}
	return strings.Join(strs, ",")
}
