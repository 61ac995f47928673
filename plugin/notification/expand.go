package notification

import (
	"time"

	"github.com/hrygo/remindme/store"
)

// Firing is one concrete obligation produced by Expand.
// Absolute firings carry At; recurrent firings carry the whole weekday set.
type Firing struct {
	Kind store.FiringKind
	At   time.Time

	DaysOfWeek []int
	Time       TimeOfDay
}

// ExpandReport is the result of an expansion together with what was dropped.
type ExpandReport struct {
	Firings []Firing
	// DroppedPairs counts (weekday, time) or time entries with an invalid time of day.
	DroppedPairs int
}

// Expand converts n into firings relative to now, with calendar arithmetic in loc.
// It never fails; an empty result is valid.
func Expand(n Notification, now time.Time, loc *time.Location) []Firing {
	return ExpandWithReport(n, now, loc).Firings
}

// ExpandWithReport is Expand with a count of silently dropped entries.
func ExpandWithReport(n Notification, now time.Time, loc *time.Location) ExpandReport {
	if loc == nil {
		loc = time.UTC
	}
	switch v := n.(type) {
	case Absolute:
		return expandAbsolute(v)
	case WeekRelative:
		return expandWeekRelative(v, now.In(loc))
	case Recurrent:
		return expandRecurrent(v)
	default:
		return ExpandReport{Firings: []Firing{}}
	}
}

func expandAbsolute(n Absolute) ExpandReport {
	firings := make([]Firing, 0, len(n.Instants))
	for _, t := range n.Instants {
		firings = append(firings, Firing{Kind: store.FiringKindAbsolute, At: t.UTC()})
	}
	return ExpandReport{Firings: firings}
}

func expandWeekRelative(n WeekRelative, now time.Time) ExpandReport {
	if n.WeekOffset > MaxWeekOffset {
		return ExpandReport{Firings: []Firing{}, DroppedPairs: len(n.DaysOfWeek) * len(n.TimesOfDay)}
	}
	currentDow := isoWeekday(now)

	offset := int(n.WeekOffset)
	if n.WeekOffset == 0 {
		for _, d := range n.DaysOfWeek {
			if d <= currentDow {
				offset = 1
				break
			}
		}
	}

	y, m, d := now.Date()
	// AddDate on a civil midnight keeps the wall clock across DST changes.
	monday := time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(currentDow-1)+7*offset)

	report := ExpandReport{Firings: make([]Firing, 0, len(n.DaysOfWeek)*len(n.TimesOfDay))}
	for _, weekday := range n.DaysOfWeek {
		day := monday.AddDate(0, 0, weekday-1)
		for _, tod := range n.TimesOfDay {
			if !tod.Valid() || !ValidWeekday(weekday) {
				report.DroppedPairs++
				continue
			}
			dy, dm, dd := day.Date()
			at := time.Date(dy, dm, dd, tod.Hour, tod.Minute, 0, 0, day.Location())
			report.Firings = append(report.Firings, Firing{Kind: store.FiringKindAbsolute, At: at.UTC()})
		}
	}
	return report
}

func expandRecurrent(n Recurrent) ExpandReport {
	report := ExpandReport{Firings: []Firing{}}
	if len(n.DaysOfWeek) == 0 {
		return report
	}
	days := make([]int, 0, len(n.DaysOfWeek))
	for _, d := range n.DaysOfWeek {
		if ValidWeekday(d) {
			days = append(days, d)
		}
	}
	if len(days) == 0 {
		return report
	}
	for _, tod := range n.TimesOfDay {
		if !tod.Valid() {
			report.DroppedPairs++
			continue
		}
		report.Firings = append(report.Firings, Firing{
			Kind:       store.FiringKindRecurrent,
			DaysOfWeek: days,
			Time:       tod,
		})
	}
	return report
}

// Records flattens firings into storable rows owned by ownerID.
// A recurrent firing becomes one row per weekday of its set.
func Records(ownerID int64, text string, firings []Firing) []*store.FiringRecord {
	records := make([]*store.FiringRecord, 0, len(firings))
	for _, f := range firings {
		switch f.Kind {
		case store.FiringKindAbsolute:
			ts := f.At.Unix()
			records = append(records, &store.FiringRecord{
				Kind:    store.FiringKindAbsolute,
				OwnerID: ownerID,
				Text:    text,
				FiresTs: &ts,
			})
		case store.FiringKindRecurrent:
			for _, d := range f.DaysOfWeek {
				dow, hour, minute := d, f.Time.Hour, f.Time.Minute
				records = append(records, &store.FiringRecord{
					Kind:      store.FiringKindRecurrent,
					OwnerID:   ownerID,
					Text:      text,
					DayOfWeek: &dow,
					Hour:      &hour,
					Minute:    &minute,
				})
			}
		}
	}
	return records
}

func isoWeekday(t time.Time) int {
	if wd := int(t.Weekday()); wd != 0 {
		return wd
	}
	return 7
}
