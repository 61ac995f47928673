package notification

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// InstantLayout is the wire layout of absolute instants.
	InstantLayout = "02.01.2006 15:04:05"
	// InstantLayoutShort is accepted on decode when seconds are omitted.
	InstantLayoutShort = "02.01.2006 15:04"
)

type wireNotification struct {
	Kind  string   `json:"kind"`
	Text  string   `json:"text"`
	Times []string `json:"times"`
	Week  *uint    `json:"week,omitempty"`
	Days  []int    `json:"days"`
}

// Decode parses the interpreter's JSON representation of a notification.
// Absolute instants are read in loc.
func Decode(data []byte, loc *time.Location) (Notification, error) {
	var w wireNotification
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to decode notification: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(w.Kind)) {
	case "abs", "absolute":
		instants := make([]time.Time, 0, len(w.Times))
		for _, raw := range w.Times {
			t, err := parseInstant(raw, loc)
			if err != nil {
				return nil, err
			}
			instants = append(instants, t)
		}
		return Absolute{Message: w.Text, Instants: instants}, nil

	case "rel", "relative":
		days, err := decodeDays(w.Days)
		if err != nil {
			return nil, err
		}
		times, err := decodeTimes(w.Times)
		if err != nil {
			return nil, err
		}
		var week uint
		if w.Week != nil {
			week = *w.Week
		}
		if week > MaxWeekOffset {
			return nil, fmt.Errorf("week offset %d exceeds %d", week, MaxWeekOffset)
		}
		return WeekRelative{Message: w.Text, WeekOffset: week, DaysOfWeek: days, TimesOfDay: times}, nil

	case "rec", "recurrent":
		days, err := decodeDays(w.Days)
		if err != nil {
			return nil, err
		}
		times, err := decodeTimes(w.Times)
		if err != nil {
			return nil, err
		}
		return Recurrent{Message: w.Text, DaysOfWeek: days, TimesOfDay: times}, nil

	default:
		return nil, fmt.Errorf("unknown notification kind %q", w.Kind)
	}
}

// Marshal encodes n in its wire representation with short kind tags.
func Marshal(n Notification, loc *time.Location) ([]byte, error) {
	w := wireNotification{Kind: string(n.Kind()), Text: n.Text()}

	switch v := n.(type) {
	case Absolute:
		w.Times = make([]string, 0, len(v.Instants))
		for _, t := range v.Instants {
			w.Times = append(w.Times, t.In(loc).Format(InstantLayout))
		}
	case WeekRelative:
		week := v.WeekOffset
		w.Week = &week
		w.Days = v.DaysOfWeek
		w.Times = encodeTimes(v.TimesOfDay)
	case Recurrent:
		w.Days = v.DaysOfWeek
		w.Times = encodeTimes(v.TimesOfDay)
	default:
		return nil, fmt.Errorf("unsupported notification %T", n)
	}

	return json.Marshal(w)
}

func parseInstant(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{InstantLayout, InstantLayoutShort} {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid instant %q, want dd.mm.yyyy HH:MM[:SS]", raw)
}

// ParseTimeOfDay parses "HH:MM". Out-of-range values are accepted and
// rejected later by expansion.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q, want HH:MM", raw)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q", raw)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

func decodeTimes(raw []string) ([]TimeOfDay, error) {
	times := make([]TimeOfDay, 0, len(raw))
	for _, r := range raw {
		t, err := ParseTimeOfDay(r)
		if err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	return times, nil
}

func encodeTimes(times []TimeOfDay) []string {
	out := make([]string, 0, len(times))
	for _, t := range times {
		out = append(out, t.String())
	}
	return out
}

// decodeDays validates weekdays and drops duplicates, keeping listing order.
// A nil input stays nil.
func decodeDays(days []int) ([]int, error) {
	if days == nil {
		return nil, nil
	}
	seen := make(map[int]bool, len(days))
	out := make([]int, 0, len(days))
	for _, d := range days {
		if !ValidWeekday(d) {
			return nil, fmt.Errorf("invalid day of week %d, want 1..7", d)
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out, nil
}
