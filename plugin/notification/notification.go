// Package notification holds the structured notification model produced by the
// interpreter and its expansion into storable firing records.
package notification

import (
	"fmt"
	"time"
)

// Kind identifies a Notification variant.
type Kind string

const (
	KindAbsolute     Kind = "abs"
	KindWeekRelative Kind = "rel"
	KindRecurrent    Kind = "rec"
)

// Notification is a closed sum type: Absolute, WeekRelative or Recurrent.
type Notification interface {
	Kind() Kind
	Text() string

	sealed()
}

// TimeOfDay is a wall-clock time without a date.
// It is decoded leniently; Valid reports whether it can be applied to a date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Valid reports whether the time exists on a 24h clock.
func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour <= 23 && t.Minute >= 0 && t.Minute <= 59
}

// MinuteOfDay returns Hour*60+Minute.
func (t TimeOfDay) MinuteOfDay() int {
	return t.Hour*60 + t.Minute
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Absolute fires once at every listed instant.
type Absolute struct {
	Message  string
	Instants []time.Time
}

// MaxWeekOffset is the furthest week a WeekRelative notification may target.
const MaxWeekOffset = 52

// WeekRelative fires on the cross product of DaysOfWeek and TimesOfDay in a
// week chosen relative to now.
type WeekRelative struct {
	Message    string
	WeekOffset uint
	// DaysOfWeek are ISO weekdays, Monday = 1.
	DaysOfWeek []int
	TimesOfDay []TimeOfDay
}

// Recurrent fires every week on DaysOfWeek at TimesOfDay.
// A nil or empty DaysOfWeek never produces records.
type Recurrent struct {
	Message    string
	DaysOfWeek []int
	TimesOfDay []TimeOfDay
}

func (Absolute) Kind() Kind     { return KindAbsolute }
func (WeekRelative) Kind() Kind { return KindWeekRelative }
func (Recurrent) Kind() Kind    { return KindRecurrent }

func (n Absolute) Text() string     { return n.Message }
func (n WeekRelative) Text() string { return n.Message }
func (n Recurrent) Text() string    { return n.Message }

func (Absolute) sealed()     {}
func (WeekRelative) sealed() {}
func (Recurrent) sealed()    {}

// ValidWeekday reports whether d is an ISO weekday.
func ValidWeekday(d int) bool {
	return d >= 1 && d <= 7
}
