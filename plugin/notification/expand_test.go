package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/remindme/store"
)

var jerusalem = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Jerusalem")
	if err != nil {
		panic(err)
	}
	return loc
}()

func at(t *testing.T, layout, value string) time.Time {
	t.Helper()
	v, err := time.ParseInLocation(layout, value, jerusalem)
	require.NoError(t, err)
	return v
}

func TestExpandAbsoluteKeepsInstant(t *testing.T) {
	now := at(t, InstantLayout, "21.07.2022 22:37:01")
	instant := at(t, InstantLayout, "22.07.2022 03:37:01")

	firings := Expand(Absolute{Message: "x", Instants: []time.Time{instant}}, now, jerusalem)

	require.Len(t, firings, 1)
	assert.Equal(t, store.FiringKindAbsolute, firings[0].Kind)
	assert.True(t, firings[0].At.Equal(instant))
	assert.Equal(t, time.UTC, firings[0].At.Location())
}

func TestExpandAbsoluteKeepsPastInstants(t *testing.T) {
	now := at(t, InstantLayout, "21.07.2022 22:37:01")
	past := now.Add(-time.Hour)

	firings := Expand(Absolute{Message: "x", Instants: []time.Time{past, now}}, now, jerusalem)
	require.Len(t, firings, 2)
	assert.True(t, firings[0].At.Equal(past))
}

func TestExpandWeekRelativeComingFriday(t *testing.T) {
	now := at(t, InstantLayout, "21.07.2022 22:37:01") // Thursday
	n := WeekRelative{Message: "x", DaysOfWeek: []int{5}, TimesOfDay: []TimeOfDay{{12, 0}}}

	firings := Expand(n, now, jerusalem)

	require.Len(t, firings, 1)
	want := at(t, InstantLayoutShort, "22.07.2022 12:00")
	assert.True(t, firings[0].At.Equal(want), "got %s", firings[0].At.In(jerusalem))
}

func TestExpandWeekRelativeThisSaturday(t *testing.T) {
	now := at(t, InstantLayout, "24.01.2023 09:15:00") // Tuesday
	n := WeekRelative{Message: "x", DaysOfWeek: []int{6}, TimesOfDay: []TimeOfDay{{12, 0}}}

	firings := Expand(n, now, jerusalem)

	require.Len(t, firings, 1)
	want := at(t, InstantLayoutShort, "28.01.2023 12:00")
	assert.True(t, firings[0].At.Equal(want), "got %s", firings[0].At.In(jerusalem))
}

func TestExpandWeekRelativeRollsToNextWeek(t *testing.T) {
	now := at(t, InstantLayout, "21.07.2022 10:00:00") // Thursday
	tests := []struct {
		name string
		days []int
		want []string
	}{
		{"earlier weekday", []int{2}, []string{"26.07.2022 08:30"}},
		{"same weekday", []int{4}, []string{"28.07.2022 08:30"}},
		// One past weekday pushes the whole listing a week ahead.
		{"mixed", []int{5, 1}, []string{"29.07.2022 08:30", "25.07.2022 08:30"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := WeekRelative{DaysOfWeek: tt.days, TimesOfDay: []TimeOfDay{{8, 30}}}
			firings := Expand(n, now, jerusalem)
			require.Len(t, firings, len(tt.want))
			for i, w := range tt.want {
				assert.True(t, firings[i].At.Equal(at(t, InstantLayoutShort, w)), "firing %d: %s", i, firings[i].At.In(jerusalem))
			}
		})
	}
}

func TestExpandWeekRelativeExplicitOffset(t *testing.T) {
	now := at(t, InstantLayout, "21.07.2022 22:37:01") // Thursday
	n := WeekRelative{WeekOffset: 1, DaysOfWeek: []int{5}, TimesOfDay: []TimeOfDay{{12, 0}}}

	firings := Expand(n, now, jerusalem)
	require.Len(t, firings, 1)
	assert.True(t, firings[0].At.Equal(at(t, InstantLayoutShort, "29.07.2022 12:00")))

	n.WeekOffset = 2
	n.DaysOfWeek = []int{1}
	firings = Expand(n, now, jerusalem)
	require.Len(t, firings, 1)
	assert.True(t, firings[0].At.Equal(at(t, InstantLayoutShort, "01.08.2022 12:00")))
}

func TestExpandWeekRelativeRejectsHugeOffset(t *testing.T) {
	now := at(t, InstantLayout, "21.07.2022 22:37:01")
	n := WeekRelative{WeekOffset: ^uint(0), DaysOfWeek: []int{1, 5}, TimesOfDay: []TimeOfDay{{12, 0}}}

	report := ExpandWithReport(n, now, jerusalem)
	assert.Empty(t, report.Firings)
	assert.Equal(t, 2, report.DroppedPairs)

	n.WeekOffset = MaxWeekOffset
	firings := Expand(n, now, jerusalem)
	require.Len(t, firings, 2)
	for _, f := range firings {
		assert.True(t, f.At.After(now))
	}
}

func TestExpandWeekRelativeOrderAndDeterminism(t *testing.T) {
	now := at(t, InstantLayout, "18.07.2022 07:00:00") // Monday
	n := WeekRelative{
		DaysOfWeek: []int{5, 3},
		TimesOfDay: []TimeOfDay{{18, 0}, {9, 15}},
	}

	first := Expand(n, now, jerusalem)
	second := Expand(n, now, jerusalem)
	require.Equal(t, first, second)

	want := []string{"22.07.2022 18:00", "22.07.2022 09:15", "20.07.2022 18:00", "20.07.2022 09:15"}
	require.Len(t, first, len(want))
	for i, w := range want {
		assert.True(t, first[i].At.Equal(at(t, InstantLayoutShort, w)), "firing %d", i)
	}
}

func TestExpandWeekRelativeDropsInvalidTimes(t *testing.T) {
	now := at(t, InstantLayout, "18.07.2022 07:00:00")
	n := WeekRelative{
		DaysOfWeek: []int{2, 3},
		TimesOfDay: []TimeOfDay{{25, 0}, {10, 0}, {10, 60}},
	}

	report := ExpandWithReport(n, now, jerusalem)
	assert.Len(t, report.Firings, 2)
	assert.Equal(t, 4, report.DroppedPairs)
}

func TestExpandWeekRelativeZeroesSeconds(t *testing.T) {
	now := at(t, InstantLayout, "18.07.2022 07:00:59")
	firings := Expand(WeekRelative{DaysOfWeek: []int{2}, TimesOfDay: []TimeOfDay{{7, 0}}}, now, jerusalem)
	require.Len(t, firings, 1)
	assert.Equal(t, 0, firings[0].At.Second())
}

func TestExpandWeekRelativeAcrossDST(t *testing.T) {
	// Israel moves clocks forward on Friday 24.03.2023.
	now := at(t, InstantLayout, "20.03.2023 10:00:00") // Monday
	firings := Expand(WeekRelative{DaysOfWeek: []int{7}, TimesOfDay: []TimeOfDay{{12, 0}}}, now, jerusalem)
	require.Len(t, firings, 1)
	local := firings[0].At.In(jerusalem)
	assert.Equal(t, 12, local.Hour())
	assert.Equal(t, time.Sunday, local.Weekday())
	assert.Equal(t, 26, local.Day())
}

func TestExpandRecurrent(t *testing.T) {
	now := at(t, InstantLayout, "21.07.2022 22:37:01")
	n := Recurrent{
		Message:    "gym",
		DaysOfWeek: []int{1, 3},
		TimesOfDay: []TimeOfDay{{18, 30}, {7, 0}},
	}

	firings := Expand(n, now, jerusalem)
	require.Len(t, firings, 2)
	for _, f := range firings {
		assert.Equal(t, store.FiringKindRecurrent, f.Kind)
		assert.Equal(t, []int{1, 3}, f.DaysOfWeek)
	}
	assert.Equal(t, TimeOfDay{18, 30}, firings[0].Time)

	records := Records(42, "gym", firings)
	require.Len(t, records, 4)
	assert.Equal(t, 1, *records[0].DayOfWeek)
	assert.Equal(t, 3, *records[1].DayOfWeek)
	assert.Equal(t, 18, *records[1].Hour)
	assert.Equal(t, 7, *records[2].Hour)
	for _, r := range records {
		assert.True(t, r.Valid())
		assert.Equal(t, int64(42), r.OwnerID)
		assert.Equal(t, "gym", r.Text)
	}
}

func TestExpandRecurrentWithoutDays(t *testing.T) {
	now := at(t, InstantLayout, "21.07.2022 22:37:01")
	for _, days := range [][]int{nil, {}} {
		firings := Expand(Recurrent{DaysOfWeek: days, TimesOfDay: []TimeOfDay{{12, 0}}}, now, jerusalem)
		assert.NotNil(t, firings)
		assert.Empty(t, firings)
		assert.Empty(t, Records(1, "x", firings))
	}
}

func TestRecordsAbsolute(t *testing.T) {
	instant := at(t, InstantLayout, "22.07.2022 03:37:01")
	records := Records(7, "x", []Firing{{Kind: store.FiringKindAbsolute, At: instant.UTC()}})
	require.Len(t, records, 1)
	assert.True(t, records[0].Valid())
	assert.Equal(t, instant.Unix(), *records[0].FiresTs)
}
