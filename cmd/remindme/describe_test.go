package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hrygo/remindme/store"
)

func TestDescribeRecord(t *testing.T) {
	now := time.Date(2023, 1, 26, 14, 40, 0, 0, time.UTC)

	ts := time.Date(2023, 1, 27, 12, 0, 0, 0, time.UTC).Unix()
	abs := &store.FiringRecord{ID: 1, Kind: store.FiringKindAbsolute, OwnerID: 7, Text: "check mail", FiresTs: &ts}
	assert.Equal(t, "1\tchat 7\tonce  Fri 27.01.2023 12:00\tcheck mail", describeRecord(abs, now, time.UTC))

	day, hour, minute := 1, 9, 30
	rec := &store.FiringRecord{ID: 2, Kind: store.FiringKindRecurrent, OwnerID: 7, Text: "standup", DayOfWeek: &day, Hour: &hour, Minute: &minute}
	assert.Equal(t, "2\tchat 7\tFREQ=WEEKLY;BYDAY=MO;BYHOUR=9;BYMINUTE=30 (next Mon 30.01.2023 09:30)\tstandup", describeRecord(rec, now, time.UTC))
}
