package main

import (
	"fmt"
	"time"

	"github.com/hrygo/remindme/server/scheduler/rrule"
	"github.com/hrygo/remindme/server/timezone"
	"github.com/hrygo/remindme/store"
)

const listTimeLayout = "Mon 02.01.2006 15:04"

// describeRecord renders one pending record for the list command.
func describeRecord(r *store.FiringRecord, now time.Time, loc *time.Location) string {
	switch r.Kind {
	case store.FiringKindAbsolute:
		if r.FiresTs == nil {
			return fmt.Sprintf("%d\tchat %d\tinvalid: no firing time\t%s", r.ID, r.OwnerID, r.Text)
		}
		at := timezone.ToUserTimezone(*r.FiresTs, loc)
		return fmt.Sprintf("%d\tchat %d\tonce  %s\t%s", r.ID, r.OwnerID, at.Format(listTimeLayout), r.Text)
	case store.FiringKindRecurrent:
		rule, err := rrule.FromRecord(r)
		if err != nil {
			return fmt.Sprintf("%d\tchat %d\tinvalid: %v\t%s", r.ID, r.OwnerID, err, r.Text)
		}
		next := rule.Next(now, loc)
		return fmt.Sprintf("%d\tchat %d\t%s (next %s)\t%s", r.ID, r.OwnerID, rule, next.Format(listTimeLayout), r.Text)
	default:
		return fmt.Sprintf("%d\tchat %d\tunknown kind %q\t%s", r.ID, r.OwnerID, r.Kind, r.Text)
	}
}
