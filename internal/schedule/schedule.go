// Package schedule decides whether a campaign may send at a given moment.
//
// The evaluator is a pure function of the campaign, its history, and the
// clock. The one side effect the product needs — clearing a one-time
// schedule after it fires — is reported back as Decision.ConsumedOneTime
// for the caller to persist, so evaluation itself never mutates anything.
package schedule

import (
	"fmt"
	"log"
	"time"

	"github.com/ignite/campaign-runner/internal/domain"
)

// Decision is the outcome of one eligibility evaluation. Reason is set on
// the false paths and is for logging only.
type Decision struct {
	Run             bool
	ConsumedOneTime bool
	Reason          string
}

// ShouldRun reports whether the campaign may send at now.
//
// The daily limit dominates every mode. Malformed schedule configuration
// is logged and treated as "condition not met" rather than an error so a
// bad record can never crash an execution loop.
func ShouldRun(c *domain.Campaign, h *domain.History, now time.Time) Decision {
	sentToday := h.SentOn(now)
	if sentToday >= c.DailyLimit {
		return Decision{Reason: fmt.Sprintf("daily limit reached: %d/%d", sentToday, c.DailyLimit)}
	}

	switch c.Schedule.Mode {
	case domain.ScheduleImmediate, "":
		// No schedule configured means no time constraint.
		return Decision{Run: true}

	case domain.ScheduleDaily:
		return dailyDue(c, now)

	case domain.ScheduleImmediateThenDaily:
		if sentToday == 0 {
			return Decision{Run: true}
		}
		return dailyDue(c, now)

	case domain.ScheduleOneTime:
		at, err := time.ParseInLocation(domain.DateTimeLayout, c.Schedule.At, now.Location())
		if err != nil {
			log.Printf("[schedule] campaign %s: invalid one-time date %q: %v", c.ID, c.Schedule.At, err)
			return Decision{Reason: "invalid one-time date"}
		}
		if now.Before(at) {
			return Decision{Reason: fmt.Sprintf("scheduled for %s", c.Schedule.At)}
		}
		return Decision{Run: true, ConsumedOneTime: true}

	default:
		log.Printf("[schedule] campaign %s: unknown schedule mode %q", c.ID, c.Schedule.Mode)
		return Decision{Reason: fmt.Sprintf("unknown schedule mode %q", c.Schedule.Mode)}
	}
}

func dailyDue(c *domain.Campaign, now time.Time) Decision {
	due, err := time.Parse(domain.TimeOfDayLayout, c.Schedule.TimeOfDay)
	if err != nil {
		log.Printf("[schedule] campaign %s: invalid time of day %q: %v", c.ID, c.Schedule.TimeOfDay, err)
		return Decision{Reason: "invalid time of day"}
	}
	nowMinutes := now.Hour()*60 + now.Minute()
	dueMinutes := due.Hour()*60 + due.Minute()
	if nowMinutes < dueMinutes {
		return Decision{Reason: fmt.Sprintf("waiting for %s", c.Schedule.TimeOfDay)}
	}
	return Decision{Run: true}
}
