package schedule_test

import (
	"testing"
	"time"

	"github.com/ignite/campaign-runner/internal/domain"
	"github.com/ignite/campaign-runner/internal/schedule"
)

// clock builds a fixed local time on 2026-03-10.
func clock(hour, minute int) time.Time {
	return time.Date(2026, 3, 10, hour, minute, 0, 0, time.Local)
}

func campaign(mode domain.ScheduleMode, timeOfDay, at string) *domain.Campaign {
	return &domain.Campaign{
		ID:         "c1",
		DailyLimit: 120,
		Schedule:   domain.Schedule{Mode: mode, TimeOfDay: timeOfDay, At: at},
	}
}

func historySentToday(now time.Time, n int) *domain.History {
	h := domain.NewHistory("c1")
	h.DailySentTracking[domain.DateKey(now)] = n
	return h
}

func TestDailyLimitDominatesEveryMode(t *testing.T) {
	now := clock(12, 0)

	modes := []*domain.Campaign{
		campaign(domain.ScheduleImmediate, "", ""),
		campaign(domain.ScheduleDaily, "10:00", ""),
		campaign(domain.ScheduleImmediateThenDaily, "10:00", ""),
		campaign(domain.ScheduleOneTime, "", "2026-03-01 09:00"),
	}
	for _, c := range modes {
		c.DailyLimit = 5
		d := schedule.ShouldRun(c, historySentToday(now, 5), now)
		if d.Run {
			t.Errorf("mode %s: expected Run=false at limit", c.Schedule.Mode)
		}
		if d.ConsumedOneTime {
			t.Errorf("mode %s: limit check must not consume one-time schedule", c.Schedule.Mode)
		}
	}
}

func TestImmediateAlwaysEligible(t *testing.T) {
	now := clock(3, 0)
	d := schedule.ShouldRun(campaign(domain.ScheduleImmediate, "", ""), domain.NewHistory("c1"), now)
	if !d.Run {
		t.Fatalf("immediate: expected Run=true, reason=%q", d.Reason)
	}
}

func TestEmptyModeTreatedAsImmediate(t *testing.T) {
	now := clock(3, 0)
	d := schedule.ShouldRun(campaign("", "", ""), domain.NewHistory("c1"), now)
	if !d.Run {
		t.Fatalf("empty mode: expected Run=true, reason=%q", d.Reason)
	}
}

func TestDailyMode(t *testing.T) {
	c := campaign(domain.ScheduleDaily, "10:00", "")

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before time of day", clock(9, 59), false},
		{"exactly at time of day", clock(10, 0), true},
		{"after time of day", clock(18, 30), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := schedule.ShouldRun(c, domain.NewHistory("c1"), tt.now)
			if d.Run != tt.want {
				t.Errorf("ShouldRun at %s = %v, want %v (reason %q)", tt.now, d.Run, tt.want, d.Reason)
			}
		})
	}
}

func TestDailyModeMalformedTime(t *testing.T) {
	c := campaign(domain.ScheduleDaily, "25:99", "")
	d := schedule.ShouldRun(c, domain.NewHistory("c1"), clock(12, 0))
	if d.Run {
		t.Fatal("malformed time of day must evaluate false, not panic")
	}
}

func TestImmediateThenDaily(t *testing.T) {
	c := campaign(domain.ScheduleImmediateThenDaily, "15:00", "")
	now := clock(9, 0) // before the daily time

	// First run of the day fires immediately
	d := schedule.ShouldRun(c, historySentToday(now, 0), now)
	if !d.Run {
		t.Fatalf("first run of the day: expected Run=true, reason=%q", d.Reason)
	}

	// Once something was sent today it behaves like daily
	d = schedule.ShouldRun(c, historySentToday(now, 1), now)
	if d.Run {
		t.Fatal("after first send: expected daily gating before 15:00")
	}
	d = schedule.ShouldRun(c, historySentToday(now, 1), clock(15, 0))
	if !d.Run {
		t.Fatalf("after first send at 15:00: expected Run=true, reason=%q", d.Reason)
	}
}

func TestOneTimeConsumption(t *testing.T) {
	c := campaign(domain.ScheduleOneTime, "", "2026-03-10 09:00")

	// Not yet due
	d := schedule.ShouldRun(c, domain.NewHistory("c1"), clock(8, 59))
	if d.Run || d.ConsumedOneTime {
		t.Fatalf("before due: got %+v", d)
	}

	// Due: runs and reports consumption for the caller to persist
	d = schedule.ShouldRun(c, domain.NewHistory("c1"), clock(9, 0))
	if !d.Run || !d.ConsumedOneTime {
		t.Fatalf("at due time: got %+v", d)
	}

	// Caller cleared the schedule: degrades to immediate
	c.Schedule = c.Schedule.Cleared()
	d = schedule.ShouldRun(c, domain.NewHistory("c1"), clock(9, 1))
	if !d.Run || d.ConsumedOneTime {
		t.Fatalf("after clearing: got %+v", d)
	}
}

func TestOneTimeMalformedDate(t *testing.T) {
	c := campaign(domain.ScheduleOneTime, "", "tomorrow-ish")
	d := schedule.ShouldRun(c, domain.NewHistory("c1"), clock(12, 0))
	if d.Run || d.ConsumedOneTime {
		t.Fatalf("malformed date: got %+v", d)
	}
}

func TestUnknownModeEvaluatesFalse(t *testing.T) {
	c := campaign("fortnightly", "", "")
	d := schedule.ShouldRun(c, domain.NewHistory("c1"), clock(12, 0))
	if d.Run {
		t.Fatal("unknown mode must evaluate false")
	}
}
