package domain

import (
	"fmt"
	"time"
)

// CampaignStatus enumerates the lifecycle states of a campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignRunning   CampaignStatus = "running"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
)

// ValidCampaignStatus reports whether s is a known lifecycle state.
func ValidCampaignStatus(s CampaignStatus) bool {
	switch s {
	case CampaignDraft, CampaignRunning, CampaignPaused, CampaignCompleted:
		return true
	}
	return false
}

// ScheduleMode enumerates the mutually exclusive scheduling behaviors.
type ScheduleMode string

const (
	// ScheduleImmediate places no time constraint on sending.
	ScheduleImmediate ScheduleMode = "immediate"
	// ScheduleDaily sends each day once the clock passes TimeOfDay.
	ScheduleDaily ScheduleMode = "daily"
	// ScheduleImmediateThenDaily sends right away on a fresh day, then
	// behaves like ScheduleDaily for the rest of that day.
	ScheduleImmediateThenDaily ScheduleMode = "immediate_then_daily"
	// ScheduleOneTime sends once the clock passes At, then clears itself.
	ScheduleOneTime ScheduleMode = "one_time"
)

// Time layouts shared by the schedule evaluator, services, and API.
const (
	TimeOfDayLayout = "15:04"
	DateTimeLayout  = "2006-01-02 15:04"
	DateKeyLayout   = "2006-01-02"
)

// Schedule is a campaign's scheduling configuration. Exactly one mode is
// active; the fields the mode does not use stay empty.
type Schedule struct {
	Mode      ScheduleMode `json:"mode"`
	TimeOfDay string       `json:"time_of_day,omitempty"` // "HH:MM", daily modes
	At        string       `json:"at,omitempty"`          // "YYYY-MM-DD HH:MM", one_time
}

// Cleared returns the schedule a consumed one-time campaign degrades to.
func (s Schedule) Cleared() Schedule {
	return Schedule{Mode: ScheduleImmediate}
}

// Validate checks mode membership and that the fields the mode relies on
// parse with the shared layouts.
func (s Schedule) Validate() error {
	switch s.Mode {
	case ScheduleImmediate:
		return nil
	case ScheduleDaily, ScheduleImmediateThenDaily:
		if _, err := time.Parse(TimeOfDayLayout, s.TimeOfDay); err != nil {
			return fmt.Errorf("invalid time_of_day %q: want HH:MM", s.TimeOfDay)
		}
		return nil
	case ScheduleOneTime:
		if _, err := time.Parse(DateTimeLayout, s.At); err != nil {
			return fmt.Errorf("invalid at %q: want YYYY-MM-DD HH:MM", s.At)
		}
		return nil
	default:
		return fmt.Errorf("unknown schedule mode %q", s.Mode)
	}
}

// Campaign represents one bulk-send job with its own recipients, template,
// senders, schedule, and independent execution state.
type Campaign struct {
	ID              string         `json:"id" db:"id"`
	Name            string         `json:"name" db:"name"`
	Description     string         `json:"description" db:"description"`
	Status          CampaignStatus `json:"status" db:"status"`
	SubjectLine     string         `json:"subject_line" db:"subject_line"`
	SelectedSenders []string       `json:"selected_senders" db:"selected_senders"`
	LeadsFileID     *string        `json:"leads_file_id" db:"leads_file_id"`
	TemplateFileID  *string        `json:"template_file_id" db:"template_file_id"`
	DailyLimit      int            `json:"daily_limit" db:"daily_limit"`
	DelaySeconds    int            `json:"delay_seconds" db:"delay_seconds"`
	Schedule        Schedule       `json:"schedule" db:"schedule"`

	// Stats mirror history set sizes; recomputed, never authoritative.
	TotalSent   int `json:"total_sent" db:"total_sent"`
	TotalFailed int `json:"total_failed" db:"total_failed"`
	TotalLeads  int `json:"total_leads" db:"total_leads"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Delay returns the configured pause between consecutive sends.
func (c *Campaign) Delay() time.Duration {
	return time.Duration(c.DelaySeconds) * time.Second
}
