package campaign

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/campaign-runner/internal/config"
	"github.com/ignite/campaign-runner/internal/domain"
	"github.com/ignite/campaign-runner/internal/filestore"
	"github.com/ignite/campaign-runner/internal/leads"
	"github.com/ignite/campaign-runner/internal/service/history"
)

// MaxDailyLimit caps how high a single campaign's daily limit can be set.
const MaxDailyLimit = 500

// Service implements campaign business logic. It coordinates the campaign
// repository, the history ledger, and the document store holding leads and
// template payloads.
type Service struct {
	repo      Repository
	histories *history.Service
	files     filestore.Store
	defaults  config.DefaultsConfig
}

// NewService creates a campaign service.
func NewService(repo Repository, histories *history.Service, files filestore.Store, defaults config.DefaultsConfig) *Service {
	return &Service{repo: repo, histories: histories, files: files, defaults: defaults}
}

// Get returns a single campaign.
func (s *Service) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	return s.repo.Get(ctx, id)
}

// List returns all campaigns, newest first.
func (s *Service) List(ctx context.Context) ([]domain.Campaign, error) {
	return s.repo.List(ctx)
}

// Input holds the caller-settable campaign fields, shared by create and
// update.
type Input struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	SubjectLine     string          `json:"subject_line"`
	SelectedSenders []string        `json:"selected_senders"`
	DailyLimit      int             `json:"daily_limit"`
	DelaySeconds    int             `json:"delay_seconds"`
	Schedule        domain.Schedule `json:"schedule"`
}

func (s *Service) applyInput(c *domain.Campaign, input Input) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.SubjectLine) == "" {
		return fmt.Errorf("%w: subject_line is required", ErrInvalidInput)
	}

	c.Name = input.Name
	c.Description = input.Description
	c.SubjectLine = input.SubjectLine
	c.SelectedSenders = input.SelectedSenders
	if c.SelectedSenders == nil {
		c.SelectedSenders = []string{}
	}

	c.DailyLimit = input.DailyLimit
	if c.DailyLimit == 0 {
		c.DailyLimit = s.defaults.DailyLimit
	}
	if c.DailyLimit < 1 {
		return fmt.Errorf("%w: daily_limit must be at least 1", ErrInvalidInput)
	}
	if c.DailyLimit > MaxDailyLimit {
		return fmt.Errorf("%w: daily_limit must not exceed %d", ErrInvalidInput, MaxDailyLimit)
	}

	c.DelaySeconds = input.DelaySeconds
	if c.DelaySeconds == 0 {
		c.DelaySeconds = s.defaults.DelaySeconds
	}
	if c.DelaySeconds < 0 {
		return fmt.Errorf("%w: delay_seconds must not be negative", ErrInvalidInput)
	}

	c.Schedule = input.Schedule
	if c.Schedule.Mode == "" {
		c.Schedule.Mode = domain.ScheduleImmediate
	}
	if (c.Schedule.Mode == domain.ScheduleDaily || c.Schedule.Mode == domain.ScheduleImmediateThenDaily) &&
		c.Schedule.TimeOfDay == "" {
		c.Schedule.TimeOfDay = s.defaults.ScheduleTime
	}
	if err := c.Schedule.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// Create validates and persists a new campaign in draft status, filling
// configured defaults for limit, delay, and daily schedule time.
func (s *Service) Create(ctx context.Context, input Input) (*domain.Campaign, error) {
	c := &domain.Campaign{
		ID:     uuid.New().String(),
		Status: domain.CampaignDraft,
	}
	if err := s.applyInput(c, input); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update replaces a campaign's mutable configuration. Status, stats, and
// document references are untouched.
func (s *Service) Update(ctx context.Context, id string, input Input) (*domain.Campaign, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyInput(c, input); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Duplicate copies a campaign's configuration into a fresh draft with no
// history and zeroed stats. Stored leads and template payloads are copied
// so the duplicate is runnable as-is.
func (s *Service) Duplicate(ctx context.Context, id string) (*domain.Campaign, error) {
	src, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	dup := *src
	dup.ID = uuid.New().String()
	dup.Name = src.Name + " (Copy)"
	dup.Status = domain.CampaignDraft
	dup.TotalSent = 0
	dup.TotalFailed = 0
	dup.SelectedSenders = append([]string{}, src.SelectedSenders...)
	dup.LeadsFileID = nil
	dup.TemplateFileID = nil

	if src.LeadsFileID != nil {
		if data, err := s.files.Get(ctx, *src.LeadsFileID); err == nil {
			key := filestore.LeadsKey(dup.ID)
			if err := s.files.Put(ctx, key, data); err != nil {
				return nil, fmt.Errorf("copy leads file: %w", err)
			}
			dup.LeadsFileID = &key
		}
	}
	if src.TemplateFileID != nil {
		if data, err := s.files.Get(ctx, *src.TemplateFileID); err == nil {
			key := filestore.TemplateKey(dup.ID)
			if err := s.files.Put(ctx, key, data); err != nil {
				return nil, fmt.Errorf("copy template file: %w", err)
			}
			dup.TemplateFileID = &key
		}
	}

	if err := s.repo.Create(ctx, &dup); err != nil {
		return nil, err
	}
	return &dup, nil
}

// Reset clears the campaign's history ledger and zeroes its mirrored
// stats, making every recipient eligible again.
func (s *Service) Reset(ctx context.Context, id string) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	if err := s.histories.Reset(ctx, id); err != nil {
		return err
	}
	return s.repo.UpdateStats(ctx, id, 0, 0)
}

// Delete removes the campaign, its history ledger, and its stored
// documents.
func (s *Service) Delete(ctx context.Context, id string) error {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.histories.Delete(ctx, id); err != nil {
		log.Printf("[campaign] delete %s: removing history: %v", id, err)
	}
	if c.LeadsFileID != nil {
		if err := s.files.Delete(ctx, *c.LeadsFileID); err != nil {
			log.Printf("[campaign] delete %s: removing leads file: %v", id, err)
		}
	}
	if c.TemplateFileID != nil {
		if err := s.files.Delete(ctx, *c.TemplateFileID); err != nil {
			log.Printf("[campaign] delete %s: removing template file: %v", id, err)
		}
	}
	return nil
}

// UploadLeads parses and stores a recipient CSV for the campaign and
// recounts total_leads.
func (s *Service) UploadLeads(ctx context.Context, id string, data []byte) (*domain.Campaign, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	list, err := leads.ParseCSV(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse leads: %w", err)
	}

	key := filestore.LeadsKey(id)
	if err := s.files.Put(ctx, key, data); err != nil {
		return nil, fmt.Errorf("store leads: %w", err)
	}
	c.LeadsFileID = &key
	c.TotalLeads = len(list.Rows)
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UploadTemplate stores the campaign's template body.
func (s *Service) UploadTemplate(ctx context.Context, id string, body []byte) (*domain.Campaign, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: template body is empty", ErrInvalidInput)
	}

	key := filestore.TemplateKey(id)
	if err := s.files.Put(ctx, key, body); err != nil {
		return nil, fmt.Errorf("store template: %w", err)
	}
	c.TemplateFileID = &key
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadLeads returns the campaign's parsed recipient rows.
func (s *Service) LoadLeads(ctx context.Context, c *domain.Campaign) (domain.LeadList, error) {
	if c.LeadsFileID == nil {
		return domain.LeadList{}, ErrNoLeads
	}
	data, err := s.files.Get(ctx, *c.LeadsFileID)
	if err == filestore.ErrNotFound {
		return domain.LeadList{}, ErrNoLeads
	}
	if err != nil {
		return domain.LeadList{}, fmt.Errorf("load leads: %w", err)
	}
	return leads.ParseCSV(bytes.NewReader(data))
}

// LoadTemplate returns the campaign's template body.
func (s *Service) LoadTemplate(ctx context.Context, c *domain.Campaign) (string, error) {
	if c.TemplateFileID == nil {
		return "", ErrNoTemplate
	}
	data, err := s.files.Get(ctx, *c.TemplateFileID)
	if err == filestore.ErrNotFound {
		return "", ErrNoTemplate
	}
	if err != nil {
		return "", fmt.Errorf("load template: %w", err)
	}
	return string(data), nil
}

// ClearSchedule degrades a consumed one-time schedule to immediate so it
// never re-fires. Called by the execution loop when the evaluator reports
// the one-time transition.
func (s *Service) ClearSchedule(ctx context.Context, id string) error {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	c.Schedule = c.Schedule.Cleared()
	return s.repo.Save(ctx, c)
}

// SetStatus transitions the campaign's lifecycle state.
func (s *Service) SetStatus(ctx context.Context, id string, status domain.CampaignStatus) error {
	return s.repo.UpdateStatus(ctx, id, status)
}

// RefreshStats mirrors the ledger's set sizes onto the campaign record.
// Called after every attempt; failures are logged by the caller, never
// fatal.
func (s *Service) RefreshStats(ctx context.Context, id string, h *domain.History) error {
	return s.repo.UpdateStats(ctx, id, len(h.Sent), len(h.Failed))
}

// Stats is the inspectable aggregate view of one campaign's progress.
type Stats struct {
	CampaignID  string `json:"campaign_id"`
	Status      string `json:"status"`
	TotalSent   int    `json:"total_sent"`
	TotalFailed int    `json:"total_failed"`
	TotalLeads  int    `json:"total_leads"`
	Processing  int    `json:"processing"`
	SentToday   int    `json:"sent_today"`
	DailyLimit  int    `json:"daily_limit"`
}

// Stats recomputes the campaign's progress from the ledger.
func (s *Service) Stats(ctx context.Context, id string, now time.Time) (*Stats, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	h, err := s.histories.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Stats{
		CampaignID:  c.ID,
		Status:      string(c.Status),
		TotalSent:   len(h.Sent),
		TotalFailed: len(h.Failed),
		TotalLeads:  c.TotalLeads,
		Processing:  len(h.Processing),
		SentToday:   h.SentOn(now),
		DailyLimit:  c.DailyLimit,
	}, nil
}
