package runner

import (
	"context"
	"time"

	"github.com/ignite/campaign-runner/internal/domain"
)

// CampaignStore is the slice of the campaign service the execution loop
// depends on. Satisfied by *campaign.Service.
type CampaignStore interface {
	Get(ctx context.Context, id string) (*domain.Campaign, error)
	LoadLeads(ctx context.Context, c *domain.Campaign) (domain.LeadList, error)
	LoadTemplate(ctx context.Context, c *domain.Campaign) (string, error)
	ClearSchedule(ctx context.Context, id string) error
	SetStatus(ctx context.Context, id string, status domain.CampaignStatus) error
	RefreshStats(ctx context.Context, id string, h *domain.History) error
}

// SenderResolver maps a campaign's selected addresses to concrete sender
// accounts in rotation order. Satisfied by *sender.Service.
type SenderResolver interface {
	Resolve(ctx context.Context, selected []string) ([]*domain.Sender, error)
}

// Ledger is the slice of the history service the execution loop depends
// on. Satisfied by *history.Service.
type Ledger interface {
	LoadForExecution(ctx context.Context, campaignID string, now time.Time) (*domain.History, error)
	RecordProcessing(ctx context.Context, h *domain.History, addr string, now time.Time) error
	RecordOutcome(ctx context.Context, h *domain.History, addr string, sent bool, now time.Time) error
}

// Transport submits one message. The loop branches only on success vs
// failure; the error text is logged and audited. Satisfied by
// *mailer.SMTP.
type Transport interface {
	Send(sender *domain.Sender, recipient, subject, body string) error
}
