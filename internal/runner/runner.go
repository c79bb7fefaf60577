// Package runner drives one campaign's execution loop: poll the schedule,
// select the eligible batch, rotate senders, send, and record every
// attempt durably before moving on.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ignite/campaign-runner/internal/dedup"
	"github.com/ignite/campaign-runner/internal/domain"
	"github.com/ignite/campaign-runner/internal/mailer"
	"github.com/ignite/campaign-runner/internal/personalize"
	"github.com/ignite/campaign-runner/internal/rotation"
	"github.com/ignite/campaign-runner/internal/schedule"
)

const (
	// BatchCap bounds how many recipients one pass processes before
	// yielding back to the schedule check, keeping passes responsive to
	// stop requests.
	BatchCap = 10

	// DefaultPollInterval is the sleep between schedule re-checks while
	// the campaign is not eligible to send.
	DefaultPollInterval = 60 * time.Second

	// DefaultErrorCooldown is the back-off after an unexpected pass error.
	DefaultErrorCooldown = 60 * time.Second
)

// Config tunes the loop's waiting behavior.
type Config struct {
	PollInterval  time.Duration
	ErrorCooldown time.Duration
}

// Runner executes one campaign until it completes, fails to load, or is
// stopped through context cancellation. One Runner per campaign at a
// time; the supervisor enforces that.
type Runner struct {
	campaignID string
	campaigns  CampaignStore
	senders    SenderResolver
	ledger     Ledger
	transport  Transport
	audit      mailer.AuditLog
	cfg        Config

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) bool
}

// New creates a runner for one campaign.
func New(campaignID string, campaigns CampaignStore, senders SenderResolver, ledger Ledger, transport Transport, audit mailer.AuditLog, cfg Config) *Runner {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.ErrorCooldown <= 0 {
		cfg.ErrorCooldown = DefaultErrorCooldown
	}
	return &Runner{
		campaignID: campaignID,
		campaigns:  campaigns,
		senders:    senders,
		ledger:     ledger,
		transport:  transport,
		audit:      audit,
		cfg:        cfg,
		now:        time.Now,
		sleep:      sleepCtx,
	}
}

// loaded is everything a pass needs, fetched once up front. A failure to
// assemble it is fatal to the run.
type loaded struct {
	campaign *domain.Campaign
	leads    domain.LeadList
	template string
	senders  []*domain.Sender
}

// Run blocks until the campaign completes naturally, a fatal load error
// occurs, or ctx is cancelled. On natural exhaustion the campaign is
// persisted completed; on fatal load errors it is persisted paused with
// the reason returned. Cancellation leaves status handling to the caller.
func (r *Runner) Run(ctx context.Context) error {
	l, err := r.load(ctx)
	if err != nil {
		log.Printf("[runner] campaign %s: load failed: %v", r.campaignID, err)
		if stErr := r.campaigns.SetStatus(ctx, r.campaignID, domain.CampaignPaused); stErr != nil {
			log.Printf("[runner] campaign %s: persisting paused: %v", r.campaignID, stErr)
		}
		return err
	}
	log.Printf("[runner] campaign %s: starting (%d leads, %d senders, limit %d/day)",
		r.campaignID, len(l.leads.Rows), len(l.senders), l.campaign.DailyLimit)

	for {
		if ctx.Err() != nil {
			return nil
		}

		processed, err := r.pass(ctx, l)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("[runner] campaign %s: pass error, cooling down %v: %v",
				r.campaignID, r.cfg.ErrorCooldown, err)
			if !r.sleep(ctx, r.cfg.ErrorCooldown) {
				return nil
			}
			continue
		}

		switch {
		case processed < 0:
			// Schedule said no; wait and re-poll.
			if !r.sleep(ctx, r.cfg.PollInterval) {
				return nil
			}
		case processed == 0:
			log.Printf("[runner] campaign %s: no eligible recipients left, completing", r.campaignID)
			if err := r.campaigns.SetStatus(ctx, r.campaignID, domain.CampaignCompleted); err != nil {
				log.Printf("[runner] campaign %s: persisting completed: %v", r.campaignID, err)
			}
			return nil
		}
	}
}

func (r *Runner) load(ctx context.Context) (*loaded, error) {
	c, err := r.campaigns.Get(ctx, r.campaignID)
	if err != nil {
		return nil, fmt.Errorf("load campaign: %w", err)
	}
	leadList, err := r.campaigns.LoadLeads(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("load leads: %w", err)
	}
	if len(leadList.Rows) == 0 {
		return nil, errors.New("leads file has no rows")
	}
	template, err := r.campaigns.LoadTemplate(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}
	accounts, err := r.senders.Resolve(ctx, c.SelectedSenders)
	if err != nil {
		return nil, fmt.Errorf("resolve senders: %w", err)
	}
	return &loaded{campaign: c, leads: leadList, template: template, senders: accounts}, nil
}

// pass runs one schedule check and, when eligible, one bounded sending
// batch. Returns -1 when the schedule said not now, otherwise the number
// of recipients processed.
func (r *Runner) pass(ctx context.Context, l *loaded) (int, error) {
	now := r.now()
	h, err := r.ledger.LoadForExecution(ctx, r.campaignID, now)
	if err != nil {
		return 0, err
	}

	decision := schedule.ShouldRun(l.campaign, h, now)
	if decision.ConsumedOneTime {
		// Persist the cleared schedule before sending so a crash cannot
		// re-fire the one-time trigger.
		if err := r.campaigns.ClearSchedule(ctx, r.campaignID); err != nil {
			return 0, fmt.Errorf("clear one-time schedule: %w", err)
		}
		l.campaign.Schedule = l.campaign.Schedule.Cleared()
	}
	if !decision.Run {
		log.Printf("[runner] campaign %s: waiting (%s)", r.campaignID, decision.Reason)
		return -1, nil
	}

	return r.sendBatch(ctx, l, h)
}

func (r *Runner) sendBatch(ctx context.Context, l *loaded, h *domain.History) (int, error) {
	c := l.campaign
	now := r.now()

	cap := BatchCap
	if remaining := c.DailyLimit - h.SentOn(now); remaining < cap {
		cap = remaining
	}
	if cap <= 0 {
		return 0, nil
	}

	eligible := dedup.Eligible(l.leads, h.Blacklist())
	if len(eligible) == 0 {
		return 0, nil
	}

	// Rotor base: persisted successes before this batch. Failed attempts
	// never advance it.
	sentGlobal := len(h.Sent)
	sentThisBatch := 0
	processed := 0

	for _, rcpt := range eligible {
		if processed >= cap {
			break
		}
		if ctx.Err() != nil {
			return processed, nil
		}

		now = r.now()
		if err := r.ledger.RecordProcessing(ctx, h, rcpt.Email, now); err != nil {
			return processed, err
		}

		acct, err := rotation.Pick(l.senders, sentGlobal, sentThisBatch)
		if err != nil {
			return processed, err
		}
		body := personalize.Render(l.template, rcpt.Row)

		sendErr := r.transport.Send(acct, rcpt.Email, c.SubjectLine, body)
		success := sendErr == nil
		if success {
			sentThisBatch++
		} else {
			log.Printf("[runner] campaign %s: send to %s failed: %v", r.campaignID, rcpt.Email, sendErr)
		}

		entry := domain.EmailLogEntry{
			Timestamp: r.now(),
			Sender:    acct.Email,
			Recipient: rcpt.Email,
			Subject:   c.SubjectLine,
			Status:    domain.EmailLogSent,
		}
		if !success {
			entry.Status = domain.EmailLogFailed
			entry.Detail = sendErr.Error()
		}
		r.audit.Append(ctx, entry)

		if err := r.ledger.RecordOutcome(ctx, h, rcpt.Email, success, r.now()); err != nil {
			return processed, err
		}
		if err := r.campaigns.RefreshStats(ctx, r.campaignID, h); err != nil {
			log.Printf("[runner] campaign %s: refreshing stats: %v", r.campaignID, err)
		}
		processed++

		// Delay after every attempt, including the batch's last: the next
		// pass may start sending immediately, and pacing must hold across
		// batch boundaries too.
		if !r.sleep(ctx, c.Delay()) {
			return processed, nil
		}
	}
	log.Printf("[runner] campaign %s: pass done, %d processed (%d sent)", r.campaignID, processed, sentThisBatch)
	return processed, nil
}

// sleepCtx sleeps for d or until ctx is done. Returns false when
// cancelled.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
