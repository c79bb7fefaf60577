// Package supervisor owns the set of running campaign loops and the
// future-activation triggers that start campaigns at their scheduled
// times. One instance is created at process start and torn down at
// shutdown; there is no package-level state.
package supervisor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ignite/campaign-runner/internal/domain"
	"github.com/ignite/campaign-runner/internal/mailer"
	"github.com/ignite/campaign-runner/internal/runner"
	"github.com/ignite/campaign-runner/internal/service/campaign"
	"github.com/ignite/campaign-runner/internal/service/history"
	"github.com/ignite/campaign-runner/internal/service/sender"
)

// Supervisor starts, stops, and tracks campaign execution loops. The
// active-set check is what enforces the single-writer-per-campaign
// invariant the history ledger relies on.
type Supervisor struct {
	campaigns *campaign.Service
	senders   *sender.Service
	histories *history.Service
	transport runner.Transport
	audit     mailer.AuditLog
	runnerCfg runner.Config

	mu      sync.Mutex
	active  map[string]*activeRun
	entries map[string]cron.EntryID
	timers  map[string]*time.Timer
	cron    *cron.Cron
	wg      sync.WaitGroup
}

type activeRun struct {
	cancel    context.CancelFunc
	startedAt time.Time
}

// New creates a supervisor. The cron scheduler starts ticking immediately;
// it has no entries until campaigns are scheduled.
func New(campaigns *campaign.Service, senders *sender.Service, histories *history.Service, transport runner.Transport, audit mailer.AuditLog, runnerCfg runner.Config) *Supervisor {
	s := &Supervisor{
		campaigns: campaigns,
		senders:   senders,
		histories: histories,
		transport: transport,
		audit:     audit,
		runnerCfg: runnerCfg,
		active:    make(map[string]*activeRun),
		entries:   make(map[string]cron.EntryID),
		timers:    make(map[string]*time.Timer),
		cron:      cron.New(),
	}
	s.cron.Start()
	return s
}

// Start spawns the execution loop for a campaign whose stored status is
// already running. Returns true if the campaign is running when the call
// returns (including the already-running no-op), false if it does not
// exist or is not in a startable state.
func (s *Supervisor) Start(ctx context.Context, campaignID string) bool {
	s.mu.Lock()
	if _, ok := s.active[campaignID]; ok {
		s.mu.Unlock()
		log.Printf("[supervisor] campaign %s already running", campaignID)
		return true
	}
	s.mu.Unlock()

	c, err := s.campaigns.Get(ctx, campaignID)
	if err != nil {
		log.Printf("[supervisor] start %s: %v", campaignID, err)
		return false
	}
	if c.Status != domain.CampaignRunning {
		log.Printf("[supervisor] start %s: status is %s, not running", campaignID, c.Status)
		return false
	}

	s.launch(campaignID)
	return true
}

// launch registers and spawns the loop. Callers have already validated
// the stored status.
func (s *Supervisor) launch(campaignID string) {
	runCtx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	if _, ok := s.active[campaignID]; ok {
		s.mu.Unlock()
		cancel()
		return
	}
	s.active[campaignID] = &activeRun{cancel: cancel, startedAt: time.Now()}
	s.mu.Unlock()

	r := runner.New(campaignID, s.campaigns, s.senders, s.histories, s.transport, s.audit, s.runnerCfg)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.active, campaignID)
			s.mu.Unlock()
			cancel()
		}()
		if err := r.Run(runCtx); err != nil {
			log.Printf("[supervisor] campaign %s stopped: %v", campaignID, err)
		}
	}()
	log.Printf("[supervisor] campaign %s started", campaignID)
}

// Stop cancels a running campaign's loop and persists its status as
// paused. Returns false if the campaign is not running.
func (s *Supervisor) Stop(ctx context.Context, campaignID string) bool {
	s.mu.Lock()
	run, ok := s.active[campaignID]
	if ok {
		delete(s.active, campaignID)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}

	run.cancel()
	if err := s.campaigns.SetStatus(ctx, campaignID, domain.CampaignPaused); err != nil {
		log.Printf("[supervisor] stop %s: persisting paused: %v", campaignID, err)
	}
	log.Printf("[supervisor] campaign %s stopped", campaignID)
	return true
}

// activate is what future triggers call: persist the running status, then
// spawn the loop. Skips campaigns that are already running.
func (s *Supervisor) activate(campaignID string) {
	s.mu.Lock()
	_, running := s.active[campaignID]
	s.mu.Unlock()
	if running {
		return
	}

	ctx := context.Background()
	if err := s.campaigns.SetStatus(ctx, campaignID, domain.CampaignRunning); err != nil {
		log.Printf("[supervisor] activate %s: %v", campaignID, err)
		return
	}
	log.Printf("[supervisor] campaign %s activated by schedule", campaignID)
	s.launch(campaignID)
}

// ScheduleFutureActivation registers the trigger the campaign's schedule
// calls for: a daily cron entry at its time of day, or a one-shot timer
// at its date+time. Immediate modes activate right away. Any prior
// trigger for the campaign is replaced.
func (s *Supervisor) ScheduleFutureActivation(ctx context.Context, campaignID string) error {
	c, err := s.campaigns.Get(ctx, campaignID)
	if err != nil {
		return err
	}
	s.clearTrigger(campaignID)

	switch c.Schedule.Mode {
	case domain.ScheduleImmediate, domain.ScheduleImmediateThenDaily, "":
		s.activate(campaignID)
		return nil

	case domain.ScheduleDaily:
		due, err := time.Parse(domain.TimeOfDayLayout, c.Schedule.TimeOfDay)
		if err != nil {
			return fmt.Errorf("invalid time_of_day %q: %w", c.Schedule.TimeOfDay, err)
		}
		spec := fmt.Sprintf("%d %d * * *", due.Minute(), due.Hour())
		id, err := s.cron.AddFunc(spec, func() { s.activate(campaignID) })
		if err != nil {
			return fmt.Errorf("register daily trigger: %w", err)
		}
		s.mu.Lock()
		s.entries[campaignID] = id
		s.mu.Unlock()
		log.Printf("[supervisor] campaign %s scheduled daily at %s", campaignID, c.Schedule.TimeOfDay)
		return nil

	case domain.ScheduleOneTime:
		at, err := time.ParseInLocation(domain.DateTimeLayout, c.Schedule.At, time.Local)
		if err != nil {
			return fmt.Errorf("invalid at %q: %w", c.Schedule.At, err)
		}
		delay := time.Until(at)
		if delay < 0 {
			delay = 0
		}
		timer := time.AfterFunc(delay, func() {
			s.mu.Lock()
			delete(s.timers, campaignID)
			s.mu.Unlock()
			s.activate(campaignID)
		})
		s.mu.Lock()
		s.timers[campaignID] = timer
		s.mu.Unlock()
		log.Printf("[supervisor] campaign %s scheduled once at %s", campaignID, c.Schedule.At)
		return nil

	default:
		return fmt.Errorf("unknown schedule mode %q", c.Schedule.Mode)
	}
}

func (s *Supervisor) clearTrigger(campaignID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.entries[campaignID]; ok {
		s.cron.Remove(id)
		delete(s.entries, campaignID)
	}
	if t, ok := s.timers[campaignID]; ok {
		t.Stop()
		delete(s.timers, campaignID)
	}
}

// ReconcileOnStartup resumes campaigns interrupted by a restart and
// re-registers pending schedule triggers.
func (s *Supervisor) ReconcileOnStartup(ctx context.Context) error {
	all, err := s.campaigns.List(ctx)
	if err != nil {
		return fmt.Errorf("list campaigns: %w", err)
	}

	resumed, scheduled := 0, 0
	for _, c := range all {
		switch {
		case c.Status == domain.CampaignRunning:
			if s.Start(ctx, c.ID) {
				resumed++
			}
		case c.Status == domain.CampaignPaused || c.Status == domain.CampaignDraft:
			if c.Schedule.Mode == domain.ScheduleDaily || c.Schedule.Mode == domain.ScheduleOneTime {
				if err := s.ScheduleFutureActivation(ctx, c.ID); err != nil {
					log.Printf("[supervisor] reconcile %s: %v", c.ID, err)
				} else {
					scheduled++
				}
			}
		}
	}
	log.Printf("[supervisor] reconcile: resumed %d, scheduled %d", resumed, scheduled)
	return nil
}

// CampaignState is one running campaign in a Status snapshot.
type CampaignState struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// Snapshot is the read-only observability view of the supervisor.
type Snapshot struct {
	RunningCount   int             `json:"running_count"`
	ScheduledCount int             `json:"scheduled_count"`
	Campaigns      []CampaignState `json:"campaigns"`
}

// Status returns a point-in-time snapshot of running loops and registered
// triggers.
func (s *Supervisor) Status() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		RunningCount:   len(s.active),
		ScheduledCount: len(s.entries) + len(s.timers),
		Campaigns:      make([]CampaignState, 0, len(s.active)),
	}
	for id, run := range s.active {
		snap.Campaigns = append(snap.Campaigns, CampaignState{
			ID:        id,
			Status:    string(domain.CampaignRunning),
			StartedAt: run.startedAt,
		})
	}
	return snap
}

// Shutdown cancels every loop and trigger and waits for the loops to
// finish their in-flight recipient.
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	for id, run := range s.active {
		run.cancel()
		delete(s.active, id)
	}
	for id, entry := range s.entries {
		s.cron.Remove(entry)
		delete(s.entries, id)
	}
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	cronCtx := s.cron.Stop()
	<-cronCtx.Done()
	s.wg.Wait()
	log.Printf("[supervisor] shut down")
}
