package history

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ignite/campaign-runner/internal/domain"
)

// DefaultStalenessWindow is how long an address may sit in processing
// before it is treated as abandoned.
const DefaultStalenessWindow = time.Hour

// Service implements ledger business logic: load-or-create, staleness
// eviction, per-attempt recording, and reset.
type Service struct {
	repo            Repository
	stalenessWindow time.Duration
}

// NewService creates a history service. A non-positive window falls back
// to DefaultStalenessWindow.
func NewService(repo Repository, stalenessWindow time.Duration) *Service {
	if stalenessWindow <= 0 {
		stalenessWindow = DefaultStalenessWindow
	}
	return &Service{repo: repo, stalenessWindow: stalenessWindow}
}

// Get returns the campaign's ledger, or a fresh empty one if the campaign
// has never recorded anything. The empty ledger is not persisted until the
// first mutation.
func (s *Service) Get(ctx context.Context, campaignID string) (*domain.History, error) {
	h, err := s.repo.Get(ctx, campaignID)
	if err == ErrNotFound {
		return domain.NewHistory(campaignID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return h, nil
}

// LoadForExecution returns the ledger ready for an eligibility
// computation: stale processing entries are evicted first, and an eviction
// is persisted so abandonment survives the next restart too.
func (s *Service) LoadForExecution(ctx context.Context, campaignID string, now time.Time) (*domain.History, error) {
	h, err := s.Get(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if evicted := h.EvictStale(s.stalenessWindow, now); len(evicted) > 0 {
		log.Printf("[history] campaign %s: evicted %d stale processing entries: %v",
			campaignID, len(evicted), evicted)
		if err := s.repo.Save(ctx, h); err != nil {
			return nil, fmt.Errorf("persist eviction: %w", err)
		}
	}
	return h, nil
}

// RecordProcessing marks addr in flight at now and persists immediately.
// This is the first half of the per-attempt durability contract.
func (s *Service) RecordProcessing(ctx context.Context, h *domain.History, addr string, now time.Time) error {
	h.MarkProcessing(addr, now)
	if err := s.repo.Save(ctx, h); err != nil {
		return fmt.Errorf("persist processing mark: %w", err)
	}
	return nil
}

// RecordOutcome settles addr as sent or failed and persists immediately.
// This is the second half of the per-attempt durability contract.
func (s *Service) RecordOutcome(ctx context.Context, h *domain.History, addr string, sent bool, now time.Time) error {
	if sent {
		h.MarkSent(addr, now)
	} else {
		h.MarkFailed(addr)
	}
	if err := s.repo.Save(ctx, h); err != nil {
		return fmt.Errorf("persist outcome: %w", err)
	}
	return nil
}

// Reset clears every outcome set and counter, making all recipients
// eligible again. A campaign with no ledger resets to a no-op.
func (s *Service) Reset(ctx context.Context, campaignID string) error {
	h, err := s.repo.Get(ctx, campaignID)
	if err == ErrNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	h.Reset()
	if err := s.repo.Save(ctx, h); err != nil {
		return fmt.Errorf("persist reset: %w", err)
	}
	return nil
}

// Delete removes the campaign's ledger entirely.
func (s *Service) Delete(ctx context.Context, campaignID string) error {
	return s.repo.Delete(ctx, campaignID)
}
