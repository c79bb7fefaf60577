package sender

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ignite/campaign-runner/internal/domain"
	"github.com/ignite/campaign-runner/internal/mailer"
)

// HealthProber verifies a sender's credential against the SMTP server
// without sending anything.
type HealthProber interface {
	CheckHealth(s *domain.Sender) error
}

// Service implements sender account business logic.
type Service struct {
	repo   Repository
	prober HealthProber
}

// NewService creates a sender service. prober may be nil when health
// checks are not wired (tests).
func NewService(repo Repository, prober HealthProber) *Service {
	return &Service{repo: repo, prober: prober}
}

// List returns all registered senders.
func (s *Service) List(ctx context.Context) ([]*domain.Sender, error) {
	return s.repo.List(ctx)
}

// CreateInput holds the fields for registering a sender account.
type CreateInput struct {
	Email       string `json:"email"`
	AppPassword string `json:"app_password"`
}

// Create validates and registers a new sender account. The app password is
// stored exactly as supplied; validation measures the trimmed form only.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Sender, error) {
	email := strings.TrimSpace(input.Email)
	if err := mailer.ValidateSenderEmail(email); err != nil {
		return nil, err
	}
	if err := mailer.ValidateAppPassword(input.AppPassword); err != nil {
		return nil, err
	}

	acct := &domain.Sender{
		ID:          uuid.New().String(),
		Email:       email,
		AppPassword: input.AppPassword,
	}
	if err := s.repo.Create(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// Delete removes a sender account.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// CheckHealth dials and authenticates as the sender. The returned error is
// the probe failure, suitable for display.
func (s *Service) CheckHealth(ctx context.Context, id string) error {
	acct, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if s.prober == nil {
		return fmt.Errorf("health probe not configured")
	}
	return s.prober.CheckHealth(acct)
}

// Resolve maps a campaign's selected addresses to registered accounts,
// preserving the selection order the rotor indexes into. Selected
// addresses with no matching account are skipped; an empty result is
// ErrNoneSelected.
func (s *Service) Resolve(ctx context.Context, selected []string) ([]*domain.Sender, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load senders: %w", err)
	}
	byEmail := make(map[string]*domain.Sender, len(all))
	for _, acct := range all {
		byEmail[acct.Email] = acct
	}

	var out []*domain.Sender
	for _, email := range selected {
		if acct, ok := byEmail[email]; ok {
			out = append(out, acct)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoneSelected
	}
	return out, nil
}
