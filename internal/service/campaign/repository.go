package campaign

import (
	"context"

	"github.com/ignite/campaign-runner/internal/domain"
)

// Repository defines the data access contract for campaigns.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single campaign. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.Campaign, error)

	// List returns all campaigns ordered by created_at DESC.
	List(ctx context.Context) ([]domain.Campaign, error)

	// Create inserts a new campaign.
	Create(ctx context.Context, c *domain.Campaign) error

	// Save replaces the full campaign document.
	Save(ctx context.Context, c *domain.Campaign) error

	// Delete removes a campaign. Returns ErrNotFound if it doesn't exist.
	Delete(ctx context.Context, id string) error

	// UpdateStatus transitions a campaign's status without touching the
	// rest of the document.
	UpdateStatus(ctx context.Context, id string, status domain.CampaignStatus) error

	// UpdateStats mirrors history set sizes onto the campaign record.
	UpdateStats(ctx context.Context, id string, totalSent, totalFailed int) error
}
