package history

import (
	"context"

	"github.com/ignite/campaign-runner/internal/domain"
)

// Repository defines the data access contract for history records.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns the ledger for a campaign. Returns ErrNotFound if the
	// campaign has never recorded anything.
	Get(ctx context.Context, campaignID string) (*domain.History, error)

	// Save replaces the full ledger document (insert-or-update).
	Save(ctx context.Context, h *domain.History) error

	// Delete removes a campaign's ledger. Deleting a missing ledger is
	// not an error.
	Delete(ctx context.Context, campaignID string) error
}
