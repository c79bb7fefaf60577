package sender

import (
	"context"

	"github.com/ignite/campaign-runner/internal/domain"
)

// Repository defines the data access contract for sender accounts.
// Implementations must be safe for concurrent use.
type Repository interface {
	// List returns all registered senders ordered by creation time.
	List(ctx context.Context) ([]*domain.Sender, error)

	// Get returns a single sender by id. Returns ErrNotFound if missing.
	Get(ctx context.Context, id string) (*domain.Sender, error)

	// Create inserts a new sender. Returns ErrDuplicate if the email is
	// already registered.
	Create(ctx context.Context, s *domain.Sender) error

	// Delete removes a sender by id. Returns ErrNotFound if missing.
	Delete(ctx context.Context, id string) error
}
