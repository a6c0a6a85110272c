package ports

import (
	"context"

	"github.com/aretw0/tendril/pkg/domain"
)

// RunStore keeps finished run records so service surfaces can return them by ID.
// Records are ephemeral: stores may expire them and nothing reloads them to resume a run.
type RunStore interface {
	// Save persists the record under record.ID.
	Save(ctx context.Context, record *domain.RunRecord) error

	// Load retrieves a record by ID.
	// Returns domain.ErrRunNotFound if the record does not exist.
	Load(ctx context.Context, runID string) (*domain.RunRecord, error)

	// Delete removes a record.
	Delete(ctx context.Context, runID string) error

	// List returns the IDs of the records currently held.
	List(ctx context.Context) ([]string, error)
}
