package goal

import (
	"context"

	domain "clubdesk/internal/domain/goal"
)

// Store persists Goal state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Goal, error)
	Save(ctx context.Context, value domain.Goal) error
	ListByAthlete(ctx context.Context, athleteID, clubID string) ([]domain.Goal, error)

	// ListInProgress returns the open goals for an athlete in one
	// club/category pair, the reconciler's working set.
	ListInProgress(ctx context.Context, athleteID, clubID, categoryID string) ([]domain.Goal, error)
}
