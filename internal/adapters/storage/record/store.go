package record

import (
	"context"

	domain "clubdesk/internal/domain/record"
)

// Store persists PerformanceRecord state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.PerformanceRecord, error)
	Save(ctx context.Context, value domain.PerformanceRecord) error
	ListByAthlete(ctx context.Context, athleteID, clubID string) ([]domain.PerformanceRecord, error)

	// BestActive returns the athlete's highest-valued active record in
	// a category. Ties break arbitrarily; "best" is order-insensitive
	// under equal values. Reports found=false when no active record
	// exists.
	BestActive(ctx context.Context, athleteID, categoryID string) (domain.PerformanceRecord, bool, error)

	// SoftDelete marks a record inactive without removing the row.
	SoftDelete(ctx context.Context, id string) error

	// SoftDeleteByCategory marks every record of a category inactive.
	// Returns the number of records affected.
	SoftDeleteByCategory(ctx context.Context, categoryID string) (int64, error)
}
