package profile

import (
	"context"

	domain "clubdesk/internal/domain/profile"
)

// Store persists UserProfile state. Writes paired with membership
// changes go through the membership store's transactional methods;
// this store covers standalone reads and writes.
type Store interface {
	GetByID(ctx context.Context, userID string) (domain.UserProfile, error)
	Save(ctx context.Context, value domain.UserProfile) error
}
