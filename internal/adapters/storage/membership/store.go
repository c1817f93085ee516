package membership

import (
	"context"
	"time"

	domainMembership "clubdesk/internal/domain/membership"
	domainProfile "clubdesk/internal/domain/profile"
)

// Store persists Membership state. The paired membership/profile
// writes run in one transaction so the two documents cannot diverge
// on a crash between them.
type Store interface {
	Get(ctx context.Context, clubID, userID string) (domainMembership.Membership, error)
	ListByClub(ctx context.Context, clubID string) ([]domainMembership.Membership, error)
	ListByUser(ctx context.Context, userID string) ([]domainMembership.Membership, error)

	// UpsertWithProfile merge-upserts the membership row and the user
	// profile row atomically. JoinedAt/CreatedAt are preserved on
	// update; email on the profile is only written on create.
	UpsertWithProfile(ctx context.Context, m domainMembership.Membership, p domainProfile.UserProfile) error

	// RemoveWithProfile deletes the membership row and resets the
	// profile's role/team binding atomically.
	RemoveWithProfile(ctx context.Context, clubID, userID, resetRole string, now time.Time) error
}
