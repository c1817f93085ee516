package invite

import (
	"context"
	"time"

	domain "clubdesk/internal/domain/invite"
)

// Store persists Invite state. State transitions out of pending are
// conditional updates so two concurrent redemptions cannot both win.
type Store interface {
	GetByID(ctx context.Context, clubID, id string) (domain.Invite, error)
	Save(ctx context.Context, value domain.Invite) error
	ListByClub(ctx context.Context, clubID string) ([]domain.Invite, error)

	// ListPendingByEmail finds pending invites across all clubs whose
	// email matches, case-insensitively.
	ListPendingByEmail(ctx context.Context, email string) ([]domain.Invite, error)

	// MarkUsedIfPending transitions pending → used and reports whether
	// this call won the transition. A false return with a nil error
	// means another caller got there first (or the invite is gone).
	MarkUsedIfPending(ctx context.Context, clubID, id string, usedAt time.Time) (bool, error)

	// MarkRevokedIfPending transitions pending → revoked under the
	// same conditional-update rule.
	MarkRevokedIfPending(ctx context.Context, clubID, id string) (bool, error)
}
