package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"clubdesk/internal/domain/fault"
	"clubdesk/internal/domain/identity"
	"clubdesk/internal/domain/membership"
	"clubdesk/internal/domain/profile"
)

// MembershipWriterForSync defines the store interface needed by the
// membership sync. Both methods are transactional over the membership
// and profile rows.
type MembershipWriterForSync interface {
	UpsertWithProfile(ctx context.Context, m membership.Membership, p profile.UserProfile) error
	RemoveWithProfile(ctx context.Context, clubID, userID, resetRole string, now time.Time) error
}

// MembershipSyncDeps holds dependencies for membership sync.
type MembershipSyncDeps struct {
	MembershipStore MembershipWriterForSync
	Now             func() time.Time
}

// SyncMembership upserts the canonical membership record and the
// mirrored user profile as one atomic write. JoinedAt and the
// profile's CreatedAt/Email are only persisted on create.
// PRE: clubID, userID, email, and a valid role are provided
// POST: Membership row has role/status active; profile mirrors role and club
func SyncMembership(ctx context.Context, deps MembershipSyncDeps, clubID, userID, email, role string) error {
	now := deps.Now()

	m := membership.Membership{
		ClubID:    clubID,
		UserID:    userID,
		Role:      role,
		Status:    membership.StatusActive,
		JoinedAt:  now,
		UpdatedAt: now,
	}
	if err := m.Validate(); err != nil {
		return fault.Wrap(fault.InvalidArgument, "invalid membership", err)
	}

	p := profile.UserProfile{
		UserID:    userID,
		Email:     email,
		Role:      role,
		TeamID:    clubID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.Validate(); err != nil {
		return fault.Wrap(fault.InvalidArgument, "invalid profile", err)
	}

	if err := deps.MembershipStore.UpsertWithProfile(ctx, m, p); err != nil {
		return fault.Wrap(fault.Unknown, "failed to write membership", err)
	}

	slog.Info("membership_event", "event", "membership_synced", "club_id", clubID, "user_id", userID, "role", role)
	return nil
}

// RemoveMembership deletes the membership record and resets the
// profile's role and club binding back to an unaffiliated athlete, as
// one atomic write.
// PRE: clubID and userID are non-empty
// POST: Membership row absent; profile role athlete, team cleared
func RemoveMembership(ctx context.Context, deps MembershipSyncDeps, clubID, userID string) error {
	if clubID == "" || userID == "" {
		return fault.New(fault.InvalidArgument, "club id and user id are required")
	}

	if err := deps.MembershipStore.RemoveWithProfile(ctx, clubID, userID, identity.RoleAthlete, deps.Now()); err != nil {
		return fault.Wrap(fault.Unknown, "failed to remove membership", err)
	}

	slog.Info("membership_event", "event", "membership_removed", "club_id", clubID, "user_id", userID)
	return nil
}
