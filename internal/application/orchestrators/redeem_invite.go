package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"clubdesk/internal/domain/fault"
	"clubdesk/internal/domain/identity"
	"clubdesk/internal/domain/invite"
	"clubdesk/internal/observability"
)

// InviteStoreForRedeem defines the invite store interface needed by
// redemption.
type InviteStoreForRedeem interface {
	GetByID(ctx context.Context, clubID, id string) (invite.Invite, error)
	MarkUsedIfPending(ctx context.Context, clubID, id string, usedAt time.Time) (bool, error)
}

// RedeemInviteInput carries input for the orchestrator.
type RedeemInviteInput struct {
	ClubID   string
	InviteID string
}

// RedeemInviteDeps holds dependencies for RedeemInvite.
type RedeemInviteDeps struct {
	InviteStore InviteStoreForRedeem
	Claims      ClaimsDeps
	Sync        MembershipSyncDeps
	Now         func() time.Time
}

// ExecuteRedeemInvite joins the caller to the invite's club with the
// invite's granted role. The guards run in a fixed order so the caller
// always gets the most specific failure: missing invite, already
// settled, expired, then email mismatch. The membership write happens
// before the invite is marked used, so an invite is never consumed
// without at least an attempted membership. The mark itself is a
// conditional transition; losing that race is reported as a conflict.
// PRE: caller is authenticated with a verified email
// POST: membership (clubID, caller) exists with granted role; invite used
func ExecuteRedeemInvite(ctx context.Context, input RedeemInviteInput, caller Caller, deps RedeemInviteDeps) error {
	if !caller.IsAuthenticated() {
		return fault.New(fault.Unauthenticated, "sign in required")
	}
	if strings.TrimSpace(input.ClubID) == "" || strings.TrimSpace(input.InviteID) == "" {
		return fault.New(fault.InvalidArgument, "club id and invite id are required")
	}

	inv, err := deps.InviteStore.GetByID(ctx, input.ClubID, input.InviteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			observability.RecordInviteRedemption("not_found")
			return fault.New(fault.NotFound, "invite not found")
		}
		return fault.Wrap(fault.Unknown, "invite lookup failed", err)
	}

	now := deps.Now()
	if err := inv.CheckRedeemable(now, caller.Email); err != nil {
		switch {
		case errors.Is(err, invite.ErrNotPending):
			observability.RecordInviteRedemption("not_pending")
			return fault.New(fault.FailedPrecondition, "invite is no longer pending")
		case errors.Is(err, invite.ErrExpired):
			observability.RecordInviteRedemption("expired")
			return fault.New(fault.DeadlineExceeded, "invite has expired")
		case errors.Is(err, invite.ErrEmailMismatch):
			observability.RecordInviteRedemption("email_mismatch")
			return fault.New(fault.PermissionDenied, "invite was issued to a different email")
		default:
			return fault.Wrap(fault.Unknown, "invite check failed", err)
		}
	}

	role := inv.GrantedRole()
	if err := SyncMembership(ctx, deps.Sync, input.ClubID, caller.UserID, caller.Email, role); err != nil {
		observability.RecordInviteRedemption("membership_failed")
		return err
	}

	if role == identity.RoleAdmin {
		patch := map[string]any{
			identity.ClaimRole:   identity.RoleAdmin,
			identity.ClaimClubID: input.ClubID,
		}
		if err := ExecuteSetClaims(ctx, deps.Claims, caller.UserID, patch); err != nil {
			return err
		}
	}

	won, err := deps.InviteStore.MarkUsedIfPending(ctx, input.ClubID, input.InviteID, now)
	if err != nil {
		return fault.Wrap(fault.Unknown, "failed to mark invite used", err)
	}
	if !won {
		observability.RecordInviteRedemption("lost_race")
		return fault.New(fault.FailedPrecondition, "invite was redeemed concurrently")
	}

	observability.RecordInviteRedemption("success")
	slog.Info("invite_event", "event", "invite_redeemed", "club_id", input.ClubID, "invite_id", input.InviteID, "user_id", caller.UserID, "role", role)
	return nil
}
