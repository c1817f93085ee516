package orchestrators

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"clubdesk/internal/domain/fault"
	"clubdesk/internal/domain/identity"
	"clubdesk/internal/domain/invite"
	"clubdesk/internal/observability"
)

// InviteStoreForAcceptPending defines the invite store interface
// needed by the sign-up sweep.
type InviteStoreForAcceptPending interface {
	ListPendingByEmail(ctx context.Context, email string) ([]invite.Invite, error)
	MarkUsedIfPending(ctx context.Context, clubID, id string, usedAt time.Time) (bool, error)
}

// AcceptPendingDeps holds dependencies for AcceptPendingByEmail.
type AcceptPendingDeps struct {
	InviteStore InviteStoreForAcceptPending
	Claims      ClaimsDeps
	Sync        MembershipSyncDeps
	Now         func() time.Time
}

// AcceptPendingItem reports the outcome for a single matched invite.
type AcceptPendingItem struct {
	ClubID   string `json:"club_id"`
	InviteID string `json:"invite_id"`
	Role     string `json:"role"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// AcceptPendingResult summarises a sweep across all matched invites.
type AcceptPendingResult struct {
	Matched   int                 `json:"matched"`
	Processed int                 `json:"processed"`
	Items     []AcceptPendingItem `json:"items"`
}

// ExecuteAcceptPendingByEmail finds every pending invite addressed to
// the caller's email, across all clubs, and redeems each one
// independently. One failing invite never blocks the rest; each item
// carries its own outcome. Running the sweep twice is harmless since
// redeemed invites are no longer pending.
// PRE: caller is authenticated with a verified email
// POST: every redeemable matched invite is used and its membership written
func ExecuteAcceptPendingByEmail(ctx context.Context, caller Caller, deps AcceptPendingDeps) (AcceptPendingResult, error) {
	if !caller.IsAuthenticated() {
		return AcceptPendingResult{}, fault.New(fault.Unauthenticated, "sign in required")
	}
	if strings.TrimSpace(caller.Email) == "" {
		return AcceptPendingResult{}, fault.New(fault.FailedPrecondition, "a verified email is required")
	}

	matched, err := deps.InviteStore.ListPendingByEmail(ctx, caller.Email)
	if err != nil {
		return AcceptPendingResult{}, fault.Wrap(fault.Unknown, "invite lookup failed", err)
	}

	result := AcceptPendingResult{Matched: len(matched), Items: make([]AcceptPendingItem, 0, len(matched))}
	now := deps.Now()

	for _, inv := range matched {
		item := AcceptPendingItem{ClubID: inv.ClubID, InviteID: inv.ID, Role: inv.GrantedRole()}

		if inv.IsExpired(now) {
			item.Reason = "expired"
			result.Items = append(result.Items, item)
			continue
		}

		if err := acceptOne(ctx, deps, caller, inv, now); err != nil {
			item.Reason = err.Error()
			slog.Warn("accept_pending_item_failed", "club_id", inv.ClubID, "invite_id", inv.ID, "error", err)
			result.Items = append(result.Items, item)
			continue
		}

		item.Accepted = true
		result.Processed++
		result.Items = append(result.Items, item)
	}

	slog.Info("invite_event", "event", "pending_invites_swept", "user_id", caller.UserID, "matched", result.Matched, "processed", result.Processed)
	return result, nil
}

func acceptOne(ctx context.Context, deps AcceptPendingDeps, caller Caller, inv invite.Invite, now time.Time) error {
	role := inv.GrantedRole()
	if err := SyncMembership(ctx, deps.Sync, inv.ClubID, caller.UserID, caller.Email, role); err != nil {
		return err
	}
	if role == identity.RoleAdmin {
		patch := map[string]any{
			identity.ClaimRole:   identity.RoleAdmin,
			identity.ClaimClubID: inv.ClubID,
		}
		if err := ExecuteSetClaims(ctx, deps.Claims, caller.UserID, patch); err != nil {
			return err
		}
	}
	won, err := deps.InviteStore.MarkUsedIfPending(ctx, inv.ClubID, inv.ID, now)
	if err != nil {
		return fault.Wrap(fault.Unknown, "failed to mark invite used", err)
	}
	if !won {
		return fault.New(fault.FailedPrecondition, "invite was redeemed concurrently")
	}
	observability.RecordInviteRedemption("success")
	return nil
}
