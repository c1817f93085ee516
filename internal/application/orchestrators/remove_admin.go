package orchestrators

import (
	"context"
	"log/slog"
	"strings"

	"clubdesk/internal/domain/fault"
)

// RemoveAdminInput carries input for the orchestrator.
type RemoveAdminInput struct {
	ClubID string
	UserID string
}

// RemoveAdminDeps holds dependencies for RemoveAdmin.
type RemoveAdminDeps struct {
	Authz  AuthzDeps
	Claims ClaimsDeps
	Sync   MembershipSyncDeps
}

// ExecuteRemoveAdmin revokes club-admin privilege. The claims write
// clears role and club_id only; any super_admin claim on the identity
// is left untouched. The membership row is removed and the profile
// reverts to athlete.
// PRE: caller is authenticated and holds super-admin privilege
// POST: claims role/club_id cleared; membership (clubID, userID) gone
func ExecuteRemoveAdmin(ctx context.Context, input RemoveAdminInput, caller Caller, deps RemoveAdminDeps) error {
	if !caller.IsAuthenticated() {
		return fault.New(fault.Unauthenticated, "sign in required")
	}
	if strings.TrimSpace(input.ClubID) == "" || strings.TrimSpace(input.UserID) == "" {
		return fault.New(fault.InvalidArgument, "club id and user id are required")
	}
	if !IsSuperAdmin(ctx, deps.Authz, caller.UserID) {
		return fault.New(fault.PermissionDenied, "super-admin privilege required")
	}

	if err := ExecuteClearRoleClaims(ctx, deps.Claims, input.UserID); err != nil {
		return err
	}
	if err := RemoveMembership(ctx, deps.Sync, input.ClubID, input.UserID); err != nil {
		return err
	}

	slog.Info("admin_event", "event", "admin_removed", "club_id", input.ClubID, "user_id", input.UserID, "by", caller.UserID)
	return nil
}
