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
)

// IdentityStoreForAssign defines the identity-provider interface
// needed by admin assignment.
type IdentityStoreForAssign interface {
	GetByEmail(ctx context.Context, email string) (identity.Identity, error)
	Save(ctx context.Context, value identity.Identity) error
}

// AssignAdminInput carries input for the orchestrator.
type AssignAdminInput struct {
	ClubID string
	Email  string
}

// AssignAdminDeps holds dependencies for AssignAdmin.
type AssignAdminDeps struct {
	IdentityStore IdentityStoreForAssign
	Authz         AuthzDeps
	Claims        ClaimsDeps
	Sync          MembershipSyncDeps
	GenerateID    func() string
	Now           func() time.Time
}

// ExecuteAssignAdmin grants club-admin privilege to the identity
// behind an email address, provisioning a fresh identity when none
// exists. The membership/profile pair is written first; the claims
// write runs last so a failure there is retried from the outbox
// rather than leaving a half-granted admin.
// PRE: caller is authenticated and holds super-admin privilege
// POST: Membership (clubID, uid) role admin exists; claims carry
// {role: admin, club_id: clubID}; returns the uid
func ExecuteAssignAdmin(ctx context.Context, input AssignAdminInput, caller Caller, deps AssignAdminDeps) (string, error) {
	if !caller.IsAuthenticated() {
		return "", fault.New(fault.Unauthenticated, "sign in required")
	}
	if strings.TrimSpace(input.ClubID) == "" || strings.TrimSpace(input.Email) == "" {
		return "", fault.New(fault.InvalidArgument, "club id and email are required")
	}
	if !IsSuperAdmin(ctx, deps.Authz, caller.UserID) {
		return "", fault.New(fault.PermissionDenied, "super-admin privilege required")
	}

	id, err := deps.IdentityStore.GetByEmail(ctx, input.Email)
	switch {
	case err == nil:
		// existing identity
	case errors.Is(err, sql.ErrNoRows):
		id, err = provisionIdentity(ctx, deps, input.Email)
		if err != nil {
			return "", err
		}
	default:
		return "", fault.Wrap(fault.Unknown, "identity lookup failed", err)
	}

	if err := SyncMembership(ctx, deps.Sync, input.ClubID, id.ID, id.Email, identity.RoleAdmin); err != nil {
		return "", err
	}

	patch := map[string]any{
		identity.ClaimRole:   identity.RoleAdmin,
		identity.ClaimClubID: input.ClubID,
	}
	if err := ExecuteSetClaims(ctx, deps.Claims, id.ID, patch); err != nil {
		return "", err
	}

	slog.Info("admin_event", "event", "admin_assigned", "club_id", input.ClubID, "user_id", id.ID, "by", caller.UserID)
	return id.ID, nil
}

// provisionIdentity creates a pending identity for an email that has
// no account yet. The user sets a password on first sign-in.
func provisionIdentity(ctx context.Context, deps AssignAdminDeps, email string) (identity.Identity, error) {
	id := identity.Identity{
		ID:        deps.GenerateID(),
		Email:     email,
		Status:    identity.StatusPending,
		CreatedAt: deps.Now(),
	}
	if err := id.Validate(); err != nil {
		return identity.Identity{}, fault.Wrap(fault.InvalidArgument, "invalid email", err)
	}
	if err := deps.IdentityStore.Save(ctx, id); err != nil {
		return identity.Identity{}, fault.Wrap(fault.Unknown, "failed to provision identity", err)
	}
	slog.Info("admin_event", "event", "identity_provisioned", "user_id", id.ID)
	return id, nil
}
