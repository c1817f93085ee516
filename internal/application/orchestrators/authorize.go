package orchestrators

import (
	"context"
	"log/slog"

	"clubdesk/internal/domain/identity"
	"clubdesk/internal/domain/profile"
	"clubdesk/internal/observability"
)

// ClaimsReaderForAuthz defines the identity-provider lookup needed by
// the authorization gate.
type ClaimsReaderForAuthz interface {
	GetClaims(ctx context.Context, id string) (map[string]any, error)
}

// ProfileReaderForAuthz defines the profile lookup needed by the
// authorization gate.
type ProfileReaderForAuthz interface {
	GetByID(ctx context.Context, userID string) (profile.UserProfile, error)
}

// AuthzDeps holds dependencies for the authorization gate.
type AuthzDeps struct {
	IdentityStore ClaimsReaderForAuthz
	ProfileStore  ProfileReaderForAuthz
}

// Caller is the verified identity of the requester, as established by
// the session or token layer.
type Caller struct {
	UserID string
	Email  string
}

// IsAuthenticated returns true when a verified user id is present.
// INVARIANT: Caller fields are not mutated
func (c Caller) IsAuthenticated() bool {
	return c.UserID != ""
}

// IsSuperAdmin decides whether the identity holds super-admin
// privilege. It never returns an error: any lookup failure is treated
// as "not super" (fail closed), and a claims-store error does not
// prevent the profile check. Swallowed errors are logged and counted
// so provider outages stay distinguishable from genuinely
// unprivileged callers.
// PRE: userID is non-empty
// POST: Returns true only on positive evidence of privilege
func IsSuperAdmin(ctx context.Context, deps AuthzDeps, userID string) bool {
	if userID == "" {
		return false
	}

	claims, err := deps.IdentityStore.GetClaims(ctx, userID)
	if err != nil {
		slog.Warn("authz_claims_lookup_failed", "user_id", userID, "error", err)
		observability.RecordAuthzCheckError("claims")
	} else if identity.ClaimIsTrue(claims, identity.ClaimSuperAdmin) {
		return true
	}

	prof, err := deps.ProfileStore.GetByID(ctx, userID)
	if err != nil {
		slog.Warn("authz_profile_lookup_failed", "user_id", userID, "error", err)
		observability.RecordAuthzCheckError("profile")
		return false
	}
	return prof.Role == identity.RoleSuper
}

// IsClubAdmin decides whether the identity administers the given club,
// either through its admin claims binding or through super-admin
// privilege. Fail-closed like IsSuperAdmin.
// PRE: userID and clubID are non-empty
// POST: Returns true only on positive evidence of privilege
func IsClubAdmin(ctx context.Context, deps AuthzDeps, userID, clubID string) bool {
	if userID == "" || clubID == "" {
		return false
	}

	claims, err := deps.IdentityStore.GetClaims(ctx, userID)
	if err != nil {
		slog.Warn("authz_claims_lookup_failed", "user_id", userID, "error", err)
		observability.RecordAuthzCheckError("claims")
	} else if identity.ClaimString(claims, identity.ClaimRole) == identity.RoleAdmin &&
		identity.ClaimString(claims, identity.ClaimClubID) == clubID {
		return true
	}

	return IsSuperAdmin(ctx, deps, userID)
}
