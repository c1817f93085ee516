package orchestrators

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"clubdesk/internal/domain/fault"
	"clubdesk/internal/domain/identity"
	"clubdesk/internal/domain/outbox"
)

// ClaimsWriterForManager defines the identity-provider interface
// needed by the claims manager. This is the only path that writes the
// privileged claims map.
type ClaimsWriterForManager interface {
	SetClaims(ctx context.Context, id string, patch map[string]any) error
	ClearClaims(ctx context.Context, id string, keys ...string) error
}

// OutboxEnqueuerForClaims defines the outbox interface used to defer a
// failed claims write for retried delivery.
type OutboxEnqueuerForClaims interface {
	Save(ctx context.Context, e outbox.Entry) error
}

// ClaimsDeps holds dependencies for the claims manager.
type ClaimsDeps struct {
	IdentityStore ClaimsWriterForManager
	OutboxStore   OutboxEnqueuerForClaims
	GenerateID    func() string
	Now           func() time.Time
}

// setClaimsPayload is the outbox replay payload for a deferred merge.
type setClaimsPayload struct {
	UserID string         `json:"user_id"`
	Patch  map[string]any `json:"patch"`
}

// clearClaimsPayload is the outbox replay payload for a deferred clear.
type clearClaimsPayload struct {
	UserID string   `json:"user_id"`
	Keys   []string `json:"keys"`
}

// ExecuteSetClaims merges patch into the identity's claims map. The
// merge never replaces the map wholesale, so unrelated claims (such as
// super_admin) survive. Callers observe the new claims only after
// their credential is refreshed.
//
// A failed write is enqueued to the outbox and retried in the
// background rather than surfaced, so a membership write that already
// committed is never left permanently without its claims counterpart.
// PRE: userID is non-empty, patch is non-empty
// POST: Claims merged now, or queued for retried delivery
func ExecuteSetClaims(ctx context.Context, deps ClaimsDeps, userID string, patch map[string]any) error {
	if userID == "" {
		return fault.New(fault.InvalidArgument, "user id is required")
	}
	if len(patch) == 0 {
		return fault.New(fault.InvalidArgument, "claims patch is empty")
	}

	err := deps.IdentityStore.SetClaims(ctx, userID, patch)
	if err == nil {
		slog.Info("claims_event", "event", "claims_set", "user_id", userID)
		return nil
	}

	slog.Warn("claims_set_failed_deferring", "user_id", userID, "error", err)
	payload, mErr := json.Marshal(setClaimsPayload{UserID: userID, Patch: patch})
	if mErr != nil {
		return fault.Wrap(fault.Unknown, "failed to set claims", err)
	}
	if qErr := enqueueOutbox(ctx, deps, outbox.ActionTypeSetClaims, string(payload)); qErr != nil {
		return fault.Wrap(fault.Unknown, "failed to set claims", err)
	}
	return nil
}

// ExecuteClearRoleClaims removes only the role and club binding from
// the identity's claims, leaving every other claim untouched.
// PRE: userID is non-empty
// POST: role/club_id absent now, or queued for retried delivery
func ExecuteClearRoleClaims(ctx context.Context, deps ClaimsDeps, userID string) error {
	if userID == "" {
		return fault.New(fault.InvalidArgument, "user id is required")
	}

	keys := []string{identity.ClaimRole, identity.ClaimClubID}
	err := deps.IdentityStore.ClearClaims(ctx, userID, keys...)
	if err == nil {
		slog.Info("claims_event", "event", "role_claims_cleared", "user_id", userID)
		return nil
	}

	slog.Warn("claims_clear_failed_deferring", "user_id", userID, "error", err)
	payload, mErr := json.Marshal(clearClaimsPayload{UserID: userID, Keys: keys})
	if mErr != nil {
		return fault.Wrap(fault.Unknown, "failed to clear role claims", err)
	}
	if qErr := enqueueOutbox(ctx, deps, outbox.ActionTypeClearClaims, string(payload)); qErr != nil {
		return fault.Wrap(fault.Unknown, "failed to clear role claims", err)
	}
	return nil
}

func enqueueOutbox(ctx context.Context, deps ClaimsDeps, actionType, payload string) error {
	if deps.OutboxStore == nil {
		return fmt.Errorf("no outbox configured")
	}
	entry := outbox.Entry{
		ID:         deps.GenerateID(),
		ActionType: actionType,
		Payload:    payload,
		Status:     outbox.StatusPending,
		CreatedAt:  deps.Now(),
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	return deps.OutboxStore.Save(ctx, entry)
}
