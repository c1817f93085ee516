package orchestrators

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"clubdesk/internal/adapters/email"
	"clubdesk/internal/domain/fault"
	"clubdesk/internal/domain/identity"
	"clubdesk/internal/domain/invite"
	"clubdesk/internal/domain/outbox"
)

// InviteStoreForCreate defines the invite store interface needed by
// invite issuance and revocation.
type InviteStoreForCreate interface {
	Save(ctx context.Context, value invite.Invite) error
	MarkRevokedIfPending(ctx context.Context, clubID, id string) (bool, error)
}

// CreateInviteInput carries input for the orchestrator.
type CreateInviteInput struct {
	ClubID   string
	ClubName string
	Email    string
	Role     string
}

// CreateInviteDeps holds dependencies for invite issuance.
type CreateInviteDeps struct {
	InviteStore InviteStoreForCreate
	OutboxStore OutboxEnqueuerForClaims
	EmailSender email.Sender
	EmailFrom   string
	Authz       AuthzDeps
	GenerateID  func() string
	Now         func() time.Time
}

// inviteEmailPayload is the outbox replay payload for a deferred
// invitation email.
type inviteEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// ExecuteCreateInvite issues a pending invite for an email address and
// sends the invitation email. The invite is the durable artifact; a
// failed send is deferred to the outbox rather than failing the call.
// PRE: caller is a club admin (or super-admin) for clubID
// POST: pending invite persisted with a 7-day window; email sent or queued
func ExecuteCreateInvite(ctx context.Context, input CreateInviteInput, caller Caller, deps CreateInviteDeps) (invite.Invite, error) {
	if !caller.IsAuthenticated() {
		return invite.Invite{}, fault.New(fault.Unauthenticated, "sign in required")
	}
	if strings.TrimSpace(input.ClubID) == "" || strings.TrimSpace(input.Email) == "" {
		return invite.Invite{}, fault.New(fault.InvalidArgument, "club id and email are required")
	}
	if input.Role != "" && !identity.IsValidRole(input.Role) {
		return invite.Invite{}, fault.New(fault.InvalidArgument, "role must be 'admin' or 'athlete'")
	}
	if !IsClubAdmin(ctx, deps.Authz, caller.UserID, input.ClubID) {
		return invite.Invite{}, fault.New(fault.PermissionDenied, "club admin privilege required")
	}

	now := deps.Now()
	inv := invite.Invite{
		ID:        deps.GenerateID(),
		ClubID:    input.ClubID,
		Email:     strings.TrimSpace(input.Email),
		Role:      input.Role,
		Status:    invite.StatusPending,
		ExpiresAt: now.Add(invite.DefaultTTL),
		CreatedAt: now,
		CreatedBy: caller.UserID,
	}
	if err := inv.Validate(); err != nil {
		return invite.Invite{}, fault.Wrap(fault.InvalidArgument, "invalid invite", err)
	}
	if err := deps.InviteStore.Save(ctx, inv); err != nil {
		return invite.Invite{}, fault.Wrap(fault.Unknown, "failed to save invite", err)
	}

	sendInviteEmail(ctx, deps, inv, input.ClubName)

	slog.Info("invite_event", "event", "invite_created", "club_id", inv.ClubID, "invite_id", inv.ID, "role", inv.GrantedRole(), "by", caller.UserID)
	return inv, nil
}

// sendInviteEmail delivers the invitation, deferring to the outbox on
// failure. The invite itself is already durable so nothing here is
// allowed to fail the issuing call.
func sendInviteEmail(ctx context.Context, deps CreateInviteDeps, inv invite.Invite, clubName string) {
	if deps.EmailSender == nil {
		return
	}
	if clubName == "" {
		clubName = "your club"
	}
	subject, html, err := email.ComposeInvite(clubName, inv.ID, inv.GrantedRole(), inv.ExpiresAt)
	if err != nil {
		slog.Error("invite_email_compose_failed", "invite_id", inv.ID, "error", err)
		return
	}

	_, err = deps.EmailSender.Send(ctx, email.SendRequest{
		To:      []string{inv.Email},
		From:    deps.EmailFrom,
		Subject: subject,
		HTML:    html,
	})
	if err == nil {
		return
	}

	slog.Warn("invite_email_send_failed_deferring", "invite_id", inv.ID, "error", err)
	payload, mErr := json.Marshal(inviteEmailPayload{To: inv.Email, Subject: subject, HTML: html})
	if mErr != nil {
		slog.Error("invite_email_payload_failed", "invite_id", inv.ID, "error", mErr)
		return
	}
	claimsDeps := ClaimsDeps{OutboxStore: deps.OutboxStore, GenerateID: deps.GenerateID, Now: deps.Now}
	if qErr := enqueueOutbox(ctx, claimsDeps, outbox.ActionTypeInviteEmail, string(payload)); qErr != nil {
		slog.Error("invite_email_enqueue_failed", "invite_id", inv.ID, "error", qErr)
	}
}

// RevokeInviteInput carries input for the orchestrator.
type RevokeInviteInput struct {
	ClubID   string
	InviteID string
}

// ExecuteRevokeInvite withdraws a pending invite. Revocation is a
// conditional transition so a concurrently redeemed invite stays used.
// PRE: caller is a club admin (or super-admin) for clubID
// POST: invite status revoked, or a conflict when no longer pending
func ExecuteRevokeInvite(ctx context.Context, input RevokeInviteInput, caller Caller, deps CreateInviteDeps) error {
	if !caller.IsAuthenticated() {
		return fault.New(fault.Unauthenticated, "sign in required")
	}
	if strings.TrimSpace(input.ClubID) == "" || strings.TrimSpace(input.InviteID) == "" {
		return fault.New(fault.InvalidArgument, "club id and invite id are required")
	}
	if !IsClubAdmin(ctx, deps.Authz, caller.UserID, input.ClubID) {
		return fault.New(fault.PermissionDenied, "club admin privilege required")
	}

	won, err := deps.InviteStore.MarkRevokedIfPending(ctx, input.ClubID, input.InviteID)
	if err != nil {
		return fault.Wrap(fault.Unknown, "failed to revoke invite", err)
	}
	if !won {
		return fault.New(fault.FailedPrecondition, "invite is no longer pending")
	}

	slog.Info("invite_event", "event", "invite_revoked", "club_id", input.ClubID, "invite_id", input.InviteID, "by", caller.UserID)
	return nil
}
