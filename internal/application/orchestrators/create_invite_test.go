package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"clubdesk/internal/adapters/email"
	"clubdesk/internal/domain/fault"
	"clubdesk/internal/domain/identity"
	"clubdesk/internal/domain/invite"
	"clubdesk/internal/domain/outbox"
)

// mockEmailSender records sends and can be told to fail.
type mockEmailSender struct {
	sent     []email.SendRequest
	failSend bool
}

func (m *mockEmailSender) Send(_ context.Context, req email.SendRequest) (email.SendResult, error) {
	if m.failSend {
		return email.SendResult{}, errors.New("provider unavailable")
	}
	m.sent = append(m.sent, req)
	return email.SendResult{MessageID: "msg-1"}, nil
}

func createInviteFixture() (*mockIdentityStore, *mockInviteStore, *mockOutboxStore, *mockEmailSender, CreateInviteDeps, Caller) {
	ids := &mockIdentityStore{ids: make(map[string]identity.Identity)}
	authz := seedSuper(ids, "super-1")
	invites := newMockInviteStore()
	outboxStore := newMockOutboxStore()
	sender := &mockEmailSender{}
	deps := CreateInviteDeps{
		InviteStore: invites,
		OutboxStore: outboxStore,
		EmailSender: sender,
		EmailFrom:   "Clubdesk <noreply@clubdesk.test>",
		Authz:       authz,
		GenerateID:  seqID(),
		Now:         fixedNow,
	}
	return ids, invites, outboxStore, sender, deps, Caller{UserID: "super-1", Email: "super-1@clubdesk.test"}
}

func TestCreateInvite_PersistsAndEmails(t *testing.T) {
	_, invites, _, sender, deps, caller := createInviteFixture()

	inv, err := ExecuteCreateInvite(context.Background(), CreateInviteInput{
		ClubID:   "club-1",
		ClubName: "Harbour Swimmers",
		Email:    "sam@example.com",
		Role:     "admin",
	}, caller, deps)
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}

	stored, err := invites.GetByID(context.Background(), "club-1", inv.ID)
	if err != nil {
		t.Fatalf("invite not persisted: %v", err)
	}
	if stored.Status != invite.StatusPending {
		t.Errorf("status = %s, want pending", stored.Status)
	}
	if want := fixedTime.Add(invite.DefaultTTL); !stored.ExpiresAt.Equal(want) {
		t.Errorf("expires_at = %v, want %v", stored.ExpiresAt, want)
	}
	if stored.CreatedBy != "super-1" {
		t.Errorf("created_by = %q, want super-1", stored.CreatedBy)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 email sent, got %d", len(sender.sent))
	}
	if sender.sent[0].To[0] != "sam@example.com" {
		t.Errorf("email to = %q", sender.sent[0].To[0])
	}
}

func TestCreateInvite_SendFailureDefersToOutbox(t *testing.T) {
	_, invites, outboxStore, sender, deps, caller := createInviteFixture()
	sender.failSend = true

	inv, err := ExecuteCreateInvite(context.Background(), CreateInviteInput{
		ClubID: "club-1",
		Email:  "sam@example.com",
	}, caller, deps)
	if err != nil {
		t.Fatalf("expected send failure not to fail the call, got %v", err)
	}
	if _, err := invites.GetByID(context.Background(), "club-1", inv.ID); err != nil {
		t.Fatalf("invite must be durable despite email failure: %v", err)
	}

	if len(outboxStore.entries) != 1 {
		t.Fatalf("expected 1 deferred entry, got %d", len(outboxStore.entries))
	}
	for _, entry := range outboxStore.entries {
		if entry.ActionType != outbox.ActionTypeInviteEmail {
			t.Errorf("action type = %q, want %q", entry.ActionType, outbox.ActionTypeInviteEmail)
		}
		var payload inviteEmailPayload
		if err := json.Unmarshal([]byte(entry.Payload), &payload); err != nil {
			t.Fatalf("payload round trip: %v", err)
		}
		if payload.To != "sam@example.com" || payload.Subject == "" || payload.HTML == "" {
			t.Errorf("incomplete deferred payload: %+v", payload)
		}
	}
}

func TestCreateInvite_RequiresClubAdmin(t *testing.T) {
	ids, _, _, _, deps, _ := createInviteFixture()
	ids.ids["athlete-1"] = identity.Identity{ID: "athlete-1", Email: "a@clubdesk.test", Status: identity.StatusActive}

	_, err := ExecuteCreateInvite(context.Background(), CreateInviteInput{
		ClubID: "club-1",
		Email:  "sam@example.com",
	}, Caller{UserID: "athlete-1", Email: "a@clubdesk.test"}, deps)
	if fault.CodeOf(err) != fault.PermissionDenied {
		t.Errorf("expected permission-denied, got %v", err)
	}
}

func TestCreateInvite_RejectsBadRole(t *testing.T) {
	_, _, _, _, deps, caller := createInviteFixture()
	_, err := ExecuteCreateInvite(context.Background(), CreateInviteInput{
		ClubID: "club-1",
		Email:  "sam@example.com",
		Role:   "owner",
	}, caller, deps)
	if fault.CodeOf(err) != fault.InvalidArgument {
		t.Errorf("expected invalid-argument for unknown role, got %v", err)
	}
}

func TestRevokeInvite_OnlyPending(t *testing.T) {
	_, invites, _, _, deps, caller := createInviteFixture()
	ctx := context.Background()

	inv, err := ExecuteCreateInvite(ctx, CreateInviteInput{ClubID: "club-1", Email: "sam@example.com"}, caller, deps)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := ExecuteRevokeInvite(ctx, RevokeInviteInput{ClubID: "club-1", InviteID: inv.ID}, caller, deps); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	got, _ := invites.GetByID(ctx, "club-1", inv.ID)
	if got.Status != invite.StatusRevoked {
		t.Errorf("status = %s, want revoked", got.Status)
	}

	// A second revoke finds nothing pending.
	err = ExecuteRevokeInvite(ctx, RevokeInviteInput{ClubID: "club-1", InviteID: inv.ID}, caller, deps)
	if fault.CodeOf(err) != fault.FailedPrecondition {
		t.Errorf("expected failed-precondition on double revoke, got %v", err)
	}
}
