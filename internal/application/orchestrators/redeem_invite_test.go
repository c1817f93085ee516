package orchestrators

import (
	"context"
	"testing"
	"time"

	"clubdesk/internal/domain/fault"
	"clubdesk/internal/domain/identity"
	"clubdesk/internal/domain/invite"
)

func pendingInvite(clubID, id, email, role string) invite.Invite {
	return invite.Invite{
		ID:        id,
		ClubID:    clubID,
		Email:     email,
		Role:      role,
		Status:    invite.StatusPending,
		ExpiresAt: fixedTime.Add(48 * time.Hour),
		CreatedAt: fixedTime.Add(-time.Hour),
		CreatedBy: "admin-001",
	}
}

func redeemDeps(invites *mockInviteStore, ids *mockIdentityStore, members *mockMembershipStore) RedeemInviteDeps {
	return RedeemInviteDeps{
		InviteStore: invites,
		Claims:      ClaimsDeps{IdentityStore: ids, OutboxStore: newMockOutboxStore(), GenerateID: fixedID, Now: fixedNow},
		Sync:        MembershipSyncDeps{MembershipStore: members, Now: fixedNow},
		Now:         fixedNow,
	}
}

func TestExecuteRedeemInvite_AthleteSuccess(t *testing.T) {
	invites := newMockInviteStore()
	invites.invites["club-1/inv-1"] = pendingInvite("club-1", "inv-1", "sam@example.com", "")
	ids := newMockIdentityStore()
	ids.ids["user-1"] = identity.Identity{ID: "user-1", Email: "sam@example.com", Status: identity.StatusActive}
	members := newMockMembershipStore()

	caller := Caller{UserID: "user-1", Email: "sam@example.com"}
	err := ExecuteRedeemInvite(context.Background(), RedeemInviteInput{ClubID: "club-1", InviteID: "inv-1"}, caller, redeemDeps(invites, ids, members))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m, ok := members.memberships["club-1/user-1"]
	if !ok {
		t.Fatal("expected membership to be written")
	}
	if m.Role != identity.RoleAthlete {
		t.Errorf("expected role=athlete, got %s", m.Role)
	}
	inv := invites.invites["club-1/inv-1"]
	if inv.Status != invite.StatusUsed {
		t.Errorf("expected invite status=used, got %s", inv.Status)
	}
	if !inv.UsedAt.Equal(fixedTime) {
		t.Errorf("expected UsedAt=%v, got %v", fixedTime, inv.UsedAt)
	}
	// Athlete invites must not touch claims.
	user := ids.ids["user-1"]
	if user.RoleClaim() != "" {
		t.Errorf("expected no role claim, got %q", user.RoleClaim())
	}
}

func TestExecuteRedeemInvite_AdminInviteSetsClaims(t *testing.T) {
	invites := newMockInviteStore()
	invites.invites["club-1/inv-1"] = pendingInvite("club-1", "inv-1", "lee@example.com", identity.RoleAdmin)
	ids := newMockIdentityStore()
	ids.ids["user-2"] = identity.Identity{ID: "user-2", Email: "lee@example.com", Status: identity.StatusActive}
	members := newMockMembershipStore()

	caller := Caller{UserID: "user-2", Email: "lee@example.com"}
	err := ExecuteRedeemInvite(context.Background(), RedeemInviteInput{ClubID: "club-1", InviteID: "inv-1"}, caller, redeemDeps(invites, ids, members))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := ids.ids["user-2"]
	if got.RoleClaim() != identity.RoleAdmin {
		t.Errorf("expected role claim=admin, got %q", got.RoleClaim())
	}
	if got.ClubClaim() != "club-1" {
		t.Errorf("expected club_id claim=club-1, got %q", got.ClubClaim())
	}
	if members.memberships["club-1/user-2"].Role != identity.RoleAdmin {
		t.Errorf("expected membership role=admin, got %s", members.memberships["club-1/user-2"].Role)
	}
}

func TestExecuteRedeemInvite_GuardOrder(t *testing.T) {
	base := pendingInvite("club-1", "inv-1", "sam@example.com", "")
	caller := Caller{UserID: "user-1", Email: "sam@example.com"}

	cases := []struct {
		name     string
		mutate   func(*invite.Invite)
		caller   Caller
		wantCode fault.Code
	}{
		{
			name:     "used invite is a precondition failure",
			mutate:   func(i *invite.Invite) { i.Status = invite.StatusUsed },
			caller:   caller,
			wantCode: fault.FailedPrecondition,
		},
		{
			name:     "revoked invite is a precondition failure",
			mutate:   func(i *invite.Invite) { i.Status = invite.StatusRevoked },
			caller:   caller,
			wantCode: fault.FailedPrecondition,
		},
		{
			name:     "expired invite reports the deadline",
			mutate:   func(i *invite.Invite) { i.ExpiresAt = fixedTime.Add(-time.Minute) },
			caller:   caller,
			wantCode: fault.DeadlineExceeded,
		},
		{
			name:     "wrong email is denied",
			mutate:   func(i *invite.Invite) {},
			caller:   Caller{UserID: "user-9", Email: "other@example.com"},
			wantCode: fault.PermissionDenied,
		},
		{
			// A revoked AND expired invite reports not-pending first:
			// the status check outranks the expiry check.
			name: "status check outranks expiry",
			mutate: func(i *invite.Invite) {
				i.Status = invite.StatusRevoked
				i.ExpiresAt = fixedTime.Add(-time.Minute)
			},
			caller:   caller,
			wantCode: fault.FailedPrecondition,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inv := base
			tc.mutate(&inv)
			invites := newMockInviteStore()
			invites.invites["club-1/inv-1"] = inv
			ids := newMockIdentityStore()
			members := newMockMembershipStore()

			err := ExecuteRedeemInvite(context.Background(), RedeemInviteInput{ClubID: "club-1", InviteID: "inv-1"}, tc.caller, redeemDeps(invites, ids, members))
			if fault.CodeOf(err) != tc.wantCode {
				t.Fatalf("expected code %s, got %s (err=%v)", tc.wantCode, fault.CodeOf(err), err)
			}
			if len(members.memberships) != 0 {
				t.Error("expected no membership writes on guard failure")
			}
			if invites.invites["club-1/inv-1"].Status != inv.Status {
				t.Error("expected invite status unchanged on guard failure")
			}
		})
	}
}

func TestExecuteRedeemInvite_MissingInvite(t *testing.T) {
	caller := Caller{UserID: "user-1", Email: "sam@example.com"}
	err := ExecuteRedeemInvite(context.Background(), RedeemInviteInput{ClubID: "club-1", InviteID: "nope"}, caller, redeemDeps(newMockInviteStore(), newMockIdentityStore(), newMockMembershipStore()))
	if fault.CodeOf(err) != fault.NotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestExecuteRedeemInvite_EmailMatchIsCaseInsensitive(t *testing.T) {
	invites := newMockInviteStore()
	invites.invites["club-1/inv-1"] = pendingInvite("club-1", "inv-1", "Sam@Example.COM", "")
	ids := newMockIdentityStore()
	ids.ids["user-1"] = identity.Identity{ID: "user-1", Email: "sam@example.com", Status: identity.StatusActive}
	members := newMockMembershipStore()

	caller := Caller{UserID: "user-1", Email: "sam@example.com"}
	err := ExecuteRedeemInvite(context.Background(), RedeemInviteInput{ClubID: "club-1", InviteID: "inv-1"}, caller, redeemDeps(invites, ids, members))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExecuteRedeemInvite_Unauthenticated(t *testing.T) {
	err := ExecuteRedeemInvite(context.Background(), RedeemInviteInput{ClubID: "club-1", InviteID: "inv-1"}, Caller{}, redeemDeps(newMockInviteStore(), newMockIdentityStore(), newMockMembershipStore()))
	if fault.CodeOf(err) != fault.Unauthenticated {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestExecuteRedeemInvite_MembershipFailureLeavesInvitePending(t *testing.T) {
	invites := newMockInviteStore()
	invites.invites["club-1/inv-1"] = pendingInvite("club-1", "inv-1", "sam@example.com", "")
	members := newMockMembershipStore()
	members.failUpsert = true

	caller := Caller{UserID: "user-1", Email: "sam@example.com"}
	err := ExecuteRedeemInvite(context.Background(), RedeemInviteInput{ClubID: "club-1", InviteID: "inv-1"}, caller, redeemDeps(invites, newMockIdentityStore(), members))
	if err == nil {
		t.Fatal("expected error when membership write fails")
	}
	if invites.invites["club-1/inv-1"].Status != invite.StatusPending {
		t.Error("expected invite to stay pending when membership write fails")
	}
}
