package orchestrators

import (
	"context"
	"testing"
	"time"

	"clubdesk/internal/domain/fault"
	"clubdesk/internal/domain/identity"
)

func acceptDeps(invites *mockInviteStore, ids *mockIdentityStore, members *mockMembershipStore) AcceptPendingDeps {
	return AcceptPendingDeps{
		InviteStore: invites,
		Claims:      ClaimsDeps{IdentityStore: ids, OutboxStore: newMockOutboxStore(), GenerateID: fixedID, Now: fixedNow},
		Sync:        MembershipSyncDeps{MembershipStore: members, Now: fixedNow},
		Now:         fixedNow,
	}
}

func TestExecuteAcceptPendingByEmail_SweepsAcrossClubs(t *testing.T) {
	invites := newMockInviteStore()
	invites.invites["club-1/inv-1"] = pendingInvite("club-1", "inv-1", "sam@example.com", "")
	invites.invites["club-2/inv-2"] = pendingInvite("club-2", "inv-2", "sam@example.com", identity.RoleAdmin)
	invites.invites["club-3/inv-3"] = pendingInvite("club-3", "inv-3", "other@example.com", "")
	ids := newMockIdentityStore()
	ids.ids["user-1"] = identity.Identity{ID: "user-1", Email: "sam@example.com", Status: identity.StatusActive}
	members := newMockMembershipStore()

	caller := Caller{UserID: "user-1", Email: "sam@example.com"}
	result, err := ExecuteAcceptPendingByEmail(context.Background(), caller, acceptDeps(invites, ids, members))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Matched != 2 {
		t.Errorf("expected matched=2, got %d", result.Matched)
	}
	if result.Processed != 2 {
		t.Errorf("expected processed=2, got %d", result.Processed)
	}
	if len(members.memberships) != 2 {
		t.Errorf("expected 2 memberships, got %d", len(members.memberships))
	}
	// Admin invite in club-2 must set claims.
	user := ids.ids["user-1"]
	if user.ClubClaim() != "club-2" {
		t.Errorf("expected club_id claim=club-2, got %q", user.ClubClaim())
	}
	// The unrelated invite stays pending.
	unmatched := invites.invites["club-3/inv-3"]
	if !unmatched.IsPending() {
		t.Error("expected unmatched invite to stay pending")
	}
}

func TestExecuteAcceptPendingByEmail_SecondRunIsNoop(t *testing.T) {
	invites := newMockInviteStore()
	invites.invites["club-1/inv-1"] = pendingInvite("club-1", "inv-1", "sam@example.com", "")
	ids := newMockIdentityStore()
	members := newMockMembershipStore()
	deps := acceptDeps(invites, ids, members)
	caller := Caller{UserID: "user-1", Email: "sam@example.com"}

	if _, err := ExecuteAcceptPendingByEmail(context.Background(), caller, deps); err != nil {
		t.Fatalf("unexpected error on first run: %v", err)
	}
	second, err := ExecuteAcceptPendingByEmail(context.Background(), caller, deps)
	if err != nil {
		t.Fatalf("unexpected error on second run: %v", err)
	}
	if second.Matched != 0 || second.Processed != 0 {
		t.Errorf("expected second run to match nothing, got matched=%d processed=%d", second.Matched, second.Processed)
	}
}

func TestExecuteAcceptPendingByEmail_ExpiredSkippedOthersProceed(t *testing.T) {
	invites := newMockInviteStore()
	expired := pendingInvite("club-1", "inv-1", "sam@example.com", "")
	expired.ExpiresAt = fixedTime.Add(-time.Hour)
	invites.invites["club-1/inv-1"] = expired
	invites.invites["club-2/inv-2"] = pendingInvite("club-2", "inv-2", "sam@example.com", "")
	members := newMockMembershipStore()

	caller := Caller{UserID: "user-1", Email: "sam@example.com"}
	result, err := ExecuteAcceptPendingByEmail(context.Background(), caller, acceptDeps(invites, newMockIdentityStore(), members))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Matched != 2 || result.Processed != 1 {
		t.Fatalf("expected matched=2 processed=1, got matched=%d processed=%d", result.Matched, result.Processed)
	}
	for _, item := range result.Items {
		if item.InviteID == "inv-1" {
			if item.Accepted || item.Reason != "expired" {
				t.Errorf("expected inv-1 skipped as expired, got %+v", item)
			}
		}
		if item.InviteID == "inv-2" && !item.Accepted {
			t.Errorf("expected inv-2 accepted, got %+v", item)
		}
	}
	// The expired invite stays pending so a fresh one can supersede it.
	expired = invites.invites["club-1/inv-1"]
	if !expired.IsPending() {
		t.Error("expected expired invite to stay pending")
	}
}

func TestExecuteAcceptPendingByEmail_OneFailureDoesNotBlockRest(t *testing.T) {
	invites := newMockInviteStore()
	// An invalid role makes membership validation fail for this invite.
	bad := pendingInvite("club-1", "inv-1", "sam@example.com", "")
	bad.Role = "owner"
	invites.invites["club-1/inv-1"] = bad
	invites.invites["club-2/inv-2"] = pendingInvite("club-2", "inv-2", "sam@example.com", "")
	members := newMockMembershipStore()

	caller := Caller{UserID: "user-1", Email: "sam@example.com"}
	result, err := ExecuteAcceptPendingByEmail(context.Background(), caller, acceptDeps(invites, newMockIdentityStore(), members))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Processed != 1 {
		t.Errorf("expected processed=1, got %d", result.Processed)
	}
	if _, ok := members.memberships["club-2/user-1"]; !ok {
		t.Error("expected healthy invite to be redeemed despite sibling failure")
	}
}

func TestExecuteAcceptPendingByEmail_RequiresEmail(t *testing.T) {
	caller := Caller{UserID: "user-1"}
	_, err := ExecuteAcceptPendingByEmail(context.Background(), caller, acceptDeps(newMockInviteStore(), newMockIdentityStore(), newMockMembershipStore()))
	if fault.CodeOf(err) != fault.FailedPrecondition {
		t.Fatalf("expected failed-precondition for missing email, got %v", err)
	}
}
