package orchestrators

import (
	"context"
	"testing"

	"clubdesk/internal/domain/fault"
	"clubdesk/internal/domain/identity"
)

func assignDeps(ids *mockIdentityStore, members *mockMembershipStore) AssignAdminDeps {
	return AssignAdminDeps{
		IdentityStore: ids,
		Authz:         AuthzDeps{IdentityStore: ids, ProfileStore: newMockProfileStore()},
		Claims:        ClaimsDeps{IdentityStore: ids, OutboxStore: newMockOutboxStore(), GenerateID: fixedID, Now: fixedNow},
		Sync:          MembershipSyncDeps{MembershipStore: members, Now: fixedNow},
		GenerateID:    fixedID,
		Now:           fixedNow,
	}
}

func TestExecuteAssignAdmin_ExistingIdentity(t *testing.T) {
	ids := newMockIdentityStore()
	seedSuper(ids, "super-1")
	ids.ids["user-1"] = identity.Identity{ID: "user-1", Email: "pat@example.com", Status: identity.StatusActive}
	members := newMockMembershipStore()

	uid, err := ExecuteAssignAdmin(context.Background(), AssignAdminInput{ClubID: "club-1", Email: "pat@example.com"}, Caller{UserID: "super-1", Email: "super-1@clubdesk.test"}, assignDeps(ids, members))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uid != "user-1" {
		t.Errorf("expected uid=user-1, got %s", uid)
	}

	got := ids.ids["user-1"]
	if got.RoleClaim() != identity.RoleAdmin {
		t.Errorf("expected role claim=admin, got %q", got.RoleClaim())
	}
	if got.ClubClaim() != "club-1" {
		t.Errorf("expected club_id claim=club-1, got %q", got.ClubClaim())
	}
	m, ok := members.memberships["club-1/user-1"]
	if !ok {
		t.Fatal("expected membership to be written")
	}
	if m.Role != identity.RoleAdmin {
		t.Errorf("expected membership role=admin, got %s", m.Role)
	}
}

func TestExecuteAssignAdmin_ProvisionsMissingIdentity(t *testing.T) {
	ids := newMockIdentityStore()
	seedSuper(ids, "super-1")
	members := newMockMembershipStore()

	uid, err := ExecuteAssignAdmin(context.Background(), AssignAdminInput{ClubID: "club-1", Email: "new@example.com"}, Caller{UserID: "super-1", Email: "super-1@clubdesk.test"}, assignDeps(ids, members))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uid != "test-id-001" {
		t.Errorf("expected provisioned uid=test-id-001, got %s", uid)
	}

	got, ok := ids.ids[uid]
	if !ok {
		t.Fatal("expected identity to be provisioned")
	}
	if got.Status != identity.StatusPending {
		t.Errorf("expected provisioned status=pending, got %s", got.Status)
	}
	if got.RoleClaim() != identity.RoleAdmin {
		t.Errorf("expected role claim=admin on provisioned identity, got %q", got.RoleClaim())
	}
}

func TestExecuteAssignAdmin_NonSuperDenied(t *testing.T) {
	ids := newMockIdentityStore()
	ids.ids["user-1"] = identity.Identity{ID: "user-1", Email: "pat@example.com", Status: identity.StatusActive}
	members := newMockMembershipStore()

	_, err := ExecuteAssignAdmin(context.Background(), AssignAdminInput{ClubID: "club-1", Email: "pat@example.com"}, Caller{UserID: "user-1", Email: "pat@example.com"}, assignDeps(ids, members))
	if fault.CodeOf(err) != fault.PermissionDenied {
		t.Fatalf("expected permission-denied, got %v", err)
	}
	if len(members.memberships) != 0 {
		t.Error("expected no membership writes on denial")
	}
}

func TestExecuteAssignAdmin_Unauthenticated(t *testing.T) {
	_, err := ExecuteAssignAdmin(context.Background(), AssignAdminInput{ClubID: "club-1", Email: "pat@example.com"}, Caller{}, assignDeps(newMockIdentityStore(), newMockMembershipStore()))
	if fault.CodeOf(err) != fault.Unauthenticated {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestExecuteAssignAdmin_MissingInput(t *testing.T) {
	ids := newMockIdentityStore()
	seedSuper(ids, "super-1")
	_, err := ExecuteAssignAdmin(context.Background(), AssignAdminInput{ClubID: "", Email: ""}, Caller{UserID: "super-1"}, assignDeps(ids, newMockMembershipStore()))
	if fault.CodeOf(err) != fault.InvalidArgument {
		t.Fatalf("expected invalid-argument, got %v", err)
	}
}

func removeDeps(ids *mockIdentityStore, members *mockMembershipStore) RemoveAdminDeps {
	return RemoveAdminDeps{
		Authz:  AuthzDeps{IdentityStore: ids, ProfileStore: newMockProfileStore()},
		Claims: ClaimsDeps{IdentityStore: ids, OutboxStore: newMockOutboxStore(), GenerateID: fixedID, Now: fixedNow},
		Sync:   MembershipSyncDeps{MembershipStore: members, Now: fixedNow},
	}
}

func TestExecuteRemoveAdmin_ClearsRoleKeepsSuper(t *testing.T) {
	ids := newMockIdentityStore()
	seedSuper(ids, "super-1")
	// An admin who also happens to hold the super claim.
	ids.ids["user-1"] = identity.Identity{
		ID:     "user-1",
		Email:  "pat@example.com",
		Status: identity.StatusActive,
		Claims: map[string]any{
			identity.ClaimRole:       identity.RoleAdmin,
			identity.ClaimClubID:     "club-1",
			identity.ClaimSuperAdmin: true,
		},
	}
	members := newMockMembershipStore()
	deps := removeDeps(ids, members)
	if err := SyncMembership(context.Background(), deps.Sync, "club-1", "user-1", "pat@example.com", identity.RoleAdmin); err != nil {
		t.Fatalf("seed membership: %v", err)
	}

	err := ExecuteRemoveAdmin(context.Background(), RemoveAdminInput{ClubID: "club-1", UserID: "user-1"}, Caller{UserID: "super-1"}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := ids.ids["user-1"]
	if got.RoleClaim() != "" || got.ClubClaim() != "" {
		t.Errorf("expected role/club_id cleared, got role=%q club=%q", got.RoleClaim(), got.ClubClaim())
	}
	if !got.HasSuperClaim() {
		t.Error("expected super_admin claim to survive role removal")
	}
	if _, ok := members.memberships["club-1/user-1"]; ok {
		t.Error("expected membership removed")
	}
	if p := members.profiles["user-1"]; p.Role != identity.RoleAthlete || p.TeamID != "" {
		t.Errorf("expected profile reset to athlete with no team, got role=%q team=%q", p.Role, p.TeamID)
	}
}

func TestExecuteRemoveAdmin_NonSuperDenied(t *testing.T) {
	ids := newMockIdentityStore()
	ids.ids["user-1"] = identity.Identity{ID: "user-1", Email: "pat@example.com", Status: identity.StatusActive}
	err := ExecuteRemoveAdmin(context.Background(), RemoveAdminInput{ClubID: "club-1", UserID: "user-2"}, Caller{UserID: "user-1"}, removeDeps(ids, newMockMembershipStore()))
	if fault.CodeOf(err) != fault.PermissionDenied {
		t.Fatalf("expected permission-denied, got %v", err)
	}
}
