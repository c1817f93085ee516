package identity

import (
	"errors"
	"testing"
	"time"
)

func TestSetPassword_And_Check(t *testing.T) {
	i := Identity{ID: "user-1", Email: "pat@example.com", Status: StatusActive}
	if err := i.SetPassword("short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	if err := i.SetPassword("a long enough password"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := i.CheckPassword("a long enough password"); err != nil {
		t.Errorf("expected matching password to pass, got %v", err)
	}
	if err := i.CheckPassword("wrong password here"); err == nil {
		t.Error("expected wrong password to fail")
	}
}

func TestLockout(t *testing.T) {
	i := Identity{ID: "user-1", Email: "pat@example.com", Status: StatusActive}
	for n := 0; n < 5; n++ {
		if i.IsLocked() {
			t.Fatalf("expected unlocked before attempt %d", n)
		}
		i.RecordFailedLogin()
	}
	if !i.IsLocked() {
		t.Fatal("expected lock after max failed attempts")
	}
	i.ResetFailedLogins()
	if i.IsLocked() {
		t.Error("expected reset to unlock")
	}
	if i.FailedLogins != 0 {
		t.Errorf("expected counter reset, got %d", i.FailedLogins)
	}
}

func TestMergeClaims(t *testing.T) {
	i := Identity{ID: "user-1", Claims: map[string]any{ClaimSuperAdmin: true}}
	i.MergeClaims(map[string]any{ClaimRole: RoleAdmin, ClaimClubID: "club-1"})

	if i.RoleClaim() != RoleAdmin {
		t.Errorf("expected role claim=admin, got %q", i.RoleClaim())
	}
	if i.ClubClaim() != "club-1" {
		t.Errorf("expected club claim=club-1, got %q", i.ClubClaim())
	}
	if !i.HasSuperClaim() {
		t.Error("expected merge to preserve unrelated claims")
	}
}

func TestMergeClaims_NilMap(t *testing.T) {
	var i Identity
	i.MergeClaims(map[string]any{ClaimRole: RoleAdmin})
	if i.RoleClaim() != RoleAdmin {
		t.Error("expected merge into a nil claims map to work")
	}
}

func TestClearClaims(t *testing.T) {
	i := Identity{Claims: map[string]any{
		ClaimRole:       RoleAdmin,
		ClaimClubID:     "club-1",
		ClaimSuperAdmin: true,
	}}
	i.ClearClaims(ClaimRole, ClaimClubID)

	if i.RoleClaim() != "" || i.ClubClaim() != "" {
		t.Error("expected role and club claims cleared")
	}
	if !i.HasSuperClaim() {
		t.Error("expected untargeted claims to survive")
	}
}

func TestClaimHelpers(t *testing.T) {
	claims := map[string]any{"s": "x", "b": true, "n": 42}
	if ClaimString(claims, "s") != "x" {
		t.Error("expected string claim")
	}
	if ClaimString(claims, "n") != "" {
		t.Error("expected non-string claim to read as empty")
	}
	if !ClaimIsTrue(claims, "b") {
		t.Error("expected true claim")
	}
	if ClaimIsTrue(claims, "missing") {
		t.Error("expected missing claim to read false")
	}
	if ClaimIsTrue(nil, "b") {
		t.Error("expected nil map to read false")
	}
}

func TestIsValidRole(t *testing.T) {
	if !IsValidRole(RoleAdmin) || !IsValidRole(RoleAthlete) {
		t.Error("expected admin and athlete to be valid")
	}
	if IsValidRole("owner") || IsValidRole("") {
		t.Error("expected unknown roles invalid")
	}
}

func TestValidate(t *testing.T) {
	i := Identity{ID: "user-1", Email: "pat@example.com", Status: StatusActive, CreatedAt: time.Now()}
	if err := i.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	i.Email = "nope"
	if err := i.Validate(); err == nil {
		t.Error("expected error for malformed email")
	}
}
