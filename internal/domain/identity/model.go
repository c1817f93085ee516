package identity

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Max length constants for user-editable fields.
const (
	MaxEmailLength = 254
)

// Role constants shared by claims, memberships, and profiles.
const (
	RoleAdmin   = "admin"
	RoleAthlete = "athlete"
	RoleSuper   = "super"
)

// Claim keys attached to an identity's credential.
const (
	ClaimRole       = "role"
	ClaimClubID     = "club_id"
	ClaimSuperAdmin = "super_admin"
)

// Identity status constants. Auto-provisioned identities start pending
// until the user sets a password.
const (
	StatusActive  = "active"
	StatusPending = "pending"
)

// Domain errors
var (
	ErrEmptyEmail       = errors.New("email cannot be empty")
	ErrInvalidEmail     = errors.New("email must contain '@'")
	ErrEmptyPassword    = errors.New("password cannot be empty")
	ErrPasswordTooShort = errors.New("password must be at least 12 characters")
	ErrWrongPassword    = errors.New("incorrect password")
	ErrNoEmail          = errors.New("identity has no verified email")
)

// Identity holds state for a platform user as known to the identity
// provider, including the privileged claims map embedded in credentials.
type Identity struct {
	ID           string
	Email        string
	PasswordHash string
	Status       string
	Claims       map[string]any
	CreatedAt    time.Time
	FailedLogins int
	LockedUntil  time.Time
}

// Validate checks if the Identity has valid data.
// PRE: Identity struct is populated
// POST: Returns nil if valid, error otherwise
func (i *Identity) Validate() error {
	if strings.TrimSpace(i.Email) == "" {
		return ErrEmptyEmail
	}
	if len(i.Email) > MaxEmailLength {
		return errors.New("email cannot exceed 254 characters")
	}
	if !strings.Contains(i.Email, "@") {
		return ErrInvalidEmail
	}
	if i.Status != StatusActive && i.Status != StatusPending {
		return errors.New("status must be 'active' or 'pending'")
	}
	return nil
}

// SetPassword hashes and stores a password using bcrypt with cost 12.
// PRE: plaintext is non-empty and >= 12 characters
// POST: PasswordHash is set to bcrypt hash
func (i *Identity) SetPassword(plaintext string) error {
	if plaintext == "" {
		return ErrEmptyPassword
	}
	if len(plaintext) < 12 {
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), 12)
	if err != nil {
		return err
	}
	i.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash.
// PRE: PasswordHash is set
// INVARIANT: Identity fields are not mutated
func (i *Identity) CheckPassword(plaintext string) error {
	if i.PasswordHash == "" {
		return ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(i.PasswordHash), []byte(plaintext)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// IsLocked returns true if the identity is currently locked out.
// INVARIANT: Identity fields are not mutated
func (i *Identity) IsLocked() bool {
	if i.LockedUntil.IsZero() {
		return false
	}
	return time.Now().Before(i.LockedUntil)
}

// RecordFailedLogin increments the failed login counter and locks the
// identity for 15 minutes after 5 failures.
// PRE: Identity exists
// POST: FailedLogins incremented; LockedUntil set if >= 5 failures
func (i *Identity) RecordFailedLogin() {
	i.FailedLogins++
	if i.FailedLogins >= 5 {
		i.LockedUntil = time.Now().Add(15 * time.Minute)
	}
}

// ResetFailedLogins clears the failed login counter and lock.
// PRE: Identity exists
// POST: FailedLogins is 0, LockedUntil is zero
func (i *Identity) ResetFailedLogins() {
	i.FailedLogins = 0
	i.LockedUntil = time.Time{}
}

// HasSuperClaim returns true if the claims map marks the identity as a
// platform super-admin.
// INVARIANT: Claims map is not mutated
func (i *Identity) HasSuperClaim() bool {
	return ClaimIsTrue(i.Claims, ClaimSuperAdmin)
}

// RoleClaim returns the role claim, or "" when absent.
// INVARIANT: Claims map is not mutated
func (i *Identity) RoleClaim() string {
	return ClaimString(i.Claims, ClaimRole)
}

// ClubClaim returns the club binding claim, or "" when absent.
// INVARIANT: Claims map is not mutated
func (i *Identity) ClubClaim() string {
	return ClaimString(i.Claims, ClaimClubID)
}

// MergeClaims applies patch on top of existing claims without touching
// keys the patch does not name. A nil receiver map is allocated.
// PRE: patch is non-nil
// POST: Claims contains every key of patch; other keys preserved
func (i *Identity) MergeClaims(patch map[string]any) {
	if i.Claims == nil {
		i.Claims = make(map[string]any, len(patch))
	}
	for k, v := range patch {
		i.Claims[k] = v
	}
}

// ClearClaims removes the named keys, leaving all others intact.
// POST: Named keys absent from Claims
func (i *Identity) ClearClaims(keys ...string) {
	for _, k := range keys {
		delete(i.Claims, k)
	}
}

// ClaimString reads a string-valued claim from a claims map.
func ClaimString(claims map[string]any, key string) string {
	if claims == nil {
		return ""
	}
	s, _ := claims[key].(string)
	return s
}

// ClaimIsTrue reads a boolean claim, treating any truthy encoding
// (bool true, "true", non-zero number) as set.
func ClaimIsTrue(claims map[string]any, key string) bool {
	if claims == nil {
		return false
	}
	switch v := claims[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	case float64:
		return v != 0
	case int:
		return v != 0
	default:
		return false
	}
}

// IsValidRole reports whether role is one of the assignable club roles.
func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleAthlete
}
