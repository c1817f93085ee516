package invite

import (
	"errors"
	"strings"
	"time"

	"clubdesk/internal/domain/identity"
)

// Status constants for the invite lifecycle. Expiry is evaluated
// against ExpiresAt at redemption time and is never persisted as a
// status of its own.
const (
	StatusPending = "pending"
	StatusUsed    = "used"
	StatusRevoked = "revoked"
)

// DefaultTTL is how long a freshly issued invite stays redeemable.
const DefaultTTL = 7 * 24 * time.Hour

// Domain errors
var (
	ErrEmptyClubID   = errors.New("club id cannot be empty")
	ErrEmptyEmail    = errors.New("invite email cannot be empty")
	ErrNotPending    = errors.New("invite is not pending")
	ErrExpired       = errors.New("invite has expired")
	ErrEmailMismatch = errors.New("invite email does not match caller")
)

// Invite is a single-use, time-bounded offer of a club role tied to an
// email address. Keyed by (ClubID, ID).
type Invite struct {
	ID        string
	ClubID    string
	Email     string
	Role      string
	Status    string
	ExpiresAt time.Time
	CreatedAt time.Time
	CreatedBy string
	UsedAt    time.Time
}

// Validate checks if the Invite has valid data.
// PRE: Invite struct is populated
// POST: Returns nil if valid, error otherwise
func (i *Invite) Validate() error {
	if strings.TrimSpace(i.ClubID) == "" {
		return ErrEmptyClubID
	}
	if strings.TrimSpace(i.Email) == "" {
		return ErrEmptyEmail
	}
	if !strings.Contains(i.Email, "@") {
		return errors.New("invite email must be valid")
	}
	if i.Role != "" && !identity.IsValidRole(i.Role) {
		return errors.New("invite role must be 'admin' or 'athlete'")
	}
	if i.Status != StatusPending && i.Status != StatusUsed && i.Status != StatusRevoked {
		return errors.New("status must be 'pending', 'used', or 'revoked'")
	}
	if i.ExpiresAt.IsZero() {
		return errors.New("expires_at must be set")
	}
	return nil
}

// IsPending returns true if the invite has not been used or revoked.
// INVARIANT: Invite fields are not mutated
func (i *Invite) IsPending() bool {
	return i.Status == StatusPending
}

// IsExpired returns true if the invite's window has passed at now.
// Expiry is a derived condition, never a stored state.
// INVARIANT: Invite fields are not mutated
func (i *Invite) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// EmailMatches compares the invite's email with the caller's verified
// email, case-insensitively.
// INVARIANT: Invite fields are not mutated
func (i *Invite) EmailMatches(email string) bool {
	return strings.EqualFold(strings.TrimSpace(i.Email), strings.TrimSpace(email))
}

// GrantedRole returns the role the invite confers, defaulting to
// athlete when unset.
// INVARIANT: Invite fields are not mutated
func (i *Invite) GrantedRole() string {
	if i.Role == "" {
		return identity.RoleAthlete
	}
	return i.Role
}

// CheckRedeemable verifies the full redemption guard in order:
// pending, unexpired, email match. It reports the first violation.
// PRE: Invite was loaded from the store
// POST: Returns nil only when every guard passes; Invite is unchanged
func (i *Invite) CheckRedeemable(now time.Time, callerEmail string) error {
	if !i.IsPending() {
		return ErrNotPending
	}
	if i.IsExpired(now) {
		return ErrExpired
	}
	if !i.EmailMatches(callerEmail) {
		return ErrEmailMismatch
	}
	return nil
}
