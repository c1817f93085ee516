package membership

import (
	"errors"
	"strings"
	"time"

	"clubdesk/internal/domain/identity"
)

// Status constants. Memberships are deleted on removal rather than
// transitioned, so active is the only persisted status today.
const (
	StatusActive = "active"
)

// Domain errors
var (
	ErrEmptyClubID = errors.New("club id cannot be empty")
	ErrEmptyUserID = errors.New("user id cannot be empty")
	ErrInvalidRole = errors.New("role must be 'admin' or 'athlete'")
)

// Membership records a user's role and status within a specific club.
// Keyed by (ClubID, UserID).
type Membership struct {
	ClubID    string
	UserID    string
	Role      string
	Status    string
	JoinedAt  time.Time
	UpdatedAt time.Time
}

// Validate checks if the Membership has valid data.
// PRE: Membership struct is populated
// POST: Returns nil if valid, error otherwise
func (m *Membership) Validate() error {
	if strings.TrimSpace(m.ClubID) == "" {
		return ErrEmptyClubID
	}
	if strings.TrimSpace(m.UserID) == "" {
		return ErrEmptyUserID
	}
	if !identity.IsValidRole(m.Role) {
		return ErrInvalidRole
	}
	if m.Status != StatusActive {
		return errors.New("status must be 'active'")
	}
	return nil
}

// IsAdmin returns true if the membership carries the admin role.
// INVARIANT: Membership fields are not mutated
func (m *Membership) IsAdmin() bool {
	return m.Role == identity.RoleAdmin
}
