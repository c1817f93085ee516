package profile

import (
	"errors"
	"strings"
	"time"
)

// Domain errors
var (
	ErrEmptyUserID = errors.New("user id cannot be empty")
	ErrEmptyEmail  = errors.New("email cannot be empty")
)

// UserProfile mirrors an identity's current role and club binding for
// read convenience. It is not authoritative for authorization; the
// claims map on the identity is.
type UserProfile struct {
	UserID    string
	Email     string
	Role      string
	TeamID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks if the UserProfile has valid data.
// PRE: UserProfile struct is populated
// POST: Returns nil if valid, error otherwise
func (p *UserProfile) Validate() error {
	if strings.TrimSpace(p.UserID) == "" {
		return ErrEmptyUserID
	}
	if strings.TrimSpace(p.Email) == "" {
		return ErrEmptyEmail
	}
	if !strings.Contains(p.Email, "@") {
		return errors.New("email must be valid")
	}
	return nil
}
