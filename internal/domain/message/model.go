package message

import (
	"errors"
	"time"
)

// Domain errors
var (
	ErrEmptyClubID   = errors.New("club ID is required")
	ErrEmptyAuthorID = errors.New("author ID is required")
	ErrEmptyContent  = errors.New("message content cannot be empty")
)

// Message is a club-wide announcement posted by an admin. Content is
// Markdown; rendering happens at the presentation layer, not here.
type Message struct {
	ID        string
	ClubID    string
	AuthorID  string
	Subject   string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks if the Message has valid data.
// PRE: Message struct is populated
// POST: Returns nil if valid, error otherwise
func (m *Message) Validate() error {
	if m.ClubID == "" {
		return ErrEmptyClubID
	}
	if m.AuthorID == "" {
		return ErrEmptyAuthorID
	}
	if m.Content == "" {
		return ErrEmptyContent
	}
	if m.CreatedAt.IsZero() {
		return errors.New("created_at must be set")
	}
	return nil
}
