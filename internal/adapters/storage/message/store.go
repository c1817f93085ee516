package message

import (
	"context"

	domain "clubdesk/internal/domain/message"
)

// Store persists club Message state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Message, error)
	Save(ctx context.Context, value domain.Message) error
	ListByClub(ctx context.Context, clubID string) ([]domain.Message, error)
	Delete(ctx context.Context, id string) error
}
