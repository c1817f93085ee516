package identity

import (
	"context"

	domain "clubdesk/internal/domain/identity"
)

// Store is the identity-provider boundary: lookup, creation, and the
// privileged claims map. This package is the only writer of claims.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Identity, error)
	GetByEmail(ctx context.Context, email string) (domain.Identity, error)
	Save(ctx context.Context, value domain.Identity) error
	Count(ctx context.Context) (int, error)

	// GetClaims returns the identity's claims map (never nil).
	GetClaims(ctx context.Context, id string) (map[string]any, error)

	// SetClaims merges patch into the stored claims map. Keys not
	// named in patch are preserved.
	SetClaims(ctx context.Context, id string, patch map[string]any) error

	// ClearClaims removes only the named keys, leaving others intact.
	ClearClaims(ctx context.Context, id string, keys ...string) error
}
