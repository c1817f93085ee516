package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"clubdesk/internal/domain/identity"
)

// IdentityStoreForSeed defines the store interface needed by the
// bootstrap seeder.
type IdentityStoreForSeed interface {
	Count(ctx context.Context) (int, error)
	GetByEmail(ctx context.Context, email string) (identity.Identity, error)
	Save(ctx context.Context, value identity.Identity) error
}

// SeedSuperAdminInput carries the bootstrap credentials.
type SeedSuperAdminInput struct {
	Email    string
	Password string
}

// SeedSuperAdminDeps holds dependencies for the seeder.
type SeedSuperAdminDeps struct {
	IdentityStore IdentityStoreForSeed
	GenerateID    func() string
	Now           func() time.Time
}

// ExecuteSeedSuperAdmin creates the first super-admin identity on an
// empty database. On a populated database it does nothing, so restarts
// are safe and the seeder can never demote or overwrite a real user.
// PRE: input carries a valid email and a password of 12+ characters
// POST: exactly one identity with super_admin claim exists on first run
func ExecuteSeedSuperAdmin(ctx context.Context, input SeedSuperAdminInput, deps SeedSuperAdminDeps) error {
	if input.Email == "" || input.Password == "" {
		slog.Info("seed_event", "event", "super_admin_seed_skipped", "reason", "no_credentials")
		return nil
	}

	n, err := deps.IdentityStore.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	id := identity.Identity{
		ID:        deps.GenerateID(),
		Email:     input.Email,
		Status:    identity.StatusActive,
		Claims:    map[string]any{identity.ClaimSuperAdmin: true},
		CreatedAt: deps.Now(),
	}
	if err := id.SetPassword(input.Password); err != nil {
		return err
	}
	if err := id.Validate(); err != nil {
		return err
	}
	if err := deps.IdentityStore.Save(ctx, id); err != nil {
		return err
	}

	slog.Info("seed_event", "event", "super_admin_seeded", "user_id", id.ID)
	return nil
}
