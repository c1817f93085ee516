package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"clubdesk/internal/adapters/identitytoken"
	"clubdesk/internal/domain/identity"
)

// IdentityStoreForLogin defines the store interface needed by Login.
type IdentityStoreForLogin interface {
	GetByID(ctx context.Context, id string) (identity.Identity, error)
	GetByEmail(ctx context.Context, email string) (identity.Identity, error)
	Save(ctx context.Context, value identity.Identity) error
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult carries the result of a successful login.
type LoginResult struct {
	UserID string
	Email  string
	Token  string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	IdentityStore IdentityStoreForLogin
	TokenConfig   identitytoken.Config
	Now           func() time.Time
}

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrIdentityLocked     = errors.New("account is locked due to too many failed attempts")
	ErrPendingActivation  = errors.New("account is pending activation and has no password yet")
)

// ExecuteLogin validates credentials and mints an identity token
// carrying the identity's current privileged claims.
// PRE: Valid email and password provided
// POST: Returns a signed token on success, records failed login on failure
// INVARIANT: Identity must not be locked
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	if input.Email == "" || input.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	id, err := deps.IdentityStore.GetByEmail(ctx, input.Email)
	if err != nil {
		slog.Info("auth_event", "event", "login_failed", "email", input.Email, "reason", "not_found")
		return LoginResult{}, ErrInvalidCredentials
	}

	if id.Status == identity.StatusPending {
		slog.Info("auth_event", "event", "login_blocked", "email", input.Email, "reason", "pending_activation")
		return LoginResult{}, ErrPendingActivation
	}

	if id.IsLocked() {
		slog.Info("auth_event", "event", "login_blocked", "email", input.Email, "reason", "locked")
		return LoginResult{}, ErrIdentityLocked
	}

	if err := id.CheckPassword(input.Password); err != nil {
		id.RecordFailedLogin()
		_ = deps.IdentityStore.Save(ctx, id)
		slog.Info("auth_event", "event", "login_failed", "email", input.Email, "reason", "wrong_password", "failed_logins", id.FailedLogins)
		return LoginResult{}, ErrInvalidCredentials
	}

	id.ResetFailedLogins()
	_ = deps.IdentityStore.Save(ctx, id)

	token, err := identitytoken.Mint(id, deps.TokenConfig, deps.Now())
	if err != nil {
		return LoginResult{}, err
	}

	slog.Info("auth_event", "event", "login_success", "email", input.Email, "role", id.RoleClaim())
	return LoginResult{UserID: id.ID, Email: id.Email, Token: token}, nil
}

// ExecuteRefreshToken re-mints an identity token from the identity's
// current claims map. This is the propagation point for claims
// changes: a caller observes a new role or club binding only after
// calling this (or logging in again).
// PRE: userID names an existing identity
// POST: Returns a fresh token embedding the claims as stored now
func ExecuteRefreshToken(ctx context.Context, userID string, deps LoginDeps) (LoginResult, error) {
	id, err := deps.IdentityStore.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if id.IsLocked() {
		return LoginResult{}, ErrIdentityLocked
	}

	token, err := identitytoken.Mint(id, deps.TokenConfig, deps.Now())
	if err != nil {
		return LoginResult{}, err
	}

	slog.Info("auth_event", "event", "token_refreshed", "user_id", id.ID)
	return LoginResult{UserID: id.ID, Email: id.Email, Token: token}, nil
}
