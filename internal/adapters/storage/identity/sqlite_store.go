package identity

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"clubdesk/internal/adapters/storage"
	domain "clubdesk/internal/domain/identity"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new identity Store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const identityColumns = "id, email, password_hash, status, claims, created_at, failed_logins, locked_until"

// GetByID retrieves an Identity by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Identity, error) {
	query := "SELECT " + identityColumns + " FROM identity WHERE id = ?"
	row := s.db.QueryRowContext(ctx, query, id)

	entity, err := scanIdentity(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Identity{}, fmt.Errorf("identity not found: %w", err)
	}
	return entity, err
}

// GetByEmail retrieves an Identity by email (case-insensitive).
// PRE: email is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Identity, error) {
	query := "SELECT " + identityColumns + " FROM identity WHERE email = ?"
	row := s.db.QueryRowContext(ctx, query, email)

	entity, err := scanIdentity(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Identity{}, fmt.Errorf("identity not found: %w", err)
	}
	return entity, err
}

// Save persists an Identity to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Identity) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	claims, err := encodeClaims(entity.Claims)
	if err != nil {
		return err
	}

	fields := []string{"id", "email", "password_hash", "status", "claims", "created_at", "failed_logins", "locked_until"}
	placeholders := []string{"?", "?", "?", "?", "?", "?", "?", "?"}
	updates := []string{
		"email=excluded.email",
		"password_hash=excluded.password_hash",
		"status=excluded.status",
		"claims=excluded.claims",
		"failed_logins=excluded.failed_logins",
		"locked_until=excluded.locked_until",
	}

	query := fmt.Sprintf(
		"INSERT INTO identity (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		strings.Join(fields, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)

	var lockedUntil interface{}
	if !entity.LockedUntil.IsZero() {
		lockedUntil = entity.LockedUntil.Format(time.RFC3339Nano)
	}

	_, err = tx.ExecContext(ctx, query,
		entity.ID,
		entity.Email,
		entity.PasswordHash,
		entity.Status,
		claims,
		entity.CreatedAt.Format(time.RFC3339Nano),
		entity.FailedLogins,
		lockedUntil,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Count returns the total number of identities.
// PRE: none
// POST: Returns count >= 0
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM identity").Scan(&count)
	return count, err
}

// GetClaims returns the identity's claims map.
// PRE: id is non-empty
// POST: Returns a non-nil map or an error if the identity is missing
func (s *SQLiteStore) GetClaims(ctx context.Context, id string) (map[string]any, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT claims FROM identity WHERE id = ?", id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("identity not found: %w", err)
	}
	if err != nil {
		return nil, err
	}
	return decodeClaims(raw)
}

// SetClaims merges patch into the stored claims map inside a single
// transaction so concurrent claim writes cannot lose keys.
// PRE: id is non-empty, patch is non-nil
// POST: Stored claims contain every key of patch; other keys preserved
func (s *SQLiteStore) SetClaims(ctx context.Context, id string, patch map[string]any) error {
	return s.updateClaims(ctx, id, func(claims map[string]any) {
		for k, v := range patch {
			claims[k] = v
		}
	})
}

// ClearClaims removes only the named keys from the stored claims map.
// PRE: id is non-empty
// POST: Named keys absent; all other claims untouched
func (s *SQLiteStore) ClearClaims(ctx context.Context, id string, keys ...string) error {
	return s.updateClaims(ctx, id, func(claims map[string]any) {
		for _, k := range keys {
			delete(claims, k)
		}
	})
}

// updateClaims applies mutate to the claims map under a transaction.
func (s *SQLiteStore) updateClaims(ctx context.Context, id string, mutate func(map[string]any)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx, "SELECT claims FROM identity WHERE id = ?", id).Scan(&raw)
	if err == sql.ErrNoRows {
		return fmt.Errorf("identity not found: %w", err)
	}
	if err != nil {
		return err
	}

	claims, err := decodeClaims(raw)
	if err != nil {
		return err
	}
	mutate(claims)

	encoded, err := encodeClaims(claims)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "UPDATE identity SET claims = ? WHERE id = ?", encoded, id); err != nil {
		return err
	}

	return tx.Commit()
}

func scanIdentity(scan func(dest ...interface{}) error) (domain.Identity, error) {
	var entity domain.Identity
	var claims string
	var createdAt string
	var lockedUntil sql.NullString
	err := scan(
		&entity.ID,
		&entity.Email,
		&entity.PasswordHash,
		&entity.Status,
		&claims,
		&createdAt,
		&entity.FailedLogins,
		&lockedUntil,
	)
	if err != nil {
		return domain.Identity{}, err
	}
	entity.Claims, err = decodeClaims(claims)
	if err != nil {
		return domain.Identity{}, err
	}
	entity.CreatedAt, _ = parseTime(createdAt)
	if lockedUntil.Valid && lockedUntil.String != "" {
		entity.LockedUntil, _ = parseTime(lockedUntil.String)
	}
	return entity, nil
}

func encodeClaims(claims map[string]any) (string, error) {
	if claims == nil {
		return "{}", nil
	}
	b, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("encode claims: %w", err)
	}
	return string(b), nil
}

func decodeClaims(raw string) (map[string]any, error) {
	claims := make(map[string]any)
	if raw == "" {
		return claims, nil
	}
	if err := json.Unmarshal([]byte(raw), &claims); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}
	return claims, nil
}

func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		t, err := time.Parse(f, s)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time: %s", s)
}
