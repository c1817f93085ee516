package profile

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"clubdesk/internal/adapters/storage"
	domain "clubdesk/internal/domain/profile"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new profile Store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a UserProfile by its user ID.
// PRE: userID is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, userID string) (domain.UserProfile, error) {
	query := "SELECT user_id, email, role, team_id, created_at, updated_at FROM profile WHERE user_id = ?"
	row := s.db.QueryRowContext(ctx, query, userID)

	var entity domain.UserProfile
	var createdAt string
	var updatedAt sql.NullString
	err := row.Scan(
		&entity.UserID,
		&entity.Email,
		&entity.Role,
		&entity.TeamID,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.UserProfile{}, fmt.Errorf("profile not found: %w", err)
	}
	if err != nil {
		return domain.UserProfile{}, err
	}
	entity.CreatedAt, _ = parseTime(createdAt)
	if updatedAt.Valid && updatedAt.String != "" {
		entity.UpdatedAt, _ = parseTime(updatedAt.String)
	}
	return entity, nil
}

// Save persists a UserProfile to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update); email only on create
func (s *SQLiteStore) Save(ctx context.Context, entity domain.UserProfile) error {
	var updatedAt interface{}
	if !entity.UpdatedAt.IsZero() {
		updatedAt = entity.UpdatedAt.Format(time.RFC3339Nano)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profile (user_id, email, role, team_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			role=excluded.role,
			team_id=excluded.team_id,
			updated_at=excluded.updated_at`,
		entity.UserID,
		entity.Email,
		entity.Role,
		entity.TeamID,
		entity.CreatedAt.Format(time.RFC3339Nano),
		updatedAt,
	)
	return err
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
