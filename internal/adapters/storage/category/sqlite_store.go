package category

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"clubdesk/internal/adapters/storage"
	domain "clubdesk/internal/domain/category"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new category Store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Category by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Category, error) {
	query := "SELECT id, club_id, name, unit, created_at, updated_at FROM category WHERE id = ?"
	row := s.db.QueryRowContext(ctx, query, id)

	entity, err := scanCategory(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Category{}, fmt.Errorf("category not found: %w", err)
	}
	return entity, err
}

// Save persists a Category to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Category) error {
	var updatedAt interface{}
	if !entity.UpdatedAt.IsZero() {
		updatedAt = entity.UpdatedAt.Format(time.RFC3339Nano)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO category (id, club_id, name, unit, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			unit=excluded.unit,
			updated_at=excluded.updated_at`,
		entity.ID,
		entity.ClubID,
		entity.Name,
		entity.Unit,
		entity.CreatedAt.Format(time.RFC3339Nano),
		updatedAt,
	)
	return err
}

// ListByClub retrieves all categories of a club ordered by name.
// PRE: clubID is non-empty
// POST: Returns matching entities
func (s *SQLiteStore) ListByClub(ctx context.Context, clubID string) ([]domain.Category, error) {
	query := "SELECT id, club_id, name, unit, created_at, updated_at FROM category WHERE club_id = ? ORDER BY name"
	rows, err := s.db.QueryContext(ctx, query, clubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Category
	for rows.Next() {
		entity, err := scanCategory(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// Delete removes a Category from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM category WHERE id = ?", id)
	return err
}

func scanCategory(scan func(dest ...interface{}) error) (domain.Category, error) {
	var entity domain.Category
	var createdAt string
	var updatedAt sql.NullString
	err := scan(
		&entity.ID,
		&entity.ClubID,
		&entity.Name,
		&entity.Unit,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Category{}, err
	}
	entity.CreatedAt, _ = parseTime(createdAt)
	if updatedAt.Valid && updatedAt.String != "" {
		entity.UpdatedAt, _ = parseTime(updatedAt.String)
	}
	return entity, nil
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
