package message

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"clubdesk/internal/adapters/storage"
	domain "clubdesk/internal/domain/message"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new message Store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Message by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Message, error) {
	query := "SELECT id, club_id, author_id, subject, content, created_at, updated_at FROM club_message WHERE id = ?"
	row := s.db.QueryRowContext(ctx, query, id)

	entity, err := scanMessage(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Message{}, fmt.Errorf("message not found: %w", err)
	}
	return entity, err
}

// Save persists a Message to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Message) error {
	var subject interface{}
	if entity.Subject != "" {
		subject = entity.Subject
	}
	var updatedAt interface{}
	if !entity.UpdatedAt.IsZero() {
		updatedAt = entity.UpdatedAt.Format(time.RFC3339Nano)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO club_message (id, club_id, author_id, subject, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			subject=excluded.subject,
			content=excluded.content,
			updated_at=excluded.updated_at`,
		entity.ID,
		entity.ClubID,
		entity.AuthorID,
		subject,
		entity.Content,
		entity.CreatedAt.Format(time.RFC3339Nano),
		updatedAt,
	)
	return err
}

// ListByClub retrieves all messages of a club, newest first.
// PRE: clubID is non-empty
// POST: Returns matching entities
func (s *SQLiteStore) ListByClub(ctx context.Context, clubID string) ([]domain.Message, error) {
	query := "SELECT id, club_id, author_id, subject, content, created_at, updated_at FROM club_message WHERE club_id = ? ORDER BY created_at DESC"
	rows, err := s.db.QueryContext(ctx, query, clubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Message
	for rows.Next() {
		entity, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// Delete removes a Message from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM club_message WHERE id = ?", id)
	return err
}

func scanMessage(scan func(dest ...interface{}) error) (domain.Message, error) {
	var entity domain.Message
	var subject sql.NullString
	var createdAt string
	var updatedAt sql.NullString
	err := scan(
		&entity.ID,
		&entity.ClubID,
		&entity.AuthorID,
		&subject,
		&entity.Content,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Message{}, err
	}
	if subject.Valid {
		entity.Subject = subject.String
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
