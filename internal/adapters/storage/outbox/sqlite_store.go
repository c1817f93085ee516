package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"clubdesk/internal/adapters/storage"
	domain "clubdesk/internal/domain/outbox"
)

// SQLiteStore implements the outbox Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new outbox store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const outboxColumns = "id, action_type, payload, status, attempts, max_attempts, last_attempted_at, created_at, error_message"

// GetByID retrieves an outbox entry by its ID.
// PRE: id is non-empty
// POST: Returns the entry or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Entry, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+outboxColumns+" FROM outbox WHERE id = ?", id)
	entity, err := scanEntry(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Entry{}, fmt.Errorf("outbox entry not found: %w", err)
	}
	return entity, err
}

// Save persists an outbox entry to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, e domain.Entry) error {
	var lastAttemptedAt interface{}
	if !e.LastAttemptedAt.IsZero() {
		lastAttemptedAt = e.LastAttemptedAt.Format(time.RFC3339Nano)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO outbox (id, action_type, payload, status, attempts, max_attempts, last_attempted_at, created_at, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status=excluded.status,
			attempts=excluded.attempts,
			max_attempts=excluded.max_attempts,
			last_attempted_at=excluded.last_attempted_at,
			error_message=excluded.error_message`,
		e.ID, e.ActionType, e.Payload, e.Status, e.Attempts, e.MaxAttempts,
		lastAttemptedAt, e.CreatedAt.Format(time.RFC3339Nano), e.ErrorMessage)
	return err
}

// ListPending returns entries that still need processing.
// PRE: limit > 0
// POST: Returns up to limit entries ordered by created_at
func (s *SQLiteStore) ListPending(ctx context.Context, limit int) ([]domain.Entry, error) {
	query := "SELECT " + outboxColumns + ` FROM outbox
		WHERE (status IN (?, ?) OR (status = ? AND attempts < max_attempts))
		ORDER BY created_at LIMIT ?`
	return s.list(ctx, query, domain.StatusPending, domain.StatusRetrying, domain.StatusFailed, limit)
}

// ListFailed returns entries that have permanently failed.
// PRE: limit > 0
// POST: Returns up to limit entries ordered by last_attempted_at desc
func (s *SQLiteStore) ListFailed(ctx context.Context, limit int) ([]domain.Entry, error) {
	query := "SELECT " + outboxColumns + ` FROM outbox
		WHERE status = ? AND attempts >= max_attempts
		ORDER BY last_attempted_at DESC LIMIT ?`
	return s.list(ctx, query, domain.StatusFailed, limit)
}

// Delete removes an outbox entry from the database.
// PRE: id is non-empty
// POST: Entry with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM outbox WHERE id = ?", id)
	return err
}

func (s *SQLiteStore) list(ctx context.Context, query string, args ...any) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Entry
	for rows.Next() {
		entity, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func scanEntry(scan func(dest ...interface{}) error) (domain.Entry, error) {
	var entity domain.Entry
	var lastAttemptedAt, errorMessage sql.NullString
	var createdAt string
	err := scan(
		&entity.ID,
		&entity.ActionType,
		&entity.Payload,
		&entity.Status,
		&entity.Attempts,
		&entity.MaxAttempts,
		&lastAttemptedAt,
		&createdAt,
		&errorMessage,
	)
	if err != nil {
		return domain.Entry{}, err
	}
	if lastAttemptedAt.Valid && lastAttemptedAt.String != "" {
		entity.LastAttemptedAt, _ = parseTime(lastAttemptedAt.String)
	}
	entity.CreatedAt, _ = parseTime(createdAt)
	if errorMessage.Valid {
		entity.ErrorMessage = errorMessage.String
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
