package invite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"clubdesk/internal/adapters/storage"
	domain "clubdesk/internal/domain/invite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new invite Store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const inviteColumns = "id, club_id, email, role, status, expires_at, created_at, created_by, used_at"

// GetByID retrieves an Invite by its (clubID, id) key.
// PRE: clubID and id are non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, clubID, id string) (domain.Invite, error) {
	query := "SELECT " + inviteColumns + " FROM invite WHERE club_id = ? AND id = ?"
	row := s.db.QueryRowContext(ctx, query, clubID, id)

	entity, err := scanInvite(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Invite{}, fmt.Errorf("invite not found: %w", err)
	}
	return entity, err
}

// Save persists an Invite to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Invite) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	fields := []string{"id", "club_id", "email", "role", "status", "expires_at", "created_at", "created_by", "used_at"}
	placeholders := []string{"?", "?", "?", "?", "?", "?", "?", "?", "?"}
	updates := []string{
		"email=excluded.email",
		"role=excluded.role",
		"status=excluded.status",
		"expires_at=excluded.expires_at",
		"used_at=excluded.used_at",
	}

	query := fmt.Sprintf(
		"INSERT INTO invite (%s) VALUES (%s) ON CONFLICT(club_id, id) DO UPDATE SET %s",
		strings.Join(fields, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)

	var usedAt interface{}
	if !entity.UsedAt.IsZero() {
		usedAt = entity.UsedAt.Format(time.RFC3339Nano)
	}
	var createdBy interface{}
	if entity.CreatedBy != "" {
		createdBy = entity.CreatedBy
	}

	_, err = tx.ExecContext(ctx, query,
		entity.ID,
		entity.ClubID,
		entity.Email,
		entity.Role,
		entity.Status,
		entity.ExpiresAt.Format(time.RFC3339Nano),
		entity.CreatedAt.Format(time.RFC3339Nano),
		createdBy,
		usedAt,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// ListByClub retrieves all invites of a club, newest first.
// PRE: clubID is non-empty
// POST: Returns matching entities
func (s *SQLiteStore) ListByClub(ctx context.Context, clubID string) ([]domain.Invite, error) {
	query := "SELECT " + inviteColumns + " FROM invite WHERE club_id = ? ORDER BY created_at DESC"
	return s.list(ctx, query, clubID)
}

// ListPendingByEmail finds pending invites across all clubs whose
// email matches, case-insensitively (the email column is NOCASE).
// PRE: email is non-empty
// POST: Returns matching pending entities ordered by created_at
func (s *SQLiteStore) ListPendingByEmail(ctx context.Context, email string) ([]domain.Invite, error) {
	query := "SELECT " + inviteColumns + " FROM invite WHERE email = ? AND status = ? ORDER BY created_at"
	return s.list(ctx, query, email, domain.StatusPending)
}

// MarkUsedIfPending performs the conditional pending → used update.
// PRE: clubID and id are non-empty
// POST: Returns true only if this call performed the transition
func (s *SQLiteStore) MarkUsedIfPending(ctx context.Context, clubID, id string, usedAt time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE invite SET status = ?, used_at = ? WHERE club_id = ? AND id = ? AND status = ?",
		domain.StatusUsed, usedAt.Format(time.RFC3339Nano), clubID, id, domain.StatusPending,
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// MarkRevokedIfPending performs the conditional pending → revoked update.
// PRE: clubID and id are non-empty
// POST: Returns true only if this call performed the transition
func (s *SQLiteStore) MarkRevokedIfPending(ctx context.Context, clubID, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE invite SET status = ? WHERE club_id = ? AND id = ? AND status = ?",
		domain.StatusRevoked, clubID, id, domain.StatusPending,
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *SQLiteStore) list(ctx context.Context, query string, args ...any) ([]domain.Invite, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Invite
	for rows.Next() {
		entity, err := scanInvite(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func scanInvite(scan func(dest ...interface{}) error) (domain.Invite, error) {
	var entity domain.Invite
	var expiresAt, createdAt string
	var createdBy, usedAt sql.NullString
	err := scan(
		&entity.ID,
		&entity.ClubID,
		&entity.Email,
		&entity.Role,
		&entity.Status,
		&expiresAt,
		&createdAt,
		&createdBy,
		&usedAt,
	)
	if err != nil {
		return domain.Invite{}, err
	}
	entity.ExpiresAt, _ = parseTime(expiresAt)
	entity.CreatedAt, _ = parseTime(createdAt)
	if createdBy.Valid {
		entity.CreatedBy = createdBy.String
	}
	if usedAt.Valid && usedAt.String != "" {
		entity.UsedAt, _ = parseTime(usedAt.String)
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
