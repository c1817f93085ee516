package membership

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"clubdesk/internal/adapters/storage"
	domain "clubdesk/internal/domain/membership"
	domainProfile "clubdesk/internal/domain/profile"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new membership Store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const membershipColumns = "club_id, user_id, role, status, joined_at, updated_at"

// Get retrieves a Membership by its (clubID, userID) key.
// PRE: clubID and userID are non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) Get(ctx context.Context, clubID, userID string) (domain.Membership, error) {
	query := "SELECT " + membershipColumns + " FROM membership WHERE club_id = ? AND user_id = ?"
	row := s.db.QueryRowContext(ctx, query, clubID, userID)

	entity, err := scanMembership(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Membership{}, fmt.Errorf("membership not found: %w", err)
	}
	return entity, err
}

// ListByClub retrieves all memberships of a club.
// PRE: clubID is non-empty
// POST: Returns matching entities ordered by joined_at
func (s *SQLiteStore) ListByClub(ctx context.Context, clubID string) ([]domain.Membership, error) {
	query := "SELECT " + membershipColumns + " FROM membership WHERE club_id = ? ORDER BY joined_at"
	return s.list(ctx, query, clubID)
}

// ListByUser retrieves every club membership a user holds.
// PRE: userID is non-empty
// POST: Returns matching entities ordered by joined_at
func (s *SQLiteStore) ListByUser(ctx context.Context, userID string) ([]domain.Membership, error) {
	query := "SELECT " + membershipColumns + " FROM membership WHERE user_id = ? ORDER BY joined_at"
	return s.list(ctx, query, userID)
}

func (s *SQLiteStore) list(ctx context.Context, query string, arg any) ([]domain.Membership, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Membership
	for rows.Next() {
		entity, err := scanMembership(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// UpsertWithProfile writes the membership row and the mirrored profile
// row in a single transaction.
// PRE: m has been validated; p carries the same user and email
// POST: Both rows reflect m.Role; profile team_id equals m.ClubID
func (s *SQLiteStore) UpsertWithProfile(ctx context.Context, m domain.Membership, p domainProfile.UserProfile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO membership (club_id, user_id, role, status, joined_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(club_id, user_id) DO UPDATE SET
			role=excluded.role,
			status=excluded.status,
			updated_at=excluded.updated_at`,
		m.ClubID,
		m.UserID,
		m.Role,
		m.Status,
		m.JoinedAt.Format(time.RFC3339Nano),
		formatNullableTime(m.UpdatedAt),
	)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO profile (user_id, email, role, team_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			role=excluded.role,
			team_id=excluded.team_id,
			updated_at=excluded.updated_at`,
		p.UserID,
		p.Email,
		p.Role,
		p.TeamID,
		p.CreatedAt.Format(time.RFC3339Nano),
		formatNullableTime(p.UpdatedAt),
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// RemoveWithProfile deletes the membership row and resets the profile
// to the given role with an empty team binding, in one transaction.
// PRE: clubID and userID are non-empty
// POST: Membership row absent; profile role/team_id reset
func (s *SQLiteStore) RemoveWithProfile(ctx context.Context, clubID, userID, resetRole string, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM membership WHERE club_id = ? AND user_id = ?", clubID, userID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE profile SET role = ?, team_id = '', updated_at = ? WHERE user_id = ?",
		resetRole, now.Format(time.RFC3339Nano), userID,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func scanMembership(scan func(dest ...interface{}) error) (domain.Membership, error) {
	var entity domain.Membership
	var joinedAt string
	var updatedAt sql.NullString
	err := scan(
		&entity.ClubID,
		&entity.UserID,
		&entity.Role,
		&entity.Status,
		&joinedAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Membership{}, err
	}
	entity.JoinedAt, _ = parseTime(joinedAt)
	if updatedAt.Valid && updatedAt.String != "" {
		entity.UpdatedAt, _ = parseTime(updatedAt.String)
	}
	return entity, nil
}

func formatNullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339Nano)
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
