package goal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"clubdesk/internal/adapters/storage"
	domain "clubdesk/internal/domain/goal"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new goal Store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const goalColumns = "id, athlete_id, club_id, category_id, target_value, target_date, status, achieved_value, achieved_date, is_active, created_at, updated_at"

// GetByID retrieves a Goal by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Goal, error) {
	query := "SELECT " + goalColumns + " FROM goal WHERE id = ?"
	row := s.db.QueryRowContext(ctx, query, id)

	entity, err := scanGoal(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Goal{}, fmt.Errorf("goal not found: %w", err)
	}
	return entity, err
}

// Save persists a Goal to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Goal) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	fields := []string{"id", "athlete_id", "club_id", "category_id", "target_value", "target_date", "status", "achieved_value", "achieved_date", "is_active", "created_at", "updated_at"}
	placeholders := []string{"?", "?", "?", "?", "?", "?", "?", "?", "?", "?", "?", "?"}
	updates := []string{
		"target_value=excluded.target_value",
		"target_date=excluded.target_date",
		"status=excluded.status",
		"achieved_value=excluded.achieved_value",
		"achieved_date=excluded.achieved_date",
		"is_active=excluded.is_active",
		"updated_at=excluded.updated_at",
	}

	query := fmt.Sprintf(
		"INSERT INTO goal (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		strings.Join(fields, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)

	var achievedValue interface{}
	var achievedDate interface{}
	if entity.Status == domain.StatusCompleted {
		achievedValue = entity.AchievedValue
		achievedDate = entity.AchievedDate.Format(time.RFC3339Nano)
	}

	_, err = tx.ExecContext(ctx, query,
		entity.ID,
		entity.AthleteID,
		entity.ClubID,
		entity.CategoryID,
		entity.TargetValue,
		formatNullableTime(entity.TargetDate),
		entity.Status,
		achievedValue,
		achievedDate,
		boolToInt(entity.IsActive),
		entity.CreatedAt.Format(time.RFC3339Nano),
		formatNullableTime(entity.UpdatedAt),
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// ListByAthlete retrieves all active goals of an athlete in a club.
// PRE: athleteID and clubID are non-empty
// POST: Returns matching entities newest first
func (s *SQLiteStore) ListByAthlete(ctx context.Context, athleteID, clubID string) ([]domain.Goal, error) {
	query := "SELECT " + goalColumns + " FROM goal WHERE athlete_id = ? AND club_id = ? AND is_active = 1 ORDER BY created_at DESC"
	return s.list(ctx, query, athleteID, clubID)
}

// ListInProgress returns the reconciler's working set: open goals for
// one athlete/club/category triple.
// PRE: all three ids are non-empty
// POST: Returns matching in_progress entities
func (s *SQLiteStore) ListInProgress(ctx context.Context, athleteID, clubID, categoryID string) ([]domain.Goal, error) {
	query := "SELECT " + goalColumns + " FROM goal WHERE athlete_id = ? AND club_id = ? AND category_id = ? AND status = ? AND is_active = 1"
	return s.list(ctx, query, athleteID, clubID, categoryID, domain.StatusInProgress)
}

func (s *SQLiteStore) list(ctx context.Context, query string, args ...any) ([]domain.Goal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Goal
	for rows.Next() {
		entity, err := scanGoal(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func scanGoal(scan func(dest ...interface{}) error) (domain.Goal, error) {
	var entity domain.Goal
	var targetDate, achievedDate, updatedAt sql.NullString
	var achievedValue sql.NullFloat64
	var isActive int
	var createdAt string
	err := scan(
		&entity.ID,
		&entity.AthleteID,
		&entity.ClubID,
		&entity.CategoryID,
		&entity.TargetValue,
		&targetDate,
		&entity.Status,
		&achievedValue,
		&achievedDate,
		&isActive,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Goal{}, err
	}
	if targetDate.Valid && targetDate.String != "" {
		entity.TargetDate, _ = parseTime(targetDate.String)
	}
	if achievedValue.Valid {
		entity.AchievedValue = achievedValue.Float64
	}
	if achievedDate.Valid && achievedDate.String != "" {
		entity.AchievedDate, _ = parseTime(achievedDate.String)
	}
	if updatedAt.Valid && updatedAt.String != "" {
		entity.UpdatedAt, _ = parseTime(updatedAt.String)
	}
	entity.IsActive = isActive != 0
	entity.CreatedAt, _ = parseTime(createdAt)
	return entity, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
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
