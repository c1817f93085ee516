package record

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"clubdesk/internal/adapters/storage"
	domain "clubdesk/internal/domain/record"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new record Store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const recordColumns = "id, athlete_id, club_id, category_id, value, date, is_active, created_at"

// GetByID retrieves a PerformanceRecord by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.PerformanceRecord, error) {
	query := "SELECT " + recordColumns + " FROM performance_record WHERE id = ?"
	row := s.db.QueryRowContext(ctx, query, id)

	entity, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return domain.PerformanceRecord{}, fmt.Errorf("record not found: %w", err)
	}
	return entity, err
}

// Save persists a PerformanceRecord to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.PerformanceRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO performance_record (id, athlete_id, club_id, category_id, value, date, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			value=excluded.value,
			date=excluded.date,
			is_active=excluded.is_active`,
		entity.ID,
		entity.AthleteID,
		entity.ClubID,
		entity.CategoryID,
		entity.Value,
		entity.Date.Format(time.RFC3339Nano),
		boolToInt(entity.IsActive),
		entity.CreatedAt.Format(time.RFC3339Nano),
	)
	return err
}

// ListByAthlete retrieves all active records of an athlete in a club,
// newest first.
// PRE: athleteID and clubID are non-empty
// POST: Returns matching active entities
func (s *SQLiteStore) ListByAthlete(ctx context.Context, athleteID, clubID string) ([]domain.PerformanceRecord, error) {
	query := "SELECT " + recordColumns + " FROM performance_record WHERE athlete_id = ? AND club_id = ? AND is_active = 1 ORDER BY date DESC"
	rows, err := s.db.QueryContext(ctx, query, athleteID, clubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.PerformanceRecord
	for rows.Next() {
		entity, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// BestActive returns the athlete's highest-valued active record in a
// category.
// PRE: athleteID and categoryID are non-empty
// POST: found is false when no active record exists
func (s *SQLiteStore) BestActive(ctx context.Context, athleteID, categoryID string) (domain.PerformanceRecord, bool, error) {
	query := "SELECT " + recordColumns + " FROM performance_record WHERE athlete_id = ? AND category_id = ? AND is_active = 1 ORDER BY value DESC LIMIT 1"
	row := s.db.QueryRowContext(ctx, query, athleteID, categoryID)

	entity, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return domain.PerformanceRecord{}, false, nil
	}
	if err != nil {
		return domain.PerformanceRecord{}, false, err
	}
	return entity, true, nil
}

// SoftDelete marks a record inactive.
// PRE: id is non-empty
// POST: Record row remains with is_active = 0
func (s *SQLiteStore) SoftDelete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "UPDATE performance_record SET is_active = 0 WHERE id = ?", id)
	return err
}

// SoftDeleteByCategory marks every record of a category inactive.
// PRE: categoryID is non-empty
// POST: Returns the number of rows updated
func (s *SQLiteStore) SoftDeleteByCategory(ctx context.Context, categoryID string) (int64, error) {
	result, err := s.db.ExecContext(ctx, "UPDATE performance_record SET is_active = 0 WHERE category_id = ? AND is_active = 1", categoryID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanRecord(scan func(dest ...interface{}) error) (domain.PerformanceRecord, error) {
	var entity domain.PerformanceRecord
	var date, createdAt string
	var isActive int
	err := scan(
		&entity.ID,
		&entity.AthleteID,
		&entity.ClubID,
		&entity.CategoryID,
		&entity.Value,
		&date,
		&isActive,
		&createdAt,
	)
	if err != nil {
		return domain.PerformanceRecord{}, err
	}
	entity.Date, _ = parseTime(date)
	entity.CreatedAt, _ = parseTime(createdAt)
	entity.IsActive = isActive != 0
	return entity, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
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
