package record

import (
	"errors"
	"strings"
	"time"
)

// Domain errors
var (
	ErrEmptyAthleteID  = errors.New("athlete id cannot be empty")
	ErrEmptyClubID     = errors.New("club id cannot be empty")
	ErrEmptyCategoryID = errors.New("category id cannot be empty")
	ErrAlreadyRemoved  = errors.New("record is already removed")
)

// PerformanceRecord is a single measured result for an athlete in a
// category. Records are immutable except for soft-delete.
type PerformanceRecord struct {
	ID         string
	AthleteID  string
	ClubID     string
	CategoryID string
	Value      float64
	Date       time.Time
	IsActive   bool
	CreatedAt  time.Time
}

// Validate checks if the PerformanceRecord has valid data.
// PRE: PerformanceRecord struct is populated
// POST: Returns nil if valid, error otherwise
func (r *PerformanceRecord) Validate() error {
	if strings.TrimSpace(r.AthleteID) == "" {
		return ErrEmptyAthleteID
	}
	if strings.TrimSpace(r.ClubID) == "" {
		return ErrEmptyClubID
	}
	if strings.TrimSpace(r.CategoryID) == "" {
		return ErrEmptyCategoryID
	}
	if r.Value < 0 {
		return errors.New("value cannot be negative")
	}
	if r.Date.IsZero() {
		return errors.New("date must be set")
	}
	return nil
}

// Remove soft-deletes the record.
// PRE: Record is active
// POST: IsActive is false
func (r *PerformanceRecord) Remove() error {
	if !r.IsActive {
		return ErrAlreadyRemoved
	}
	r.IsActive = false
	return nil
}
