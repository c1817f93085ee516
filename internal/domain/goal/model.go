package goal

import (
	"errors"
	"strings"
	"time"
)

// Status constants for the goal lifecycle.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusPaused     = "paused"
)

// Domain errors
var (
	ErrEmptyAthleteID  = errors.New("athlete id cannot be empty")
	ErrEmptyClubID     = errors.New("club id cannot be empty")
	ErrEmptyCategoryID = errors.New("category id cannot be empty")
	ErrAlreadyComplete = errors.New("goal is already completed")
	ErrNotInProgress   = errors.New("goal is not in progress")
)

// Goal is a target value an athlete aims to reach in a category.
type Goal struct {
	ID            string
	AthleteID     string
	ClubID        string
	CategoryID    string
	TargetValue   float64
	TargetDate    time.Time
	Status        string
	AchievedValue float64
	AchievedDate  time.Time
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks if the Goal has valid data.
// PRE: Goal struct is populated
// POST: Returns nil if valid, error otherwise
func (g *Goal) Validate() error {
	if strings.TrimSpace(g.AthleteID) == "" {
		return ErrEmptyAthleteID
	}
	if strings.TrimSpace(g.ClubID) == "" {
		return ErrEmptyClubID
	}
	if strings.TrimSpace(g.CategoryID) == "" {
		return ErrEmptyCategoryID
	}
	if g.TargetValue <= 0 {
		return errors.New("target value must be positive")
	}
	if g.Status != StatusInProgress && g.Status != StatusCompleted && g.Status != StatusPaused {
		return errors.New("status must be 'in_progress', 'completed', or 'paused'")
	}
	return nil
}

// IsInProgress returns true if the goal is open for reconciliation.
// INVARIANT: Goal fields are not mutated
func (g *Goal) IsInProgress() bool {
	return g.Status == StatusInProgress
}

// IsAchievedBy reports whether value meets or exceeds the target.
// INVARIANT: Goal fields are not mutated
func (g *Goal) IsAchievedBy(value float64) bool {
	return value >= g.TargetValue
}

// Complete transitions the goal to completed with the achieving value
// and date. The transition is monotonic: a completed goal never
// reverts to in_progress automatically.
// PRE: Goal is in_progress
// POST: Status is completed; AchievedValue/AchievedDate recorded
func (g *Goal) Complete(value float64, date time.Time, now time.Time) error {
	if g.Status == StatusCompleted {
		return ErrAlreadyComplete
	}
	if g.Status != StatusInProgress {
		return ErrNotInProgress
	}
	g.Status = StatusCompleted
	g.AchievedValue = value
	g.AchievedDate = date
	g.UpdatedAt = now
	return nil
}
