package goal

import (
	"errors"
	"testing"
	"time"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func valid() Goal {
	return Goal{
		ID:          "goal-1",
		AthleteID:   "athlete-1",
		ClubID:      "club-1",
		CategoryID:  "cat-1",
		TargetValue: 100,
		Status:      StatusInProgress,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestValidate(t *testing.T) {
	g := valid()
	if err := g.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	g = valid()
	g.AthleteID = ""
	if err := g.Validate(); !errors.Is(err, ErrEmptyAthleteID) {
		t.Errorf("expected ErrEmptyAthleteID, got %v", err)
	}

	g = valid()
	g.TargetValue = 0
	if err := g.Validate(); err == nil {
		t.Error("expected error for non-positive target")
	}

	g = valid()
	g.Status = "open"
	if err := g.Validate(); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestIsAchievedBy(t *testing.T) {
	g := valid()
	if g.IsAchievedBy(99.9) {
		t.Error("expected value below target not to achieve")
	}
	if !g.IsAchievedBy(100) {
		t.Error("expected value equal to target to achieve")
	}
	if !g.IsAchievedBy(100.1) {
		t.Error("expected value above target to achieve")
	}
}

func TestComplete(t *testing.T) {
	g := valid()
	achievedAt := now.Add(-24 * time.Hour)
	if err := g.Complete(105, achievedAt, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Status != StatusCompleted {
		t.Errorf("expected status=completed, got %s", g.Status)
	}
	if g.AchievedValue != 105 {
		t.Errorf("expected achieved value=105, got %v", g.AchievedValue)
	}
	if !g.AchievedDate.Equal(achievedAt) {
		t.Errorf("expected achieved date=%v, got %v", achievedAt, g.AchievedDate)
	}
	if !g.UpdatedAt.Equal(now) {
		t.Errorf("expected updated at=%v, got %v", now, g.UpdatedAt)
	}
}

func TestComplete_Monotonic(t *testing.T) {
	g := valid()
	if err := g.Complete(105, now, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// A second completion must not overwrite the first.
	if err := g.Complete(200, now.Add(time.Hour), now.Add(time.Hour)); !errors.Is(err, ErrAlreadyComplete) {
		t.Fatalf("expected ErrAlreadyComplete, got %v", err)
	}
	if g.AchievedValue != 105 {
		t.Errorf("expected original achievement preserved, got %v", g.AchievedValue)
	}
}

func TestComplete_PausedGoal(t *testing.T) {
	g := valid()
	g.Status = StatusPaused
	if err := g.Complete(105, now, now); !errors.Is(err, ErrNotInProgress) {
		t.Fatalf("expected ErrNotInProgress, got %v", err)
	}
}
