package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"clubdesk/internal/domain/fault"
	"clubdesk/internal/domain/goal"
	"clubdesk/internal/domain/record"
	"clubdesk/internal/observability"
)

// GoalStoreForReconcile defines the goal store interface needed by
// achievement checking.
type GoalStoreForReconcile interface {
	GetByID(ctx context.Context, id string) (goal.Goal, error)
	Save(ctx context.Context, value goal.Goal) error
	ListInProgress(ctx context.Context, athleteID, clubID, categoryID string) ([]goal.Goal, error)
}

// RecordReaderForReconcile defines the record store interface needed
// by achievement checking.
type RecordReaderForReconcile interface {
	BestActive(ctx context.Context, athleteID, categoryID string) (record.PerformanceRecord, bool, error)
}

// GoalReconcileDeps holds dependencies for goal reconciliation.
type GoalReconcileDeps struct {
	GoalStore   GoalStoreForReconcile
	RecordStore RecordReaderForReconcile
	Now         func() time.Time
}

// ExecuteCheckAchievement re-evaluates one goal against the athlete's
// best active record and completes it when the target is met. The
// check is idempotent and monotonic: an already completed goal is left
// alone and never reverts when records are later removed.
// PRE: goalID names an existing goal
// POST: goal completed with achieving value/date when target met; else unchanged
func ExecuteCheckAchievement(ctx context.Context, goalID string, deps GoalReconcileDeps) (bool, error) {
	if goalID == "" {
		return false, fault.New(fault.InvalidArgument, "goal id is required")
	}

	g, err := deps.GoalStore.GetByID(ctx, goalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, fault.New(fault.NotFound, "goal not found")
		}
		return false, fault.Wrap(fault.Unknown, "goal lookup failed", err)
	}

	return checkOne(ctx, deps, &g)
}

// ExecuteAutoCheckAll re-evaluates every in-progress goal for an
// athlete in a category, typically after a new record lands. Each goal
// is checked independently; a failing goal does not block the rest.
// Returns the goals newly completed by this sweep.
// POST: every reachable in-progress goal whose target is met is completed
func ExecuteAutoCheckAll(ctx context.Context, athleteID, clubID, categoryID string, deps GoalReconcileDeps) ([]goal.Goal, error) {
	if athleteID == "" || clubID == "" || categoryID == "" {
		return nil, fault.New(fault.InvalidArgument, "athlete, club, and category ids are required")
	}

	open, err := deps.GoalStore.ListInProgress(ctx, athleteID, clubID, categoryID)
	if err != nil {
		return nil, fault.Wrap(fault.Unknown, "goal listing failed", err)
	}

	var completed []goal.Goal
	for i := range open {
		g := &open[i]
		achieved, err := checkOne(ctx, deps, g)
		if err != nil {
			slog.Warn("goal_check_failed", "goal_id", g.ID, "error", err)
			continue
		}
		if achieved {
			completed = append(completed, *g)
		}
	}
	return completed, nil
}

func checkOne(ctx context.Context, deps GoalReconcileDeps, g *goal.Goal) (bool, error) {
	if !g.IsInProgress() {
		return false, nil
	}

	best, found, err := deps.RecordStore.BestActive(ctx, g.AthleteID, g.CategoryID)
	if err != nil {
		return false, fault.Wrap(fault.Unknown, "record lookup failed", err)
	}
	if !found || !g.IsAchievedBy(best.Value) {
		return false, nil
	}

	if err := g.Complete(best.Value, best.Date, deps.Now()); err != nil {
		return false, fault.Wrap(fault.FailedPrecondition, "goal cannot complete", err)
	}
	if err := deps.GoalStore.Save(ctx, *g); err != nil {
		return false, fault.Wrap(fault.Unknown, "failed to save goal", err)
	}

	observability.RecordGoalCompletion()
	slog.Info("goal_event", "event", "goal_completed", "goal_id", g.ID, "athlete_id", g.AthleteID, "value", best.Value)
	return true, nil
}
