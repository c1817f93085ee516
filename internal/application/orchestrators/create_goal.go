package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"clubdesk/internal/domain/fault"
	"clubdesk/internal/domain/goal"
)

// CreateGoalInput carries input for the orchestrator.
type CreateGoalInput struct {
	AthleteID   string
	ClubID      string
	CategoryID  string
	TargetValue float64
	TargetDate  time.Time
}

// CreateGoalDeps holds dependencies for goal creation.
type CreateGoalDeps struct {
	GoalStore  GoalStoreForReconcile
	Reconcile  GoalReconcileDeps
	Authz      AuthzDeps
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteCreateGoal opens a new in-progress goal and immediately
// reconciles it, so a goal whose target is already met by an existing
// record completes on creation rather than waiting for the next one.
// PRE: caller is a club admin (or super-admin) for the goal's club
// POST: goal persisted; completed right away when already achieved
func ExecuteCreateGoal(ctx context.Context, input CreateGoalInput, caller Caller, deps CreateGoalDeps) (goal.Goal, error) {
	if !caller.IsAuthenticated() {
		return goal.Goal{}, fault.New(fault.Unauthenticated, "sign in required")
	}
	if !IsClubAdmin(ctx, deps.Authz, caller.UserID, input.ClubID) {
		return goal.Goal{}, fault.New(fault.PermissionDenied, "club admin privilege required")
	}

	now := deps.Now()
	g := goal.Goal{
		ID:          deps.GenerateID(),
		AthleteID:   input.AthleteID,
		ClubID:      input.ClubID,
		CategoryID:  input.CategoryID,
		TargetValue: input.TargetValue,
		TargetDate:  input.TargetDate,
		Status:      goal.StatusInProgress,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := g.Validate(); err != nil {
		return goal.Goal{}, fault.Wrap(fault.InvalidArgument, "invalid goal", err)
	}
	if err := deps.GoalStore.Save(ctx, g); err != nil {
		return goal.Goal{}, fault.Wrap(fault.Unknown, "failed to save goal", err)
	}

	if _, err := ExecuteCheckAchievement(ctx, g.ID, deps.Reconcile); err != nil {
		slog.Warn("goal_initial_check_failed", "goal_id", g.ID, "error", err)
	} else {
		// Reload so the caller sees a completion applied by the check.
		if fresh, err := deps.GoalStore.GetByID(ctx, g.ID); err == nil {
			g = fresh
		}
	}

	slog.Info("goal_event", "event", "goal_created", "goal_id", g.ID, "athlete_id", g.AthleteID, "by", caller.UserID)
	return g, nil
}
