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
)

// RecordStoreForPerformance defines the record store interface needed
// by performance recording.
type RecordStoreForPerformance interface {
	GetByID(ctx context.Context, id string) (record.PerformanceRecord, error)
	Save(ctx context.Context, value record.PerformanceRecord) error
	SoftDelete(ctx context.Context, id string) error
}

// RecordPerformanceInput carries input for the orchestrator.
type RecordPerformanceInput struct {
	AthleteID  string
	ClubID     string
	CategoryID string
	Value      float64
	Date       time.Time
}

// RecordPerformanceDeps holds dependencies for performance recording.
type RecordPerformanceDeps struct {
	RecordStore RecordStoreForPerformance
	Reconcile   GoalReconcileDeps
	Authz       AuthzDeps
	GenerateID  func() string
	Now         func() time.Time
}

// ExecuteRecordPerformance persists a new performance record and then
// reconciles the athlete's in-progress goals in that category. The
// record is the durable artifact; reconciliation completing no goals
// is a normal outcome, not a failure.
// PRE: caller is a club admin (or super-admin) for the record's club
// POST: active record persisted; any goal met by it is completed
func ExecuteRecordPerformance(ctx context.Context, input RecordPerformanceInput, caller Caller, deps RecordPerformanceDeps) (record.PerformanceRecord, []goal.Goal, error) {
	if !caller.IsAuthenticated() {
		return record.PerformanceRecord{}, nil, fault.New(fault.Unauthenticated, "sign in required")
	}
	if !IsClubAdmin(ctx, deps.Authz, caller.UserID, input.ClubID) {
		return record.PerformanceRecord{}, nil, fault.New(fault.PermissionDenied, "club admin privilege required")
	}

	now := deps.Now()
	date := input.Date
	if date.IsZero() {
		date = now
	}
	r := record.PerformanceRecord{
		ID:         deps.GenerateID(),
		AthleteID:  input.AthleteID,
		ClubID:     input.ClubID,
		CategoryID: input.CategoryID,
		Value:      input.Value,
		Date:       date,
		IsActive:   true,
		CreatedAt:  now,
	}
	if err := r.Validate(); err != nil {
		return record.PerformanceRecord{}, nil, fault.Wrap(fault.InvalidArgument, "invalid record", err)
	}
	if err := deps.RecordStore.Save(ctx, r); err != nil {
		return record.PerformanceRecord{}, nil, fault.Wrap(fault.Unknown, "failed to save record", err)
	}

	completed, err := ExecuteAutoCheckAll(ctx, r.AthleteID, r.ClubID, r.CategoryID, deps.Reconcile)
	if err != nil {
		slog.Warn("goal_reconcile_failed", "record_id", r.ID, "error", err)
		completed = nil
	}

	slog.Info("record_event", "event", "performance_recorded", "record_id", r.ID, "athlete_id", r.AthleteID, "category_id", r.CategoryID, "value", r.Value, "goals_completed", len(completed))
	return r, completed, nil
}

// ExecuteRemoveRecord soft-deletes a performance record. Goals already
// completed on the strength of this record stay completed.
// PRE: caller is a club admin (or super-admin) for the record's club
// POST: record inactive; no goal status changes
func ExecuteRemoveRecord(ctx context.Context, recordID string, caller Caller, deps RecordPerformanceDeps) error {
	if !caller.IsAuthenticated() {
		return fault.New(fault.Unauthenticated, "sign in required")
	}
	if recordID == "" {
		return fault.New(fault.InvalidArgument, "record id is required")
	}

	r, err := deps.RecordStore.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fault.New(fault.NotFound, "record not found")
		}
		return fault.Wrap(fault.Unknown, "record lookup failed", err)
	}
	if !IsClubAdmin(ctx, deps.Authz, caller.UserID, r.ClubID) {
		return fault.New(fault.PermissionDenied, "club admin privilege required")
	}

	if err := deps.RecordStore.SoftDelete(ctx, recordID); err != nil {
		return fault.Wrap(fault.Unknown, "failed to remove record", err)
	}

	slog.Info("record_event", "event", "record_removed", "record_id", recordID, "by", caller.UserID)
	return nil
}
