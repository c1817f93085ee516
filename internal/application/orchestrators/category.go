package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"clubdesk/internal/domain/category"
	"clubdesk/internal/domain/fault"
)

// CategoryStoreForManage defines the category store interface needed
// by category management.
type CategoryStoreForManage interface {
	GetByID(ctx context.Context, id string) (category.Category, error)
	Save(ctx context.Context, value category.Category) error
	Delete(ctx context.Context, id string) error
}

// RecordSoftDeleterForCategory cascades a category removal over its
// records.
type RecordSoftDeleterForCategory interface {
	SoftDeleteByCategory(ctx context.Context, categoryID string) (int64, error)
}

// CategoryInput carries input for create and update.
type CategoryInput struct {
	ClubID string
	Name   string
	Unit   string
}

// CategoryDeps holds dependencies for category management.
type CategoryDeps struct {
	CategoryStore CategoryStoreForManage
	RecordStore   RecordSoftDeleterForCategory
	Authz         AuthzDeps
	GenerateID    func() string
	Now           func() time.Time
}

// ExecuteCreateCategory adds a measurable discipline to a club.
// PRE: caller is a club admin (or super-admin) for clubID
// POST: category persisted with generated id
func ExecuteCreateCategory(ctx context.Context, input CategoryInput, caller Caller, deps CategoryDeps) (category.Category, error) {
	if !caller.IsAuthenticated() {
		return category.Category{}, fault.New(fault.Unauthenticated, "sign in required")
	}
	if !IsClubAdmin(ctx, deps.Authz, caller.UserID, input.ClubID) {
		return category.Category{}, fault.New(fault.PermissionDenied, "club admin privilege required")
	}

	now := deps.Now()
	c := category.Category{
		ID:        deps.GenerateID(),
		ClubID:    input.ClubID,
		Name:      strings.TrimSpace(input.Name),
		Unit:      strings.TrimSpace(input.Unit),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.Validate(); err != nil {
		return category.Category{}, fault.Wrap(fault.InvalidArgument, "invalid category", err)
	}
	if err := deps.CategoryStore.Save(ctx, c); err != nil {
		return category.Category{}, fault.Wrap(fault.Unknown, "failed to save category", err)
	}

	slog.Info("category_event", "event", "category_created", "category_id", c.ID, "club_id", c.ClubID, "by", caller.UserID)
	return c, nil
}

// ExecuteUpdateCategory renames a category or changes its unit.
// PRE: caller is a club admin (or super-admin) for the category's club
// POST: category persisted with new name/unit
func ExecuteUpdateCategory(ctx context.Context, categoryID string, input CategoryInput, caller Caller, deps CategoryDeps) (category.Category, error) {
	if !caller.IsAuthenticated() {
		return category.Category{}, fault.New(fault.Unauthenticated, "sign in required")
	}

	c, err := deps.CategoryStore.GetByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return category.Category{}, fault.New(fault.NotFound, "category not found")
		}
		return category.Category{}, fault.Wrap(fault.Unknown, "category lookup failed", err)
	}
	if !IsClubAdmin(ctx, deps.Authz, caller.UserID, c.ClubID) {
		return category.Category{}, fault.New(fault.PermissionDenied, "club admin privilege required")
	}

	c.Name = strings.TrimSpace(input.Name)
	c.Unit = strings.TrimSpace(input.Unit)
	c.UpdatedAt = deps.Now()
	if err := c.Validate(); err != nil {
		return category.Category{}, fault.Wrap(fault.InvalidArgument, "invalid category", err)
	}
	if err := deps.CategoryStore.Save(ctx, c); err != nil {
		return category.Category{}, fault.Wrap(fault.Unknown, "failed to save category", err)
	}

	slog.Info("category_event", "event", "category_updated", "category_id", c.ID, "by", caller.UserID)
	return c, nil
}

// ExecuteDeleteCategory removes a category and soft-deletes its
// records so they stop feeding goal reconciliation. Goals already
// completed against those records stay completed.
// PRE: caller is a club admin (or super-admin) for the category's club
// POST: category row gone; its records inactive
func ExecuteDeleteCategory(ctx context.Context, categoryID string, caller Caller, deps CategoryDeps) error {
	if !caller.IsAuthenticated() {
		return fault.New(fault.Unauthenticated, "sign in required")
	}

	c, err := deps.CategoryStore.GetByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fault.New(fault.NotFound, "category not found")
		}
		return fault.Wrap(fault.Unknown, "category lookup failed", err)
	}
	if !IsClubAdmin(ctx, deps.Authz, caller.UserID, c.ClubID) {
		return fault.New(fault.PermissionDenied, "club admin privilege required")
	}

	affected, err := deps.RecordStore.SoftDeleteByCategory(ctx, categoryID)
	if err != nil {
		return fault.Wrap(fault.Unknown, "failed to remove category records", err)
	}
	if err := deps.CategoryStore.Delete(ctx, categoryID); err != nil {
		return fault.Wrap(fault.Unknown, "failed to delete category", err)
	}

	slog.Info("category_event", "event", "category_deleted", "category_id", categoryID, "records_removed", affected, "by", caller.UserID)
	return nil
}
