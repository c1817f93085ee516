package orchestrators

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"clubdesk/internal/adapters/email"
	"clubdesk/internal/adapters/storage/outbox"
	domainOutbox "clubdesk/internal/domain/outbox"
	"clubdesk/internal/observability"
)

// OutboxRetryDeps provides the dependencies for retrying outbox entries.
type OutboxRetryDeps struct {
	OutboxStore   outbox.Store
	IdentityStore ClaimsWriterForManager
	EmailSender   email.Sender
	EmailFrom     string
	Now           func() time.Time
}

// ExecuteOutboxRetry processes pending and retryable failed outbox
// entries. It implements exponential backoff and respects max attempts.
// PRE: Deps are valid and store is connected
// POST: All eligible entries are processed, results logged
func ExecuteOutboxRetry(ctx context.Context, deps OutboxRetryDeps) error {
	entries, err := deps.OutboxStore.ListPending(ctx, 100)
	if err != nil {
		return fmt.Errorf("failed to list retryable outbox entries: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	slog.Info("outbox_retry_start", "count", len(entries))

	var processed, succeeded, failed int
	baseDelay := 1 * time.Minute
	maxDelay := 1 * time.Hour
	now := deps.Now()

	for _, entry := range entries {
		processed++

		// Respect per-entry backoff between attempts.
		if !entry.LastAttemptedAt.IsZero() {
			nextRetry := entry.LastAttemptedAt.Add(entry.NextRetryDelay(baseDelay, maxDelay))
			if now.Before(nextRetry) {
				slog.Debug("outbox_retry_skipped_backoff", "entry_id", entry.ID, "next_retry", nextRetry)
				continue
			}
		}

		entry.MarkAttempt(now)

		var err error
		switch entry.ActionType {
		case domainOutbox.ActionTypeSetClaims:
			err = replaySetClaims(ctx, deps, entry)
		case domainOutbox.ActionTypeClearClaims:
			err = replayClearClaims(ctx, deps, entry)
		case domainOutbox.ActionTypeInviteEmail:
			err = replayInviteEmail(ctx, deps, entry)
		default:
			err = fmt.Errorf("unknown action type: %s", entry.ActionType)
		}

		if err != nil {
			entry.MarkFailed(err)
			failed++
			observability.RecordOutboxRetry(entry.ActionType, "failed")
			slog.Error("outbox_retry_failed", "entry_id", entry.ID, "action", entry.ActionType, "attempt", entry.Attempts, "error", err)
		} else {
			entry.MarkSuccess()
			succeeded++
			observability.RecordOutboxRetry(entry.ActionType, "succeeded")
			slog.Info("outbox_retry_succeeded", "entry_id", entry.ID, "action", entry.ActionType, "attempt", entry.Attempts)
		}

		if saveErr := deps.OutboxStore.Save(ctx, entry); saveErr != nil {
			slog.Error("outbox_retry_save_failed", "entry_id", entry.ID, "error", saveErr)
		}
	}

	slog.Info("outbox_retry_complete", "processed", processed, "succeeded", succeeded, "failed", failed)
	return nil
}

// replaySetClaims re-applies a deferred claims merge.
// PRE: Entry payload contains a set_claims payload
// POST: Claims merged or error returned
func replaySetClaims(ctx context.Context, deps OutboxRetryDeps, entry domainOutbox.Entry) error {
	var payload setClaimsPayload
	if err := json.Unmarshal([]byte(entry.Payload), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal set_claims payload: %w", err)
	}
	if payload.UserID == "" || len(payload.Patch) == 0 {
		return fmt.Errorf("set_claims payload is incomplete")
	}
	return deps.IdentityStore.SetClaims(ctx, payload.UserID, payload.Patch)
}

// replayClearClaims re-applies a deferred claims clear.
// PRE: Entry payload contains a clear_claims payload
// POST: Claims keys removed or error returned
func replayClearClaims(ctx context.Context, deps OutboxRetryDeps, entry domainOutbox.Entry) error {
	var payload clearClaimsPayload
	if err := json.Unmarshal([]byte(entry.Payload), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal clear_claims payload: %w", err)
	}
	if payload.UserID == "" || len(payload.Keys) == 0 {
		return fmt.Errorf("clear_claims payload is incomplete")
	}
	return deps.IdentityStore.ClearClaims(ctx, payload.UserID, payload.Keys...)
}

// replayInviteEmail re-sends a deferred invitation email.
// PRE: Entry payload contains an invite_email payload
// POST: Email sent or error returned
func replayInviteEmail(ctx context.Context, deps OutboxRetryDeps, entry domainOutbox.Entry) error {
	if deps.EmailSender == nil {
		return fmt.Errorf("no email sender configured")
	}
	var payload inviteEmailPayload
	if err := json.Unmarshal([]byte(entry.Payload), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal invite_email payload: %w", err)
	}
	_, err := deps.EmailSender.Send(ctx, email.SendRequest{
		To:      []string{payload.To},
		From:    deps.EmailFrom,
		Subject: payload.Subject,
		HTML:    payload.HTML,
	})
	return err
}

// OutboxRetryConfig holds configuration for the retry scheduler.
type OutboxRetryConfig struct {
	Interval time.Duration
	Enabled  bool
}

// DefaultOutboxRetryConfig returns sensible defaults.
func DefaultOutboxRetryConfig() OutboxRetryConfig {
	return OutboxRetryConfig{
		Interval: 5 * time.Minute,
		Enabled:  true,
	}
}

// StartOutboxRetryScheduler starts a background goroutine that
// periodically retries outbox entries.
// PRE: Context is valid, deps are initialized
// POST: Goroutine started, returns cancel function
func StartOutboxRetryScheduler(ctx context.Context, deps OutboxRetryDeps, cfg OutboxRetryConfig) func() {
	if !cfg.Enabled {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := ExecuteOutboxRetry(ctx, deps); err != nil {
					slog.Error("outbox_retry_scheduler_error", "error", err)
				}
			}
		}
	}()

	return cancel
}
