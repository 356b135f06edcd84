package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/bizdesk/bizdesk/internal/jobs"
)

// DefaultIdempotencyRetention is how long a create request key blocks replays.
const DefaultIdempotencyRetention = 72 * time.Hour

// KeyCleaner removes idempotency keys older than a retention window.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// IdempotencyCleanupJob purges expired idempotency keys.
type IdempotencyCleanupJob struct {
	Store     KeyCleaner
	Retention time.Duration
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// Handle processes TaskIdempotencyCleanup tasks.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, _ *asynq.Task) (resultErr error) {
	if j == nil || j.Store == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	tracker := j.Metrics.Track(TaskIdempotencyCleanup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()
	retention := j.Retention
	if retention <= 0 {
		retention = DefaultIdempotencyRetention
	}
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	deleted, err := j.Store.Cleanup(ctx, retention)
	if err != nil {
		logger.Error("idempotency cleanup", slog.Any("error", err))
		return err
	}
	logger.Info("idempotency keys purged", slog.Int64("deleted", deleted), slog.Duration("retention", retention))
	return nil
}
