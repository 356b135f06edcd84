package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/bizdesk/bizdesk/internal/jobs"
)

// Warmer recomputes cached read models.
type Warmer interface {
	Warm(ctx context.Context) error
}

// DashboardWarmupJob fills the dashboard cache ahead of the first visitor.
type DashboardWarmupJob struct {
	Dashboard Warmer
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// Handle processes TaskDashboardWarmup tasks.
func (j *DashboardWarmupJob) Handle(ctx context.Context, _ *asynq.Task) (resultErr error) {
	if j == nil || j.Dashboard == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	tracker := j.Metrics.Track(TaskDashboardWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := j.Dashboard.Warm(ctx); err != nil {
		logger.Error("dashboard warmup", slog.Any("error", err))
		return err
	}
	logger.Info("dashboard warmed", slog.String("job", TaskDashboardWarmup))
	return nil
}
