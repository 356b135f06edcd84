package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskPayablesDueReminder lists payables about to fall due.
	TaskPayablesDueReminder = "payables:due_reminder"
	// TaskDashboardWarmup recomputes the cached dashboard.
	TaskDashboardWarmup = "dashboard:warmup"
	// TaskIdempotencyCleanup purges expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// DueReminderPayload overrides the configured look-ahead when Days > 0.
type DueReminderPayload struct {
	Days int `json:"days,omitempty"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewDueReminderTask constructs a payables reminder task.
func NewDueReminderTask(payload DueReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPayablesDueReminder, data, asynq.MaxRetry(3)), nil
}

// NewDashboardWarmupTask constructs a dashboard warmup task.
func NewDashboardWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskDashboardWarmup, nil, asynq.MaxRetry(1))
}

// NewIdempotencyCleanupTask constructs an idempotency key purge task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil, asynq.MaxRetry(1))
}

// NewSendEmailHandler processes TaskTypeSendEmail tasks. Delivery is logged
// only; no SMTP transport is configured.
func NewSendEmailHandler(logger *slog.Logger) asynq.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SendEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		logger.Info("send email",
			slog.String("to", payload.To),
			slog.String("subject", payload.Subject),
			slog.Int("body_bytes", len(payload.Body)))
		return nil
	}
}
