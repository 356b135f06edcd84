package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	jobmetrics "github.com/bizdesk/bizdesk/internal/jobs"
	"github.com/bizdesk/bizdesk/internal/payables"
	"github.com/bizdesk/bizdesk/internal/settings"
	"github.com/bizdesk/bizdesk/internal/shared"
)

// DueLister returns unpaid payables due within a number of days.
type DueLister interface {
	DueWithin(ctx context.Context, days int) ([]payables.Entry, error)
}

// CompanyProvider returns the company settings holding the reminder address.
type CompanyProvider interface {
	Company(ctx context.Context) (settings.Company, error)
}

// MailEnqueuer queues outgoing email.
type MailEnqueuer interface {
	EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error)
}

// DueReminderJob reports payables that are overdue or due soon.
type DueReminderJob struct {
	Payables DueLister
	Company  CompanyProvider
	Mail     MailEnqueuer
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	Days     int
	Location *time.Location
	clock    func() time.Time
}

// Handle processes TaskPayablesDueReminder tasks.
func (j *DueReminderJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Payables == nil {
		return errors.New("due reminder: handler not configured")
	}
	var payload DueReminderPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	days := j.Days
	if payload.Days > 0 {
		days = payload.Days
	}

	tracker := j.Metrics.Track(TaskPayablesDueReminder)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int("days", days))
	entries, err := j.Payables.DueWithin(ctx, days)
	if err != nil {
		logger.Error("load due payables", slog.Any("error", err))
		return err
	}
	if len(entries) == 0 {
		logger.Info("no payables due")
		return nil
	}
	j.Metrics.AddReminders(len(entries))

	today := shared.Today(j.now(), j.Location)
	overdue := 0
	for _, e := range entries {
		if e.DueDate.Before(today) {
			overdue++
		}
	}
	logger.Info("payables due", slog.Int("count", len(entries)), slog.Int("overdue", overdue))

	if j.Company == nil || j.Mail == nil {
		return nil
	}
	company, err := j.Company.Company(ctx)
	if err != nil {
		logger.Error("load company settings", slog.Any("error", err))
		return err
	}
	if company.Email == "" {
		logger.Info("company email not configured, skipping reminder mail")
		return nil
	}
	if _, err := j.Mail.EnqueueSendEmail(ctx, SendEmailPayload{
		To:      company.Email,
		Subject: fmt.Sprintf("%d contas a pagar vencendo (%d em atraso)", len(entries), overdue),
		Body:    ReminderBody(entries, today),
	}); err != nil {
		logger.Error("enqueue reminder mail", slog.Any("error", err))
		return err
	}
	return nil
}

// ReminderBody renders one line per entry followed by the total.
func ReminderBody(entries []payables.Entry, today shared.Date) string {
	var b strings.Builder
	total := decimal.Zero
	for _, e := range entries {
		marker := ""
		if e.DueDate.Before(today) {
			marker = " (em atraso)"
		}
		fmt.Fprintf(&b, "%s  %s  R$ %s%s\n", e.DueDate, e.Name, e.Amount.StringFixed(2), marker)
		total = total.Add(e.Amount)
	}
	fmt.Fprintf(&b, "\nTotal: R$ %s\n", total.StringFixed(2))
	return b.String()
}

func (j *DueReminderJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskPayablesDueReminder))
	}
	return slog.Default().With(slog.String("job", TaskPayablesDueReminder))
}

func (j *DueReminderJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now()
}
