package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/bizdesk/bizdesk/jobs"
)

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

// NewJobsCLI initialises the helpers against the queue's Redis.
func NewJobsCLI(opts asynq.RedisClientOpt) *JobsCLI {
	return &JobsCLI{client: asynq.NewClient(opts), inspector: asynq.NewInspector(opts)}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		if closeErr := c.inspector.Close(); closeErr != nil {
			err = closeErr
		}
	}
	if c.client != nil {
		if closeErr := c.client.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// Trigger enqueues a supported job by task type with its default payload.
func (c *JobsCLI) Trigger(ctx context.Context, name string, days int) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	var task *asynq.Task
	var err error
	switch name {
	case jobs.TaskPayablesDueReminder:
		task, err = jobs.NewDueReminderTask(jobs.DueReminderPayload{Days: days})
	case jobs.TaskDashboardWarmup:
		task = jobs.NewDashboardWarmupTask()
	case jobs.TaskIdempotencyCleanup:
		task = jobs.NewIdempotencyCleanupTask()
	default:
		return nil, fmt.Errorf("jobs cli: unsupported job %s", name)
	}
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(jobs.QueueDefault))
}

// InspectQueue reports the default queue counters.
func (c *JobsCLI) InspectQueue() (*asynq.QueueInfo, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("jobs cli: inspector not configured")
	}
	return c.inspector.GetQueueInfo(jobs.QueueDefault)
}

// ListScheduled returns upcoming scheduled tasks.
func (c *JobsCLI) ListScheduled(size int) ([]*asynq.TaskInfo, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("jobs cli: inspector not configured")
	}
	if size <= 0 {
		size = 10
	}
	return c.inspector.ListScheduledTasks(jobs.QueueDefault, asynq.PageSize(size), asynq.Page(1))
}

func newJobsCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Trigger and inspect background jobs",
	}

	var days int
	trigger := &cobra.Command{
		Use:       "trigger <task>",
		Short:     "Enqueue a job now",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{jobs.TaskPayablesDueReminder, jobs.TaskDashboardWarmup, jobs.TaskIdempotencyCleanup},
		RunE: func(cmd *cobra.Command, args []string) error {
			cli := NewJobsCLI(rt.cfg.AsynqRedis())
			defer cli.Close()
			info, err := cli.Trigger(cmd.Context(), args[0], days)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
			return nil
		},
	}
	trigger.Flags().IntVar(&days, "days", 0, "look-ahead days for payables:due_reminder (0 uses PAYABLES_REMINDER_DAYS)")

	var size int
	inspect := &cobra.Command{
		Use:   "inspect",
		Short: "Show queue counters and scheduled tasks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cli := NewJobsCLI(rt.cfg.AsynqRedis())
			defer cli.Close()
			info, err := cli.InspectQueue()
			if err != nil {
				return err
			}
			out := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(out, "queue\tpending\tactive\tscheduled\tretry\tarchived\n")
			fmt.Fprintf(out, "%s\t%d\t%d\t%d\t%d\t%d\n", info.Queue, info.Pending, info.Active, info.Scheduled, info.Retry, info.Archived)
			if err := out.Flush(); err != nil {
				return err
			}
			scheduled, err := cli.ListScheduled(size)
			if err != nil {
				return err
			}
			for _, t := range scheduled {
				fmt.Fprintf(cmd.OutOrStdout(), "scheduled %s id=%s at=%s\n", t.Type, t.ID, t.NextProcessAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
	inspect.Flags().IntVar(&size, "size", 10, "number of scheduled tasks to list")

	cmd.AddCommand(trigger, inspect)
	return cmd
}
