package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/bizdesk/bizdesk/internal/app"
	"github.com/bizdesk/bizdesk/internal/platform/db"
)

var version = "dev"

// runtime holds what every subcommand needs after configuration loads.
type runtime struct {
	cfg    *app.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	rt := &runtime{}
	root := &cobra.Command{
		Use:           "bizdesk",
		Short:         "bizdesk business management backend",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			rt.cfg = cfg
			rt.logger = app.NewLogger(cfg)
			return nil
		},
	}
	root.AddCommand(
		newServeCmd(rt),
		newMigrateCmd(rt),
		newUsersCmd(rt),
		newJobsCmd(rt),
	)
	return root
}

func (rt *runtime) openPool(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := db.New(ctx, rt.cfg.PGDSN, db.PoolOptions{MaxConnIdleTime: 5 * time.Minute})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}

func newMigrateCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			pool, err := rt.openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := db.Migrate(ctx, pool); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			rt.logger.Info("schema applied")
			return nil
		},
	}
}
