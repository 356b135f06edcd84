package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/bizdesk/bizdesk/internal/app"
	"github.com/bizdesk/bizdesk/internal/auth"
	"github.com/bizdesk/bizdesk/internal/catalog/categories"
	"github.com/bizdesk/bizdesk/internal/catalog/products"
	"github.com/bizdesk/bizdesk/internal/dashboard"
	"github.com/bizdesk/bizdesk/internal/numbering"
	"github.com/bizdesk/bizdesk/internal/observability"
	"github.com/bizdesk/bizdesk/internal/payables"
	"github.com/bizdesk/bizdesk/internal/platform/cache"
	"github.com/bizdesk/bizdesk/internal/sales/customers"
	"github.com/bizdesk/bizdesk/internal/sales/quotes"
	"github.com/bizdesk/bizdesk/internal/settings"
	"github.com/bizdesk/bizdesk/internal/shared"
	"github.com/bizdesk/bizdesk/internal/suppliers"
	"github.com/bizdesk/bizdesk/jobs"
)

func newServeCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if app.InTestMode() {
				rt.logger.Info("test mode detected, skipping runtime startup")
				return nil
			}
			return serve(cmd.Context(), rt)
		},
	}
}

func serve(parent context.Context, rt *runtime) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger := rt.cfg, rt.logger
	loc := cfg.Location()

	pool, err := rt.openPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	metrics := observability.NewMetrics()
	business := metrics.Business()

	// The dashboard works without Redis; it just recomputes on every read.
	var (
		dashboardCache *dashboard.Cache
		invalidator    shared.CacheInvalidator
	)
	redisClient, err := cache.New(ctx, cfg.RedisOptions())
	if err != nil {
		logger.Warn("redis unavailable, dashboard cache disabled", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		dashboardCache = dashboard.NewCache(redisClient, cfg.DashboardCacheTTL)
		invalidator = dashboardCache
	}

	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	allocator, err := numbering.NewAllocator(cfg.QuoteNumberStrategy)
	if err != nil {
		return err
	}

	authService := auth.NewService(auth.NewRepository(pool), auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL))
	authMiddleware := &auth.Middleware{Service: authService, Logger: logger}

	settingsService := settings.NewService(settings.NewRepository(pool), auditLogger, logger)
	customerService := customers.NewService(customers.NewRepository(pool), auditLogger, invalidator, logger)
	supplierService := suppliers.NewService(suppliers.NewRepository(pool), auditLogger, invalidator, logger)
	categoryService := categories.NewService(categories.NewRepository(pool), auditLogger, invalidator, logger)
	productService := products.NewService(products.NewRepository(pool), auditLogger, invalidator, logger)

	quoteService := quotes.NewService(quotes.NewRepository(pool), quotes.ServiceConfig{
		Logger:      logger,
		Numbers:     allocator,
		Company:     settingsService,
		Customers:   customerService,
		Products:    productService,
		Audit:       auditLogger,
		Idempotency: idempotencyStore,
		Cache:       invalidator,
		Metrics:     business,
		Location:    loc,
	})
	payableService := payables.NewService(payables.NewRepository(pool), payables.ServiceConfig{
		Logger:      logger,
		Audit:       auditLogger,
		Idempotency: idempotencyStore,
		Cache:       invalidator,
		Metrics:     business,
		Location:    loc,
	})
	dashboardService := dashboard.NewService(dashboard.NewRepository(pool), payableService, dashboard.ServiceConfig{
		Cache:    dashboardCache,
		Metrics:  business,
		Logger:   logger,
		Location: loc,
	})

	inspector := asynq.NewInspector(cfg.AsynqRedis())
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Metrics:           metrics,
		AuthHandler:       auth.NewHandler(logger, authService),
		AuthMiddleware:    authMiddleware,
		QuotesHandler:     quotes.NewHandler(logger, quoteService),
		PayablesHandler:   payables.NewHandler(logger, payableService),
		CustomersHandler:  customers.NewHandler(logger, customerService),
		SuppliersHandler:  suppliers.NewHandler(logger, supplierService),
		CategoriesHandler: categories.NewHandler(logger, categoryService),
		ProductsHandler:   products.NewHandler(logger, productService),
		SettingsHandler:   settings.NewHandler(logger, settingsService, authMiddleware.RequireRole(shared.RoleAdmin)),
		DashboardHandler:  dashboard.NewHandler(logger, dashboardService),
		JobHandler:        jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("timezone", loc.String()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	return nil
}
