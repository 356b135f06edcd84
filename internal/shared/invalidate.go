package shared

import (
	"context"
	"log/slog"
)

// CacheInvalidator is notified after writes that change cached read models.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Invalidate calls inv and only logs failures; a stale cache expires on its own.
func Invalidate(ctx context.Context, inv CacheInvalidator, logger *slog.Logger) {
	if inv == nil {
		return
	}
	if err := inv.Invalidate(ctx); err != nil && logger != nil {
		logger.Warn("cache invalidation failed", slog.Any("error", err))
	}
}
