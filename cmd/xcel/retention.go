package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/xcel-dev/xcel/pkg/middleware"
	"github.com/xcel-dev/xcel/pkg/upload"
)

// runRetention removes archived uploads older than maxAge every interval
// until ctx is done. The first sweep runs immediately.
func runRetention(ctx context.Context, store upload.Store, maxAge, interval time.Duration, logger *slog.Logger) {
	logger = logger.With("component", "retention", "max_age", maxAge)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		err := store.Cleanup(ctx, maxAge)
		middleware.RecordCleanup(err)
		if err != nil && ctx.Err() == nil {
			logger.Error("archive cleanup failed", "error", err)
		} else if err == nil {
			logger.Debug("archive cleanup complete")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
