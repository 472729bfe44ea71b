package utils

import (
	"context"
	"log/slog"
	"time"
)

// StartResyncJob calls refresh every interval until ctx is done. It covers
// change events lost between replicas. A non-positive interval disables it.
func StartResyncJob(ctx context.Context, interval time.Duration, refresh func(context.Context) error) {
	if interval <= 0 {
		slog.Info("Resync job disabled")
		return
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := refresh(ctx); err != nil {
					slog.Error("Resync failed", "error", err)
				}
			}
		}
	}()

	slog.Info("Resync job started", "interval", interval)
}
