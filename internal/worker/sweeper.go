package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/suteetoe/tenant-auth-service/internal/tokenstore"
	"github.com/suteetoe/tenant-auth-service/prometheus"
)

// BlacklistSweeper periodically removes blacklist entries whose tokens have
// expired. Validation never depends on it having run.
type BlacklistSweeper struct {
	store    tokenstore.Purger
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewBlacklistSweeper creates a sweeper purging store every interval
func NewBlacklistSweeper(store tokenstore.Purger, interval time.Duration, logger *zap.Logger) *BlacklistSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlacklistSweeper{
		store:    store,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Start runs the sweep loop until ctx is cancelled
func (w *BlacklistSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("Blacklist sweeper started", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Blacklist sweeper stopped")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep purges expired entries once and returns how many were removed
func (w *BlacklistSweeper) Sweep(ctx context.Context) int64 {
	removed, err := w.store.PurgeExpired(ctx, w.now())
	if err != nil {
		w.logger.Error("Failed to purge expired blacklist entries", zap.Error(err))
		return 0
	}

	if removed > 0 {
		prometheus.BlacklistPurgedCounter.Add(float64(removed))
		w.logger.Info("Purged expired blacklist entries", zap.Int64("removed", removed))
	}
	return removed
}
