package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/rmagsino/iskolar/internal/repositories"
)

// CleanupManager periodically removes stale rate limit rows so the table
// does not grow with every API key ever seen.
type CleanupManager struct {
	rateLimitRepo *repositories.RateLimitRepository
	logger        *slog.Logger
	interval      time.Duration
	recordTTL     time.Duration
	stopCh        chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	rateLimitRepo *repositories.RateLimitRepository,
	logger *slog.Logger,
	interval time.Duration,
	recordTTL time.Duration,
) *CleanupManager {
	return &CleanupManager{
		rateLimitRepo: rateLimitRepo,
		logger:        logger,
		interval:      interval,
		recordTTL:     recordTTL,
		stopCh:        make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

// runCleanup removes rate limit rows whose window started before the TTL
func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-cm.recordTTL)
	rowsDeleted, err := cm.rateLimitRepo.DeleteOlderThan(cleanupCtx, cutoff)
	if err != nil {
		cm.logger.Error("failed to cleanup rate limit rows", slog.Any("error", err))
		return
	}

	if rowsDeleted > 0 {
		cm.logger.Info("rate limit cleanup completed", slog.Int64("rows_deleted", rowsDeleted))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
