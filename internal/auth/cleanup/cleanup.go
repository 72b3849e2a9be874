package cleanup

import (
	"context"
	"time"

	"github.com/AlibekovAA/dashboard-auth/internal/common/logger"
	"github.com/AlibekovAA/dashboard-auth/internal/observability/metrics"
)

type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// StartCleanup sweeps expired entries from repo every interval until ctx is
// cancelled. It blocks; run it in its own goroutine.
func StartCleanup(ctx context.Context, repo ExpiredDeleter, interval time.Duration, log *logger.Logger, repoName string) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep(ctx, repo, log, repoName)
		}
	}
}

func sweep(ctx context.Context, repo ExpiredDeleter, log *logger.Logger, repoName string) int64 {
	deleted, err := repo.DeleteExpired(ctx)
	if err != nil {
		log.Errorf("%s cleanup failed: %v", repoName, err)
		return 0
	}
	if deleted > 0 {
		metrics.SessionsCleanupDeleted.Add(float64(deleted))
		log.Infof("%s cleanup: deleted %d expired entries", repoName, deleted)
	}
	return deleted
}
