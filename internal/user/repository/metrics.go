package repository

import (
	"context"
	"time"

	"github.com/AlibekovAA/dashboard-auth/internal/common/constants"
	"github.com/AlibekovAA/dashboard-auth/internal/common/logger"
	"github.com/AlibekovAA/dashboard-auth/internal/observability/metrics"
)

type Counter interface {
	Count(ctx context.Context) (int, error)
}

// StartCountMetrics publishes the number of stored users until ctx is done.
func StartCountMetrics(ctx context.Context, repo Counter, log *logger.Logger, interval time.Duration) {
	if interval <= 0 {
		interval = constants.UserStoreMetricsInterval
	}

	publish := func() {
		n, err := repo.Count(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Warnf("user count metrics failed: %v", err)
			}
			return
		}
		metrics.UsersTotal.Set(float64(n))
	}

	publish()

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				publish()
			}
		}
	}()
}
