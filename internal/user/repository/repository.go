package repository

import (
	"context"
	"time"

	"github.com/AlibekovAA/dashboard-auth/internal/observability/metrics"
	"github.com/AlibekovAA/dashboard-auth/internal/user/domain"
)

// Repository is the user record store. Lookups report absence through the
// boolean result rather than an error.
type Repository interface {
	Create(ctx context.Context, candidate domain.NewUser) (domain.User, error)
	FindByID(ctx context.Context, id domain.ID) (domain.User, bool, error)
	FindByUsername(ctx context.Context, username string) (domain.User, bool, error)
	FindByEmail(ctx context.Context, email string) (domain.User, bool, error)
	List(ctx context.Context) ([]domain.User, error)
	Search(ctx context.Context, query string) ([]domain.User, error)
	Update(ctx context.Context, id domain.ID, patch domain.Patch) (domain.User, error)
	Delete(ctx context.Context, id domain.ID) (bool, error)
	Count(ctx context.Context) (int, error)
}

func observe(driver, operation string, start time.Time, err error) {
	metrics.UserStoreOperationDurationSeconds.WithLabelValues(driver, operation).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UserStoreErrors.WithLabelValues(driver, operation).Inc()
	}
}
