package service

import (
	"context"

	"github.com/AlibekovAA/dashboard-auth/internal/observability/metrics"
)

func incrementLoginAttempts(result string) {
	metrics.LoginAttemptsTotal.WithLabelValues(result).Inc()
}

func incrementRegistrations(result string) {
	metrics.RegistrationsTotal.WithLabelValues(result).Inc()
}

func incrementSessionsIssued() {
	metrics.SessionsIssued.Inc()
}

func incrementSessionsRevoked(n int) {
	metrics.SessionsRevoked.Add(float64(n))
}

func incrementSessionsExpired() {
	metrics.SessionsExpired.Inc()
}

func incrementSessionValidations(result string) {
	metrics.SessionValidationsTotal.WithLabelValues(result).Inc()
}

type sessionCounter interface {
	Count(ctx context.Context) (int, error)
}

func publishActiveSessions(ctx context.Context, repo sessionCounter) {
	if n, err := repo.Count(ctx); err == nil {
		metrics.SessionsActive.Set(float64(n))
	}
}
