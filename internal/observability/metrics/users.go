package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UsersTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "users_total",
			Help:      "Number of user records in the store",
		},
	)

	UserStoreOperationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "user_store_operation_duration_seconds",
			Help:      "Duration of user store operations in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"driver", "operation"},
	)

	UserStoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "user_store_errors_total",
			Help:      "Total number of user store failures",
		},
		[]string{"driver", "operation"},
	)

	UserAdminActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "user_admin_actions_total",
			Help:      "Total number of user administration actions by action and result",
		},
		[]string{"action", "result"},
	)
)
