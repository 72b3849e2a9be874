package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	pgx "github.com/jackc/pgx/v4"

	"github.com/AlibekovAA/dashboard-auth/internal/common/clock"
	commonerrors "github.com/AlibekovAA/dashboard-auth/internal/common/errors"
	"github.com/AlibekovAA/dashboard-auth/internal/common/logger"
	"github.com/AlibekovAA/dashboard-auth/internal/observability/metrics"
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// CircuitBreaker guards a backend. Threshold consecutive faults open it;
// after ResetAfter a single trial call is let through (half-open) and its
// outcome closes or re-opens the circuit.
type CircuitBreaker struct {
	mu       sync.Mutex
	state    State
	failures int32
	openedAt time.Time
	probing  bool

	threshold  int32
	timeout    time.Duration
	resetAfter time.Duration
	name       string
	ignore     func(error) bool
	clock      clock.Clock
	log        *logger.Logger
}

type CircuitBreakerConfig struct {
	Threshold  int32
	Timeout    time.Duration
	ResetAfter time.Duration
	Name       string
	// Ignore reports errors that are answers rather than faults (no rows,
	// constraint violations); they do not count towards opening the circuit.
	Ignore func(error) bool
	Clock  clock.Clock
	Logger *logger.Logger
}

func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	clk := config.Clock
	if clk == nil {
		clk = clock.NewRealClock()
	}
	cb := &CircuitBreaker{
		threshold:  max(config.Threshold, 1),
		timeout:    config.Timeout,
		resetAfter: config.ResetAfter,
		name:       config.Name,
		ignore:     config.Ignore,
		clock:      clk,
		log:        config.Logger,
	}
	cb.publish()
	return cb
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.advanceLocked()
	return cb.state
}

func (cb *CircuitBreaker) IsOpen() bool {
	return cb.State() == StateOpen
}

// advanceLocked moves an open circuit to half-open once ResetAfter has passed.
func (cb *CircuitBreaker) advanceLocked() {
	if cb.state == StateOpen && cb.clock.Since(cb.openedAt) >= cb.resetAfter {
		cb.transitionLocked(StateHalfOpen)
	}
}

func (cb *CircuitBreaker) transitionLocked(to State) {
	if cb.state == to {
		return
	}
	from := cb.state
	cb.state = to
	switch to {
	case StateOpen:
		cb.openedAt = cb.clock.Now()
	case StateClosed:
		cb.failures = 0
	}
	cb.probing = false
	cb.publish()

	if cb.log != nil {
		cb.log.WithFields(context.Background(), logger.Fields{
			"action":  "circuit_breaker_transition",
			"breaker": cb.name,
			"from":    from.String(),
			"to":      to.String(),
		}).Warn("circuit breaker state changed")
	}
}

func (cb *CircuitBreaker) publish() {
	if cb.name != "" {
		metrics.CircuitBreakerState.WithLabelValues(cb.name).Set(float64(cb.state))
	}
}

// admit reports whether a call may proceed and whether it is the half-open trial.
func (cb *CircuitBreaker) admit() (bool, bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.advanceLocked()
	switch cb.state {
	case StateOpen:
		return false, false
	case StateHalfOpen:
		if cb.probing {
			return false, false
		}
		cb.probing = true
		return true, true
	}
	return true, false
}

func (cb *CircuitBreaker) record(err error, trial bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if !cb.isFault(err) {
		if trial || cb.state == StateHalfOpen {
			cb.transitionLocked(StateClosed)
		}
		cb.failures = 0
		return
	}

	if cb.name != "" {
		metrics.CircuitBreakerFailures.WithLabelValues(cb.name).Inc()
	}
	if trial {
		cb.transitionLocked(StateOpen)
		return
	}
	cb.failures++
	if cb.failures >= cb.threshold {
		cb.transitionLocked(StateOpen)
	}
}

func (cb *CircuitBreaker) isFault(err error) bool {
	if err == nil || errors.Is(err, pgx.ErrNoRows) || errors.Is(err, context.Canceled) {
		return false
	}
	if cb.ignore != nil && cb.ignore(err) {
		return false
	}
	return true
}

func (cb *CircuitBreaker) Call(ctx context.Context, fn func(context.Context) error) error {
	ok, trial := cb.admit()
	if !ok {
		return commonerrors.ErrCircuitOpen
	}

	callCtx := ctx
	if cb.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, cb.timeout)
		defer cancel()
	}

	err := fn(callCtx)
	cb.record(err, trial)
	return err
}
