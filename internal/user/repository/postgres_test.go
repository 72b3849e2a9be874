package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgconn"

	commonerrors "github.com/AlibekovAA/dashboard-auth/internal/common/errors"
	"github.com/AlibekovAA/dashboard-auth/internal/common/resilience"
)

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

func TestMapConflict(t *testing.T) {
	plain := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"email constraint", uniqueViolation(emailConstraint), commonerrors.ErrEmailAlreadyExists},
		{"username constraint", uniqueViolation(usernameConstraint), commonerrors.ErrUsernameAlreadyExists},
		{"wrapped email constraint", fmt.Errorf("insert user: %w", uniqueViolation(emailConstraint)), commonerrors.ErrEmailAlreadyExists},
		{"unknown constraint", uniqueViolation("users_other_key"), commonerrors.ErrUsernameAlreadyExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapConflict(tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
			var pgErr *pgconn.PgError
			if !errors.As(got, &pgErr) {
				t.Errorf("expected the driver error to be kept as cause, got %v", got)
			}
		})
	}

	t.Run("other errors pass through", func(t *testing.T) {
		if got := mapConflict(plain); got != plain {
			t.Errorf("expected %v unchanged, got %v", plain, got)
		}
		other := &pgconn.PgError{Code: "40001"}
		if got := mapConflict(other); got != error(other) {
			t.Errorf("expected serialization failure unchanged, got %v", got)
		}
	})
}

func TestIsBusinessError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"raw unique violation", uniqueViolation(emailConstraint), true},
		{"username conflict", commonerrors.ErrUsernameAlreadyExists, true},
		{"email conflict", mapConflict(uniqueViolation(emailConstraint)), true},
		{"not found", commonerrors.ErrUserNotFound, true},
		{"wrapped not found", fmt.Errorf("update: %w", commonerrors.ErrUserNotFound), true},
		{"plain error", errors.New("connection refused"), false},
		{"storage failure", commonerrors.ErrStorageFailure, false},
		{"other pg error", &pgconn.PgError{Code: "57P01"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBusinessError(tt.err); got != tt.want {
				t.Errorf("IsBusinessError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func newTestPgRepository() *PgRepository {
	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Threshold:  2,
		Timeout:    time.Second,
		ResetAfter: time.Minute,
		Name:       "users-test",
		Ignore:     IsBusinessError,
	})
	return NewPgRepository(nil, breaker, nil)
}

func TestPgRepository_CallClassifiesErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("conflicts are returned as is and do not trip the breaker", func(t *testing.T) {
		repo := newTestPgRepository()
		for i := 0; i < 5; i++ {
			err := repo.call(ctx, "create", func(context.Context) error {
				return mapConflict(uniqueViolation(usernameConstraint))
			})
			if !errors.Is(err, commonerrors.ErrUsernameAlreadyExists) {
				t.Fatalf("expected username conflict, got %v", err)
			}
		}
		if repo.breaker.IsOpen() {
			t.Error("expected breaker to stay closed on conflicts")
		}
	})

	t.Run("faults become storage failures and open the breaker", func(t *testing.T) {
		repo := newTestPgRepository()
		down := errors.New("db down")
		for i := 0; i < 2; i++ {
			err := repo.call(ctx, "create", func(context.Context) error { return down })
			if !errors.Is(err, commonerrors.ErrStorageFailure) {
				t.Fatalf("expected storage failure, got %v", err)
			}
		}
		err := repo.call(ctx, "create", func(context.Context) error { return nil })
		if !errors.Is(err, commonerrors.ErrCircuitOpen) {
			t.Errorf("expected open circuit, got %v", err)
		}
	})
}
