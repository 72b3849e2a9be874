package cleanup

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	authdomain "github.com/AlibekovAA/dashboard-auth/internal/auth/domain"
	authrepo "github.com/AlibekovAA/dashboard-auth/internal/auth/repository"
	"github.com/AlibekovAA/dashboard-auth/internal/common/clock"
	"github.com/AlibekovAA/dashboard-auth/internal/common/logger"
)

type countingDeleter struct {
	calls atomic.Int32
	err   error
}

func (d *countingDeleter) DeleteExpired(ctx context.Context) (int64, error) {
	d.calls.Add(1)
	return 1, d.err
}

func TestSweep_RemovesExpiredSessions(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	repo := authrepo.NewMemorySessionRepository(clk)

	now := clk.Now()
	_ = repo.Create(ctx, authdomain.Session{TokenHash: "old", UserID: 1, ExpiresAt: now.Add(time.Minute)})
	_ = repo.Create(ctx, authdomain.Session{TokenHash: "new", UserID: 1, ExpiresAt: now.Add(time.Hour)})

	clk.Advance(2 * time.Minute)

	deleted := sweep(ctx, repo, logger.NewWithWriter(io.Discard, "test", "ERROR"), "session")
	if deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", deleted)
	}
	if _, ok, _ := repo.FindByTokenHash(ctx, "new"); !ok {
		t.Error("live session must survive the sweep")
	}
}

func TestSweep_ErrorIsLogged(t *testing.T) {
	d := &countingDeleter{err: errors.New("boom")}
	if got := sweep(context.Background(), d, logger.NewWithWriter(io.Discard, "test", "ERROR"), "session"); got != 0 {
		t.Errorf("expected 0 on error, got %d", got)
	}
}

func TestStartCleanup_StopsOnCancel(t *testing.T) {
	d := &countingDeleter{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		StartCleanup(ctx, d, 5*time.Millisecond, logger.NewWithWriter(io.Discard, "test", "ERROR"), "session")
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for d.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("cleanup never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup did not stop after cancel")
	}
}
