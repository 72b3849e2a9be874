package repository

import (
	"context"
	"testing"
	"time"

	authdomain "github.com/AlibekovAA/dashboard-auth/internal/auth/domain"
	"github.com/AlibekovAA/dashboard-auth/internal/common/clock"
)

func setupSessionRepo(t *testing.T) (*MemorySessionRepository, *clock.MockClock) {
	t.Helper()
	clk := clock.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	return NewMemorySessionRepository(clk), clk
}

func TestMemorySessionRepository_CRUD(t *testing.T) {
	repo, clk := setupSessionRepo(t)
	ctx := context.Background()
	now := clk.Now()

	s := authdomain.Session{TokenHash: "h1", UserID: 1, CreatedAt: now, LastSeenAt: now, ExpiresAt: now.Add(time.Hour)}
	if err := repo.Create(ctx, s); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, ok, err := repo.FindByTokenHash(ctx, "h1")
	if err != nil || !ok || got.UserID != 1 {
		t.Fatalf("expected session, got %+v %v %v", got, ok, err)
	}

	later := now.Add(2 * time.Hour)
	if ok, _ := repo.Touch(ctx, "h1", now, later); !ok {
		t.Fatal("expected touch to find the session")
	}
	got, _, _ = repo.FindByTokenHash(ctx, "h1")
	if !got.ExpiresAt.Equal(later) {
		t.Errorf("expected expiry %v, got %v", later, got.ExpiresAt)
	}

	if ok, _ := repo.Touch(ctx, "missing", now, later); ok {
		t.Error("touch must not create sessions")
	}

	if removed, _ := repo.DeleteByTokenHash(ctx, "h1"); !removed {
		t.Error("expected delete to remove the session")
	}
	if removed, _ := repo.DeleteByTokenHash(ctx, "h1"); removed {
		t.Error("second delete must report nothing removed")
	}
}

func TestMemorySessionRepository_DeleteByUserID(t *testing.T) {
	repo, clk := setupSessionRepo(t)
	ctx := context.Background()
	exp := clk.Now().Add(time.Hour)

	_ = repo.Create(ctx, authdomain.Session{TokenHash: "a", UserID: 1, ExpiresAt: exp})
	_ = repo.Create(ctx, authdomain.Session{TokenHash: "b", UserID: 1, ExpiresAt: exp})
	_ = repo.Create(ctx, authdomain.Session{TokenHash: "c", UserID: 2, ExpiresAt: exp})

	n, err := repo.DeleteByUserID(ctx, 1)
	if err != nil || n != 2 {
		t.Fatalf("expected 2 removed, got %d %v", n, err)
	}
	if count, _ := repo.Count(ctx); count != 1 {
		t.Errorf("expected 1 remaining, got %d", count)
	}
}

func TestMemorySessionRepository_DeleteExpired(t *testing.T) {
	repo, clk := setupSessionRepo(t)
	ctx := context.Background()
	now := clk.Now()

	_ = repo.Create(ctx, authdomain.Session{TokenHash: "old", UserID: 1, ExpiresAt: now.Add(time.Minute)})
	_ = repo.Create(ctx, authdomain.Session{TokenHash: "new", UserID: 1, ExpiresAt: now.Add(time.Hour)})

	clk.Advance(time.Minute)

	n, err := repo.DeleteExpired(ctx)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 expired session removed, got %d %v", n, err)
	}
	if _, ok, _ := repo.FindByTokenHash(ctx, "new"); !ok {
		t.Error("live session must survive the sweep")
	}
}
