package repository

import (
	"context"
	"sync"
	"time"

	authdomain "github.com/AlibekovAA/dashboard-auth/internal/auth/domain"
	"github.com/AlibekovAA/dashboard-auth/internal/common/clock"
	userdomain "github.com/AlibekovAA/dashboard-auth/internal/user/domain"
)

type SessionRepository interface {
	Create(ctx context.Context, session authdomain.Session) error
	FindByTokenHash(ctx context.Context, hash string) (authdomain.Session, bool, error)
	// Touch moves the expiry of an existing session and reports whether it
	// still existed.
	Touch(ctx context.Context, hash string, seenAt, expiresAt time.Time) (bool, error)
	DeleteByTokenHash(ctx context.Context, hash string) (bool, error)
	DeleteByUserID(ctx context.Context, userID userdomain.ID) (int, error)
	DeleteExpired(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int, error)
}

// MemorySessionRepository is a process-local session table. Sessions do not
// survive a restart.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]authdomain.Session
	clock    clock.Clock
}

func NewMemorySessionRepository(clk clock.Clock) *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string]authdomain.Session),
		clock:    clk,
	}
}

func (r *MemorySessionRepository) Create(ctx context.Context, session authdomain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	r.sessions[session.TokenHash] = session
	r.mu.Unlock()
	return nil
}

func (r *MemorySessionRepository) FindByTokenHash(ctx context.Context, hash string) (authdomain.Session, bool, error) {
	if err := ctx.Err(); err != nil {
		return authdomain.Session{}, false, err
	}

	r.mu.RLock()
	s, ok := r.sessions[hash]
	r.mu.RUnlock()
	return s, ok, nil
}

func (r *MemorySessionRepository) Touch(ctx context.Context, hash string, seenAt, expiresAt time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[hash]
	if !ok {
		return false, nil
	}
	s.LastSeenAt = seenAt
	s.ExpiresAt = expiresAt
	r.sessions[hash] = s
	return true, nil
}

func (r *MemorySessionRepository) DeleteByTokenHash(ctx context.Context, hash string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.sessions[hash]
	delete(r.sessions, hash)
	return ok, nil
}

func (r *MemorySessionRepository) DeleteByUserID(ctx context.Context, userID userdomain.ID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for hash, s := range r.sessions {
		if s.UserID == userID {
			delete(r.sessions, hash)
			removed++
		}
	}
	return removed, nil
}

func (r *MemorySessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	now := r.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for hash, s := range r.sessions {
		if s.ExpiredAt(now) {
			delete(r.sessions, hash)
			removed++
		}
	}
	return removed, nil
}

func (r *MemorySessionRepository) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions), nil
}
