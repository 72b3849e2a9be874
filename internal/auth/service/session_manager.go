package service

import (
	"context"
	"fmt"
	"time"

	authdomain "github.com/AlibekovAA/dashboard-auth/internal/auth/domain"
	authrepo "github.com/AlibekovAA/dashboard-auth/internal/auth/repository"
	"github.com/AlibekovAA/dashboard-auth/internal/common/clock"
	"github.com/AlibekovAA/dashboard-auth/internal/common/constants"
	commoncrypto "github.com/AlibekovAA/dashboard-auth/internal/common/crypto"
	commonerrors "github.com/AlibekovAA/dashboard-auth/internal/common/errors"
	"github.com/AlibekovAA/dashboard-auth/internal/common/logger"
	userdomain "github.com/AlibekovAA/dashboard-auth/internal/user/domain"
)

type IssuedSession struct {
	Token     string
	UserID    userdomain.ID
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SessionManager issues and checks opaque session tokens. Expiry slides:
// every successful validation pushes ExpiresAt to now+ttl. Expired sessions
// are rejected on sight; the periodic sweep only reclaims memory.
type SessionManager struct {
	repo   authrepo.SessionRepository
	tokens commoncrypto.TokenGenerator
	clock  clock.Clock
	ttl    time.Duration
	log    *logger.Logger
}

func NewSessionManager(
	repo authrepo.SessionRepository,
	tokens commoncrypto.TokenGenerator,
	clk clock.Clock,
	ttl time.Duration,
	log *logger.Logger,
) *SessionManager {
	if ttl <= 0 {
		ttl = constants.DefaultSessionTTL
	}
	return &SessionManager{
		repo:   repo,
		tokens: tokens,
		clock:  clk,
		ttl:    ttl,
		log:    log,
	}
}

func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

func (m *SessionManager) Issue(ctx context.Context, userID userdomain.ID) (IssuedSession, error) {
	token, err := m.tokens.NewToken()
	if err != nil {
		return IssuedSession{}, newInternalError("SESSION_TOKEN_FAILED", "failed to create session", err)
	}

	now := m.clock.Now()
	session := authdomain.Session{
		TokenHash:  commoncrypto.HashToken(token),
		UserID:     userID,
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(m.ttl),
	}

	if err := m.repo.Create(ctx, session); err != nil {
		return IssuedSession{}, fmt.Errorf("store session: %w", err)
	}

	incrementSessionsIssued()
	publishActiveSessions(ctx, m.repo)

	m.log.WithFields(ctx, logger.Fields{
		"action":     "session_issued",
		"user_id":    int64(userID),
		"expires_at": session.ExpiresAt.Format(time.RFC3339),
	}).Debug("session issued")

	return IssuedSession{
		Token:     token,
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

func (m *SessionManager) Validate(ctx context.Context, token string) (userdomain.ID, error) {
	if token == "" {
		incrementSessionValidations("missing")
		return 0, commonerrors.ErrUnauthorized
	}

	hash := commoncrypto.HashToken(token)
	session, ok, err := m.repo.FindByTokenHash(ctx, hash)
	if err != nil {
		return 0, fmt.Errorf("find session: %w", err)
	}
	if !ok {
		incrementSessionValidations("unknown")
		return 0, commonerrors.ErrUnauthorized
	}

	now := m.clock.Now()
	if session.ExpiredAt(now) {
		if _, err := m.repo.DeleteByTokenHash(ctx, hash); err != nil {
			m.log.Warnf("failed to drop expired session: %v", err)
		}
		incrementSessionsExpired()
		incrementSessionValidations("expired")
		return 0, commonerrors.ErrUnauthorized
	}

	alive, err := m.repo.Touch(ctx, hash, now, now.Add(m.ttl))
	if err != nil {
		return 0, fmt.Errorf("touch session: %w", err)
	}
	if !alive {
		incrementSessionValidations("unknown")
		return 0, commonerrors.ErrUnauthorized
	}

	incrementSessionValidations("valid")
	return session.UserID, nil
}

// Revoke forgets a session. Revoking an unknown or already revoked token
// is not an error.
func (m *SessionManager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	removed, err := m.repo.DeleteByTokenHash(ctx, commoncrypto.HashToken(token))
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if removed {
		incrementSessionsRevoked(1)
		publishActiveSessions(ctx, m.repo)
	}
	return nil
}

func (m *SessionManager) RevokeAllForUser(ctx context.Context, userID userdomain.ID) (int, error) {
	n, err := m.repo.DeleteByUserID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("revoke user sessions: %w", err)
	}
	if n > 0 {
		incrementSessionsRevoked(n)
		publishActiveSessions(ctx, m.repo)
	}
	return n, nil
}
