package service

import (
	"context"
	"errors"
	"strings"

	"github.com/AlibekovAA/dashboard-auth/internal/common/clock"
	commoncrypto "github.com/AlibekovAA/dashboard-auth/internal/common/crypto"
	"github.com/AlibekovAA/dashboard-auth/internal/common/dto"
	commonerrors "github.com/AlibekovAA/dashboard-auth/internal/common/errors"
	"github.com/AlibekovAA/dashboard-auth/internal/common/logger"
	"github.com/AlibekovAA/dashboard-auth/internal/common/mapper"
	userdomain "github.com/AlibekovAA/dashboard-auth/internal/user/domain"
	userrepo "github.com/AlibekovAA/dashboard-auth/internal/user/repository"
)

type AuthResult struct {
	User    dto.User
	Session IssuedSession
}

type AuthService struct {
	users    userrepo.Repository
	hasher   commoncrypto.PasswordHasher
	verifier *Verifier
	sessions *SessionManager
	clock    clock.Clock
	log      *logger.Logger
}

func NewAuthService(
	users userrepo.Repository,
	hasher commoncrypto.PasswordHasher,
	verifier *Verifier,
	sessions *SessionManager,
	clk clock.Clock,
	log *logger.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		hasher:   hasher,
		verifier: verifier,
		sessions: sessions,
		clock:    clk,
		log:      log,
	}
}

// Register creates a user and opens a session for them.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if err := in.Validate(); err != nil {
		incrementRegistrations("invalid")
		return AuthResult{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		incrementRegistrations("error")
		return AuthResult{}, newInternalError("PASSWORD_HASH_FAILED", "failed to process password", err)
	}

	user, err := s.users.Create(ctx, userdomain.NewUser{
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
	})
	if err != nil {
		switch {
		case errors.Is(err, commonerrors.ErrUsernameAlreadyExists), errors.Is(err, commonerrors.ErrEmailAlreadyExists):
			incrementRegistrations("conflict")
			s.log.WithFields(ctx, logger.Fields{
				"action":   "register",
				"username": in.Username,
			}).Info("registration rejected: " + err.Error())
		default:
			incrementRegistrations("error")
			s.log.WithFields(ctx, logger.Fields{
				"action": "register",
			}).Errorf("create user failed: %v", err)
		}
		return AuthResult{}, storeError(err)
	}

	session, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		incrementRegistrations("error")
		return AuthResult{}, err
	}

	incrementRegistrations("success")
	s.log.WithFields(ctx, logger.Fields{
		"action":   "register",
		"user_id":  int64(user.ID),
		"username": user.Username,
	}).Info("user registered")

	return AuthResult{User: mapper.UserToDTO(user), Session: session}, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (AuthResult, error) {
	in.Email = strings.TrimSpace(in.Email)

	if err := in.Validate(); err != nil {
		incrementLoginAttempts("invalid")
		return AuthResult{}, err
	}

	start := s.clock.Now()
	user, err := s.verifier.Verify(ctx, in.Email, in.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			incrementLoginAttempts("invalid_credentials")
			s.log.WithFields(ctx, logger.Fields{
				"action": "login_attempt",
				"result": "invalid_credentials",
			}).Warn("login failed")
		} else {
			incrementLoginAttempts("error")
			s.log.WithFields(ctx, logger.Fields{
				"action": "login_attempt",
			}).Errorf("credential check failed: %v", err)
		}
		return AuthResult{}, err
	}

	session, err := s.sessions.Issue(ctx, userdomain.ID(user.ID))
	if err != nil {
		incrementLoginAttempts("error")
		return AuthResult{}, err
	}

	incrementLoginAttempts("success")
	s.log.WithFields(ctx, logger.Fields{
		"action":      "login_attempt",
		"result":      "success",
		"user_id":     user.ID,
		"duration_ms": s.clock.Since(start).Milliseconds(),
	}).Info("user logged in")

	return AuthResult{User: user, Session: session}, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Revoke(ctx, token); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"action": "logout",
		}).Errorf("revoke session failed: %v", err)
		return err
	}
	return nil
}

// CurrentUser resolves the user behind an authenticated session. A session
// that outlived its user is treated as no session at all.
func (s *AuthService) CurrentUser(ctx context.Context, userID userdomain.ID) (dto.User, error) {
	user, ok, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return dto.User{}, storeError(err)
	}
	if !ok {
		return dto.User{}, commonerrors.ErrUnauthorized
	}
	return mapper.UserToDTO(user), nil
}
