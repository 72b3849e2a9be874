package service

import (
	"context"
	"errors"
	"strings"

	"github.com/AlibekovAA/dashboard-auth/internal/common/constants"
	"github.com/AlibekovAA/dashboard-auth/internal/common/dto"
	commonerrors "github.com/AlibekovAA/dashboard-auth/internal/common/errors"
	"github.com/AlibekovAA/dashboard-auth/internal/common/logger"
	"github.com/AlibekovAA/dashboard-auth/internal/common/mapper"
	"github.com/AlibekovAA/dashboard-auth/internal/common/validation"
	"github.com/AlibekovAA/dashboard-auth/internal/observability/metrics"
	"github.com/AlibekovAA/dashboard-auth/internal/user/domain"
	"github.com/AlibekovAA/dashboard-auth/internal/user/repository"
)

type SessionRevoker interface {
	RevokeAllForUser(ctx context.Context, userID domain.ID) (int, error)
}

type UserService struct {
	repo     repository.Repository
	sessions SessionRevoker
	log      *logger.Logger
}

func NewUserService(repo repository.Repository, sessions SessionRevoker, log *logger.Logger) *UserService {
	return &UserService{
		repo:     repo,
		sessions: sessions,
		log:      log,
	}
}

type PatchInput struct {
	Username  *string `json:"username" validate:"omitempty,min=3,max=32,username"`
	FirstName *string `json:"firstName" validate:"omitempty,max=64"`
	LastName  *string `json:"lastName" validate:"omitempty,max=64"`
	Email     *string `json:"email" validate:"omitempty,email,max=254"`
}

// normalize trims username and email the way registration does and drops
// blank fields; a blank field means "leave unchanged".
func (in PatchInput) normalize() PatchInput {
	return PatchInput{
		Username:  nonEmpty(trimmed(in.Username)),
		FirstName: nonEmpty(in.FirstName),
		LastName:  nonEmpty(in.LastName),
		Email:     nonEmpty(trimmed(in.Email)),
	}
}

func (in PatchInput) ToPatch() domain.Patch {
	n := in.normalize()
	return domain.Patch{
		Username:  n.Username,
		FirstName: n.FirstName,
		LastName:  n.LastName,
		Email:     n.Email,
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// ListUsers returns sanitized records, optionally filtered by query.
func (s *UserService) ListUsers(ctx context.Context, query string) ([]dto.User, error) {
	if len(query) > constants.MaxSearchQueryLength {
		return nil, validation.FieldErrors(map[string]string{"search": "is too long"})
	}

	users, err := s.repo.Search(ctx, query)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"action": "list_users",
		}).Errorf("list users failed: %v", err)
		return nil, err
	}
	return mapper.UsersToDTO(users), nil
}

func (s *UserService) UpdateUser(ctx context.Context, callerID, targetID domain.ID, in PatchInput) (dto.User, error) {
	in = in.normalize()
	if err := validation.Struct(in); err != nil {
		metrics.UserAdminActionsTotal.WithLabelValues("update", "invalid").Inc()
		return dto.User{}, err
	}

	updated, err := s.repo.Update(ctx, targetID, in.ToPatch())
	if err != nil {
		metrics.UserAdminActionsTotal.WithLabelValues("update", resultLabel(err)).Inc()
		return dto.User{}, err
	}

	metrics.UserAdminActionsTotal.WithLabelValues("update", "success").Inc()
	s.log.WithFields(ctx, logger.Fields{
		"action":    "user_updated",
		"caller_id": int64(callerID),
		"user_id":   int64(targetID),
	}).Info("user updated")

	return mapper.UserToDTO(updated), nil
}

// DeleteUser removes targetID. A caller can never delete themselves, even
// when the id does not exist, so the check runs before any lookup.
func (s *UserService) DeleteUser(ctx context.Context, callerID, targetID domain.ID) error {
	if callerID == targetID {
		metrics.UserAdminActionsTotal.WithLabelValues("delete", "self").Inc()
		return ErrSelfDeletionForbidden
	}

	removed, err := s.repo.Delete(ctx, targetID)
	if err != nil {
		metrics.UserAdminActionsTotal.WithLabelValues("delete", resultLabel(err)).Inc()
		return err
	}
	if !removed {
		metrics.UserAdminActionsTotal.WithLabelValues("delete", "not_found").Inc()
		return commonerrors.ErrUserNotFound
	}

	revoked, err := s.sessions.RevokeAllForUser(ctx, targetID)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"action":  "revoke_user_sessions",
			"user_id": int64(targetID),
		}).Errorf("failed to revoke sessions of deleted user: %v", err)
	}

	metrics.UserAdminActionsTotal.WithLabelValues("delete", "success").Inc()
	s.log.WithFields(ctx, logger.Fields{
		"action":           "user_deleted",
		"caller_id":        int64(callerID),
		"user_id":          int64(targetID),
		"sessions_revoked": revoked,
	}).Info("user deleted")

	return nil
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, commonerrors.ErrUserNotFound):
		return "not_found"
	case errors.Is(err, commonerrors.ErrUsernameAlreadyExists), errors.Is(err, commonerrors.ErrEmailAlreadyExists):
		return "conflict"
	default:
		return "error"
	}
}
