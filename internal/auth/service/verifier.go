package service

import (
	"context"
	"fmt"

	commoncrypto "github.com/AlibekovAA/dashboard-auth/internal/common/crypto"
	"github.com/AlibekovAA/dashboard-auth/internal/common/dto"
	"github.com/AlibekovAA/dashboard-auth/internal/common/logger"
	"github.com/AlibekovAA/dashboard-auth/internal/common/mapper"
	userrepo "github.com/AlibekovAA/dashboard-auth/internal/user/repository"
)

// Verifier checks an email/password pair against the user store. An unknown
// email and a wrong password produce the same error, and an unknown email
// still pays for one bcrypt comparison against a throwaway hash.
type Verifier struct {
	users     userrepo.Repository
	hasher    commoncrypto.PasswordHasher
	dummyHash string
	log       *logger.Logger
}

func NewVerifier(users userrepo.Repository, hasher commoncrypto.PasswordHasher, log *logger.Logger) (*Verifier, error) {
	dummy, err := hasher.Hash("dashboard-auth-timing-equalizer")
	if err != nil {
		return nil, fmt.Errorf("prepare verifier: %w", err)
	}
	return &Verifier{
		users:     users,
		hasher:    hasher,
		dummyHash: dummy,
		log:       log,
	}, nil
}

func (v *Verifier) Verify(ctx context.Context, email, password string) (dto.User, error) {
	user, ok, err := v.users.FindByEmail(ctx, email)
	if err != nil {
		return dto.User{}, storeError(err)
	}

	if !ok {
		_ = v.hasher.Compare(v.dummyHash, password)
		return dto.User{}, ErrInvalidCredentials
	}

	if err := v.hasher.Compare(user.PasswordHash, password); err != nil {
		return dto.User{}, ErrInvalidCredentials
	}

	return mapper.UserToDTO(user), nil
}
