package service

import (
	"context"
	"errors"
	"sync"

	commoncrypto "github.com/AlibekovAA/dashboard-auth/internal/common/crypto"
	userdomain "github.com/AlibekovAA/dashboard-auth/internal/user/domain"
)

type mockUserRepo struct {
	createFunc      func(ctx context.Context, candidate userdomain.NewUser) (userdomain.User, error)
	findByIDFunc    func(ctx context.Context, id userdomain.ID) (userdomain.User, bool, error)
	findByEmailFunc func(ctx context.Context, email string) (userdomain.User, bool, error)
}

func (m *mockUserRepo) Create(ctx context.Context, candidate userdomain.NewUser) (userdomain.User, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, candidate)
	}
	return userdomain.User{}, errors.New("create not configured")
}

func (m *mockUserRepo) FindByID(ctx context.Context, id userdomain.ID) (userdomain.User, bool, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return userdomain.User{}, false, nil
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (userdomain.User, bool, error) {
	return userdomain.User{}, false, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (userdomain.User, bool, error) {
	if m.findByEmailFunc != nil {
		return m.findByEmailFunc(ctx, email)
	}
	return userdomain.User{}, false, nil
}

func (m *mockUserRepo) List(ctx context.Context) ([]userdomain.User, error) {
	return nil, nil
}

func (m *mockUserRepo) Search(ctx context.Context, query string) ([]userdomain.User, error) {
	return nil, nil
}

func (m *mockUserRepo) Update(ctx context.Context, id userdomain.ID, patch userdomain.Patch) (userdomain.User, error) {
	return userdomain.User{}, nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id userdomain.ID) (bool, error) {
	return false, nil
}

func (m *mockUserRepo) Count(ctx context.Context) (int, error) {
	return 0, nil
}

// countingHasher wraps a real hasher and records how many comparisons ran.
type countingHasher struct {
	inner commoncrypto.PasswordHasher

	mu       sync.Mutex
	compares int
}

func (h *countingHasher) Hash(password string) (string, error) {
	return h.inner.Hash(password)
}

func (h *countingHasher) Compare(hash, password string) error {
	h.mu.Lock()
	h.compares++
	h.mu.Unlock()
	return h.inner.Compare(hash, password)
}

func (h *countingHasher) Compares() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.compares
}

type sequenceTokens struct {
	mu  sync.Mutex
	seq []string
	err error
}

func (g *sequenceTokens) NewToken() (string, error) {
	if g.err != nil {
		return "", g.err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	t := g.seq[0]
	g.seq = g.seq[1:]
	return t, nil
}
