package service

import (
	"context"

	"github.com/AlibekovAA/dashboard-auth/internal/user/domain"
)

type mockUserRepo struct {
	createFunc         func(ctx context.Context, candidate domain.NewUser) (domain.User, error)
	findByIDFunc       func(ctx context.Context, id domain.ID) (domain.User, bool, error)
	findByUsernameFunc func(ctx context.Context, username string) (domain.User, bool, error)
	findByEmailFunc    func(ctx context.Context, email string) (domain.User, bool, error)
	searchFunc         func(ctx context.Context, query string) ([]domain.User, error)
	updateFunc         func(ctx context.Context, id domain.ID, patch domain.Patch) (domain.User, error)
	deleteFunc         func(ctx context.Context, id domain.ID) (bool, error)
}

func (m *mockUserRepo) Create(ctx context.Context, candidate domain.NewUser) (domain.User, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, candidate)
	}
	return domain.User{}, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id domain.ID) (domain.User, bool, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return domain.User{}, false, nil
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (domain.User, bool, error) {
	if m.findByUsernameFunc != nil {
		return m.findByUsernameFunc(ctx, username)
	}
	return domain.User{}, false, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (domain.User, bool, error) {
	if m.findByEmailFunc != nil {
		return m.findByEmailFunc(ctx, email)
	}
	return domain.User{}, false, nil
}

func (m *mockUserRepo) List(ctx context.Context) ([]domain.User, error) {
	return m.Search(ctx, "")
}

func (m *mockUserRepo) Search(ctx context.Context, query string) ([]domain.User, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, query)
	}
	return nil, nil
}

func (m *mockUserRepo) Update(ctx context.Context, id domain.ID, patch domain.Patch) (domain.User, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, patch)
	}
	return domain.User{}, nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id domain.ID) (bool, error) {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return false, nil
}

func (m *mockUserRepo) Count(ctx context.Context) (int, error) {
	return 0, nil
}

type mockSessionRevoker struct {
	revokeAllForUserFunc func(ctx context.Context, userID domain.ID) (int, error)
}

func (m *mockSessionRevoker) RevokeAllForUser(ctx context.Context, userID domain.ID) (int, error) {
	if m.revokeAllForUserFunc != nil {
		return m.revokeAllForUserFunc(ctx, userID)
	}
	return 0, nil
}
