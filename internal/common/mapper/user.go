package mapper

import (
	"github.com/AlibekovAA/dashboard-auth/internal/common/dto"
	userdomain "github.com/AlibekovAA/dashboard-auth/internal/user/domain"
)

func UserToDTO(user userdomain.User) dto.User {
	return dto.User{
		ID:        int64(user.ID),
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

func UsersToDTO(users []userdomain.User) []dto.User {
	result := make([]dto.User, len(users))
	for i, u := range users {
		result[i] = UserToDTO(u)
	}
	return result
}
