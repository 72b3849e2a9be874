package service

import (
	"github.com/AlibekovAA/dashboard-auth/internal/common/validation"
)

type RegisterInput struct {
	Username  string `json:"username" validate:"required,min=3,max=32,username"`
	FirstName string `json:"firstName" validate:"required,max=64"`
	LastName  string `json:"lastName" validate:"required,max=64"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,min=6,bcryptlen"`
}

// LoginInput only caps the password at bcrypt's byte limit, so a short
// wrong password is reported as bad credentials rather than a validation error.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,bcryptlen"`
}

func (in RegisterInput) Validate() error {
	return validation.Struct(in)
}

func (in LoginInput) Validate() error {
	return validation.Struct(in)
}
