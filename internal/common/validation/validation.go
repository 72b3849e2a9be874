package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/AlibekovAA/dashboard-auth/internal/common/constants"
	commonerrors "github.com/AlibekovAA/dashboard-auth/internal/common/errors"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(jsonFieldName)
		_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernameRegex.MatchString(fl.Field().String())
		})
		// max counts runes; bcrypt rejects anything over 72 bytes.
		_ = v.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
			return len(fl.Field().String()) <= constants.BcryptMaxPasswordBytes
		})
		instance = v
	})
	return instance
}

// Struct validates s against its `validate` tags. Failures come back as
// ErrValidation with details.fields mapping json field names to messages.
func Struct(s any) error {
	err := get().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return commonerrors.ErrValidation.WithCause(err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = message(fe)
	}

	return FieldErrors(fields).WithCause(err)
}

// FieldErrors builds a validation error for fields checked outside of tags.
func FieldErrors(fields map[string]string) commonerrors.DomainError {
	return commonerrors.ErrValidation.WithDetails(map[string]any{"fields": fields})
}

func Fields(err error) map[string]string {
	de, ok := commonerrors.AsDomainError(err)
	if !ok {
		return nil
	}
	fields, _ := de.Details()["fields"].(map[string]string)
	return fields
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "username":
		return "may contain only letters, digits, underscores and hyphens"
	case "bcryptlen":
		return fmt.Sprintf("must be at most %d bytes", constants.BcryptMaxPasswordBytes)
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}
