package service

import (
	"net/http"

	commonerrors "github.com/AlibekovAA/dashboard-auth/internal/common/errors"
)

var ErrSelfDeletionForbidden = commonerrors.NewDomainError(
	"SELF_DELETION_FORBIDDEN",
	commonerrors.CategoryForbidden,
	http.StatusBadRequest,
	"cannot delete your own account",
)
