package http

import (
	"net/http"

	"github.com/AlibekovAA/dashboard-auth/internal/common/constants"
	commonerrors "github.com/AlibekovAA/dashboard-auth/internal/common/errors"
)

var ErrRequestTooLarge = commonerrors.NewDomainError(
	CodeRequestTooLarge,
	commonerrors.CategoryValidation,
	http.StatusRequestEntityTooLarge,
	"request body too large",
)

// MaxRequestSizeMiddleware caps request bodies at maxBytes. Declared sizes
// are rejected up front; streamed bodies fail inside DecodeJSON once they
// cross the limit.
func MaxRequestSizeMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = constants.DefaultMaxRequestSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				WriteError(w, http.StatusRequestEntityTooLarge, CodeRequestTooLarge, ErrRequestTooLarge.Message())
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
