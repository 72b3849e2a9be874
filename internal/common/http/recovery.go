package http

import (
	"fmt"
	"net/http"
	"runtime/debug"

	commonerrors "github.com/AlibekovAA/dashboard-auth/internal/common/errors"
	"github.com/AlibekovAA/dashboard-auth/internal/common/logger"
)

// RecoveryMiddleware turns a handler panic into a 500 envelope. Aborted
// handlers (http.ErrAbortHandler) are re-panicked for net/http to handle.
func RecoveryMiddleware(log *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				log.WithFields(r.Context(), logger.Fields{
					"action": "panic_recovered",
					"path":   r.URL.Path,
				}).Criticalf("panic recovered: %v\n%s", rec, debug.Stack())
				HandleError(w, r, commonerrors.ErrInternalError.WithCause(fmt.Errorf("panic: %v", rec)), log)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
