package http

import (
	"net/http"

	"github.com/AlibekovAA/dashboard-auth/internal/common/constants"
	"github.com/AlibekovAA/dashboard-auth/internal/common/httpmetrics"
	"github.com/AlibekovAA/dashboard-auth/internal/common/logger"
)

// BuildBaseHandler wraps handler in the shared middleware chain, outermost
// first: security headers, trace id, panic recovery, rate limiting (when
// limiter is non-nil), body size cap, request metrics.
func BuildBaseHandler(appName string, log *logger.Logger, limiter *StrictRateLimiter, handler http.Handler) http.Handler {
	h := httpmetrics.New(appName).Wrap(handler)
	h = MaxRequestSizeMiddleware(constants.DefaultMaxRequestSize)(h)
	if limiter != nil {
		h = limiter.Middleware(h)
	}
	h = RecoveryMiddleware(log)(h)
	h = TraceIDMiddleware(h)
	return SecurityHeadersMiddleware("")(h)
}
