package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/AlibekovAA/dashboard-auth/internal/common/constants"
	commonerrors "github.com/AlibekovAA/dashboard-auth/internal/common/errors"
	"github.com/AlibekovAA/dashboard-auth/internal/common/httpmetrics"
	"github.com/AlibekovAA/dashboard-auth/internal/common/logger"
	"github.com/AlibekovAA/dashboard-auth/internal/observability/metrics"
)

type ErrorHandler struct {
	log *logger.Logger
}

func NewErrorHandler(log *logger.Logger) *ErrorHandler {
	return &ErrorHandler{log: log}
}

// HandleError writes the error envelope for err. Errors that are not
// DomainErrors are logged with their cause and answered as INTERNAL_ERROR.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	ctx := r.Context()
	domainErr, ok := commonerrors.AsDomainError(err)
	if !ok {
		h.log.WithFields(ctx, logger.Fields{
			"action": "unhandled_error",
			"path":   r.URL.Path,
		}).Errorf("unhandled error: %v", err)
		domainErr = commonerrors.ErrInternalError.WithCause(err)
	}

	if traceID := TraceIDFromContext(ctx); traceID != "" && domainErr.TraceID() == "" {
		domainErr = domainErr.WithTraceID(traceID)
	}

	status := domainErr.HTTPStatus()
	h.record(r, domainErr, status, !ok)

	code, message := domainErr.Code(), domainErr.Message()
	if status >= http.StatusInternalServerError && domainErr.Category() == commonerrors.CategoryInternal {
		code, message = CodeInternalError, "internal server error"
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", strconv.Itoa(int(constants.ServiceUnavailableRetryAfter.Seconds())))
	}

	WriteErrorEnvelope(w, status, code, message, domainErr.Details(), domainErr.TraceID())
}

// record logs and counts an error. Client errors are only logged at DEBUG.
func (h *ErrorHandler) record(r *http.Request, err commonerrors.DomainError, status int, logged bool) {
	if !logged {
		h.logDomain(r, err, status)
	}

	metrics.DomainErrorsTotal.WithLabelValues(
		string(err.Category()),
		err.Code(),
		strconv.Itoa(status),
	).Inc()
	metrics.HTTPErrorsTotal.WithLabelValues(
		strconv.Itoa(status),
		httpmetrics.NormalizePath(r.URL.Path),
		r.Method,
	).Inc()
}

func (h *ErrorHandler) logDomain(r *http.Request, err commonerrors.DomainError, status int) {
	entry := h.log.WithFields(r.Context(), logger.Fields{
		"error_code": err.Code(),
		"category":   string(err.Category()),
		"status":     status,
		"action":     "domain_error",
		"path":       r.URL.Path,
	})

	switch {
	case status >= http.StatusInternalServerError:
		entry.Errorf("domain error: %s", err.Error())
	case h.log.ShouldLog(logger.DEBUG):
		entry.Debugf("domain error: %s", err.Error())
	}
}

func HandleError(w http.ResponseWriter, r *http.Request, err error, log *logger.Logger) {
	NewErrorHandler(log).HandleError(w, r, err)
}

func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	traceID, _ := ctx.Value(constants.TraceIDKey).(string)
	return traceID
}
