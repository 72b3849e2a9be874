package http

import (
	"net/http"
	"time"

	"github.com/AlibekovAA/dashboard-auth/internal/auth/service"
	commonhttp "github.com/AlibekovAA/dashboard-auth/internal/common/http"
	"github.com/AlibekovAA/dashboard-auth/internal/common/logger"
	"github.com/AlibekovAA/dashboard-auth/internal/common/sessionauth"
)

type Guard interface {
	Middleware(next http.Handler) http.Handler
}

type CookieCodec interface {
	Encode(token string, issuedAt time.Time) (string, error)
	Decode(value string) (string, error)
	Set(w http.ResponseWriter, r *http.Request, value string)
	Clear(w http.ResponseWriter, r *http.Request)
}

type Handler struct {
	auth    *service.AuthService
	codec   CookieCodec
	extract func(*http.Request) (string, bool)
	log     *logger.Logger
}

// Register mounts the session routes and the health check on mux.
func Register(
	mux *http.ServeMux,
	auth *service.AuthService,
	codec CookieCodec,
	extract func(*http.Request) (string, bool),
	guard Guard,
	timeout time.Duration,
	log *logger.Logger,
) {
	h := &Handler{
		auth:    auth,
		codec:   codec,
		extract: extract,
		log:     log,
	}
	timed := commonhttp.WithTimeout(timeout)

	mux.HandleFunc("/health", commonhttp.HealthHandler(log))
	mux.HandleFunc("/api/register", timed(commonhttp.RequireMethod(http.MethodPost)(h.register)))
	mux.HandleFunc("/api/login", timed(commonhttp.RequireMethod(http.MethodPost)(h.login)))
	mux.HandleFunc("/api/logout", timed(commonhttp.RequireMethod(http.MethodPost)(h.logout)))
	mux.HandleFunc("/api/user", timed(guard.Middleware(commonhttp.RequireMethod(http.MethodGet)(h.currentUser)).ServeHTTP))
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	result, err := h.auth.Register(r.Context(), req)
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	if !h.setSession(w, r, result.Session) {
		return
	}
	commonhttp.WriteJSON(w, http.StatusCreated, result.User)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginInput
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	result, err := h.auth.Login(r.Context(), req)
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	if !h.setSession(w, r, result.Session) {
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, result.User)
}

// logout always clears the cookie. A missing or forged cookie still gets 200.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if raw, ok := h.extract(r); ok {
		if token, err := h.codec.Decode(raw); err == nil {
			if err := h.auth.Logout(r.Context(), token); err != nil {
				commonhttp.HandleError(w, r, err, h.log)
				return
			}
		}
	}

	h.codec.Clear(w, r)
	commonhttp.WriteMessage(w, http.StatusOK, "logged out")
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := sessionauth.FromContext(r.Context())
	if !ok {
		commonhttp.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}

	user, err := h.auth.CurrentUser(r.Context(), principal.UserID)
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) setSession(w http.ResponseWriter, r *http.Request, session service.IssuedSession) bool {
	value, err := h.codec.Encode(session.Token, session.IssuedAt)
	if err != nil {
		h.log.WithFields(r.Context(), logger.Fields{
			"action":  "set_session_cookie",
			"user_id": int64(session.UserID),
		}).Errorf("encode session cookie failed: %v", err)
		commonhttp.HandleError(w, r, err, h.log)
		return false
	}
	h.codec.Set(w, r, value)
	return true
}
