package http

import (
	"net/http"
	"time"

	commonhttp "github.com/AlibekovAA/dashboard-auth/internal/common/http"
	"github.com/AlibekovAA/dashboard-auth/internal/common/logger"
	"github.com/AlibekovAA/dashboard-auth/internal/common/sessionauth"
	"github.com/AlibekovAA/dashboard-auth/internal/common/validation"
	"github.com/AlibekovAA/dashboard-auth/internal/user/domain"
	"github.com/AlibekovAA/dashboard-auth/internal/user/service"
)

const usersPrefix = "/api/users/"

type Guard interface {
	Middleware(next http.Handler) http.Handler
}

type Handler struct {
	users *service.UserService
	log   *logger.Logger
}

// Register mounts the user administration routes on mux behind guard.
func Register(mux *http.ServeMux, users *service.UserService, guard Guard, timeout time.Duration, log *logger.Logger) {
	h := &Handler{users: users, log: log}
	timed := commonhttp.WithTimeout(timeout)
	mux.HandleFunc("/api/users", timed(guard.Middleware(http.HandlerFunc(h.list)).ServeHTTP))
	mux.HandleFunc(usersPrefix, timed(guard.Middleware(http.HandlerFunc(h.item)).ServeHTTP))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		commonhttp.WriteError(w, http.StatusMethodNotAllowed, commonhttp.CodeMethodNotAllowed, "method not allowed")
		return
	}

	users, err := h.users.ListUsers(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) item(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPut:
		h.update(w, r)
	case http.MethodDelete:
		h.delete(w, r)
	default:
		w.Header().Set("Allow", "PUT, DELETE")
		commonhttp.WriteError(w, http.StatusMethodNotAllowed, commonhttp.CodeMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) target(w http.ResponseWriter, r *http.Request) (sessionauth.Principal, domain.ID, bool) {
	principal, ok := sessionauth.FromContext(r.Context())
	if !ok {
		commonhttp.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return sessionauth.Principal{}, 0, false
	}

	id, ok := commonhttp.PathInt64(r.URL.Path, usersPrefix)
	if !ok {
		commonhttp.HandleError(w, r, validation.FieldErrors(map[string]string{"id": "must be a positive integer"}), h.log)
		return sessionauth.Principal{}, 0, false
	}

	return principal, domain.ID(id), true
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.target(w, r)
	if !ok {
		return
	}

	var req service.PatchInput
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	updated, err := h.users.UpdateUser(r.Context(), principal.UserID, id, req)
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.target(w, r)
	if !ok {
		return
	}

	if err := h.users.DeleteUser(r.Context(), principal.UserID, id); err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	commonhttp.WriteMessage(w, http.StatusOK, "User deleted successfully")
}
