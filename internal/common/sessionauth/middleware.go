package sessionauth

import (
	"context"
	"net/http"

	"github.com/AlibekovAA/dashboard-auth/internal/common/constants"
	commonerrors "github.com/AlibekovAA/dashboard-auth/internal/common/errors"
	commonhttp "github.com/AlibekovAA/dashboard-auth/internal/common/http"
	"github.com/AlibekovAA/dashboard-auth/internal/common/logger"
	userdomain "github.com/AlibekovAA/dashboard-auth/internal/user/domain"
)

type Principal struct {
	UserID userdomain.ID
}

type SessionValidator interface {
	Validate(ctx context.Context, token string) (userdomain.ID, error)
}

// CookieCodec verifies a session cookie and re-sends it. Set restarts the
// browser-side Max-Age so the cookie slides along with the session.
type CookieCodec interface {
	Decode(value string) (string, error)
	Set(w http.ResponseWriter, r *http.Request, value string)
}

type contextKey string

const principalKey contextKey = "session_principal"

// Guard admits a request only when it carries a live session; otherwise it
// answers 401 without calling next.
type Guard struct {
	sessions SessionValidator
	codec    CookieCodec
	extract  func(*http.Request) (string, bool)
	log      *logger.Logger
}

func NewGuard(sessions SessionValidator, codec CookieCodec, extract func(*http.Request) (string, bool), log *logger.Logger) *Guard {
	return &Guard{
		sessions: sessions,
		codec:    codec,
		extract:  extract,
		log:      log,
	}
}

func (g *Guard) Authenticate(r *http.Request) (Principal, error) {
	principal, _, err := g.authenticate(r)
	return principal, err
}

func (g *Guard) authenticate(r *http.Request) (Principal, string, error) {
	raw, ok := g.extract(r)
	if !ok {
		return Principal{}, "", commonerrors.ErrUnauthorized
	}

	token, err := g.codec.Decode(raw)
	if err != nil {
		return Principal{}, "", commonerrors.ErrUnauthorized.WithCause(err)
	}

	userID, err := g.sessions.Validate(r.Context(), token)
	if err != nil {
		return Principal{}, "", err
	}
	return Principal{UserID: userID}, raw, nil
}

// Middleware admits live sessions. When the session arrived in the cookie,
// the cookie is re-sent so its Max-Age follows the sliding server expiry;
// bearer clients get no cookie.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, raw, err := g.authenticate(r)
		if err != nil {
			g.log.WithFields(r.Context(), logger.Fields{
				"action": "session_guard_reject",
				"path":   r.URL.Path,
			}).Debugf("session rejected: %v", err)
			commonhttp.HandleError(w, r, err, g.log)
			return
		}

		if cookie, err := r.Cookie(constants.SessionCookieName); err == nil && cookie.Value == raw {
			g.codec.Set(w, r, raw)
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
