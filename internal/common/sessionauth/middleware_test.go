package sessionauth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AlibekovAA/dashboard-auth/internal/common/constants"
	commonerrors "github.com/AlibekovAA/dashboard-auth/internal/common/errors"
	"github.com/AlibekovAA/dashboard-auth/internal/common/logger"
	userdomain "github.com/AlibekovAA/dashboard-auth/internal/user/domain"
)

type mockValidator struct {
	ValidateFunc func(ctx context.Context, token string) (userdomain.ID, error)
}

func (m *mockValidator) Validate(ctx context.Context, token string) (userdomain.ID, error) {
	return m.ValidateFunc(ctx, token)
}

type mockCodec struct {
	set []string
}

func (m *mockCodec) Decode(value string) (string, error) {
	if value == "forged" {
		return "", commonerrors.ErrInvalidSessionCookie
	}
	return "token:" + value, nil
}

func (m *mockCodec) Set(w http.ResponseWriter, r *http.Request, value string) {
	m.set = append(m.set, value)
	http.SetCookie(w, &http.Cookie{Name: constants.SessionCookieName, Value: value, MaxAge: 3600})
}

// headerExtract reads the session from the cookie, falling back to X-Session.
func headerExtract(r *http.Request) (string, bool) {
	if c, err := r.Cookie(constants.SessionCookieName); err == nil {
		return c.Value, true
	}
	v := r.Header.Get("X-Session")
	return v, v != ""
}

func setupGuard(t *testing.T) (*Guard, *int) {
	guard, calls, _ := setupGuardWithCodec(t)
	return guard, calls
}

func setupGuardWithCodec(t *testing.T) (*Guard, *int, *mockCodec) {
	t.Helper()
	calls := 0
	validator := &mockValidator{
		ValidateFunc: func(ctx context.Context, token string) (userdomain.ID, error) {
			calls++
			if token == "token:good" {
				return 7, nil
			}
			return 0, commonerrors.ErrUnauthorized
		},
	}
	codec := &mockCodec{}
	return NewGuard(validator, codec, headerExtract, logger.NewWithWriter(io.Discard, "test", "ERROR")), &calls, codec
}

func TestGuard_Admits(t *testing.T) {
	guard, _ := setupGuard(t)

	var got Principal
	handler := guard.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set("X-Session", "good")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got.UserID != 7 {
		t.Errorf("expected user 7, got %d", got.UserID)
	}
}

func TestGuard_Rejects(t *testing.T) {
	tests := []struct {
		name          string
		header        string
		wantValidated bool
	}{
		{"missing", "", false},
		{"forged", "forged", false},
		{"unknown session", "stale", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guard, calls := setupGuard(t)
			reached := false
			handler := guard.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
			if tt.header != "" {
				req.Header.Set("X-Session", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
			if reached {
				t.Error("wrapped handler must not run")
			}
			if (*calls > 0) != tt.wantValidated {
				t.Errorf("validate called=%v, want %v", *calls > 0, tt.wantValidated)
			}
		})
	}
}

func TestGuard_AuthenticateUnauthorizedIs401(t *testing.T) {
	guard, _ := setupGuard(t)

	_, err := guard.Authenticate(httptest.NewRequest(http.MethodGet, "/", nil))
	if !errors.Is(err, commonerrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestFromContext_Empty(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("expected no principal")
	}
}

func TestGuard_RefreshesSessionCookie(t *testing.T) {
	guard, _, codec := setupGuardWithCodec(t)
	handler := guard.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: "good"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(codec.set) != 1 || codec.set[0] != "good" {
		t.Fatalf("expected the cookie to be re-sent once, got %v", codec.set)
	}
	if !strings.Contains(rec.Header().Get("Set-Cookie"), constants.SessionCookieName+"=good") {
		t.Errorf("expected Set-Cookie refresh, got %q", rec.Header().Get("Set-Cookie"))
	}
}

func TestGuard_NoCookieRefresh(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		header string
	}{
		{"bearer client", "", "good"},
		{"rejected session", "stale", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guard, _, codec := setupGuardWithCodec(t)
			handler := guard.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

			req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set("X-Session", tt.header)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if len(codec.set) != 0 {
				t.Errorf("expected no cookie refresh, got %v", codec.set)
			}
		})
	}
}
