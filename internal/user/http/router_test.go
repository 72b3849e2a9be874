package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/AlibekovAA/dashboard-auth/internal/common/clock"
	commonhttp "github.com/AlibekovAA/dashboard-auth/internal/common/http"
	"github.com/AlibekovAA/dashboard-auth/internal/common/logger"
	"github.com/AlibekovAA/dashboard-auth/internal/common/sessionauth"
	"github.com/AlibekovAA/dashboard-auth/internal/user/domain"
	"github.com/AlibekovAA/dashboard-auth/internal/user/repository"
	"github.com/AlibekovAA/dashboard-auth/internal/user/service"
)

// headerGuard trusts X-User-ID so handlers can be tested without sessions.
type headerGuard struct{}

func (headerGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
		if err != nil {
			commonhttp.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
			return
		}
		ctx := sessionauth.WithPrincipal(r.Context(), sessionauth.Principal{UserID: domain.ID(id)})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type noopRevoker struct {
	revoked []domain.ID
}

func (n *noopRevoker) RevokeAllForUser(ctx context.Context, userID domain.ID) (int, error) {
	n.revoked = append(n.revoked, userID)
	return 1, nil
}

func setupRouter(t *testing.T) (http.Handler, *repository.FileRepository, *noopRevoker) {
	t.Helper()
	log := logger.NewWithWriter(io.Discard, "test", "ERROR")

	repo, err := repository.NewFileRepository(filepath.Join(t.TempDir(), "users.json"), clock.NewRealClock(), log)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	for _, name := range []string{"alice", "bob"} {
		if _, err := repo.Create(context.Background(), domain.NewUser{
			Username:     name,
			FirstName:    name,
			LastName:     "Tester",
			Email:        name + "@example.com",
			PasswordHash: "hash",
		}); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}

	revoker := &noopRevoker{}
	mux := http.NewServeMux()
	Register(mux, service.NewUserService(repo, revoker, log), headerGuard{}, time.Second, log)
	return commonhttp.TraceIDMiddleware(mux), repo, revoker
}

func do(t *testing.T, h http.Handler, method, path, caller, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if caller != "" {
		req.Header.Set("X-User-ID", caller)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env commonhttp.ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return env.Code
}

func TestList(t *testing.T) {
	h, _, _ := setupRouter(t)

	rec := do(t, h, http.MethodGet, "/api/users", "1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "password") || strings.Contains(rec.Body.String(), "hash") {
		t.Fatalf("list leaked password: %s", rec.Body.String())
	}

	var users []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &users); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("expected 2 users, got %d", len(users))
	}

	rec = do(t, h, http.MethodGet, "/api/users?search=BOB", "1", "")
	_ = json.Unmarshal(rec.Body.Bytes(), &users)
	if len(users) != 1 || users[0]["username"] != "bob" {
		t.Errorf("expected only bob, got %v", users)
	}
}

func TestList_RequiresSession(t *testing.T) {
	h, _, _ := setupRouter(t)

	if rec := do(t, h, http.MethodGet, "/api/users", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestUpdate(t *testing.T) {
	h, repo, _ := setupRouter(t)

	rec := do(t, h, http.MethodPut, "/api/users/2", "1", `{"firstName":"Robert","email":""}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var got map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if got["firstName"] != "Robert" || got["email"] != "bob@example.com" {
		t.Errorf("unexpected body %v", got)
	}
	if _, ok := got["password"]; ok {
		t.Error("update response leaked password")
	}

	bob, _, _ := repo.FindByID(context.Background(), 2)
	if bob.FirstName != "Robert" {
		t.Errorf("update not stored: %+v", bob)
	}
}

func TestUpdate_BlankFieldsAreIgnored(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"blank username", `{"firstName":"Robert","username":""}`},
		{"blank email", `{"firstName":"Robert","email":""}`},
		{"whitespace username and email", `{"firstName":"Robert","username":"  ","email":" "}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, repo, _ := setupRouter(t)

			rec := do(t, h, http.MethodPut, "/api/users/2", "1", tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}

			bob, _, _ := repo.FindByID(context.Background(), 2)
			if bob.FirstName != "Robert" || bob.Username != "bob" || bob.Email != "bob@example.com" {
				t.Errorf("unexpected stored record %+v", bob)
			}
		})
	}
}

func TestUpdate_TrimsUsernameAndEmail(t *testing.T) {
	h, repo, _ := setupRouter(t)

	rec := do(t, h, http.MethodPut, "/api/users/2", "1", `{"username":" robert ","email":" rob@example.com"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	bob, _, _ := repo.FindByID(context.Background(), 2)
	if bob.Username != "robert" || bob.Email != "rob@example.com" {
		t.Errorf("expected trimmed values, got %+v", bob)
	}
}

func TestUpdate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"unknown id", "/api/users/99", `{"firstName":"X"}`, http.StatusNotFound, "USER_NOT_FOUND"},
		{"bad id", "/api/users/abc", `{"firstName":"X"}`, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"conflict", "/api/users/2", `{"username":"alice"}`, http.StatusConflict, "USERNAME_TAKEN"},
		{"bad email", "/api/users/2", `{"email":"nope"}`, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"immutable field", "/api/users/2", `{"id":5}`, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"password field", "/api/users/2", `{"password":"hunter22"}`, http.StatusBadRequest, "VALIDATION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, _ := setupRouter(t)
			rec := do(t, h, http.MethodPut, tt.path, "1", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if code := errorCode(t, rec); code != tt.code {
				t.Errorf("expected %s, got %s", tt.code, code)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	h, repo, revoker := setupRouter(t)

	rec := do(t, h, http.MethodDelete, "/api/users/2", "1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if _, ok, _ := repo.FindByID(context.Background(), 2); ok {
		t.Error("expected bob to be removed")
	}
	if len(revoker.revoked) != 1 || revoker.revoked[0] != 2 {
		t.Errorf("expected sessions of user 2 revoked, got %v", revoker.revoked)
	}

	rec = do(t, h, http.MethodDelete, "/api/users/2", "1", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", rec.Code)
	}
}

func TestDelete_Self(t *testing.T) {
	h, repo, _ := setupRouter(t)

	rec := do(t, h, http.MethodDelete, "/api/users/1", "1", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "SELF_DELETION_FORBIDDEN" {
		t.Errorf("expected SELF_DELETION_FORBIDDEN, got %s", code)
	}
	if _, ok, _ := repo.FindByID(context.Background(), 1); !ok {
		t.Error("caller must still exist")
	}

	rec = do(t, h, http.MethodDelete, "/api/users/77", "77", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("self-deletion of a missing id must still be 400, got %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h, _, _ := setupRouter(t)

	if rec := do(t, h, http.MethodPost, "/api/users", "1", "{}"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/users/1", "1", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}
