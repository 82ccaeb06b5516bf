package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"boardroom-booking/internal/data/entity"
	"boardroom-booking/internal/data/repository"
	"boardroom-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSessions struct {
	repository.SessionRepository
	sessions map[string]*entity.Session
}

func (f *fakeSessions) FindValidSession(ctx context.Context, token string) (*entity.Session, error) {
	return f.sessions[token], nil
}

type fakeUsers struct {
	repository.UserRepository
	users map[uuid.UUID]*entity.User
}

func (f *fakeUsers) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return f.users[id], nil
}

func TestAuthSession(t *testing.T) {
	active := &entity.User{Base: entity.Base{ID: uuid.New()}, Role: entity.RoleUser, IsActive: true}
	inactive := &entity.User{Base: entity.Base{ID: uuid.New()}, Role: entity.RoleUser}

	activeToken, inactiveToken := uuid.NewString(), uuid.NewString()
	sessions := &fakeSessions{sessions: map[string]*entity.Session{
		activeToken:   {UserID: active.ID},
		inactiveToken: {UserID: inactive.ID},
	}}
	users := &fakeUsers{users: map[uuid.UUID]*entity.User{active.ID: active, inactive.ID: inactive}}

	var seen *entity.User
	var seenToken string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = utils.GetCurrentUser(r.Context())
		seenToken, _ = utils.GetTokenFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	h := AuthSession(sessions, users, zap.NewNop())(next)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + activeToken, http.StatusUnauthorized},
		{"unknown token", "Bearer " + uuid.NewString(), http.StatusUnauthorized},
		{"deactivated user", "Bearer " + inactiveToken, http.StatusUnauthorized},
		{"valid", "Bearer " + activeToken, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/api/bookings", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusNoContent && (seen != active || seenToken != activeToken) {
				t.Fatalf("context should carry the session user and token")
			}
		})
	}
}

func TestAdmin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := Admin(zap.NewNop())(next)

	tests := []struct {
		name string
		user *entity.User
		want int
	}{
		{"no user", nil, http.StatusUnauthorized},
		{"regular user", &entity.User{Base: entity.Base{ID: uuid.New()}, Role: entity.RoleUser}, http.StatusForbidden},
		{"admin", &entity.User{Base: entity.Base{ID: uuid.New()}, Role: entity.RoleAdmin}, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
			if tt.user != nil {
				req = req.WithContext(utils.SetCurrentUser(req.Context(), tt.user))
			}

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRecoverAndLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core)

	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { panic("boom") })
	h := Logger(log)(Recover(log)(panicky))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/boardrooms", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Internal server error") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	if logs.FilterMessage("PANIC recovered").Len() != 1 {
		t.Fatalf("panic should be logged")
	}

	entries := logs.FilterMessage("HTTP request").All()
	if len(entries) != 1 || entries[0].Level != zap.ErrorLevel {
		t.Fatalf("request should be logged once at error level, got %v", entries)
	}
	if entries[0].ContextMap()["status"] != int64(500) {
		t.Fatalf("logged status = %v", entries[0].ContextMap()["status"])
	}
}
