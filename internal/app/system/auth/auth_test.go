package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/propertyhub/internal/app/system/auth"
	"github.com/dalemusser/propertyhub/internal/app/system/tokens"
	"github.com/dalemusser/propertyhub/internal/domain/models"
	"go.uber.org/zap"
)

type mapFetcher map[string]*models.User

func (m mapFetcher) FetchUser(_ context.Context, id string) *models.User {
	u := m[id]
	if u == nil || !u.IsActive {
		return nil
	}
	return u
}

func newAuthenticator(t *testing.T, users mapFetcher) (*auth.Authenticator, *tokens.Issuer) {
	t.Helper()
	iss, err := tokens.NewIssuer("0123456789abcdef0123456789abcdef", "test", time.Minute, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return auth.NewAuthenticator(iss, users, zap.NewNop()), iss
}

// echoUser writes the current user's id, or "anon".
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		w.Write([]byte(u.ID))
		return
	}
	w.Write([]byte("anon"))
})

func TestLoadUser(t *testing.T) {
	users := mapFetcher{
		"u1":   {ID: "u1", IsActive: true},
		"gone": {ID: "gone", IsActive: false},
	}
	a, iss := newAuthenticator(t, users)
	good, _ := iss.Issue("u1")
	inactive, _ := iss.Issue("gone")
	missing, _ := iss.Issue("nobody")

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"no header", "", http.StatusOK, "anon"},
		{"non-bearer scheme", "Basic abc", http.StatusOK, "anon"},
		{"valid access token", "Bearer " + good.Access, http.StatusOK, "u1"},
		{"lowercase scheme", "bearer " + good.Access, http.StatusOK, "u1"},
		{"refresh token", "Bearer " + good.Refresh, http.StatusUnauthorized, ""},
		{"garbage", "Bearer nope", http.StatusUnauthorized, ""},
		{"inactive user", "Bearer " + inactive.Access, http.StatusUnauthorized, ""},
		{"missing user", "Bearer " + missing.Access, http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			a.LoadUser(echoUser).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body: got %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRequireSignedIn(t *testing.T) {
	h := auth.RequireSignedIn(echoUser)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: got %d, want 401", rec.Code)
	}

	req := auth.WithTestUser(httptest.NewRequest(http.MethodGet, "/", nil), &models.User{ID: "u1"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "u1" {
		t.Errorf("signed in: got %d %q", rec.Code, rec.Body.String())
	}
}

func TestRequireStaff(t *testing.T) {
	h := auth.RequireStaff(echoUser)

	tests := []struct {
		name string
		user *models.User
		want int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"regular user", &models.User{ID: "u1"}, http.StatusForbidden},
		{"staff", &models.User{ID: "s1", IsStaff: true}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.user != nil {
				req = auth.WithTestUser(req, tt.user)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("got %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestUserOrNil(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if auth.UserOrNil(req) != nil {
		t.Error("anonymous request should yield nil")
	}
	req = auth.WithTestUser(req, &models.User{ID: "u1"})
	if u := auth.UserOrNil(req); u == nil || u.ID != "u1" {
		t.Errorf("got %+v", u)
	}
}
