package auditlog_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dalemusser/propertyhub/internal/app/store/audit"
	"github.com/dalemusser/propertyhub/internal/app/system/auditlog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type memStore struct {
	mu     sync.Mutex
	events []audit.Event
	fail   bool
}

func (m *memStore) Log(_ context.Context, e audit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("insert failed")
	}
	m.events = append(m.events, e)
	return nil
}

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	req := httptest.NewRequest("POST", "/login", nil)

	// These should all be no-ops, not panic
	logger.Log(context.Background(), audit.Event{EventType: "test"})
	logger.LoginSuccess(context.Background(), req, "u1", "a@example.com")
	logger.Logout(context.Background(), req, "u1")
}

func TestLogger_Modes(t *testing.T) {
	tests := []struct {
		mode      string
		wantStore int
		wantZap   int
	}{
		{auditlog.ModeAll, 1, 1},
		{"", 1, 1},
		{auditlog.ModeDB, 1, 0},
		{auditlog.ModeLog, 0, 1},
		{auditlog.ModeOff, 0, 0},
	}
	for _, tt := range tests {
		t.Run("mode="+tt.mode, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			store := &memStore{}
			logger := auditlog.New(store, zap.New(core), auditlog.Config{Auth: tt.mode, Admin: auditlog.ModeOff})

			req := httptest.NewRequest("POST", "/login", nil)
			logger.LoginSuccess(context.Background(), req, "u1", "a@example.com")
			// Admin events are off in every case.
			logger.UserVerificationChanged(context.Background(), req, "staff", "u1", true)

			if len(store.events) != tt.wantStore {
				t.Errorf("stored %d events, want %d", len(store.events), tt.wantStore)
			}
			if n := logs.FilterMessage("audit event").Len(); n != tt.wantZap {
				t.Errorf("logged %d events, want %d", n, tt.wantZap)
			}
		})
	}
}

func TestLogger_EventFields(t *testing.T) {
	store := &memStore{}
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{})
	ctx := context.Background()

	req := httptest.NewRequest("POST", "/login", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	req.Header.Set("User-Agent", "TestBrowser/1.0")

	logger.LoginFailedWrongPassword(ctx, req, "u1", "a@example.com")
	logger.PasswordResetRequested(ctx, req, "", "nobody@example.com")
	logger.UserVerificationChanged(ctx, req, "staff-1", "u2", false)

	if len(store.events) != 3 {
		t.Fatalf("got %d events", len(store.events))
	}

	e := store.events[0]
	if e.Category != audit.CategoryAuth || e.EventType != audit.EventLoginFailedWrongPassword || e.Success {
		t.Errorf("wrong password event: %+v", e)
	}
	if e.IP != "203.0.113.7" || e.UserAgent != "TestBrowser/1.0" || e.Details["email"] != "a@example.com" {
		t.Errorf("request context not captured: %+v", e)
	}

	if e := store.events[1]; e.Success || e.FailureReason == "" || e.UserID != "" {
		t.Errorf("unknown-email reset should be a failure without user: %+v", e)
	}

	e = store.events[2]
	if e.Category != audit.CategoryAdmin || e.EventType != audit.EventUserUnverified || e.ActorID != "staff-1" || e.UserID != "u2" {
		t.Errorf("admin event: %+v", e)
	}
	if e.Details["is_verified"] != "false" {
		t.Errorf("details: %v", e.Details)
	}
}

func TestLogger_StoreFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	logger := auditlog.New(&memStore{fail: true}, zap.New(core), auditlog.Config{Auth: auditlog.ModeDB})

	logger.Logout(context.Background(), httptest.NewRequest("POST", "/logout", nil), "u1")

	if logs.FilterMessage("failed to store audit event").Len() != 1 {
		t.Error("expected store failure to be logged")
	}
}
