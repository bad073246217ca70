// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/propertyhub/internal/app/store/audit"
	"github.com/dalemusser/propertyhub/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Logging modes for a category.
const (
	ModeAll = "all" // store + zap
	ModeDB  = "db"  // store only
	ModeLog = "log" // zap only
	ModeOff = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (register, login,
	// logout, password and email-verification flows).
	Auth string
	// Admin controls logging for staff actions on other accounts.
	Admin string
}

// Store persists audit events.
type Store interface {
	Log(ctx context.Context, event audit.Event) error
}

// Logger provides convenience methods for logging audit events.
// It logs to a Store and to structured logs (via zap).
type Logger struct {
	store  Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger. store may be nil when neither category
// writes to the database.
func New(store Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != "" {
		fields = append(fields, zap.String("user_id", event.UserID))
	}
	if event.ActorID != "" {
		fields = append(fields, zap.String("actor_id", event.ActorID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// A nil Logger is a no-op, so handlers built without one still work.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	default:
		setting = ModeAll
	}
	if setting == "" {
		setting = ModeAll
	}
	if setting == ModeOff {
		return
	}

	if setting == ModeAll || setting == ModeLog {
		l.logToZap(event)
	}

	if (setting == ModeAll || setting == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func authEvent(r *http.Request, eventType, userID string, success bool) audit.Event {
	return audit.Event{
		Category:  audit.CategoryAuth,
		EventType: eventType,
		UserID:    userID,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   success,
	}
}

// --- Authentication Events ---

// Registered logs a new account.
func (l *Logger) Registered(ctx context.Context, r *http.Request, userID, email, role string) {
	e := authEvent(r, audit.EventRegistered, userID, true)
	e.Details = map[string]string{"email": email, "user_type": role}
	l.Log(ctx, e)
}

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID, email string) {
	e := authEvent(r, audit.EventLoginSuccess, userID, true)
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// LoginFailedUserNotFound logs a login for an unknown email.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, attemptedEmail string) {
	e := authEvent(r, audit.EventLoginFailedUserNotFound, "", false)
	e.FailureReason = "user not found"
	e.Details = map[string]string{"attempted_email": attemptedEmail}
	l.Log(ctx, e)
}

// LoginFailedWrongPassword logs a failed login due to wrong password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID, email string) {
	e := authEvent(r, audit.EventLoginFailedWrongPassword, userID, false)
	e.FailureReason = "wrong password"
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// LoginFailedUserDisabled logs a failed login by a deactivated account.
func (l *Logger) LoginFailedUserDisabled(ctx context.Context, r *http.Request, userID, email string) {
	e := authEvent(r, audit.EventLoginFailedUserDisabled, userID, false)
	e.FailureReason = "user disabled"
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// LoginFailedRateLimit logs a login refused by the rate limiter.
func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, email string) {
	e := authEvent(r, audit.EventLoginFailedRateLimit, "", false)
	e.FailureReason = "rate limit exceeded"
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// Logout logs a refresh token being revoked.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userID string) {
	l.Log(ctx, authEvent(r, audit.EventLogout, userID, true))
}

// PasswordChanged logs a password change made while signed in.
func (l *Logger) PasswordChanged(ctx context.Context, r *http.Request, userID string) {
	l.Log(ctx, authEvent(r, audit.EventPasswordChanged, userID, true))
}

// PasswordResetRequested logs a reset request. userID is empty when the
// email matched no active account.
func (l *Logger) PasswordResetRequested(ctx context.Context, r *http.Request, userID, email string) {
	e := authEvent(r, audit.EventPasswordResetRequested, userID, userID != "")
	if userID == "" {
		e.FailureReason = "no matching account"
	}
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// PasswordResetCompleted logs a password set through a reset link.
func (l *Logger) PasswordResetCompleted(ctx context.Context, r *http.Request, userID string) {
	l.Log(ctx, authEvent(r, audit.EventPasswordResetCompleted, userID, true))
}

// EmailVerified logs a verification link being used.
func (l *Logger) EmailVerified(ctx context.Context, r *http.Request, userID, email string) {
	e := authEvent(r, audit.EventEmailVerified, userID, true)
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// --- Admin Events ---

// UserVerificationChanged logs staff granting or revoking posting rights.
func (l *Logger) UserVerificationChanged(ctx context.Context, r *http.Request, actorID, targetUserID string, verified bool) {
	eventType := audit.EventUserVerified
	if !verified {
		eventType = audit.EventUserUnverified
	}
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: eventType,
		UserID:    targetUserID,
		ActorID:   actorID,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details:   map[string]string{"is_verified": strconv.FormatBool(verified)},
	})
}
