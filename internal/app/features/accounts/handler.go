// Package accounts serves registration, login, token refresh, the caller's
// profile, password changes and the email-link flows (password reset and
// email verification).
package accounts

import (
	"context"
	"time"

	"github.com/dalemusser/propertyhub/internal/app/system/auditlog"
	"github.com/dalemusser/propertyhub/internal/app/system/mailer"
	"github.com/dalemusser/propertyhub/internal/app/system/ratelimit"
	"github.com/dalemusser/propertyhub/internal/app/system/resettoken"
	"github.com/dalemusser/propertyhub/internal/app/system/tokens"
	"github.com/dalemusser/propertyhub/internal/domain/models"
	"go.uber.org/zap"
)

// UserStore is the slice of the identity store the account endpoints use.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u models.User) (models.User, error)
	UpdateProfile(ctx context.Context, u models.User) error
	SetPassword(ctx context.Context, id, hash string) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	MarkEmailVerified(ctx context.Context, id string) error
	PhoneExistsForOther(ctx context.Context, phone, excludeID string) (bool, error)
	GetExtended(ctx context.Context, userID string) (*models.ExtendedProfile, error)
	UpdateExtended(ctx context.Context, p models.ExtendedProfile) error
}

// Revocations blacklists refresh tokens by jti until they expire.
type Revocations interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type Handler struct {
	Users        UserStore
	Tokens       *tokens.Issuer
	Revocations  Revocations
	Links        *resettoken.Codec
	Mailer       mailer.Sender
	Limiter      *ratelimit.LoginLimiter // login attempts
	ResetLimiter *ratelimit.LoginLimiter // password-reset requests
	Audit        *auditlog.Logger        // nil disables audit events
	Log          *zap.Logger

	SiteName    string // used in email subjects
	BaseURL     string // base for links in emails, e.g. "https://propertyhub.example"
	MaxDocDepth int    // nesting limit for extended-profile documents
	MaxBody     int64
}

// NewHandler wires a Handler with default limits. The limiters may be
// replaced after construction; a nil limiter disables that limit. Login and
// password-reset requests are counted separately so reset requests cannot
// lock an account out of signing in.
func NewHandler(users UserStore, issuer *tokens.Issuer, revocations Revocations, links *resettoken.Codec, sender mailer.Sender, logger *zap.Logger) *Handler {
	return &Handler{
		Users:        users,
		Tokens:       issuer,
		Revocations:  revocations,
		Links:        links,
		Mailer:       sender,
		Limiter:      ratelimit.NewLoginLimiter(),
		ResetLimiter: ratelimit.NewLoginLimiter(),
		Log:          logger,
		SiteName:     "PropertyHub",
		MaxDocDepth:  models.DefaultMaxDocDepth,
		MaxBody:      1 << 20,
	}
}
