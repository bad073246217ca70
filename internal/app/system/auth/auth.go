// Package auth authenticates API requests from bearer access tokens and
// provides the middleware that gates routes on the current user.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/propertyhub/internal/app/system/apierr"
	"github.com/dalemusser/propertyhub/internal/app/system/tokens"
	"github.com/dalemusser/propertyhub/internal/domain/models"
	"go.uber.org/zap"
)

// UserFetcher loads the current state of a user. It returns nil when the
// user does not exist or is deactivated.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *models.User
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the authenticated user and a found flag.
func CurrentUser(r *http.Request) (*models.User, bool) {
	u, ok := r.Context().Value(currentUserKey).(*models.User)
	return u, ok && u != nil
}

// UserOrNil returns the authenticated user, or nil for anonymous requests.
func UserOrNil(r *http.Request) *models.User {
	u, _ := CurrentUser(r)
	return u
}

// WithTestUser injects u into the request context. Intended for handler tests.
func WithTestUser(r *http.Request, u *models.User) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// Authenticator resolves bearer tokens to users.
type Authenticator struct {
	issuer  *tokens.Issuer
	fetcher UserFetcher
	logger  *zap.Logger
}

// NewAuthenticator wires an Authenticator.
func NewAuthenticator(issuer *tokens.Issuer, fetcher UserFetcher, logger *zap.Logger) *Authenticator {
	return &Authenticator{issuer: issuer, fetcher: fetcher, logger: logger}
}

// LoadUser injects the user into context when the request carries a valid
// access token. Requests without a token continue anonymously. A token that
// is present but invalid, or that names a missing or deactivated user, is
// rejected with 401.
func (a *Authenticator) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := a.issuer.Parse(raw, tokens.TypeAccess)
		if err != nil {
			a.logger.Debug("rejected bearer token", zap.Error(err))
			apierr.Write(w, a.logger, apierr.Unauthorized("given token not valid for any token type"))
			return
		}

		u := a.fetcher.FetchUser(r.Context(), claims.Subject)
		if u == nil {
			apierr.Write(w, a.logger, apierr.Unauthorized("user not found or inactive"))
			return
		}
		next.ServeHTTP(w, withUser(r, u))
	})
}

// RequireSignedIn rejects anonymous requests with 401.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			apierr.Write(w, nil, apierr.Unauthorized("authentication credentials were not provided"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireStaff rejects anonymous requests with 401 and non-staff users with 403.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := CurrentUser(r)
		if !ok {
			apierr.Write(w, nil, apierr.Unauthorized("authentication credentials were not provided"))
			return
		}
		if !u.IsStaff {
			apierr.Write(w, nil, apierr.Forbidden("you do not have permission to perform this action"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if h == "" {
		return "", false
	}
	scheme, tok, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}
