package accounts

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	userstore "github.com/dalemusser/propertyhub/internal/app/store/users"
	"github.com/dalemusser/propertyhub/internal/app/system/apierr"
	"github.com/dalemusser/propertyhub/internal/app/system/auth"
	"github.com/dalemusser/propertyhub/internal/app/system/formutil"
	"github.com/dalemusser/propertyhub/internal/app/system/mailer"
	"github.com/dalemusser/propertyhub/internal/app/system/normalize"
	"github.com/dalemusser/propertyhub/internal/app/system/resettoken"
	"github.com/dalemusser/propertyhub/internal/app/system/timeouts"
	"github.com/dalemusser/propertyhub/internal/domain/models"
	"go.uber.org/zap"
)

const resetSentMessage = "Password reset email sent successfully"

/*─────────────────────────────────────────────────────────────────────────────*
| Password reset                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// HandlePasswordReset handles POST /password-reset/ with {"email"}. The
// response is the same whether or not the address belongs to an account.
func (h *Handler) HandlePasswordReset(w http.ResponseWriter, r *http.Request) {
	payload, err := formutil.DecodeJSON(r, h.MaxBody)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	f := &fields{p: payload}
	email := normalize.Email(f.str("email"))
	if f.err != nil {
		apierr.Write(w, h.Log, f.err)
		return
	}
	if email == "" {
		apierr.Write(w, h.Log, apierr.Validation("email", "Email is required"))
		return
	}
	if h.ResetLimiter != nil {
		if ok, reason := h.ResetLimiter.Check(r, email); !ok {
			apierr.Write(w, h.Log, apierr.TooManyRequests(reason))
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	var userID string
	switch {
	case errors.Is(err, userstore.ErrNotFound):
		h.Log.Info("password reset for unknown email")
	case err != nil:
		h.Log.Error("password reset lookup failed", zap.Error(err))
	case !u.IsActive:
		h.Log.Info("password reset for inactive user", zap.String("user_id", u.ID))
	default:
		userID = u.ID
		h.sendLink(u, resettoken.PasswordReset, resettoken.Stamp(u.PasswordHash), "/password-reset/confirm", mailer.BuildPasswordResetEmail)
	}
	h.Audit.PasswordResetRequested(ctx, r, userID, email)
	apierr.WriteJSON(w, http.StatusOK, messageResponse{Message: resetSentMessage})
}

// HandlePasswordResetConfirm handles POST /password-reset/confirm/ with
// {"token", "new_password", "new_password_confirm"}. A token stops working
// once the password it was issued against has changed.
func (h *Handler) HandlePasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	payload, err := formutil.DecodeJSON(r, h.MaxBody)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	f := &fields{p: payload}
	token := f.str("token")
	next := f.secret("new_password")
	confirm := f.secret("new_password_confirm")
	if f.err != nil {
		apierr.Write(w, h.Log, f.err)
		return
	}

	u, err := h.userForLink(r.Context(), resettoken.PasswordReset, token, func(u *models.User) string {
		return resettoken.Stamp(u.PasswordHash)
	})
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	if err := h.setPassword(r.Context(), u, next, confirm); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	h.Audit.PasswordResetCompleted(r.Context(), r, u.ID)
	apierr.WriteJSON(w, http.StatusOK, messageResponse{Message: "Password has been reset successfully"})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Email verification                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleVerifyEmail handles GET /verify-email/?token=.
func (h *Handler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	// Tokens are opaque; read them verbatim.
	token := r.URL.Query().Get("token")
	if token == "" {
		apierr.Write(w, h.Log, apierr.Validation("token", "Token is required"))
		return
	}
	u, err := h.userForLink(r.Context(), resettoken.VerifyEmail, token, func(u *models.User) string {
		return emailStamp(u.Email)
	})
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	if err := h.Users.MarkEmailVerified(ctx, u.ID); err != nil {
		apierr.Write(w, h.Log, storeErr(err))
		return
	}
	h.Audit.EmailVerified(ctx, r, u.ID, u.Email)
	apierr.WriteJSON(w, http.StatusOK, messageResponse{Message: "Email verified successfully"})
}

// HandleVerifyEmailRequest handles POST /verify-email/request/: it sends a
// fresh verification link to the caller.
func (h *Handler) HandleVerifyEmailRequest(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	if u.IsEmailVerified {
		apierr.WriteJSON(w, http.StatusOK, messageResponse{Message: "Email is already verified"})
		return
	}
	h.sendVerification(r.Context(), u)
	apierr.WriteJSON(w, http.StatusOK, messageResponse{Message: "Verification email sent"})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) sendVerification(_ context.Context, u *models.User) {
	h.sendLink(u, resettoken.VerifyEmail, emailStamp(u.Email), "/verify-email", mailer.BuildVerificationEmail)
}

// sendLink issues a token for u and hands the link email to the mailer.
// The production mailer is a mailer.Queue, so this never waits on SMTP.
// Failures are logged; the caller's response does not depend on delivery.
func (h *Handler) sendLink(u *models.User, purpose resettoken.Purpose, stamp, path string, build func(mailer.LinkEmailData) mailer.Email) {
	if h.Links == nil || h.Mailer == nil {
		h.Log.Warn("email links are not configured", zap.String("purpose", string(purpose)))
		return
	}
	token, err := h.Links.Issue(purpose, resettoken.Claims{UserID: u.ID, Stamp: stamp})
	if err != nil {
		h.Log.Error("issue link token failed", zap.String("purpose", string(purpose)), zap.Error(err))
		return
	}

	link := strings.TrimRight(h.BaseURL, "/") + path + "?token=" + url.QueryEscape(token)
	e := build(mailer.LinkEmailData{
		SiteName:  h.SiteName,
		Name:      u.FullName(),
		Link:      link,
		ExpiresIn: h.Links.TTL().String(),
	})
	e.To = u.Email
	if err := h.Mailer.Send(e); err != nil {
		h.Log.Error("send email failed", zap.String("purpose", string(purpose)), zap.String("user_id", u.ID), zap.Error(err))
	}
}

// userForLink verifies token and loads its user. stamp recomputes the
// value the token must carry for the user's current state.
func (h *Handler) userForLink(ctx context.Context, purpose resettoken.Purpose, token string, stamp func(*models.User) string) (*models.User, error) {
	invalid := apierr.Validation("token", "Invalid or expired token")
	if h.Links == nil {
		return nil, invalid
	}
	claims, err := h.Links.Verify(purpose, token)
	if err != nil {
		return nil, invalid
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()
	u, err := h.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	if !u.IsActive || claims.Stamp != stamp(u) {
		return nil, invalid
	}
	return u, nil
}

// emailStamp binds a verification token to the address it was sent to.
func emailStamp(email string) string {
	return resettoken.Stamp(normalize.Email(email))
}
