package accounts

import (
	"context"
	"errors"
	"net/http"
	"time"

	userstore "github.com/dalemusser/propertyhub/internal/app/store/users"
	"github.com/dalemusser/propertyhub/internal/app/system/apierr"
	"github.com/dalemusser/propertyhub/internal/app/system/auth"
	"github.com/dalemusser/propertyhub/internal/app/system/authutil"
	"github.com/dalemusser/propertyhub/internal/app/system/formutil"
	"github.com/dalemusser/propertyhub/internal/app/system/normalize"
	"github.com/dalemusser/propertyhub/internal/app/system/timeouts"
	"github.com/dalemusser/propertyhub/internal/app/system/tokens"
	"github.com/dalemusser/propertyhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.uber.org/zap"
)

// HandleRegister handles POST /register/. The new account is signed in
// immediately and a verification email is sent.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	payload, err := formutil.DecodeJSON(r, h.MaxBody)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	f := &fields{p: payload}
	u := models.User{
		Email:         normalize.Email(f.str("email")),
		Username:      normalize.Username(f.str("username")),
		FirstName:     normalize.Name(f.str("first_name")),
		LastName:      normalize.Name(f.str("last_name")),
		Phone:         normalize.Phone(f.str("phone")),
		Role:          normalize.Role(f.str("user_type")),
		Location:      f.str("location"),
		CompanyName:   f.str("company_name"),
		LicenseNumber: f.str("license_number"),
		Website:       f.str("website"),
	}
	password := f.secret("password")
	confirm := f.secret("password_confirm")
	if f.err != nil {
		apierr.Write(w, h.Log, f.err)
		return
	}

	switch {
	case u.Email == "":
		err = apierr.Validation("email", "This field is required.")
	case !authutil.IsValidEmail(u.Email):
		err = apierr.Validation("email", "Enter a valid email address.")
	case u.Username == "":
		err = apierr.Validation("username", "This field is required.")
	case u.FirstName == "":
		err = apierr.Validation("first_name", "This field is required.")
	case u.LastName == "":
		err = apierr.Validation("last_name", "This field is required.")
	case u.Role != "" && !models.ValidRole(u.Role):
		err = apierr.Validation("user_type", `must be one of "buyer", "seller", "agent"`)
	case u.Website != "" && !urlutil.IsValidAbsHTTPURL(u.Website):
		err = apierr.Validation("website", "Enter a valid URL.")
	case markupField(&u) != "":
		err = apierr.Validation(markupField(&u), "must not contain HTML markup")
	case password == "":
		err = apierr.Validation("password", "This field is required.")
	case password != confirm:
		err = apierr.Validation("password_confirm", "Password and confirm password do not match.")
	}
	if err == nil {
		if perr := authutil.ValidatePassword(password, u.Email, u.Username, u.FirstName, u.LastName); perr != nil {
			err = apierr.Validation("password", perr.Error())
		}
	}
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if u.Phone != "" {
		taken, err := h.Users.PhoneExistsForOther(ctx, u.Phone, "")
		if err != nil {
			apierr.Write(w, h.Log, err)
			return
		}
		if taken {
			apierr.Write(w, h.Log, apierr.Conflict("phone", "This phone number is already in use."))
			return
		}
	}

	hash, err := authutil.HashPassword(password)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	u.PasswordHash = hash

	created, err := h.Users.Create(ctx, u)
	if err != nil {
		apierr.Write(w, h.Log, storeErr(err))
		return
	}

	pair, err := h.Tokens.Issue(created.ID)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	h.Log.Info("user registered", zap.String("user_id", created.ID), zap.String("user_type", created.Role))
	h.Audit.Registered(ctx, r, created.ID, created.Email, created.Role)
	h.sendVerification(ctx, &created)

	apierr.WriteJSON(w, http.StatusCreated, authResponse{
		User:    newProfileView(&created),
		Tokens:  pair,
		Message: "User registered successfully",
	})
}

// HandleLogin handles POST /login/ with {"email", "password"}.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	payload, err := formutil.DecodeJSON(r, h.MaxBody)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	f := &fields{p: payload}
	email := normalize.Email(f.str("email"))
	password := f.secret("password")
	if f.err != nil {
		apierr.Write(w, h.Log, f.err)
		return
	}
	if email == "" || password == "" {
		apierr.Write(w, h.Log, apierr.Validation("", "Must include email and password."))
		return
	}

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, email); !ok {
			h.Log.Warn("login rate limited", zap.String("email", email))
			h.Audit.LoginFailedRateLimit(r.Context(), r, email)
			apierr.Write(w, h.Log, apierr.TooManyRequests(reason))
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, userstore.ErrNotFound) {
		apierr.Write(w, h.Log, err)
		return
	}
	if u == nil {
		h.Audit.LoginFailedUserNotFound(ctx, r, email)
		apierr.Write(w, h.Log, apierr.Unauthorized("Invalid email or password."))
		return
	}
	if !authutil.CheckPassword(password, u.PasswordHash) {
		h.Audit.LoginFailedWrongPassword(ctx, r, u.ID, email)
		apierr.Write(w, h.Log, apierr.Unauthorized("Invalid email or password."))
		return
	}
	if !u.IsActive {
		h.Audit.LoginFailedUserDisabled(ctx, r, u.ID, email)
		apierr.Write(w, h.Log, apierr.Unauthorized("User account is disabled."))
		return
	}

	pair, err := h.Tokens.Issue(u.ID)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	now := time.Now().UTC()
	if err := h.Users.TouchLastLogin(ctx, u.ID, now); err != nil {
		h.Log.Warn("record last login failed", zap.String("user_id", u.ID), zap.Error(err))
	} else {
		u.LastLogin = &now
	}
	if h.Limiter != nil {
		h.Limiter.ResetEmail(ctx, email)
	}
	h.Audit.LoginSuccess(ctx, r, u.ID, email)

	apierr.WriteJSON(w, http.StatusOK, authResponse{
		User:    newProfileView(u),
		Tokens:  pair,
		Message: "Login successful",
	})
}

// HandleLogout handles POST /logout/. When the body carries a refresh token
// it is blacklisted until it expires.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	payload, err := formutil.DecodeJSON(r, h.MaxBody)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	f := &fields{p: payload}
	raw := f.str("refresh")
	if f.err != nil {
		apierr.Write(w, h.Log, f.err)
		return
	}

	if raw != "" {
		claims, err := h.Tokens.Parse(raw, tokens.TypeRefresh)
		if err != nil {
			apierr.Write(w, h.Log, apierr.Validation("refresh", "Invalid token"))
			return
		}
		if u := auth.UserOrNil(r); u != nil && claims.Subject != u.ID {
			apierr.Write(w, h.Log, apierr.Validation("refresh", "Invalid token"))
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()
		if err := h.Revocations.Revoke(ctx, claims.ID, claims.Expiry()); err != nil {
			apierr.Write(w, h.Log, err)
			return
		}
	}
	if u := auth.UserOrNil(r); u != nil {
		h.Audit.Logout(r.Context(), r, u.ID)
	}
	apierr.WriteJSON(w, http.StatusOK, messageResponse{Message: "Logout successful"})
}

// HandleRefresh handles POST /token/refresh/ with {"refresh"} and returns a
// new access token. Revoked tokens and tokens of deactivated users are
// rejected.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	payload, err := formutil.DecodeJSON(r, h.MaxBody)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	f := &fields{p: payload}
	raw := f.str("refresh")
	if f.err != nil {
		apierr.Write(w, h.Log, f.err)
		return
	}
	if raw == "" {
		apierr.Write(w, h.Log, apierr.Validation("refresh", "This field is required."))
		return
	}

	claims, err := h.Tokens.Parse(raw, tokens.TypeRefresh)
	if err != nil {
		apierr.Write(w, h.Log, apierr.Unauthorized("Token is invalid or expired"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	revoked, err := h.Revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	if revoked {
		apierr.Write(w, h.Log, apierr.Unauthorized("Token is blacklisted"))
		return
	}
	u, err := h.Users.GetByID(ctx, claims.Subject)
	if err != nil || !u.IsActive {
		apierr.Write(w, h.Log, apierr.Unauthorized("user not found or inactive"))
		return
	}

	access, err := h.Tokens.Access(u.ID)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, map[string]string{"access": access})
}
