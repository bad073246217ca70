// Package users serves public user profiles and the staff-only account
// verification endpoint.
package users

import (
	"context"
	"errors"
	"net/http"

	userstore "github.com/dalemusser/propertyhub/internal/app/store/users"
	"github.com/dalemusser/propertyhub/internal/app/system/apierr"
	"github.com/dalemusser/propertyhub/internal/app/system/auditlog"
	"github.com/dalemusser/propertyhub/internal/app/system/auth"
	"github.com/dalemusser/propertyhub/internal/app/system/formutil"
	"github.com/dalemusser/propertyhub/internal/app/system/timeouts"
	"github.com/dalemusser/propertyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Store is the slice of the identity store these endpoints use.
type Store interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	SetVerified(ctx context.Context, id string, verified bool) error
}

type Handler struct {
	Users Store
	Audit *auditlog.Logger
	Log   *zap.Logger
}

func NewHandler(store Store, logger *zap.Logger) *Handler {
	return &Handler{Users: store, Log: logger}
}

// contactView lists the contact details a user has opted to show.
type contactView struct {
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Preferred string `json:"preferred,omitempty"`
}

// publicView is what anyone may see about a user.
type publicView struct {
	ID          string       `json:"id"`
	Username    string       `json:"username"`
	FullName    string       `json:"full_name"`
	UserType    string       `json:"user_type"`
	Bio         string       `json:"bio"`
	Location    string       `json:"location"`
	CompanyName string       `json:"company_name"`
	Website     string       `json:"website"`
	ContactInfo *contactView `json:"contact_info"`
	IsVerified  bool         `json:"is_verified"`
}

func newPublicView(u *models.User) publicView {
	v := publicView{
		ID:          u.ID,
		Username:    u.Username,
		FullName:    u.FullName(),
		UserType:    u.Role,
		Bio:         u.Bio,
		Location:    u.Location,
		CompanyName: u.CompanyName,
		Website:     u.Website,
		IsVerified:  u.IsVerified,
	}
	if u.ShowContactInfo {
		c := contactView{Email: u.Email, Phone: u.Phone, Preferred: u.PreferredContact}
		if c != (contactView{}) {
			v.ContactInfo = &c
		}
	}
	return v
}

// ServePublic handles GET /users/{id}/. Deactivated users are not found.
func (h *Handler) ServePublic(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.load(ctx, chi.URLParam(r, "id"))
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, newPublicView(u))
}

// HandleVerify handles POST /users/{id}/verify/. The optional body
// {"is_verified": false} revokes verification; the default grants it.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	payload, err := formutil.DecodeJSON(r, 1<<12)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	verified := true
	if v, ok := payload["is_verified"]; ok {
		if verified, err = formutil.Bool("is_verified", v); err != nil {
			apierr.Write(w, h.Log, err)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	id := chi.URLParam(r, "id")
	if err := h.Users.SetVerified(ctx, id, verified); err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			err = apierr.NotFound("user not found")
		}
		apierr.Write(w, h.Log, err)
		return
	}
	h.Log.Info("user verification changed", zap.String("user_id", id), zap.Bool("is_verified", verified))
	if actor, ok := auth.CurrentUser(r); ok {
		h.Audit.UserVerificationChanged(ctx, r, actor.ID, id, verified)
	}

	u, err := h.load(ctx, id)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, newPublicView(u))
}

func (h *Handler) load(ctx context.Context, id string) (*models.User, error) {
	u, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, userstore.ErrNotFound) || (err == nil && !u.IsActive) {
		return nil, apierr.NotFound("user not found")
	}
	return u, err
}
