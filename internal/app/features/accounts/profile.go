package accounts

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dalemusser/propertyhub/internal/app/system/apierr"
	"github.com/dalemusser/propertyhub/internal/app/system/auth"
	"github.com/dalemusser/propertyhub/internal/app/system/authutil"
	"github.com/dalemusser/propertyhub/internal/app/system/formutil"
	"github.com/dalemusser/propertyhub/internal/app/system/normalize"
	"github.com/dalemusser/propertyhub/internal/app/system/timeouts"
	"github.com/dalemusser/propertyhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.uber.org/zap"
)

// ServeProfile handles GET /profile/.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	apierr.WriteJSON(w, http.StatusOK, newProfileView(u))
}

// HandleProfileUpdate handles PUT and PATCH /profile/. Only the keys
// present in the body change. Email, username, flags and statistics are
// read-only here.
func (h *Handler) HandleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	cur, _ := auth.CurrentUser(r)
	payload, err := formutil.DecodeJSON(r, h.MaxBody)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	u := *cur
	f := &fields{p: payload}
	if f.has("first_name") {
		u.FirstName = normalize.Name(f.str("first_name"))
	}
	if f.has("last_name") {
		u.LastName = normalize.Name(f.str("last_name"))
	}
	if f.has("phone") {
		u.Phone = normalize.Phone(f.str("phone"))
	}
	if f.has("user_type") {
		u.Role = normalize.Role(f.str("user_type"))
	}
	if f.has("bio") {
		u.Bio = f.str("bio")
	}
	if f.has("location") {
		u.Location = f.str("location")
	}
	if f.has("company_name") {
		u.CompanyName = f.str("company_name")
	}
	if f.has("license_number") {
		u.LicenseNumber = f.str("license_number")
	}
	if f.has("website") {
		u.Website = f.str("website")
	}
	if f.has("preferred_contact") {
		u.PreferredContact = normalize.Enum(f.str("preferred_contact"))
	}
	u.ShowContactInfo = f.boolean("show_contact_info", u.ShowContactInfo)
	u.ReceiveMarketing = f.boolean("receive_marketing", u.ReceiveMarketing)
	if f.err != nil {
		apierr.Write(w, h.Log, f.err)
		return
	}

	switch {
	case !models.ValidRole(u.Role):
		err = apierr.Validation("user_type", `must be one of "buyer", "seller", "agent"`)
	case !models.ValidContactPreference(u.PreferredContact):
		err = apierr.Validation("preferred_contact", `must be one of "email", "phone", "both"`)
	case u.Website != "" && !urlutil.IsValidAbsHTTPURL(u.Website):
		err = apierr.Validation("website", "Enter a valid URL.")
	case markupField(&u) != "":
		err = apierr.Validation(markupField(&u), "must not contain HTML markup")
	}
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if u.Phone != "" && u.Phone != cur.Phone {
		taken, err := h.Users.PhoneExistsForOther(ctx, u.Phone, u.ID)
		if err != nil {
			apierr.Write(w, h.Log, err)
			return
		}
		if taken {
			apierr.Write(w, h.Log, apierr.Conflict("phone", "This phone number is already in use."))
			return
		}
	}

	if err := h.Users.UpdateProfile(ctx, u); err != nil {
		apierr.Write(w, h.Log, storeErr(err))
		return
	}
	updated, err := h.Users.GetByID(ctx, u.ID)
	if err != nil {
		apierr.Write(w, h.Log, storeErr(err))
		return
	}
	apierr.WriteJSON(w, http.StatusOK, newProfileView(updated))
}

// ServeExtended handles GET /profile/extended/. A missing profile row is
// created on first access.
func (h *Handler) ServeExtended(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Users.GetExtended(ctx, u.ID)
	if err != nil {
		apierr.Write(w, h.Log, storeErr(err))
		return
	}
	apierr.WriteJSON(w, http.StatusOK, newExtendedView(u, p))
}

// HandleExtendedUpdate handles PUT and PATCH /profile/extended/. The
// statistics block is read-only; preferences, social_links and
// saved_searches are replaced when present.
func (h *Handler) HandleExtendedUpdate(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	payload, err := formutil.DecodeJSON(r, h.MaxBody)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Users.GetExtended(ctx, u.ID)
	if err != nil {
		apierr.Write(w, h.Log, storeErr(err))
		return
	}

	for _, key := range []string{"preferences", "social_links"} {
		v, ok := payload[key]
		if !ok {
			continue
		}
		doc, err := h.docMap(key, v)
		if err != nil {
			apierr.Write(w, h.Log, err)
			return
		}
		if key == "preferences" {
			p.Preferences = doc
		} else {
			p.SocialLinks = doc
		}
	}
	if v, ok := payload["saved_searches"]; ok {
		list, err := h.docList("saved_searches", v)
		if err != nil {
			apierr.Write(w, h.Log, err)
			return
		}
		p.SavedSearches = list
	}

	if err := h.Users.UpdateExtended(ctx, *p); err != nil {
		apierr.Write(w, h.Log, storeErr(err))
		return
	}
	updated, err := h.Users.GetExtended(ctx, u.ID)
	if err != nil {
		apierr.Write(w, h.Log, storeErr(err))
		return
	}
	apierr.WriteJSON(w, http.StatusOK, newExtendedView(u, updated))
}

func (h *Handler) docMap(field string, v any) (models.DocMap, error) {
	if v == nil {
		return models.DocMap{}, nil
	}
	m, ok := formutil.Plain(v).(map[string]any)
	if !ok {
		return nil, apierr.Validation(field, "must be a JSON object")
	}
	doc := models.DocMap(m)
	if err := doc.Validate(h.MaxDocDepth); err != nil {
		return nil, apierr.Validation(field, fmt.Sprintf("must not nest deeper than %d levels", h.MaxDocDepth))
	}
	return doc, nil
}

func (h *Handler) docList(field string, v any) (models.DocList, error) {
	if v == nil {
		return models.DocList{}, nil
	}
	l, ok := formutil.Plain(v).([]any)
	if !ok {
		return nil, apierr.Validation(field, "must be a JSON array")
	}
	doc := models.DocList(l)
	if err := doc.Validate(h.MaxDocDepth); err != nil {
		return nil, apierr.Validation(field, fmt.Sprintf("must not nest deeper than %d levels", h.MaxDocDepth))
	}
	return doc, nil
}

// HandleChangePassword handles POST /change-password/ with
// {"current_password", "new_password", "new_password_confirm"}.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	payload, err := formutil.DecodeJSON(r, h.MaxBody)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	f := &fields{p: payload}
	current := f.secret("current_password")
	next := f.secret("new_password")
	confirm := f.secret("new_password_confirm")
	if f.err != nil {
		apierr.Write(w, h.Log, f.err)
		return
	}

	if !authutil.CheckPassword(current, u.PasswordHash) {
		apierr.Write(w, h.Log, apierr.Validation("current_password", "Current password is incorrect."))
		return
	}
	if err := h.setPassword(r.Context(), u, next, confirm); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	h.Audit.PasswordChanged(r.Context(), r, u.ID)
	apierr.WriteJSON(w, http.StatusOK, messageResponse{Message: "Password changed successfully"})
}

// setPassword validates and stores a new password for u.
func (h *Handler) setPassword(ctx context.Context, u *models.User, next, confirm string) error {
	if next == "" {
		return apierr.Validation("new_password", "This field is required.")
	}
	if next != confirm {
		return apierr.Validation("new_password_confirm", "New password and confirm password do not match.")
	}
	if err := authutil.ValidatePassword(next, u.Email, u.Username, u.FirstName, u.LastName); err != nil {
		return apierr.Validation("new_password", err.Error())
	}
	hash, err := authutil.HashPassword(next)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()
	if err := h.Users.SetPassword(ctx, u.ID, hash); err != nil {
		if errors.Is(storeErr(err), apierr.ErrNotFound) {
			return apierr.NotFound("user not found")
		}
		return err
	}
	h.Log.Info("password changed", zap.String("user_id", u.ID))
	return nil
}
