package properties

import (
	"net/http"
	"strings"

	"github.com/dalemusser/propertyhub/internal/app/system/apierr"
	"github.com/dalemusser/propertyhub/internal/app/system/auth"
	"github.com/dalemusser/propertyhub/internal/app/system/formutil"
	"github.com/dalemusser/propertyhub/internal/app/system/listings"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
)

// HandleCreate handles POST /properties/.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	payload, err := formutil.DecodeJSON(r, h.MaxBody)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	p, err := h.Listings.Create(r.Context(), auth.UserOrNil(r), payload)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	apierr.WriteJSON(w, http.StatusCreated, listings.NewView(p, true))
}

// ServeDetail handles GET /properties/{id}/. Owner fields are included for
// the owner, the creator and staff, or when ?include_owner=true.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	includeOwner := strings.EqualFold(query.Get(r, "include_owner"), "true")

	v, err := h.Listings.View(r.Context(), chi.URLParam(r, "id"), auth.UserOrNil(r), includeOwner)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, v)
}

// HandleUpdate handles PUT and PATCH /properties/{id}/. Both merge the
// present keys onto the stored listing.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	patch, err := formutil.DecodeJSON(r, h.MaxBody)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	p, err := h.Listings.Update(r.Context(), auth.UserOrNil(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, listings.NewView(p, true))
}

// HandleDelete handles DELETE /properties/{id}/.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Listings.Delete(r.Context(), auth.UserOrNil(r), chi.URLParam(r, "id")); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
