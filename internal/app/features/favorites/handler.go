// Package favorites serves the caller's saved listings.
package favorites

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	favoritestore "github.com/dalemusser/propertyhub/internal/app/store/favorites"
	"github.com/dalemusser/propertyhub/internal/app/system/apierr"
	"github.com/dalemusser/propertyhub/internal/app/system/auth"
	"github.com/dalemusser/propertyhub/internal/app/system/formutil"
	"github.com/dalemusser/propertyhub/internal/app/system/listings"
	"github.com/dalemusser/propertyhub/internal/app/system/timeouts"
	"github.com/dalemusser/propertyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Store persists favorites in the identity store.
type Store interface {
	Create(ctx context.Context, f models.FavoriteProperty) (models.FavoriteProperty, error)
	ListByUser(ctx context.Context, userID string) ([]models.FavoriteProperty, error)
	Delete(ctx context.Context, userID string, id int64) error
}

type Handler struct {
	Favorites Store
	Listings  *listings.Service
	Log       *zap.Logger
}

func NewHandler(store Store, svc *listings.Service, logger *zap.Logger) *Handler {
	return &Handler{Favorites: store, Listings: svc, Log: logger}
}

// ServeList handles GET /favorites/.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	favs, err := h.Favorites.ListByUser(ctx, u.ID)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, map[string]any{
		"count":    len(favs),
		"next":     nil,
		"previous": nil,
		"results":  favs,
	})
}

// HandleAdd handles POST /favorites/ with {"property_id"}. The listing's
// title and price are copied from the listing store at this moment.
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	payload, err := formutil.DecodeJSON(r, 1<<16)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	propertyID, err := formutil.String("property_id", payload["property_id"])
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	if propertyID == "" {
		apierr.Write(w, h.Log, apierr.Validation("property_id", "This field is required."))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	view, err := h.Listings.View(ctx, propertyID, u, false)
	if err != nil {
		if errors.Is(err, apierr.ErrNotFound) {
			err = apierr.Validation("property_id", "Property not found.")
		}
		apierr.Write(w, h.Log, err)
		return
	}

	fav, err := h.Favorites.Create(ctx, models.FavoriteProperty{
		UserID:        u.ID,
		PropertyID:    view.ID,
		PropertyTitle: view.Title,
		PropertyPrice: view.Price,
	})
	if err != nil {
		if errors.Is(err, favoritestore.ErrDuplicate) {
			err = apierr.Conflict("property_id", "Property is already in favorites.")
		}
		apierr.Write(w, h.Log, err)
		return
	}
	apierr.WriteJSON(w, http.StatusCreated, fav)
}

// HandleDelete handles DELETE /favorites/{id}/. Only the caller's own
// favorites can be removed; anything else is not found.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		apierr.Write(w, h.Log, apierr.NotFound("favorite not found"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Favorites.Delete(ctx, u.ID, id); err != nil {
		if errors.Is(err, favoritestore.ErrNotFound) {
			err = apierr.NotFound("favorite not found")
		}
		apierr.Write(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
