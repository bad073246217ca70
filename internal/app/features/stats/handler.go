// Package stats serves the site-wide listing counts.
package stats

import (
	"net/http"

	"github.com/dalemusser/propertyhub/internal/app/system/apierr"
	"github.com/dalemusser/propertyhub/internal/app/system/listings"
	"go.uber.org/zap"
)

type Handler struct {
	Listings *listings.Service
	Log      *zap.Logger
}

func NewHandler(svc *listings.Service, logger *zap.Logger) *Handler {
	return &Handler{Listings: svc, Log: logger}
}

// Serve handles GET /stats/:
//
//	{"total_properties":3,"for_sale":2,"for_rent":1,"featured":1}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	st, err := h.Listings.Stats(r.Context())
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, st)
}
