// internal/app/features/favorites/routes.go
package favorites

import (
	"github.com/dalemusser/propertyhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router mounted at /favorites. Every endpoint requires
// a signed-in user.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/", h.ServeList)
	r.Post("/", h.HandleAdd)
	r.Delete("/{id}", h.HandleDelete)
	return r
}
