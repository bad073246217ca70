// internal/app/features/users/routes.go
package users

import (
	"github.com/dalemusser/propertyhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router mounted at /users.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{id}", h.ServePublic)
	r.With(auth.RequireStaff).Post("/{id}/verify", h.HandleVerify)
	return r
}
