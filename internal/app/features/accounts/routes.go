// internal/app/features/accounts/routes.go
package accounts

import (
	"github.com/dalemusser/propertyhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the account endpoints. They are mounted at the API root.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)
	r.Post("/token/refresh", h.HandleRefresh)
	r.Post("/password-reset", h.HandlePasswordReset)
	r.Post("/password-reset/confirm", h.HandlePasswordResetConfirm)
	r.Get("/verify-email", h.HandleVerifyEmail)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Post("/logout", h.HandleLogout)
		pr.Get("/profile", h.ServeProfile)
		pr.Put("/profile", h.HandleProfileUpdate)
		pr.Patch("/profile", h.HandleProfileUpdate)
		pr.Get("/profile/extended", h.ServeExtended)
		pr.Put("/profile/extended", h.HandleExtendedUpdate)
		pr.Patch("/profile/extended", h.HandleExtendedUpdate)
		pr.Post("/change-password", h.HandleChangePassword)
		pr.Post("/verify-email/request", h.HandleVerifyEmailRequest)
	})

	return r
}
