package routers

import (
	"net/http"

	"randomchallenge/api/internal/handlers"
	"randomchallenge/api/internal/middleware"
	"randomchallenge/api/internal/models"

	"github.com/go-chi/chi/v5"
)

func AuthRoutes(r chi.Router, authHandler *handlers.AuthHandler, authn *middleware.Authenticator, authLimit func(http.Handler) http.Handler) {
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(authLimit, middleware.ValidateRequest[*models.RegisterRequest]()).Post("/register", authHandler.RegisterHandler)
		r.With(authLimit, middleware.ValidateRequest[*models.LoginRequest]()).Post("/login", authHandler.LoginHandler)

		r.Group(func(r chi.Router) {
			r.Use(authn.RequireAuth)
			r.Post("/logout", authHandler.LogoutHandler)
			r.Post("/logout-all", authHandler.LogoutAllHandler)
			r.Get("/profile", authHandler.GetProfileHandler)
			r.With(middleware.ValidateRequest[*models.UpdateProfileRequest]()).Patch("/profile", authHandler.UpdateProfileHandler)
			r.With(middleware.ValidateRequest[*models.ChangePasswordRequest]()).Post("/change-password", authHandler.ChangePasswordHandler)
		})
	})
}
