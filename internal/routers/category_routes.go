package routers

import (
	"randomchallenge/api/internal/handlers"
	"randomchallenge/api/internal/middleware"
	"randomchallenge/api/internal/models"

	"github.com/go-chi/chi/v5"
)

func CategoryRoutes(r chi.Router, categoryHandler *handlers.CategoryHandler, authn *middleware.Authenticator) {
	r.Route("/api/v1/categories", func(r chi.Router) {
		r.Get("/", categoryHandler.ListCategoriesHandler)
		r.Get("/{id}", categoryHandler.GetCategoryHandler)

		// admin only
		r.Group(func(r chi.Router) {
			r.Use(authn.RequireAuth, middleware.Authorize(models.RoleAdmin))
			r.With(middleware.ValidateRequest[*models.CategoryRequest]()).Post("/", categoryHandler.CreateCategoryHandler)
			r.With(middleware.ValidateRequest[*models.CategoryRequest]()).Put("/{id}", categoryHandler.UpdateCategoryHandler)
			r.Delete("/{id}", categoryHandler.DeleteCategoryHandler)
		})
	})
}
