package routers

import (
	"net/http"

	"randomchallenge/api/internal/handlers"
	"randomchallenge/api/internal/middleware"
	"randomchallenge/api/internal/models"

	"github.com/go-chi/chi/v5"
)

func ChallengeRoutes(r chi.Router, challengeHandler *handlers.ChallengeHandler, authn *middleware.Authenticator, createLimit func(http.Handler) http.Handler) {
	r.Route("/api/v1/challenges", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authn.OptionalAuth)
			r.Get("/", challengeHandler.ListChallengesHandler)
			r.Get("/random", challengeHandler.RandomChallengeHandler)
			r.Get("/{id}", challengeHandler.GetChallengeHandler)
			r.With(createLimit, middleware.ValidateRequest[*models.CreateChallengeRequest]()).Post("/", challengeHandler.CreateChallengeHandler)
		})

		r.Group(func(r chi.Router) {
			r.Use(authn.RequireAuth)
			r.With(middleware.ValidateRequest[*models.RatingRequest]()).Post("/{id}/rate", challengeHandler.RateChallengeHandler)
			r.With(middleware.ValidateRequest[*models.CompleteRequest]()).Post("/{id}/complete", challengeHandler.CompleteChallengeHandler)
			r.With(middleware.Authorize(models.RoleAdmin, models.RoleModerator), middleware.ValidateRequest[*models.UpdateChallengeRequest]()).
				Put("/{id}", challengeHandler.UpdateChallengeHandler)
			r.With(middleware.Authorize(models.RoleAdmin)).Delete("/{id}", challengeHandler.DeleteChallengeHandler)
		})
	})
}
