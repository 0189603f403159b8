package routers

import (
	"randomchallenge/api/internal/handlers"
	"randomchallenge/api/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func StatsRoutes(r chi.Router, statsHandler *handlers.StatsHandler, authn *middleware.Authenticator) {
	r.Route("/api/v1/stats", func(r chi.Router) {
		r.Get("/general", statsHandler.GeneralStatsHandler)
		r.With(authn.RequireAuth).Get("/user", statsHandler.UserStatsHandler)
	})
}
