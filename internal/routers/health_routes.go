package routers

import (
	"randomchallenge/api/internal/handlers"

	"github.com/go-chi/chi/v5"
)

func HealthRoutes(r chi.Router, healthHandler *handlers.HealthHandler) {
	r.Get("/healthz", healthHandler.HealthzHandler)
	r.Get("/readyz", healthHandler.ReadyzHandler)
}
