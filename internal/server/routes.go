package server

import (
	"placelink/internal/core/enrich"
	"placelink/internal/core/notify"
	"placelink/internal/health"
	"placelink/internal/platform/redis"

	"github.com/gofiber/fiber/v2"
)

type Dependencies struct {
	Enrich  *enrich.Handler
	Updates *notify.Handler
	Redis   *redis.Service
}

func RegisterRoutes(app *fiber.App, d Dependencies) *health.HealthHandler {
	// Health endpoints
	healthHandler := health.NewHealthHandler(d.Redis)
	app.Get("/v1/health", health.HealthLimiter(), healthHandler.HandleHealth)

	api := app.Group("/v1")

	api.Post("/enrich", d.Enrich.HandleCreate)
	api.Get("/enrich/:provider/:placeId", d.Enrich.HandleGet)

	api.Get("/updates/:requestId", d.Updates.HandleUpdates)

	return healthHandler
}
