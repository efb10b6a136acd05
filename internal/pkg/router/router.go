package router

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	redisstorage "github.com/gofiber/storage/redis"

	"github.com/openclaw/hosted/app/controllers"
	"github.com/openclaw/hosted/internal/pkg/config"
	"github.com/openclaw/hosted/internal/pkg/middleware"
)

// InstallRouter wires all HTTP routes.
func InstallRouter(app *fiber.App, cfg *config.Config) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"service": "openclaw-hosted", "status": "ok"})
	})

	cachePort, _ := strconv.Atoi(cfg.CachePort)
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Storage: redisstorage.New(redisstorage.Config{
			Host:     cfg.CacheHost,
			Port:     cachePort,
			Database: 1,
		}),
		// Throttling billing webhooks would only trigger provider-side
		// retry storms.
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/webhook/")
		},
	}))

	// Billing provider webhooks (no admin auth, signature-verified in the
	// controller)
	api.Post("/webhook/paddle", controllers.HandlePaddleWebhook)

	adminAuth := middleware.AdminAPIKeyMiddleware(cfg.AdminAPIKey)
	api.Post("/provision", adminAuth, controllers.HandleProvision)
	api.Get("/instances", adminAuth, controllers.HandleListInstances)
	api.Get("/health/:id", adminAuth, controllers.HandleHealthCheck)
	api.Post("/health-check-all", adminAuth, controllers.HandleHealthCheckAll)
	api.Post("/instances/:id/suspend", adminAuth, controllers.HandleSuspendInstance)
	api.Post("/instances/:id/destroy", adminAuth, controllers.HandleDestroyInstance)
}
