package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/openclaw/hosted/app/controllers"
	"github.com/openclaw/hosted/app/repository"
	"github.com/openclaw/hosted/internal/pkg/billing"
	"github.com/openclaw/hosted/internal/pkg/cache"
	"github.com/openclaw/hosted/internal/pkg/config"
	"github.com/openclaw/hosted/internal/pkg/database"
	"github.com/openclaw/hosted/internal/pkg/env"
	"github.com/openclaw/hosted/internal/pkg/health"
	"github.com/openclaw/hosted/internal/pkg/hetzner"
	"github.com/openclaw/hosted/internal/pkg/jobqueue"
	"github.com/openclaw/hosted/internal/pkg/provision"
	"github.com/openclaw/hosted/internal/pkg/router"
)

func main() {
	app, cfg := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", cfg.AppHost, cfg.AppPort))
	log.Fatal(err)
}

func NewApplication() (*fiber.App, *config.Config) {
	env.SetupEnvFile()
	cfg := config.Load()
	database.SetupDatabase(cfg)
	cache.SetupCache(cfg)
	repository.InitializeFactory(database.GetDB())
	repos := repository.GetGlobalFactory().GetRepositories()

	engine := provision.NewEngine(repos.Instance, provision.NewInvoker(cfg))
	manager := jobqueue.NewManager(cache.GetClient(), cfg.JobQueueWorkers, engine)
	manager.Start()

	controllers.Setup(controllers.Deps{
		Config:      cfg,
		Billing:     billing.NewService(repos.Customer, repos.Event, repos.Instance, manager),
		Provisioner: manager,
		Prober:      health.NewProber(repos.Instance),
		Hetzner:     hetzner.NewClient(cfg),
	})

	app := fiber.New(fiber.Config{
		AppName: "openclaw-hosted",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", monitor.New())

	// ROUTER
	router.InstallRouter(app, cfg)

	return app, cfg
}
