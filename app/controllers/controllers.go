package controllers

import (
	"github.com/go-playground/validator/v10"

	"github.com/openclaw/hosted/internal/pkg/billing"
	"github.com/openclaw/hosted/internal/pkg/config"
	"github.com/openclaw/hosted/internal/pkg/health"
	"github.com/openclaw/hosted/internal/pkg/hetzner"
)

// Deps bundles everything the HTTP handlers need. Wired once at startup.
type Deps struct {
	Config      *config.Config
	Billing     *billing.Service
	Provisioner billing.ProvisionTrigger
	Prober      *health.Prober
	Hetzner     *hetzner.Client
}

var deps Deps

var validate = validator.New()

// Setup injects the controller dependencies. Must be called before any route
// is served.
func Setup(d Deps) {
	deps = d
}
