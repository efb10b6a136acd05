package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/openclaw/hosted/app/models"
	"github.com/openclaw/hosted/app/repository"
)

// HealthResponse reports reachability of one instance's service endpoint.
type HealthResponse struct {
	InstanceID       string     `json:"instance_id"`
	Status           string     `json:"status"`
	GatewayReachable bool       `json:"gateway_reachable"`
	LastChecked      *time.Time `json:"last_checked,omitempty"`
}

// HandleHealthCheck probes a single instance on demand. Instances that are
// not active or have no recorded address short-circuit to unreachable
// without a network call.
func HandleHealthCheck(c *fiber.Ctx) error {
	instanceID := c.Params("id")

	repo := repository.GetGlobalFactory().GetInstanceRepository()
	inst, err := repo.GetByID(instanceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Instance not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Instance lookup failed"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	healthy, probed := deps.Prober.CheckInstance(ctx, inst)
	if !probed {
		return c.JSON(HealthResponse{
			InstanceID:       instanceID,
			Status:           inst.Status,
			GatewayReachable: false,
			LastChecked:      inst.LastHealthCheck,
		})
	}

	status := models.HealthStatusUnhealthy
	if healthy {
		status = models.HealthStatusHealthy
	}
	now := time.Now()
	return c.JSON(HealthResponse{
		InstanceID:       instanceID,
		Status:           status,
		GatewayReachable: healthy,
		LastChecked:      &now,
	})
}

// HandleHealthCheckAll sweeps every active instance with a known address.
// Meant to be triggered by an external cron, every few minutes.
func HandleHealthCheckAll(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	summary, err := deps.Prober.SweepActive(ctx)
	if err != nil {
		log.Errorf("[Health] Sweep failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Health sweep failed"})
	}
	return c.JSON(summary)
}
