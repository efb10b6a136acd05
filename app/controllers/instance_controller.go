package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/openclaw/hosted/app/models"
	"github.com/openclaw/hosted/app/repository"
	"github.com/openclaw/hosted/internal/pkg/health"
)

// InstanceResponse is one row of the admin instance list.
type InstanceResponse struct {
	InstanceID      string     `json:"instance_id"`
	CustomerID      string     `json:"customer_id"`
	CustomerEmail   string     `json:"customer_email"`
	Status          string     `json:"status"`
	ServerIP        string     `json:"server_ip,omitempty"`
	HetznerServerID *int64     `json:"hetzner_server_id,omitempty"`
	SetupURL        string     `json:"setup_url,omitempty"`
	SetupPassword   string     `json:"setup_password,omitempty"`
	Plan            string     `json:"plan"`
	CreatedAt       time.Time  `json:"created_at"`
	HealthStatus    string     `json:"health_status"`
	LastHealthCheck *time.Time `json:"last_health_check,omitempty"`
}

// HandleListInstances lists all customer instances, optionally filtered by
// status.
func HandleListInstances(c *fiber.Ctx) error {
	status := c.Query("status")
	limit := c.QueryInt("limit", 100)
	offset := c.QueryInt("offset", 0)

	repo := repository.GetGlobalFactory().GetInstanceRepository()
	items, total, err := repo.List(status, limit, offset)
	if err != nil {
		log.Errorf("[Instances] List failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to list instances"})
	}

	instances := make([]InstanceResponse, 0, len(items))
	for _, item := range items {
		resp := InstanceResponse{
			InstanceID:      item.ID,
			CustomerID:      item.CustomerID,
			CustomerEmail:   item.CustomerEmail,
			Status:          item.Status,
			ServerIP:        item.ServerIP,
			HetznerServerID: item.HetznerServerID,
			SetupPassword:   item.SetupPassword,
			Plan:            item.Plan,
			CreatedAt:       item.CreatedAt,
			HealthStatus:    item.HealthStatus,
			LastHealthCheck: item.LastHealthCheck,
		}
		if resp.HealthStatus == "" {
			resp.HealthStatus = models.HealthStatusUnknown
		}
		if item.ServerIP != "" {
			resp.SetupURL = fmt.Sprintf("http://%s:%d", item.ServerIP, health.ServicePort)
		}
		instances = append(instances, resp)
	}

	return c.JSON(fiber.Map{"instances": instances, "total": total})
}

// HandleSuspendInstance powers off a customer's server and marks the
// instance suspended. A failed Hetzner call is logged but never blocks the
// local transition; the local record is the control plane's source of truth.
func HandleSuspendInstance(c *fiber.Ctx) error {
	return transitionInstance(c, models.InstanceStatusSuspended, models.EventInstanceSuspended, func(ctx context.Context, serverID int64) error {
		return deps.Hetzner.PowerOff(ctx, serverID)
	})
}

// HandleDestroyInstance deletes a customer's server (permanent) and marks
// the instance destroyed.
func HandleDestroyInstance(c *fiber.Ctx) error {
	return transitionInstance(c, models.InstanceStatusDestroyed, models.EventInstanceDestroyed, func(ctx context.Context, serverID int64) error {
		return deps.Hetzner.DeleteServer(ctx, serverID)
	})
}

func transitionInstance(c *fiber.Ctx, status, eventType string, control func(context.Context, int64) error) error {
	instanceID := c.Params("id")

	repo := repository.GetGlobalFactory().GetInstanceRepository()
	inst, err := repo.GetByID(instanceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Instance not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Instance lookup failed"})
	}

	if inst.HetznerServerID != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := control(ctx, *inst.HetznerServerID); err != nil {
			log.Errorf("[Instances] Hetzner call failed for %s: %v", instanceID, err)
		}
	}

	payload, _ := json.Marshal(fiber.Map{"hetzner_server_id": inst.HetznerServerID})
	event := &models.Event{
		InstanceID: &inst.ID,
		CustomerID: &inst.CustomerID,
		EventType:  eventType,
		Payload:    string(payload),
	}
	if err := repo.UpdateStatus(inst.ID, status, event); err != nil {
		log.Errorf("[Instances] Failed to mark %s %s: %v", instanceID, status, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update instance"})
	}

	return c.JSON(fiber.Map{"status": status, "instance_id": instanceID})
}
