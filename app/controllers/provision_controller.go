package controllers

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/openclaw/hosted/app/models"
	"github.com/openclaw/hosted/app/repository"
)

// ProvisionRequest is the admin API body for creating a hosted instance.
type ProvisionRequest struct {
	CustomerEmail        string `json:"customer_email" validate:"required,email"`
	CustomerName         string `json:"customer_name" validate:"omitempty,max=200"`
	PaddleSubscriptionID string `json:"paddle_subscription_id" validate:"omitempty,max=191"`
	PaddleCustomerID     string `json:"paddle_customer_id" validate:"omitempty,max=191"`
	Plan                 string `json:"plan" validate:"required,oneof=monthly lifetime"`
}

// ProvisionResponse acknowledges an accepted provisioning request.
type ProvisionResponse struct {
	InstanceID            string `json:"instance_id"`
	CustomerID            string `json:"customer_id"`
	Status                string `json:"status"`
	EstimatedReadySeconds int    `json:"estimated_ready_seconds"`
}

// HandleProvision creates a new customer + instance pair and starts async
// provisioning. It returns 202 immediately; completion is observable only
// via subsequent state reads. Concurrent duplicate calls are not
// deduplicated here: this is an admin-only endpoint with a trusted caller.
func HandleProvision(c *fiber.Ctx) error {
	var req ProvisionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid JSON body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	customer := &models.Customer{
		ID:               models.NewID("cust"),
		Email:            req.CustomerEmail,
		Name:             req.CustomerName,
		PaddleCustomerID: req.PaddleCustomerID,
		Plan:             req.Plan,
		Status:           models.CustomerStatusPending,
	}
	if req.PaddleSubscriptionID != "" {
		customer.PaddleSubscriptionID = &req.PaddleSubscriptionID
	}
	instance := &models.Instance{
		ID:           models.NewID("inst"),
		CustomerID:   customer.ID,
		Status:       models.InstanceStatusProvisioning,
		HealthStatus: models.HealthStatusUnknown,
	}

	payload, _ := json.Marshal(fiber.Map{"email": req.CustomerEmail, "plan": req.Plan})
	event := &models.Event{
		InstanceID: &instance.ID,
		CustomerID: &customer.ID,
		EventType:  models.EventProvisionRequested,
		Payload:    string(payload),
	}

	repo := repository.GetGlobalFactory().GetCustomerRepository()
	if err := repo.CreateWithInstance(customer, instance, event); err != nil {
		log.Errorf("[Provision] Failed to create records: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create provisioning records"})
	}

	if err := deps.Provisioner.EnqueueProvision(instance.ID, customer.ID); err != nil {
		log.Errorf("[Provision] Failed to enqueue provisioning for %s: %v", instance.ID, err)
		// Leave a terminal record instead of a provisioning row with no job
		// behind it.
		instRepo := repository.GetGlobalFactory().GetInstanceRepository()
		if ferr := instRepo.MarkProvisionFailed(instance.ID, customer.ID, fmt.Sprintf("failed to enqueue provisioning job: %v", err)); ferr != nil {
			log.Errorf("[Provision] Failed to mark %s failed after enqueue error: %v", instance.ID, ferr)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to schedule provisioning"})
	}

	return c.Status(fiber.StatusAccepted).JSON(ProvisionResponse{
		InstanceID:            instance.ID,
		CustomerID:            customer.ID,
		Status:                models.InstanceStatusProvisioning,
		EstimatedReadySeconds: 300,
	})
}
