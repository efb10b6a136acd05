package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/openclaw/hosted/internal/pkg/billing"
)

// HandlePaddleWebhook accepts Paddle billing events: verifies the signature
// when a secret is configured, then hands the raw body to the billing
// service for interpretation. Unknown event types are acknowledged with 200
// so the provider does not retry them.
func HandlePaddleWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)

	if secret := deps.Config.PaddleWebhookSecret; secret != "" {
		signature := c.Get("paddle-signature")
		if !billing.VerifyPaddleWebhookSignature(rawBody, signature, secret) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid webhook signature"})
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	result, err := deps.Billing.HandleEvent(ctx, rawBody)
	if err != nil {
		if errors.Is(err, billing.ErrInvalidPayload) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid JSON"})
		}
		log.Errorf("[Billing] Webhook handling failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Webhook handling failed"})
	}

	return c.JSON(result)
}
