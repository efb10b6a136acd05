package controllers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/openclaw/hosted/app/models"
	"github.com/openclaw/hosted/internal/pkg/billing"
	"github.com/openclaw/hosted/internal/pkg/config"
)

type stubCustomerStore struct {
	created bool
}

func (s *stubCustomerStore) GetByPaddleSubscriptionID(string) (*models.Customer, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCustomerStore) CreateWithInstance(*models.Customer, *models.Instance, *models.Event) error {
	s.created = true
	return nil
}

func (s *stubCustomerStore) MarkCanceled(string, string) (*models.Customer, error) {
	return nil, nil
}

type stubEventStore struct{}

func (stubEventStore) Append(*models.Event) error { return nil }

type stubInstanceStore struct{}

func (stubInstanceStore) MarkProvisionFailed(string, string, string) error { return nil }

type stubTrigger struct {
	enqueued bool
}

func (s *stubTrigger) EnqueueProvision(string, string) error {
	s.enqueued = true
	return nil
}

func webhookTestApp(secret string) (*fiber.App, *stubCustomerStore, *stubTrigger) {
	customers := &stubCustomerStore{}
	trigger := &stubTrigger{}
	Setup(Deps{
		Config:  &config.Config{PaddleWebhookSecret: secret},
		Billing: billing.NewService(customers, stubEventStore{}, stubInstanceStore{}, trigger),
	})

	app := fiber.New()
	app.Post("/api/webhook/paddle", HandlePaddleWebhook)
	return app, customers, trigger
}

func paddleSign(secret, ts, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + ":" + body))
	return fmt.Sprintf("ts=%s;h1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

const createdBody = `{"event_type":"subscription.created","data":{"id":"sub_w1","customer":{"email":"a@b.c"},"items":[{"price":{"billing_cycle":{"interval":"month","frequency":1}}}]}}`

func TestHandlePaddleWebhook_ValidSignature(t *testing.T) {
	app, customers, trigger := webhookTestApp("whsec_x")

	req := httptest.NewRequest("POST", "/api/webhook/paddle", strings.NewReader(createdBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Paddle-Signature", paddleSign("whsec_x", "1725148800", createdBody))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result billing.Result
	body, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, "provisioning", result.Status)
	assert.NotEmpty(t, result.InstanceID)
	assert.True(t, customers.created)
	assert.True(t, trigger.enqueued)
}

func TestHandlePaddleWebhook_InvalidSignature(t *testing.T) {
	app, customers, trigger := webhookTestApp("whsec_x")

	req := httptest.NewRequest("POST", "/api/webhook/paddle", strings.NewReader(createdBody))
	req.Header.Set("Paddle-Signature", paddleSign("whsec_wrong", "1725148800", createdBody))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.False(t, customers.created, "rejected delivery must have no side effects")
	assert.False(t, trigger.enqueued)
}

func TestHandlePaddleWebhook_MissingSignature(t *testing.T) {
	app, _, _ := webhookTestApp("whsec_x")

	req := httptest.NewRequest("POST", "/api/webhook/paddle", strings.NewReader(createdBody))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestHandlePaddleWebhook_NoSecretSkipsVerification(t *testing.T) {
	app, customers, _ := webhookTestApp("")

	req := httptest.NewRequest("POST", "/api/webhook/paddle", strings.NewReader(createdBody))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, customers.created)
}

func TestHandlePaddleWebhook_MalformedBody(t *testing.T) {
	app, _, _ := webhookTestApp("whsec_x")

	body := "{not json"
	req := httptest.NewRequest("POST", "/api/webhook/paddle", strings.NewReader(body))
	req.Header.Set("Paddle-Signature", paddleSign("whsec_x", "1725148800", body))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
