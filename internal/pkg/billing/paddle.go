package billing

import (
	"encoding/json"

	"github.com/openclaw/hosted/app/models"
)

// Paddle event types this control plane acts on.
const (
	PaddleEventSubscriptionCreated  = "subscription.created"
	PaddleEventSubscriptionCanceled = "subscription.canceled"
	PaddleEventSubscriptionPastDue  = "subscription.past_due"
	PaddleEventTransactionCompleted = "transaction.completed"
)

// unknownEmail is the sentinel used when a payload carries no usable address.
const unknownEmail = "unknown@unknown.com"

// WebhookEvent is the outer Paddle webhook envelope. Data is kept raw so the
// exact payload snapshot can be stored in the event ledger.
type WebhookEvent struct {
	EventType string          `json:"event_type"`
	Data      json.RawMessage `json:"data"`
}

// BillingCycle appears on recurring prices; its absence on the first item
// marks a one-time (lifetime) purchase.
type BillingCycle struct {
	Interval  string `json:"interval"`
	Frequency int    `json:"frequency"`
}

// EventData is the subset of Paddle's data object this service reads. Paddle
// sends many more fields; everything else rides along only in the raw
// payload snapshot.
type EventData struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	Customer   struct {
		Email string `json:"email"`
	} `json:"customer"`
	CustomData struct {
		Email string `json:"email"`
		Plan  string `json:"plan"`
	} `json:"custom_data"`
	Items []struct {
		Price struct {
			BillingCycle *BillingCycle `json:"billing_cycle"`
		} `json:"price"`
	} `json:"items"`
}

// CustomerEmail resolves the purchaser address: nested customer object first,
// then the custom-data fallback, then the sentinel unknown address.
func CustomerEmail(d *EventData) string {
	if d.Customer.Email != "" {
		return d.Customer.Email
	}
	if d.CustomData.Email != "" {
		return d.CustomData.Email
	}
	return unknownEmail
}

// DeterminePlan inspects the first billing item's price: no billing cycle
// means a one-time purchase (lifetime plan), a cycle means monthly.
func DeterminePlan(d *EventData) string {
	if len(d.Items) > 0 && d.Items[0].Price.BillingCycle == nil {
		return models.PlanLifetime
	}
	return models.PlanMonthly
}
