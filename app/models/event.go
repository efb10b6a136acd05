package models

import "time"

// Event types recorded in the ledger.
const (
	EventProvisionRequested        = "provision_requested"
	EventProvisioned               = "provisioned"
	EventProvisionFailed           = "provision_failed"
	EventPaddleSubscriptionCreated = "paddle_subscription_created"
	EventSubscriptionCanceled      = "subscription_canceled"
	EventSubscriptionPastDue       = "subscription_past_due"
	EventInstanceSuspended         = "instance_suspended"
	EventInstanceDestroyed         = "instance_destroyed"
)

// Event is an append-only domain fact used for audit and as an idempotency
// aid. Rows are never updated or deleted.
type Event struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	InstanceID *string   `gorm:"type:varchar(32);index" json:"instance_id,omitempty"`
	CustomerID *string   `gorm:"type:varchar(32);index" json:"customer_id,omitempty"`
	EventType  string    `gorm:"type:varchar(100);not null;index" json:"event_type"`
	Payload    string    `gorm:"type:longtext" json:"payload"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
