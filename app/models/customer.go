package models

import "time"

const (
	PlanMonthly  = "monthly"
	PlanLifetime = "lifetime"
)

const (
	CustomerStatusPending  = "pending"
	CustomerStatusActive   = "active"
	CustomerStatusCanceled = "canceled"
)

// Customer is a paying account owning zero or more hosted instances
// (practically one active instance at a time).
type Customer struct {
	ID                   string    `gorm:"type:varchar(32);primaryKey" json:"id"`
	Email                string    `gorm:"type:varchar(200);not null" json:"email"`
	Name                 string    `gorm:"type:varchar(200);default:''" json:"name"`
	PaddleSubscriptionID *string   `gorm:"type:varchar(191);uniqueIndex:ux_customers_paddle_subscription" json:"paddle_subscription_id,omitempty"`
	PaddleCustomerID     string    `gorm:"type:varchar(191);default:''" json:"paddle_customer_id"`
	Plan                 string    `gorm:"type:varchar(20);not null" json:"plan"`
	Status               string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
