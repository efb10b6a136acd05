package models

import "time"

const (
	InstanceStatusProvisioning = "provisioning"
	InstanceStatusActive       = "active"
	InstanceStatusSuspended    = "suspended"
	InstanceStatusFailed       = "failed"
	InstanceStatusDestroyed    = "destroyed"
)

const (
	HealthStatusUnknown   = "unknown"
	HealthStatusHealthy   = "healthy"
	HealthStatusUnhealthy = "unhealthy"
)

// Instance is one customer's provisioned deployment on a Hetzner Cloud
// server. It is created in `provisioning` state; apart from repeated health
// updates, status transitions are one-directional:
// provisioning -> active|failed, active -> suspended|destroyed.
type Instance struct {
	ID              string     `gorm:"type:varchar(32);primaryKey" json:"id"`
	CustomerID      string     `gorm:"type:varchar(32);not null;index" json:"customer_id"`
	HetznerServerID *int64     `gorm:"default:null" json:"hetzner_server_id,omitempty"`
	ServerIP        string     `gorm:"type:varchar(45);default:''" json:"server_ip"`
	ServerName      string     `gorm:"type:varchar(200);default:''" json:"server_name"`
	SetupPassword   string     `gorm:"type:varchar(200);default:''" json:"setup_password"`
	Status          string     `gorm:"type:varchar(20);not null;default:'provisioning';index" json:"status"`
	HealthStatus    string     `gorm:"type:varchar(20);not null;default:'unknown'" json:"health_status"`
	LastHealthCheck *time.Time `gorm:"type:timestamp;default:null" json:"last_health_check,omitempty"`
	ProvisionLog    string     `gorm:"type:longtext" json:"-"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
