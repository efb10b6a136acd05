package repository

import (
	"time"

	"github.com/openclaw/hosted/app/models"
)

// ProvisionSuccess carries everything a successful provisioning run commits
// in a single transaction: instance activation, customer activation and the
// provisioned event.
type ProvisionSuccess struct {
	InstanceID      string
	CustomerID      string
	HetznerServerID *int64
	ServerIP        string
	ServerName      string
	SetupPassword   string
	ProvisionLog    string
	EventPayload    string
}

// InstanceListItem is an instance row joined with its owning customer for
// the admin list view.
type InstanceListItem struct {
	models.Instance
	CustomerEmail string `json:"customer_email"`
	Plan          string `json:"plan"`
}

// CustomerRepository defines customer-related database operations.
type CustomerRepository interface {
	GetByID(id string) (*models.Customer, error)
	GetByPaddleSubscriptionID(subscriptionID string) (*models.Customer, error)
	// CreateWithInstance persists a new customer, its instance and the
	// triggering event in one transaction.
	CreateWithInstance(customer *models.Customer, instance *models.Instance, event *models.Event) error
	// MarkCanceled flips the customer matching the subscription ID to
	// canceled and appends the cancellation event in one transaction. The
	// returned customer is nil when no row matched.
	MarkCanceled(subscriptionID string, eventPayload string) (*models.Customer, error)
}

// InstanceRepository defines instance-related database operations, including
// the transactional provisioning outcome commits.
type InstanceRepository interface {
	GetByID(id string) (*models.Instance, error)
	List(status string, limit, offset int) ([]InstanceListItem, int64, error)
	ListActiveWithAddress() ([]models.Instance, error)
	SetSetupPassword(instanceID, password string) error
	// MarkProvisioned commits the full success outcome atomically.
	MarkProvisioned(s ProvisionSuccess) error
	// MarkProvisionFailed commits the terminal failure outcome atomically.
	MarkProvisionFailed(instanceID, customerID, provisionLog string) error
	UpdateHealth(instanceID, healthStatus string, checkedAt time.Time) error
	UpdateStatus(instanceID, status string, event *models.Event) error
}

// EventRepository appends to the append-only event ledger.
type EventRepository interface {
	Append(event *models.Event) error
	ListByInstance(instanceID string) ([]models.Event, error)
}
