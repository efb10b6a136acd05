package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/openclaw/hosted/app/models"
)

// ErrInvalidPayload marks a webhook body that could not be interpreted; the
// caller maps it to a client error before anything is persisted.
var ErrInvalidPayload = errors.New("invalid webhook payload")

// CustomerStore is the customer persistence surface the service needs. It is
// satisfied by repository.CustomerRepository.
type CustomerStore interface {
	GetByPaddleSubscriptionID(subscriptionID string) (*models.Customer, error)
	CreateWithInstance(customer *models.Customer, instance *models.Instance, event *models.Event) error
	MarkCanceled(subscriptionID string, eventPayload string) (*models.Customer, error)
}

// EventStore appends ledger events. Satisfied by repository.EventRepository.
type EventStore interface {
	Append(event *models.Event) error
}

// InstanceStore records terminal provisioning outcomes. Satisfied by
// repository.InstanceRepository.
type InstanceStore interface {
	MarkProvisionFailed(instanceID, customerID, provisionLog string) error
}

// ProvisionTrigger hands a freshly created instance to the background
// provisioning machinery.
type ProvisionTrigger interface {
	EnqueueProvision(instanceID, customerID string) error
}

// Service translates authenticated Paddle webhook events into domain
// actions. Signature verification happens at the HTTP boundary; the service
// only sees bodies that already passed it.
type Service struct {
	customers   CustomerStore
	events      EventStore
	instances   InstanceStore
	provisioner ProvisionTrigger
}

// NewService creates a webhook interpretation service.
func NewService(customers CustomerStore, events EventStore, instances InstanceStore, provisioner ProvisionTrigger) *Service {
	return &Service{customers: customers, events: events, instances: instances, provisioner: provisioner}
}

// Result is the acknowledgement returned to the webhook sender.
type Result struct {
	Status     string `json:"status"`
	InstanceID string `json:"instance_id,omitempty"`
	EventType  string `json:"event_type,omitempty"`
}

// HandleEvent interprets one webhook delivery. Unknown event types are
// acknowledged, never rejected: billing providers emit many irrelevant event
// types and a rejection would only cause provider-side retry storms.
func (s *Service) HandleEvent(ctx context.Context, body []byte) (*Result, error) {
	var evt WebhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, ErrInvalidPayload
	}

	log.Infof("[Billing] Paddle webhook: %s", evt.EventType)

	switch evt.EventType {
	case PaddleEventSubscriptionCreated:
		return s.handleSubscriptionCreated(ctx, evt.Data)
	case PaddleEventSubscriptionCanceled:
		return s.handleSubscriptionCanceled(evt.Data)
	case PaddleEventSubscriptionPastDue:
		return s.handleSubscriptionPastDue(evt.Data)
	case PaddleEventTransactionCompleted:
		return s.handleTransactionCompleted(evt.Data)
	default:
		log.Infof("[Billing] Unhandled Paddle event: %s", evt.EventType)
		return &Result{Status: "ignored", EventType: evt.EventType}, nil
	}
}

func (s *Service) handleSubscriptionCreated(ctx context.Context, data json.RawMessage) (*Result, error) {
	var d EventData
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, ErrInvalidPayload
	}

	// Primary idempotency defense against duplicate webhook delivery; the
	// unique constraint on the subscription column is only the backstop.
	existing, err := s.customers.GetByPaddleSubscriptionID(d.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil {
		log.Infof("[Billing] Subscription %s already provisioned, skipping", d.ID)
		return &Result{Status: "already_provisioned"}, nil
	}

	customer := &models.Customer{
		ID:               models.NewID("cust"),
		Email:            CustomerEmail(&d),
		PaddleCustomerID: d.CustomerID,
		Plan:             DeterminePlan(&d),
		Status:           models.CustomerStatusPending,
	}
	if d.ID != "" {
		customer.PaddleSubscriptionID = &d.ID
	}
	instance := &models.Instance{
		ID:           models.NewID("inst"),
		CustomerID:   customer.ID,
		Status:       models.InstanceStatusProvisioning,
		HealthStatus: models.HealthStatusUnknown,
	}
	event := &models.Event{
		InstanceID: &instance.ID,
		CustomerID: &customer.ID,
		EventType:  models.EventPaddleSubscriptionCreated,
		Payload:    string(data),
	}

	if err := s.customers.CreateWithInstance(customer, instance, event); err != nil {
		return nil, err
	}

	if err := s.provisioner.EnqueueProvision(instance.ID, customer.ID); err != nil {
		log.Errorf("[Billing] Failed to enqueue provisioning for %s: %v", instance.ID, err)
		// The rows are already committed, and a webhook retry would stop at
		// the idempotency guard above without ever re-enqueuing. Record the
		// terminal failure so the instance does not sit in provisioning
		// forever with no job behind it.
		if ferr := s.instances.MarkProvisionFailed(instance.ID, customer.ID, fmt.Sprintf("failed to enqueue provisioning job: %v", err)); ferr != nil {
			log.Errorf("[Billing] Failed to mark %s failed after enqueue error: %v", instance.ID, ferr)
		}
		return nil, err
	}

	return &Result{Status: "provisioning", InstanceID: instance.ID}, nil
}

func (s *Service) handleSubscriptionCanceled(data json.RawMessage) (*Result, error) {
	var d EventData
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, ErrInvalidPayload
	}

	customer, err := s.customers.MarkCanceled(d.ID, string(data))
	if err != nil {
		return nil, err
	}
	if customer == nil {
		log.Warnf("[Billing] Cancellation for unknown subscription %s", d.ID)
	} else {
		// The instance itself is not suspended here; see the documented gap
		// around grace periods.
		log.Infof("[Billing] Subscription %s canceled for customer %s", d.ID, customer.ID)
	}
	return &Result{Status: "cancellation_noted"}, nil
}

func (s *Service) handleSubscriptionPastDue(data json.RawMessage) (*Result, error) {
	var d EventData
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, ErrInvalidPayload
	}

	log.Warnf("[Billing] Subscription %s is past due", d.ID)

	event := &models.Event{
		EventType: models.EventSubscriptionPastDue,
		Payload:   string(data),
	}
	customer, err := s.customers.GetByPaddleSubscriptionID(d.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if customer != nil {
		event.CustomerID = &customer.ID
	}
	if err := s.events.Append(event); err != nil {
		return nil, err
	}
	return &Result{Status: "past_due_noted"}, nil
}

func (s *Service) handleTransactionCompleted(data json.RawMessage) (*Result, error) {
	var d EventData
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, ErrInvalidPayload
	}

	if d.CustomData.Plan == models.PlanLifetime {
		// TODO: provision on lifetime one-time purchases (same flow as
		// subscription.created with the lifetime plan tag).
		log.Infof("[Billing] Lifetime purchase detected, provisioning for one-time transactions is not wired yet")
	}
	return &Result{Status: "transaction_noted"}, nil
}
