package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/openclaw/hosted/app/models"
)

type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a customer repository backed by GORM.
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) GetByID(id string) (*models.Customer, error) {
	var c models.Customer
	if err := r.db.First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *customerRepository) GetByPaddleSubscriptionID(subscriptionID string) (*models.Customer, error) {
	var c models.Customer
	if err := r.db.First(&c, "paddle_subscription_id = ?", subscriptionID).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *customerRepository) CreateWithInstance(customer *models.Customer, instance *models.Instance, event *models.Event) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(customer).Error; err != nil {
			return err
		}
		if err := tx.Create(instance).Error; err != nil {
			return err
		}
		return tx.Create(event).Error
	})
}

func (r *customerRepository) MarkCanceled(subscriptionID string, eventPayload string) (*models.Customer, error) {
	var c models.Customer
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&c, "paddle_subscription_id = ?", subscriptionID).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Customer{}).
			Where("id = ?", c.ID).
			Update("status", models.CustomerStatusCanceled).Error; err != nil {
			return err
		}
		c.Status = models.CustomerStatusCanceled
		event := &models.Event{
			CustomerID: &c.ID,
			EventType:  models.EventSubscriptionCanceled,
			Payload:    eventPayload,
		}
		return tx.Create(event).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
