package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/openclaw/hosted/app/models"
)

type instanceRepository struct {
	db *gorm.DB
}

// NewInstanceRepository creates an instance repository backed by GORM.
func NewInstanceRepository(db *gorm.DB) InstanceRepository {
	return &instanceRepository{db: db}
}

func (r *instanceRepository) GetByID(id string) (*models.Instance, error) {
	var inst models.Instance
	if err := r.db.First(&inst, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &inst, nil
}

func (r *instanceRepository) List(status string, limit, offset int) ([]InstanceListItem, int64, error) {
	base := r.db.Model(&models.Instance{}).
		Select("instances.*, customers.email AS customer_email, customers.plan AS plan").
		Joins("JOIN customers ON customers.id = instances.customer_id")
	countQuery := r.db.Model(&models.Instance{})
	if status != "" {
		base = base.Where("instances.status = ?", status)
		countQuery = countQuery.Where("status = ?", status)
	}

	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []InstanceListItem
	if err := base.Order("instances.created_at DESC").
		Limit(limit).Offset(offset).
		Scan(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *instanceRepository) ListActiveWithAddress() ([]models.Instance, error) {
	var instances []models.Instance
	err := r.db.
		Where("status = ? AND server_ip <> ''", models.InstanceStatusActive).
		Find(&instances).Error
	if err != nil {
		return nil, err
	}
	return instances, nil
}

func (r *instanceRepository) SetSetupPassword(instanceID, password string) error {
	return r.db.Model(&models.Instance{}).
		Where("id = ?", instanceID).
		Update("setup_password", password).Error
}

func (r *instanceRepository) MarkProvisioned(s ProvisionSuccess) error {
	now := time.Now()
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Instance{}).
			Where("id = ?", s.InstanceID).
			Updates(map[string]any{
				"status":            models.InstanceStatusActive,
				"hetzner_server_id": s.HetznerServerID,
				"server_ip":         s.ServerIP,
				"server_name":       s.ServerName,
				"setup_password":    s.SetupPassword,
				"health_status":     models.HealthStatusHealthy,
				"last_health_check": now,
				"provision_log":     s.ProvisionLog,
			}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Customer{}).
			Where("id = ?", s.CustomerID).
			Update("status", models.CustomerStatusActive).Error; err != nil {
			return err
		}
		event := &models.Event{
			InstanceID: &s.InstanceID,
			CustomerID: &s.CustomerID,
			EventType:  models.EventProvisioned,
			Payload:    s.EventPayload,
		}
		return tx.Create(event).Error
	})
}

func (r *instanceRepository) MarkProvisionFailed(instanceID, customerID, provisionLog string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Instance{}).
			Where("id = ?", instanceID).
			Updates(map[string]any{
				"status":        models.InstanceStatusFailed,
				"provision_log": provisionLog,
			}).Error; err != nil {
			return err
		}
		event := &models.Event{
			InstanceID: &instanceID,
			CustomerID: &customerID,
			EventType:  models.EventProvisionFailed,
			Payload:    failurePayload(provisionLog),
		}
		return tx.Create(event).Error
	})
}

func (r *instanceRepository) UpdateHealth(instanceID, healthStatus string, checkedAt time.Time) error {
	return r.db.Model(&models.Instance{}).
		Where("id = ?", instanceID).
		Updates(map[string]any{
			"health_status":     healthStatus,
			"last_health_check": checkedAt,
		}).Error
}

func (r *instanceRepository) UpdateStatus(instanceID, status string, event *models.Event) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Instance{}).
			Where("id = ?", instanceID).
			Update("status", status).Error; err != nil {
			return err
		}
		if event == nil {
			return nil
		}
		return tx.Create(event).Error
	})
}
