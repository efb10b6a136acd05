package repository

import (
	"encoding/json"

	"gorm.io/gorm"

	"github.com/openclaw/hosted/app/models"
)

// Event payloads embed at most this many characters of the raw provisioning
// log to keep ledger rows bounded.
const logPreviewLimit = 500

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates an event repository backed by GORM.
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Append(event *models.Event) error {
	return r.db.Create(event).Error
}

func (r *eventRepository) ListByInstance(instanceID string) ([]models.Event, error) {
	var events []models.Event
	err := r.db.
		Where("instance_id = ?", instanceID).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// failurePayload renders the provision_failed event payload with a bounded
// preview of the captured log.
func failurePayload(provisionLog string) string {
	preview := provisionLog
	if runes := []rune(preview); len(runes) > logPreviewLimit {
		preview = string(runes[:logPreviewLimit])
	}
	data, err := json.Marshal(map[string]string{"log_preview": preview})
	if err != nil {
		return `{"log_preview":""}`
	}
	return string(data)
}
