package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	syncdomain "github.com/cs-flytbase/support-sync/internal/sync/domain"
)

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) UpsertBatch(events []*syncdomain.CalendarEvent) (int, []string) {
	if len(events) == 0 {
		return 0, nil
	}
	keys := make([]string, 0, len(events))
	for _, event := range events {
		keys = append(keys, event.GoogleEventID)
	}
	var existing []syncdomain.CalendarEvent
	idByKey := make(map[string]string)
	if err := r.db.Select("id", "google_event_id").
		Where("google_event_id IN ?", keys).Find(&existing).Error; err == nil {
		for _, row := range existing {
			idByKey[row.GoogleEventID] = row.ID
		}
	}

	now := time.Now()
	for _, event := range events {
		if id, ok := idByKey[event.GoogleEventID]; ok {
			event.ID = id
		} else if event.ID == "" {
			event.ID = uuid.New().String()
			event.CreatedAt = now
		}
		event.UpdatedAt = now
	}
	deduped := dedupeByKey(events, func(e *syncdomain.CalendarEvent) string { return e.GoogleEventID })
	return upsertRows(r.db, "google_event_id", deduped, func(e *syncdomain.CalendarEvent) string { return e.GoogleEventID })
}

func (r *eventRepository) MarkDeleted(userID, googleEventID string) error {
	return r.db.Model(&syncdomain.CalendarEvent{}).
		Where("user_id = ? AND google_event_id = ?", userID, googleEventID).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"status":     "cancelled",
			"updated_at": time.Now(),
		}).Error
}

func (r *eventRepository) GetByGoogleID(userID, googleEventID string) (*syncdomain.CalendarEvent, error) {
	var event syncdomain.CalendarEvent
	err := r.db.Where("user_id = ? AND google_event_id = ?", userID, googleEventID).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) SaveEmbedding(eventID string, embedding []byte) error {
	return r.db.Model(&syncdomain.CalendarEvent{}).
		Where("id = ?", eventID).
		Updates(map[string]interface{}{
			"embedding":  datatypes.JSON(embedding),
			"updated_at": time.Now(),
		}).Error
}
