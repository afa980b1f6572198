package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	syncdomain "github.com/cs-flytbase/support-sync/internal/sync/domain"
)

type emailRepository struct {
	db *gorm.DB
}

func NewEmailRepository(db *gorm.DB) EmailRepository {
	return &emailRepository{db: db}
}

func (r *emailRepository) UpsertBatch(emails []*syncdomain.Email) (int, []string) {
	if len(emails) == 0 {
		return 0, nil
	}
	// Reuse existing row IDs so callers holding the in-memory record
	// (embedding enqueue) always point at the canonical row.
	keys := make([]string, 0, len(emails))
	for _, email := range emails {
		keys = append(keys, email.GoogleMessageID)
	}
	var existing []syncdomain.Email
	idByKey := make(map[string]string)
	if err := r.db.Select("id", "google_message_id", "created_at").
		Where("google_message_id IN ?", keys).Find(&existing).Error; err == nil {
		for _, row := range existing {
			idByKey[row.GoogleMessageID] = row.ID
		}
	}

	now := time.Now()
	for _, email := range emails {
		if id, ok := idByKey[email.GoogleMessageID]; ok {
			email.ID = id
		} else if email.ID == "" {
			email.ID = uuid.New().String()
			email.CreatedAt = now
		}
		email.UpdatedAt = now
	}
	deduped := dedupeByKey(emails, func(e *syncdomain.Email) string { return e.GoogleMessageID })
	return upsertRows(r.db, "google_message_id", deduped, func(e *syncdomain.Email) string { return e.GoogleMessageID })
}

func (r *emailRepository) MarkDeleted(userID, googleMessageID string) error {
	return r.db.Model(&syncdomain.Email{}).
		Where("user_id = ? AND google_message_id = ?", userID, googleMessageID).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"labels":     datatypes.JSON([]byte(`["DELETED"]`)),
			"updated_at": time.Now(),
		}).Error
}

func (r *emailRepository) GetByGoogleID(userID, googleMessageID string) (*syncdomain.Email, error) {
	var email syncdomain.Email
	err := r.db.Where("user_id = ? AND google_message_id = ?", userID, googleMessageID).First(&email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &email, nil
}

func (r *emailRepository) SaveEmbedding(emailID string, embedding []byte) error {
	return r.db.Model(&syncdomain.Email{}).
		Where("id = ?", emailID).
		Updates(map[string]interface{}{
			"embedding":  datatypes.JSON(embedding),
			"updated_at": time.Now(),
		}).Error
}
