package repository

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	syncdomain "github.com/cs-flytbase/support-sync/internal/sync/domain"
)

type slackRepository struct {
	db *gorm.DB
}

func NewSlackRepository(db *gorm.DB) SlackRepository {
	return &slackRepository{db: db}
}

func (r *slackRepository) UpsertChannels(channels []*syncdomain.SlackChannel) (int, []string) {
	now := time.Now()
	for _, channel := range channels {
		if channel.ID == "" {
			channel.ID = uuid.New().String()
			channel.CreatedAt = now
		}
		channel.UpdatedAt = now
	}
	deduped := dedupeByKey(channels, func(c *syncdomain.SlackChannel) string { return c.SlackChannelID })
	return upsertRows(r.db, "slack_channel_id", deduped, func(c *syncdomain.SlackChannel) string { return c.SlackChannelID })
}

func (r *slackRepository) UpsertMessages(messages []*syncdomain.SlackMessage) (int, []string) {
	if len(messages) == 0 {
		return 0, nil
	}
	msgKey := func(m *syncdomain.SlackMessage) string { return m.SlackChannelID + ":" + m.MessageTS }

	tsList := make([]string, 0, len(messages))
	for _, message := range messages {
		tsList = append(tsList, message.MessageTS)
	}
	var existing []syncdomain.SlackMessage
	idByKey := make(map[string]string)
	if err := r.db.Select("id", "slack_channel_id", "message_ts").
		Where("message_ts IN ?", tsList).Find(&existing).Error; err == nil {
		for _, row := range existing {
			idByKey[row.SlackChannelID+":"+row.MessageTS] = row.ID
		}
	}

	now := time.Now()
	for _, message := range messages {
		if id, ok := idByKey[msgKey(message)]; ok {
			message.ID = id
		} else if message.ID == "" {
			message.ID = uuid.New().String()
			message.CreatedAt = now
		}
		message.UpdatedAt = now
	}
	deduped := dedupeByKey(messages, msgKey)

	conflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "slack_channel_id"}, {Name: "message_ts"}},
		UpdateAll: true,
	}
	if err := r.db.Clauses(conflict).Create(&deduped).Error; err == nil {
		return len(deduped), nil
	}

	written := 0
	var errs []string
	for _, message := range deduped {
		if err := r.db.Clauses(conflict).Create(message).Error; err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", msgKey(message), err))
			continue
		}
		written++
	}
	return written, errs
}

func (r *slackRepository) SaveMessageEmbedding(messageID string, embedding []byte) error {
	return r.db.Model(&syncdomain.SlackMessage{}).
		Where("id = ?", messageID).
		Updates(map[string]interface{}{
			"embedding":  datatypes.JSON(embedding),
			"updated_at": time.Now(),
		}).Error
}
