package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	embeddingdomain "github.com/cs-flytbase/support-sync/internal/embedding/domain"
)

type queueRepository struct {
	db *gorm.DB
}

func NewQueueRepository(db *gorm.DB) QueueRepository {
	return &queueRepository{db: db}
}

func (r *queueRepository) Enqueue(item *embeddingdomain.QueueItem) error {
	now := time.Now()
	item.ID = uuid.New().String()
	item.Status = embeddingdomain.StatusPending
	item.CreatedAt = now
	item.UpdatedAt = now
	return r.db.Transaction(func(tx *gorm.DB) error {
		// Re-syncing a record supersedes its unprocessed job.
		if err := tx.Where(
			"item_type = ? AND item_id = ? AND status = ?",
			item.ItemType, item.ItemID, embeddingdomain.StatusPending,
		).Delete(&embeddingdomain.QueueItem{}).Error; err != nil {
			return err
		}
		return tx.Create(item).Error
	})
}

func (r *queueRepository) TakePending(limit int) ([]*embeddingdomain.QueueItem, error) {
	var items []*embeddingdomain.QueueItem
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("status = ?", embeddingdomain.StatusPending).
			Order("created_at ASC").
			Limit(limit).
			Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		ids := make([]string, 0, len(items))
		for _, item := range items {
			ids = append(ids, item.ID)
		}
		if err := tx.Model(&embeddingdomain.QueueItem{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"status":     embeddingdomain.StatusProcessing,
				"updated_at": time.Now(),
			}).Error; err != nil {
			return err
		}
		for _, item := range items {
			item.Status = embeddingdomain.StatusProcessing
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *queueRepository) MarkCompleted(itemID string) error {
	now := time.Now()
	return r.db.Model(&embeddingdomain.QueueItem{}).
		Where("id = ?", itemID).
		Updates(map[string]interface{}{
			"status":       embeddingdomain.StatusCompleted,
			"processed_at": now,
			"updated_at":   now,
		}).Error
}

func (r *queueRepository) MarkFailed(itemID, errorMessage string) error {
	now := time.Now()
	return r.db.Model(&embeddingdomain.QueueItem{}).
		Where("id = ?", itemID).
		Updates(map[string]interface{}{
			"status":        embeddingdomain.StatusFailed,
			"error_message": errorMessage,
			"processed_at":  now,
			"updated_at":    now,
		}).Error
}

func (r *queueRepository) Stats() (*embeddingdomain.QueueStats, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.Model(&embeddingdomain.QueueItem{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	stats := &embeddingdomain.QueueStats{}
	for _, row := range rows {
		switch embeddingdomain.QueueStatus(row.Status) {
		case embeddingdomain.StatusPending:
			stats.Pending = row.Count
		case embeddingdomain.StatusProcessing:
			stats.Processing = row.Count
		case embeddingdomain.StatusCompleted:
			stats.Completed = row.Count
		case embeddingdomain.StatusFailed:
			stats.Failed = row.Count
		}
		stats.Total += row.Count
	}
	return stats, nil
}

func (r *queueRepository) StatsByScan() (*embeddingdomain.QueueStats, error) {
	stats := &embeddingdomain.QueueStats{}
	var items []embeddingdomain.QueueItem
	err := r.db.Select("status").FindInBatches(&items, 500, func(tx *gorm.DB, batch int) error {
		for _, item := range items {
			switch item.Status {
			case embeddingdomain.StatusPending:
				stats.Pending++
			case embeddingdomain.StatusProcessing:
				stats.Processing++
			case embeddingdomain.StatusCompleted:
				stats.Completed++
			case embeddingdomain.StatusFailed:
				stats.Failed++
			}
			stats.Total++
		}
		return nil
	}).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *queueRepository) DeleteFinishedBefore(cutoff time.Time) (int64, error) {
	result := r.db.Where(
		"status IN ? AND created_at < ?",
		[]embeddingdomain.QueueStatus{embeddingdomain.StatusCompleted, embeddingdomain.StatusFailed},
		cutoff,
	).Delete(&embeddingdomain.QueueItem{})
	return result.RowsAffected, result.Error
}
