package domain

import "time"

// ItemType identifies which table an embedding writes back to
type ItemType string

const (
	ItemTypeEmail         ItemType = "email"
	ItemTypeCalendarEvent ItemType = "calendar_event"
	ItemTypeSlackMessage  ItemType = "slack_message"
)

// QueueStatus is the lifecycle of a queue item
type QueueStatus string

const (
	StatusPending    QueueStatus = "pending"
	StatusProcessing QueueStatus = "processing"
	StatusCompleted  QueueStatus = "completed"
	StatusFailed     QueueStatus = "failed"
)

// QueueItem is one pending embedding job. EmbeddingText is captured at
// enqueue time so the processor never re-reads the source row.
type QueueItem struct {
	ID            string      `json:"id" gorm:"primaryKey"`
	UserID        string      `json:"user_id" gorm:"index;not null"`
	ItemType      ItemType    `json:"item_type" gorm:"index:idx_item;not null"`
	ItemID        string      `json:"item_id" gorm:"index:idx_item;not null"`
	EmbeddingText string      `json:"embedding_text" gorm:"type:text"`
	Status        QueueStatus `json:"status" gorm:"index;default:pending"`
	ErrorMessage  string      `json:"error_message,omitempty"`
	ProcessedAt   *time.Time  `json:"processed_at,omitempty"`
	CreatedAt     time.Time   `json:"created_at" gorm:"index"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func (QueueItem) TableName() string {
	return "embedding_queue"
}

// QueueStats is a per-status census of the queue
type QueueStats struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
	Total      int64 `json:"total"`
}
