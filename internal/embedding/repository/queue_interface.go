package repository

import (
	"time"

	embeddingdomain "github.com/cs-flytbase/support-sync/internal/embedding/domain"
)

// QueueRepository defines storage operations for the embedding queue
type QueueRepository interface {
	// Enqueue inserts a pending item, replacing any previous pending
	// item for the same (item_type, item_id)
	Enqueue(item *embeddingdomain.QueueItem) error
	// TakePending returns up to limit oldest pending items, already
	// flipped to processing
	TakePending(limit int) ([]*embeddingdomain.QueueItem, error)
	MarkCompleted(itemID string) error
	MarkFailed(itemID, errorMessage string) error
	// Stats counts items per status with a grouped query; callers can
	// cross-check with StatsByScan
	Stats() (*embeddingdomain.QueueStats, error)
	// StatsByScan computes the same census by walking rows, for when
	// the grouped query is unavailable
	StatsByScan() (*embeddingdomain.QueueStats, error)
	// DeleteFinishedBefore removes completed/failed items older than
	// the cutoff, returning how many went away
	DeleteFinishedBefore(cutoff time.Time) (int64, error)
}
