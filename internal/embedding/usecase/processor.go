package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	embeddingdomain "github.com/cs-flytbase/support-sync/internal/embedding/domain"
	embeddingrepo "github.com/cs-flytbase/support-sync/internal/embedding/repository"
	syncrepo "github.com/cs-flytbase/support-sync/internal/sync/repository"
	"github.com/cs-flytbase/support-sync/pkg/embedder"
)

const (
	defaultBatchSize = 10
	// interItemDelay paces embedding API calls inside a batch.
	interItemDelay = 100 * time.Millisecond
)

// ProcessResult summarizes one ProcessBatch call
type ProcessResult struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// Processor drains the embedding queue: embed the captured text, write
// the vector back to the source row, mark the item done. A failing
// item is marked failed with its message and never stalls the batch.
type Processor struct {
	queue    embeddingrepo.QueueRepository
	emails   syncrepo.EmailRepository
	events   syncrepo.EventRepository
	slack    syncrepo.SlackRepository
	embedder embedder.Embedder
	delay    time.Duration
}

func NewProcessor(
	queue embeddingrepo.QueueRepository,
	emails syncrepo.EmailRepository,
	events syncrepo.EventRepository,
	slack syncrepo.SlackRepository,
	emb embedder.Embedder,
) *Processor {
	return &Processor{
		queue:    queue,
		emails:   emails,
		events:   events,
		slack:    slack,
		embedder: emb,
		delay:    interItemDelay,
	}
}

func (p *Processor) ProcessBatch(ctx context.Context, batchSize int) (*ProcessResult, error) {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	items, err := p.queue.TakePending(batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to take pending items: %w", err)
	}
	if len(items) == 0 {
		return &ProcessResult{}, nil
	}

	result := &ProcessResult{}
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := p.processItem(ctx, item); err != nil {
			log.Printf("[EmbeddingQueue] item %s (%s %s) failed: %v", item.ID, item.ItemType, item.ItemID, err)
			if markErr := p.queue.MarkFailed(item.ID, err.Error()); markErr != nil {
				log.Printf("[EmbeddingQueue] failed to mark item %s failed: %v", item.ID, markErr)
			}
			result.Failed++
		} else {
			result.Processed++
		}
		if i < len(items)-1 {
			time.Sleep(p.delay)
		}
	}
	return result, nil
}

func (p *Processor) processItem(ctx context.Context, item *embeddingdomain.QueueItem) error {
	vector, err := p.embedder.Embed(ctx, item.EmbeddingText)
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}
	encoded, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("failed to encode embedding: %w", err)
	}

	switch item.ItemType {
	case embeddingdomain.ItemTypeEmail:
		err = p.emails.SaveEmbedding(item.ItemID, encoded)
	case embeddingdomain.ItemTypeCalendarEvent:
		err = p.events.SaveEmbedding(item.ItemID, encoded)
	case embeddingdomain.ItemTypeSlackMessage:
		err = p.slack.SaveMessageEmbedding(item.ItemID, encoded)
	default:
		return fmt.Errorf("unknown item type %q", item.ItemType)
	}
	if err != nil {
		return fmt.Errorf("failed to save embedding: %w", err)
	}
	return p.queue.MarkCompleted(item.ID)
}

// Stats returns the queue census, preferring the grouped query and
// falling back to a row scan.
func (p *Processor) Stats() (*embeddingdomain.QueueStats, error) {
	stats, err := p.queue.Stats()
	if err == nil {
		return stats, nil
	}
	log.Printf("[EmbeddingQueue] grouped stats query failed, scanning: %v", err)
	return p.queue.StatsByScan()
}

// Cleanup removes finished items older than retentionDays (default 7).
func (p *Processor) Cleanup(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = 7
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	deleted, err := p.queue.DeleteFinishedBefore(cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up queue: %w", err)
	}
	if deleted > 0 {
		log.Printf("[EmbeddingQueue] cleaned up %d finished items older than %d days", deleted, retentionDays)
	}
	return deleted, nil
}
