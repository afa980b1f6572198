package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	embeddingdomain "github.com/cs-flytbase/support-sync/internal/embedding/domain"
	syncdomain "github.com/cs-flytbase/support-sync/internal/sync/domain"
)

type fakeQueueRepo struct {
	mu        sync.Mutex
	pending   []*embeddingdomain.QueueItem
	completed []string
	failed    map[string]string
	statsErr  error
	stats     embeddingdomain.QueueStats
	deleted   int64
	cutoff    time.Time
}

func newFakeQueueRepo(items ...*embeddingdomain.QueueItem) *fakeQueueRepo {
	return &fakeQueueRepo{pending: items, failed: make(map[string]string)}
}

func (f *fakeQueueRepo) Enqueue(item *embeddingdomain.QueueItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, item)
	return nil
}

func (f *fakeQueueRepo) TakePending(limit int) ([]*embeddingdomain.QueueItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit > len(f.pending) {
		limit = len(f.pending)
	}
	taken := f.pending[:limit]
	f.pending = f.pending[limit:]
	return taken, nil
}

func (f *fakeQueueRepo) MarkCompleted(itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, itemID)
	return nil
}

func (f *fakeQueueRepo) MarkFailed(itemID, errorMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed[itemID] = errorMessage
	return nil
}

func (f *fakeQueueRepo) completedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.completed)
}

func (f *fakeQueueRepo) pendingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

func (f *fakeQueueRepo) Stats() (*embeddingdomain.QueueStats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	stats := f.stats
	return &stats, nil
}

func (f *fakeQueueRepo) StatsByScan() (*embeddingdomain.QueueStats, error) {
	stats := f.stats
	return &stats, nil
}

func (f *fakeQueueRepo) DeleteFinishedBefore(cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.deleted, nil
}

type fakeEmbedder struct {
	failOn map[string]bool
	calls  []string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls = append(f.calls, text)
	if f.failOn[text] {
		return nil, errors.New("model overloaded")
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type embeddingSink struct {
	saved map[string][]byte
}

func newEmbeddingSink() *embeddingSink { return &embeddingSink{saved: make(map[string][]byte)} }

func (s *embeddingSink) SaveEmbedding(id string, embedding []byte) error {
	s.saved[id] = embedding
	return nil
}

func (s *embeddingSink) SaveMessageEmbedding(id string, embedding []byte) error {
	return s.SaveEmbedding(id, embedding)
}

func (s *embeddingSink) UpsertBatch(emails []*syncdomain.Email) (int, []string) { return 0, nil }
func (s *embeddingSink) MarkDeleted(userID, id string) error                    { return nil }
func (s *embeddingSink) GetByGoogleID(userID, id string) (*syncdomain.Email, error) {
	return nil, nil
}

type eventSink struct{ *embeddingSink }

func (s eventSink) UpsertBatch(events []*syncdomain.CalendarEvent) (int, []string) { return 0, nil }
func (s eventSink) GetByGoogleID(userID, id string) (*syncdomain.CalendarEvent, error) {
	return nil, nil
}

type slackSink struct{ *embeddingSink }

func (s slackSink) UpsertChannels(channels []*syncdomain.SlackChannel) (int, []string) { return 0, nil }
func (s slackSink) UpsertMessages(messages []*syncdomain.SlackMessage) (int, []string) { return 0, nil }

func queueItem(id string, itemType embeddingdomain.ItemType, itemID, text string) *embeddingdomain.QueueItem {
	return &embeddingdomain.QueueItem{
		ID:            id,
		UserID:        "user-1",
		ItemType:      itemType,
		ItemID:        itemID,
		EmbeddingText: text,
		Status:        embeddingdomain.StatusPending,
	}
}

func newProcessorFixture(queue *fakeQueueRepo, emb *fakeEmbedder) (*Processor, *embeddingSink, *embeddingSink, *embeddingSink) {
	emails := newEmbeddingSink()
	events := newEmbeddingSink()
	slack := newEmbeddingSink()
	processor := NewProcessor(queue, emails, eventSink{events}, slackSink{slack}, emb)
	processor.delay = 0
	return processor, emails, events, slack
}

func TestProcessBatchRoutesByItemType(t *testing.T) {
	queue := newFakeQueueRepo(
		queueItem("q1", embeddingdomain.ItemTypeEmail, "email-1", "email text"),
		queueItem("q2", embeddingdomain.ItemTypeCalendarEvent, "event-1", "event text"),
		queueItem("q3", embeddingdomain.ItemTypeSlackMessage, "msg-1", "slack text"),
	)
	processor, emails, events, slack := newProcessorFixture(queue, &fakeEmbedder{})

	result, err := processor.ProcessBatch(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Processed)
	assert.Zero(t, result.Failed)

	assert.Contains(t, emails.saved, "email-1")
	assert.Contains(t, events.saved, "event-1")
	assert.Contains(t, slack.saved, "msg-1")
	assert.ElementsMatch(t, []string{"q1", "q2", "q3"}, queue.completed)
}

func TestProcessBatchIsolatesFailures(t *testing.T) {
	queue := newFakeQueueRepo(
		queueItem("q1", embeddingdomain.ItemTypeEmail, "email-1", "good"),
		queueItem("q2", embeddingdomain.ItemTypeEmail, "email-2", "bad"),
		queueItem("q3", embeddingdomain.ItemTypeEmail, "email-3", "also good"),
	)
	emb := &fakeEmbedder{failOn: map[string]bool{"bad": true}}
	processor, emails, _, _ := newProcessorFixture(queue, emb)

	result, err := processor.ProcessBatch(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Failed)

	assert.Contains(t, emails.saved, "email-1")
	assert.Contains(t, emails.saved, "email-3")
	assert.NotContains(t, emails.saved, "email-2")
	assert.Contains(t, queue.failed["q2"], "model overloaded")
}

func TestProcessBatchUnknownTypeFails(t *testing.T) {
	queue := newFakeQueueRepo(queueItem("q1", "webpage", "page-1", "text"))
	processor, _, _, _ := newProcessorFixture(queue, &fakeEmbedder{})

	result, err := processor.ProcessBatch(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, queue.failed["q1"], "unknown item type")
}

func TestProcessBatchRespectsBatchSize(t *testing.T) {
	queue := newFakeQueueRepo(
		queueItem("q1", embeddingdomain.ItemTypeEmail, "e1", "a"),
		queueItem("q2", embeddingdomain.ItemTypeEmail, "e2", "b"),
		queueItem("q3", embeddingdomain.ItemTypeEmail, "e3", "c"),
	)
	processor, _, _, _ := newProcessorFixture(queue, &fakeEmbedder{})

	result, err := processor.ProcessBatch(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Len(t, queue.pending, 1)
}

func TestProcessBatchEmptyQueue(t *testing.T) {
	processor, _, _, _ := newProcessorFixture(newFakeQueueRepo(), &fakeEmbedder{})
	result, err := processor.ProcessBatch(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, result.Processed)
	assert.Zero(t, result.Failed)
}

func TestStatsFallsBackToScan(t *testing.T) {
	queue := newFakeQueueRepo()
	queue.stats = embeddingdomain.QueueStats{Pending: 4, Completed: 10, Total: 14}
	queue.statsErr = fmt.Errorf("group by unsupported")
	processor, _, _, _ := newProcessorFixture(queue, &fakeEmbedder{})

	stats, err := processor.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Pending)
	assert.Equal(t, int64(14), stats.Total)
}

func TestCleanupDefaultsRetention(t *testing.T) {
	queue := newFakeQueueRepo()
	queue.deleted = 12
	processor, _, _, _ := newProcessorFixture(queue, &fakeEmbedder{})

	deleted, err := processor.Cleanup(0)
	require.NoError(t, err)
	assert.Equal(t, int64(12), deleted)

	wantCutoff := time.Now().AddDate(0, 0, -7)
	assert.WithinDuration(t, wantCutoff, queue.cutoff, time.Minute)
}
