package usecase

import (
	"context"
	"errors"

	embeddingdomain "github.com/cs-flytbase/support-sync/internal/embedding/domain"
	syncdomain "github.com/cs-flytbase/support-sync/internal/sync/domain"
	"github.com/cs-flytbase/support-sync/internal/sync/dto"
)

// ErrSyncInProgress is returned when a sync is triggered for a
// (user, source) pair that already has one running.
var ErrSyncInProgress = errors.New("sync already in progress")

// SyncMode selects full bootstrap vs cursor-driven sync
type SyncMode string

const (
	ModeFull        SyncMode = "full"
	ModeIncremental SyncMode = "incremental"
)

// SyncOptions tunes one sync run
type SyncOptions struct {
	Mode     SyncMode
	DaysBack int
}

// SourceSyncer is the common shape of all per-source sync services
type SourceSyncer interface {
	Source() string
	Sync(ctx context.Context, userID string, opts SyncOptions) (*dto.SyncResult, error)
}

// GmailProviderFactory builds a Gmail provider bound to one user's
// credentials. googleapi.Service.Gmail satisfies this.
type GmailProviderFactory func(ctx context.Context, userID, accessToken, refreshToken string, onRefresh syncdomain.TokenUpdateFunc) (syncdomain.GmailProvider, error)

// CalendarProviderFactory builds a Calendar provider the same way
type CalendarProviderFactory func(ctx context.Context, userID, accessToken, refreshToken string, onRefresh syncdomain.TokenUpdateFunc) (syncdomain.CalendarProvider, error)

// EmbeddingEnqueuer accepts embedding jobs from the sync services
type EmbeddingEnqueuer interface {
	Enqueue(item *embeddingdomain.QueueItem) error
}

// Waker nudges the embedding workers after a page of enqueues
type Waker interface {
	Wake() bool
}
