package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	embeddingdomain "github.com/cs-flytbase/support-sync/internal/embedding/domain"
	integrationdomain "github.com/cs-flytbase/support-sync/internal/integration/domain"
	integrationrepo "github.com/cs-flytbase/support-sync/internal/integration/repository"
	syncdomain "github.com/cs-flytbase/support-sync/internal/sync/domain"
	"github.com/cs-flytbase/support-sync/internal/sync/dto"
	syncrepo "github.com/cs-flytbase/support-sync/internal/sync/repository"
	"github.com/cs-flytbase/support-sync/pkg/apiclient"
)

// SlackSyncService syncs channels and their message history. The
// newest seen timestamp per channel is the incremental cursor; Slack
// timestamps are unique and ordered within a channel.
type SlackSyncService struct {
	integrations integrationrepo.IntegrationRepository
	cursors      syncrepo.CursorStore
	slack        syncrepo.SlackRepository
	provider     syncdomain.SlackProvider
	queue        EmbeddingEnqueuer
	waker        Waker
}

func NewSlackSyncService(
	integrations integrationrepo.IntegrationRepository,
	cursors syncrepo.CursorStore,
	slackRepo syncrepo.SlackRepository,
	provider syncdomain.SlackProvider,
	queue EmbeddingEnqueuer,
	waker Waker,
) *SlackSyncService {
	return &SlackSyncService{
		integrations: integrations,
		cursors:      cursors,
		slack:        slackRepo,
		provider:     provider,
		queue:        queue,
		waker:        waker,
	}
}

func (s *SlackSyncService) Source() string { return integrationdomain.PlatformSlack }

func (s *SlackSyncService) Sync(ctx context.Context, userID string, opts SyncOptions) (*dto.SyncResult, error) {
	if _, err := loadIntegration(s.integrations, userID, integrationdomain.PlatformSlack); err != nil {
		return nil, err
	}
	result := &dto.SyncResult{Source: integrationdomain.PlatformSlack, Mode: string(opts.Mode)}

	channels, err := s.provider.ListChannels(ctx, userID)
	if err != nil {
		deactivateOnAuthError(s.integrations, userID, integrationdomain.PlatformSlack, err)
		return result, err
	}

	var channelRows []*syncdomain.SlackChannel
	for _, channel := range channels {
		channelRows = append(channelRows, transformSlackChannel(userID, channel))
	}
	written, errs := s.slack.UpsertChannels(channelRows)
	result.Synced += written
	result.Errors = append(result.Errors, errs...)

	state, err := s.cursors.Get(userID, integrationdomain.PlatformSlack)
	if err != nil {
		return result, err
	}
	cursors := map[string]string{}
	if state != nil && opts.Mode == ModeIncremental {
		cursors = state.ChannelCursors
	}

	for _, channel := range channels {
		newest, err := s.syncChannel(ctx, userID, channel.ID, cursors[channel.ID], result)
		if err != nil {
			if apiclient.IsAuthError(err) {
				deactivateOnAuthError(s.integrations, userID, integrationdomain.PlatformSlack, err)
				return result, err
			}
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", channel.ID, err))
			continue
		}
		if newest == "" {
			continue
		}
		// Advance this channel's cursor as soon as its writes landed;
		// a later channel failing must not lose this progress.
		if err := s.cursors.Save(userID, integrationdomain.PlatformSlack, syncdomain.CursorState{
			ChannelCursors: map[string]string{channel.ID: newest},
		}); err != nil {
			log.Printf("[SlackSync] failed to save cursor for channel %s: %v", channel.ID, err)
		}
	}

	now := time.Now()
	cursor := syncdomain.CursorState{}
	if opts.Mode == ModeIncremental {
		cursor.LastIncrementalAt = &now
	} else {
		cursor.LastFullSyncAt = &now
	}
	if err := s.cursors.Save(userID, integrationdomain.PlatformSlack, cursor); err != nil {
		return result, fmt.Errorf("failed to save slack cursor: %w", err)
	}
	if touchErr := s.integrations.TouchLastSync(userID, integrationdomain.PlatformSlack, now); touchErr != nil {
		log.Printf("[SlackSync] failed to update last_sync_at for user %s: %v", userID, touchErr)
	}
	return result, nil
}

// syncChannel pages through history and returns the newest timestamp
// written, or "" when nothing new appeared.
func (s *SlackSyncService) syncChannel(ctx context.Context, userID, channelID, oldest string, result *dto.SyncResult) (string, error) {
	newest := ""
	cursor := ""
	for {
		messages, nextCursor, hasMore, err := s.provider.ChannelHistory(ctx, userID, channelID, oldest, cursor)
		if err != nil {
			return newest, err
		}

		var rows []*syncdomain.SlackMessage
		for _, msg := range messages {
			row, err := transformSlackMessage(userID, channelID, msg)
			if err != nil {
				// System messages are expected noise, not failures.
				continue
			}
			rows = append(rows, row)
			if row.MessageTS > newest {
				newest = row.MessageTS
			}
		}
		written, errs := s.slack.UpsertMessages(rows)
		result.Synced += written
		result.Errors = append(result.Errors, errs...)

		failed := failedKeys(errs)
		for _, row := range rows {
			if row.EmbeddingText == "" || failed[row.SlackChannelID+":"+row.MessageTS] {
				continue
			}
			enqueueEmbedding(s.queue, s.waker, userID, embeddingdomain.ItemTypeSlackMessage, row.ID, row.EmbeddingText)
		}

		if !hasMore || nextCursor == "" {
			return newest, nil
		}
		cursor = nextCursor
	}
}
