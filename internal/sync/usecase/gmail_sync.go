package usecase

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"google.golang.org/api/gmail/v1"

	embeddingdomain "github.com/cs-flytbase/support-sync/internal/embedding/domain"
	"github.com/cs-flytbase/support-sync/internal/identity"
	integrationdomain "github.com/cs-flytbase/support-sync/internal/integration/domain"
	integrationrepo "github.com/cs-flytbase/support-sync/internal/integration/repository"
	syncdomain "github.com/cs-flytbase/support-sync/internal/sync/domain"
	"github.com/cs-flytbase/support-sync/internal/sync/dto"
	syncrepo "github.com/cs-flytbase/support-sync/internal/sync/repository"
	"github.com/cs-flytbase/support-sync/pkg/apiclient"
)

const (
	gmailDefaultDaysBack  = 365
	gmailListPageSize     = 500
	gmailFetchBatchSize   = 25
	gmailInterBatchDelay  = 200 * time.Millisecond
	gmailFetchConcurrency = 10
)

// GmailSyncService syncs Gmail messages: a query-bounded full walk or
// a history-based delta from the stored watermark.
type GmailSyncService struct {
	integrations integrationrepo.IntegrationRepository
	cursors      syncrepo.CursorStore
	emails       syncrepo.EmailRepository
	resolver     *identity.Resolver
	providerFor  GmailProviderFactory
	queue        EmbeddingEnqueuer
	waker        Waker
	batchDelay   time.Duration
}

func NewGmailSyncService(
	integrations integrationrepo.IntegrationRepository,
	cursors syncrepo.CursorStore,
	emails syncrepo.EmailRepository,
	resolver *identity.Resolver,
	providerFor GmailProviderFactory,
	queue EmbeddingEnqueuer,
	waker Waker,
) *GmailSyncService {
	return &GmailSyncService{
		integrations: integrations,
		cursors:      cursors,
		emails:       emails,
		resolver:     resolver,
		providerFor:  providerFor,
		queue:        queue,
		waker:        waker,
		batchDelay:   gmailInterBatchDelay,
	}
}

func (s *GmailSyncService) Source() string { return integrationdomain.PlatformGmail }

func (s *GmailSyncService) Sync(ctx context.Context, userID string, opts SyncOptions) (*dto.SyncResult, error) {
	integration, err := loadIntegration(s.integrations, userID, integrationdomain.PlatformGmail)
	if err != nil {
		return nil, err
	}
	provider, err := s.providerFor(ctx, userID, integration.AccessToken, integration.RefreshToken,
		tokenPersister(s.integrations, userID, integrationdomain.PlatformGmail))
	if err != nil {
		return nil, fmt.Errorf("failed to build gmail provider: %w", err)
	}

	result, err := s.run(ctx, provider, userID, opts)
	if err != nil {
		deactivateOnAuthError(s.integrations, userID, integrationdomain.PlatformGmail, err)
		return result, err
	}
	if touchErr := s.integrations.TouchLastSync(userID, integrationdomain.PlatformGmail, time.Now()); touchErr != nil {
		log.Printf("[GmailSync] failed to update last_sync_at for user %s: %v", userID, touchErr)
	}
	return result, nil
}

func (s *GmailSyncService) run(ctx context.Context, provider syncdomain.GmailProvider, userID string, opts SyncOptions) (*dto.SyncResult, error) {
	if opts.Mode == ModeIncremental {
		state, err := s.cursors.Get(userID, integrationdomain.PlatformGmail)
		if err != nil {
			return nil, err
		}
		if state == nil || state.HistoryID == "" {
			log.Printf("[GmailSync] no history cursor for user %s, falling back to full sync", userID)
			return s.fullSync(ctx, provider, userID, opts)
		}
		result, err := s.incrementalSync(ctx, provider, userID, state.HistoryID)
		if apiclient.IsCursorInvalid(err) {
			log.Printf("[GmailSync] history cursor expired for user %s, falling back to full sync", userID)
			if clearErr := s.cursors.Clear(userID, integrationdomain.PlatformGmail); clearErr != nil {
				return nil, clearErr
			}
			return s.fullSync(ctx, provider, userID, opts)
		}
		return result, err
	}
	return s.fullSync(ctx, provider, userID, opts)
}

func (s *GmailSyncService) fullSync(ctx context.Context, provider syncdomain.GmailProvider, userID string, opts SyncOptions) (*dto.SyncResult, error) {
	daysBack := opts.DaysBack
	if daysBack <= 0 {
		daysBack = gmailDefaultDaysBack
	}
	query := fmt.Sprintf("after:%d", time.Now().AddDate(0, 0, -daysBack).Unix())
	result := &dto.SyncResult{Source: integrationdomain.PlatformGmail, Mode: string(ModeFull)}

	pageToken := ""
	for {
		ids, nextPage, err := provider.ListMessageIDs(ctx, query, pageToken, gmailListPageSize)
		if err != nil {
			return result, err
		}
		for start := 0; start < len(ids); start += gmailFetchBatchSize {
			end := start + gmailFetchBatchSize
			if end > len(ids) {
				end = len(ids)
			}
			if err := s.syncMessageBatch(ctx, provider, userID, ids[start:end], result); err != nil {
				return result, err
			}
			if end < len(ids) {
				time.Sleep(s.batchDelay)
			}
		}
		if nextPage == "" {
			break
		}
		pageToken = nextPage
	}

	// Capture the watermark only after every page landed, so the next
	// incremental run cannot skip anything written here.
	historyID, err := provider.ProfileHistoryID(ctx)
	if err != nil {
		return result, err
	}
	now := time.Now()
	err = s.cursors.Save(userID, integrationdomain.PlatformGmail, syncdomain.CursorState{
		HistoryID:      strconv.FormatUint(historyID, 10),
		LastFullSyncAt: &now,
	})
	if err != nil {
		return result, fmt.Errorf("failed to save gmail cursor: %w", err)
	}
	return result, nil
}

func (s *GmailSyncService) incrementalSync(ctx context.Context, provider syncdomain.GmailProvider, userID, historyID string) (*dto.SyncResult, error) {
	start, err := strconv.ParseUint(historyID, 10, 64)
	if err != nil {
		return nil, &apiclient.CursorInvalidError{Source: "gmail", Msg: "malformed history id"}
	}
	result := &dto.SyncResult{Source: integrationdomain.PlatformGmail, Mode: string(ModeIncremental)}

	var addedIDs []string
	var deletedIDs []string
	latest := start
	pageToken := ""
	for {
		resp, err := provider.ListHistory(ctx, start, pageToken)
		if err != nil {
			return result, err
		}
		for _, h := range resp.History {
			for _, added := range h.MessagesAdded {
				if added.Message != nil {
					addedIDs = append(addedIDs, added.Message.Id)
				}
			}
			for _, deleted := range h.MessagesDeleted {
				if deleted.Message != nil {
					deletedIDs = append(deletedIDs, deleted.Message.Id)
				}
			}
		}
		if resp.HistoryId > latest {
			latest = resp.HistoryId
		}
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	for start := 0; start < len(addedIDs); start += gmailFetchBatchSize {
		end := start + gmailFetchBatchSize
		if end > len(addedIDs) {
			end = len(addedIDs)
		}
		if err := s.syncMessageBatch(ctx, provider, userID, addedIDs[start:end], result); err != nil {
			return result, err
		}
		if end < len(addedIDs) {
			time.Sleep(s.batchDelay)
		}
	}
	for _, id := range deletedIDs {
		if err := s.emails.MarkDeleted(userID, id); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", id, err))
			continue
		}
		result.Deleted++
	}

	now := time.Now()
	err = s.cursors.Save(userID, integrationdomain.PlatformGmail, syncdomain.CursorState{
		HistoryID:         strconv.FormatUint(latest, 10),
		LastIncrementalAt: &now,
	})
	if err != nil {
		return result, fmt.Errorf("failed to save gmail cursor: %w", err)
	}
	return result, nil
}

// syncMessageBatch fetches one batch concurrently, transforms,
// resolves customers, writes, and enqueues embeddings. Per-message
// failures land in result.Errors; a provider failure aborts.
func (s *GmailSyncService) syncMessageBatch(ctx context.Context, provider syncdomain.GmailProvider, userID string, ids []string, result *dto.SyncResult) error {
	if len(ids) == 0 {
		return nil
	}

	messages := make([]*gmail.Message, len(ids))
	fetchErrs := make([]error, len(ids))
	sem := make(chan struct{}, gmailFetchConcurrency)
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			messages[i], fetchErrs[i] = provider.GetMessage(ctx, id)
		}(i, id)
	}
	wg.Wait()

	var emails []*syncdomain.Email
	for i, msg := range messages {
		if fetchErrs[i] != nil {
			if apiclient.IsAuthError(fetchErrs[i]) {
				return fetchErrs[i]
			}
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", ids[i], fetchErrs[i]))
			continue
		}
		email, err := transformGmailMessage(userID, msg)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", ids[i], err))
			continue
		}
		if counterparty := counterpartyEmail(email); counterparty != "" {
			customerID, err := s.resolver.Resolve(userID, counterparty)
			if err != nil {
				log.Printf("[GmailSync] customer resolution failed for %s: %v", counterparty, err)
			} else {
				email.CustomerID = customerID
			}
		}
		emails = append(emails, email)
	}

	written, errs := s.emails.UpsertBatch(emails)
	result.Synced += written
	result.Errors = append(result.Errors, errs...)

	failed := failedKeys(errs)
	for _, email := range emails {
		if email.EmbeddingText == "" || failed[email.GoogleMessageID] {
			continue
		}
		enqueueEmbedding(s.queue, s.waker, userID, embeddingdomain.ItemTypeEmail, email.ID, email.EmbeddingText)
	}
	return nil
}
