package usecase

import (
	"fmt"
	"log"
	"strings"

	"golang.org/x/oauth2"

	embeddingdomain "github.com/cs-flytbase/support-sync/internal/embedding/domain"
	integrationdomain "github.com/cs-flytbase/support-sync/internal/integration/domain"
	integrationrepo "github.com/cs-flytbase/support-sync/internal/integration/repository"
	syncdomain "github.com/cs-flytbase/support-sync/internal/sync/domain"
	"github.com/cs-flytbase/support-sync/pkg/apiclient"
)

// loadIntegration fetches an active integration or ErrNoCredentials.
func loadIntegration(integrations integrationrepo.IntegrationRepository, userID, platform string) (*integrationdomain.UserIntegration, error) {
	integration, err := integrations.GetByUserAndPlatform(userID, platform)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s integration: %w", platform, err)
	}
	if integration == nil || !integration.IsActive {
		return nil, apiclient.ErrNoCredentials
	}
	return integration, nil
}

// tokenPersister returns the refresh callback that writes renewed
// OAuth tokens back onto the integration row.
func tokenPersister(integrations integrationrepo.IntegrationRepository, userID, platform string) syncdomain.TokenUpdateFunc {
	return func(token *oauth2.Token) error {
		return integrations.UpdateTokens(userID, platform, token.AccessToken, token.RefreshToken)
	}
}

// deactivateOnAuthError flags the integration inactive when a provider
// rejected our credentials, so the sweep stops hammering it.
func deactivateOnAuthError(integrations integrationrepo.IntegrationRepository, userID, platform string, err error) {
	if !apiclient.IsAuthError(err) {
		return
	}
	log.Printf("[Sync] %s auth expired for user %s, deactivating integration", platform, userID)
	if dbErr := integrations.SetActive(userID, platform, false); dbErr != nil {
		log.Printf("[Sync] failed to deactivate %s integration for user %s: %v", platform, userID, dbErr)
	}
}

// failedKeys extracts the record keys out of upsert error strings,
// which are always "key: message". The separator is colon-space, not a
// bare colon; Slack message keys contain a colon themselves.
func failedKeys(errs []string) map[string]bool {
	failed := make(map[string]bool, len(errs))
	for _, e := range errs {
		if i := strings.Index(e, ": "); i > 0 {
			failed[e[:i]] = true
		}
	}
	return failed
}

// enqueueEmbedding queues a job and wakes the workers. Queue failures
// are logged, not fatal: the record itself already landed.
func enqueueEmbedding(queue EmbeddingEnqueuer, waker Waker, userID string, itemType embeddingdomain.ItemType, itemID, text string) {
	if queue == nil || text == "" {
		return
	}
	item := &embeddingdomain.QueueItem{
		UserID:        userID,
		ItemType:      itemType,
		ItemID:        itemID,
		EmbeddingText: text,
	}
	if err := queue.Enqueue(item); err != nil {
		log.Printf("[Sync] failed to enqueue embedding for %s %s: %v", itemType, itemID, err)
		return
	}
	if waker != nil {
		waker.Wake()
	}
}
