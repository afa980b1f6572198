package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"google.golang.org/api/calendar/v3"

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
	calendarDefaultDaysBack = 365
	calendarFutureDays      = 250
	calendarPageSize        = 50
)

// CalendarSyncService syncs Google Calendar events with per-calendar
// sync tokens. An invalid token re-bootstraps only that calendar.
type CalendarSyncService struct {
	integrations integrationrepo.IntegrationRepository
	cursors      syncrepo.CursorStore
	events       syncrepo.EventRepository
	resolver     *identity.Resolver
	providerFor  CalendarProviderFactory
	queue        EmbeddingEnqueuer
	waker        Waker
}

func NewCalendarSyncService(
	integrations integrationrepo.IntegrationRepository,
	cursors syncrepo.CursorStore,
	events syncrepo.EventRepository,
	resolver *identity.Resolver,
	providerFor CalendarProviderFactory,
	queue EmbeddingEnqueuer,
	waker Waker,
) *CalendarSyncService {
	return &CalendarSyncService{
		integrations: integrations,
		cursors:      cursors,
		events:       events,
		resolver:     resolver,
		providerFor:  providerFor,
		queue:        queue,
		waker:        waker,
	}
}

func (s *CalendarSyncService) Source() string { return integrationdomain.PlatformCalendar }

func (s *CalendarSyncService) Sync(ctx context.Context, userID string, opts SyncOptions) (*dto.SyncResult, error) {
	integration, err := loadIntegration(s.integrations, userID, integrationdomain.PlatformCalendar)
	if err != nil {
		return nil, err
	}
	provider, err := s.providerFor(ctx, userID, integration.AccessToken, integration.RefreshToken,
		tokenPersister(s.integrations, userID, integrationdomain.PlatformCalendar))
	if err != nil {
		return nil, fmt.Errorf("failed to build calendar provider: %w", err)
	}

	calendars, err := provider.ListCalendars(ctx)
	if err != nil {
		deactivateOnAuthError(s.integrations, userID, integrationdomain.PlatformCalendar, err)
		return nil, err
	}

	state, err := s.cursors.Get(userID, integrationdomain.PlatformCalendar)
	if err != nil {
		return nil, err
	}
	tokens := map[string]string{}
	if state != nil && opts.Mode == ModeIncremental {
		tokens = state.CalendarSyncTokens
	}

	result := &dto.SyncResult{Source: integrationdomain.PlatformCalendar, Mode: string(opts.Mode)}
	newTokens := make(map[string]string)
	for _, cal := range calendars {
		token := tokens[cal.Id]
		nextToken, err := s.syncCalendar(ctx, provider, userID, cal, token, opts, result)
		if apiclient.IsCursorInvalid(err) {
			log.Printf("[CalendarSync] sync token expired for calendar %s, re-bootstrapping", cal.Id)
			nextToken, err = s.syncCalendar(ctx, provider, userID, cal, "", opts, result)
		}
		if err != nil {
			if apiclient.IsAuthError(err) {
				deactivateOnAuthError(s.integrations, userID, integrationdomain.PlatformCalendar, err)
				return result, err
			}
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", cal.Id, err))
			continue
		}
		if nextToken != "" {
			newTokens[cal.Id] = nextToken
		}
	}

	now := time.Now()
	cursor := syncdomain.CursorState{CalendarSyncTokens: newTokens}
	if opts.Mode == ModeIncremental {
		cursor.LastIncrementalAt = &now
	} else {
		cursor.LastFullSyncAt = &now
	}
	if err := s.cursors.Save(userID, integrationdomain.PlatformCalendar, cursor); err != nil {
		return result, fmt.Errorf("failed to save calendar cursor: %w", err)
	}
	if touchErr := s.integrations.TouchLastSync(userID, integrationdomain.PlatformCalendar, now); touchErr != nil {
		log.Printf("[CalendarSync] failed to update last_sync_at for user %s: %v", userID, touchErr)
	}
	return result, nil
}

// syncCalendar walks one calendar and returns the next sync token.
// With a token it runs a delta; without one it bootstraps in two
// passes, upcoming events first so the freshest data lands early.
func (s *CalendarSyncService) syncCalendar(ctx context.Context, provider syncdomain.CalendarProvider, userID string, cal *calendar.CalendarListEntry, syncToken string, opts SyncOptions, result *dto.SyncResult) (string, error) {
	if syncToken != "" {
		return s.walkEvents(ctx, provider, userID, cal, syncdomain.EventListOptions{
			SyncToken:  syncToken,
			MaxResults: calendarPageSize,
		}, result)
	}

	daysBack := opts.DaysBack
	if daysBack <= 0 {
		daysBack = calendarDefaultDaysBack
	}
	now := time.Now()

	// Pass 1: today forward.
	if _, err := s.walkEvents(ctx, provider, userID, cal, syncdomain.EventListOptions{
		TimeMin:    now,
		TimeMax:    now.AddDate(0, 0, calendarFutureDays),
		MaxResults: calendarPageSize,
	}, result); err != nil {
		return "", err
	}
	// Pass 2: history window. The token from this pass covers the
	// calendar going forward.
	return s.walkEvents(ctx, provider, userID, cal, syncdomain.EventListOptions{
		TimeMin:    now.AddDate(0, 0, -daysBack),
		TimeMax:    now,
		MaxResults: calendarPageSize,
	}, result)
}

func (s *CalendarSyncService) walkEvents(ctx context.Context, provider syncdomain.CalendarProvider, userID string, cal *calendar.CalendarListEntry, listOpts syncdomain.EventListOptions, result *dto.SyncResult) (string, error) {
	nextSyncToken := ""
	for {
		resp, err := provider.ListEvents(ctx, cal.Id, listOpts)
		if err != nil {
			return "", err
		}
		if err := s.writeEventPage(ctx, userID, cal, resp.Items, result); err != nil {
			return "", err
		}
		if resp.NextSyncToken != "" {
			nextSyncToken = resp.NextSyncToken
		}
		if resp.NextPageToken == "" {
			return nextSyncToken, nil
		}
		listOpts.PageToken = resp.NextPageToken
	}
}

func (s *CalendarSyncService) writeEventPage(ctx context.Context, userID string, cal *calendar.CalendarListEntry, items []*calendar.Event, result *dto.SyncResult) error {
	var upserts []*syncdomain.CalendarEvent
	for _, item := range items {
		if item.Status == "cancelled" {
			if err := s.events.MarkDeleted(userID, item.Id); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", item.Id, err))
				continue
			}
			result.Deleted++
			continue
		}
		event, err := transformCalendarEvent(userID, cal.Id, cal.Summary, item)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", item.Id, err))
			continue
		}
		emails := append([]string{event.OrganizerEmail}, decodeAttendees(event.Attendees)...)
		customerID, err := s.resolver.ResolveFirst(userID, emails)
		if err != nil {
			log.Printf("[CalendarSync] customer resolution failed for event %s: %v", item.Id, err)
		} else {
			event.CustomerID = customerID
		}
		upserts = append(upserts, event)
	}

	written, errs := s.events.UpsertBatch(upserts)
	result.Synced += written
	result.Errors = append(result.Errors, errs...)

	failed := failedKeys(errs)
	for _, event := range upserts {
		if event.EmbeddingText == "" || failed[event.GoogleEventID] {
			continue
		}
		enqueueEmbedding(s.queue, s.waker, userID, embeddingdomain.ItemTypeCalendarEvent, event.ID, event.EmbeddingText)
	}
	return nil
}

func decodeAttendees(raw []byte) []string {
	var emails []string
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &emails)
	}
	return emails
}
