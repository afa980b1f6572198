package domain

import (
	"context"
	"time"

	"github.com/slack-go/slack"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/gmail/v1"

	"github.com/cs-flytbase/support-sync/pkg/hubspot"
)

// TokenUpdateFunc persists a refreshed OAuth token back to the
// integration record.
type TokenUpdateFunc func(token *oauth2.Token) error

// GmailProvider is the slice of the Gmail API the sync engine needs.
type GmailProvider interface {
	ListMessageIDs(ctx context.Context, query, pageToken string, pageSize int64) (ids []string, nextPageToken string, err error)
	GetMessage(ctx context.Context, id string) (*gmail.Message, error)
	ProfileHistoryID(ctx context.Context) (uint64, error)
	ListHistory(ctx context.Context, startHistoryID uint64, pageToken string) (*gmail.ListHistoryResponse, error)
}

// EventListOptions narrows an events.list call. SyncToken and the time
// window are mutually exclusive; the provider prefers the token.
type EventListOptions struct {
	TimeMin    time.Time
	TimeMax    time.Time
	SyncToken  string
	PageToken  string
	MaxResults int64
}

type CalendarProvider interface {
	ListCalendars(ctx context.Context) ([]*calendar.CalendarListEntry, error)
	ListEvents(ctx context.Context, calendarID string, opts EventListOptions) (*calendar.Events, error)
}

type HubSpotProvider interface {
	ListObjects(ctx context.Context, userID, objectType, after string, limit int) (*hubspot.Page, error)
	ListAssociations(ctx context.Context, userID, fromType, toType string, fromIDs []string) ([]hubspot.Association, error)
}

type SlackProvider interface {
	ListChannels(ctx context.Context, userID string) ([]slack.Channel, error)
	ChannelHistory(ctx context.Context, userID, channelID, oldest, cursor string) (messages []slack.Message, nextCursor string, hasMore bool, err error)
}
