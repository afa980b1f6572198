package repository

import (
	syncdomain "github.com/cs-flytbase/support-sync/internal/sync/domain"
)

// EmailRepository stores normalized Gmail messages
type EmailRepository interface {
	// UpsertBatch writes a page of emails keyed on google_message_id.
	// Returns the written count and one error string per failed record.
	UpsertBatch(emails []*syncdomain.Email) (int, []string)
	// MarkDeleted soft-deletes by provider ID; unknown IDs are a no-op
	MarkDeleted(userID, googleMessageID string) error
	GetByGoogleID(userID, googleMessageID string) (*syncdomain.Email, error)
	// SaveEmbedding writes the vector back onto the email row
	SaveEmbedding(emailID string, embedding []byte) error
}

// EventRepository stores normalized calendar events
type EventRepository interface {
	UpsertBatch(events []*syncdomain.CalendarEvent) (int, []string)
	MarkDeleted(userID, googleEventID string) error
	GetByGoogleID(userID, googleEventID string) (*syncdomain.CalendarEvent, error)
	SaveEmbedding(eventID string, embedding []byte) error
}

// CRMRepository stores HubSpot companies, contacts, deals, and their
// associations
type CRMRepository interface {
	UpsertCompanies(companies []*syncdomain.Company) (int, []string)
	UpsertContacts(contacts []*syncdomain.Contact) (int, []string)
	UpsertDeals(deals []*syncdomain.Deal) (int, []string)
	UpsertAssociations(associations []*syncdomain.Association) (int, []string)
	// Counts reports table sizes, used to gate the association phase
	Counts(userID string) (companies, contacts, deals int64, err error)
	// ListHubSpotIDs returns all provider IDs for one object type
	ListHubSpotIDs(userID, objectType string) ([]string, error)
}

// SlackRepository stores Slack channels and messages
type SlackRepository interface {
	UpsertChannels(channels []*syncdomain.SlackChannel) (int, []string)
	UpsertMessages(messages []*syncdomain.SlackMessage) (int, []string)
	SaveMessageEmbedding(messageID string, embedding []byte) error
}

// SyncRunRepository records orchestrated run history
type SyncRunRepository interface {
	Create(run *syncdomain.SyncRun) error
	Complete(runID string, status syncdomain.SyncRunStatus, errs []string) error
	GetLatestByUser(userID string) (*syncdomain.SyncRun, error)
}

// CursorStore persists per-(user, source) incremental cursors. Save
// merges the given state onto whatever is stored; Clear drops the
// source's cursor entirely.
type CursorStore interface {
	Get(userID, source string) (*syncdomain.CursorState, error)
	Save(userID, source string, state syncdomain.CursorState) error
	Clear(userID, source string) error
}
