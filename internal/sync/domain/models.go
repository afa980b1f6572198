package domain

import (
	"time"

	"gorm.io/datatypes"
)

// EmailType classifies a message by direction
type EmailType string

const (
	EmailTypeSent     EmailType = "sent"
	EmailTypeReceived EmailType = "received"
	EmailTypeDraft    EmailType = "draft"
)

// Email is a normalized Gmail message
type Email struct {
	ID              string         `json:"id" gorm:"primaryKey"`
	UserID          string         `json:"user_id" gorm:"index;not null"`
	CustomerID      *string        `json:"customer_id,omitempty" gorm:"index"`
	GoogleMessageID string         `json:"google_message_id" gorm:"uniqueIndex;not null"`
	ThreadID        string         `json:"thread_id" gorm:"index"`
	Subject         string         `json:"subject"`
	SenderEmail     string         `json:"sender_email" gorm:"index"`
	SenderName      string         `json:"sender_name"`
	RecipientEmails datatypes.JSON `json:"recipient_emails"`
	CcEmails        datatypes.JSON `json:"cc_emails"`
	Content         string         `json:"content" gorm:"type:text"`
	Snippet         string         `json:"snippet"`
	EmailType       EmailType      `json:"email_type" gorm:"default:received"`
	Labels          datatypes.JSON `json:"labels"`
	IsRead          bool           `json:"is_read"`
	IsDeleted       bool           `json:"is_deleted" gorm:"default:false"`
	HasAttachments  bool           `json:"has_attachments"`
	ReceivedAt      *time.Time     `json:"received_at" gorm:"index"`
	EmbeddingText   string         `json:"embedding_text" gorm:"type:text"`
	Embedding       datatypes.JSON `json:"embedding,omitempty"`
	RawData         datatypes.JSON `json:"raw_data,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// EventType classifies a calendar event
type EventType string

const (
	EventTypeMeeting   EventType = "meeting"
	EventTypeAllDay    EventType = "all-day"
	EventTypeFocusTime EventType = "focus-time"
)

// CalendarEvent is a normalized Google Calendar event
type CalendarEvent struct {
	ID               string         `json:"id" gorm:"primaryKey"`
	UserID           string         `json:"user_id" gorm:"index;not null"`
	CustomerID       *string        `json:"customer_id,omitempty" gorm:"index"`
	GoogleEventID    string         `json:"google_event_id" gorm:"uniqueIndex;not null"`
	CalendarID       string         `json:"calendar_id" gorm:"index"`
	CalendarName     string         `json:"calendar_name"`
	Summary          string         `json:"summary"`
	Description      string         `json:"description" gorm:"type:text"`
	Location         string         `json:"location"`
	StartTime        *time.Time     `json:"start_time" gorm:"index"`
	EndTime          *time.Time     `json:"end_time"`
	IsAllDay         bool           `json:"is_all_day"`
	EventType        EventType      `json:"event_type" gorm:"default:meeting"`
	Status           string         `json:"status"`
	OrganizerEmail   string         `json:"organizer_email"`
	Attendees        datatypes.JSON `json:"attendees"`
	IsRecurring      bool           `json:"is_recurring"`
	RecurringEventID string         `json:"recurring_event_id"`
	IsDeleted        bool           `json:"is_deleted" gorm:"default:false"`
	EmbeddingText    string         `json:"embedding_text" gorm:"type:text"`
	Embedding        datatypes.JSON `json:"embedding,omitempty"`
	RawData          datatypes.JSON `json:"raw_data,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// Company is a HubSpot company record
type Company struct {
	ID        string         `json:"id" gorm:"primaryKey"`
	UserID    string         `json:"user_id" gorm:"index;not null"`
	HubSpotID string         `json:"hubspot_id" gorm:"uniqueIndex;not null"`
	Name      string         `json:"name"`
	Domain    string         `json:"domain" gorm:"index"`
	Website   string         `json:"website"`
	Phone     string         `json:"phone"`
	Industry  string         `json:"industry"`
	RawData   datatypes.JSON `json:"raw_data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Contact is a HubSpot contact record
type Contact struct {
	ID        string         `json:"id" gorm:"primaryKey"`
	UserID    string         `json:"user_id" gorm:"index;not null"`
	HubSpotID string         `json:"hubspot_id" gorm:"uniqueIndex;not null"`
	Email     string         `json:"email" gorm:"index"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Phone     string         `json:"phone"`
	Company   string         `json:"company"`
	RawData   datatypes.JSON `json:"raw_data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Deal is a HubSpot deal record. Amount stays nil when the source
// property cannot be parsed as a number.
type Deal struct {
	ID          string         `json:"id" gorm:"primaryKey"`
	UserID      string         `json:"user_id" gorm:"index;not null"`
	HubSpotID   string         `json:"hubspot_id" gorm:"uniqueIndex;not null"`
	Name        string         `json:"name"`
	Amount      *float64       `json:"amount,omitempty"`
	Stage       string         `json:"stage"`
	Pipeline    string         `json:"pipeline"`
	IsClosed    bool           `json:"is_closed"`
	IsClosedWon bool           `json:"is_closed_won"`
	CloseDate   *time.Time     `json:"close_date,omitempty"`
	RawData     datatypes.JSON `json:"raw_data,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Association links two HubSpot objects (deal->company, deal->contact,
// contact->company). FromID/ToID are HubSpot-native IDs; the same pair
// can be linked under more than one association type.
type Association struct {
	ID              string    `json:"id" gorm:"primaryKey"`
	UserID          string    `json:"user_id" gorm:"index;not null"`
	FromType        string    `json:"from_type" gorm:"uniqueIndex:idx_assoc_unique;not null"`
	FromID          string    `json:"from_id" gorm:"uniqueIndex:idx_assoc_unique;not null"`
	ToType          string    `json:"to_type" gorm:"uniqueIndex:idx_assoc_unique;not null"`
	ToID            string    `json:"to_id" gorm:"uniqueIndex:idx_assoc_unique;not null"`
	AssociationType string    `json:"association_type" gorm:"uniqueIndex:idx_assoc_unique"`
	CreatedAt       time.Time `json:"created_at"`
}

func (Association) TableName() string {
	return "hubspot_associations"
}

// SlackChannel is a synced Slack conversation
type SlackChannel struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	UserID         string    `json:"user_id" gorm:"index;not null"`
	SlackChannelID string    `json:"slack_channel_id" gorm:"uniqueIndex;not null"`
	Name           string    `json:"name"`
	Topic          string    `json:"topic"`
	IsPrivate      bool      `json:"is_private"`
	MemberCount    int       `json:"member_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SlackMessage is keyed on (channel, ts); Slack timestamps are unique
// per channel and double as the incremental cursor.
type SlackMessage struct {
	ID             string         `json:"id" gorm:"primaryKey"`
	UserID         string         `json:"user_id" gorm:"index;not null"`
	SlackChannelID string         `json:"slack_channel_id" gorm:"uniqueIndex:idx_channel_ts;not null"`
	MessageTS      string         `json:"message_ts" gorm:"uniqueIndex:idx_channel_ts;not null"`
	ThreadTS       string         `json:"thread_ts"`
	SlackUserID    string         `json:"slack_user_id"`
	Text           string         `json:"text" gorm:"type:text"`
	EmbeddingText  string         `json:"embedding_text" gorm:"type:text"`
	Embedding      datatypes.JSON `json:"embedding,omitempty"`
	RawData        datatypes.JSON `json:"raw_data,omitempty"`
	SentAt         *time.Time     `json:"sent_at"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// SyncRunStatus tracks an orchestrated run
type SyncRunStatus string

const (
	SyncRunInProgress SyncRunStatus = "in_progress"
	SyncRunSuccess    SyncRunStatus = "success"
	SyncRunFailed     SyncRunStatus = "failed"
)

// SyncRun is one orchestrated sync attempt across sources
type SyncRun struct {
	ID          string         `json:"id" gorm:"primaryKey"`
	UserID      string         `json:"user_id" gorm:"index;not null"`
	SyncType    string         `json:"sync_type"`
	Status      SyncRunStatus  `json:"status" gorm:"default:in_progress"`
	Errors      datatypes.JSON `json:"errors,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}
