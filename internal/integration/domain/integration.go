package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Platform names match the provider keys used for rate limiting.
const (
	PlatformGmail    = "gmail"
	PlatformCalendar = "calendar"
	PlatformHubSpot  = "hubspot"
	PlatformSlack    = "slack"
)

// UserIntegration holds one user's connection to a provider: OAuth
// tokens (or API key reference), activity flag, and a metadata blob
// that carries the sync cursor among other provider settings.
type UserIntegration struct {
	ID           string         `json:"id" gorm:"primaryKey"`
	UserID       string         `json:"user_id" gorm:"index:idx_user_platform;uniqueIndex:idx_user_platform_unique;not null"`
	Platform     string         `json:"platform" gorm:"index:idx_user_platform;uniqueIndex:idx_user_platform_unique;not null"`
	AccessToken  string         `json:"-"`
	RefreshToken string         `json:"-"`
	IsActive     bool           `json:"is_active" gorm:"default:true"`
	LastSyncAt   *time.Time     `json:"last_sync_at,omitempty"`
	Metadata     datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (UserIntegration) TableName() string {
	return "user_integrations"
}
