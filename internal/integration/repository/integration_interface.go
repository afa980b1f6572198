package repository

import (
	"time"

	integrationdomain "github.com/cs-flytbase/support-sync/internal/integration/domain"
)

// IntegrationRepository defines storage operations for provider connections
type IntegrationRepository interface {
	// GetByUserAndPlatform returns the integration or (nil, nil) when absent
	GetByUserAndPlatform(userID, platform string) (*integrationdomain.UserIntegration, error)
	// ListActiveByPlatform returns every active integration for a platform
	ListActiveByPlatform(platform string) ([]*integrationdomain.UserIntegration, error)
	// ListActiveUserIDs returns distinct users with at least one active integration
	ListActiveUserIDs() ([]string, error)
	Upsert(integration *integrationdomain.UserIntegration) error
	// UpdateTokens persists refreshed OAuth tokens
	UpdateTokens(userID, platform, accessToken, refreshToken string) error
	// SetActive flips the active flag (used when auth expires)
	SetActive(userID, platform string, active bool) error
	TouchLastSync(userID, platform string, at time.Time) error
	// GetMetadata returns the raw metadata blob, possibly nil
	GetMetadata(userID, platform string) ([]byte, error)
	// SaveMetadata replaces the metadata blob
	SaveMetadata(userID, platform string, metadata []byte) error
}
