package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	integrationdomain "github.com/cs-flytbase/support-sync/internal/integration/domain"
)

// integrationRepository implements IntegrationRepository
type integrationRepository struct {
	db *gorm.DB
}

func NewIntegrationRepository(db *gorm.DB) IntegrationRepository {
	return &integrationRepository{db: db}
}

func (r *integrationRepository) GetByUserAndPlatform(userID, platform string) (*integrationdomain.UserIntegration, error) {
	var integration integrationdomain.UserIntegration
	err := r.db.Where("user_id = ? AND platform = ?", userID, platform).First(&integration).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &integration, nil
}

func (r *integrationRepository) ListActiveByPlatform(platform string) ([]*integrationdomain.UserIntegration, error) {
	var integrations []*integrationdomain.UserIntegration
	err := r.db.Where("platform = ? AND is_active = ?", platform, true).Find(&integrations).Error
	if err != nil {
		return nil, err
	}
	return integrations, nil
}

func (r *integrationRepository) ListActiveUserIDs() ([]string, error) {
	var userIDs []string
	err := r.db.Model(&integrationdomain.UserIntegration{}).
		Where("is_active = ?", true).
		Distinct("user_id").
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, err
	}
	return userIDs, nil
}

func (r *integrationRepository) Upsert(integration *integrationdomain.UserIntegration) error {
	existing, err := r.GetByUserAndPlatform(integration.UserID, integration.Platform)
	if err != nil {
		return err
	}
	now := time.Now()
	if existing == nil {
		integration.ID = uuid.New().String()
		integration.CreatedAt = now
		integration.UpdatedAt = now
		return r.db.Create(integration).Error
	}
	integration.ID = existing.ID
	integration.CreatedAt = existing.CreatedAt
	integration.UpdatedAt = now
	return r.db.Save(integration).Error
}

func (r *integrationRepository) UpdateTokens(userID, platform, accessToken, refreshToken string) error {
	updates := map[string]interface{}{
		"access_token": accessToken,
		"updated_at":   time.Now(),
	}
	if refreshToken != "" {
		updates["refresh_token"] = refreshToken
	}
	return r.db.Model(&integrationdomain.UserIntegration{}).
		Where("user_id = ? AND platform = ?", userID, platform).
		Updates(updates).Error
}

func (r *integrationRepository) SetActive(userID, platform string, active bool) error {
	return r.db.Model(&integrationdomain.UserIntegration{}).
		Where("user_id = ? AND platform = ?", userID, platform).
		Updates(map[string]interface{}{"is_active": active, "updated_at": time.Now()}).Error
}

func (r *integrationRepository) TouchLastSync(userID, platform string, at time.Time) error {
	return r.db.Model(&integrationdomain.UserIntegration{}).
		Where("user_id = ? AND platform = ?", userID, platform).
		Updates(map[string]interface{}{"last_sync_at": at, "updated_at": time.Now()}).Error
}

func (r *integrationRepository) GetMetadata(userID, platform string) ([]byte, error) {
	integration, err := r.GetByUserAndPlatform(userID, platform)
	if err != nil {
		return nil, err
	}
	if integration == nil || len(integration.Metadata) == 0 {
		return nil, nil
	}
	return integration.Metadata, nil
}

func (r *integrationRepository) SaveMetadata(userID, platform string, metadata []byte) error {
	return r.db.Model(&integrationdomain.UserIntegration{}).
		Where("user_id = ? AND platform = ?", userID, platform).
		Updates(map[string]interface{}{"metadata": metadata, "updated_at": time.Now()}).Error
}
