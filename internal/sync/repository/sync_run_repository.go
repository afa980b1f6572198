package repository

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	syncdomain "github.com/cs-flytbase/support-sync/internal/sync/domain"
)

type syncRunRepository struct {
	db *gorm.DB
}

func NewSyncRunRepository(db *gorm.DB) SyncRunRepository {
	return &syncRunRepository{db: db}
}

func (r *syncRunRepository) Create(run *syncdomain.SyncRun) error {
	run.ID = uuid.New().String()
	run.Status = syncdomain.SyncRunInProgress
	run.StartedAt = time.Now()
	return r.db.Create(run).Error
}

func (r *syncRunRepository) Complete(runID string, status syncdomain.SyncRunStatus, errs []string) error {
	updates := map[string]interface{}{
		"status":       status,
		"completed_at": time.Now(),
	}
	if len(errs) > 0 {
		data, err := json.Marshal(errs)
		if err == nil {
			updates["errors"] = datatypes.JSON(data)
		}
	}
	return r.db.Model(&syncdomain.SyncRun{}).Where("id = ?", runID).Updates(updates).Error
}

func (r *syncRunRepository) GetLatestByUser(userID string) (*syncdomain.SyncRun, error) {
	var run syncdomain.SyncRun
	err := r.db.Where("user_id = ?", userID).Order("started_at DESC").First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}
