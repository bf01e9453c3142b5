package repository

import (
	"github.com/leadplay/campaign-services-backend/internal/models"

	"gorm.io/gorm"
)

type SyncLogRepository struct {
	db *gorm.DB
}

func NewSyncLogRepository(db *gorm.DB) *SyncLogRepository {
	return &SyncLogRepository{db: db}
}

// Create creates a new sync log entry
func (r *SyncLogRepository) Create(log *models.IntegrationSyncLog) error {
	return r.db.Create(log).Error
}

// GetByIntegrationID retrieves sync logs for an integration, newest first
func (r *SyncLogRepository) GetByIntegrationID(integrationID string, offset, limit int) ([]*models.IntegrationSyncLog, error) {
	var logs []*models.IntegrationSyncLog
	err := r.db.Where("integration_id = ?", integrationID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&logs).Error
	return logs, err
}

// CountByIntegrationID counts sync logs for an integration
func (r *SyncLogRepository) CountByIntegrationID(integrationID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.IntegrationSyncLog{}).
		Where("integration_id = ?", integrationID).
		Count(&count).Error
	return count, err
}

// GetByParticipationID retrieves sync outcomes for one participation
func (r *SyncLogRepository) GetByParticipationID(participationID string) ([]*models.IntegrationSyncLog, error) {
	var logs []*models.IntegrationSyncLog
	err := r.db.Where("participation_id = ?", participationID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}
