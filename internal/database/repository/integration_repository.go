package repository

import (
	"time"

	"github.com/leadplay/campaign-services-backend/internal/models"

	"gorm.io/gorm"
)

type IntegrationRepository struct {
	db *gorm.DB
}

func NewIntegrationRepository(db *gorm.DB) *IntegrationRepository {
	return &IntegrationRepository{db: db}
}

// Create creates a new integration
func (r *IntegrationRepository) Create(integration *models.Integration) error {
	return r.db.Create(integration).Error
}

// GetByID retrieves an integration by ID
func (r *IntegrationRepository) GetByID(id string) (*models.Integration, error) {
	var integration models.Integration
	err := r.db.First(&integration, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &integration, nil
}

// GetByOrganizationID retrieves all integrations for an organization
func (r *IntegrationRepository) GetByOrganizationID(orgID string) ([]*models.Integration, error) {
	var integrations []*models.Integration
	err := r.db.Where("organization_id = ?", orgID).
		Order("created_at ASC").
		Find(&integrations).Error
	return integrations, err
}

// GetByOrganizationIDAndProvider retrieves one provider connection for an organization
func (r *IntegrationRepository) GetByOrganizationIDAndProvider(orgID, provider string) (*models.Integration, error) {
	var integration models.Integration
	err := r.db.Where("organization_id = ? AND provider = ?", orgID, provider).First(&integration).Error
	if err != nil {
		return nil, err
	}
	return &integration, nil
}

// GetConnectedByOrganizationID retrieves the integrations eligible for fan-out
func (r *IntegrationRepository) GetConnectedByOrganizationID(orgID string) ([]*models.Integration, error) {
	var integrations []*models.Integration
	err := r.db.Where("organization_id = ? AND status IN ?", orgID,
		[]string{models.IntegrationStatusConnected, models.IntegrationStatusError}).
		Find(&integrations).Error
	return integrations, err
}

// Update updates an integration
func (r *IntegrationRepository) Update(integration *models.Integration) error {
	return r.db.Save(integration).Error
}

// UpdateStatus updates only the integration status
func (r *IntegrationRepository) UpdateStatus(id, status string) error {
	return r.db.Model(&models.Integration{}).Where("id = ?", id).Update("status", status).Error
}

// RecordSyncSuccess stamps a successful sync onto the integration
func (r *IntegrationRepository) RecordSyncSuccess(id string) error {
	now := time.Now()
	return r.db.Model(&models.Integration{}).Where("id = ?", id).Updates(map[string]interface{}{
		"last_sync_at":    &now,
		"last_sync_error": "",
		"status":          models.IntegrationStatusConnected,
	}).Error
}

// RecordSyncFailure stamps a failed sync onto the integration
func (r *IntegrationRepository) RecordSyncFailure(id, message string) error {
	now := time.Now()
	return r.db.Model(&models.Integration{}).Where("id = ?", id).Updates(map[string]interface{}{
		"last_sync_at":    &now,
		"last_sync_error": message,
		"status":          models.IntegrationStatusError,
	}).Error
}

// Delete deletes an integration
func (r *IntegrationRepository) Delete(id string) error {
	return r.db.Delete(&models.Integration{}, "id = ?", id).Error
}
