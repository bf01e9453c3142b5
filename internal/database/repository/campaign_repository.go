package repository

import (
	"github.com/leadplay/campaign-services-backend/internal/models"

	"gorm.io/gorm"
)

type CampaignRepository struct {
	db *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// Create creates a new campaign
func (r *CampaignRepository) Create(campaign *models.Campaign) error {
	return r.db.Create(campaign).Error
}

// GetByID retrieves a campaign by ID
func (r *CampaignRepository) GetByID(id string) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.First(&campaign, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// GetBySlug retrieves a campaign by its public slug
func (r *CampaignRepository) GetBySlug(slug string) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.Where("slug = ?", slug).First(&campaign).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// GetByOrganizationID retrieves all campaigns for an organization
func (r *CampaignRepository) GetByOrganizationID(orgID string) ([]*models.Campaign, error) {
	var campaigns []*models.Campaign
	err := r.db.Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Find(&campaigns).Error
	return campaigns, err
}

// GetByOrganizationIDAndID retrieves a campaign scoped to its owning organization
func (r *CampaignRepository) GetByOrganizationIDAndID(orgID, campaignID string) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.Where("organization_id = ? AND id = ?", orgID, campaignID).First(&campaign).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// CheckSlugExists checks whether a campaign slug is already taken
func (r *CampaignRepository) CheckSlugExists(slug string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Campaign{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

// Update updates a campaign
func (r *CampaignRepository) Update(campaign *models.Campaign) error {
	return r.db.Save(campaign).Error
}

// UpdateStatus updates only the campaign status
func (r *CampaignRepository) UpdateStatus(id, status string) error {
	return r.db.Model(&models.Campaign{}).Where("id = ?", id).Update("status", status).Error
}

// Delete deletes a campaign
func (r *CampaignRepository) Delete(id string) error {
	return r.db.Delete(&models.Campaign{}, "id = ?", id).Error
}

// Counter updates run as atomic count = count + 1 expressions at the data
// layer; a read-modify-write from application code would race under
// concurrent participations.

// IncrementViews bumps the campaign view counter
func (r *CampaignRepository) IncrementViews(id string) error {
	return r.db.Model(&models.Campaign{}).Where("id = ?", id).
		UpdateColumn("views_count", gorm.Expr("views_count + 1")).Error
}

// IncrementParticipations bumps the campaign participation counter
func (r *CampaignRepository) IncrementParticipations(id string) error {
	return r.db.Model(&models.Campaign{}).Where("id = ?", id).
		UpdateColumn("participations_count", gorm.Expr("participations_count + 1")).Error
}

// IncrementCompletions bumps the campaign completion counter
func (r *CampaignRepository) IncrementCompletions(id string) error {
	return r.db.Model(&models.Campaign{}).Where("id = ?", id).
		UpdateColumn("completions_count", gorm.Expr("completions_count + 1")).Error
}
