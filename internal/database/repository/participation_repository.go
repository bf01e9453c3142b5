package repository

import (
	"github.com/leadplay/campaign-services-backend/internal/models"

	"gorm.io/gorm"
)

type ParticipationRepository struct {
	db *gorm.DB
}

func NewParticipationRepository(db *gorm.DB) *ParticipationRepository {
	return &ParticipationRepository{db: db}
}

// Create creates a new participation
func (r *ParticipationRepository) Create(participation *models.Participation) error {
	return r.db.Create(participation).Error
}

// GetByID retrieves a participation by ID
func (r *ParticipationRepository) GetByID(id string) (*models.Participation, error) {
	var participation models.Participation
	err := r.db.First(&participation, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &participation, nil
}

// GetByAttemptID retrieves a participation by its attempt identifier
func (r *ParticipationRepository) GetByAttemptID(attemptID string) (*models.Participation, error) {
	var participation models.Participation
	err := r.db.Where("attempt_id = ?", attemptID).First(&participation).Error
	if err != nil {
		return nil, err
	}
	return &participation, nil
}

// GetByCampaignID retrieves participations for a campaign, newest first
func (r *ParticipationRepository) GetByCampaignID(campaignID string, offset, limit int) ([]*models.Participation, error) {
	var participations []*models.Participation
	err := r.db.Where("campaign_id = ?", campaignID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&participations).Error
	return participations, err
}

// GetAllByCampaignID retrieves every participation for a campaign (export path)
func (r *ParticipationRepository) GetAllByCampaignID(campaignID string) ([]*models.Participation, error) {
	var participations []*models.Participation
	err := r.db.Where("campaign_id = ?", campaignID).
		Order("created_at ASC").
		Find(&participations).Error
	return participations, err
}

// CountByCampaignID counts participations for a campaign
func (r *ParticipationRepository) CountByCampaignID(campaignID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Participation{}).Where("campaign_id = ?", campaignID).Count(&count).Error
	return count, err
}

// CountByCampaignAndEmail counts participations sharing an email within a campaign
func (r *ParticipationRepository) CountByCampaignAndEmail(campaignID, email string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Participation{}).
		Where("campaign_id = ? AND email = ?", campaignID, email).
		Count(&count).Error
	return count, err
}

// CountByCampaignAndIP counts participations sharing an IP within a campaign
func (r *ParticipationRepository) CountByCampaignAndIP(campaignID, ipAddress string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Participation{}).
		Where("campaign_id = ? AND ip_address = ?", campaignID, ipAddress).
		Count(&count).Error
	return count, err
}

// CountByCampaignAndDevice counts participations sharing a device fingerprint within a campaign
func (r *ParticipationRepository) CountByCampaignAndDevice(campaignID, fingerprint string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Participation{}).
		Where("campaign_id = ? AND device_fingerprint = ?", campaignID, fingerprint).
		Count(&count).Error
	return count, err
}

// CountByResult tallies participations per result value for a campaign
func (r *ParticipationRepository) CountByResult(campaignID string) (map[string]int, error) {
	type row struct {
		Result string
		Count  int
	}
	var rows []row
	err := r.db.Model(&models.Participation{}).
		Select("result, count(*) as count").
		Where("campaign_id = ?", campaignID).
		Group("result").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Result] = r.Count
	}
	return counts, nil
}

// UpdateResult writes the terminal result onto a still-pending participation.
// The WHERE clause on result keeps the pending -> terminal transition
// single-shot even under concurrent updates; RowsAffected reports whether the
// transition actually happened.
func (r *ParticipationRepository) UpdateResult(attemptID, result, prizeLabel string) (bool, error) {
	updates := map[string]interface{}{"result": result}
	if prizeLabel != "" {
		updates["prize_label"] = prizeLabel
	}
	tx := r.db.Model(&models.Participation{}).
		Where("attempt_id = ? AND result = ?", attemptID, models.ResultPending).
		Updates(updates)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}
