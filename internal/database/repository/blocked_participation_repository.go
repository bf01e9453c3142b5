package repository

import (
	"errors"

	"github.com/leadplay/campaign-services-backend/internal/models"

	"gorm.io/gorm"
)

type BlockedParticipationRepository struct {
	db *gorm.DB
}

func NewBlockedParticipationRepository(db *gorm.DB) *BlockedParticipationRepository {
	return &BlockedParticipationRepository{db: db}
}

// Create creates a new blocked participation record
func (r *BlockedParticipationRepository) Create(blocked *models.BlockedParticipation) error {
	return r.db.Create(blocked).Error
}

// FindMatch looks for an existing block matching one of the supplied signals
// for the campaign. Each signal only matches rows whose stored reason it
// triggered: a row blocked for a duplicate email must not reject a different
// participant who merely shares its IP while the IP itself is still under
// threshold. Empty signals are skipped so an absent email cannot match a row
// whose email column is empty. Returns (nil, nil) when no block exists.
func (r *BlockedParticipationRepository) FindMatch(campaignID, email, ipAddress, fingerprint string) (*models.BlockedParticipation, error) {
	if email == "" && ipAddress == "" && fingerprint == "" {
		return nil, nil
	}

	signals := r.db.Session(&gorm.Session{NewDB: true})
	first := true
	addSignal := func(column, value, reason string) {
		if value == "" {
			return
		}
		cond := column + " = ? AND block_reason = ?"
		if first {
			signals = signals.Where(cond, value, reason)
			first = false
		} else {
			signals = signals.Or(cond, value, reason)
		}
	}
	addSignal("email", email, models.BlockReasonDuplicateEmail)
	addSignal("ip_address", ipAddress, models.BlockReasonDuplicateIP)
	addSignal("device_fingerprint", fingerprint, models.BlockReasonDuplicateDevice)

	var blocked models.BlockedParticipation
	err := r.db.Where("campaign_id = ?", campaignID).Where(signals).First(&blocked).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &blocked, nil
}

// CountByCampaignID counts blocked participations for a campaign
func (r *BlockedParticipationRepository) CountByCampaignID(campaignID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.BlockedParticipation{}).
		Where("campaign_id = ?", campaignID).
		Count(&count).Error
	return count, err
}

// CountByReason tallies blocks per reason for a campaign
func (r *BlockedParticipationRepository) CountByReason(campaignID string) (map[string]int, error) {
	type row struct {
		BlockReason string
		Count       int
	}
	var rows []row
	err := r.db.Model(&models.BlockedParticipation{}).
		Select("block_reason, count(*) as count").
		Where("campaign_id = ?", campaignID).
		Group("block_reason").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.BlockReason] = r.Count
	}
	return counts, nil
}
