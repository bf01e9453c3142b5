package services

import (
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"

	"github.com/leadplay/campaign-services-backend/internal/config"
	"github.com/leadplay/campaign-services-backend/internal/database/repository"
	"github.com/leadplay/campaign-services-backend/internal/models"
)

// ValidationService decides whether a candidate participation is allowed,
// consulting previously blocked signals and previously recorded participations.
type ValidationService struct {
	participationRepo *repository.ParticipationRepository
	blockedRepo       *repository.BlockedParticipationRepository
	cfg               *config.ValidationConfig
}

func NewValidationService(
	participationRepo *repository.ParticipationRepository,
	blockedRepo *repository.BlockedParticipationRepository,
	cfg *config.ValidationConfig,
) *ValidationService {
	if cfg == nil {
		cfg = config.GetValidationConfig()
	}
	return &ValidationService{
		participationRepo: participationRepo,
		blockedRepo:       blockedRepo,
		cfg:               cfg,
	}
}

// Validate applies the de-duplication rules in order: email, then IP, then
// device fingerprint; first match wins. A rejection persists a
// BlockedParticipation row so repeat attempts hit the fast path. When no
// signal is supplied at all the participation is always allowed.
//
// If the data store is unreachable the validator fails open: a legitimate
// lead lost to a database hiccup costs more than a duplicate entry.
func (s *ValidationService) Validate(campaignID string, req *models.ValidateParticipationRequest) (*models.ValidateParticipationResponse, error) {
	email := NormalizeEmail(req.Email)
	ipAddress := strings.TrimSpace(req.IPAddress)
	fingerprint := strings.TrimSpace(req.DeviceFingerprint)

	if email == "" && ipAddress == "" && fingerprint == "" {
		return &models.ValidateParticipationResponse{Allowed: true}, nil
	}

	// Fast path: a previously rejected signal keeps its stored reason
	blocked, err := s.blockedRepo.FindMatch(campaignID, email, ipAddress, fingerprint)
	if err != nil {
		return s.failOpen(campaignID, err)
	}
	if blocked != nil {
		return &models.ValidateParticipationResponse{
			Allowed:     false,
			BlockReason: blocked.BlockReason,
		}, nil
	}

	// Rules in order, first match wins
	if email != "" {
		count, err := s.participationRepo.CountByCampaignAndEmail(campaignID, email)
		if err != nil {
			return s.failOpen(campaignID, err)
		}
		if count >= int64(s.cfg.EmailThreshold) {
			return s.block(campaignID, email, ipAddress, fingerprint, models.BlockReasonDuplicateEmail)
		}
	}

	if ipAddress != "" {
		count, err := s.participationRepo.CountByCampaignAndIP(campaignID, ipAddress)
		if err != nil {
			return s.failOpen(campaignID, err)
		}
		if count >= int64(s.cfg.IPThreshold) {
			return s.block(campaignID, email, ipAddress, fingerprint, models.BlockReasonDuplicateIP)
		}
	}

	if fingerprint != "" {
		count, err := s.participationRepo.CountByCampaignAndDevice(campaignID, fingerprint)
		if err != nil {
			return s.failOpen(campaignID, err)
		}
		if count >= int64(s.cfg.DeviceThreshold) {
			return s.block(campaignID, email, ipAddress, fingerprint, models.BlockReasonDuplicateDevice)
		}
	}

	return &models.ValidateParticipationResponse{Allowed: true}, nil
}

// block persists the rejection for the fast path and returns the decision.
// A failed write only loses the cache entry, not the decision.
func (s *ValidationService) block(campaignID, email, ipAddress, fingerprint, reason string) (*models.ValidateParticipationResponse, error) {
	blocked := &models.BlockedParticipation{
		CampaignID:        campaignID,
		Email:             email,
		IPAddress:         ipAddress,
		DeviceFingerprint: fingerprint,
		BlockReason:       reason,
	}
	if err := s.blockedRepo.Create(blocked); err != nil {
		logrus.Errorf("Failed to persist blocked participation for campaign %s: %v", campaignID, err)
	}
	return &models.ValidateParticipationResponse{
		Allowed:     false,
		BlockReason: reason,
	}, nil
}

func (s *ValidationService) failOpen(campaignID string, err error) (*models.ValidateParticipationResponse, error) {
	if !s.cfg.FailOpen {
		return nil, err
	}
	logrus.Errorf("Validation store unreachable for campaign %s, failing open: %v", campaignID, err)
	sentry.CaptureException(err)
	return &models.ValidateParticipationResponse{Allowed: true}, nil
}

// NormalizeEmail lowercases and trims an email so the duplicate rule matches
// regardless of how the participant typed it
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
