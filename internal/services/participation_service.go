package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/leadplay/campaign-services-backend/internal/database/repository"
	"github.com/leadplay/campaign-services-backend/internal/models"
)

// ErrResultAlreadySet is returned when a terminal participation is asked to
// transition again; pending -> win|lose happens exactly once.
var ErrResultAlreadySet = errors.New("participation result already set")

// SyncDispatcher hands an accepted participation to the CRM fan-out. The
// participation row is durable before Dispatch is called; dispatch failures
// can never unwind the write.
type SyncDispatcher interface {
	DispatchParticipation(participation *models.Participation, campaign *models.Campaign)
}

// ParticipationService records accepted participations and drives the result
// state machine. It does not re-validate; callers run the validator first.
type ParticipationService struct {
	participationRepo *repository.ParticipationRepository
	campaignRepo      *repository.CampaignRepository
	dispatcher        SyncDispatcher
}

func NewParticipationService(
	participationRepo *repository.ParticipationRepository,
	campaignRepo *repository.CampaignRepository,
	dispatcher SyncDispatcher,
) *ParticipationService {
	return &ParticipationService{
		participationRepo: participationRepo,
		campaignRepo:      campaignRepo,
		dispatcher:        dispatcher,
	}
}

// Record persists the canonical participation and triggers the CRM fan-out.
// The fan-out never blocks or fails the participant-facing response; the only
// error surfaced here is a failed write of the canonical record itself.
func (s *ParticipationService) Record(campaign *models.Campaign, req *models.RecordParticipationRequest) (*models.Participation, error) {
	result := req.Result
	if result == "" {
		result = models.ResultPending
	}

	participation := &models.Participation{
		CampaignID:        campaign.ID,
		AttemptID:         uuid.NewString(),
		Email:             NormalizeEmail(req.Email),
		IPAddress:         strings.TrimSpace(req.IPAddress),
		DeviceFingerprint: strings.TrimSpace(req.DeviceFingerprint),
		ContactData:       req.ContactData,
		Result:            result,
		PrizeLabel:        req.PrizeLabel,
	}

	if err := s.participationRepo.Create(participation); err != nil {
		return nil, fmt.Errorf("failed to record participation: %w", err)
	}

	// Analytics counter; a failed increment under-reports but never loses the lead
	if err := s.campaignRepo.IncrementParticipations(campaign.ID); err != nil {
		logrus.Errorf("Failed to increment participation counter for campaign %s: %v", campaign.ID, err)
	}

	if result != models.ResultPending {
		if err := s.campaignRepo.IncrementCompletions(campaign.ID); err != nil {
			logrus.Errorf("Failed to increment completion counter for campaign %s: %v", campaign.ID, err)
		}
	}

	if s.dispatcher != nil {
		s.dispatcher.DispatchParticipation(participation, campaign)
	}

	return participation, nil
}

// UpdateResult moves a pending participation to its terminal result, keyed by
// the attempt identifier issued at record time.
func (s *ParticipationService) UpdateResult(req *models.UpdateResultRequest) (*models.Participation, error) {
	transitioned, err := s.participationRepo.UpdateResult(req.AttemptID, req.Result, req.PrizeLabel)
	if err != nil {
		return nil, fmt.Errorf("failed to update participation result: %w", err)
	}

	participation, err := s.participationRepo.GetByAttemptID(req.AttemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("participation not found")
		}
		return nil, err
	}

	if !transitioned {
		return nil, ErrResultAlreadySet
	}

	if err := s.campaignRepo.IncrementCompletions(participation.CampaignID); err != nil {
		logrus.Errorf("Failed to increment completion counter for campaign %s: %v", participation.CampaignID, err)
	}

	return participation, nil
}

// GetByAttemptID fetches a participation by its session identifier
func (s *ParticipationService) GetByAttemptID(attemptID string) (*models.Participation, error) {
	return s.participationRepo.GetByAttemptID(attemptID)
}

// GetByCampaign lists participations for the owner dashboard
func (s *ParticipationService) GetByCampaign(campaignID string, offset, limit int) ([]*models.Participation, int64, error) {
	total, err := s.participationRepo.CountByCampaignID(campaignID)
	if err != nil {
		return nil, 0, err
	}
	participations, err := s.participationRepo.GetByCampaignID(campaignID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	return participations, total, nil
}

// ToResponse converts a participation to its owner-facing shape
func (s *ParticipationService) ToResponse(p *models.Participation) *models.ParticipationResponse {
	return &models.ParticipationResponse{
		ID:                p.ID,
		CampaignID:        p.CampaignID,
		AttemptID:         p.AttemptID,
		Email:             p.Email,
		IPAddress:         p.IPAddress,
		DeviceFingerprint: p.DeviceFingerprint,
		ContactData:       p.ContactData,
		Result:            p.Result,
		PrizeLabel:        p.PrizeLabel,
		CreatedAt:         p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
