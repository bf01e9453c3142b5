package services

import (
	"errors"
	"fmt"

	"github.com/leadplay/campaign-services-backend/internal/database/repository"
	"github.com/leadplay/campaign-services-backend/internal/models"
)

type CampaignService struct {
	campaignRepo      *repository.CampaignRepository
	participationRepo *repository.ParticipationRepository
	blockedRepo       *repository.BlockedParticipationRepository
}

func NewCampaignService(
	campaignRepo *repository.CampaignRepository,
	participationRepo *repository.ParticipationRepository,
	blockedRepo *repository.BlockedParticipationRepository,
) *CampaignService {
	return &CampaignService{
		campaignRepo:      campaignRepo,
		participationRepo: participationRepo,
		blockedRepo:       blockedRepo,
	}
}

// CreateCampaign creates a new campaign for an organization
func (s *CampaignService) CreateCampaign(orgID string, req *models.CreateCampaignRequest) (*models.CampaignResponse, error) {
	exists, err := s.campaignRepo.CheckSlugExists(req.Slug)
	if err != nil {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}
	if exists {
		return nil, errors.New("campaign slug already exists")
	}

	campaign := &models.Campaign{
		OrganizationID: orgID,
		Name:           req.Name,
		Slug:           req.Slug,
		GameType:       req.GameType,
		Status:         models.CampaignStatusDraft,
		Config:         req.Config,
	}

	if err := s.campaignRepo.Create(campaign); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	return s.toResponse(campaign), nil
}

// GetCampaignsByOrganization retrieves all campaigns for an organization
func (s *CampaignService) GetCampaignsByOrganization(orgID string) ([]*models.CampaignResponse, error) {
	campaigns, err := s.campaignRepo.GetByOrganizationID(orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to get campaigns: %w", err)
	}

	responses := make([]*models.CampaignResponse, 0, len(campaigns))
	for _, campaign := range campaigns {
		responses = append(responses, s.toResponse(campaign))
	}
	return responses, nil
}

// GetCampaign retrieves a campaign scoped to its owning organization
func (s *CampaignService) GetCampaign(orgID, campaignID string) (*models.Campaign, error) {
	campaign, err := s.campaignRepo.GetByOrganizationIDAndID(orgID, campaignID)
	if err != nil {
		return nil, errors.New("campaign not found")
	}
	return campaign, nil
}

// UpdateCampaign updates a campaign's editable fields
func (s *CampaignService) UpdateCampaign(orgID, campaignID string, req *models.UpdateCampaignRequest) (*models.CampaignResponse, error) {
	campaign, err := s.campaignRepo.GetByOrganizationIDAndID(orgID, campaignID)
	if err != nil {
		return nil, errors.New("campaign not found")
	}

	campaign.Name = req.Name
	campaign.GameType = req.GameType
	if len(req.Config) > 0 {
		campaign.Config = req.Config
	}

	if err := s.campaignRepo.Update(campaign); err != nil {
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}
	return s.toResponse(campaign), nil
}

// SetStatus publishes or archives a campaign
func (s *CampaignService) SetStatus(orgID, campaignID, status string) (*models.CampaignResponse, error) {
	if status != models.CampaignStatusPublished && status != models.CampaignStatusArchived && status != models.CampaignStatusDraft {
		return nil, fmt.Errorf("invalid campaign status: %s", status)
	}

	campaign, err := s.campaignRepo.GetByOrganizationIDAndID(orgID, campaignID)
	if err != nil {
		return nil, errors.New("campaign not found")
	}

	if err := s.campaignRepo.UpdateStatus(campaign.ID, status); err != nil {
		return nil, fmt.Errorf("failed to update campaign status: %w", err)
	}
	campaign.Status = status
	return s.toResponse(campaign), nil
}

// DeleteCampaign deletes a campaign owned by the organization
func (s *CampaignService) DeleteCampaign(orgID, campaignID string) error {
	campaign, err := s.campaignRepo.GetByOrganizationIDAndID(orgID, campaignID)
	if err != nil {
		return errors.New("campaign not found")
	}
	return s.campaignRepo.Delete(campaign.ID)
}

// GetPublishedBySlug retrieves a published campaign for public traffic
func (s *CampaignService) GetPublishedBySlug(slug string) (*models.Campaign, error) {
	campaign, err := s.campaignRepo.GetBySlug(slug)
	if err != nil {
		return nil, errors.New("campaign not found")
	}
	if !campaign.IsPublished() {
		return nil, errors.New("campaign not found")
	}
	return campaign, nil
}

// TrackView bumps the view counter for a published campaign
func (s *CampaignService) TrackView(slug string) error {
	campaign, err := s.GetPublishedBySlug(slug)
	if err != nil {
		return err
	}
	return s.campaignRepo.IncrementViews(campaign.ID)
}

// GetStats aggregates counters and pipeline tallies for the owner dashboard
func (s *CampaignService) GetStats(orgID, campaignID string) (*models.CampaignStatsResponse, error) {
	campaign, err := s.campaignRepo.GetByOrganizationIDAndID(orgID, campaignID)
	if err != nil {
		return nil, errors.New("campaign not found")
	}

	blockedCount, err := s.blockedRepo.CountByCampaignID(campaign.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count blocked participations: %w", err)
	}
	blockedByReason, err := s.blockedRepo.CountByReason(campaign.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to tally blocked participations: %w", err)
	}
	resultCounts, err := s.participationRepo.CountByResult(campaign.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to tally participation results: %w", err)
	}

	return &models.CampaignStatsResponse{
		CampaignID:          campaign.ID,
		ViewsCount:          campaign.ViewsCount,
		ParticipationsCount: campaign.ParticipationsCount,
		CompletionsCount:    campaign.CompletionsCount,
		BlockedCount:        blockedCount,
		BlockedByReason:     blockedByReason,
		ResultCounts:        resultCounts,
	}, nil
}

func (s *CampaignService) toResponse(campaign *models.Campaign) *models.CampaignResponse {
	return &models.CampaignResponse{
		ID:                  campaign.ID,
		OrganizationID:      campaign.OrganizationID,
		Name:                campaign.Name,
		Slug:                campaign.Slug,
		GameType:            campaign.GameType,
		Status:              campaign.Status,
		Config:              campaign.Config,
		ViewsCount:          campaign.ViewsCount,
		ParticipationsCount: campaign.ParticipationsCount,
		CompletionsCount:    campaign.CompletionsCount,
		CreatedAt:           campaign.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:           campaign.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
