package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/leadplay/campaign-services-backend/internal/database/repository"
	"github.com/leadplay/campaign-services-backend/internal/models"
	"github.com/leadplay/campaign-services-backend/internal/services/service_crm"
)

type IntegrationService struct {
	integrationRepo *repository.IntegrationRepository
	syncLogRepo     *repository.SyncLogRepository
	factory         service_crm.CRMAdapterFactory
}

func NewIntegrationService(
	integrationRepo *repository.IntegrationRepository,
	syncLogRepo *repository.SyncLogRepository,
) *IntegrationService {
	return &IntegrationService{
		integrationRepo: integrationRepo,
		syncLogRepo:     syncLogRepo,
		factory:         service_crm.NewAdapterFactory(),
	}
}

// Connect stores a provider credential bundle for the organization. An
// existing connection for the same provider is replaced rather than
// duplicated; the OAuth/API-key exchange happens upstream.
func (s *IntegrationService) Connect(orgID string, req *models.ConnectIntegrationRequest) (*models.IntegrationResponse, error) {
	adapter, err := s.factory.CreateAdapter(req.Provider)
	if err != nil {
		return nil, err
	}

	creds := service_crm.Credentials{}
	if err := json.Unmarshal(req.Credentials, &creds); err != nil {
		return nil, fmt.Errorf("invalid credentials payload: %w", err)
	}
	if err := adapter.ValidateCredentials(creds); err != nil {
		return nil, err
	}

	existing, err := s.integrationRepo.GetByOrganizationIDAndProvider(orgID, req.Provider)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up integration: %w", err)
	}

	if existing != nil {
		existing.Credentials = req.Credentials
		existing.Status = models.IntegrationStatusConnected
		existing.LastSyncError = ""
		if err := s.integrationRepo.Update(existing); err != nil {
			return nil, fmt.Errorf("failed to update integration: %w", err)
		}
		return s.toResponse(existing), nil
	}

	integration := &models.Integration{
		OrganizationID: orgID,
		Provider:       req.Provider,
		Credentials:    req.Credentials,
		Status:         models.IntegrationStatusConnected,
	}
	if err := s.integrationRepo.Create(integration); err != nil {
		return nil, fmt.Errorf("failed to create integration: %w", err)
	}
	return s.toResponse(integration), nil
}

// GetByOrganization lists the organization's integrations
func (s *IntegrationService) GetByOrganization(orgID string) ([]*models.IntegrationResponse, error) {
	integrations, err := s.integrationRepo.GetByOrganizationID(orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to get integrations: %w", err)
	}

	responses := make([]*models.IntegrationResponse, 0, len(integrations))
	for _, integration := range integrations {
		responses = append(responses, s.toResponse(integration))
	}
	return responses, nil
}

// Disconnect removes a provider connection from the fan-out
func (s *IntegrationService) Disconnect(orgID, integrationID string) error {
	integration, err := s.integrationRepo.GetByID(integrationID)
	if err != nil {
		return errors.New("integration not found")
	}
	if integration.OrganizationID != orgID {
		return errors.New("integration not found")
	}
	return s.integrationRepo.UpdateStatus(integration.ID, models.IntegrationStatusDisconnected)
}

// GetSyncLogs lists sync outcomes for an integration, newest first
func (s *IntegrationService) GetSyncLogs(orgID, integrationID string, offset, limit int) ([]*models.SyncLogResponse, int64, error) {
	integration, err := s.integrationRepo.GetByID(integrationID)
	if err != nil {
		return nil, 0, errors.New("integration not found")
	}
	if integration.OrganizationID != orgID {
		return nil, 0, errors.New("integration not found")
	}

	total, err := s.syncLogRepo.CountByIntegrationID(integration.ID)
	if err != nil {
		return nil, 0, err
	}
	logs, err := s.syncLogRepo.GetByIntegrationID(integration.ID, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*models.SyncLogResponse, 0, len(logs))
	for _, log := range logs {
		responses = append(responses, &models.SyncLogResponse{
			ID:              log.ID,
			IntegrationID:   log.IntegrationID,
			ParticipationID: log.ParticipationID,
			Provider:        log.Provider,
			Success:         log.Success,
			Action:          log.Action,
			ExternalID:      log.ExternalID,
			Error:           log.Error,
			CreatedAt:       log.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return responses, total, nil
}

func (s *IntegrationService) toResponse(integration *models.Integration) *models.IntegrationResponse {
	return &models.IntegrationResponse{
		ID:            integration.ID,
		Provider:      integration.Provider,
		Status:        integration.Status,
		LastSyncAt:    integration.LastSyncAt,
		LastSyncError: integration.LastSyncError,
		CreatedAt:     integration.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
