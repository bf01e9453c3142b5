package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/leadplay/campaign-services-backend/internal/config"
	"github.com/leadplay/campaign-services-backend/internal/database/repository"
	"github.com/leadplay/campaign-services-backend/internal/models"
	"github.com/leadplay/campaign-services-backend/internal/services/service_crm"
)

// SyncJob is one unit of fan-out work: one participation pushed to one
// connected integration. Jobs are independent; there is no ordering between
// them and no transaction across them.
type SyncJob struct {
	ParticipationID string `json:"participation_id"`
	IntegrationID   string `json:"integration_id"`
}

// CRMSyncService fans accepted participations out to every connected CRM
// integration of the owning organization. Jobs normally travel through the
// crm_sync queue; when the broker is down they run in-process so leads still
// sync best-effort.
type CRMSyncService struct {
	integrationRepo   *repository.IntegrationRepository
	participationRepo *repository.ParticipationRepository
	campaignRepo      *repository.CampaignRepository
	syncLogRepo       *repository.SyncLogRepository
	rabbitMQ          *RabbitMQService
	factory           service_crm.CRMAdapterFactory
	cfg               *config.CRMConfig
	stopChan          chan bool
}

func NewCRMSyncService(
	integrationRepo *repository.IntegrationRepository,
	participationRepo *repository.ParticipationRepository,
	campaignRepo *repository.CampaignRepository,
	syncLogRepo *repository.SyncLogRepository,
	rabbitMQ *RabbitMQService,
) *CRMSyncService {
	return &CRMSyncService{
		integrationRepo:   integrationRepo,
		participationRepo: participationRepo,
		campaignRepo:      campaignRepo,
		syncLogRepo:       syncLogRepo,
		rabbitMQ:          rabbitMQ,
		factory:           service_crm.NewAdapterFactory(),
		cfg:               config.GetCRMConfig(),
		stopChan:          make(chan bool),
	}
}

// DispatchParticipation enqueues one sync job per connected integration. It
// returns immediately; the participant-facing response never waits on CRM
// calls. Failing to enqueue falls back to an in-process goroutine.
func (s *CRMSyncService) DispatchParticipation(participation *models.Participation, campaign *models.Campaign) {
	if participation.Email == "" {
		// Nothing to upsert by; every provider keys contacts on email
		return
	}

	integrations, err := s.integrationRepo.GetConnectedByOrganizationID(campaign.OrganizationID)
	if err != nil {
		logrus.Errorf("Failed to load integrations for organization %s: %v", campaign.OrganizationID, err)
		return
	}

	for _, integration := range integrations {
		job := SyncJob{
			ParticipationID: participation.ID,
			IntegrationID:   integration.ID,
		}

		if s.rabbitMQ != nil {
			if err := s.rabbitMQ.PublishMessage(CRMSyncQueue, job); err == nil {
				continue
			} else {
				logrus.Warnf("Failed to publish sync job for integration %s, running in-process: %v", integration.ID, err)
			}
		}

		go s.ProcessJob(job)
	}
}

// StartConsumer starts consuming sync jobs from the crm_sync queue
func (s *CRMSyncService) StartConsumer() error {
	if s.rabbitMQ == nil {
		return fmt.Errorf("rabbitmq service not available")
	}

	msgs, err := s.rabbitMQ.channel.Consume(
		CRMSyncQueue, // queue
		"",           // consumer
		true,         // auto-ack
		false,        // exclusive
		false,        // no-local
		false,        // no-wait
		nil,          // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	logrus.Info("RabbitMQ consumer started for crm_sync queue")

	go func() {
		for {
			select {
			case <-s.stopChan:
				logrus.Info("CRM sync consumer stopped")
				return
			case msg, ok := <-msgs:
				if !ok {
					logrus.Warn("RabbitMQ channel closed")
					return
				}

				var job SyncJob
				if err := json.Unmarshal(msg.Body, &job); err != nil {
					logrus.Errorf("Failed to unmarshal sync job: %v", err)
					continue
				}
				s.ProcessJob(job)
			}
		}
	}()

	return nil
}

// StopConsumer stops the consumer
func (s *CRMSyncService) StopConsumer() {
	close(s.stopChan)
}

// ProcessJob runs one adapter call end to end: load the records, build the
// canonical lead, call the provider, then record the outcome on both the sync
// log and the integration. An adapter failure is logged and recorded, never
// propagated; other jobs for the same participation are unaffected.
func (s *CRMSyncService) ProcessJob(job SyncJob) {
	integration, err := s.integrationRepo.GetByID(job.IntegrationID)
	if err != nil {
		logrus.Errorf("Sync job dropped, integration %s not found: %v", job.IntegrationID, err)
		return
	}

	participation, err := s.participationRepo.GetByID(job.ParticipationID)
	if err != nil {
		logrus.Errorf("Sync job dropped, participation %s not found: %v", job.ParticipationID, err)
		return
	}

	campaign, err := s.campaignRepo.GetByID(participation.CampaignID)
	if err != nil {
		logrus.Errorf("Sync job dropped, campaign %s not found: %v", participation.CampaignID, err)
		return
	}

	lead := BuildLead(participation, campaign)

	result, err := s.callAdapter(integration, lead)

	syncLog := &models.IntegrationSyncLog{
		IntegrationID:   integration.ID,
		ParticipationID: participation.ID,
		Provider:        integration.Provider,
	}

	if err != nil {
		syncLog.Success = false
		syncLog.Error = err.Error()
		logrus.Errorf("CRM sync failed: provider=%s participation=%s error=%v",
			integration.Provider, participation.ID, err)
		if updateErr := s.integrationRepo.RecordSyncFailure(integration.ID, err.Error()); updateErr != nil {
			logrus.Errorf("Failed to record sync failure on integration %s: %v", integration.ID, updateErr)
		}
	} else {
		syncLog.Success = true
		syncLog.Action = result.Action
		syncLog.ExternalID = result.ExternalID
		logrus.Infof("CRM sync succeeded: provider=%s participation=%s action=%s",
			integration.Provider, participation.ID, result.Action)
		if updateErr := s.integrationRepo.RecordSyncSuccess(integration.ID); updateErr != nil {
			logrus.Errorf("Failed to record sync success on integration %s: %v", integration.ID, updateErr)
		}
	}

	if err := s.syncLogRepo.Create(syncLog); err != nil {
		logrus.Errorf("Failed to write sync log for participation %s: %v", participation.ID, err)
	}
}

// callAdapter resolves the provider adapter and invokes it under the
// per-call timeout. A panicking adapter is converted to an error so the
// fan-out boundary holds.
func (s *CRMSyncService) callAdapter(integration *models.Integration, lead *models.Lead) (result *service_crm.SyncResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("adapter panic: %v", r)
		}
	}()

	adapter, err := s.factory.CreateAdapter(integration.Provider)
	if err != nil {
		return nil, err
	}

	creds := service_crm.Credentials{}
	if len(integration.Credentials) > 0 {
		if err := json.Unmarshal(integration.Credentials, &creds); err != nil {
			return nil, fmt.Errorf("invalid credentials for integration %s: %w", integration.ID, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.SyncTimeout)
	defer cancel()

	return adapter.Sync(ctx, lead, creds)
}

// BuildLead maps a participation and its campaign to the canonical lead shape
// fed to every adapter. Contact fields are read by their explicit canonical
// names; anything else in the contact data is campaign-specific and stays out
// of the CRM payload.
func BuildLead(participation *models.Participation, campaign *models.Campaign) *models.Lead {
	contact := map[string]interface{}{}
	if len(participation.ContactData) > 0 {
		if err := json.Unmarshal(participation.ContactData, &contact); err != nil {
			logrus.Warnf("Unparseable contact data on participation %s: %v", participation.ID, err)
		}
	}

	str := func(key string) string {
		if v, ok := contact[key]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
		return ""
	}
	boolean := func(key string) bool {
		if v, ok := contact[key]; ok {
			if b, ok := v.(bool); ok {
				return b
			}
		}
		return false
	}

	return &models.Lead{
		ID:             participation.ID,
		Email:          participation.Email,
		FirstName:      str("first_name"),
		LastName:       str("last_name"),
		Phone:          str("phone"),
		Address:        str("address"),
		City:           str("city"),
		PostalCode:     str("postal_code"),
		Country:        str("country"),
		Company:        str("company"),
		JobTitle:       str("job_title"),
		Industry:       str("industry"),
		CompanySize:    str("company_size"),
		Website:        str("website"),
		LinkedIn:       str("linkedin"),
		Birthdate:      str("birthdate"),
		Salutation:     str("salutation"),
		Gender:         str("gender"),
		Nationality:    str("nationality"),
		Language:       str("language"),
		MaritalStatus:  str("marital_status"),
		LeadSource:     str("lead_source"),
		GDPRConsent:    boolean("gdpr_consent"),
		Interests:      str("interests"),
		CustomerID:     str("customer_id"),
		LoyaltyCard:    str("loyalty_card"),
		PreferredStore: str("preferred_store"),
		OrganizationID: campaign.OrganizationID,
		CampaignID:     campaign.ID,
		CampaignType:   campaign.GameType,
		PrizeWon:       participation.PrizeLabel,
		CreatedAt:      participation.CreatedAt.Format(time.RFC3339),
	}
}
