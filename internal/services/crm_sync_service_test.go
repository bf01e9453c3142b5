package services

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/leadplay/campaign-services-backend/internal/database/repository"
	"github.com/leadplay/campaign-services-backend/internal/models"
)

func newTestSyncService(db *gorm.DB) *CRMSyncService {
	return NewCRMSyncService(
		repository.NewIntegrationRepository(db),
		repository.NewParticipationRepository(db),
		repository.NewCampaignRepository(db),
		repository.NewSyncLogRepository(db),
		nil, // no broker: jobs run in-process
	)
}

func createIntegration(t *testing.T, db *gorm.DB, orgID, provider string, creds string) *models.Integration {
	t.Helper()
	integration := &models.Integration{
		OrganizationID: orgID,
		Provider:       provider,
		Credentials:    datatypes.JSON(creds),
		Status:         models.IntegrationStatusConnected,
	}
	if err := db.Create(integration).Error; err != nil {
		t.Fatalf("failed to create integration: %v", err)
	}
	return integration
}

func TestBuildLead(t *testing.T) {
	campaign := &models.Campaign{
		ID:             "c-1",
		OrganizationID: "org-1",
		GameType:       models.GameTypeWheel,
	}
	participation := &models.Participation{
		ID:         "p-1",
		Email:      "a@x.com",
		PrizeLabel: "10% off",
		CreatedAt:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		ContactData: datatypes.JSON(`{
			"first_name": "Marie",
			"last_name": "Dupont",
			"phone": "+33600000000",
			"gdpr_consent": true,
			"favorite_color": "blue"
		}`),
	}

	lead := BuildLead(participation, campaign)

	if lead.Email != "a@x.com" || lead.FirstName != "Marie" || lead.LastName != "Dupont" {
		t.Fatalf("unexpected lead identity: %+v", lead)
	}
	if !lead.GDPRConsent {
		t.Fatal("expected gdpr consent to carry over")
	}
	if lead.PrizeWon != "10% off" || lead.CampaignID != "c-1" || lead.OrganizationID != "org-1" {
		t.Fatalf("unexpected campaign context: %+v", lead)
	}
	if lead.CreatedAt != "2025-03-01T12:00:00Z" {
		t.Fatalf("unexpected created_at: %q", lead.CreatedAt)
	}

	fields := lead.Fields()
	if fields["gdpr_consent"] != "true" {
		t.Fatalf("expected gdpr_consent mapped to \"true\", got %q", fields["gdpr_consent"])
	}
	if _, ok := fields["favorite_color"]; ok {
		t.Fatal("campaign-specific fields must stay out of the canonical map")
	}
	if _, ok := fields["company"]; ok {
		t.Fatal("empty fields must be omitted")
	}
}

func TestBuildLeadToleratesBadContactData(t *testing.T) {
	campaign := &models.Campaign{ID: "c-1", OrganizationID: "org-1"}
	participation := &models.Participation{
		ID:          "p-1",
		Email:       "a@x.com",
		ContactData: datatypes.JSON(`not json`),
	}

	lead := BuildLead(participation, campaign)
	if lead.Email != "a@x.com" {
		t.Fatalf("expected lead built from participation columns, got %+v", lead)
	}
}

func TestProcessJobRecordsSuccess(t *testing.T) {
	db := setupTestDB(t)
	campaign := createTestCampaign(t, db)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/contacts" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("api-key") != "brevo-key" {
			t.Errorf("missing api-key header")
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()
	t.Setenv("BREVO_BASE_URL", server.URL)

	integration := createIntegration(t, db, campaign.OrganizationID, models.ProviderBrevo, `{"api_key":"brevo-key"}`)

	participation := &models.Participation{
		CampaignID: campaign.ID,
		AttemptID:  "11111111-1111-1111-1111-111111111111",
		Email:      "a@x.com",
		Result:     models.ResultPending,
	}
	if err := db.Create(participation).Error; err != nil {
		t.Fatalf("failed to create participation: %v", err)
	}

	svc := newTestSyncService(db)
	svc.ProcessJob(SyncJob{ParticipationID: participation.ID, IntegrationID: integration.ID})

	var logEntry models.IntegrationSyncLog
	if err := db.First(&logEntry, "integration_id = ?", integration.ID).Error; err != nil {
		t.Fatalf("expected a sync log entry: %v", err)
	}
	if !logEntry.Success || logEntry.Action != models.SyncActionCreated {
		t.Fatalf("unexpected sync log: %+v", logEntry)
	}

	var reloaded models.Integration
	if err := db.First(&reloaded, "id = ?", integration.ID).Error; err != nil {
		t.Fatalf("failed to reload integration: %v", err)
	}
	if reloaded.Status != models.IntegrationStatusConnected {
		t.Fatalf("expected status connected, got %q", reloaded.Status)
	}
	if reloaded.LastSyncAt == nil {
		t.Fatal("expected last_sync_at to be set")
	}
}

func TestProcessJobRecordsFailure(t *testing.T) {
	db := setupTestDB(t)
	campaign := createTestCampaign(t, db)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid key"}`, http.StatusUnauthorized)
	}))
	defer server.Close()
	t.Setenv("BREVO_BASE_URL", server.URL)

	integration := createIntegration(t, db, campaign.OrganizationID, models.ProviderBrevo, `{"api_key":"bad-key"}`)

	participation := &models.Participation{
		CampaignID: campaign.ID,
		AttemptID:  "22222222-2222-2222-2222-222222222222",
		Email:      "a@x.com",
		Result:     models.ResultPending,
	}
	if err := db.Create(participation).Error; err != nil {
		t.Fatalf("failed to create participation: %v", err)
	}

	svc := newTestSyncService(db)
	svc.ProcessJob(SyncJob{ParticipationID: participation.ID, IntegrationID: integration.ID})

	var logEntry models.IntegrationSyncLog
	if err := db.First(&logEntry, "integration_id = ?", integration.ID).Error; err != nil {
		t.Fatalf("expected a sync log entry: %v", err)
	}
	if logEntry.Success {
		t.Fatal("expected a failed sync log entry")
	}
	if logEntry.Error == "" {
		t.Fatal("expected the provider error to be recorded")
	}

	var reloaded models.Integration
	if err := db.First(&reloaded, "id = ?", integration.ID).Error; err != nil {
		t.Fatalf("failed to reload integration: %v", err)
	}
	if reloaded.Status != models.IntegrationStatusError {
		t.Fatalf("expected status error, got %q", reloaded.Status)
	}
	if reloaded.LastSyncError == "" {
		t.Fatal("expected last_sync_error to be set")
	}

	// The participation record itself is untouched by the failure
	var stored models.Participation
	if err := db.First(&stored, "id = ?", participation.ID).Error; err != nil {
		t.Fatalf("participation must survive a failed sync: %v", err)
	}
}

func TestDispatchFanOutIsolation(t *testing.T) {
	db := setupTestDB(t)
	campaign := createTestCampaign(t, db)

	okServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer okServer.Close()
	failServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer failServer.Close()

	t.Setenv("BREVO_BASE_URL", okServer.URL)
	t.Setenv("HUBSPOT_BASE_URL", failServer.URL)

	brevo := createIntegration(t, db, campaign.OrganizationID, models.ProviderBrevo, `{"api_key":"k"}`)
	hubspot := createIntegration(t, db, campaign.OrganizationID, models.ProviderHubSpot, `{"access_token":"t"}`)

	participation := &models.Participation{
		CampaignID: campaign.ID,
		AttemptID:  "33333333-3333-3333-3333-333333333333",
		Email:      "a@x.com",
		Result:     models.ResultPending,
	}
	if err := db.Create(participation).Error; err != nil {
		t.Fatalf("failed to create participation: %v", err)
	}

	svc := newTestSyncService(db)
	svc.DispatchParticipation(participation, campaign)

	// Without a broker the jobs run on goroutines; wait for both outcomes
	deadline := time.Now().Add(3 * time.Second)
	var logs []models.IntegrationSyncLog
	for time.Now().Before(deadline) {
		if err := db.Find(&logs, "participation_id = ?", participation.ID).Error; err == nil && len(logs) == 2 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 sync logs, got %d", len(logs))
	}

	outcomes := map[string]bool{}
	for _, l := range logs {
		outcomes[l.IntegrationID] = l.Success
	}
	if !outcomes[brevo.ID] {
		t.Fatal("the failing provider must not take down the healthy one")
	}
	if outcomes[hubspot.ID] {
		t.Fatal("expected the hubspot sync to fail")
	}
}

func TestDispatchSkipsParticipationsWithoutEmail(t *testing.T) {
	db := setupTestDB(t)
	campaign := createTestCampaign(t, db)
	createIntegration(t, db, campaign.OrganizationID, models.ProviderBrevo, `{"api_key":"k"}`)

	participation := &models.Participation{
		CampaignID: campaign.ID,
		AttemptID:  "44444444-4444-4444-4444-444444444444",
		Result:     models.ResultPending,
	}
	if err := db.Create(participation).Error; err != nil {
		t.Fatalf("failed to create participation: %v", err)
	}

	svc := newTestSyncService(db)
	svc.DispatchParticipation(participation, campaign)

	time.Sleep(100 * time.Millisecond)
	var count int64
	db.Model(&models.IntegrationSyncLog{}).Where("participation_id = ?", participation.ID).Count(&count)
	if count != 0 {
		t.Fatalf("expected no sync attempts for an email-less participation, got %d", count)
	}
}
