package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/leadplay/campaign-services-backend/internal/config"
	"github.com/leadplay/campaign-services-backend/internal/database/repository"
	"github.com/leadplay/campaign-services-backend/internal/models"
	"gorm.io/gorm"
)

func newTestValidationService(db *gorm.DB, cfg *config.ValidationConfig) *ValidationService {
	return NewValidationService(
		repository.NewParticipationRepository(db),
		repository.NewBlockedParticipationRepository(db),
		cfg,
	)
}

func recordParticipation(t *testing.T, db *gorm.DB, campaignID, email, ip, device string) {
	t.Helper()
	p := &models.Participation{
		CampaignID:        campaignID,
		AttemptID:         uuid.NewString(),
		Email:             email,
		IPAddress:         ip,
		DeviceFingerprint: device,
		Result:            models.ResultPending,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("failed to insert participation: %v", err)
	}
}

func TestValidateAllowsFirstParticipation(t *testing.T) {
	db := setupTestDB(t)
	campaign := createTestCampaign(t, db)
	svc := newTestValidationService(db, nil)

	resp, err := svc.Validate(campaign.ID, &models.ValidateParticipationRequest{
		Email:             "a@x.com",
		IPAddress:         "1.1.1.1",
		DeviceFingerprint: "fp-1",
	})
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if !resp.Allowed {
		t.Fatalf("expected first participation to be allowed, got blocked with %q", resp.BlockReason)
	}
}

func TestValidateBlocksDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	campaign := createTestCampaign(t, db)
	svc := newTestValidationService(db, nil)

	recordParticipation(t, db, campaign.ID, "a@x.com", "1.1.1.1", "fp-1")

	resp, err := svc.Validate(campaign.ID, &models.ValidateParticipationRequest{
		Email:     "a@x.com",
		IPAddress: "9.9.9.9",
	})
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if resp.Allowed {
		t.Fatal("expected duplicate email to be blocked")
	}
	if resp.BlockReason != models.BlockReasonDuplicateEmail {
		t.Fatalf("expected block reason %q, got %q", models.BlockReasonDuplicateEmail, resp.BlockReason)
	}
}

func TestValidateAllowsSharedIPAfterEmailBlock(t *testing.T) {
	db := setupTestDB(t)
	campaign := createTestCampaign(t, db)
	svc := newTestValidationService(db, nil)

	// First participant plays once, then retries and gets blocked for the email
	recordParticipation(t, db, campaign.ID, "a@x.com", "1.1.1.1", "fp-a")
	resp, err := svc.Validate(campaign.ID, &models.ValidateParticipationRequest{
		Email:             "a@x.com",
		IPAddress:         "1.1.1.1",
		DeviceFingerprint: "fp-a",
	})
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if resp.Allowed || resp.BlockReason != models.BlockReasonDuplicateEmail {
		t.Fatalf("expected duplicate email block, got %+v", resp)
	}

	// A different participant behind the same household IP, still under the
	// IP threshold, must not inherit that block
	resp, err = svc.Validate(campaign.ID, &models.ValidateParticipationRequest{
		Email:             "b@x.com",
		IPAddress:         "1.1.1.1",
		DeviceFingerprint: "fp-b",
	})
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if !resp.Allowed {
		t.Fatalf("expected shared-IP participant under threshold to be allowed, got blocked with %q", resp.BlockReason)
	}
}

func TestValidateNormalizesEmail(t *testing.T) {
	db := setupTestDB(t)
	campaign := createTestCampaign(t, db)
	svc := newTestValidationService(db, nil)

	recordParticipation(t, db, campaign.ID, "a@x.com", "", "")

	resp, err := svc.Validate(campaign.ID, &models.ValidateParticipationRequest{
		Email: "  A@X.COM  ",
	})
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if resp.Allowed {
		t.Fatal("expected case-insensitive duplicate email to be blocked")
	}
}

func TestValidateIPThreshold(t *testing.T) {
	db := setupTestDB(t)
	campaign := createTestCampaign(t, db)
	cfg := &config.ValidationConfig{EmailThreshold: 1, IPThreshold: 3, DeviceThreshold: 1, FailOpen: true}
	svc := newTestValidationService(db, cfg)

	// Two prior entries from the same IP stay under the threshold of three
	recordParticipation(t, db, campaign.ID, "a@x.com", "1.1.1.1", "")
	recordParticipation(t, db, campaign.ID, "b@x.com", "1.1.1.1", "")

	resp, err := svc.Validate(campaign.ID, &models.ValidateParticipationRequest{
		Email:     "c@x.com",
		IPAddress: "1.1.1.1",
	})
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if !resp.Allowed {
		t.Fatalf("expected third entry from shared IP to be allowed, got %q", resp.BlockReason)
	}

	recordParticipation(t, db, campaign.ID, "c@x.com", "1.1.1.1", "")

	resp, err = svc.Validate(campaign.ID, &models.ValidateParticipationRequest{
		Email:     "d@x.com",
		IPAddress: "1.1.1.1",
	})
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if resp.Allowed {
		t.Fatal("expected fourth entry from same IP to be blocked")
	}
	if resp.BlockReason != models.BlockReasonDuplicateIP {
		t.Fatalf("expected block reason %q, got %q", models.BlockReasonDuplicateIP, resp.BlockReason)
	}
}

func TestValidateBlocksDuplicateDevice(t *testing.T) {
	db := setupTestDB(t)
	campaign := createTestCampaign(t, db)
	svc := newTestValidationService(db, nil)

	recordParticipation(t, db, campaign.ID, "a@x.com", "", "fp-1")

	resp, err := svc.Validate(campaign.ID, &models.ValidateParticipationRequest{
		Email:             "b@x.com",
		DeviceFingerprint: "fp-1",
	})
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if resp.Allowed {
		t.Fatal("expected duplicate device fingerprint to be blocked")
	}
	if resp.BlockReason != models.BlockReasonDuplicateDevice {
		t.Fatalf("expected block reason %q, got %q", models.BlockReasonDuplicateDevice, resp.BlockReason)
	}
}

func TestValidateAllowsWhenNoSignals(t *testing.T) {
	db := setupTestDB(t)
	campaign := createTestCampaign(t, db)
	svc := newTestValidationService(db, nil)

	for i := 0; i < 3; i++ {
		resp, err := svc.Validate(campaign.ID, &models.ValidateParticipationRequest{})
		if err != nil {
			t.Fatalf("Validate returned error: %v", err)
		}
		if !resp.Allowed {
			t.Fatal("expected signal-less participation to always be allowed")
		}
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	campaign := createTestCampaign(t, db)
	svc := newTestValidationService(db, nil)

	recordParticipation(t, db, campaign.ID, "a@x.com", "", "")

	req := &models.ValidateParticipationRequest{Email: "a@x.com"}

	first, err := svc.Validate(campaign.ID, req)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	second, err := svc.Validate(campaign.ID, req)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}

	if first.Allowed != second.Allowed || first.BlockReason != second.BlockReason {
		t.Fatalf("expected identical decisions, got %+v then %+v", first, second)
	}
}

func TestValidateFastPathKeepsStoredReason(t *testing.T) {
	db := setupTestDB(t)
	campaign := createTestCampaign(t, db)
	svc := newTestValidationService(db, nil)

	recordParticipation(t, db, campaign.ID, "a@x.com", "", "")

	// First rejection stores the email reason
	resp, err := svc.Validate(campaign.ID, &models.ValidateParticipationRequest{Email: "a@x.com"})
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if resp.Allowed || resp.BlockReason != models.BlockReasonDuplicateEmail {
		t.Fatalf("unexpected first decision: %+v", resp)
	}

	var blockedCount int64
	db.Model(&models.BlockedParticipation{}).Where("campaign_id = ?", campaign.ID).Count(&blockedCount)
	if blockedCount != 1 {
		t.Fatalf("expected one blocked row, got %d", blockedCount)
	}

	// Same email with fresh signals takes the fast path with the stored reason
	resp, err = svc.Validate(campaign.ID, &models.ValidateParticipationRequest{
		Email:             "a@x.com",
		IPAddress:         "8.8.8.8",
		DeviceFingerprint: "fp-new",
	})
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if resp.Allowed || resp.BlockReason != models.BlockReasonDuplicateEmail {
		t.Fatalf("expected stored duplicate_email reason on repeat, got %+v", resp)
	}

	db.Model(&models.BlockedParticipation{}).Where("campaign_id = ?", campaign.ID).Count(&blockedCount)
	if blockedCount != 1 {
		t.Fatalf("fast path should not add blocked rows, got %d", blockedCount)
	}
}

func TestValidateScopedPerCampaign(t *testing.T) {
	db := setupTestDB(t)
	first := createTestCampaign(t, db)

	second := &models.Campaign{
		OrganizationID: first.OrganizationID,
		Name:           "Other Campaign",
		Slug:           first.Slug + "-2",
		GameType:       models.GameTypeQuiz,
		Status:         models.CampaignStatusPublished,
	}
	if err := db.Create(second).Error; err != nil {
		t.Fatalf("failed to create second campaign: %v", err)
	}

	svc := newTestValidationService(db, nil)
	recordParticipation(t, db, first.ID, "a@x.com", "", "")

	resp, err := svc.Validate(second.ID, &models.ValidateParticipationRequest{Email: "a@x.com"})
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if !resp.Allowed {
		t.Fatal("a participation in one campaign must not block the same email in another")
	}
}

func TestValidateFailOpen(t *testing.T) {
	db := setupTestDB(t)
	campaign := createTestCampaign(t, db)

	svc := newTestValidationService(db, &config.ValidationConfig{
		EmailThreshold: 1, IPThreshold: 3, DeviceThreshold: 1, FailOpen: true,
	})

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get underlying database: %v", err)
	}
	sqlDB.Close()

	resp, err := svc.Validate(campaign.ID, &models.ValidateParticipationRequest{Email: "a@x.com"})
	if err != nil {
		t.Fatalf("fail-open validator must not return an error, got %v", err)
	}
	if !resp.Allowed {
		t.Fatal("expected fail-open validator to allow when the store is down")
	}
}

func TestValidateFailClosed(t *testing.T) {
	db := setupTestDB(t)
	campaign := createTestCampaign(t, db)

	svc := newTestValidationService(db, &config.ValidationConfig{
		EmailThreshold: 1, IPThreshold: 3, DeviceThreshold: 1, FailOpen: false,
	})

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get underlying database: %v", err)
	}
	sqlDB.Close()

	if _, err := svc.Validate(campaign.ID, &models.ValidateParticipationRequest{Email: "a@x.com"}); err == nil {
		t.Fatal("expected an error when fail-open is disabled and the store is down")
	}
}
