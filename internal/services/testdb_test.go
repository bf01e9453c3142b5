package services

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/leadplay/campaign-services-backend/internal/models"
)

// setupTestDB opens an isolated in-memory database and migrates the schema
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Organization{},
		&models.User{},
		&models.RefreshToken{},
		&models.Campaign{},
		&models.Participation{},
		&models.BlockedParticipation{},
		&models.Integration{},
		&models.IntegrationSyncLog{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// createTestCampaign inserts a published campaign owned by a fresh organization
func createTestCampaign(t *testing.T, db *gorm.DB) *models.Campaign {
	t.Helper()

	org := &models.Organization{Name: "Test Org", Slug: "test-org-" + strings.ToLower(strings.ReplaceAll(t.Name(), "/", "-"))}
	if err := db.Create(org).Error; err != nil {
		t.Fatalf("failed to create organization: %v", err)
	}

	campaign := &models.Campaign{
		OrganizationID: org.ID,
		Name:           "Test Campaign",
		Slug:           "test-" + strings.ToLower(strings.ReplaceAll(t.Name(), "/", "-")),
		GameType:       models.GameTypeWheel,
		Status:         models.CampaignStatusPublished,
	}
	if err := db.Create(campaign).Error; err != nil {
		t.Fatalf("failed to create campaign: %v", err)
	}
	return campaign
}
