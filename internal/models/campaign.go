package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Campaign game types
const (
	GameTypeWheel   = "wheel"
	GameTypeQuiz    = "quiz"
	GameTypeScratch = "scratch"
	GameTypeJackpot = "jackpot"
)

// Campaign statuses
const (
	CampaignStatusDraft     = "draft"
	CampaignStatusPublished = "published"
	CampaignStatusArchived  = "archived"
)

// Campaign represents a gamified lead-generation campaign that belongs to an organization
type Campaign struct {
	ID             string `json:"id" gorm:"primaryKey;type:uuid"`
	OrganizationID string `json:"organization_id" gorm:"not null;index;type:uuid"`
	Name           string `json:"name" gorm:"type:varchar(255);not null"`
	Slug           string `json:"slug" gorm:"type:varchar(255);not null;unique;index"` // public identifier used by participation pages
	GameType       string `json:"game_type" gorm:"type:varchar(50);index;default:'wheel'"`
	Status         string `json:"status" gorm:"type:varchar(20);index;default:'draft'"`

	// Builder output consumed by the public page; opaque to the backend
	Config datatypes.JSON `json:"config" gorm:"type:jsonb"`

	// Aggregate counters, updated only with atomic count = count + 1 expressions
	ViewsCount          int `json:"views_count" gorm:"default:0"`
	ParticipationsCount int `json:"participations_count" gorm:"default:0"`
	CompletionsCount    int `json:"completions_count" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Organization   Organization    `json:"organization,omitempty" gorm:"foreignKey:OrganizationID;references:ID;constraint:OnDelete:CASCADE"`
	Participations []Participation `json:"participations,omitempty" gorm:"foreignKey:CampaignID;references:ID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate is a GORM hook that runs before creating a new record
func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for the Campaign model
func (Campaign) TableName() string {
	return "campaigns"
}

// IsPublished reports whether the campaign accepts public traffic
func (c *Campaign) IsPublished() bool {
	return c.Status == CampaignStatusPublished
}

// CreateCampaignRequest represents the request to create a new campaign
type CreateCampaignRequest struct {
	Name     string         `json:"name" binding:"required" example:"Roue de la fortune - Soldes"`
	Slug     string         `json:"slug" binding:"required,min=3,max=255" example:"soldes-2025"`
	GameType string         `json:"game_type" binding:"required,oneof=wheel quiz scratch jackpot" example:"wheel"`
	Config   datatypes.JSON `json:"config" swaggertype:"object"`
}

// UpdateCampaignRequest represents the request to update a campaign
type UpdateCampaignRequest struct {
	Name     string         `json:"name" binding:"required" example:"Roue de la fortune - Soldes"`
	GameType string         `json:"game_type" binding:"required,oneof=wheel quiz scratch jackpot" example:"wheel"`
	Config   datatypes.JSON `json:"config" swaggertype:"object"`
}

// CampaignResponse represents the response for campaign operations
type CampaignResponse struct {
	ID                  string         `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	OrganizationID      string         `json:"organization_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	Name                string         `json:"name" example:"Roue de la fortune - Soldes"`
	Slug                string         `json:"slug" example:"soldes-2025"`
	GameType            string         `json:"game_type" example:"wheel"`
	Status              string         `json:"status" example:"published"`
	Config              datatypes.JSON `json:"config" swaggertype:"object"`
	ViewsCount          int            `json:"views_count" example:"1520"`
	ParticipationsCount int            `json:"participations_count" example:"389"`
	CompletionsCount    int            `json:"completions_count" example:"301"`
	CreatedAt           string         `json:"created_at" example:"2025-01-09T10:30:00Z"`
	UpdatedAt           string         `json:"updated_at" example:"2025-01-09T10:30:00Z"`
}

// CampaignStatsResponse aggregates counters and pipeline tallies for the owner dashboard
type CampaignStatsResponse struct {
	CampaignID          string         `json:"campaign_id"`
	ViewsCount          int            `json:"views_count"`
	ParticipationsCount int            `json:"participations_count"`
	CompletionsCount    int            `json:"completions_count"`
	BlockedCount        int64          `json:"blocked_count"`
	BlockedByReason     map[string]int `json:"blocked_by_reason"`
	ResultCounts        map[string]int `json:"result_counts"`
}
