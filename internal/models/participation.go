package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Participation results
const (
	ResultPending = "pending"
	ResultWin     = "win"
	ResultLose    = "lose"
)

// Participation is the canonical record of one visitor playing a campaign's game.
// Once created it is never deleted by normal flow; result moves exactly once
// from pending to win or lose.
type Participation struct {
	ID         string `json:"id" gorm:"primaryKey;type:uuid"`
	CampaignID string `json:"campaign_id" gorm:"not null;index;type:uuid"`

	// AttemptID is the stable session identifier issued when the participation
	// is recorded. Result updates are keyed by it instead of being matched back
	// from participant-supplied contact fields.
	AttemptID string `json:"attempt_id" gorm:"type:uuid;not null;unique;index"`

	// De-duplication signals, all optional
	Email             string `json:"email" gorm:"type:varchar(255);index"`
	IPAddress         string `json:"ip_address" gorm:"type:varchar(45);index"`
	DeviceFingerprint string `json:"device_fingerprint" gorm:"type:varchar(255);index"`

	// Campaign-defined participant fields; schema is not fixed
	ContactData datatypes.JSON `json:"contact_data" gorm:"type:jsonb"`

	Result     string `json:"result" gorm:"type:varchar(10);index;default:'pending'"`
	PrizeLabel string `json:"prize_label" gorm:"type:varchar(255)"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Campaign Campaign `json:"campaign,omitempty" gorm:"foreignKey:CampaignID;references:ID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate is a GORM hook that runs before creating a new record
func (p *Participation) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for the Participation model
func (Participation) TableName() string {
	return "participations"
}

// ValidateParticipationRequest is the public validation payload
type ValidateParticipationRequest struct {
	Email             string `json:"email,omitempty" example:"a@x.com"`
	IPAddress         string `json:"ip_address,omitempty" example:"1.1.1.1"`
	DeviceFingerprint string `json:"device_fingerprint,omitempty" example:"fp-3f7a"`
	City              string `json:"city,omitempty"`
	Country           string `json:"country,omitempty"`
}

// ValidateParticipationResponse is the validation decision returned to the page
type ValidateParticipationResponse struct {
	Allowed     bool   `json:"allowed" example:"false"`
	BlockReason string `json:"block_reason,omitempty" example:"duplicate_email"`
}

// RecordParticipationRequest is the public participation payload
type RecordParticipationRequest struct {
	Email             string         `json:"email,omitempty" example:"a@x.com"`
	IPAddress         string         `json:"ip_address,omitempty"`
	DeviceFingerprint string         `json:"device_fingerprint,omitempty"`
	ContactData       datatypes.JSON `json:"contact_data" swaggertype:"object"`
	Result            string         `json:"result" binding:"omitempty,oneof=pending win lose" example:"pending"`
	PrizeLabel        string         `json:"prize_label,omitempty"`
}

// RecordParticipationResponse confirms an accepted participation
type RecordParticipationResponse struct {
	Allowed     bool   `json:"allowed"`
	BlockReason string `json:"block_reason,omitempty"`
	ID          string `json:"id,omitempty"`
	AttemptID   string `json:"attempt_id,omitempty"`
	Result      string `json:"result,omitempty"`
}

// UpdateResultRequest moves a pending participation to its terminal result
type UpdateResultRequest struct {
	AttemptID  string `json:"attempt_id" binding:"required,uuid"`
	Result     string `json:"result" binding:"required,oneof=win lose" example:"win"`
	PrizeLabel string `json:"prize_label,omitempty"`
}

// ParticipationResponse represents a participation in owner-facing listings
type ParticipationResponse struct {
	ID                string         `json:"id"`
	CampaignID        string         `json:"campaign_id"`
	AttemptID         string         `json:"attempt_id"`
	Email             string         `json:"email,omitempty"`
	IPAddress         string         `json:"ip_address,omitempty"`
	DeviceFingerprint string         `json:"device_fingerprint,omitempty"`
	ContactData       datatypes.JSON `json:"contact_data" swaggertype:"object"`
	Result            string         `json:"result"`
	PrizeLabel        string         `json:"prize_label,omitempty"`
	CreatedAt         string         `json:"created_at"`
}
