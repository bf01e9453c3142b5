package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Block reasons returned by the participation validator
const (
	BlockReasonDuplicateEmail  = "duplicate_email"
	BlockReasonDuplicateIP     = "duplicate_ip"
	BlockReasonDuplicateDevice = "duplicate_device"
)

// BlockedParticipation records a rejected validation so repeat attempts hit a
// fast path instead of rescanning participations. Rows are only created as a
// side effect of a rejection, never speculatively.
type BlockedParticipation struct {
	ID         string `json:"id" gorm:"primaryKey;type:uuid"`
	CampaignID string `json:"campaign_id" gorm:"not null;index;type:uuid"`

	Email             string `json:"email" gorm:"type:varchar(255);index"`
	IPAddress         string `json:"ip_address" gorm:"type:varchar(45);index"`
	DeviceFingerprint string `json:"device_fingerprint" gorm:"type:varchar(255);index"`

	BlockReason string `json:"block_reason" gorm:"type:varchar(30);not null"`

	CreatedAt time.Time `json:"created_at"`

	// Relationships
	Campaign Campaign `json:"campaign,omitempty" gorm:"foreignKey:CampaignID;references:ID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate is a GORM hook that runs before creating a new record
func (b *BlockedParticipation) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for the BlockedParticipation model
func (BlockedParticipation) TableName() string {
	return "blocked_participations"
}
