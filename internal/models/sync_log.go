package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sync actions reported by CRM adapters
const (
	SyncActionCreated = "created"
	SyncActionUpdated = "updated"
)

// IntegrationSyncLog is the audit trail of one adapter call during fan-out.
// One participation produces one row per connected integration.
type IntegrationSyncLog struct {
	ID              string `json:"id" gorm:"primaryKey;type:uuid"`
	IntegrationID   string `json:"integration_id" gorm:"not null;index;type:uuid"`
	ParticipationID string `json:"participation_id" gorm:"not null;index;type:uuid"`
	Provider        string `json:"provider" gorm:"type:varchar(30);not null;index"`

	Success    bool   `json:"success" gorm:"index"`
	Action     string `json:"action" gorm:"type:varchar(10)"` // created or updated, empty on failure
	ExternalID string `json:"external_id" gorm:"type:varchar(255)"`
	Error      string `json:"error" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`

	// Relationships
	Integration   Integration   `json:"integration,omitempty" gorm:"foreignKey:IntegrationID;references:ID;constraint:OnDelete:CASCADE"`
	Participation Participation `json:"participation,omitempty" gorm:"foreignKey:ParticipationID;references:ID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate is a GORM hook that runs before creating a new record
func (l *IntegrationSyncLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for the IntegrationSyncLog model
func (IntegrationSyncLog) TableName() string {
	return "integration_sync_logs"
}

// SyncLogResponse represents a sync log entry in owner-facing listings
type SyncLogResponse struct {
	ID              string `json:"id"`
	IntegrationID   string `json:"integration_id"`
	ParticipationID string `json:"participation_id"`
	Provider        string `json:"provider"`
	Success         bool   `json:"success"`
	Action          string `json:"action,omitempty"`
	ExternalID      string `json:"external_id,omitempty"`
	Error           string `json:"error,omitempty"`
	CreatedAt       string `json:"created_at"`
}
