package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Supported CRM providers
const (
	ProviderHubSpot        = "hubspot"
	ProviderSalesforce     = "salesforce"
	ProviderPipedrive      = "pipedrive"
	ProviderMailchimp      = "mailchimp"
	ProviderBrevo          = "brevo"
	ProviderActiveCampaign = "activecampaign"
	ProviderZoho           = "zoho"
)

// Integration statuses
const (
	IntegrationStatusConnected    = "connected"
	IntegrationStatusDisconnected = "disconnected"
	IntegrationStatusError        = "error"
)

// Integration is an organization's connection to an external CRM provider.
// Credentials are an opaque provider-specific bundle stored as JSON.
type Integration struct {
	ID             string `json:"id" gorm:"primaryKey;type:uuid"`
	OrganizationID string `json:"organization_id" gorm:"not null;index;type:uuid"`
	Provider       string `json:"provider" gorm:"type:varchar(30);not null;index"`

	Credentials datatypes.JSON `json:"-" gorm:"type:jsonb"`

	Status        string     `json:"status" gorm:"type:varchar(20);index;default:'connected'"`
	LastSyncAt    *time.Time `json:"last_sync_at"`
	LastSyncError string     `json:"last_sync_error" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Organization Organization `json:"organization,omitempty" gorm:"foreignKey:OrganizationID;references:ID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate is a GORM hook that runs before creating a new record
func (i *Integration) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for the Integration model
func (Integration) TableName() string {
	return "integrations"
}

// SupportedProviders lists every CRM provider the backend can sync to
func SupportedProviders() []string {
	return []string{
		ProviderHubSpot,
		ProviderSalesforce,
		ProviderPipedrive,
		ProviderMailchimp,
		ProviderBrevo,
		ProviderActiveCampaign,
		ProviderZoho,
	}
}

// ConnectIntegrationRequest stores a provider credential bundle for the organization
type ConnectIntegrationRequest struct {
	Provider    string         `json:"provider" binding:"required,oneof=hubspot salesforce pipedrive mailchimp brevo activecampaign zoho" example:"hubspot"`
	Credentials datatypes.JSON `json:"credentials" binding:"required" swaggertype:"object"`
}

// IntegrationResponse represents an integration in owner-facing listings
type IntegrationResponse struct {
	ID            string     `json:"id"`
	Provider      string     `json:"provider"`
	Status        string     `json:"status"`
	LastSyncAt    *time.Time `json:"last_sync_at,omitempty"`
	LastSyncError string     `json:"last_sync_error,omitempty"`
	CreatedAt     string     `json:"created_at"`
}
