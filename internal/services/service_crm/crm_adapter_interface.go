package service_crm

import (
	"context"

	"github.com/leadplay/campaign-services-backend/internal/models"
)

// Credentials is the opaque provider-specific secret bundle stored on an
// integration, decoded to a flat string map.
type Credentials map[string]string

// SyncResult describes a successful adapter call
type SyncResult struct {
	Action     string `json:"action"` // created or updated
	ExternalID string `json:"external_id,omitempty"`
}

// CRMAdapterInterface defines the operations every CRM provider adapter implements.
// Sync performs an idempotent upsert: search the provider by email, then update
// the existing record or create a new one. All provider failures come back as
// an error; adapters never panic across this boundary.
type CRMAdapterInterface interface {
	Sync(ctx context.Context, lead *models.Lead, creds Credentials) (*SyncResult, error)

	// Provider info
	GetProviderName() string
	ValidateCredentials(creds Credentials) error
}

// CRMAdapterFactory creates adapter instances per provider
type CRMAdapterFactory interface {
	CreateAdapter(provider string) (CRMAdapterInterface, error)
	GetSupportedProviders() []string
}
