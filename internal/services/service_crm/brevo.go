package service_crm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/leadplay/campaign-services-backend/internal/config"
	"github.com/leadplay/campaign-services-backend/internal/models"
)

// brevoFieldMapping maps canonical lead fields to Brevo contact attributes
var brevoFieldMapping = map[string]string{
	"first_name": "FIRSTNAME",
	"last_name":  "LASTNAME",
	"phone":      "SMS",
	"city":       "CITY",
	"country":    "COUNTRY",
	"company":    "COMPANY",
	"job_title":  "JOB_TITLE",
	"birthdate":  "BIRTHDAY",
}

// BrevoAdapter syncs leads to Brevo (formerly Sendinblue) contacts
type BrevoAdapter struct {
	baseURL string
	client  *http.Client
}

// NewBrevoAdapter creates a new Brevo adapter
func NewBrevoAdapter() *BrevoAdapter {
	return &BrevoAdapter{
		baseURL: config.GetProviderRoutes().Brevo,
		client:  newHTTPClient(),
	}
}

// Sync upserts the lead as a Brevo contact. Brevo collapses
// search-then-create into a single POST with updateEnabled; 201 means a new
// contact, 204 means an existing one was updated.
func (a *BrevoAdapter) Sync(ctx context.Context, lead *models.Lead, creds Credentials) (*SyncResult, error) {
	if err := a.ValidateCredentials(creds); err != nil {
		return nil, err
	}
	headers := map[string]string{
		"api-key": creds["api_key"],
	}

	payload := map[string]interface{}{
		"email":         lead.Email,
		"updateEnabled": true,
		"attributes":    mapLeadFields(lead.Fields(), brevoFieldMapping),
	}

	endpoint := a.baseURL + "/contacts"
	status, body, err := doJSON(ctx, a.client, http.MethodPost, endpoint, headers, payload)
	if err != nil {
		return nil, fmt.Errorf("brevo upsert failed: %w", err)
	}

	switch status {
	case http.StatusCreated:
		return &SyncResult{Action: models.SyncActionCreated, ExternalID: lead.Email}, nil
	case http.StatusNoContent:
		return &SyncResult{Action: models.SyncActionUpdated, ExternalID: lead.Email}, nil
	default:
		return nil, fmt.Errorf("brevo upsert returned status %d: %s", status, string(body))
	}
}

// GetProviderName returns the provider name
func (a *BrevoAdapter) GetProviderName() string {
	return models.ProviderBrevo
}

// ValidateCredentials validates the Brevo credential bundle
func (a *BrevoAdapter) ValidateCredentials(creds Credentials) error {
	if creds["api_key"] == "" {
		return fmt.Errorf("brevo api_key is required")
	}
	return nil
}
