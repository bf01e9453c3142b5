package service_crm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/leadplay/campaign-services-backend/internal/config"
	"github.com/leadplay/campaign-services-backend/internal/models"
)

// activeCampaignFieldMapping maps canonical lead fields to ActiveCampaign contact fields
var activeCampaignFieldMapping = map[string]string{
	"email":      "email",
	"first_name": "firstName",
	"last_name":  "lastName",
	"phone":      "phone",
}

// ActiveCampaignAdapter syncs leads to ActiveCampaign contacts
type ActiveCampaignAdapter struct {
	baseURL string
	client  *http.Client
}

// NewActiveCampaignAdapter creates a new ActiveCampaign adapter
func NewActiveCampaignAdapter() *ActiveCampaignAdapter {
	return &ActiveCampaignAdapter{
		baseURL: config.GetProviderRoutes().ActiveCampaign,
		client:  newHTTPClient(),
	}
}

// Sync upserts the lead as an ActiveCampaign contact: search by email, then
// PUT the existing contact or POST a new one. The account-specific API URL
// comes from the credential bundle.
func (a *ActiveCampaignAdapter) Sync(ctx context.Context, lead *models.Lead, creds Credentials) (*SyncResult, error) {
	if err := a.ValidateCredentials(creds); err != nil {
		return nil, err
	}
	apiURL := a.accountURL(creds)
	headers := map[string]string{
		"Api-Token": creds["api_key"],
	}

	existingID, err := a.searchByEmail(ctx, apiURL, lead.Email, headers)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"contact": mapLeadFields(lead.Fields(), activeCampaignFieldMapping),
	}

	if existingID != "" {
		endpoint := fmt.Sprintf("%s/api/3/contacts/%s", apiURL, existingID)
		status, body, err := doJSON(ctx, a.client, http.MethodPut, endpoint, headers, payload)
		if err != nil {
			return nil, fmt.Errorf("activecampaign update failed: %w", err)
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("activecampaign update returned status %d: %s", status, string(body))
		}
		return &SyncResult{Action: models.SyncActionUpdated, ExternalID: existingID}, nil
	}

	endpoint := apiURL + "/api/3/contacts"
	status, body, err := doJSON(ctx, a.client, http.MethodPost, endpoint, headers, payload)
	if err != nil {
		return nil, fmt.Errorf("activecampaign create failed: %w", err)
	}
	if status != http.StatusCreated {
		return nil, fmt.Errorf("activecampaign create returned status %d: %s", status, string(body))
	}

	var created struct {
		Contact struct {
			ID string `json:"id"`
		} `json:"contact"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("failed to parse activecampaign create response: %w", err)
	}
	return &SyncResult{Action: models.SyncActionCreated, ExternalID: created.Contact.ID}, nil
}

func (a *ActiveCampaignAdapter) searchByEmail(ctx context.Context, apiURL, email string, headers map[string]string) (string, error) {
	endpoint := fmt.Sprintf("%s/api/3/contacts?email=%s", apiURL, url.QueryEscape(email))

	status, body, err := doJSON(ctx, a.client, http.MethodGet, endpoint, headers, nil)
	if err != nil {
		return "", fmt.Errorf("activecampaign search failed: %w", err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("activecampaign search returned status %d: %s", status, string(body))
	}

	var result struct {
		Contacts []struct {
			ID string `json:"id"`
		} `json:"contacts"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse activecampaign search response: %w", err)
	}
	if len(result.Contacts) > 0 {
		return result.Contacts[0].ID, nil
	}
	return "", nil
}

func (a *ActiveCampaignAdapter) accountURL(creds Credentials) string {
	if creds["api_url"] != "" {
		return creds["api_url"]
	}
	return a.baseURL
}

// GetProviderName returns the provider name
func (a *ActiveCampaignAdapter) GetProviderName() string {
	return models.ProviderActiveCampaign
}

// ValidateCredentials validates the ActiveCampaign credential bundle
func (a *ActiveCampaignAdapter) ValidateCredentials(creds Credentials) error {
	if creds["api_key"] == "" {
		return fmt.Errorf("activecampaign api_key is required")
	}
	if creds["api_url"] == "" && a.baseURL == "" {
		return fmt.Errorf("activecampaign api_url is required")
	}
	return nil
}
