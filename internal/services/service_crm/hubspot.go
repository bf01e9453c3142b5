package service_crm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/leadplay/campaign-services-backend/internal/config"
	"github.com/leadplay/campaign-services-backend/internal/models"
)

// hubspotFieldMapping maps canonical lead fields to HubSpot contact properties
var hubspotFieldMapping = map[string]string{
	"email":        "email",
	"first_name":   "firstname",
	"last_name":    "lastname",
	"phone":        "phone",
	"address":      "address",
	"city":         "city",
	"postal_code":  "zip",
	"country":      "country",
	"company":      "company",
	"job_title":    "jobtitle",
	"industry":     "industry",
	"website":      "website",
	"lead_source":  "hs_lead_status",
	"gdpr_consent": "hs_legal_basis",
}

// HubSpotAdapter syncs leads to HubSpot contacts
type HubSpotAdapter struct {
	baseURL string
	client  *http.Client
}

// NewHubSpotAdapter creates a new HubSpot adapter
func NewHubSpotAdapter() *HubSpotAdapter {
	return &HubSpotAdapter{
		baseURL: config.GetProviderRoutes().HubSpot,
		client:  newHTTPClient(),
	}
}

// Sync upserts the lead as a HubSpot contact: search by email, then PATCH the
// existing contact or POST a new one.
func (a *HubSpotAdapter) Sync(ctx context.Context, lead *models.Lead, creds Credentials) (*SyncResult, error) {
	if err := a.ValidateCredentials(creds); err != nil {
		return nil, err
	}
	headers := map[string]string{
		"Authorization": "Bearer " + creds["access_token"],
	}

	existingID, err := a.searchByEmail(ctx, lead.Email, headers)
	if err != nil {
		return nil, err
	}

	properties := mapLeadFields(lead.Fields(), hubspotFieldMapping)
	payload := map[string]interface{}{"properties": properties}

	if existingID != "" {
		url := fmt.Sprintf("%s/crm/v3/objects/contacts/%s", a.baseURL, existingID)
		status, body, err := doJSON(ctx, a.client, http.MethodPatch, url, headers, payload)
		if err != nil {
			return nil, fmt.Errorf("hubspot update failed: %w", err)
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("hubspot update returned status %d: %s", status, string(body))
		}
		return &SyncResult{Action: models.SyncActionUpdated, ExternalID: existingID}, nil
	}

	url := a.baseURL + "/crm/v3/objects/contacts"
	status, body, err := doJSON(ctx, a.client, http.MethodPost, url, headers, payload)
	if err != nil {
		return nil, fmt.Errorf("hubspot create failed: %w", err)
	}
	if status != http.StatusCreated {
		return nil, fmt.Errorf("hubspot create returned status %d: %s", status, string(body))
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("failed to parse hubspot create response: %w", err)
	}
	return &SyncResult{Action: models.SyncActionCreated, ExternalID: created.ID}, nil
}

func (a *HubSpotAdapter) searchByEmail(ctx context.Context, email string, headers map[string]string) (string, error) {
	payload := map[string]interface{}{
		"filterGroups": []map[string]interface{}{
			{
				"filters": []map[string]interface{}{
					{"propertyName": "email", "operator": "EQ", "value": email},
				},
			},
		},
		"limit": 1,
	}

	url := a.baseURL + "/crm/v3/objects/contacts/search"
	status, body, err := doJSON(ctx, a.client, http.MethodPost, url, headers, payload)
	if err != nil {
		return "", fmt.Errorf("hubspot search failed: %w", err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("hubspot search returned status %d: %s", status, string(body))
	}

	var result struct {
		Total   int `json:"total"`
		Results []struct {
			ID string `json:"id"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse hubspot search response: %w", err)
	}
	if len(result.Results) > 0 {
		return result.Results[0].ID, nil
	}
	return "", nil
}

// GetProviderName returns the provider name
func (a *HubSpotAdapter) GetProviderName() string {
	return models.ProviderHubSpot
}

// ValidateCredentials validates the HubSpot credential bundle
func (a *HubSpotAdapter) ValidateCredentials(creds Credentials) error {
	if creds["access_token"] == "" {
		return fmt.Errorf("hubspot access_token is required")
	}
	return nil
}
