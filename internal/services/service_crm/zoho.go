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

// zohoFieldMapping maps canonical lead fields to Zoho CRM Lead fields
var zohoFieldMapping = map[string]string{
	"email":       "Email",
	"first_name":  "First_Name",
	"last_name":   "Last_Name",
	"phone":       "Phone",
	"address":     "Street",
	"city":        "City",
	"postal_code": "Zip_Code",
	"country":     "Country",
	"company":     "Company",
	"job_title":   "Designation",
	"industry":    "Industry",
	"website":     "Website",
	"lead_source": "Lead_Source",
	"salutation":  "Salutation",
}

// ZohoAdapter syncs leads to Zoho CRM Lead records
type ZohoAdapter struct {
	baseURL string
	client  *http.Client
}

// NewZohoAdapter creates a new Zoho adapter
func NewZohoAdapter() *ZohoAdapter {
	return &ZohoAdapter{
		baseURL: config.GetProviderRoutes().Zoho,
		client:  newHTTPClient(),
	}
}

// Sync upserts the lead as a Zoho CRM Lead: search by email, then PUT the
// existing record or POST a new one. Zoho, like Salesforce, mandates
// Last_Name and Company; missing values get deterministic placeholders.
func (a *ZohoAdapter) Sync(ctx context.Context, lead *models.Lead, creds Credentials) (*SyncResult, error) {
	if err := a.ValidateCredentials(creds); err != nil {
		return nil, err
	}
	headers := map[string]string{
		"Authorization": "Zoho-oauthtoken " + creds["access_token"],
	}

	existingID, err := a.searchByEmail(ctx, lead.Email, headers)
	if err != nil {
		return nil, err
	}

	fields := mapLeadFields(lead.Fields(), zohoFieldMapping)
	if _, ok := fields["Last_Name"]; !ok {
		fields["Last_Name"] = emailLocalPart(lead.Email)
	}
	if _, ok := fields["Company"]; !ok {
		fields["Company"] = placeholderCompany
	}
	payload := map[string]interface{}{
		"data": []map[string]interface{}{fields},
	}

	if existingID != "" {
		endpoint := fmt.Sprintf("%s/Leads/%s", a.baseURL, existingID)
		status, body, err := doJSON(ctx, a.client, http.MethodPut, endpoint, headers, payload)
		if err != nil {
			return nil, fmt.Errorf("zoho update failed: %w", err)
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("zoho update returned status %d: %s", status, string(body))
		}
		return &SyncResult{Action: models.SyncActionUpdated, ExternalID: existingID}, nil
	}

	endpoint := a.baseURL + "/Leads"
	status, body, err := doJSON(ctx, a.client, http.MethodPost, endpoint, headers, payload)
	if err != nil {
		return nil, fmt.Errorf("zoho create failed: %w", err)
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return nil, fmt.Errorf("zoho create returned status %d: %s", status, string(body))
	}

	var created struct {
		Data []struct {
			Details struct {
				ID string `json:"id"`
			} `json:"details"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("failed to parse zoho create response: %w", err)
	}
	externalID := ""
	if len(created.Data) > 0 {
		externalID = created.Data[0].Details.ID
	}
	return &SyncResult{Action: models.SyncActionCreated, ExternalID: externalID}, nil
}

func (a *ZohoAdapter) searchByEmail(ctx context.Context, email string, headers map[string]string) (string, error) {
	endpoint := fmt.Sprintf("%s/Leads/search?email=%s", a.baseURL, url.QueryEscape(email))

	status, body, err := doJSON(ctx, a.client, http.MethodGet, endpoint, headers, nil)
	if err != nil {
		return "", fmt.Errorf("zoho search failed: %w", err)
	}
	// Zoho answers 204 with an empty body when nothing matches
	if status == http.StatusNoContent {
		return "", nil
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("zoho search returned status %d: %s", status, string(body))
	}

	var result struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse zoho search response: %w", err)
	}
	if len(result.Data) > 0 {
		return result.Data[0].ID, nil
	}
	return "", nil
}

// GetProviderName returns the provider name
func (a *ZohoAdapter) GetProviderName() string {
	return models.ProviderZoho
}

// ValidateCredentials validates the Zoho credential bundle
func (a *ZohoAdapter) ValidateCredentials(creds Credentials) error {
	if creds["access_token"] == "" {
		return fmt.Errorf("zoho access_token is required")
	}
	return nil
}
