package service_crm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/leadplay/campaign-services-backend/internal/config"
	"github.com/leadplay/campaign-services-backend/internal/models"
)

// salesforceFieldMapping maps canonical lead fields to Salesforce Lead fields
var salesforceFieldMapping = map[string]string{
	"email":        "Email",
	"first_name":   "FirstName",
	"last_name":    "LastName",
	"phone":        "Phone",
	"address":      "Street",
	"city":         "City",
	"postal_code":  "PostalCode",
	"country":      "Country",
	"company":      "Company",
	"job_title":    "Title",
	"industry":     "Industry",
	"website":      "Website",
	"salutation":   "Salutation",
	"lead_source":  "LeadSource",
	"company_size": "NumberOfEmployees",
}

const salesforceAPIVersion = "v58.0"

// SalesforceAdapter syncs leads to Salesforce Lead records
type SalesforceAdapter struct {
	baseURL string
	client  *http.Client
}

// NewSalesforceAdapter creates a new Salesforce adapter
func NewSalesforceAdapter() *SalesforceAdapter {
	return &SalesforceAdapter{
		baseURL: config.GetProviderRoutes().Salesforce,
		client:  newHTTPClient(),
	}
}

// Sync upserts the lead as a Salesforce Lead via SOQL search then create/update.
// Salesforce mandates LastName and Company on a Lead; missing values get
// deterministic placeholders instead of failing the sync.
func (a *SalesforceAdapter) Sync(ctx context.Context, lead *models.Lead, creds Credentials) (*SyncResult, error) {
	if err := a.ValidateCredentials(creds); err != nil {
		return nil, err
	}
	instanceURL := a.instanceURL(creds)
	headers := map[string]string{
		"Authorization": "Bearer " + creds["access_token"],
	}

	existingID, err := a.searchByEmail(ctx, instanceURL, lead.Email, headers)
	if err != nil {
		return nil, err
	}

	fields := mapLeadFields(lead.Fields(), salesforceFieldMapping)
	if _, ok := fields["LastName"]; !ok {
		fields["LastName"] = emailLocalPart(lead.Email)
	}
	if _, ok := fields["Company"]; !ok {
		fields["Company"] = placeholderCompany
	}

	if existingID != "" {
		endpoint := fmt.Sprintf("%s/services/data/%s/sobjects/Lead/%s", instanceURL, salesforceAPIVersion, existingID)
		status, body, err := doJSON(ctx, a.client, http.MethodPatch, endpoint, headers, fields)
		if err != nil {
			return nil, fmt.Errorf("salesforce update failed: %w", err)
		}
		if status != http.StatusNoContent && status != http.StatusOK {
			return nil, fmt.Errorf("salesforce update returned status %d: %s", status, string(body))
		}
		return &SyncResult{Action: models.SyncActionUpdated, ExternalID: existingID}, nil
	}

	endpoint := fmt.Sprintf("%s/services/data/%s/sobjects/Lead", instanceURL, salesforceAPIVersion)
	status, body, err := doJSON(ctx, a.client, http.MethodPost, endpoint, headers, fields)
	if err != nil {
		return nil, fmt.Errorf("salesforce create failed: %w", err)
	}
	if status != http.StatusCreated {
		return nil, fmt.Errorf("salesforce create returned status %d: %s", status, string(body))
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("failed to parse salesforce create response: %w", err)
	}
	return &SyncResult{Action: models.SyncActionCreated, ExternalID: created.ID}, nil
}

// soqlQuoteEscaper escapes the SOQL string-literal metacharacters; a quote is
// legal in an email local part and must not break out of the literal
var soqlQuoteEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func (a *SalesforceAdapter) searchByEmail(ctx context.Context, instanceURL, email string, headers map[string]string) (string, error) {
	soql := fmt.Sprintf("SELECT Id FROM Lead WHERE Email = '%s' LIMIT 1", soqlQuoteEscaper.Replace(email))
	endpoint := fmt.Sprintf("%s/services/data/%s/query?q=%s", instanceURL, salesforceAPIVersion, url.QueryEscape(soql))

	status, body, err := doJSON(ctx, a.client, http.MethodGet, endpoint, headers, nil)
	if err != nil {
		return "", fmt.Errorf("salesforce search failed: %w", err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("salesforce search returned status %d: %s", status, string(body))
	}

	var result struct {
		TotalSize int `json:"totalSize"`
		Records   []struct {
			ID string `json:"Id"`
		} `json:"records"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse salesforce search response: %w", err)
	}
	if len(result.Records) > 0 {
		return result.Records[0].ID, nil
	}
	return "", nil
}

// instanceURL prefers the account-specific instance from credentials over the
// configured base URL
func (a *SalesforceAdapter) instanceURL(creds Credentials) string {
	if creds["instance_url"] != "" {
		return creds["instance_url"]
	}
	return a.baseURL
}

// GetProviderName returns the provider name
func (a *SalesforceAdapter) GetProviderName() string {
	return models.ProviderSalesforce
}

// ValidateCredentials validates the Salesforce credential bundle
func (a *SalesforceAdapter) ValidateCredentials(creds Credentials) error {
	if creds["access_token"] == "" {
		return fmt.Errorf("salesforce access_token is required")
	}
	if creds["instance_url"] == "" && a.baseURL == "" {
		return fmt.Errorf("salesforce instance_url is required")
	}
	return nil
}
