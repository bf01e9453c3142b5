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

// PipedriveAdapter syncs leads to Pipedrive persons
type PipedriveAdapter struct {
	baseURL string
	client  *http.Client
}

// NewPipedriveAdapter creates a new Pipedrive adapter
func NewPipedriveAdapter() *PipedriveAdapter {
	return &PipedriveAdapter{
		baseURL: config.GetProviderRoutes().Pipedrive,
		client:  newHTTPClient(),
	}
}

// Sync upserts the lead as a Pipedrive person: search by email, then PUT the
// existing person or POST a new one. Pipedrive authenticates with an api_token
// query parameter.
func (a *PipedriveAdapter) Sync(ctx context.Context, lead *models.Lead, creds Credentials) (*SyncResult, error) {
	if err := a.ValidateCredentials(creds); err != nil {
		return nil, err
	}
	token := creds["api_token"]

	existingID, err := a.searchByEmail(ctx, lead.Email, token)
	if err != nil {
		return nil, err
	}

	payload := a.buildPerson(lead)

	if existingID != 0 {
		endpoint := fmt.Sprintf("%s/persons/%d?api_token=%s", a.baseURL, existingID, url.QueryEscape(token))
		status, body, err := doJSON(ctx, a.client, http.MethodPut, endpoint, nil, payload)
		if err != nil {
			return nil, fmt.Errorf("pipedrive update failed: %w", err)
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("pipedrive update returned status %d: %s", status, string(body))
		}
		return &SyncResult{Action: models.SyncActionUpdated, ExternalID: fmt.Sprintf("%d", existingID)}, nil
	}

	endpoint := fmt.Sprintf("%s/persons?api_token=%s", a.baseURL, url.QueryEscape(token))
	status, body, err := doJSON(ctx, a.client, http.MethodPost, endpoint, nil, payload)
	if err != nil {
		return nil, fmt.Errorf("pipedrive create failed: %w", err)
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, fmt.Errorf("pipedrive create returned status %d: %s", status, string(body))
	}

	var created struct {
		Data struct {
			ID int `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("failed to parse pipedrive create response: %w", err)
	}
	return &SyncResult{Action: models.SyncActionCreated, ExternalID: fmt.Sprintf("%d", created.Data.ID)}, nil
}

// buildPerson assembles the Pipedrive person payload. Pipedrive wants a single
// name field plus email/phone arrays, so the mapping differs from the flat
// table pattern of the other adapters.
func (a *PipedriveAdapter) buildPerson(lead *models.Lead) map[string]interface{} {
	name := lead.FirstName
	if lead.LastName != "" {
		if name != "" {
			name += " "
		}
		name += lead.LastName
	}
	if name == "" {
		name = emailLocalPart(lead.Email)
	}

	payload := map[string]interface{}{
		"name":  name,
		"email": []map[string]interface{}{{"value": lead.Email, "primary": true}},
	}
	if lead.Phone != "" {
		payload["phone"] = []map[string]interface{}{{"value": lead.Phone, "primary": true}}
	}
	if lead.JobTitle != "" {
		payload["job_title"] = lead.JobTitle
	}
	return payload
}

func (a *PipedriveAdapter) searchByEmail(ctx context.Context, email, token string) (int, error) {
	endpoint := fmt.Sprintf("%s/persons/search?term=%s&fields=email&exact_match=true&api_token=%s",
		a.baseURL, url.QueryEscape(email), url.QueryEscape(token))

	status, body, err := doJSON(ctx, a.client, http.MethodGet, endpoint, nil, nil)
	if err != nil {
		return 0, fmt.Errorf("pipedrive search failed: %w", err)
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("pipedrive search returned status %d: %s", status, string(body))
	}

	var result struct {
		Data struct {
			Items []struct {
				Item struct {
					ID int `json:"id"`
				} `json:"item"`
			} `json:"items"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, fmt.Errorf("failed to parse pipedrive search response: %w", err)
	}
	if len(result.Data.Items) > 0 {
		return result.Data.Items[0].Item.ID, nil
	}
	return 0, nil
}

// GetProviderName returns the provider name
func (a *PipedriveAdapter) GetProviderName() string {
	return models.ProviderPipedrive
}

// ValidateCredentials validates the Pipedrive credential bundle
func (a *PipedriveAdapter) ValidateCredentials(creds Credentials) error {
	if creds["api_token"] == "" {
		return fmt.Errorf("pipedrive api_token is required")
	}
	return nil
}
