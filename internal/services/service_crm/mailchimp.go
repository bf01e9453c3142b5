package service_crm

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/leadplay/campaign-services-backend/internal/config"
	"github.com/leadplay/campaign-services-backend/internal/models"
)

// mailchimpFieldMapping maps canonical lead fields to Mailchimp merge fields
var mailchimpFieldMapping = map[string]string{
	"first_name": "FNAME",
	"last_name":  "LNAME",
	"phone":      "PHONE",
	"address":    "ADDRESS",
	"birthdate":  "BIRTHDAY",
	"company":    "COMPANY",
}

// MailchimpAdapter syncs leads to a Mailchimp audience
type MailchimpAdapter struct {
	baseURL string
	client  *http.Client
}

// NewMailchimpAdapter creates a new Mailchimp adapter
func NewMailchimpAdapter() *MailchimpAdapter {
	return &MailchimpAdapter{
		baseURL: config.GetProviderRoutes().Mailchimp,
		client:  newHTTPClient(),
	}
}

// Sync upserts the lead as an audience member. Mailchimp collapses
// search-then-create into a single idempotent PUT keyed by the MD5 of the
// lowercased email. The upsert response does not say whether the member
// existed, so a lookup on the same endpoint beforehand decides the action
// recorded in the sync log.
func (a *MailchimpAdapter) Sync(ctx context.Context, lead *models.Lead, creds Credentials) (*SyncResult, error) {
	if err := a.ValidateCredentials(creds); err != nil {
		return nil, err
	}

	subscriberHash := fmt.Sprintf("%x", md5.Sum([]byte(strings.ToLower(lead.Email))))
	endpoint := fmt.Sprintf("%s/lists/%s/members/%s", a.resolveBaseURL(creds), creds["list_id"], subscriberHash)

	headers := map[string]string{
		"Authorization": "Basic " + base64.StdEncoding.EncodeToString([]byte("anystring:"+creds["api_key"])),
	}

	status, body, err := doJSON(ctx, a.client, http.MethodGet, endpoint, headers, nil)
	if err != nil {
		return nil, fmt.Errorf("mailchimp lookup failed: %w", err)
	}
	if status != http.StatusOK && status != http.StatusNotFound {
		return nil, fmt.Errorf("mailchimp lookup returned status %d: %s", status, string(body))
	}
	existed := status == http.StatusOK

	mergeFields := mapLeadFields(lead.Fields(), mailchimpFieldMapping)
	payload := map[string]interface{}{
		"email_address": lead.Email,
		"status_if_new": "subscribed",
		"merge_fields":  mergeFields,
	}

	status, body, err = doJSON(ctx, a.client, http.MethodPut, endpoint, headers, payload)
	if err != nil {
		return nil, fmt.Errorf("mailchimp upsert failed: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("mailchimp upsert returned status %d: %s", status, string(body))
	}

	var member struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &member); err != nil {
		return nil, fmt.Errorf("failed to parse mailchimp response: %w", err)
	}

	action := models.SyncActionCreated
	if existed {
		action = models.SyncActionUpdated
	}
	return &SyncResult{Action: action, ExternalID: member.ID}, nil
}

// resolveBaseURL substitutes the datacenter from the API key suffix
// (key format: xxxx-us21) into the configured base URL.
func (a *MailchimpAdapter) resolveBaseURL(creds Credentials) string {
	base := a.baseURL
	if strings.Contains(base, "{dc}") {
		dc := "us1"
		if i := strings.LastIndex(creds["api_key"], "-"); i >= 0 && i+1 < len(creds["api_key"]) {
			dc = creds["api_key"][i+1:]
		}
		base = strings.Replace(base, "{dc}", dc, 1)
	}
	return base
}

// GetProviderName returns the provider name
func (a *MailchimpAdapter) GetProviderName() string {
	return models.ProviderMailchimp
}

// ValidateCredentials validates the Mailchimp credential bundle
func (a *MailchimpAdapter) ValidateCredentials(creds Credentials) error {
	if creds["api_key"] == "" {
		return fmt.Errorf("mailchimp api_key is required")
	}
	if creds["list_id"] == "" {
		return fmt.Errorf("mailchimp list_id is required")
	}
	return nil
}
