package config

import (
	"os"
	"time"
)

// CRMConfig contains settings shared by every CRM adapter call
type CRMConfig struct {
	// Per-adapter HTTP timeout; a slow provider must not hold fan-out work open
	SyncTimeout time.Duration `json:"sync_timeout"`
}

// ProviderRoutes maps a provider to its API base URL. Base URLs are
// overridable from the environment so tests and sandboxes can point adapters
// at local servers.
type ProviderRoutes struct {
	HubSpot        string `json:"hubspot"`
	Salesforce     string `json:"salesforce"`
	Pipedrive      string `json:"pipedrive"`
	Mailchimp      string `json:"mailchimp"` // {dc} replaced with the datacenter from the API key
	Brevo          string `json:"brevo"`
	ActiveCampaign string `json:"activecampaign"` // account-specific, taken from credentials when set
	Zoho           string `json:"zoho"`
}

// GetCRMConfig returns CRM sync configuration
func GetCRMConfig() *CRMConfig {
	timeout := 10 * time.Second
	if v := os.Getenv("CRM_SYNC_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			timeout = parsed
		}
	}
	return &CRMConfig{
		SyncTimeout: timeout,
	}
}

// GetProviderRoutes returns the provider base URLs
func GetProviderRoutes() *ProviderRoutes {
	return &ProviderRoutes{
		HubSpot:        getEnvDefault("HUBSPOT_BASE_URL", "https://api.hubapi.com"),
		Salesforce:     getEnvDefault("SALESFORCE_BASE_URL", ""), // instance URL comes from credentials
		Pipedrive:      getEnvDefault("PIPEDRIVE_BASE_URL", "https://api.pipedrive.com/v1"),
		Mailchimp:      getEnvDefault("MAILCHIMP_BASE_URL", "https://{dc}.api.mailchimp.com/3.0"),
		Brevo:          getEnvDefault("BREVO_BASE_URL", "https://api.brevo.com/v3"),
		ActiveCampaign: getEnvDefault("ACTIVECAMPAIGN_BASE_URL", ""),
		Zoho:           getEnvDefault("ZOHO_BASE_URL", "https://www.zohoapis.com/crm/v2"),
	}
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
