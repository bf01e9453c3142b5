package service_crm

import (
	"fmt"

	"github.com/leadplay/campaign-services-backend/internal/models"
)

// AdapterFactoryImpl implements CRMAdapterFactory
type AdapterFactoryImpl struct{}

// NewAdapterFactory creates a new CRM adapter factory
func NewAdapterFactory() *AdapterFactoryImpl {
	return &AdapterFactoryImpl{}
}

// CreateAdapter creates an adapter instance based on provider name
func (f *AdapterFactoryImpl) CreateAdapter(provider string) (CRMAdapterInterface, error) {
	switch provider {
	case models.ProviderHubSpot:
		return NewHubSpotAdapter(), nil
	case models.ProviderSalesforce:
		return NewSalesforceAdapter(), nil
	case models.ProviderPipedrive:
		return NewPipedriveAdapter(), nil
	case models.ProviderMailchimp:
		return NewMailchimpAdapter(), nil
	case models.ProviderBrevo:
		return NewBrevoAdapter(), nil
	case models.ProviderActiveCampaign:
		return NewActiveCampaignAdapter(), nil
	case models.ProviderZoho:
		return NewZohoAdapter(), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

// GetSupportedProviders returns list of supported CRM providers
func (f *AdapterFactoryImpl) GetSupportedProviders() []string {
	return models.SupportedProviders()
}
