package models

// Lead is the canonical contact shape fed to every CRM adapter. It is a
// deliberate superset of any single provider's schema; adapters translate it
// through their own field-mapping tables and drop what they cannot place.
type Lead struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`

	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`

	Company     string `json:"company,omitempty"`
	JobTitle    string `json:"job_title,omitempty"`
	Industry    string `json:"industry,omitempty"`
	CompanySize string `json:"company_size,omitempty"`
	Website     string `json:"website,omitempty"`
	LinkedIn    string `json:"linkedin,omitempty"`

	Birthdate     string `json:"birthdate,omitempty"`
	Salutation    string `json:"salutation,omitempty"`
	Gender        string `json:"gender,omitempty"`
	Nationality   string `json:"nationality,omitempty"`
	Language      string `json:"language,omitempty"`
	MaritalStatus string `json:"marital_status,omitempty"`

	LeadSource     string `json:"lead_source,omitempty"`
	GDPRConsent    bool   `json:"gdpr_consent,omitempty"`
	Interests      string `json:"interests,omitempty"`
	CustomerID     string `json:"customer_id,omitempty"`
	LoyaltyCard    string `json:"loyalty_card,omitempty"`
	PreferredStore string `json:"preferred_store,omitempty"`

	OrganizationID string `json:"organization_id"`
	CampaignID     string `json:"campaign_id"`
	CampaignType   string `json:"campaign_type,omitempty"`
	PrizeWon       string `json:"prize_won,omitempty"`
	PointsEarned   int    `json:"points_earned,omitempty"`
	CreatedAt      string `json:"created_at"`
}

// Fields returns the lead as a flat canonical-name map. Empty values are
// omitted so adapters only map what the participant actually supplied.
func (l *Lead) Fields() map[string]string {
	out := map[string]string{}
	put := func(key, value string) {
		if value != "" {
			out[key] = value
		}
	}
	put("email", l.Email)
	put("first_name", l.FirstName)
	put("last_name", l.LastName)
	put("phone", l.Phone)
	put("address", l.Address)
	put("city", l.City)
	put("postal_code", l.PostalCode)
	put("country", l.Country)
	put("company", l.Company)
	put("job_title", l.JobTitle)
	put("industry", l.Industry)
	put("company_size", l.CompanySize)
	put("website", l.Website)
	put("linkedin", l.LinkedIn)
	put("birthdate", l.Birthdate)
	put("salutation", l.Salutation)
	put("gender", l.Gender)
	put("nationality", l.Nationality)
	put("language", l.Language)
	put("marital_status", l.MaritalStatus)
	put("lead_source", l.LeadSource)
	put("interests", l.Interests)
	put("customer_id", l.CustomerID)
	put("loyalty_card", l.LoyaltyCard)
	put("preferred_store", l.PreferredStore)
	if l.GDPRConsent {
		out["gdpr_consent"] = "true"
	}
	return out
}
