package service_crm

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leadplay/campaign-services-backend/internal/models"
)

func testLead() *models.Lead {
	return &models.Lead{
		ID:             "p-1",
		Email:          "marie@example.com",
		FirstName:      "Marie",
		LastName:       "Dupont",
		Phone:          "+33600000000",
		City:           "Lyon",
		OrganizationID: "org-1",
		CampaignID:     "c-1",
	}
}

func TestFactoryCoversAllProviders(t *testing.T) {
	factory := NewAdapterFactory()

	for _, provider := range models.SupportedProviders() {
		adapter, err := factory.CreateAdapter(provider)
		if err != nil {
			t.Fatalf("CreateAdapter(%q) returned error: %v", provider, err)
		}
		if adapter.GetProviderName() != provider {
			t.Fatalf("adapter for %q reports name %q", provider, adapter.GetProviderName())
		}
	}

	_, err := factory.CreateAdapter("notacrm")
	if err == nil {
		t.Fatal("expected an error for an unknown provider")
	}
	// Handlers map this message to a 400; keep the wording stable
	if !strings.Contains(err.Error(), "unsupported provider") {
		t.Fatalf("unexpected unknown-provider error: %v", err)
	}
}

func TestMapLeadFieldsDropsUnmapped(t *testing.T) {
	fields := map[string]string{
		"first_name": "Marie",
		"interests":  "cycling",
	}
	mapping := map[string]string{"first_name": "FNAME"}

	out := mapLeadFields(fields, mapping)
	if out["FNAME"] != "Marie" {
		t.Fatalf("expected FNAME mapped, got %v", out)
	}
	if len(out) != 1 {
		t.Fatalf("unmapped canonical fields must be dropped, got %v", out)
	}
}

func TestEmailLocalPart(t *testing.T) {
	if got := emailLocalPart("marie@example.com"); got != "marie" {
		t.Fatalf("expected \"marie\", got %q", got)
	}
	if got := emailLocalPart("not-an-email"); got != "not-an-email" {
		t.Fatalf("expected input back for malformed email, got %q", got)
	}
}

func TestHubSpotCreatesWhenNotFound(t *testing.T) {
	var createdPayload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token-1" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		switch {
		case r.URL.Path == "/crm/v3/objects/contacts/search":
			fmt.Fprint(w, `{"total":0,"results":[]}`)
		case r.URL.Path == "/crm/v3/objects/contacts" && r.Method == http.MethodPost:
			json.NewDecoder(r.Body).Decode(&createdPayload)
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"id":"hs-42"}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()
	t.Setenv("HUBSPOT_BASE_URL", server.URL)

	result, err := NewHubSpotAdapter().Sync(context.Background(), testLead(), Credentials{"access_token": "token-1"})
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if result.Action != models.SyncActionCreated || result.ExternalID != "hs-42" {
		t.Fatalf("unexpected result: %+v", result)
	}

	props, _ := createdPayload["properties"].(map[string]interface{})
	if props["firstname"] != "Marie" || props["email"] != "marie@example.com" {
		t.Fatalf("unexpected mapped properties: %v", props)
	}
}

func TestHubSpotUpdatesWhenFound(t *testing.T) {
	var patched bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/crm/v3/objects/contacts/search":
			fmt.Fprint(w, `{"total":1,"results":[{"id":"hs-7"}]}`)
		case r.URL.Path == "/crm/v3/objects/contacts/hs-7" && r.Method == http.MethodPatch:
			patched = true
			fmt.Fprint(w, `{"id":"hs-7"}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()
	t.Setenv("HUBSPOT_BASE_URL", server.URL)

	result, err := NewHubSpotAdapter().Sync(context.Background(), testLead(), Credentials{"access_token": "token-1"})
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if !patched {
		t.Fatal("expected a PATCH on the existing contact")
	}
	if result.Action != models.SyncActionUpdated || result.ExternalID != "hs-7" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestSalesforceFillsMandatoryPlaceholders(t *testing.T) {
	var createdFields map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/services/data/v58.0/query"):
			fmt.Fprint(w, `{"totalSize":0,"records":[]}`)
		case r.URL.Path == "/services/data/v58.0/sobjects/Lead" && r.Method == http.MethodPost:
			json.NewDecoder(r.Body).Decode(&createdFields)
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"id":"00Q1","success":true}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	// A bare lead: only the email is known
	lead := &models.Lead{ID: "p-1", Email: "jean@example.com"}
	creds := Credentials{"access_token": "tok", "instance_url": server.URL}

	result, err := NewSalesforceAdapter().Sync(context.Background(), lead, creds)
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if result.Action != models.SyncActionCreated {
		t.Fatalf("unexpected result: %+v", result)
	}

	if createdFields["LastName"] != "jean" {
		t.Fatalf("expected LastName placeholder from the email local part, got %v", createdFields["LastName"])
	}
	if createdFields["Company"] != "Non spécifié" {
		t.Fatalf("expected Company placeholder, got %v", createdFields["Company"])
	}
}

func TestSalesforceEscapesQuotedEmailInSearch(t *testing.T) {
	var soql string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/services/data/v58.0/query"):
			soql = r.URL.Query().Get("q")
			fmt.Fprint(w, `{"totalSize":0,"records":[]}`)
		case r.URL.Path == "/services/data/v58.0/sobjects/Lead" && r.Method == http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"id":"00Q2","success":true}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	lead := &models.Lead{ID: "p-2", Email: "o'brien@example.com"}
	creds := Credentials{"access_token": "tok", "instance_url": server.URL}

	if _, err := NewSalesforceAdapter().Sync(context.Background(), lead, creds); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if !strings.Contains(soql, `Email = 'o\'brien@example.com'`) {
		t.Fatalf("expected the quote escaped in the query, got %q", soql)
	}
}

func TestMailchimpUpsertsByEmailHash(t *testing.T) {
	hash := fmt.Sprintf("%x", md5.Sum([]byte("marie@example.com")))
	expectedPath := "/lists/list-1/members/" + hash

	memberExists := false
	var payload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != expectedPath {
			t.Errorf("unexpected path %s, want %s", r.URL.Path, expectedPath)
		}
		switch r.Method {
		case http.MethodGet:
			if !memberExists {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			fmt.Fprint(w, `{"id":"mc-1"}`)
		case http.MethodPut:
			json.NewDecoder(r.Body).Decode(&payload)
			// Mailchimp fills last_changed on fresh creates too; the
			// response body must not decide the action
			fmt.Fprint(w, `{"id":"mc-1","last_changed":"2025-03-01T12:00:00+00:00"}`)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))
	defer server.Close()
	t.Setenv("MAILCHIMP_BASE_URL", server.URL)

	creds := Credentials{"api_key": "key-us21", "list_id": "list-1"}
	result, err := NewMailchimpAdapter().Sync(context.Background(), testLead(), creds)
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if result.Action != models.SyncActionCreated || result.ExternalID != "mc-1" {
		t.Fatalf("unexpected result: %+v", result)
	}

	if payload["status_if_new"] != "subscribed" {
		t.Fatalf("expected status_if_new subscribed, got %v", payload["status_if_new"])
	}
	merge, _ := payload["merge_fields"].(map[string]interface{})
	if merge["FNAME"] != "Marie" || merge["LNAME"] != "Dupont" {
		t.Fatalf("unexpected merge fields: %v", merge)
	}

	// A member already in the audience makes the same upsert an update
	memberExists = true
	result, err = NewMailchimpAdapter().Sync(context.Background(), testLead(), creds)
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if result.Action != models.SyncActionUpdated {
		t.Fatalf("expected updated for existing member, got %q", result.Action)
	}
}

func TestBrevoDistinguishesCreatedFromUpdated(t *testing.T) {
	status := http.StatusCreated
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer server.Close()
	t.Setenv("BREVO_BASE_URL", server.URL)

	creds := Credentials{"api_key": "k"}

	result, err := NewBrevoAdapter().Sync(context.Background(), testLead(), creds)
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if result.Action != models.SyncActionCreated {
		t.Fatalf("expected created on 201, got %q", result.Action)
	}

	status = http.StatusNoContent
	result, err = NewBrevoAdapter().Sync(context.Background(), testLead(), creds)
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if result.Action != models.SyncActionUpdated {
		t.Fatalf("expected updated on 204, got %q", result.Action)
	}
}

func TestZohoCreatesOnEmptySearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/Leads/search"):
			// Zoho reports "no match" with an empty 204 body
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == "/Leads" && r.Method == http.MethodPost:
			if !strings.HasPrefix(r.Header.Get("Authorization"), "Zoho-oauthtoken ") {
				t.Errorf("missing Zoho-oauthtoken header")
			}
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"data":[{"details":{"id":"zoho-9"},"status":"success"}]}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()
	t.Setenv("ZOHO_BASE_URL", server.URL)

	result, err := NewZohoAdapter().Sync(context.Background(), testLead(), Credentials{"access_token": "tok"})
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if result.Action != models.SyncActionCreated || result.ExternalID != "zoho-9" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestAdaptersRejectMissingCredentials(t *testing.T) {
	factory := NewAdapterFactory()
	for _, provider := range models.SupportedProviders() {
		adapter, err := factory.CreateAdapter(provider)
		if err != nil {
			t.Fatalf("CreateAdapter(%q) returned error: %v", provider, err)
		}
		if err := adapter.ValidateCredentials(Credentials{}); err == nil {
			t.Fatalf("provider %q accepted empty credentials", provider)
		}
	}
}
