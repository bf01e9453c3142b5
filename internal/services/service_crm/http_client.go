package service_crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/leadplay/campaign-services-backend/internal/config"
)

// Placeholder values substituted when a provider mandates a field the
// canonical record lacks. Failing the whole sync over a missing company name
// would lose the lead.
const (
	placeholderCompany = "Non spécifié"
)

// newHTTPClient builds the HTTP client shared by adapter calls. The context
// passed by the dispatcher already carries the per-call deadline; the client
// timeout is a second bound in case a caller forgets one.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: config.GetCRMConfig().SyncTimeout,
	}
}

// doJSON performs an HTTP request with a JSON body and returns status and
// response body. A nil payload sends no body.
func doJSON(ctx context.Context, client *http.Client, method, url string, headers map[string]string, payload interface{}) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return resp.StatusCode, body, nil
}

// mapLeadFields translates canonical field names to provider field names via
// a static lookup table. Canonical fields with no mapping entry are dropped
// silently; unknown custom fields are never an error.
func mapLeadFields(fields map[string]string, mapping map[string]string) map[string]interface{} {
	out := map[string]interface{}{}
	for canonical, value := range fields {
		if providerField, ok := mapping[canonical]; ok {
			out[providerField] = value
		}
	}
	return out
}

// emailLocalPart returns the part of an email before the @, used as a
// deterministic name placeholder for providers that require one.
func emailLocalPart(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
