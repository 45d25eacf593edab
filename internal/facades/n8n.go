package facades

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const n8nVendor = "n8n"

// N8nFacade triggers workflows on an n8n instance.
type N8nFacade struct {
	baseURL       string
	apiKey        string
	webhookSecret string
	client        *http.Client
}

func NewN8nFacade(baseURL, apiKey, webhookSecret string) *N8nFacade {
	return &N8nFacade{
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiKey:        apiKey,
		webhookSecret: webhookSecret,
		client:        &http.Client{Timeout: 30 * time.Second},
	}
}

// Trigger runs a workflow. A target starting with http is treated as a
// webhook URL, anything else as a workflow id. The response body is returned
// as JSON, {} when empty.
func (f *N8nFacade) Trigger(ctx context.Context, target string, data map[string]any) (json.RawMessage, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var req *http.Request
	if strings.HasPrefix(target, "http") {
		req, err = http.NewRequest(http.MethodPost, target, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		if f.webhookSecret != "" {
			req.Header.Set("X-N8N-Webhook-Secret", f.webhookSecret)
		}
	} else {
		endpoint := fmt.Sprintf("%s/api/v1/workflows/%s/execute", f.baseURL, url.PathEscape(target))
		req, err = http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		if f.apiKey != "" {
			req.Header.Set("X-N8N-API-KEY", f.apiKey)
		}
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := do(ctx, f.client, n8nVendor, req, nil)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("n8n response is not json")
	}
	return json.RawMessage(body), nil
}
