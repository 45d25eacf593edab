package facades

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sbilibin2017/xcellar-wallet/internal/logger"
)

// ErrNotConfigured is returned when a vendor is called without credentials.
var ErrNotConfigured = errors.New("vendor not configured")

// APIError is a non-2xx answer from a vendor.
type APIError struct {
	Vendor     string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error: status %d: %s", e.Vendor, e.StatusCode, e.Message)
}

// Temporary reports whether retrying the call may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// do sends req and decodes a JSON body into out, when out is not nil.
// The raw body is returned so callers can keep it.
func do(ctx context.Context, client *http.Client, vendor string, req *http.Request, out any) ([]byte, error) {
	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		logger.Log.Errorw("vendor request failed", "vendor", vendor, "method", req.Method, "url", req.URL.Path, "error", err)
		return nil, fmt.Errorf("%s request: %w", vendor, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s read body: %w", vendor, err)
	}

	logger.Log.Infow("vendor request",
		"vendor", vendor,
		"method", req.Method,
		"url", req.URL.Path,
		"status", resp.StatusCode,
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, &APIError{Vendor: vendor, StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return body, fmt.Errorf("%s decode response: %w", vendor, err)
		}
	}
	return body, nil
}

// errorMessage pulls a human message out of a vendor error body.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Detail != "" {
			return payload.Detail
		}
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}
