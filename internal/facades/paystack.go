package facades

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sbilibin2017/xcellar-wallet/internal/models"
)

const paystackVendor = "paystack"

// PaystackFacade talks to the Paystack REST API.
type PaystackFacade struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

// NewPaystackFacade creates a facade with a client bounded by timeout.
func NewPaystackFacade(baseURL, secretKey string, timeout time.Duration) *PaystackFacade {
	return &PaystackFacade{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		client:    &http.Client{Timeout: timeout},
	}
}

type paystackEnvelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type paystackTransaction struct {
	ID        int64  `json:"id"`
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Channel   string `json:"channel"`
}

// VerifyTransaction asks the gateway for the authoritative state of reference.
func (f *PaystackFacade) VerifyTransaction(ctx context.Context, reference string) (*models.GatewayVerification, error) {
	if f.secretKey == "" {
		return nil, ErrNotConfigured
	}

	endpoint := fmt.Sprintf("%s/transaction/verify/%s", f.baseURL, url.PathEscape(reference))
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	f.authorize(req)

	var resp paystackEnvelope[paystackTransaction]
	if _, err := do(ctx, f.client, paystackVendor, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Status {
		return nil, fmt.Errorf("paystack verify %s: %s", reference, resp.Message)
	}

	ref := resp.Data.Reference
	if ref == "" {
		ref = reference
	}
	return &models.GatewayVerification{
		Reference:     ref,
		VendorStatus:  resp.Data.Status,
		Status:        models.MapGatewayStatus(resp.Data.Status),
		AmountMinor:   resp.Data.Amount,
		TransactionID: resp.Data.ID,
		Channel:       resp.Data.Channel,
	}, nil
}

// InitializeTransaction opens a checkout for a card deposit of amountMinor kobo.
func (f *PaystackFacade) InitializeTransaction(ctx context.Context, email string, amountMinor int64, reference string) (*models.GatewayCheckout, error) {
	if f.secretKey == "" {
		return nil, ErrNotConfigured
	}

	payload, err := json.Marshal(map[string]any{
		"email":     email,
		"amount":    amountMinor,
		"reference": reference,
		"currency":  "NGN",
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, f.baseURL+"/transaction/initialize", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	f.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	var resp paystackEnvelope[models.GatewayCheckout]
	if _, err := do(ctx, f.client, paystackVendor, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Status {
		return nil, fmt.Errorf("paystack initialize %s: %s", reference, resp.Message)
	}
	if resp.Data.Reference == "" {
		resp.Data.Reference = reference
	}
	return &resp.Data, nil
}

// VerifySignature checks the hex HMAC-SHA512 of body sent in the
// x-paystack-signature header.
func (f *PaystackFacade) VerifySignature(body []byte, signature string) bool {
	if f.secretKey == "" || signature == "" {
		return false
	}
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	return hmac.Equal(got, Sign(f.secretKey, body))
}

// Sign returns the HMAC-SHA512 of body under secret.
func Sign(secret string, body []byte) []byte {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

func (f *PaystackFacade) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+f.secretKey)
	req.Header.Set("Accept", "application/json")
}
