package facades

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sbilibin2017/xcellar-wallet/internal/logger"
)

const twilioVendor = "twilio"

// ErrUnsupportedChannel is returned for an OTP method other than SMS or CALL.
var ErrUnsupportedChannel = errors.New("unsupported otp channel")

// OTP delivery methods.
const (
	OTPMethodSMS  = "SMS"
	OTPMethodCall = "CALL"
)

// TwilioVerifyFacade sends and checks one-time codes with Twilio Verify.
type TwilioVerifyFacade struct {
	baseURL    string
	accountSID string
	authToken  string
	serviceSID string
	client     *http.Client
}

func NewTwilioVerifyFacade(baseURL, accountSID, authToken, serviceSID string) *TwilioVerifyFacade {
	return &TwilioVerifyFacade{
		baseURL:    strings.TrimRight(baseURL, "/"),
		accountSID: accountSID,
		authToken:  authToken,
		serviceSID: serviceSID,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

type twilioVerification struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// SendOTP starts a verification and returns its SID.
func (f *TwilioVerifyFacade) SendOTP(ctx context.Context, phone, method string) (string, error) {
	channel, err := twilioChannel(method)
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("To", phone)
	form.Set("Channel", channel)

	var resp twilioVerification
	if err := f.post(ctx, "Verifications", form, &resp); err != nil {
		return "", err
	}

	logger.Log.Infow("otp sent", "phone", phone, "method", method, "sid", resp.SID)
	return resp.SID, nil
}

// CheckOTP reports whether code is approved for phone.
func (f *TwilioVerifyFacade) CheckOTP(ctx context.Context, phone, code string) (bool, error) {
	form := url.Values{}
	form.Set("To", phone)
	form.Set("Code", code)

	var resp twilioVerification
	if err := f.post(ctx, "VerificationCheck", form, &resp); err != nil {
		var apiErr *APIError
		// Twilio answers 404 once a verification expired or was used
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}
	return resp.Status == "approved", nil
}

func (f *TwilioVerifyFacade) post(ctx context.Context, resource string, form url.Values, out any) error {
	if f.accountSID == "" || f.authToken == "" || f.serviceSID == "" {
		return ErrNotConfigured
	}

	endpoint := fmt.Sprintf("%s/Services/%s/%s", f.baseURL, url.PathEscape(f.serviceSID), resource)
	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(f.accountSID, f.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	_, err = do(ctx, f.client, twilioVendor, req, out)
	return err
}

func twilioChannel(method string) (string, error) {
	switch strings.ToUpper(method) {
	case "", OTPMethodSMS:
		return "sms", nil
	case OTPMethodCall:
		return "call", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedChannel, method)
	}
}
