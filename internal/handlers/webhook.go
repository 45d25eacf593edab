package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sbilibin2017/xcellar-wallet/internal/logger"
	"github.com/sbilibin2017/xcellar-wallet/internal/models"
	"github.com/sbilibin2017/xcellar-wallet/internal/services"
)

//go:generate mockgen -source=webhook.go -destination=webhook_mock.go -package=handlers

// PaystackSignatureHeader carries the hex HMAC-SHA512 of the raw body.
const PaystackSignatureHeader = "x-paystack-signature"

// SignatureVerifier checks a webhook body against its signature header.
type SignatureVerifier interface {
	VerifySignature(body []byte, signature string) bool
}

// DepositProcessor applies a gateway event to the ledger.
type DepositProcessor interface {
	ProcessDeposit(ctx context.Context, event models.GatewayEvent) (*services.DepositResult, error)
}

// NewPaystackWebhookHandler returns the gateway webhook handler. Retryable
// failures answer 500 so the gateway redelivers the event.
// @Summary Paystack webhook
// @Description Credits a deposit once per reference. Replays answer already_processed, events other than charge.success answer ignored.
// @Tags webhooks
// @Accept json
// @Produce json
// @Param x-paystack-signature header string true "HMAC-SHA512 of the body"
// @Param event body models.GatewayEvent true "Gateway event"
// @Success 200 {object} services.DepositResult
// @Failure 400 {object} handlers.ErrorResponse "Invalid payload"
// @Failure 401 {object} handlers.ErrorResponse "Invalid signature"
// @Failure 409 {object} handlers.ErrorResponse "Reference conflict"
// @Failure 422 {object} handlers.ErrorResponse "Account cannot hold a balance"
// @Failure 500 {object} handlers.ErrorResponse "Retryable failure"
// @Router /webhooks/paystack [post]
func NewPaystackWebhookHandler(verifier SignatureVerifier, deposits DepositProcessor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if !verifier.VerifySignature(body, r.Header.Get(PaystackSignatureHeader)) {
			logger.Log.Warnw("rejected webhook with invalid signature", "remote", r.RemoteAddr)
			writeError(w, http.StatusUnauthorized, "invalid signature")
			return
		}

		var event models.GatewayEvent
		if err := json.Unmarshal(body, &event); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		result, err := deposits.ProcessDeposit(r.Context(), event)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrInvalidDepositEvent):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, services.ErrUnknownAccountType):
				writeError(w, http.StatusUnprocessableEntity, "account cannot hold a balance")
			case errors.Is(err, services.ErrReferenceOwner),
				errors.Is(err, services.ErrCreditRejected),
				errors.Is(err, services.ErrAmountMismatch):
				writeError(w, http.StatusConflict, err.Error())
			default:
				logger.Log.Errorw("webhook processing failed", "reference", event.Data.Reference, "error", err)
				writeError(w, http.StatusInternalServerError, "processing failed, retry later")
			}
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}
