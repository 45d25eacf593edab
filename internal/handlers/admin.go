package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sbilibin2017/xcellar-wallet/internal/logger"
	"github.com/sbilibin2017/xcellar-wallet/internal/services"
)

//go:generate mockgen -source=admin.go -destination=admin_mock.go -package=handlers

// ReferenceVerifier reconciles a single deposit with the gateway.
type ReferenceVerifier interface {
	VerifyReference(ctx context.Context, reference string) (*services.VerifyResult, error)
}

// NewVerifyTransactionHandler re-checks one deposit with the gateway and
// settles it when paid.
// @Summary Verify deposit with gateway
// @Tags admin
// @Produce json
// @Param reference path string true "Transaction reference"
// @Success 200 {object} services.VerifyResult
// @Failure 403 {object} handlers.ErrorResponse "Staff only"
// @Failure 404 {object} handlers.ErrorResponse "Transaction not found"
// @Failure 502 {object} handlers.ErrorResponse "Gateway unavailable"
// @Router /api/v1/admin/transactions/{reference}/verify [post]
// @Security BearerAuth
func NewVerifyTransactionHandler(svc ReferenceVerifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reference := chi.URLParam(r, "reference")

		res, err := svc.VerifyReference(r.Context(), reference)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrTransactionNotFound):
				writeError(w, http.StatusNotFound, "Transaction not found")
			default:
				logger.Log.Errorw("manual verification failed", "reference", reference, "error", err)
				writeError(w, http.StatusBadGateway, "verification failed")
			}
			return
		}

		writeJSON(w, http.StatusOK, res)
	}
}
