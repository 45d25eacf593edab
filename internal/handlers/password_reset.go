package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/sbilibin2017/xcellar-wallet/internal/logger"
	"github.com/sbilibin2017/xcellar-wallet/internal/services"
)

//go:generate mockgen -source=password_reset.go -destination=password_reset_mock.go -package=handlers

// PasswordResetter issues and redeems reset tokens.
type PasswordResetter interface {
	Request(ctx context.Context, email string) error
	Confirm(ctx context.Context, token, newPassword string) error
}

// PasswordResetRequest represents the JSON body of a reset request
// swagger:model PasswordResetRequest
type PasswordResetRequest struct {
	// required: true
	// default: ada@example.com
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetConfirmRequest represents the JSON body of a reset confirmation
// swagger:model PasswordResetConfirmRequest
type PasswordResetConfirmRequest struct {
	// required: true
	Token string `json:"token" validate:"required"`

	// required: true
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// NewPasswordResetRequestHandler starts a password reset. The answer is the
// same whether or not the email is registered.
// @Summary Request password reset
// @Tags auth
// @Accept json
// @Produce json
// @Param request body handlers.PasswordResetRequest true "Reset request"
// @Success 202 {object} handlers.MessageResponse
// @Failure 400 {object} handlers.ErrorResponse "Invalid request"
// @Router /api/v1/password-reset/request [post]
func NewPasswordResetRequestHandler(svc PasswordResetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PasswordResetRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		if err := svc.Request(r.Context(), req.Email); err != nil {
			logger.Log.Errorw("password reset request failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		writeJSON(w, http.StatusAccepted, MessageResponse{
			Message: "If the email is registered, a reset link has been sent",
		})
	}
}

// NewPasswordResetConfirmHandler sets a new password with a reset token.
// @Summary Confirm password reset
// @Tags auth
// @Accept json
// @Produce json
// @Param request body handlers.PasswordResetConfirmRequest true "Reset confirmation"
// @Success 200 {object} handlers.MessageResponse
// @Failure 400 {object} handlers.ErrorResponse "Invalid or expired token"
// @Router /api/v1/password-reset/confirm [post]
func NewPasswordResetConfirmHandler(svc PasswordResetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PasswordResetConfirmRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		if err := svc.Confirm(r.Context(), req.Token, req.NewPassword); err != nil {
			if errors.Is(err, services.ErrInvalidResetToken) {
				writeError(w, http.StatusBadRequest, "Invalid or expired token")
				return
			}
			logger.Log.Errorw("password reset failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: "Password has been reset"})
	}
}
