package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/sbilibin2017/xcellar-wallet/internal/facades"
	"github.com/sbilibin2017/xcellar-wallet/internal/logger"
	"github.com/sbilibin2017/xcellar-wallet/internal/services"
)

//go:generate mockgen -source=verification.go -destination=verification_mock.go -package=handlers

// OTPService sends and checks phone verification codes.
type OTPService interface {
	SendOTP(ctx context.Context, userID uuid.UUID, phone, method string) (string, error)
	VerifyOTP(ctx context.Context, userID uuid.UUID, phone, code string) error
}

// OTPSendRequest represents the JSON body of a code send
// swagger:model OTPSendRequest
type OTPSendRequest struct {
	// Phone number in E.164 format
	// required: true
	// default: +2348012345678
	PhoneNumber string `json:"phone_number" validate:"required,e164"`

	// SMS or CALL
	// default: SMS
	Method string `json:"method" validate:"omitempty,oneof=SMS CALL"`
}

// OTPSendResponse acknowledges a sent code
// swagger:model OTPSendResponse
type OTPSendResponse struct {
	Message string `json:"message"`
	SID     string `json:"sid"`
}

// OTPVerifyRequest represents the JSON body of a code check
// swagger:model OTPVerifyRequest
type OTPVerifyRequest struct {
	// Phone number in E.164 format
	// required: true
	PhoneNumber string `json:"phone_number" validate:"required,e164"`

	// Code received by the user
	// required: true
	// default: 123456
	Code string `json:"code" validate:"required,numeric,min=4,max=10"`
}

// NewSendOTPHandler sends a verification code to the caller's phone.
// @Summary Send OTP
// @Tags verification
// @Accept json
// @Produce json
// @Param request body handlers.OTPSendRequest true "Send request"
// @Success 200 {object} handlers.OTPSendResponse
// @Failure 400 {object} handlers.ErrorResponse "Invalid request"
// @Failure 403 {object} handlers.ErrorResponse "Phone does not belong to the account"
// @Failure 429 {object} handlers.ErrorResponse "Too many requests"
// @Failure 502 {object} handlers.ErrorResponse "Provider unavailable"
// @Router /api/v1/verification/otp/send [post]
// @Security BearerAuth
func NewSendOTPHandler(svc OTPService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		var req OTPSendRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if req.Method == "" {
			req.Method = facades.OTPMethodSMS
		}

		sid, err := svc.SendOTP(r.Context(), claims.UserID, req.PhoneNumber, req.Method)
		if err != nil {
			writeVerificationError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, OTPSendResponse{Message: "Verification code sent", SID: sid})
	}
}

// NewVerifyOTPHandler checks a code and marks the caller's phone verified.
// @Summary Verify OTP
// @Tags verification
// @Accept json
// @Produce json
// @Param request body handlers.OTPVerifyRequest true "Verify request"
// @Success 200 {object} handlers.MessageResponse
// @Failure 400 {object} handlers.ErrorResponse "Invalid or expired code"
// @Failure 403 {object} handlers.ErrorResponse "Phone does not belong to the account"
// @Router /api/v1/verification/otp/verify [post]
// @Security BearerAuth
func NewVerifyOTPHandler(svc OTPService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		var req OTPVerifyRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		if err := svc.VerifyOTP(r.Context(), claims.UserID, req.PhoneNumber, req.Code); err != nil {
			writeVerificationError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: "Phone number verified"})
	}
}

func writeVerificationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrPhoneMismatch):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrTooManyOTPRequests):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, services.ErrInvalidOTP),
		errors.Is(err, facades.ErrUnsupportedChannel):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	default:
		logger.Log.Errorw("verification provider failed", "error", err)
		writeError(w, http.StatusBadGateway, "verification provider unavailable")
	}
}
