package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/sbilibin2017/xcellar-wallet/internal/logger"
)

// VerificationService sends one-time codes and marks phones verified.
type VerificationService struct {
	sender  OTPSender
	limiter OTPLimiter
	users   UserReader
	writer  UserWriter
}

func NewVerificationService(sender OTPSender, limiter OTPLimiter, users UserReader, writer UserWriter) *VerificationService {
	return &VerificationService{sender: sender, limiter: limiter, users: users, writer: writer}
}

// SendOTP sends a code to the user's phone by SMS or CALL, within the
// per-phone send limit.
func (s *VerificationService) SendOTP(ctx context.Context, userID uuid.UUID, phone, method string) (string, error) {
	if err := s.ownsPhone(ctx, userID, phone); err != nil {
		return "", err
	}

	allowed, err := s.limiter.Allow(ctx, phone)
	if err != nil {
		return "", err
	}
	if !allowed {
		logger.Log.Warnw("otp send limit reached", "userID", userID, "phone", phone)
		return "", ErrTooManyOTPRequests
	}

	return s.sender.SendOTP(ctx, phone, method)
}

// VerifyOTP checks code and marks the phone verified when it is approved.
func (s *VerificationService) VerifyOTP(ctx context.Context, userID uuid.UUID, phone, code string) error {
	if err := s.ownsPhone(ctx, userID, phone); err != nil {
		return err
	}

	ok, err := s.sender.CheckOTP(ctx, phone, code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidOTP
	}

	if err := s.writer.MarkPhoneVerified(ctx, userID, phone); err != nil {
		logger.Log.Errorw("failed to mark phone verified", "userID", userID, "error", err)
		return err
	}
	return nil
}

func (s *VerificationService) ownsPhone(ctx context.Context, userID uuid.UUID, phone string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.PhoneNumber == nil || *user.PhoneNumber != phone {
		return ErrPhoneMismatch
	}
	return nil
}
