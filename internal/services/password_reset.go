package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/xcellar-wallet/internal/logger"
	"golang.org/x/crypto/bcrypt"
)

// PasswordResetService issues single-use reset tokens and applies new passwords.
type PasswordResetService struct {
	users      UserReader
	writer     UserWriter
	tokens     ResetTokenStore
	workflows  WorkflowFirer
	workflowID string
	ttl        time.Duration
}

func NewPasswordResetService(users UserReader, writer UserWriter, tokens ResetTokenStore, workflows WorkflowFirer, workflowID string, ttl time.Duration) *PasswordResetService {
	return &PasswordResetService{
		users:      users,
		writer:     writer,
		tokens:     tokens,
		workflows:  workflows,
		workflowID: workflowID,
		ttl:        ttl,
	}
}

// Request issues a token for email and hands it to the password_reset
// workflow for delivery. Unknown emails succeed silently.
func (s *PasswordResetService) Request(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		logger.Log.Infow("password reset requested for unknown email", "email", email)
		return nil
	}
	if err != nil {
		return err
	}
	if !user.IsActive {
		return nil
	}

	token := uuid.NewString()
	if err := s.tokens.Save(ctx, token, user.UserID, s.ttl); err != nil {
		return err
	}

	// delivery runs in the background so known and unknown emails answer alike
	go s.workflows.Fire(ctx, s.workflowID, "password_reset", map[string]any{
		"event":      "password_reset_requested",
		"user_id":    user.UserID.String(),
		"email":      user.Email,
		"token":      token,
		"expires_in": int(s.ttl.Seconds()),
	})
	return nil
}

// Confirm sets the new password of the token's user. The token is deleted
// only after the password is stored, so a failed update leaves it usable.
func (s *PasswordResetService) Confirm(ctx context.Context, token, newPassword string) error {
	userID, err := s.tokens.Lookup(ctx, token)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := s.writer.UpdatePassword(ctx, userID, string(hash)); err != nil {
		logger.Log.Errorw("failed to update password", "userID", userID, "error", err)
		return err
	}
	if err := s.tokens.Delete(ctx, token); err != nil {
		logger.Log.Warnw("password reset but token not deleted", "userID", userID, "error", err)
	}
	logger.Log.Infow("password reset", "userID", userID)
	return nil
}
