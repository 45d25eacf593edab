package services

import (
	"errors"

	"github.com/sbilibin2017/xcellar-wallet/internal/repositories"
)

// FailureAmountMismatch is the failure_reason of deposits closed because the
// gateway reported a different amount than the one recorded.
const FailureAmountMismatch = "amount_mismatch"

// Error variables
var (
	ErrInvalidDepositEvent = errors.New("invalid deposit event")
	ErrReferenceOwner      = errors.New("reference belongs to another account")
	ErrCreditRejected      = errors.New("deposit credit rejected, recorded as failed")
	ErrAmountMismatch      = errors.New("paid amount differs from initialized amount, recorded as failed")
	ErrInvalidAccountType  = errors.New("account type must be USER or COURIER")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrAccountDisabled     = errors.New("account is disabled")
	ErrTooManyOTPRequests  = errors.New("too many otp requests, try again later")
	ErrInvalidOTP          = errors.New("invalid or expired otp code")
	ErrPhoneMismatch       = errors.New("phone number does not belong to the account")

	// repository outcomes callers match on
	ErrUnknownAccountType   = repositories.ErrUnknownAccountType
	ErrUserNotFound         = repositories.ErrUserNotFound
	ErrUserAlreadyExists    = repositories.ErrUserAlreadyExists
	ErrInsufficientFunds    = repositories.ErrInsufficientFunds
	ErrProfileNotFound      = repositories.ErrProfileNotFound
	ErrInvalidAmount        = repositories.ErrInvalidAmount
	ErrTransactionNotFound  = repositories.ErrTransactionNotFound
	ErrStatusConflict       = repositories.ErrStatusConflict
	ErrNotificationNotFound = repositories.ErrNotificationNotFound
	ErrInvalidResetToken    = repositories.ErrResetTokenNotFound
)
