package repositories

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sbilibin2017/xcellar-wallet/internal/logger"
)

var (
	// ErrInsufficientFunds is returned when a conditional debit matched no row.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrProfileNotFound is returned when a credit matched no profile row.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrUnknownAccountType is returned for a user type without a balance table.
	ErrUnknownAccountType = errors.New("unknown account type")
	// ErrInvalidAmount is returned for zero or negative balance mutations.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrTransactionNotFound is returned when no transaction matches.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrStatusConflict is returned when a status CAS lost to a concurrent update.
	ErrStatusConflict = errors.New("transaction status changed concurrently")
	// ErrInvalidTransition is returned for a transition that would break status monotonicity.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrNotificationNotFound is returned when no notification matches.
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrUserNotFound is returned when no user matches.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserAlreadyExists is returned on a unique violation for email or phone.
	ErrUserAlreadyExists = errors.New("email or phone number already exists")
	// ErrResetTokenNotFound is returned for unknown or expired reset tokens.
	ErrResetTokenNotFound = errors.New("reset token not found or expired")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// logQuery logs a query in a single line with its args, result and error.
func logQuery(query string, args []any, result any, err error) {
	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", args,
		"result", result,
		"error", err,
	)
}
