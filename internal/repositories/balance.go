package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/xcellar-wallet/internal/dbtx"
	"github.com/sbilibin2017/xcellar-wallet/internal/models"
	"github.com/shopspring/decimal"
)

// profileTable returns the table holding the balance of the given user type.
func profileTable(userType models.UserType) (string, error) {
	switch userType {
	case models.UserTypeCustomer:
		return "user_profiles", nil
	case models.UserTypeCourier:
		return "courier_profiles", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAccountType, userType)
	}
}

// BalanceRepository mutates profile balances with single conditional updates.
type BalanceRepository struct {
	db *sqlx.DB
}

func NewBalanceRepository(db *sqlx.DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

// CreateProfile inserts an empty profile row for the user, if absent.
func (r *BalanceRepository) CreateProfile(ctx context.Context, userType models.UserType, userID uuid.UUID) error {
	table, err := profileTable(userType)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, balance, created_at, updated_at)
		VALUES ($1, 0, NOW(), NOW())
		ON CONFLICT (user_id) DO NOTHING
	`, table)

	_, err = dbtx.Executor(ctx, r.db).ExecContext(ctx, query, userID)
	logQuery(query, []any{userID}, nil, err)
	return err
}

// Credit adds amount to the balance and returns the new balance.
func (r *BalanceRepository) Credit(ctx context.Context, userType models.UserType, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	table, err := profileTable(userType)
	if err != nil {
		return decimal.Zero, err
	}
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET balance = balance + $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING balance
	`, table)

	balance, err := r.mutate(ctx, query, userID, amount.Round(2))
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, ErrProfileNotFound
	}
	return balance, err
}

// Debit subtracts amount only while the balance covers it and returns the new
// balance. Zero matched rows is reported as ErrInsufficientFunds.
func (r *BalanceRepository) Debit(ctx context.Context, userType models.UserType, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	table, err := profileTable(userType)
	if err != nil {
		return decimal.Zero, err
	}
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET balance = balance - $2, updated_at = NOW()
		WHERE user_id = $1 AND balance >= $2
		RETURNING balance
	`, table)

	balance, err := r.mutate(ctx, query, userID, amount.Round(2))
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, ErrInsufficientFunds
	}
	return balance, err
}

// GetBalance returns the current balance.
func (r *BalanceRepository) GetBalance(ctx context.Context, userType models.UserType, userID uuid.UUID) (decimal.Decimal, error) {
	table, err := profileTable(userType)
	if err != nil {
		return decimal.Zero, err
	}

	query := fmt.Sprintf(`SELECT balance FROM %s WHERE user_id = $1`, table)

	var balance decimal.Decimal
	err = sqlx.GetContext(ctx, dbtx.Executor(ctx, r.db), &balance, query, userID)
	logQuery(query, []any{userID}, balance, err)

	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, ErrProfileNotFound
	}
	return balance, err
}

func (r *BalanceRepository) mutate(ctx context.Context, query string, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := sqlx.GetContext(ctx, dbtx.Executor(ctx, r.db), &balance, query, userID, amount)
	logQuery(query, []any{userID, amount}, balance, err)
	return balance, err
}
