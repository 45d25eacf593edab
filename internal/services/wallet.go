package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/xcellar-wallet/internal/logger"
	"github.com/sbilibin2017/xcellar-wallet/internal/models"
	"github.com/shopspring/decimal"
)

// WithdrawResult is a completed withdrawal and the balance after it.
type WithdrawResult struct {
	Transaction *models.TransactionDB
	Balance     decimal.Decimal
}

// WalletService handles balance reads, withdrawals, history and card deposits.
type WalletService struct {
	tx            TxManager
	users         UserReader
	transactions  TransactionStore
	balances      BalanceStore
	notifications NotificationStore
	gateway       PaymentGateway
	publisher     TransactionPublisher
}

// NewWalletService creates a new WalletService.
func NewWalletService(
	tx TxManager,
	users UserReader,
	transactions TransactionStore,
	balances BalanceStore,
	notifications NotificationStore,
	gateway PaymentGateway,
	publisher TransactionPublisher,
) *WalletService {
	return &WalletService{
		tx:            tx,
		users:         users,
		transactions:  transactions,
		balances:      balances,
		notifications: notifications,
		gateway:       gateway,
		publisher:     publisher,
	}
}

// GetBalance returns the user's balance.
func (s *WalletService) GetBalance(ctx context.Context, userID uuid.UUID, userType models.UserType) (decimal.Decimal, error) {
	balance, err := s.balances.GetBalance(ctx, userType, userID)
	if err != nil {
		logger.Log.Errorw("failed to get balance", "userID", userID, "error", err)
		return decimal.Zero, err
	}
	return balance, nil
}

// Withdraw debits the balance when it covers amount and records a completed
// WITHDRAWAL in the same transaction.
func (s *WalletService) Withdraw(ctx context.Context, userID uuid.UUID, userType models.UserType, amount decimal.Decimal, description string) (*WithdrawResult, error) {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	now := time.Now().UTC()
	txn := &models.TransactionDB{
		UserID:        userID,
		Type:          models.TransactionWithdrawal,
		Status:        models.StatusSuccess,
		PaymentMethod: models.PaymentBankTransfer,
		Amount:        amount,
		Fee:           decimal.Zero,
		NetAmount:     amount,
		Reference:     newReference("WDR"),
		Description:   description,
		CompletedAt:   &now,
	}

	var balance decimal.Decimal
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if balance, err = s.balances.Debit(ctx, userType, userID, amount); err != nil {
			return err
		}
		if _, err := s.transactions.Create(ctx, txn); err != nil {
			return err
		}

		txnID := txn.ID
		_, err = s.notifications.Create(ctx, &models.NotificationDB{
			UserID:        userID,
			Type:          models.NotificationWithdrawalCompleted,
			Title:         "Withdrawal Completed",
			Message:       fmt.Sprintf("NGN %s has been withdrawn from your wallet.", amount.StringFixed(2)),
			TransactionID: &txnID,
		})
		return err
	})
	if err != nil {
		logger.Log.Errorw("failed to withdraw", "userID", userID, "amount", amount.StringFixed(2), "error", err)
		return nil, err
	}

	s.publisher.Publish(ctx, newTransactionEvent(OperationWithdrawalCompleted, txn, balance))
	return &WithdrawResult{Transaction: txn, Balance: balance}, nil
}

// ListTransactions returns the user's transactions, newest first.
func (s *WalletService) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.TransactionDB, error) {
	txs, err := s.transactions.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		logger.Log.Errorw("failed to list transactions", "userID", userID, "error", err)
		return nil, err
	}
	return txs, nil
}

// InitializeDeposit opens a gateway checkout for a card deposit and records it
// as PENDING. The webhook or the reconciler credits it once paid.
func (s *WalletService) InitializeDeposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*models.GatewayCheckout, error) {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.UserType.HasBalance() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccountType, user.UserType)
	}

	reference := newReference("DEP")
	checkout, err := s.gateway.InitializeTransaction(ctx, user.Email, models.ToMinorUnits(amount), reference)
	if err != nil {
		logger.Log.Errorw("failed to initialize deposit", "userID", userID, "reference", reference, "error", err)
		return nil, err
	}

	txn := &models.TransactionDB{
		UserID:        userID,
		Type:          models.TransactionDeposit,
		Status:        models.StatusPending,
		PaymentMethod: models.PaymentCard,
		Amount:        amount,
		Fee:           decimal.Zero,
		NetAmount:     amount,
		Reference:     checkout.Reference,
		Description:   "Card deposit",
		Metadata:      mergeMetadata(nil, map[string]any{"access_code": checkout.AccessCode}),
	}
	if _, err := s.transactions.Create(ctx, txn); err != nil {
		logger.Log.Errorw("failed to record initialized deposit", "reference", checkout.Reference, "error", err)
		return nil, err
	}

	return checkout, nil
}

func newReference(prefix string) string {
	return prefix + "-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}
