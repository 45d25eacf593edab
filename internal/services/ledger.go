package services

import (
	"context"
	"fmt"

	"github.com/sbilibin2017/xcellar-wallet/internal/models"
	"github.com/shopspring/decimal"
)

// ledger holds the stores one deposit settlement writes to. Both the webhook
// path and the reconciler settle through it, so a PENDING deposit is credited
// the same way whichever path reaches it first.
type ledger struct {
	tx            TxManager
	transactions  TransactionStore
	balances      BalanceStore
	notifications NotificationStore
}

// settle credits a locked PENDING deposit, moves it to SUCCESS and creates the
// deposit notification unless one exists. It must run inside a transaction.
func (l *ledger) settle(ctx context.Context, txn *models.TransactionDB, userType models.UserType, metadata map[string]any) (decimal.Decimal, error) {
	balance, err := l.balances.Credit(ctx, userType, txn.UserID, txn.NetAmount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("credit %s: %w", txn.Reference, err)
	}

	if err := l.transactions.UpdateStatus(ctx, txn.ID, models.StatusPending, models.StatusSuccess, metadata); err != nil {
		return decimal.Zero, fmt.Errorf("complete %s: %w", txn.Reference, err)
	}
	txn.Status = models.StatusSuccess

	txnID := txn.ID
	notification := &models.NotificationDB{
		UserID:        txn.UserID,
		Type:          models.NotificationDepositReceived,
		Title:         "Deposit Received",
		Message:       fmt.Sprintf("Your wallet has been credited with NGN %s.", txn.NetAmount.StringFixed(2)),
		TransactionID: &txnID,
	}
	if _, err := l.notifications.Create(ctx, notification); err != nil {
		return decimal.Zero, fmt.Errorf("notify %s: %w", txn.Reference, err)
	}

	return balance, nil
}

// close moves a PENDING transaction to a terminal status with no balance effect.
func (l *ledger) close(ctx context.Context, txn *models.TransactionDB, to models.Status, metadata map[string]any) error {
	if err := l.transactions.UpdateStatus(ctx, txn.ID, models.StatusPending, to, metadata); err != nil {
		return fmt.Errorf("close %s as %s: %w", txn.Reference, to, err)
	}
	txn.Status = to
	return nil
}
