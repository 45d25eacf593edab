package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sbilibin2017/xcellar-wallet/internal/logger"
	"github.com/sbilibin2017/xcellar-wallet/internal/models"
	"github.com/shopspring/decimal"
)

// ReconcileOutcome is what happened to one PENDING deposit.
type ReconcileOutcome string

const (
	ReconcileCredited ReconcileOutcome = "credited"
	ReconcileClosed   ReconcileOutcome = "closed"
	ReconcilePending  ReconcileOutcome = "pending"
	ReconcileSkipped  ReconcileOutcome = "skipped"
)

// VerifyResult reports the reconciliation of a single reference.
type VerifyResult struct {
	Reference     string           `json:"reference"`
	GatewayStatus string           `json:"gateway_status"`
	Status        models.Status    `json:"status"`
	Outcome       ReconcileOutcome `json:"outcome"`
}

// SweepResult counts the outcomes of one sweep.
type SweepResult struct {
	Checked  int `json:"checked"`
	Credited int `json:"credited"`
	Closed   int `json:"closed"`
	Pending  int `json:"pending"`
	Skipped  int `json:"skipped"`
	Errors   int `json:"errors"`
}

// Reconciler settles PENDING deposits against the gateway's view, covering
// webhooks that never arrived.
type Reconciler struct {
	ledger
	users     UserReader
	gateway   PaymentGateway
	publisher TransactionPublisher
	minAge    time.Duration
	batchSize int
	now       func() time.Time
}

// NewReconciler creates a Reconciler that looks at deposits older than minAge,
// at most batchSize per sweep.
func NewReconciler(
	tx TxManager,
	users UserReader,
	transactions TransactionStore,
	balances BalanceStore,
	notifications NotificationStore,
	gateway PaymentGateway,
	publisher TransactionPublisher,
	minAge time.Duration,
	batchSize int,
) *Reconciler {
	return &Reconciler{
		ledger: ledger{
			tx:            tx,
			transactions:  transactions,
			balances:      balances,
			notifications: notifications,
		},
		users:     users,
		gateway:   gateway,
		publisher: publisher,
		minAge:    minAge,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// Sweep reconciles one batch of PENDING deposits. Errors on single items are
// logged and counted; the sweep goes on with the next item. Only failing to
// list the batch, or ctx ending, stops it.
func (r *Reconciler) Sweep(ctx context.Context) (*SweepResult, error) {
	cutoff := r.now().Add(-r.minAge)

	pending, err := r.transactions.ListPendingBefore(ctx, models.TransactionDeposit, cutoff, r.batchSize)
	if err != nil {
		logger.Log.Errorw("failed to list pending deposits", "error", err)
		return nil, fmt.Errorf("list pending deposits: %w", err)
	}

	result := &SweepResult{}
	for i := range pending {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		result.Checked++
		res, err := r.reconcile(ctx, pending[i].Reference)
		if err != nil {
			result.Errors++
			logger.Log.Errorw("failed to reconcile deposit", "reference", pending[i].Reference, "error", err)
			continue
		}

		switch res.Outcome {
		case ReconcileCredited:
			result.Credited++
		case ReconcileClosed:
			result.Closed++
		case ReconcilePending:
			result.Pending++
		default:
			result.Skipped++
		}
	}

	if result.Checked > 0 {
		logger.Log.Infow("reconciliation sweep finished",
			"checked", result.Checked,
			"credited", result.Credited,
			"closed", result.Closed,
			"pending", result.Pending,
			"skipped", result.Skipped,
			"errors", result.Errors,
		)
	}
	return result, nil
}

// VerifyReference reconciles a single reference on demand.
func (r *Reconciler) VerifyReference(ctx context.Context, reference string) (*VerifyResult, error) {
	res, err := r.reconcile(ctx, reference)
	if err != nil {
		logger.Log.Errorw("failed to verify reference", "reference", reference, "error", err)
		return nil, err
	}
	return res, nil
}

func (r *Reconciler) reconcile(ctx context.Context, reference string) (*VerifyResult, error) {
	verification, err := r.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("verify %s with gateway: %w", reference, err)
	}

	result := &VerifyResult{
		Reference:     reference,
		GatewayStatus: verification.VendorStatus,
		Outcome:       ReconcilePending,
	}
	metadata := map[string]any{
		"sync_method":    "periodic_sync",
		"gateway_status": verification.VendorStatus,
	}

	var (
		credited *models.TransactionDB
		balance  decimal.Decimal
	)

	err = r.tx.WithinTx(ctx, func(ctx context.Context) error {
		txn, err := r.transactions.GetByReferenceForUpdate(ctx, reference)
		if err != nil {
			return err
		}
		result.Status = txn.Status

		// settled by the webhook or another sweep since the batch was read
		if txn.Status.IsTerminal() {
			result.Outcome = ReconcileSkipped
			return nil
		}

		switch verification.Status {
		case models.StatusSuccess:
			user, err := r.users.GetByID(ctx, txn.UserID)
			if errors.Is(err, ErrUserNotFound) {
				logger.Log.Warnw("account of pending deposit not found, skipping", "reference", reference, "userID", txn.UserID)
				result.Outcome = ReconcileSkipped
				return nil
			}
			if err != nil {
				return err
			}

			// only an amount the gateway confirmed is ever credited
			if models.ToMinorUnits(txn.Amount) != verification.AmountMinor {
				logger.Log.Warnw("gateway amount differs from recorded amount, closing as failed",
					"reference", reference,
					"recorded", txn.Amount.StringFixed(2),
					"gateway", models.FromMinorUnits(verification.AmountMinor).StringFixed(2),
				)
				metadata["failure_reason"] = FailureAmountMismatch
				metadata["gateway_amount"] = models.FromMinorUnits(verification.AmountMinor).StringFixed(2)
				if err := r.close(ctx, txn, models.StatusFailed, metadata); err != nil {
					return err
				}
				result.Status = txn.Status
				result.Outcome = ReconcileClosed
				return nil
			}

			if balance, err = r.settle(ctx, txn, user.UserType, metadata); err != nil {
				return err
			}
			credited = txn
			result.Outcome = ReconcileCredited

		case models.StatusFailed, models.StatusReversed:
			if err := r.close(ctx, txn, verification.Status, metadata); err != nil {
				return err
			}
			result.Outcome = ReconcileClosed
		}

		result.Status = txn.Status
		return nil
	})
	if err != nil {
		return nil, err
	}

	if credited != nil {
		r.publisher.Publish(ctx, newTransactionEvent(OperationDepositCompleted, credited, balance))
	}
	return result, nil
}
