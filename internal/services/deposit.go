package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/sbilibin2017/xcellar-wallet/internal/logger"
	"github.com/sbilibin2017/xcellar-wallet/internal/models"
	"github.com/sbilibin2017/xcellar-wallet/internal/validation"
	"github.com/shopspring/decimal"
)

// DepositOutcome is what ProcessDeposit did with an event.
type DepositOutcome string

const (
	DepositCredited         DepositOutcome = "success"
	DepositAlreadyProcessed DepositOutcome = "already_processed"
	DepositIgnored          DepositOutcome = "ignored"
)

// DepositResult describes a processed gateway event.
type DepositResult struct {
	Outcome       DepositOutcome  `json:"status"`
	Reference     string          `json:"reference,omitempty"`
	TransactionID uuid.UUID       `json:"transaction_id,omitempty"`
	Status        models.Status   `json:"transaction_status,omitempty"`
	Balance       decimal.Decimal `json:"-"`
}

// RetryPolicy bounds the retries of one deposit event.
type RetryPolicy struct {
	MaxRetries int
	Initial    time.Duration
	MaxWait    time.Duration
}

// DepositService applies gateway deposit events to the ledger exactly once
// per reference.
type DepositService struct {
	ledger
	users             UserReader
	publisher         TransactionPublisher
	workflows         WorkflowFirer
	depositWorkflowID string
	policy            RetryPolicy
}

// NewDepositService creates a new DepositService.
func NewDepositService(
	tx TxManager,
	users UserReader,
	transactions TransactionStore,
	balances BalanceStore,
	notifications NotificationStore,
	publisher TransactionPublisher,
	workflows WorkflowFirer,
	depositWorkflowID string,
	policy RetryPolicy,
) *DepositService {
	return &DepositService{
		ledger: ledger{
			tx:            tx,
			transactions:  transactions,
			balances:      balances,
			notifications: notifications,
		},
		users:             users,
		publisher:         publisher,
		workflows:         workflows,
		depositWorkflowID: depositWorkflowID,
		policy:            policy,
	}
}

// ProcessDeposit credits the account behind a charge.success event. Replays of
// a reference that already reached a terminal status change nothing and
// report DepositAlreadyProcessed. Missing accounts and transient failures are
// retried with exponential backoff; unknown account types and rejected credits
// are not.
func (s *DepositService) ProcessDeposit(ctx context.Context, event models.GatewayEvent) (*DepositResult, error) {
	data := event.Data

	if event.Event != models.ChargeSuccessEvent {
		logger.Log.Infow("ignoring gateway event", "event", event.Event, "reference", data.Reference)
		return &DepositResult{Outcome: DepositIgnored, Reference: data.Reference}, nil
	}

	if err := validation.Struct(data); err != nil {
		logger.Log.Warnw("invalid deposit event", "reference", data.Reference, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidDepositEvent, err)
	}

	var (
		result  *DepositResult
		attempt int
	)
	op := func() error {
		attempt++
		res, err := s.apply(ctx, data)
		if err == nil {
			result = res
			return nil
		}
		if isPermanentDepositError(err) {
			return backoff.Permanent(err)
		}
		logger.Log.Warnw("deposit attempt failed", "reference", data.Reference, "attempt", attempt, "error", err)
		return err
	}

	if err := backoff.Retry(op, s.backOff(ctx)); err != nil {
		logger.Log.Errorw("failed to process deposit", "reference", data.Reference, "attempts", attempt, "error", err)
		return nil, err
	}

	logger.Log.Infow("deposit processed",
		"reference", result.Reference,
		"outcome", result.Outcome,
		"attempts", attempt,
	)
	return result, nil
}

func (s *DepositService) apply(ctx context.Context, data models.GatewayData) (*DepositResult, error) {
	user, err := s.users.GetByEmail(ctx, data.Customer.Email)
	if err != nil {
		return nil, fmt.Errorf("resolve account %s: %w", data.Customer.Email, err)
	}
	if !user.UserType.HasBalance() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccountType, user.UserType)
	}

	txn := newDepositTransaction(user.UserID, data)
	var (
		result   *DepositResult
		rejected error
		mismatch bool
	)

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		created, err := s.transactions.Create(ctx, txn)
		if err != nil {
			return fmt.Errorf("record %s: %w", data.Reference, err)
		}

		if !created {
			existing, err := s.transactions.GetByReferenceForUpdate(ctx, data.Reference)
			if err != nil {
				return fmt.Errorf("load %s: %w", data.Reference, err)
			}
			if existing.Status.IsTerminal() {
				result = &DepositResult{
					Outcome:       DepositAlreadyProcessed,
					Reference:     existing.Reference,
					TransactionID: existing.ID,
					Status:        existing.Status,
				}
				return nil
			}
			if existing.UserID != user.UserID {
				return fmt.Errorf("%w: %s", ErrReferenceOwner, data.Reference)
			}
			txn = existing
			if !existing.Amount.Equal(models.FromMinorUnits(data.Amount)) {
				logger.Log.Warnw("deposit amount differs from initialized amount, closing as failed",
					"reference", data.Reference,
					"initialized", existing.Amount.StringFixed(2),
					"received", models.FromMinorUnits(data.Amount).StringFixed(2),
				)
				mismatch = true
				return s.close(ctx, existing, models.StatusFailed, map[string]any{
					"sync_method":            "webhook",
					"failure_reason":         FailureAmountMismatch,
					"gateway_amount":         models.FromMinorUnits(data.Amount).StringFixed(2),
					"gateway_transaction_id": strconv.FormatInt(data.ID, 10),
				})
			}
		}

		balance, err := s.settle(ctx, txn, user.UserType, map[string]any{
			"sync_method":            "webhook",
			"gateway_transaction_id": strconv.FormatInt(data.ID, 10),
		})
		if errors.Is(err, ErrProfileNotFound) {
			rejected = err
		}
		if err != nil {
			return err
		}

		result = &DepositResult{
			Outcome:       DepositCredited,
			Reference:     txn.Reference,
			TransactionID: txn.ID,
			Status:        txn.Status,
			Balance:       balance,
		}
		return nil
	})

	if rejected != nil {
		if ferr := s.recordFailure(ctx, txn, rejected); ferr != nil {
			return nil, fmt.Errorf("record rejected deposit %s: %w", data.Reference, ferr)
		}
		return nil, fmt.Errorf("%w: %v", ErrCreditRejected, rejected)
	}
	if err != nil {
		return nil, err
	}
	if mismatch {
		return nil, fmt.Errorf("%w: %s", ErrAmountMismatch, data.Reference)
	}

	if result.Outcome == DepositCredited {
		s.announce(ctx, txn, result.Balance)
	}
	return result, nil
}

// recordFailure stores the reference as FAILED after the crediting unit of
// work rolled back, so a replay reports already_processed instead of
// crediting later. Settling it needs manual reconciliation.
func (s *DepositService) recordFailure(ctx context.Context, txn *models.TransactionDB, cause error) error {
	reason := map[string]any{"failure_reason": cause.Error()}

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.transactions.GetByReferenceForUpdate(ctx, txn.Reference)
		if errors.Is(err, ErrTransactionNotFound) {
			failed := *txn
			failed.Status = models.StatusFailed
			failed.Metadata = mergeMetadata(txn.Metadata, reason)
			_, err := s.transactions.Create(ctx, &failed)
			return err
		}
		if err != nil {
			return err
		}
		if existing.Status.IsTerminal() {
			return nil
		}
		return s.close(ctx, existing, models.StatusFailed, reason)
	})
}

func (s *DepositService) announce(ctx context.Context, txn *models.TransactionDB, balance decimal.Decimal) {
	s.publisher.Publish(ctx, newTransactionEvent(OperationDepositCompleted, txn, balance))

	s.workflows.Fire(ctx, s.depositWorkflowID, "deposit_received", map[string]any{
		"event":          "deposit_received",
		"user_id":        txn.UserID.String(),
		"transaction_id": txn.ID.String(),
		"reference":      txn.Reference,
		"amount":         txn.NetAmount.StringFixed(2),
		"balance":        balance.StringFixed(2),
	})
}

func (s *DepositService) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.policy.Initial
	b.MaxInterval = s.policy.MaxWait
	b.MaxElapsedTime = 0

	retries := s.policy.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

func isPermanentDepositError(err error) bool {
	return errors.Is(err, ErrUnknownAccountType) ||
		errors.Is(err, ErrCreditRejected) ||
		errors.Is(err, ErrAmountMismatch) ||
		errors.Is(err, ErrReferenceOwner) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func newDepositTransaction(userID uuid.UUID, data models.GatewayData) *models.TransactionDB {
	amount := models.FromMinorUnits(data.Amount)

	var gatewayID string
	if data.ID != 0 {
		gatewayID = strconv.FormatInt(data.ID, 10)
	}

	return &models.TransactionDB{
		UserID:               userID,
		Type:                 models.TransactionDeposit,
		Status:               models.StatusPending,
		PaymentMethod:        models.PaymentMethodForChannel(data.Channel),
		Amount:               amount,
		Fee:                  decimal.Zero,
		NetAmount:            amount,
		Reference:            data.Reference,
		GatewayTransactionID: gatewayID,
		Description:          "Wallet deposit",
		Metadata: mergeMetadata(nil, map[string]any{
			"channel":       data.Channel,
			"currency":      data.Currency,
			"customer_code": data.Customer.CustomerCode,
		}),
	}
}

// mergeMetadata returns base with extra keys set. Invalid base JSON is replaced.
func mergeMetadata(base types.JSONText, extra map[string]any) types.JSONText {
	doc := map[string]any{}
	if len(base) > 0 {
		_ = json.Unmarshal(base, &doc)
	}
	for k, v := range extra {
		doc[k] = v
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return types.JSONText("{}")
	}
	return out
}
