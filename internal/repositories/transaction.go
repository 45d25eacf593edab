package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/xcellar-wallet/internal/dbtx"
	"github.com/sbilibin2017/xcellar-wallet/internal/models"
)

const transactionColumns = `id, user_id, transaction_type, status, payment_method, amount, fee, net_amount,
	reference, gateway_transaction_id, description, metadata, created_at, updated_at, completed_at`

// TransactionRepository persists ledger transactions.
type TransactionRepository struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create inserts the transaction keyed by its reference. It reports false,
// without error, when the reference already exists.
func (r *TransactionRepository) Create(ctx context.Context, t *models.TransactionDB) (bool, error) {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW(), $13)
		ON CONFLICT (reference) DO NOTHING
		RETURNING created_at, updated_at
	`

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if len(t.Metadata) == 0 {
		t.Metadata = []byte("{}")
	}

	args := []any{
		t.ID, t.UserID, t.Type, t.Status, t.PaymentMethod, t.Amount, t.Fee, t.NetAmount,
		t.Reference, t.GatewayTransactionID, t.Description, t.Metadata, t.CompletedAt,
	}

	row := dbtx.Executor(ctx, r.db).QueryRowxContext(ctx, query, args...)
	err := row.Scan(&t.CreatedAt, &t.UpdatedAt)
	logQuery(query, args, t.ID, err)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetByReference returns the transaction with the given reference.
func (r *TransactionRepository) GetByReference(ctx context.Context, reference string) (*models.TransactionDB, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE reference = $1`
	return r.get(ctx, query, reference)
}

// GetByReferenceForUpdate locks the row until the surrounding transaction ends.
func (r *TransactionRepository) GetByReferenceForUpdate(ctx context.Context, reference string) (*models.TransactionDB, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE reference = $1 FOR UPDATE`
	return r.get(ctx, query, reference)
}

func (r *TransactionRepository) get(ctx context.Context, query string, reference string) (*models.TransactionDB, error) {
	var t models.TransactionDB
	err := sqlx.GetContext(ctx, dbtx.Executor(ctx, r.db), &t, query, reference)
	logQuery(query, []any{reference}, t.ID, err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateStatus moves a transaction from one status to another, merging
// metadata into the stored document. The update only applies while the row
// still has status from; otherwise ErrStatusConflict is returned.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.Status, metadata map[string]any) error {
	if !models.CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	patch := []byte("{}")
	if len(metadata) > 0 {
		var err error
		if patch, err = json.Marshal(metadata); err != nil {
			return err
		}
	}

	var completedAt *time.Time
	if to == models.StatusSuccess {
		now := time.Now().UTC()
		completedAt = &now
	}

	query := `
		UPDATE transactions
		SET status = $3,
		    completed_at = COALESCE($4, completed_at),
		    metadata = metadata || $5::jsonb,
		    updated_at = NOW()
		WHERE id = $1 AND status = $2
	`
	args := []any{id, from, to, completedAt, string(patch)}

	res, err := dbtx.Executor(ctx, r.db).ExecContext(ctx, query, args...)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}
	logQuery(query, args, rowsAffected, err)

	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

// ListPendingBefore returns PENDING transactions of the given type created
// before the cutoff, oldest first.
func (r *TransactionRepository) ListPendingBefore(ctx context.Context, txType models.TransactionType, before time.Time, limit int) ([]models.TransactionDB, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE transaction_type = $1 AND status = $2 AND created_at < $3
		ORDER BY created_at
		LIMIT $4
	`
	args := []any{txType, models.StatusPending, before, limit}

	var txs []models.TransactionDB
	err := sqlx.SelectContext(ctx, dbtx.Executor(ctx, r.db), &txs, query, args...)
	logQuery(query, args, len(txs), err)
	return txs, err
}

// ListByUser returns the user's transactions, newest first.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.TransactionDB, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	args := []any{userID, limit, offset}

	var txs []models.TransactionDB
	err := sqlx.SelectContext(ctx, dbtx.Executor(ctx, r.db), &txs, query, args...)
	logQuery(query, args, len(txs), err)
	return txs, err
}
