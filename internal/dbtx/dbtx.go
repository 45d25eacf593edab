// Package dbtx carries a *sqlx.Tx through context so repositories join the
// caller's unit of work.
package dbtx

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type contextKey struct{}

var txKey = contextKey{}

// WithTx stores a transaction in the context.
func WithTx(ctx context.Context, tx *sqlx.Tx) context.Context {
	return context.WithValue(ctx, txKey, tx)
}

// GetTx retrieves the transaction from the context. Returns nil if not present.
func GetTx(ctx context.Context) *sqlx.Tx {
	tx, _ := ctx.Value(txKey).(*sqlx.Tx)
	return tx
}

// Executor returns the transaction in ctx, or db when there is none.
func Executor(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx := GetTx(ctx); tx != nil {
		return tx
	}
	return db
}

// Manager runs functions inside a database transaction.
type Manager struct {
	db *sqlx.DB
}

// NewManager creates a Manager over db.
func NewManager(db *sqlx.DB) *Manager {
	return &Manager{db: db}
}

// WithinTx runs fn in a transaction. If ctx already carries one, fn joins it
// and the outer owner decides commit or rollback. Any error or panic from fn
// rolls back.
func (m *Manager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if GetTx(ctx) != nil {
		return fn(ctx)
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if rec := recover(); rec != nil {
			_ = tx.Rollback()
			panic(rec)
		}
	}()

	if err := fn(WithTx(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
