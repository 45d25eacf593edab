package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/xcellar-wallet/internal/dbtx"
	"github.com/sbilibin2017/xcellar-wallet/internal/models"
)

// NotificationRepository persists user notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts the notification. A second notification of the same type for
// the same transaction is skipped and reported as false.
func (r *NotificationRepository) Create(ctx context.Context, n *models.NotificationDB) (bool, error) {
	query := `
		INSERT INTO notifications (id, user_id, notification_type, title, message, transaction_id, metadata, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, NOW())
		ON CONFLICT (transaction_id, notification_type) DO NOTHING
		RETURNING created_at
	`

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if len(n.Metadata) == 0 {
		n.Metadata = []byte("{}")
	}
	args := []any{n.ID, n.UserID, n.Type, n.Title, n.Message, n.TransactionID, n.Metadata}

	err := dbtx.Executor(ctx, r.db).QueryRowxContext(ctx, query, args...).Scan(&n.CreatedAt)
	logQuery(query, args, n.ID, err)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListByUser returns the user's notifications, newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.NotificationDB, error) {
	query := `
		SELECT id, user_id, notification_type, title, message, transaction_id, metadata, is_read, created_at
		FROM notifications
		WHERE user_id = $1 AND (NOT $2 OR is_read = FALSE)
		ORDER BY created_at DESC
		LIMIT $3
	`
	args := []any{userID, unreadOnly, limit}

	var out []models.NotificationDB
	err := sqlx.SelectContext(ctx, dbtx.Executor(ctx, r.db), &out, query, args...)
	logQuery(query, args, len(out), err)
	return out, err
}

// MarkRead flags one of the user's notifications as read.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`
	args := []any{id, userID}

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
		return ErrNotificationNotFound
	}
	return nil
}
