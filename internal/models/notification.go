package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
)

// NotificationType names what a notification is about.
type NotificationType string

const (
	NotificationDepositReceived     NotificationType = "DEPOSIT_RECEIVED"
	NotificationWithdrawalCompleted NotificationType = "WITHDRAWAL_COMPLETED"
)

// NotificationDB represents a row of the notifications table.
type NotificationDB struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	UserID        uuid.UUID        `json:"user_id" db:"user_id"`
	Type          NotificationType `json:"notification_type" db:"notification_type"`
	Title         string           `json:"title" db:"title"`
	Message       string           `json:"message" db:"message"`
	TransactionID *uuid.UUID       `json:"transaction_id,omitempty" db:"transaction_id"`
	Metadata      types.JSONText   `json:"metadata" db:"metadata"`
	IsRead        bool             `json:"is_read" db:"is_read"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
}
