package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/sbilibin2017/xcellar-wallet/internal/models"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=interfaces.go -destination=interfaces_mock.go -package=services

// TxManager runs fn inside one database transaction.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserReader defines read-only operations for users.
type UserReader interface {
	GetByEmail(ctx context.Context, email string) (*models.UserDB, error)
	GetByID(ctx context.Context, userID uuid.UUID) (*models.UserDB, error)
}

// UserWriter defines write operations for users.
type UserWriter interface {
	Save(ctx context.Context, user *models.UserDB) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	MarkPhoneVerified(ctx context.Context, userID uuid.UUID, phone string) error
}

// BalanceStore reads and conditionally mutates profile balances.
type BalanceStore interface {
	CreateProfile(ctx context.Context, userType models.UserType, userID uuid.UUID) error
	Credit(ctx context.Context, userType models.UserType, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
	Debit(ctx context.Context, userType models.UserType, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
	GetBalance(ctx context.Context, userType models.UserType, userID uuid.UUID) (decimal.Decimal, error)
}

// TransactionStore persists ledger transactions.
type TransactionStore interface {
	Create(ctx context.Context, t *models.TransactionDB) (bool, error)
	GetByReference(ctx context.Context, reference string) (*models.TransactionDB, error)
	GetByReferenceForUpdate(ctx context.Context, reference string) (*models.TransactionDB, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.Status, metadata map[string]any) error
	ListPendingBefore(ctx context.Context, txType models.TransactionType, before time.Time, limit int) ([]models.TransactionDB, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.TransactionDB, error)
}

// NotificationStore persists user notifications.
type NotificationStore interface {
	Create(ctx context.Context, n *models.NotificationDB) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.NotificationDB, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
}

// PaymentGateway is the payment provider.
type PaymentGateway interface {
	VerifyTransaction(ctx context.Context, reference string) (*models.GatewayVerification, error)
	InitializeTransaction(ctx context.Context, email string, amountMinor int64, reference string) (*models.GatewayCheckout, error)
}

// TransactionPublisher announces settled ledger movements.
type TransactionPublisher interface {
	Publish(ctx context.Context, event models.TransactionEvent)
}

// WorkflowFirer triggers a workflow and only logs the outcome.
type WorkflowFirer interface {
	Fire(ctx context.Context, workflowID, name string, data map[string]any)
}

// WorkflowClient calls the workflow engine.
type WorkflowClient interface {
	Trigger(ctx context.Context, target string, data map[string]any) (json.RawMessage, error)
}

// WorkflowLogStore records workflow engine calls.
type WorkflowLogStore interface {
	Create(ctx context.Context, l *models.WorkflowLogDB) error
	Finish(ctx context.Context, id uuid.UUID, status models.WorkflowStatus, response types.JSONText, errMsg string) error
}

// OTPSender delivers and checks one-time codes.
type OTPSender interface {
	SendOTP(ctx context.Context, phone, method string) (string, error)
	CheckOTP(ctx context.Context, phone, code string) (bool, error)
}

// OTPLimiter throttles code sends per phone number.
type OTPLimiter interface {
	Allow(ctx context.Context, phone string) (bool, error)
}

// ResetTokenStore keeps single-use password reset tokens.
type ResetTokenStore interface {
	Save(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error
	Lookup(ctx context.Context, token string) (uuid.UUID, error)
	Delete(ctx context.Context, token string) error
}

// JWTGenerator defines an interface for generating JWT tokens.
type JWTGenerator interface {
	Generate(ctx context.Context, user *models.UserDB) (string, error)
}

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
