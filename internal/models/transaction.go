package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger movement.
type TransactionType string

const (
	TransactionDeposit    TransactionType = "DEPOSIT"
	TransactionWithdrawal TransactionType = "WITHDRAWAL"
	TransactionPayment    TransactionType = "PAYMENT"
	TransactionRefund     TransactionType = "REFUND"
)

// PaymentMethod is the channel money arrived or left through.
type PaymentMethod string

const (
	PaymentDVA          PaymentMethod = "DVA"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentCard         PaymentMethod = "CARD"
	PaymentWallet       PaymentMethod = "WALLET"
)

// PaymentMethodForChannel maps a gateway channel to a payment method.
func PaymentMethodForChannel(channel string) PaymentMethod {
	switch channel {
	case "dedicated_nuban":
		return PaymentDVA
	case "card":
		return PaymentCard
	default:
		return PaymentBankTransfer
	}
}

// TransactionDB represents a row of the transactions table.
type TransactionDB struct {
	ID                   uuid.UUID       `json:"id" db:"id"`
	UserID               uuid.UUID       `json:"user_id" db:"user_id"`
	Type                 TransactionType `json:"transaction_type" db:"transaction_type"`
	Status               Status          `json:"status" db:"status"`
	PaymentMethod        PaymentMethod   `json:"payment_method" db:"payment_method"`
	Amount               decimal.Decimal `json:"amount" db:"amount"`
	Fee                  decimal.Decimal `json:"fee" db:"fee"`
	NetAmount            decimal.Decimal `json:"net_amount" db:"net_amount"`
	Reference            string          `json:"reference" db:"reference"`
	GatewayTransactionID string          `json:"gateway_transaction_id" db:"gateway_transaction_id"`
	Description          string          `json:"description" db:"description"`
	Metadata             types.JSONText  `json:"metadata" db:"metadata"`
	CreatedAt            time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at" db:"updated_at"`
	CompletedAt          *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
}

// TransactionEvent is the message published to Kafka once a ledger movement settles.
type TransactionEvent struct {
	TransactionID string `json:"transaction_id"`
	Reference     string `json:"reference"`
	UserID        string `json:"user_id"`
	Operation     string `json:"operation"` // deposit.completed, withdrawal.completed
	Amount        string `json:"amount"`
	Balance       string `json:"balance"`
	Timestamp     int64  `json:"timestamp"`
}
