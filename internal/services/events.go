package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sbilibin2017/xcellar-wallet/internal/logger"
	"github.com/sbilibin2017/xcellar-wallet/internal/models"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// Event operations published to Kafka.
const (
	OperationDepositCompleted    = "deposit.completed"
	OperationWithdrawalCompleted = "withdrawal.completed"
)

// KafkaPublisher publishes settled transactions to Kafka. Failures are logged
// and never reach the caller: the ledger row is the source of truth.
type KafkaPublisher struct {
	writer KafkaWriter
}

// NewKafkaPublisher creates a publisher. A nil writer disables publishing.
func NewKafkaPublisher(writer KafkaWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

// Publish writes event keyed by the account, so each account's events stay
// ordered on one partition.
func (p *KafkaPublisher) Publish(ctx context.Context, event models.TransactionEvent) {
	if p.writer == nil {
		logger.Log.Debugw("Kafka writer not configured, skipping publishing", "reference", event.Reference)
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Log.Errorw("Failed to marshal transaction for Kafka", "reference", event.Reference, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.UserID),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logger.Log.Errorw("Failed to publish transaction to Kafka", "reference", event.Reference, "error", err)
	} else {
		logger.Log.Infow("Transaction published to Kafka", "reference", event.Reference, "operation", event.Operation)
	}
}

func newTransactionEvent(operation string, txn *models.TransactionDB, balance decimal.Decimal) models.TransactionEvent {
	return models.TransactionEvent{
		TransactionID: txn.ID.String(),
		Reference:     txn.Reference,
		UserID:        txn.UserID.String(),
		Operation:     operation,
		Amount:        txn.NetAmount.StringFixed(2),
		Balance:       balance.StringFixed(2),
		Timestamp:     time.Now().Unix(),
	}
}
