// Package app wires configuration, storage, vendors and services together
// for the server and the CLI.
package app

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/sbilibin2017/xcellar-wallet/internal/config"
	"github.com/sbilibin2017/xcellar-wallet/internal/dbtx"
	"github.com/sbilibin2017/xcellar-wallet/internal/facades"
	"github.com/sbilibin2017/xcellar-wallet/internal/jwt"
	"github.com/sbilibin2017/xcellar-wallet/internal/logger"
	"github.com/sbilibin2017/xcellar-wallet/internal/repositories"
	"github.com/sbilibin2017/xcellar-wallet/internal/services"
)

// App holds the connections and services of one process.
type App struct {
	Config *config.Config
	DB     *sqlx.DB
	Redis  *redis.Client
	kafka  *kafka.Writer

	JWT      *jwt.JWT
	Paystack *facades.PaystackFacade

	Auth          *services.AuthService
	Wallet        *services.WalletService
	Deposits      *services.DepositService
	Reconciler    *services.Reconciler
	Notifications *services.NotificationService
	Verification  *services.VerificationService
	PasswordReset *services.PasswordResetService
	Workflows     *services.WorkflowService
}

// New connects to PostgreSQL and builds every service. Redis and Kafka
// clients connect lazily on first use.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger.Log.Infow("connecting to PostgreSQL", "host", cfg.PostgresHost, "port", cfg.PostgresPort, "db", cfg.PostgresDB)

	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.PostgresMaxOpenConns)
	db.SetMaxIdleConns(cfg.PostgresMaxIdleConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdleConns,
	})

	a := &App{Config: cfg, DB: db, Redis: rdb}

	var writer services.KafkaWriter
	if len(cfg.KafkaBrokers) > 0 {
		a.kafka = &kafka.Writer{
			Addr:                   kafka.TCP(cfg.KafkaBrokers...),
			Topic:                  cfg.KafkaTopic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		}
		writer = a.kafka
	}

	a.build(writer)
	return a, nil
}

func (a *App) build(writer services.KafkaWriter) {
	cfg := a.Config

	tx := dbtx.NewManager(a.DB)
	userReader := repositories.NewUserReadRepository(a.DB)
	userWriter := repositories.NewUserWriteRepository(a.DB)
	balances := repositories.NewBalanceRepository(a.DB)
	transactions := repositories.NewTransactionRepository(a.DB)
	notifications := repositories.NewNotificationRepository(a.DB)
	workflowLogs := repositories.NewWorkflowLogRepository(a.DB)
	otpLimiter := repositories.NewOTPLimiterRepository(a.Redis, cfg.OTPMaxSends, cfg.OTPSendWindow)
	resetTokens := repositories.NewResetTokenRepository(a.Redis)

	a.JWT = jwt.New(cfg.JWTSecretKey, cfg.JWTExp)
	a.Paystack = facades.NewPaystackFacade(cfg.PaystackBaseURL, cfg.PaystackSecretKey, cfg.PaystackTimeout)
	twilio := facades.NewTwilioVerifyFacade(cfg.TwilioBaseURL, cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioServiceSID)
	n8n := facades.NewN8nFacade(cfg.N8nBaseURL, cfg.N8nAPIKey, cfg.N8nWebhookSecret)

	publisher := services.NewKafkaPublisher(writer)
	a.Workflows = services.NewWorkflowService(n8n, workflowLogs)

	a.Auth = services.NewAuthService(tx, userReader, userWriter, balances, a.JWT)
	a.Wallet = services.NewWalletService(tx, userReader, transactions, balances, notifications, a.Paystack, publisher)
	a.Deposits = services.NewDepositService(
		tx, userReader, transactions, balances, notifications, publisher,
		a.Workflows, cfg.DepositWorkflowID,
		services.RetryPolicy{
			MaxRetries: cfg.DepositMaxRetries,
			Initial:    cfg.DepositRetryInitial,
			MaxWait:    cfg.DepositRetryMaxWait,
		},
	)
	a.Reconciler = services.NewReconciler(
		tx, userReader, transactions, balances, notifications, a.Paystack, publisher,
		cfg.ReconcileMinAge, cfg.ReconcileBatchSize,
	)
	a.Notifications = services.NewNotificationService(notifications)
	a.Verification = services.NewVerificationService(twilio, otpLimiter, userReader, userWriter)
	a.PasswordReset = services.NewPasswordResetService(
		userReader, userWriter, resetTokens, a.Workflows,
		cfg.PasswordResetWorkflowID, cfg.PasswordResetTokenTTL,
	)
}

// Close releases every connection.
func (a *App) Close() {
	if a.kafka != nil {
		if err := a.kafka.Close(); err != nil {
			logger.Log.Errorw("failed to close Kafka writer", "error", err)
		}
	}
	if err := a.Redis.Close(); err != nil {
		logger.Log.Errorw("failed to close Redis client", "error", err)
	}
	if err := a.DB.Close(); err != nil {
		logger.Log.Errorw("failed to close PostgreSQL", "error", err)
	}
}
