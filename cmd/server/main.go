package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/sbilibin2017/xcellar-wallet/internal/app"
	"github.com/sbilibin2017/xcellar-wallet/internal/config"
	"github.com/sbilibin2017/xcellar-wallet/internal/handlers"
	"github.com/sbilibin2017/xcellar-wallet/internal/logger"
	"github.com/sbilibin2017/xcellar-wallet/internal/middlewares"
	"github.com/sbilibin2017/xcellar-wallet/internal/scheduler"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// @title xcellar-wallet API
// @version 1.0.0
// @description Wallet ledger of the Xcellar delivery platform: deposits, withdrawals, reconciliation and notifications
// @host localhost:8080
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	printBuildInfo()
	configPath := parseFlags()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Version: %s\nCommit: %s\nBuild: %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// run initializes the logger, storage, services, the reconciliation scheduler
// and the HTTP server, and shuts them down on SIGINT/SIGTERM.
func run(ctx context.Context, cfg *config.Config) error {
	if err := logger.Initialize(cfg.LogLevel, cfg.LogFormat); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer logger.Sync()
	logger.Log.Infow("logger initialized", "level", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection error: %w", err)
	}

	sched := scheduler.New(a.Reconciler, cfg.ReconcileSchedule)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer func() { <-sched.Stop().Done() }()

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: newRouter(a),
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Log.Infof("HTTP server listening on %s", cfg.HTTPAddr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("HTTP server shutdown error", "error", err)
	}

	logger.Log.Info("HTTP server stopped gracefully")
	return nil
}

func newRouter(a *app.App) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.LoggingMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Post("/webhooks/paystack", handlers.NewPaystackWebhookHandler(a.Paystack, a.Deposits))

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/register", handlers.NewRegisterHandler(a.Auth))
		r.Post("/auth/login", handlers.NewLoginHandler(a.Auth))
		r.Post("/password-reset/request", handlers.NewPasswordResetRequestHandler(a.PasswordReset))
		r.Post("/password-reset/confirm", handlers.NewPasswordResetConfirmHandler(a.PasswordReset))

		// Protected routes with JWT middleware
		r.Group(func(r chi.Router) {
			r.Use(middlewares.AuthMiddleware(a.JWT))

			r.Get("/wallet/balance", handlers.NewGetBalanceHandler(a.Wallet))
			r.Get("/wallet/transactions", handlers.NewListTransactionsHandler(a.Wallet))
			r.Post("/wallet/withdraw", handlers.NewWithdrawHandler(a.Wallet))
			r.Post("/wallet/deposits/initialize", handlers.NewInitializeDepositHandler(a.Wallet))

			r.Get("/notifications", handlers.NewListNotificationsHandler(a.Notifications))
			r.Post("/notifications/{id}/read", handlers.NewMarkNotificationReadHandler(a.Notifications))

			r.Post("/verification/otp/send", handlers.NewSendOTPHandler(a.Verification))
			r.Post("/verification/otp/verify", handlers.NewVerifyOTPHandler(a.Verification))

			r.Group(func(r chi.Router) {
				r.Use(middlewares.StaffOnly)
				r.Post("/automation/workflows/{workflowID}/trigger", handlers.NewTriggerWorkflowHandler(a.Workflows))
				r.Post("/admin/transactions/{reference}/verify", handlers.NewVerifyTransactionHandler(a.Reconciler))
			})
		})
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://%s/swagger/doc.json", a.Config.HTTPAddr())),
	))

	return r
}
