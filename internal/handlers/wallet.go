package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/sbilibin2017/xcellar-wallet/internal/logger"
	"github.com/sbilibin2017/xcellar-wallet/internal/models"
	"github.com/sbilibin2017/xcellar-wallet/internal/services"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=wallet.go -destination=wallet_mock.go -package=handlers

// BalanceReader returns a profile balance.
type BalanceReader interface {
	GetBalance(ctx context.Context, userID uuid.UUID, userType models.UserType) (decimal.Decimal, error)
}

// Withdrawer debits a wallet.
type Withdrawer interface {
	Withdraw(ctx context.Context, userID uuid.UUID, userType models.UserType, amount decimal.Decimal, description string) (*services.WithdrawResult, error)
}

// TransactionLister pages through a user's transactions.
type TransactionLister interface {
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.TransactionDB, error)
}

// DepositInitializer opens a card deposit checkout.
type DepositInitializer interface {
	InitializeDeposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*models.GatewayCheckout, error)
}

// BalanceResponse represents the caller's wallet balance
// swagger:model BalanceResponse
type BalanceResponse struct {
	// Balance in naira, two decimal places
	// default: 1500.00
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}

// WithdrawRequest represents the JSON body of a withdrawal
// swagger:model WithdrawRequest
type WithdrawRequest struct {
	// Amount to withdraw
	// required: true
	// default: 1000.00
	Amount      decimal.Decimal `json:"amount" swaggertype:"string"`
	Description string          `json:"description" validate:"max=255"`
}

// WithdrawResponse represents a completed withdrawal
// swagger:model WithdrawResponse
type WithdrawResponse struct {
	Message     string                `json:"message"`
	Transaction *models.TransactionDB `json:"transaction"`
	NewBalance  decimal.Decimal       `json:"new_balance"`
}

// TransactionsResponse is one page of transactions
// swagger:model TransactionsResponse
type TransactionsResponse struct {
	Transactions []models.TransactionDB `json:"transactions"`
	Limit        int                    `json:"limit"`
	Offset       int                    `json:"offset"`
}

// DepositInitializeRequest represents the JSON body of a card deposit
// swagger:model DepositInitializeRequest
type DepositInitializeRequest struct {
	// Amount to deposit
	// required: true
	// default: 2500.00
	Amount decimal.Decimal `json:"amount" swaggertype:"string"`
}

// NewGetBalanceHandler returns an HTTP handler for the caller's balance.
// @Summary Get wallet balance
// @Tags wallet
// @Produce json
// @Success 200 {object} handlers.BalanceResponse
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure 403 {object} handlers.ErrorResponse "Account has no wallet"
// @Failure 404 {object} handlers.ErrorResponse "Profile not found"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /api/v1/wallet/balance [get]
// @Security BearerAuth
func NewGetBalanceHandler(svc BalanceReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		balance, err := svc.GetBalance(r.Context(), claims.UserID, claims.UserType)
		if err != nil {
			writeWalletError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, BalanceResponse{Balance: balance, Currency: "NGN"})
	}
}

// NewWithdrawHandler handles withdrawing funds from the caller's wallet
// @Summary Withdraw funds
// @Description Debits the wallet only when the balance covers the amount.
// @Tags wallet
// @Accept json
// @Produce json
// @Param request body handlers.WithdrawRequest true "Withdraw Request"
// @Success 200 {object} handlers.WithdrawResponse
// @Failure 400 {object} handlers.ErrorResponse "Insufficient funds or invalid amount"
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Router /api/v1/wallet/withdraw [post]
// @Security BearerAuth
func NewWithdrawHandler(svc Withdrawer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		var req WithdrawRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		res, err := svc.Withdraw(r.Context(), claims.UserID, claims.UserType, req.Amount, req.Description)
		if err != nil {
			writeWalletError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, WithdrawResponse{
			Message:     "Withdrawal successful",
			Transaction: res.Transaction,
			NewBalance:  res.Balance,
		})
	}
}

// NewListTransactionsHandler returns the caller's transactions, newest first.
// @Summary List transactions
// @Tags wallet
// @Produce json
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Rows to skip"
// @Success 200 {object} handlers.TransactionsResponse
// @Failure 400 {object} handlers.ErrorResponse "Invalid paging"
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Router /api/v1/wallet/transactions [get]
// @Security BearerAuth
func NewListTransactionsHandler(svc TransactionLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		limit, err := queryInt(r, "limit", 20)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		if limit > 100 {
			limit = 100
		}
		offset, err := queryInt(r, "offset", 0)
		if err != nil || offset < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}

		txs, err := svc.ListTransactions(r.Context(), claims.UserID, limit, offset)
		if err != nil {
			writeWalletError(w, err)
			return
		}
		if txs == nil {
			txs = []models.TransactionDB{}
		}

		writeJSON(w, http.StatusOK, TransactionsResponse{Transactions: txs, Limit: limit, Offset: offset})
	}
}

// NewInitializeDepositHandler opens a card deposit with the payment gateway.
// @Summary Initialize card deposit
// @Description Returns the gateway checkout URL. The deposit is credited by the webhook or the reconciler once paid.
// @Tags wallet
// @Accept json
// @Produce json
// @Param request body handlers.DepositInitializeRequest true "Deposit Request"
// @Success 201 {object} models.GatewayCheckout
// @Failure 400 {object} handlers.ErrorResponse "Invalid amount"
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure 502 {object} handlers.ErrorResponse "Gateway unavailable"
// @Router /api/v1/wallet/deposits/initialize [post]
// @Security BearerAuth
func NewInitializeDepositHandler(svc DepositInitializer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		var req DepositInitializeRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		checkout, err := svc.InitializeDeposit(r.Context(), claims.UserID, req.Amount)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrInvalidAmount),
				errors.Is(err, services.ErrUnknownAccountType),
				errors.Is(err, services.ErrUserNotFound):
				writeWalletError(w, err)
			default:
				logger.Log.Errorw("deposit initialization failed", "userID", claims.UserID, "error", err)
				writeError(w, http.StatusBadGateway, "payment gateway unavailable")
			}
			return
		}

		writeJSON(w, http.StatusCreated, checkout)
	}
}

func writeWalletError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInsufficientFunds):
		writeError(w, http.StatusBadRequest, "Insufficient funds")
	case errors.Is(err, services.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "Amount must be greater than zero")
	case errors.Is(err, services.ErrUnknownAccountType):
		writeError(w, http.StatusForbidden, "Account has no wallet")
	case errors.Is(err, services.ErrProfileNotFound),
		errors.Is(err, services.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "Wallet not found")
	default:
		logger.Log.Errorw("internal server error", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
