package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/xcellar-wallet/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// --- Setup Postgres ---
func setupPostgres(t *testing.T) *sqlx.DB {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_PASSWORD": "secret", "POSTGRES_DB": "testdb", "POSTGRES_USER": "postgres"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("docker is not available: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://postgres:secret@%s:%s/testdb?sslmode=disable", host, port.Port())
	db, err := sqlx.Connect("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)

	schema, err := os.ReadFile("../../migrations/001_init.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)

	return db
}

func seedUser(t *testing.T, db *sqlx.DB, userType models.UserType) uuid.UUID {
	ctx := context.Background()
	user := &models.UserDB{
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "hash",
		UserType:     userType,
		IsActive:     true,
	}
	require.NoError(t, NewUserWriteRepository(db).Save(ctx, user))
	require.NoError(t, NewBalanceRepository(db).CreateProfile(ctx, userType, user.UserID))
	return user.UserID
}

func TestBalanceRepository_ConcurrentCredits(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()
	userID := seedUser(t, db, models.UserTypeCustomer)
	repo := NewBalanceRepository(db)

	const workers = 50
	amount := decimal.RequireFromString("10.25")

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Credit(ctx, models.UserTypeCustomer, userID, amount)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	balance, err := repo.GetBalance(ctx, models.UserTypeCustomer, userID)
	require.NoError(t, err)
	assert.True(t, amount.Mul(decimal.NewFromInt(workers)).Equal(balance), "got %s", balance)
}

func TestBalanceRepository_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()
	userID := seedUser(t, db, models.UserTypeCourier)
	repo := NewBalanceRepository(db)

	_, err := repo.Credit(ctx, models.UserTypeCourier, userID, decimal.NewFromInt(100))
	require.NoError(t, err)

	const workers = 30
	var succeeded, rejected int64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Debit(ctx, models.UserTypeCourier, userID, decimal.NewFromInt(7))
			switch {
			case err == nil:
				atomic.AddInt64(&succeeded, 1)
			case errors.Is(err, ErrInsufficientFunds):
				atomic.AddInt64(&rejected, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(14), succeeded)
	assert.Equal(t, int64(workers-14), rejected)

	balance, err := repo.GetBalance(ctx, models.UserTypeCourier, userID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(2).Equal(balance), "got %s", balance)
}

func TestTransactionRepository_ReferenceIsUnique(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()
	userID := seedUser(t, db, models.UserTypeCustomer)
	repo := NewTransactionRepository(db)

	var created int64
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx := newTransaction()
			tx.UserID = userID
			ok, err := repo.Create(ctx, tx)
			assert.NoError(t, err)
			if ok {
				atomic.AddInt64(&created, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), created)

	stored, err := repo.GetByReference(ctx, "R1")
	require.NoError(t, err)
	require.NoError(t, repo.UpdateStatus(ctx, stored.ID, models.StatusPending, models.StatusSuccess, map[string]any{"sync_method": "webhook"}))
	assert.ErrorIs(t, repo.UpdateStatus(ctx, stored.ID, models.StatusPending, models.StatusFailed, nil), ErrStatusConflict)

	stored, err = repo.GetByReference(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, stored.Status)
	assert.NotNil(t, stored.CompletedAt)
	assert.JSONEq(t, `{"sync_method":"webhook"}`, string(stored.Metadata))
}
