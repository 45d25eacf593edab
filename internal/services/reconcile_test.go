package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sbilibin2017/xcellar-wallet/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reconcileFixture struct {
	ledger    *fakeLedger
	gateway   *fakeGateway
	publisher *fakePublisher
	rec       *Reconciler
}

func newReconcileFixture() *reconcileFixture {
	l := newFakeLedger()
	g := newFakeGateway(l)
	p := &fakePublisher{}
	rec := NewReconciler(l, l, l, l, fakeNotifications{l}, g, p, 30*time.Second, 50)
	return &reconcileFixture{ledger: l, gateway: g, publisher: p, rec: rec}
}

func TestReconciler_CreditsSuccessfulDeposit(t *testing.T) {
	for _, vendor := range []string{"success", "SUCCESS", "Success"} {
		t.Run(vendor, func(t *testing.T) {
			f := newReconcileFixture()
			user := f.ledger.addUser("u@example.com", models.UserTypeCustomer, true)
			pending := f.ledger.seedPending("R1", user.UserID, "5000.00", time.Minute)
			f.gateway.set("R1", vendor)

			res, err := f.rec.Sweep(context.Background())
			require.NoError(t, err)

			assert.Equal(t, &SweepResult{Checked: 1, Credited: 1}, res)
			assert.True(t, decimal.RequireFromString("5000.00").Equal(f.ledger.balance(user.UserID)))

			stored := f.ledger.tx("R1")
			assert.Equal(t, models.StatusSuccess, stored.Status)
			assert.NotNil(t, stored.CompletedAt)
			assert.Contains(t, string(stored.Metadata), `"sync_method":"periodic_sync"`)
			assert.Equal(t, 1, f.ledger.notificationCount(pending.ID))
			assert.Equal(t, 1, f.publisher.count())
		})
	}
}

func TestReconciler_SweepIsIdempotent(t *testing.T) {
	f := newReconcileFixture()
	user := f.ledger.addUser("u@example.com", models.UserTypeCourier, true)
	f.ledger.seedPending("R1", user.UserID, "5000.00", time.Minute)
	f.gateway.set("R1", "success")

	for i := 0; i < 3; i++ {
		_, err := f.rec.Sweep(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, 1, f.ledger.creditCount())
	assert.Equal(t, 1, f.gateway.calls["R1"])
	assert.True(t, decimal.RequireFromString("5000.00").Equal(f.ledger.balance(user.UserID)))
}

func TestReconciler_ClosesWithoutBalanceEffect(t *testing.T) {
	tests := []struct {
		vendor string
		want   models.Status
	}{
		{vendor: "failed", want: models.StatusFailed},
		{vendor: "FAILED", want: models.StatusFailed},
		{vendor: "abandoned", want: models.StatusFailed},
		{vendor: "reversed", want: models.StatusReversed},
	}

	for _, tt := range tests {
		t.Run(tt.vendor, func(t *testing.T) {
			f := newReconcileFixture()
			user := f.ledger.addUser("u@example.com", models.UserTypeCustomer, true)
			f.ledger.seedPending("R1", user.UserID, "5000.00", time.Minute)
			f.gateway.set("R1", tt.vendor)

			res, err := f.rec.Sweep(context.Background())
			require.NoError(t, err)

			assert.Equal(t, 1, res.Closed)
			assert.Equal(t, tt.want, f.ledger.tx("R1").Status)
			assert.Nil(t, f.ledger.tx("R1").CompletedAt)
			assert.True(t, f.ledger.balance(user.UserID).IsZero())
			assert.Equal(t, 0, f.publisher.count())
		})
	}
}

func TestReconciler_GatewayAmountMismatch(t *testing.T) {
	tests := []struct {
		name        string
		amountMinor int64
	}{
		{name: "underpaid", amountMinor: 5000},
		{name: "overpaid", amountMinor: 1000000},
		{name: "no amount reported", amountMinor: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newReconcileFixture()
			user := f.ledger.addUser("u@example.com", models.UserTypeCustomer, true)
			pending := f.ledger.seedPending("R1", user.UserID, "5000.00", time.Minute)
			f.gateway.set("R1", "success")
			f.gateway.setAmount("R1", tt.amountMinor)

			res, err := f.rec.Sweep(context.Background())
			require.NoError(t, err)

			assert.Equal(t, &SweepResult{Checked: 1, Closed: 1}, res)
			stored := f.ledger.tx("R1")
			assert.Equal(t, models.StatusFailed, stored.Status)
			assert.Contains(t, string(stored.Metadata), `"failure_reason":"amount_mismatch"`)
			assert.True(t, f.ledger.balance(user.UserID).IsZero())
			assert.Zero(t, f.ledger.creditCount())
			assert.Zero(t, f.ledger.notificationCount(pending.ID))
			assert.Zero(t, f.publisher.count())
		})
	}
}

func TestReconciler_VerifyReferenceAmountMismatch(t *testing.T) {
	f := newReconcileFixture()
	user := f.ledger.addUser("u@example.com", models.UserTypeCourier, true)
	f.ledger.seedPending("R1", user.UserID, "5000.00", time.Minute)
	f.gateway.set("R1", "success")
	f.gateway.setAmount("R1", 5000)

	res, err := f.rec.VerifyReference(context.Background(), "R1")
	require.NoError(t, err)

	assert.Equal(t, ReconcileClosed, res.Outcome)
	assert.Equal(t, models.StatusFailed, res.Status)
	assert.True(t, f.ledger.balance(user.UserID).IsZero())
}

func TestReconciler_LeavesUnsettledPending(t *testing.T) {
	for _, vendor := range []string{"pending", "ongoing", "processing", ""} {
		t.Run(vendor, func(t *testing.T) {
			f := newReconcileFixture()
			user := f.ledger.addUser("u@example.com", models.UserTypeCustomer, true)
			f.ledger.seedPending("R1", user.UserID, "5000.00", time.Minute)
			f.gateway.set("R1", vendor)

			res, err := f.rec.Sweep(context.Background())
			require.NoError(t, err)

			assert.Equal(t, &SweepResult{Checked: 1, Pending: 1}, res)
			assert.Equal(t, models.StatusPending, f.ledger.tx("R1").Status)
		})
	}
}

func TestReconciler_SelectsOldPendingDepositsOnly(t *testing.T) {
	f := newReconcileFixture()
	user := f.ledger.addUser("u@example.com", models.UserTypeCustomer, true)
	f.ledger.seedPending("YOUNG", user.UserID, "10.00", 5*time.Second)
	f.ledger.seedPending("OLD", user.UserID, "20.00", time.Minute)
	f.gateway.set("YOUNG", "success")
	f.gateway.set("OLD", "success")

	res, err := f.rec.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Checked)
	assert.Equal(t, 0, f.gateway.calls["YOUNG"])
	assert.Equal(t, models.StatusPending, f.ledger.tx("YOUNG").Status)
	assert.True(t, decimal.RequireFromString("20.00").Equal(f.ledger.balance(user.UserID)))
}

func TestReconciler_BatchLimit(t *testing.T) {
	f := newReconcileFixture()
	f.rec.batchSize = 2
	user := f.ledger.addUser("u@example.com", models.UserTypeCustomer, true)
	for i := 0; i < 5; i++ {
		ref := fmt.Sprintf("R%d", i)
		f.ledger.seedPending(ref, user.UserID, "1.00", time.Minute+time.Duration(i)*time.Second)
		f.gateway.set(ref, "success")
	}

	res, err := f.rec.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Checked)
	// oldest first
	assert.Equal(t, models.StatusSuccess, f.ledger.tx("R4").Status)
	assert.Equal(t, models.StatusSuccess, f.ledger.tx("R3").Status)
	assert.Equal(t, models.StatusPending, f.ledger.tx("R0").Status)
}

func TestReconciler_ContinuesAfterItemErrors(t *testing.T) {
	f := newReconcileFixture()
	user := f.ledger.addUser("u@example.com", models.UserTypeCustomer, true)
	gone := f.ledger.addUser("gone@example.com", models.UserTypeCustomer, true)

	f.ledger.seedPending("BROKEN", user.UserID, "1.00", 3*time.Minute)
	f.ledger.seedPending("ORPHAN", gone.UserID, "2.00", 2*time.Minute)
	f.ledger.seedPending("GOOD", user.UserID, "3.00", time.Minute)
	f.gateway.errs["BROKEN"] = errors.New("gateway timeout")
	f.gateway.set("ORPHAN", "success")
	f.gateway.set("GOOD", "success")
	f.ledger.deleteUser(gone.UserID)

	res, err := f.rec.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, &SweepResult{Checked: 3, Credited: 1, Skipped: 1, Errors: 1}, res)
	assert.Equal(t, models.StatusPending, f.ledger.tx("BROKEN").Status)
	assert.Equal(t, models.StatusPending, f.ledger.tx("ORPHAN").Status)
	assert.Equal(t, models.StatusSuccess, f.ledger.tx("GOOD").Status)
	assert.True(t, decimal.RequireFromString("3.00").Equal(f.ledger.balance(user.UserID)))
}

func TestReconciler_RechecksStatusUnderLock(t *testing.T) {
	l := newFakeLedger()
	g := newFakeGateway(l)
	p := &fakePublisher{}
	rec := NewReconciler(l, l, l, l, fakeNotifications{l}, g, p, 30*time.Second, 50)
	deposits := NewDepositService(l, l, l, l, fakeNotifications{l}, p, &fakeFirer{}, "", RetryPolicy{Initial: time.Millisecond, MaxWait: time.Millisecond})

	user := l.addUser("u@example.com", models.UserTypeCustomer, true)
	l.seedPending("R1", user.UserID, "5000.00", time.Minute)
	g.set("R1", "success")

	// the webhook lands after the sweep read the batch and before it locks the row
	g.onVerify = func(reference string) {
		res, err := deposits.ProcessDeposit(context.Background(), chargeSuccess(reference, "u@example.com", 500000))
		require.NoError(t, err)
		require.Equal(t, DepositCredited, res.Outcome)
	}

	res, err := rec.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, &SweepResult{Checked: 1, Skipped: 1}, res)
	assert.Equal(t, 1, l.creditCount())
	assert.True(t, decimal.RequireFromString("5000.00").Equal(l.balance(user.UserID)))
	assert.Equal(t, 1, l.notificationCount(l.tx("R1").ID))
}

func TestReconciler_WebhookAfterSweepIsAlreadyProcessed(t *testing.T) {
	f := newReconcileFixture()
	user := f.ledger.addUser("u@example.com", models.UserTypeCustomer, true)
	f.ledger.seedPending("R1", user.UserID, "5000.00", time.Minute)
	f.gateway.set("R1", "success")

	_, err := f.rec.Sweep(context.Background())
	require.NoError(t, err)

	deposits := NewDepositService(f.ledger, f.ledger, f.ledger, f.ledger, fakeNotifications{f.ledger}, f.publisher, &fakeFirer{}, "", RetryPolicy{})
	res, err := deposits.ProcessDeposit(context.Background(), chargeSuccess("R1", "u@example.com", 500000))
	require.NoError(t, err)

	assert.Equal(t, DepositAlreadyProcessed, res.Outcome)
	assert.Equal(t, 1, f.ledger.creditCount())
}

func TestReconciler_NeverCreditsFailedTransactions(t *testing.T) {
	f := newReconcileFixture()
	user := f.ledger.addUser("u@example.com", models.UserTypeCustomer, true)
	f.ledger.seedPending("R1", user.UserID, "5000.00", time.Minute)
	f.gateway.set("R1", "failed")

	_, err := f.rec.Sweep(context.Background())
	require.NoError(t, err)

	// the gateway later changes its mind; FAILED is terminal
	f.gateway.set("R1", "success")
	res, err := f.rec.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Checked)

	verify, err := f.rec.VerifyReference(context.Background(), "R1")
	require.NoError(t, err)
	assert.Equal(t, ReconcileSkipped, verify.Outcome)
	assert.Equal(t, models.StatusFailed, verify.Status)

	assert.Equal(t, 0, f.ledger.creditCount())
	assert.True(t, f.ledger.balance(user.UserID).IsZero())
}

func TestReconciler_VerifyReference(t *testing.T) {
	f := newReconcileFixture()
	user := f.ledger.addUser("u@example.com", models.UserTypeCustomer, true)
	// verify does not wait for the minimum age
	f.ledger.seedPending("R1", user.UserID, "5000.00", time.Second)
	f.gateway.set("R1", "success")

	res, err := f.rec.VerifyReference(context.Background(), "R1")
	require.NoError(t, err)
	assert.Equal(t, &VerifyResult{Reference: "R1", GatewayStatus: "success", Status: models.StatusSuccess, Outcome: ReconcileCredited}, res)

	_, err = f.rec.VerifyReference(context.Background(), "MISSING")
	assert.ErrorIs(t, err, ErrTransactionNotFound)

	f.gateway.errs["R2"] = errors.New("gateway down")
	_, err = f.rec.VerifyReference(context.Background(), "R2")
	assert.ErrorContains(t, err, "gateway down")
}

func TestReconciler_StopsOnCancelledContext(t *testing.T) {
	f := newReconcileFixture()
	user := f.ledger.addUser("u@example.com", models.UserTypeCustomer, true)
	f.ledger.seedPending("R1", user.UserID, "1.00", time.Minute)
	f.gateway.set("R1", "success")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.rec.Sweep(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, res.Checked)
	assert.Equal(t, models.StatusPending, f.ledger.tx("R1").Status)
}
