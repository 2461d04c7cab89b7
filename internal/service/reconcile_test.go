package service

import (
	"context"
	"sync"
	"testing"

	"bullex/internal/domain"
	"bullex/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDeposit(t *testing.T, f *fixture, orderID string, amount float64) {
	t.Helper()
	require.NoError(t, f.orders.CreateDeposit(&models.DepositOrder{
		OrderID:       orderID,
		UserID:        f.user.ID,
		Gateway:       "WINPAY",
		Amount:        amount,
		Currency:      "INR",
		PaymentMethod: "upi",
		Status:        domain.OrderStatusPending,
	}))
}

func seedPayout(t *testing.T, f *fixture, orderID string, amount float64) {
	t.Helper()
	require.NoError(t, f.orders.CreatePayout(&models.PayoutOrder{
		OrderID:       orderID,
		UserID:        f.user.ID,
		Gateway:       "WINPAY",
		Amount:        amount,
		Currency:      "INR",
		Status:        domain.OrderStatusPending,
		AccountName:   "Asha Prakash",
		AccountNumber: "9988776655",
	}))
}

func TestDepositCompletionCreditsOnce(t *testing.T) {
	f := newFixture(t, 0)
	seedDeposit(t, f, "DP100", 500)
	ctx := context.Background()

	obs := StatusObservation{Status: domain.OrderStatusCompleted, GatewayTransactionID: "WP1", Raw: "state=2"}

	res, err := f.engine.ApplyDepositStatus(ctx, "DP100", obs)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.True(t, res.Settled)
	assert.Equal(t, 500.0, f.balance(t))

	// duplicate delivery of the same completion
	res, err = f.engine.ApplyDepositStatus(ctx, "DP100", obs)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.False(t, res.Settled)
	assert.Equal(t, domain.OrderStatusCompleted, res.Status)
	assert.Equal(t, 500.0, f.balance(t), "second observation must not credit again")

	u, err := f.users.GetByID(f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 500.0, u.TotalDeposits)
}

func TestTerminalStatusIsAbsorbing(t *testing.T) {
	f := newFixture(t, 0)
	seedDeposit(t, f, "DP101", 500)
	ctx := context.Background()

	_, err := f.engine.ApplyDepositStatus(ctx, "DP101", StatusObservation{Status: domain.OrderStatusFailed})
	require.NoError(t, err)

	// a late COMPLETED must not resurrect a failed order
	res, err := f.engine.ApplyDepositStatus(ctx, "DP101", StatusObservation{Status: domain.OrderStatusCompleted})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, domain.OrderStatusFailed, res.Status)
	assert.Equal(t, 0.0, f.balance(t))
}

func TestPendingToProcessingToCompleted(t *testing.T) {
	f := newFixture(t, 0)
	seedDeposit(t, f, "DP102", 250)
	ctx := context.Background()

	res, err := f.engine.ApplyDepositStatus(ctx, "DP102", StatusObservation{Status: domain.OrderStatusProcessing})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.False(t, res.Settled)
	assert.Equal(t, 0.0, f.balance(t), "processing must not credit")

	res, err = f.engine.ApplyDepositStatus(ctx, "DP102", StatusObservation{Status: domain.OrderStatusCompleted})
	require.NoError(t, err)
	assert.True(t, res.Settled)
	assert.Equal(t, 250.0, f.balance(t))
}

func TestUnknownStatusLeavesOrderUntouched(t *testing.T) {
	f := newFixture(t, 0)
	seedDeposit(t, f, "DP103", 500)

	res, err := f.engine.ApplyDepositStatus(context.Background(), "DP103", StatusObservation{Status: "WEIRD"})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, domain.OrderStatusPending, res.Status)
}

func TestApplyUnknownOrder(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.engine.ApplyDepositStatus(context.Background(), "DP-NOPE", StatusObservation{Status: domain.OrderStatusCompleted})
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestConcurrentCompletionsConverge(t *testing.T) {
	f := newFixture(t, 0)
	seedDeposit(t, f, "DP104", 500)
	ctx := context.Background()

	// poll path and webhook path racing the same completion
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.ApplyDepositStatus(ctx, "DP104", StatusObservation{Status: domain.OrderStatusCompleted})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	order, err := f.orders.GetDeposit("DP104")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCompleted, order.Status)
	assert.Equal(t, 500.0, f.balance(t), "racing observations must credit exactly once")
}

func TestAmountMismatchCreditsLocalAmount(t *testing.T) {
	f := newFixture(t, 0)
	seedDeposit(t, f, "DP105", 500)

	res, err := f.engine.ApplyDepositStatus(context.Background(), "DP105", StatusObservation{
		Status: domain.OrderStatusCompleted,
		Amount: 499, // gateway disagrees
	})
	require.NoError(t, err)
	assert.True(t, res.Settled)
	assert.Equal(t, 500.0, f.balance(t), "local order amount is authoritative")

	var count int64
	require.NoError(t, f.db.Model(&models.AuditLog{}).Where("action = ?", "deposit_amount_mismatch").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPayoutFailureRefundsOnce(t *testing.T) {
	f := newFixture(t, 0) // debit already happened conceptually; refund adds back
	seedPayout(t, f, "PO100", 1200)
	ctx := context.Background()

	obs := StatusObservation{Status: domain.OrderStatusFailed, Raw: "state=3"}

	res, err := f.engine.ApplyPayoutStatus(ctx, "PO100", obs)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.True(t, res.Settled)
	assert.Equal(t, 1200.0, f.balance(t))

	res, err = f.engine.ApplyPayoutStatus(ctx, "PO100", obs)
	require.NoError(t, err)
	assert.False(t, res.Settled)
	assert.Equal(t, 1200.0, f.balance(t), "repeated failure reports must refund once")
}

func TestPayoutCompletionDoesNotTouchBalance(t *testing.T) {
	f := newFixture(t, 0)
	seedPayout(t, f, "PO101", 1200)

	res, err := f.engine.ApplyPayoutStatus(context.Background(), "PO101", StatusObservation{Status: domain.OrderStatusCompleted})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.False(t, res.Settled)
	assert.Equal(t, 0.0, f.balance(t))
}

func TestPayoutCancelledAfterFailedRefundsOnce(t *testing.T) {
	f := newFixture(t, 0)
	seedPayout(t, f, "PO102", 800)
	ctx := context.Background()

	_, err := f.engine.ApplyPayoutStatus(ctx, "PO102", StatusObservation{Status: domain.OrderStatusFailed})
	require.NoError(t, err)
	_, err = f.engine.ApplyPayoutStatus(ctx, "PO102", StatusObservation{Status: domain.OrderStatusCancelled})
	require.NoError(t, err)

	assert.Equal(t, 800.0, f.balance(t))
}
