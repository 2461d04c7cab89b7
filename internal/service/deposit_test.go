package service

import (
	"context"
	"testing"
	"time"

	"bullex/internal/domain"
	"bullex/pkg/payment"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDepositService(f *fixture) *DepositService {
	return NewDepositService(f.orders, f.gateway, f.engine, "https://api.bullex.example", "https://app.bullex.example/done")
}

func TestCreateDeposit(t *testing.T) {
	f := newFixture(t, 0)
	svc := newDepositService(f)

	order, err := svc.Create(context.Background(), f.user.ID, CreateDepositInput{Amount: 500, Method: "upi"})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, "WP-FAKE-1", order.GatewayTransactionID)
	assert.Equal(t, "https://pay.example/fake", order.PaymentURL)
	assert.Equal(t, 1, f.gateway.createDepositCalls)
	assert.Equal(t, 0.0, f.balance(t), "creation must not credit anything")

	stored, err := f.orders.GetDeposit(order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "WP-FAKE-1", stored.GatewayTransactionID)
	assert.Nil(t, stored.ExpiresAt, "no gateway expiry must not persist the zero time")
}

func TestCreateDepositStoresGatewayExpiry(t *testing.T) {
	f := newFixture(t, 0)
	expires := time.Date(2026, 1, 15, 11, 0, 0, 0, time.UTC)
	f.gateway.depositResult.ExpiresAt = expires
	svc := newDepositService(f)

	order, err := svc.Create(context.Background(), f.user.ID, CreateDepositInput{Amount: 500, Method: "upi"})
	require.NoError(t, err)
	require.NotNil(t, order.ExpiresAt)
	assert.True(t, order.ExpiresAt.Equal(expires))

	stored, err := f.orders.GetDeposit(order.OrderID)
	require.NoError(t, err)
	require.NotNil(t, stored.ExpiresAt)
	assert.True(t, stored.ExpiresAt.Equal(expires))
}

func TestCreateDepositAmountBounds(t *testing.T) {
	f := newFixture(t, 0)
	svc := newDepositService(f)
	ctx := context.Background()

	_, err := svc.Create(ctx, f.user.ID, CreateDepositInput{Amount: 50, Method: "upi"})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.Create(ctx, f.user.ID, CreateDepositInput{Amount: 2000000, Method: "upi"})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	assert.Equal(t, 0, f.gateway.createDepositCalls)
}

func TestCreateDepositUnsupportedMethod(t *testing.T) {
	f := newFixture(t, 0)
	svc := newDepositService(f)

	_, err := svc.Create(context.Background(), f.user.ID, CreateDepositInput{Amount: 500, Method: "cheque"})
	assert.ErrorIs(t, err, payment.ErrUnsupportedMethod)
	assert.Equal(t, 0, f.gateway.createDepositCalls, "unknown method must fail before any gateway call")
}

func TestCreateDepositGatewayRejectionClosesOrder(t *testing.T) {
	f := newFixture(t, 0)
	f.gateway.depositErr = &payment.RejectError{Code: "1001", Message: "merchant suspended"}
	svc := newDepositService(f)

	_, err := svc.Create(context.Background(), f.user.ID, CreateDepositInput{Amount: 500, Method: "upi"})
	var reject *payment.RejectError
	require.ErrorAs(t, err, &reject)

	orders, listErr := f.orders.ListDepositsByUser(f.user.ID, 10)
	require.NoError(t, listErr)
	require.Len(t, orders, 1)
	assert.Equal(t, domain.OrderStatusFailed, orders[0].Status)
}

func TestCreateDepositGatewayDownLeavesPending(t *testing.T) {
	f := newFixture(t, 0)
	f.gateway.depositErr = payment.ErrUnavailable
	svc := newDepositService(f)

	_, err := svc.Create(context.Background(), f.user.ID, CreateDepositInput{Amount: 500, Method: "upi"})
	assert.ErrorIs(t, err, payment.ErrUnavailable)

	orders, listErr := f.orders.ListDepositsByUser(f.user.ID, 10)
	require.NoError(t, listErr)
	require.Len(t, orders, 1)
	assert.Equal(t, domain.OrderStatusPending, orders[0].Status,
		"unreachable gateway must not be treated as failure")
}

func TestQueryStatusAppliesFreshObservation(t *testing.T) {
	f := newFixture(t, 0)
	svc := newDepositService(f)
	ctx := context.Background()

	order, err := svc.Create(ctx, f.user.ID, CreateDepositInput{Amount: 500, Method: "upi"})
	require.NoError(t, err)

	f.gateway.queryResult = &payment.StatusResult{
		Status:               domain.OrderStatusCompleted,
		GatewayTransactionID: "WP-FAKE-1",
		Amount:               decimal.NewFromInt(500),
		Raw:                  "state=2",
	}
	view, err := svc.QueryStatus(ctx, f.user.ID, order.OrderID)
	require.NoError(t, err)
	assert.False(t, view.Stale)
	assert.Equal(t, domain.OrderStatusCompleted, view.Order.Status)
	assert.Equal(t, 500.0, f.balance(t), "poll-path completion credits the trader")
}

func TestQueryStatusFallsBackWhenGatewayDown(t *testing.T) {
	f := newFixture(t, 0)
	svc := newDepositService(f)
	ctx := context.Background()

	order, err := svc.Create(ctx, f.user.ID, CreateDepositInput{Amount: 500, Method: "upi"})
	require.NoError(t, err)

	f.gateway.queryErr = payment.ErrUnavailable
	view, err := svc.QueryStatus(ctx, f.user.ID, order.OrderID)
	require.NoError(t, err, "gateway outage must not fail the status request")
	assert.True(t, view.Stale)
	assert.Equal(t, domain.OrderStatusPending, view.Order.Status)
}

func TestQueryStatusTerminalSkipsGateway(t *testing.T) {
	f := newFixture(t, 0)
	svc := newDepositService(f)
	ctx := context.Background()

	order, err := svc.Create(ctx, f.user.ID, CreateDepositInput{Amount: 500, Method: "upi"})
	require.NoError(t, err)
	_, err = f.engine.ApplyDepositStatus(ctx, order.OrderID, StatusObservation{Status: domain.OrderStatusCompleted})
	require.NoError(t, err)

	before := f.gateway.queryCalls
	view, err := svc.QueryStatus(ctx, f.user.ID, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCompleted, view.Order.Status)
	assert.Equal(t, before, f.gateway.queryCalls, "terminal orders answer locally")
}

func TestQueryStatusForeignOrderHidden(t *testing.T) {
	f := newFixture(t, 0)
	svc := newDepositService(f)
	ctx := context.Background()

	order, err := svc.Create(ctx, f.user.ID, CreateDepositInput{Amount: 500, Method: "upi"})
	require.NoError(t, err)

	_, err = svc.QueryStatus(ctx, f.user.ID+1, order.OrderID)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}
