package service

import (
	"context"
	"testing"
	"time"

	"bullex/config"
	"bullex/internal/models"
	"bullex/internal/repository"
	"bullex/pkg/payment"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		AccessSecret:  "test-access",
		RefreshSecret: "test-refresh",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 168 * time.Hour,
		Issuer:        "bullex-test",
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection so every goroutine sees the same in-memory database
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.DepositOrder{},
		&models.PayoutOrder{},
		&models.SettlementRecord{},
		&models.AuditLog{},
	))
	return db
}

type fixture struct {
	db      *gorm.DB
	users   *repository.UserRepository
	orders  *repository.OrderRepository
	settle  *repository.SettlementRepository
	audit   *repository.AuditLogRepository
	engine  *Reconciler
	gateway *fakeGateway
	user    *models.User
}

func newFixture(t *testing.T, balance float64) *fixture {
	t.Helper()
	db := newTestDB(t)
	f := &fixture{
		db:      db,
		users:   repository.NewUserRepository(db),
		orders:  repository.NewOrderRepository(db),
		settle:  repository.NewSettlementRepository(db),
		audit:   repository.NewAuditLogRepository(db),
		gateway: newFakeGateway(),
	}
	f.engine = NewReconciler(f.orders, f.settle, f.audit)
	f.user = &models.User{Email: "trader@example.com", Balance: balance, Currency: "INR"}
	require.NoError(t, f.users.Create(f.user))
	return f
}

func (f *fixture) balance(t *testing.T) float64 {
	t.Helper()
	u, err := f.users.GetByID(f.user.ID)
	require.NoError(t, err)
	return u.Balance
}

// fakeGateway is a programmable Gateway for service tests.
type fakeGateway struct {
	depositResult *payment.DepositResult
	depositErr    error
	payoutResult  *payment.PayoutResult
	payoutErr     error
	queryResult   *payment.StatusResult
	queryErr      error
	balanceResult *payment.BalanceResult
	balanceErr    error

	createDepositCalls int
	createPayoutCalls  int
	queryCalls         int
	balanceCalls       int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		depositResult: &payment.DepositResult{
			GatewayTransactionID: "WP-FAKE-1",
			PaymentURL:           "https://pay.example/fake",
		},
		payoutResult: &payment.PayoutResult{
			GatewayTransactionID: "WP-FAKE-2",
			Status:               payment.StatusProcessing,
		},
	}
}

func (g *fakeGateway) Name() string { return "WINPAY" }

func (g *fakeGateway) SupportsMethod(method string) bool {
	return method == "upi" || method == "paytm"
}

func (g *fakeGateway) CreateDeposit(ctx context.Context, req payment.DepositRequest) (*payment.DepositResult, error) {
	g.createDepositCalls++
	if g.depositErr != nil {
		return nil, g.depositErr
	}
	res := *g.depositResult
	res.OrderID = req.OrderID
	return &res, nil
}

func (g *fakeGateway) QueryDeposit(ctx context.Context, orderID string) (*payment.StatusResult, error) {
	g.queryCalls++
	if g.queryErr != nil {
		return nil, g.queryErr
	}
	res := *g.queryResult
	res.OrderID = orderID
	return &res, nil
}

func (g *fakeGateway) CreatePayout(ctx context.Context, req payment.PayoutRequest) (*payment.PayoutResult, error) {
	g.createPayoutCalls++
	if g.payoutErr != nil {
		return nil, g.payoutErr
	}
	res := *g.payoutResult
	res.OrderID = req.OrderID
	return &res, nil
}

func (g *fakeGateway) QueryPayout(ctx context.Context, orderID string) (*payment.StatusResult, error) {
	return g.QueryDeposit(ctx, orderID)
}

func (g *fakeGateway) QueryBalance(ctx context.Context) (*payment.BalanceResult, error) {
	g.balanceCalls++
	if g.balanceErr != nil {
		return nil, g.balanceErr
	}
	return g.balanceResult, nil
}

func (g *fakeGateway) VerifyDepositWebhook(params map[string]string) bool { return true }
func (g *fakeGateway) VerifyPayoutWebhook(params map[string]string) bool  { return true }

func (g *fakeGateway) ParseWebhook(params map[string]string) (*payment.WebhookEvent, error) {
	return &payment.WebhookEvent{OrderID: params["mchOrderNo"]}, nil
}

func (g *fakeGateway) AckBody() string { return "success" }
