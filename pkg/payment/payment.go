package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Normalized order statuses shared with the rest of the system.
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
	StatusCancelled  = "CANCELLED"
	StatusExpired    = "EXPIRED"
)

// ErrUnavailable marks transport-level failures (timeout, connection refused,
// 5xx, unparseable body). Queries may be retried; order creation must not be
// retried blindly.
var ErrUnavailable = errors.New("payment gateway unavailable")

// ErrUnsupportedMethod is returned when a payment method has no processor
// code. Unknown methods fail closed, never a default rail.
var ErrUnsupportedMethod = errors.New("unsupported payment method")

// RejectError is a structured business rejection from the processor.
type RejectError struct {
	Code    string
	Message string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("gateway rejected: %s (%s)", e.Message, e.Code)
}

type DepositRequest struct {
	OrderID   string
	Amount    decimal.Decimal
	Currency  string
	Method    string // upi, paytm, phonepe, gpay, netbanking
	BankCode  string
	Subject   string
	NotifyURL string
	ReturnURL string
}

type DepositResult struct {
	OrderID              string
	GatewayTransactionID string
	PaymentURL           string
	QRCode               string
	Amount               decimal.Decimal
	Currency             string
	ExpiresAt            time.Time
}

type PayoutRequest struct {
	OrderID       string
	Amount        decimal.Decimal
	Currency      string
	AccountName   string
	AccountNumber string
	BankCode      string
	IFSCCode      string
	Mobile        string
	Email         string
	NotifyURL     string
}

type PayoutResult struct {
	OrderID              string
	GatewayTransactionID string
	Status               string
	EstimatedSettlement  time.Time
}

// StatusResult is the normalized answer to a deposit/payout query.
type StatusResult struct {
	OrderID              string
	GatewayTransactionID string
	Status               string
	Amount               decimal.Decimal
	Currency             string
	PaidAt               *time.Time
	Raw                  string
}

type BalanceResult struct {
	Available decimal.Decimal
	Frozen    decimal.Decimal
	Currency  string
}

// WebhookEvent is a parsed callback payload. Verify before acting on it.
type WebhookEvent struct {
	OrderID              string
	GatewayTransactionID string
	Status               string
	Amount               decimal.Decimal
	PaidAt               *time.Time
	Raw                  string
}

// Gateway is the capability set one external processor exposes. Implementations
// are selected at construction time; nothing re-dispatches on a name string per
// call.
type Gateway interface {
	Name() string
	SupportsMethod(method string) bool
	CreateDeposit(ctx context.Context, req DepositRequest) (*DepositResult, error)
	QueryDeposit(ctx context.Context, orderID string) (*StatusResult, error)
	CreatePayout(ctx context.Context, req PayoutRequest) (*PayoutResult, error)
	QueryPayout(ctx context.Context, orderID string) (*StatusResult, error)
	QueryBalance(ctx context.Context) (*BalanceResult, error)

	// Webhook authentication and parsing. AckBody is the literal the
	// processor's retry logic expects on acceptance.
	VerifyDepositWebhook(params map[string]string) bool
	VerifyPayoutWebhook(params map[string]string) bool
	ParseWebhook(params map[string]string) (*WebhookEvent, error)
	AckBody() string
}

// FormatAmount renders an amount the way the wire contract requires: plain
// decimal point, exactly two digits, no grouping.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
