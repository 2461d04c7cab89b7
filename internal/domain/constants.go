package domain

const (
	RoleTrader = "TRADER"
	RoleAdmin  = "ADMIN"
)

// Order lifecycle. PENDING/PROCESSING may still move; the rest are terminal
// and absorbing.
const (
	OrderStatusPending    = "PENDING"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusCompleted  = "COMPLETED"
	OrderStatusFailed     = "FAILED"
	OrderStatusCancelled  = "CANCELLED"
	OrderStatusExpired    = "EXPIRED"
)

// NonTerminalStatuses is the compare-and-set guard for status transitions.
var NonTerminalStatuses = []string{OrderStatusPending, OrderStatusProcessing}

func IsTerminalStatus(s string) bool {
	switch s {
	case OrderStatusCompleted, OrderStatusFailed, OrderStatusCancelled, OrderStatusExpired:
		return true
	}
	return false
}

func IsValidStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted,
		OrderStatusFailed, OrderStatusCancelled, OrderStatusExpired:
		return true
	}
	return false
}

const (
	GatewayWinPay = "WINPAY"
)

// Settlement directions recorded on settlement markers.
const (
	SettlementCredit = "CREDIT" // deposit completion credit
	SettlementRefund = "REFUND" // compensating credit for a failed payout
)

const DefaultCurrency = "INR"
