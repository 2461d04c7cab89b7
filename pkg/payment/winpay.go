package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bullex/pkg/paysign"
)

// WinPay implements the Gateway interface for the WinPay INR collect/payout
// API. All requests are form-encoded, MD5-signed key-value maps; deposits and
// payouts use distinct signing keys that must never be interchanged.
type WinPay struct {
	BaseURL    string
	MerchantID string
	DepositKey string
	PayoutKey  string
	client     *http.Client
}

type WinPayConfig struct {
	BaseURL    string
	MerchantID string
	DepositKey string
	PayoutKey  string
}

func NewWinPay(cfg WinPayConfig) *WinPay {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.winpay.com"
	}
	return &WinPay{
		BaseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		MerchantID: cfg.MerchantID,
		DepositKey: cfg.DepositKey,
		PayoutKey:  cfg.PayoutKey,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

// payTypes maps our payment-method enum to WinPay rail codes. Absent methods
// are rejected before any request is built.
var payTypes = map[string]string{
	"upi":        "101",
	"paytm":      "102",
	"phonepe":    "103",
	"gpay":       "104",
	"netbanking": "201",
}

// winpay order states as they appear in query responses and webhooks.
var winpayStates = map[string]string{
	"0": StatusPending,
	"1": StatusProcessing,
	"2": StatusCompleted,
	"3": StatusFailed,
	"4": StatusCancelled,
	"5": StatusExpired,
}

const winpayTimeLayout = "2006-01-02 15:04:05"

func (w *WinPay) Name() string { return "WINPAY" }

func (w *WinPay) SupportsMethod(method string) bool {
	_, ok := payTypes[method]
	return ok
}

func (w *WinPay) AckBody() string { return "success" }

// envelope is the common response wrapper: code 0 means accepted, anything
// else is a structured business rejection.
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// post signs params with the given key, form-posts them and decodes the data
// field into out. Transport and shape failures come back wrapped in
// ErrUnavailable; business rejections as *RejectError.
func (w *WinPay) post(ctx context.Context, path string, params map[string]string, key string, out interface{}) error {
	params["mchId"] = w.MerchantID
	params["sign"] = paysign.Sign(params, key)

	form := url.Values{}
	for k, v := range params {
		if v != "" {
			form.Set(k, v)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "bullex-payments/1.0")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("winpay %s: %w: %v", path, ErrUnavailable, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("winpay %s: status %d: %w", path, resp.StatusCode, ErrUnavailable)
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("winpay %s: bad response shape: %w", path, ErrUnavailable)
	}
	if env.Code != 0 {
		return &RejectError{Code: fmt.Sprintf("%d", env.Code), Message: env.Msg}
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("winpay %s: bad data shape: %w", path, ErrUnavailable)
		}
	}
	return nil
}

type winpayCreateResp struct {
	OrderNo    string `json:"orderNo"`
	MchOrderNo string `json:"mchOrderNo"`
	PayURL     string `json:"payUrl"`
	QRCode     string `json:"qrCode"`
	ExpireTime int64  `json:"expireTime"`
}

func (w *WinPay) CreateDeposit(ctx context.Context, req DepositRequest) (*DepositResult, error) {
	payType, ok := payTypes[req.Method]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, req.Method)
	}
	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}
	params := map[string]string{
		"mchOrderNo": req.OrderID,
		"amount":     FormatAmount(req.Amount),
		"currency":   currency,
		"payType":    payType,
		"bankCode":   req.BankCode,
		"subject":    req.Subject,
		"notifyUrl":  req.NotifyURL,
		"returnUrl":  req.ReturnURL,
	}
	var out winpayCreateResp
	if err := w.post(ctx, "/api/v1/pay/order", params, w.DepositKey, &out); err != nil {
		return nil, err
	}
	res := &DepositResult{
		OrderID:              req.OrderID,
		GatewayTransactionID: out.OrderNo,
		PaymentURL:           out.PayURL,
		QRCode:               out.QRCode,
		Amount:               req.Amount,
		Currency:             currency,
	}
	if out.ExpireTime > 0 {
		res.ExpiresAt = time.Unix(out.ExpireTime, 0)
	}
	return res, nil
}

type winpayQueryResp struct {
	OrderNo    string `json:"orderNo"`
	MchOrderNo string `json:"mchOrderNo"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	State      string `json:"state"`
	PayTime    string `json:"payTime"`
}

func (w *WinPay) QueryDeposit(ctx context.Context, orderID string) (*StatusResult, error) {
	return w.query(ctx, "/api/v1/pay/query", orderID, w.DepositKey)
}

func (w *WinPay) QueryPayout(ctx context.Context, orderID string) (*StatusResult, error) {
	return w.query(ctx, "/api/v1/payout/query", orderID, w.PayoutKey)
}

func (w *WinPay) query(ctx context.Context, path, orderID, key string) (*StatusResult, error) {
	params := map[string]string{"mchOrderNo": orderID}
	var out winpayQueryResp
	if err := w.post(ctx, path, params, key, &out); err != nil {
		return nil, err
	}
	raw, _ := json.Marshal(out)
	res := &StatusResult{
		OrderID:              orderID,
		GatewayTransactionID: out.OrderNo,
		Status:               normalizeState(out.State),
		Currency:             out.Currency,
		Raw:                  string(raw),
	}
	if out.Amount != "" {
		if d, err := decimal.NewFromString(out.Amount); err == nil {
			res.Amount = d
		}
	}
	if t, err := time.Parse(winpayTimeLayout, out.PayTime); err == nil {
		res.PaidAt = &t
	}
	return res, nil
}

type winpayPayoutResp struct {
	OrderNo    string `json:"orderNo"`
	MchOrderNo string `json:"mchOrderNo"`
	State      string `json:"state"`
	SettleTime int64  `json:"settleTime"`
}

func (w *WinPay) CreatePayout(ctx context.Context, req PayoutRequest) (*PayoutResult, error) {
	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}
	params := map[string]string{
		"mchOrderNo":  req.OrderID,
		"amount":      FormatAmount(req.Amount),
		"currency":    currency,
		"accountName": req.AccountName,
		"accountNo":   req.AccountNumber,
		"bankCode":    req.BankCode,
		"ifscCode":    req.IFSCCode,
		"mobile":      req.Mobile,
		"email":       req.Email,
		"notifyUrl":   req.NotifyURL,
	}
	var out winpayPayoutResp
	if err := w.post(ctx, "/api/v1/payout/order", params, w.PayoutKey, &out); err != nil {
		return nil, err
	}
	res := &PayoutResult{
		OrderID:              req.OrderID,
		GatewayTransactionID: out.OrderNo,
		Status:               normalizeState(out.State),
	}
	if out.SettleTime > 0 {
		res.EstimatedSettlement = time.Unix(out.SettleTime, 0)
	}
	return res, nil
}

type winpayBalanceResp struct {
	AvailableAmount string `json:"availableAmount"`
	FrozenAmount    string `json:"frozenAmount"`
	Currency        string `json:"currency"`
}

func (w *WinPay) QueryBalance(ctx context.Context) (*BalanceResult, error) {
	var out winpayBalanceResp
	if err := w.post(ctx, "/api/v1/payout/balance", map[string]string{}, w.PayoutKey, &out); err != nil {
		return nil, err
	}
	res := &BalanceResult{Currency: out.Currency}
	if d, err := decimal.NewFromString(out.AvailableAmount); err == nil {
		res.Available = d
	}
	if d, err := decimal.NewFromString(out.FrozenAmount); err == nil {
		res.Frozen = d
	}
	return res, nil
}

func (w *WinPay) VerifyDepositWebhook(params map[string]string) bool {
	return paysign.Verify(params, w.DepositKey, params["sign"])
}

func (w *WinPay) VerifyPayoutWebhook(params map[string]string) bool {
	return paysign.Verify(params, w.PayoutKey, params["sign"])
}

// ParseWebhook maps the callback fields to a normalized event. The callback
// carries mchOrderNo (ours), orderNo (theirs), amount, state and payTime.
func (w *WinPay) ParseWebhook(params map[string]string) (*WebhookEvent, error) {
	orderID := params["mchOrderNo"]
	if orderID == "" {
		return nil, fmt.Errorf("winpay webhook: missing mchOrderNo")
	}
	status, ok := winpayStates[params["state"]]
	if !ok {
		return nil, fmt.Errorf("winpay webhook: unknown state %q", params["state"])
	}
	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	evt := &WebhookEvent{
		OrderID:              orderID,
		GatewayTransactionID: params["orderNo"],
		Status:               status,
		Raw:                  values.Encode(),
	}
	if params["amount"] != "" {
		d, err := decimal.NewFromString(params["amount"])
		if err != nil {
			return nil, fmt.Errorf("winpay webhook: bad amount %q", params["amount"])
		}
		evt.Amount = d
	}
	if t, err := time.Parse(winpayTimeLayout, params["payTime"]); err == nil {
		evt.PaidAt = &t
	}
	return evt, nil
}

func normalizeState(state string) string {
	if s, ok := winpayStates[state]; ok {
		return s
	}
	// never guess a terminal state from an unknown code
	return StatusPending
}
