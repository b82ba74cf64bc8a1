package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PayOSConfig holds merchant settings
type PayOSConfig struct {
	ClientID    string
	APIKey      string
	ChecksumKey string
	Endpoint    string
	ReturnURL   string
	CancelURL   string
}

// PayOS creates PayOS payment links and verifies webhooks
type PayOS struct {
	cfg  PayOSConfig
	http *http.Client
}

// NewPayOS creates a PayOS client
func NewPayOS(cfg PayOSConfig) *PayOS {
	if cfg.CancelURL == "" {
		cfg.CancelURL = cfg.ReturnURL
	}
	return &PayOS{cfg: cfg, http: &http.Client{Timeout: 15 * time.Second}}
}

// Configured reports whether merchant credentials are present
func (p *PayOS) Configured() bool {
	return p.cfg.ClientID != "" && p.cfg.APIKey != "" && p.cfg.ChecksumKey != ""
}

type payosCreateRequest struct {
	OrderCode   int64  `json:"orderCode"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	ReturnURL   string `json:"returnUrl"`
	CancelURL   string `json:"cancelUrl"`
	Signature   string `json:"signature"`
}

type payosEnvelope struct {
	Code string          `json:"code"`
	Desc string          `json:"desc"`
	Data json.RawMessage `json:"data"`
}

// checksum signs the payment link fields in the order PayOS requires
func (p *PayOS) checksum(r *payosCreateRequest) string {
	raw := fmt.Sprintf("amount=%d&cancelUrl=%s&description=%s&orderCode=%d&returnUrl=%s",
		r.Amount, r.CancelURL, r.Description, r.OrderCode, r.ReturnURL)
	return hmacSHA256(p.cfg.ChecksumKey, raw)
}

// Create registers a payment link; the transaction ID must be the numeric order code
func (p *PayOS) Create(ctx context.Context, c Checkout) (string, error) {
	if !p.Configured() {
		return "", ErrNotConfigured
	}
	orderCode, err := strconv.ParseInt(c.TransactionID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("payos order code must be numeric: %w", err)
	}
	desc := c.Description
	if desc == "" {
		desc = "EventUp Premium"
	}
	// PayOS limits descriptions to 25 characters
	if len([]rune(desc)) > 25 {
		desc = string([]rune(desc)[:25])
	}

	req := &payosCreateRequest{
		OrderCode:   orderCode,
		Amount:      c.Amount.Round(0).IntPart(),
		Description: desc,
		ReturnURL:   p.cfg.ReturnURL,
		CancelURL:   p.cfg.CancelURL,
	}
	req.Signature = p.checksum(req)

	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-client-id", p.cfg.ClientID)
	httpReq.Header.Set("x-api-key", p.cfg.APIKey)

	resp, err := p.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling payos: %w", err)
	}
	defer resp.Body.Close()

	var env payosEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", fmt.Errorf("decoding payos response: %w", err)
	}
	if env.Code != "00" {
		return "", fmt.Errorf("%w: payos %s %s", ErrProvider, env.Code, env.Desc)
	}
	var data struct {
		CheckoutURL string `json:"checkoutUrl"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.CheckoutURL == "" {
		return "", fmt.Errorf("%w: payos returned no checkout url", ErrProvider)
	}
	return data.CheckoutURL, nil
}

// PayOSWebhook is the body PayOS posts to the webhook
type PayOSWebhook struct {
	Code      string                 `json:"code"`
	Desc      string                 `json:"desc"`
	Success   bool                   `json:"success"`
	Data      map[string]interface{} `json:"data"`
	Signature string                 `json:"signature"`
}

// webhookValue renders a data value the way PayOS does when signing
func webhookValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		if t == "null" || t == "undefined" {
			return ""
		}
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

// webhookSignature signs the data object's fields sorted by key
func (p *PayOS) webhookSignature(data map[string]interface{}) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+webhookValue(data[k]))
	}
	return hmacSHA256(p.cfg.ChecksumKey, strings.Join(parts, "&"))
}

// VerifyWebhook checks the webhook signature and extracts the outcome
func (p *PayOS) VerifyWebhook(w PayOSWebhook) (*Result, error) {
	if w.Signature == "" || w.Data == nil || !signatureEqual(w.Signature, p.webhookSignature(w.Data)) {
		return nil, ErrInvalidSignature
	}
	code := webhookValue(w.Data["code"])
	if code == "" {
		code = w.Code
	}
	res := &Result{
		TransactionID: webhookValue(w.Data["orderCode"]),
		Success:       code == "00",
		Code:          code,
		Metadata:      map[string]interface{}{},
	}
	if raw := webhookValue(w.Data["amount"]); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("payos amount %q: %w", raw, err)
		}
		res.Amount = &amount
	}
	if res.Success {
		res.Metadata["payos_reference"] = webhookValue(w.Data["reference"])
		res.Metadata["payos_description"] = webhookValue(w.Data["description"])
	} else {
		res.Metadata["error_message"] = webhookValue(w.Data["desc"])
		res.Metadata["error_code"] = code
	}
	return res, nil
}

// ReturnResult interprets the cancel markers of the unsigned redirect query.
// It never reports success: a PAID redirect must be confirmed with
// PaymentStatus or the signed webhook.
func ReturnResult(orderCode, status, cancel string) (*Result, bool) {
	if cancel == "true" || status == "CANCELLED" {
		return &Result{TransactionID: orderCode, Code: "CANCELLED",
			Metadata: map[string]interface{}{"payos_status": "CANCELLED"}}, true
	}
	return nil, false
}

// payosStatusData is the data of GET /v2/payment-requests/{orderCode}
type payosStatusData struct {
	OrderCode  int64  `json:"orderCode"`
	Amount     int64  `json:"amount"`
	AmountPaid int64  `json:"amountPaid"`
	Status     string `json:"status"`
}

// PaymentStatus asks PayOS for the state of an order. The result is final
// when PayOS reports PAID, CANCELLED or EXPIRED.
func (p *PayOS) PaymentStatus(ctx context.Context, orderCode string) (*Result, bool, error) {
	if !p.Configured() {
		return nil, false, ErrNotConfigured
	}
	if _, err := strconv.ParseInt(orderCode, 10, 64); err != nil {
		return nil, false, fmt.Errorf("payos order code must be numeric: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(p.cfg.Endpoint, "/")+"/"+orderCode, nil)
	if err != nil {
		return nil, false, err
	}
	httpReq.Header.Set("x-client-id", p.cfg.ClientID)
	httpReq.Header.Set("x-api-key", p.cfg.APIKey)

	resp, err := p.http.Do(httpReq)
	if err != nil {
		return nil, false, fmt.Errorf("calling payos: %w", err)
	}
	defer resp.Body.Close()

	var env payosEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, false, fmt.Errorf("decoding payos response: %w", err)
	}
	if env.Code != "00" {
		return nil, false, fmt.Errorf("%w: payos %s %s", ErrProvider, env.Code, env.Desc)
	}
	var data payosStatusData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, false, fmt.Errorf("%w: payos status: %v", ErrProvider, err)
	}
	if strconv.FormatInt(data.OrderCode, 10) != orderCode {
		return nil, false, fmt.Errorf("%w: payos answered for order %d", ErrProvider, data.OrderCode)
	}

	amount := decimal.NewFromInt(data.Amount)
	res := &Result{
		TransactionID: orderCode,
		Success:       data.Status == "PAID",
		Code:          data.Status,
		Amount:        &amount,
		Metadata:      map[string]interface{}{"payos_status": data.Status},
	}
	switch data.Status {
	case "PAID":
		paid := decimal.NewFromInt(data.AmountPaid)
		res.Amount = &paid
		return res, true, nil
	case "CANCELLED", "EXPIRED":
		return res, true, nil
	}
	return res, false, nil
}
