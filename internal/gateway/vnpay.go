package gateway

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// VNPayConfig holds merchant settings
type VNPayConfig struct {
	TmnCode    string
	HashSecret string
	PayURL     string
	ReturnURL  string
}

// VNPay builds payment URLs and verifies VNPay callbacks
type VNPay struct {
	cfg VNPayConfig
	now func() time.Time
}

// NewVNPay creates a VNPay client
func NewVNPay(cfg VNPayConfig) *VNPay {
	return &VNPay{cfg: cfg, now: time.Now}
}

// Configured reports whether merchant credentials are present
func (v *VNPay) Configured() bool {
	return v.cfg.TmnCode != "" && v.cfg.HashSecret != ""
}

// VNPay IPN response codes
const (
	VNPayConfirmSuccess   = "00"
	VNPayOrderNotFound    = "01"
	VNPayAlreadyConfirmed = "02"
	VNPayInvalidAmount    = "04"
	VNPayChecksumFailed   = "97"
	VNPayUnknownError     = "99"
)

// IPNResponse is the body VNPay expects from the IPN endpoint
type IPNResponse struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

// IPNMessages maps IPN codes to their messages
var IPNMessages = map[string]string{
	VNPayConfirmSuccess:   "Confirm Success",
	VNPayOrderNotFound:    "Order not found",
	VNPayAlreadyConfirmed: "Order already confirmed",
	VNPayInvalidAmount:    "Invalid amount",
	VNPayChecksumFailed:   "Checksum failed",
	VNPayUnknownError:     "Unknown error",
}

// NewIPNResponse builds the response for code
func NewIPNResponse(code string) IPNResponse {
	return IPNResponse{RspCode: code, Message: IPNMessages[code]}
}

// signData joins sorted params as key=value pairs with both sides escaped
func signData(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(componentEscape(k))
		b.WriteByte('=')
		b.WriteString(componentEscape(params[k]))
	}
	return b.String()
}

// PaymentURL returns the VNPay checkout URL for c
func (v *VNPay) PaymentURL(c Checkout) (string, error) {
	if !v.Configured() {
		return "", ErrNotConfigured
	}
	now := v.now().In(vietnam)
	info := c.Description
	if info == "" {
		info = "Thanh toan cho ma GD:" + c.TransactionID
	}
	ip := c.ClientIP
	if ip == "" {
		ip = "127.0.0.1"
	}

	params := map[string]string{
		"vnp_Version":    "2.1.0",
		"vnp_Command":    "pay",
		"vnp_TmnCode":    v.cfg.TmnCode,
		"vnp_Locale":     "vn",
		"vnp_CurrCode":   "VND",
		"vnp_TxnRef":     c.TransactionID,
		"vnp_OrderInfo":  info,
		"vnp_OrderType":  "other",
		"vnp_Amount":     c.Amount.Mul(decimal.NewFromInt(100)).Round(0).String(),
		"vnp_ReturnUrl":  v.cfg.ReturnURL,
		"vnp_IpAddr":     ip,
		"vnp_CreateDate": now.Format("20060102150405"),
		"vnp_ExpireDate": now.Add(15 * time.Minute).Format("20060102150405"),
	}
	data := signData(params)
	return fmt.Sprintf("%s?%s&vnp_SecureHash=%s", v.cfg.PayURL, data, hmacSHA512(v.cfg.HashSecret, data)), nil
}

// Verify checks the signature of a return or IPN query and extracts the result
func (v *VNPay) Verify(query url.Values) (*Result, error) {
	given := query.Get("vnp_SecureHash")
	params := make(map[string]string, len(query))
	for k := range query {
		if k == "vnp_SecureHash" || k == "vnp_SecureHashType" || !strings.HasPrefix(k, "vnp_") {
			continue
		}
		params[k] = query.Get(k)
	}
	if given == "" || !signatureEqual(given, hmacSHA512(v.cfg.HashSecret, signData(params))) {
		return nil, ErrInvalidSignature
	}

	code := query.Get("vnp_ResponseCode")
	res := &Result{
		TransactionID: query.Get("vnp_TxnRef"),
		Success:       code == "00",
		Code:          code,
		Metadata:      map[string]interface{}{},
	}
	if raw := query.Get("vnp_Amount"); raw != "" {
		if amount, err := decimal.NewFromString(raw); err == nil {
			amount = amount.Div(decimal.NewFromInt(100))
			res.Amount = &amount
		}
	}
	if res.Success {
		res.Metadata["vnpay_transaction_no"] = query.Get("vnp_TransactionNo")
		res.Metadata["vnpay_bank_code"] = query.Get("vnp_BankCode")
		res.Metadata["vnpay_card_type"] = query.Get("vnp_CardType")
	} else {
		res.Metadata["vnpay_response_code"] = code
	}
	return res, nil
}
