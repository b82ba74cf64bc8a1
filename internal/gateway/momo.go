package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// MoMoConfig holds merchant settings
type MoMoConfig struct {
	PartnerCode string
	AccessKey   string
	SecretKey   string
	Endpoint    string
	ReturnURL   string
	IPNURL      string
}

// MoMo creates MoMo wallet payments and verifies their callbacks
type MoMo struct {
	cfg  MoMoConfig
	http *http.Client
}

// NewMoMo creates a MoMo client
func NewMoMo(cfg MoMoConfig) *MoMo {
	return &MoMo{cfg: cfg, http: &http.Client{Timeout: 15 * time.Second}}
}

// Configured reports whether merchant credentials are present
func (m *MoMo) Configured() bool {
	return m.cfg.PartnerCode != "" && m.cfg.AccessKey != "" && m.cfg.SecretKey != ""
}

type momoCreateRequest struct {
	PartnerCode  string `json:"partnerCode"`
	PartnerName  string `json:"partnerName"`
	StoreID      string `json:"storeId"`
	RequestID    string `json:"requestId"`
	Amount       string `json:"amount"`
	OrderID      string `json:"orderId"`
	OrderInfo    string `json:"orderInfo"`
	RedirectURL  string `json:"redirectUrl"`
	IPNURL       string `json:"ipnUrl"`
	Lang         string `json:"lang"`
	RequestType  string `json:"requestType"`
	AutoCapture  bool   `json:"autoCapture"`
	ExtraData    string `json:"extraData"`
	OrderGroupID string `json:"orderGroupId"`
	Signature    string `json:"signature"`
}

type momoCreateResponse struct {
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
	PayURL     string `json:"payUrl"`
}

// createSignature signs a create request
func (m *MoMo) createSignature(r *momoCreateRequest) string {
	raw := "accessKey=" + m.cfg.AccessKey +
		"&amount=" + r.Amount +
		"&extraData=" + r.ExtraData +
		"&ipnUrl=" + r.IPNURL +
		"&orderId=" + r.OrderID +
		"&orderInfo=" + r.OrderInfo +
		"&partnerCode=" + r.PartnerCode +
		"&redirectUrl=" + r.RedirectURL +
		"&requestId=" + r.RequestID +
		"&requestType=" + r.RequestType
	return hmacSHA256(m.cfg.SecretKey, raw)
}

// Create registers the payment with MoMo and returns the pay URL
func (m *MoMo) Create(ctx context.Context, c Checkout) (string, error) {
	if !m.Configured() {
		return "", ErrNotConfigured
	}
	info := c.Description
	if info == "" {
		info = "Payment for subscription"
	}
	extra, err := json.Marshal(map[string]string{"paymentId": c.PaymentID, "userId": c.UserID})
	if err != nil {
		return "", err
	}

	req := &momoCreateRequest{
		PartnerCode: m.cfg.PartnerCode,
		PartnerName: "EventUp",
		StoreID:     "EventUpStore",
		RequestID:   c.TransactionID,
		Amount:      c.Amount.Round(0).String(),
		OrderID:     c.TransactionID,
		OrderInfo:   info,
		RedirectURL: m.cfg.ReturnURL,
		IPNURL:      m.cfg.IPNURL,
		Lang:        "vi",
		RequestType: "payWithMethod",
		AutoCapture: true,
		ExtraData:   string(extra),
	}
	req.Signature = m.createSignature(req)

	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling momo: %w", err)
	}
	defer resp.Body.Close()

	var out momoCreateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding momo response: %w", err)
	}
	if out.ResultCode != 0 || out.PayURL == "" {
		return "", fmt.Errorf("%w: momo %d %s", ErrProvider, out.ResultCode, out.Message)
	}
	return out.PayURL, nil
}

// MoMoResult holds the fields of a return query or IPN body
type MoMoResult struct {
	PartnerCode  string
	OrderID      string
	RequestID    string
	Amount       string
	OrderInfo    string
	OrderType    string
	TransID      string
	ResultCode   string
	Message      string
	PayType      string
	ResponseTime string
	ExtraData    string
	Signature    string
}

// MoMoResultFromQuery reads a redirect query
func MoMoResultFromQuery(q url.Values) MoMoResult {
	return MoMoResult{
		PartnerCode:  q.Get("partnerCode"),
		OrderID:      q.Get("orderId"),
		RequestID:    q.Get("requestId"),
		Amount:       q.Get("amount"),
		OrderInfo:    q.Get("orderInfo"),
		OrderType:    q.Get("orderType"),
		TransID:      q.Get("transId"),
		ResultCode:   q.Get("resultCode"),
		Message:      q.Get("message"),
		PayType:      q.Get("payType"),
		ResponseTime: q.Get("responseTime"),
		ExtraData:    q.Get("extraData"),
		Signature:    q.Get("signature"),
	}
}

// MoMoResultFromBody reads a decoded IPN JSON body, where numbers arrive as float64
func MoMoResultFromBody(body map[string]interface{}) MoMoResult {
	s := func(key string) string {
		switch v := body[key].(type) {
		case string:
			return v
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case json.Number:
			return v.String()
		case nil:
			return ""
		default:
			return fmt.Sprint(v)
		}
	}
	return MoMoResult{
		PartnerCode:  s("partnerCode"),
		OrderID:      s("orderId"),
		RequestID:    s("requestId"),
		Amount:       s("amount"),
		OrderInfo:    s("orderInfo"),
		OrderType:    s("orderType"),
		TransID:      s("transId"),
		ResultCode:   s("resultCode"),
		Message:      s("message"),
		PayType:      s("payType"),
		ResponseTime: s("responseTime"),
		ExtraData:    s("extraData"),
		Signature:    s("signature"),
	}
}

// resultSignature is the signature MoMo attaches to results
func (m *MoMo) resultSignature(r MoMoResult) string {
	raw := "accessKey=" + m.cfg.AccessKey +
		"&amount=" + r.Amount +
		"&extraData=" + r.ExtraData +
		"&message=" + r.Message +
		"&orderId=" + r.OrderID +
		"&orderInfo=" + r.OrderInfo +
		"&orderType=" + r.OrderType +
		"&partnerCode=" + r.PartnerCode +
		"&payType=" + r.PayType +
		"&requestId=" + r.RequestID +
		"&responseTime=" + r.ResponseTime +
		"&resultCode=" + r.ResultCode +
		"&transId=" + r.TransID
	return hmacSHA256(m.cfg.SecretKey, raw)
}

// Verify checks a result's signature and extracts the outcome
func (m *MoMo) Verify(r MoMoResult) (*Result, error) {
	if r.Signature == "" || !signatureEqual(r.Signature, m.resultSignature(r)) {
		return nil, ErrInvalidSignature
	}
	res := &Result{
		TransactionID: r.OrderID,
		Success:       r.ResultCode == "0",
		Code:          r.ResultCode,
		Metadata:      map[string]interface{}{},
	}
	if r.Amount != "" {
		amount, err := decimal.NewFromString(r.Amount)
		if err != nil {
			return nil, fmt.Errorf("momo amount %q: %w", r.Amount, err)
		}
		res.Amount = &amount
	}
	if res.Success {
		res.Metadata["momo_trans_id"] = r.TransID
		res.Metadata["pay_type"] = r.PayType
		res.Metadata["response_time"] = r.ResponseTime
	} else {
		res.Metadata["error_message"] = r.Message
		res.Metadata["result_code"] = r.ResultCode
	}
	return res, nil
}
