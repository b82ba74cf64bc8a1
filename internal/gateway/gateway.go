// Package gateway talks to the VNPay, MoMo and PayOS payment providers:
// it builds checkout requests and verifies the signed results they send back.
package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Errors
var (
	ErrInvalidSignature = errors.New("gateway: invalid signature")
	ErrNotConfigured    = errors.New("gateway: provider not configured")
	ErrProvider         = errors.New("gateway: provider rejected the request")
)

// Checkout is what the API asks a provider to charge
type Checkout struct {
	TransactionID string
	Amount        decimal.Decimal
	Description   string
	ClientIP      string
	PaymentID     string
	UserID        string
}

// Result is a verified provider callback
type Result struct {
	TransactionID string
	Success       bool
	Code          string           // provider result code
	Amount        *decimal.Decimal // when the provider reports it
	Metadata      map[string]interface{}
}

// vietnam is the time zone VNPay timestamps are expressed in
var vietnam = time.FixedZone("GMT+7", 7*60*60)

// NewTransactionID returns a reference accepted by VNPay and MoMo (alphanumeric)
func NewTransactionID(now time.Time) string {
	short := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("EVU%d%s", now.UnixMilli(), strings.ToUpper(short))
}

// NewOrderCode returns a numeric PayOS order code below 2^53
func NewOrderCode(now time.Time) int64 {
	return now.UnixMilli()*1000 + rand.Int64N(1000)
}

func hmacSHA512(secret, data string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

func hmacSHA256(secret, data string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// signatureEqual compares hex signatures in constant time, ignoring case
func signatureEqual(got, want string) bool {
	return hmac.Equal([]byte(strings.ToLower(got)), []byte(strings.ToLower(want)))
}

// componentEscape escapes like JavaScript's encodeURIComponent, with spaces as "+"
func componentEscape(s string) string {
	escaped := url.QueryEscape(s)
	r := strings.NewReplacer("%21", "!", "%27", "'", "%28", "(", "%29", ")", "%2A", "*")
	return r.Replace(escaped)
}
