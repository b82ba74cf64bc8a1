package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is the gateway used for a payment
type PaymentMethod string

const (
	PaymentMoMo  PaymentMethod = "MOMO"
	PaymentVNPay PaymentMethod = "VNPAY"
	PaymentPayOS PaymentMethod = "PAYOS"
)

// IsValid reports whether the method is a supported gateway
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMoMo, PaymentVNPay, PaymentPayOS:
		return true
	}
	return false
}

// PaymentStatus is the reconciliation state of a payment
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentSuccess  PaymentStatus = "SUCCESS"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// SubscriptionData describes what a payment buys
type SubscriptionData struct {
	Plan         Plan `json:"plan"`
	DurationDays int  `json:"duration_days"`
}

// Payment is a subscription purchase through a gateway
type Payment struct {
	ID               string                 `json:"id"`
	UserID           string                 `json:"user_id"`
	Amount           decimal.Decimal        `json:"amount"`
	Method           PaymentMethod          `json:"method"`
	Status           PaymentStatus          `json:"status"`
	TransactionID    string                 `json:"transaction_id"`
	Description      string                 `json:"description,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
	SubscriptionData *SubscriptionData      `json:"subscription_data,omitempty"`
	CreatedOn        time.Time              `json:"created_on"`
	UpdatedOn        time.Time              `json:"updated_on"`
}

// IsSettled reports whether the payment already left PENDING
func (p *Payment) IsSettled() bool {
	return p.Status != PaymentPending
}

// PlanDetails describes the limits and price of a plan
type PlanDetails struct {
	Name         Plan            `json:"name"`
	Price        decimal.Decimal `json:"price"`
	DurationDays int             `json:"duration_days,omitempty"`
	PostLimit    int             `json:"post_limit"`
	UrgentLimit  int             `json:"urgent_limit"`
	BulkApproval bool            `json:"bulk_approval"`
	Features     []string        `json:"features"`
}

// CurrentSubscription is the caller's subscription state
type CurrentSubscription struct {
	Plan        Plan         `json:"plan"`
	ExpiredAt   *time.Time   `json:"expired_at"`
	IsActive    bool         `json:"is_active"`
	PostUsed    int          `json:"post_used"`
	UrgentUsed  int          `json:"urgent_used"`
	AutoRenew   bool         `json:"auto_renew"`
	PlanDetails *PlanDetails `json:"plan_details"`
}

// CheckoutResult is returned when a payment is started
type CheckoutResult struct {
	PaymentID     string        `json:"payment_id"`
	TransactionID string        `json:"transaction_id"`
	Method        PaymentMethod `json:"method"`
	PaymentURL    string        `json:"payment_url"`
}
