package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/eventup/api/internal/cache"
	"github.com/eventup/api/internal/database"
	"github.com/eventup/api/internal/gateway"
	"github.com/eventup/api/internal/metrics"
	"github.com/eventup/api/internal/model"
)

// settleLockTTL bounds how long one callback may hold a payment
const settleLockTTL = 30 * time.Second

// PaymentRepository defines the interface for payment storage
type PaymentRepository interface {
	Create(ctx context.Context, p *model.Payment) error
	GetByTransactionID(ctx context.Context, txnID string) (*model.Payment, error)
	Settle(ctx context.Context, txnID string, status model.PaymentStatus, metadata map[string]interface{}) (*model.Payment, error)
	ListByUser(ctx context.Context, userID string, status model.PaymentStatus, page model.Page) (*model.PageResult[*model.Payment], error)
}

// VNPayGateway builds VNPay payment URLs and verifies their results
type VNPayGateway interface {
	Configured() bool
	PaymentURL(c gateway.Checkout) (string, error)
	Verify(query url.Values) (*gateway.Result, error)
}

// MoMoGateway creates MoMo payments and verifies their results
type MoMoGateway interface {
	Configured() bool
	Create(ctx context.Context, c gateway.Checkout) (string, error)
	Verify(r gateway.MoMoResult) (*gateway.Result, error)
}

// PayOSGateway creates PayOS payment links and verifies webhooks
type PayOSGateway interface {
	Configured() bool
	Create(ctx context.Context, c gateway.Checkout) (string, error)
	VerifyWebhook(w gateway.PayOSWebhook) (*gateway.Result, error)
	PaymentStatus(ctx context.Context, orderCode string) (*gateway.Result, bool, error)
}

// PlanActivator grants a plan once a payment succeeds
type PlanActivator interface {
	Activate(ctx context.Context, userID string, plan model.Plan, durationDays int) (time.Time, error)
}

// PaymentService starts gateway payments and reconciles their callbacks
type PaymentService struct {
	paymentRepo PaymentRepository
	vnpay       VNPayGateway
	momo        MoMoGateway
	payos       PayOSGateway
	activator   PlanActivator
	notifier    Notifier
	locks       cache.Store
	metrics     *metrics.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// PaymentServiceConfig holds configuration for the payment service
type PaymentServiceConfig struct {
	PaymentRepo PaymentRepository
	VNPay       VNPayGateway
	MoMo        MoMoGateway
	PayOS       PayOSGateway
	Activator   PlanActivator
	Notifier    Notifier
	Cache       cache.Store
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(cfg PaymentServiceConfig) *PaymentService {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &PaymentService{
		paymentRepo: cfg.PaymentRepo,
		vnpay:       cfg.VNPay,
		momo:        cfg.MoMo,
		payos:       cfg.PayOS,
		activator:   cfg.Activator,
		notifier:    cfg.Notifier,
		locks:       cfg.Cache,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		now:         time.Now,
	}
}

// StartCheckout records a pending payment for the plan and asks the gateway where to pay
func (s *PaymentService) StartCheckout(ctx context.Context, user *model.User, method model.PaymentMethod, plan *model.PlanDetails, clientIP string) (*model.CheckoutResult, error) {
	if !s.configured(method) {
		return nil, ErrPaymentUnavailable
	}

	now := s.now()
	txnID := gateway.NewTransactionID(now)
	if method == model.PaymentPayOS {
		// PayOS only accepts numeric order codes
		txnID = strconv.FormatInt(gateway.NewOrderCode(now), 10)
	}

	payment := &model.Payment{
		UserID:        user.ID,
		Amount:        plan.Price,
		Method:        method,
		Status:        model.PaymentPending,
		TransactionID: txnID,
		Description:   fmt.Sprintf("EventUp %s %d days", plan.Name, plan.DurationDays),
		SubscriptionData: &model.SubscriptionData{
			Plan:         plan.Name,
			DurationDays: plan.DurationDays,
		},
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	checkout := gateway.Checkout{
		TransactionID: txnID,
		Amount:        plan.Price,
		Description:   payment.Description,
		ClientIP:      clientIP,
		PaymentID:     payment.ID,
		UserID:        user.ID,
	}
	var payURL string
	var err error
	switch method {
	case model.PaymentVNPay:
		payURL, err = s.vnpay.PaymentURL(checkout)
	case model.PaymentMoMo:
		payURL, err = s.momo.Create(ctx, checkout)
	case model.PaymentPayOS:
		payURL, err = s.payos.Create(ctx, checkout)
	}
	if err != nil {
		s.logger.Error("creating gateway payment",
			zap.String("method", string(method)),
			zap.String("transaction_id", txnID),
			zap.Error(err))
		if _, settleErr := s.paymentRepo.Settle(ctx, txnID, model.PaymentFailed,
			map[string]interface{}{"error_message": err.Error()}); settleErr != nil {
			s.logger.Warn("marking payment failed", zap.String("transaction_id", txnID), zap.Error(settleErr))
		}
		return nil, fmt.Errorf("%w: %v", ErrPaymentUnavailable, err)
	}

	return &model.CheckoutResult{
		PaymentID:     payment.ID,
		TransactionID: txnID,
		Method:        method,
		PaymentURL:    payURL,
	}, nil
}

func (s *PaymentService) configured(method model.PaymentMethod) bool {
	switch method {
	case model.PaymentVNPay:
		return s.vnpay != nil && s.vnpay.Configured()
	case model.PaymentMoMo:
		return s.momo != nil && s.momo.Configured()
	case model.PaymentPayOS:
		return s.payos != nil && s.payos.Configured()
	}
	return false
}

// Settle applies a verified gateway result. A payment leaves PENDING exactly
// once; later callbacks for it get ErrPaymentAlreadySettled with the stored payment.
func (s *PaymentService) Settle(ctx context.Context, method model.PaymentMethod, res *gateway.Result) (*model.Payment, error) {
	if s.locks != nil {
		release, err := s.locks.Acquire(ctx, "payment:"+res.TransactionID, settleLockTTL)
		switch {
		case errors.Is(err, cache.ErrLocked):
			return nil, ErrPaymentInProgress
		case err != nil:
			// The conditional update below still prevents a double settle
			s.logger.Warn("payment lock unavailable", zap.String("transaction_id", res.TransactionID), zap.Error(err))
		default:
			defer release()
		}
	}

	payment, err := s.paymentRepo.GetByTransactionID(ctx, res.TransactionID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	if payment.IsSettled() {
		return payment, ErrPaymentAlreadySettled
	}
	if res.Amount != nil && !res.Amount.Equal(payment.Amount) {
		s.logger.Warn("payment amount mismatch",
			zap.String("transaction_id", res.TransactionID),
			zap.String("expected", payment.Amount.String()),
			zap.String("received", res.Amount.String()))
		return payment, ErrAmountMismatch
	}

	status := model.PaymentFailed
	if res.Success {
		status = model.PaymentSuccess
	}
	settled, err := s.paymentRepo.Settle(ctx, res.TransactionID, status, res.Metadata)
	if err != nil {
		if errors.Is(err, database.ErrConflict) {
			return payment, ErrPaymentAlreadySettled
		}
		return nil, err
	}
	s.metrics.PaymentSettled(string(method), string(status))
	s.logger.Info("payment settled",
		zap.String("transaction_id", res.TransactionID),
		zap.String("method", string(method)),
		zap.String("status", string(status)))

	if status == model.PaymentSuccess {
		s.activate(ctx, settled)
	}
	return settled, nil
}

func (s *PaymentService) activate(ctx context.Context, payment *model.Payment) {
	if payment.SubscriptionData == nil || s.activator == nil {
		return
	}
	data := payment.SubscriptionData
	expiredAt, err := s.activator.Activate(ctx, payment.UserID, data.Plan, data.DurationDays)
	if err != nil {
		// Money was taken; this needs a person to look at it
		s.logger.Error("activating subscription after payment",
			zap.String("transaction_id", payment.TransactionID),
			zap.String("user_id", payment.UserID),
			zap.Error(err))
		return
	}

	notifyQuietly(ctx, s.notifier, s.logger, NotificationInput{
		UserID:       payment.UserID,
		Type:         model.NotificationPayment,
		Title:        "Payment successful",
		Content:      fmt.Sprintf("Your %s plan is active until %s", data.Plan, expiredAt.Format("02/01/2006")),
		RelatedID:    payment.ID,
		RelatedModel: model.RelatedPayment,
		Metadata: map[string]interface{}{
			"transaction_id": payment.TransactionID,
			"amount":         payment.Amount.String(),
		},
	})
}

// ============================================================================
// Provider callbacks
// ============================================================================

// VNPayReturn handles the browser redirect back from VNPay
func (s *PaymentService) VNPayReturn(ctx context.Context, query url.Values) (*model.Payment, error) {
	if s.vnpay == nil {
		return nil, ErrPaymentUnavailable
	}
	res, err := s.vnpay.Verify(query)
	if err != nil {
		return nil, err
	}
	return s.settleOrCurrent(ctx, model.PaymentVNPay, res)
}

// VNPayIPN handles the server to server notification and answers with a VNPay response code
func (s *PaymentService) VNPayIPN(ctx context.Context, query url.Values) gateway.IPNResponse {
	if s.vnpay == nil {
		return gateway.NewIPNResponse(gateway.VNPayUnknownError)
	}
	res, err := s.vnpay.Verify(query)
	if err != nil {
		return gateway.NewIPNResponse(gateway.VNPayChecksumFailed)
	}

	_, err = s.Settle(ctx, model.PaymentVNPay, res)
	switch {
	case err == nil:
		return gateway.NewIPNResponse(gateway.VNPayConfirmSuccess)
	case errors.Is(err, ErrPaymentNotFound):
		return gateway.NewIPNResponse(gateway.VNPayOrderNotFound)
	case errors.Is(err, ErrAmountMismatch):
		return gateway.NewIPNResponse(gateway.VNPayInvalidAmount)
	case errors.Is(err, ErrPaymentAlreadySettled), errors.Is(err, ErrPaymentInProgress):
		return gateway.NewIPNResponse(gateway.VNPayAlreadyConfirmed)
	default:
		s.logger.Error("vnpay ipn", zap.String("transaction_id", res.TransactionID), zap.Error(err))
		return gateway.NewIPNResponse(gateway.VNPayUnknownError)
	}
}

// MoMoResult handles a MoMo redirect or IPN
func (s *PaymentService) MoMoResult(ctx context.Context, r gateway.MoMoResult) (*model.Payment, error) {
	if s.momo == nil {
		return nil, ErrPaymentUnavailable
	}
	res, err := s.momo.Verify(r)
	if err != nil {
		return nil, err
	}
	return s.settleOrCurrent(ctx, model.PaymentMoMo, res)
}

// PayOSWebhook handles a signed PayOS webhook
func (s *PaymentService) PayOSWebhook(ctx context.Context, w gateway.PayOSWebhook) (*model.Payment, error) {
	if s.payos == nil {
		return nil, ErrPaymentUnavailable
	}
	res, err := s.payos.VerifyWebhook(w)
	if err != nil {
		return nil, err
	}
	return s.settleOrCurrent(ctx, model.PaymentPayOS, res)
}

// PayOSReturn handles the browser redirect back from PayOS. The query is
// unsigned, so only a cancellation is taken from it directly; a PAID redirect
// settles only after PayOS confirms the order. Anything else leaves the
// payment pending for the webhook.
func (s *PaymentService) PayOSReturn(ctx context.Context, orderCode, status, cancel string) (*model.Payment, error) {
	if res, cancelled := gateway.ReturnResult(orderCode, status, cancel); cancelled {
		return s.settleOrCurrent(ctx, model.PaymentPayOS, res)
	}

	payment, err := s.paymentRepo.GetByTransactionID(ctx, orderCode)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	if payment.IsSettled() || status != "PAID" || s.payos == nil {
		return payment, nil
	}

	res, final, err := s.payos.PaymentStatus(ctx, orderCode)
	if err != nil {
		s.logger.Warn("payos status lookup failed, waiting for webhook",
			zap.String("transaction_id", orderCode), zap.Error(err))
		return payment, nil
	}
	if !final {
		return payment, nil
	}
	return s.settleOrCurrent(ctx, model.PaymentPayOS, res)
}

// settleOrCurrent settles the payment, returning the stored one when another callback got there first
func (s *PaymentService) settleOrCurrent(ctx context.Context, method model.PaymentMethod, res *gateway.Result) (*model.Payment, error) {
	payment, err := s.Settle(ctx, method, res)
	if errors.Is(err, ErrPaymentAlreadySettled) && payment != nil {
		return payment, nil
	}
	return payment, err
}

// ============================================================================
// Queries
// ============================================================================

// List returns a page of the user's payments
func (s *PaymentService) List(ctx context.Context, userID string, status model.PaymentStatus, page model.Page) (*model.PageResult[*model.Payment], error) {
	return s.paymentRepo.ListByUser(ctx, userID, status, page)
}

// GetByTransaction returns one of the user's payments
func (s *PaymentService) GetByTransaction(ctx context.Context, userID, txnID string) (*model.Payment, error) {
	payment, err := s.paymentRepo.GetByTransactionID(ctx, txnID)
	if err != nil {
		return nil, err
	}
	if payment == nil || payment.UserID != userID {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}
