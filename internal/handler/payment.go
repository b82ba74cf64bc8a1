package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventup/api/internal/gateway"
	"github.com/eventup/api/internal/middleware"
	"github.com/eventup/api/internal/model"
	"github.com/eventup/api/internal/service"
)

// PaymentService is the part of the payment service the handler uses
type PaymentService interface {
	VNPayReturn(ctx context.Context, query url.Values) (*model.Payment, error)
	VNPayIPN(ctx context.Context, query url.Values) gateway.IPNResponse
	MoMoResult(ctx context.Context, r gateway.MoMoResult) (*model.Payment, error)
	PayOSWebhook(ctx context.Context, w gateway.PayOSWebhook) (*model.Payment, error)
	PayOSReturn(ctx context.Context, orderCode, status, cancel string) (*model.Payment, error)
	List(ctx context.Context, userID string, status model.PaymentStatus, page model.Page) (*model.PageResult[*model.Payment], error)
	GetByTransaction(ctx context.Context, userID, txnID string) (*model.Payment, error)
}

// PaymentHandler handles /api/payments endpoints and provider callbacks
type PaymentHandler struct {
	payments  PaymentService
	clientURL string
	logger    *zap.Logger
}

// NewPaymentHandler creates a new payment handler; browsers are sent back to clientURL
func NewPaymentHandler(payments PaymentService, clientURL string, logger *zap.Logger) *PaymentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentHandler{
		payments:  payments,
		clientURL: strings.TrimRight(clientURL, "/"),
		logger:    logger,
	}
}

// List handles GET /api/payments
func (h *PaymentHandler) List(c *gin.Context) {
	result, err := h.payments.List(c.Request.Context(), middleware.GetUserID(c),
		model.PaymentStatus(c.Query("status")), pageFromQuery(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteCollection(c, result)
}

// GetByTransaction handles GET /api/payments/transaction/:transactionId
func (h *PaymentHandler) GetByTransaction(c *gin.Context) {
	payment, err := h.payments.GetByTransaction(c.Request.Context(), middleware.GetUserID(c), c.Param("transactionId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteData(c, http.StatusOK, payment)
}

// ============================================================================
// Provider callbacks
// ============================================================================

// VNPayReturn handles GET /api/payments/vnpay/return
func (h *PaymentHandler) VNPayReturn(c *gin.Context) {
	query := c.Request.URL.Query()
	payment, err := h.payments.VNPayReturn(c.Request.Context(), query)
	h.redirect(c, "vnpay", payment, err, query.Get("vnp_ResponseCode"))
}

// VNPayIPN handles GET /api/payments/vnpay/ipn
func (h *PaymentHandler) VNPayIPN(c *gin.Context) {
	c.JSON(http.StatusOK, h.payments.VNPayIPN(c.Request.Context(), c.Request.URL.Query()))
}

// MoMoReturn handles GET /api/payments/momo/return
func (h *PaymentHandler) MoMoReturn(c *gin.Context) {
	result := gateway.MoMoResultFromQuery(c.Request.URL.Query())
	payment, err := h.payments.MoMoResult(c.Request.Context(), result)
	h.redirect(c, "momo", payment, err, result.ResultCode)
}

// MoMoIPN handles POST /api/payments/momo/ipn
func (h *PaymentHandler) MoMoIPN(c *gin.Context) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		WriteError(c, model.NewBadRequestError("invalid request body"))
		return
	}
	_, err := h.payments.MoMoResult(c.Request.Context(), gateway.MoMoResultFromBody(body))
	if errors.Is(err, gateway.ErrInvalidSignature) {
		WriteError(c, model.NewBadRequestError("invalid signature"))
		return
	}
	if err != nil {
		h.logger.Warn("momo ipn", zap.Error(err))
	}
	// MoMo only needs the acknowledgement
	WriteNoContent(c)
}

// PayOSReturn handles GET /api/payments/payos/return
func (h *PaymentHandler) PayOSReturn(c *gin.Context) {
	status := c.Query("status")
	payment, err := h.payments.PayOSReturn(c.Request.Context(), c.Query("orderCode"), status, c.Query("cancel"))
	h.redirect(c, "payos", payment, err, status)
}

// PayOSWebhook handles POST /api/payments/payos/webhook
func (h *PaymentHandler) PayOSWebhook(c *gin.Context) {
	var body gateway.PayOSWebhook
	if err := c.ShouldBindJSON(&body); err != nil {
		WriteError(c, model.NewBadRequestError("invalid request body"))
		return
	}
	_, err := h.payments.PayOSWebhook(c.Request.Context(), body)
	if errors.Is(err, gateway.ErrInvalidSignature) {
		WriteError(c, model.NewBadRequestError("invalid signature"))
		return
	}
	if err != nil {
		// PayOS retries on non 2xx; unknown orders include its own verification ping
		h.logger.Warn("payos webhook", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// redirect sends the browser to the client page matching the outcome
func (h *PaymentHandler) redirect(c *gin.Context, provider string, payment *model.Payment, err error, code string) {
	var target string
	switch {
	case errors.Is(err, gateway.ErrInvalidSignature):
		target = h.clientPage("/payment-error", "reason", "invalid_signature")
	case errors.Is(err, service.ErrPaymentNotFound):
		target = h.clientPage("/payment-error", "reason", "not_found")
	case errors.Is(err, service.ErrAmountMismatch):
		target = h.clientPage("/payment-error", "reason", "invalid_amount")
	case err != nil:
		h.logger.Error("payment return", zap.String("provider", provider), zap.Error(err))
		target = h.clientPage("/payment-error", "reason", "unknown")
	case payment.Status == model.PaymentSuccess:
		target = h.clientPage("/payment-success", "orderId", payment.TransactionID)
	case payment.Status == model.PaymentPending:
		target = h.clientPage("/payment-pending", "orderId", payment.TransactionID)
	default:
		target = h.clientPage("/payment-failed", "code", code)
	}
	c.Redirect(http.StatusFound, target)
}

func (h *PaymentHandler) clientPage(path, key, value string) string {
	return h.clientURL + path + "?" + url.Values{key: {value}}.Encode()
}
