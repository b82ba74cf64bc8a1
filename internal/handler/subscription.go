package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventup/api/internal/middleware"
	"github.com/eventup/api/internal/model"
)

// SubscriptionService is the part of the subscription service the handler uses
type SubscriptionService interface {
	Plans() []*model.PlanDetails
	Current(ctx context.Context, userID string) (*model.CurrentSubscription, error)
	Upgrade(ctx context.Context, userID string, method model.PaymentMethod, clientIP string) (*model.CheckoutResult, error)
	Cancel(ctx context.Context, userID string) (*model.CurrentSubscription, error)
}

// SubscriptionHandler handles /api/subscriptions endpoints
type SubscriptionHandler struct {
	subscriptions SubscriptionService
	logger        *zap.Logger
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(subscriptions SubscriptionService, logger *zap.Logger) *SubscriptionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubscriptionHandler{subscriptions: subscriptions, logger: logger}
}

// UpgradeRequest picks the payment provider
type UpgradeRequest struct {
	Method string `json:"method" binding:"required,paymethod"`
}

// Plans handles GET /api/subscriptions/plans
func (h *SubscriptionHandler) Plans(c *gin.Context) {
	WriteData(c, http.StatusOK, h.subscriptions.Plans())
}

// Current handles GET /api/subscriptions/current
func (h *SubscriptionHandler) Current(c *gin.Context) {
	current, err := h.subscriptions.Current(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteData(c, http.StatusOK, current)
}

// Upgrade handles POST /api/subscriptions/upgrade
func (h *SubscriptionHandler) Upgrade(c *gin.Context) {
	var req UpgradeRequest
	if !bindJSON(c, &req) {
		return
	}
	checkout, err := h.subscriptions.Upgrade(c.Request.Context(), middleware.GetUserID(c),
		model.PaymentMethod(req.Method), c.ClientIP())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteMessage(c, http.StatusOK, "payment created", checkout)
}

// Cancel handles POST /api/subscriptions/cancel
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	current, err := h.subscriptions.Cancel(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteMessage(c, http.StatusOK, "auto renewal cancelled", current)
}
