package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventup/api/internal/middleware"
	"github.com/eventup/api/internal/model"
	"github.com/eventup/api/internal/service"
)

// ReviewService is the part of the review service the handler uses
type ReviewService interface {
	ReviewBTC(ctx context.Context, ctvID string, req service.ReviewBTCRequest) (*model.Review, error)
	ReviewCTV(ctx context.Context, btcID string, req service.ReviewCTVRequest) (*model.Review, error)
	ListReceived(ctx context.Context, userID string, reviewType model.ReviewType, page model.Page) (*model.PageResult[*model.ReviewWithAuthor], error)
	Check(ctx context.Context, fromUser, eventID, toUser string, reviewType model.ReviewType) (*model.ReviewCheck, error)
	Update(ctx context.Context, userID, reviewID string, req service.UpdateReviewRequest) (*model.Review, error)
	Delete(ctx context.Context, userID, reviewID string) error
}

// ReviewHandler handles /api/reviews endpoints
type ReviewHandler struct {
	reviews ReviewService
	logger  *zap.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviews ReviewService, logger *zap.Logger) *ReviewHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewHandler{reviews: reviews, logger: logger}
}

// ReviewBTCRequest is a collaborator rating an organizer
type ReviewBTCRequest struct {
	EventID string `json:"eventId" binding:"required"`
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=500"`
}

// ReviewCTVRequest is an organizer rating a collaborator
type ReviewCTVRequest struct {
	EventID  string `json:"eventId" binding:"required"`
	CTVID    string `json:"ctvId" binding:"required"`
	Skill    int    `json:"skill" binding:"required,min=1,max=5"`
	Attitude int    `json:"attitude" binding:"required,min=1,max=5"`
	Comment  string `json:"comment" binding:"max=500"`
}

// UpdateReviewRequest changes scores or the comment
type UpdateReviewRequest struct {
	Rating   *int    `json:"rating" binding:"omitempty,min=1,max=5"`
	Skill    *int    `json:"skill" binding:"omitempty,min=1,max=5"`
	Attitude *int    `json:"attitude" binding:"omitempty,min=1,max=5"`
	Comment  *string `json:"comment" binding:"omitempty,max=500"`
}

// CheckQuery identifies a potential review
type CheckQuery struct {
	EventID    string `form:"eventId" binding:"required"`
	ToUserID   string `form:"toUserId" binding:"required"`
	ReviewType string `form:"reviewType" binding:"required,oneof=BTC_TO_CTV CTV_TO_BTC"`
}

// ReviewBTC handles POST /api/reviews/btc
func (h *ReviewHandler) ReviewBTC(c *gin.Context) {
	var req ReviewBTCRequest
	if !bindJSON(c, &req) {
		return
	}
	review, err := h.reviews.ReviewBTC(c.Request.Context(), middleware.GetUserID(c), service.ReviewBTCRequest{
		EventID: req.EventID,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteMessage(c, http.StatusCreated, "review submitted", review)
}

// ReviewCTV handles POST /api/reviews/ctv
func (h *ReviewHandler) ReviewCTV(c *gin.Context) {
	var req ReviewCTVRequest
	if !bindJSON(c, &req) {
		return
	}
	review, err := h.reviews.ReviewCTV(c.Request.Context(), middleware.GetUserID(c), service.ReviewCTVRequest{
		EventID:  req.EventID,
		CTVID:    req.CTVID,
		Skill:    req.Skill,
		Attitude: req.Attitude,
		Comment:  req.Comment,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteMessage(c, http.StatusCreated, "review submitted", review)
}

// ForUser handles GET /api/reviews/user/:userId
func (h *ReviewHandler) ForUser(c *gin.Context) {
	reviewType := model.ReviewType(c.Query("type"))
	if reviewType != "" && reviewType != model.ReviewBTCToCTV && reviewType != model.ReviewCTVToBTC {
		WriteError(c, model.NewValidationError([]model.FieldError{{Field: "type", Message: "invalid review type"}}))
		return
	}
	result, err := h.reviews.ListReceived(c.Request.Context(), c.Param("userId"), reviewType, pageFromQuery(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteCollection(c, result)
}

// Check handles GET /api/reviews/check
func (h *ReviewHandler) Check(c *gin.Context) {
	var q CheckQuery
	if !bindQuery(c, &q) {
		return
	}
	check, err := h.reviews.Check(c.Request.Context(), middleware.GetUserID(c), q.EventID, q.ToUserID, model.ReviewType(q.ReviewType))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteData(c, http.StatusOK, check)
}

// Update handles PUT /api/reviews/:id
func (h *ReviewHandler) Update(c *gin.Context) {
	var req UpdateReviewRequest
	if !bindJSON(c, &req) {
		return
	}
	review, err := h.reviews.Update(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), service.UpdateReviewRequest{
		Rating:   req.Rating,
		Skill:    req.Skill,
		Attitude: req.Attitude,
		Comment:  req.Comment,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteMessage(c, http.StatusOK, "review updated", review)
}

// Delete handles DELETE /api/reviews/:id
func (h *ReviewHandler) Delete(c *gin.Context) {
	if err := h.reviews.Delete(c.Request.Context(), middleware.GetUserID(c), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteMessage(c, http.StatusOK, "review deleted", nil)
}
