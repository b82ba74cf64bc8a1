package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventup/api/internal/middleware"
	"github.com/eventup/api/internal/model"
)

// ApplicationService is the part of the application service the handler uses
type ApplicationService interface {
	Apply(ctx context.Context, ctvID, eventID, coverLetter string) (*model.Application, error)
	MyApplications(ctx context.Context, ctvID string, status model.ApplicationStatus, page model.Page) (*model.PageResult[*model.ApplicationWithEvent], error)
	Cancel(ctx context.Context, ctvID, appID string) (*model.Application, error)
	Dashboard(ctx context.Context, ctvID string) (*model.CTVDashboardStats, error)
	EventApplications(ctx context.Context, btcID, eventID string, status model.ApplicationStatus) ([]*model.ApplicationWithProfile, error)
	Approve(ctx context.Context, btcID, appID string, assignedRole *string) (*model.Application, error)
	Reject(ctx context.Context, btcID, appID string, reason *string) (*model.Application, error)
	BulkApprove(ctx context.Context, btcID string, ids []string, assignedRole *string) (*model.BulkResult, error)
	BulkReject(ctx context.Context, btcID string, ids []string, reason *string) (*model.BulkResult, error)
	Complete(ctx context.Context, btcID, appID string) (*model.Application, error)
	Report(ctx context.Context, btcID, appID string, reason *string) (*model.Application, error)
}

// ApplicationHandler handles /api/applications endpoints
type ApplicationHandler struct {
	applications ApplicationService
	logger       *zap.Logger
}

// NewApplicationHandler creates a new application handler
func NewApplicationHandler(applications ApplicationService, logger *zap.Logger) *ApplicationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplicationHandler{applications: applications, logger: logger}
}

// ApplyRequest is the body of POST /api/applications
type ApplyRequest struct {
	EventID     string `json:"eventId" binding:"required"`
	CoverLetter string `json:"coverLetter" binding:"max=1000"`
}

// ApproveRequest optionally assigns a job role
type ApproveRequest struct {
	AssignedRole *string `json:"assignedRole" binding:"omitempty,max=100"`
}

// RejectRequest optionally explains a rejection
type RejectRequest struct {
	RejectionReason *string `json:"rejectionReason" binding:"omitempty,max=500"`
}

// ReportRequest optionally describes a no-show
type ReportRequest struct {
	Reason *string `json:"reason" binding:"omitempty,max=500"`
}

// BulkRequest targets several applications at once
type BulkRequest struct {
	ApplicationIDs  []string `json:"applicationIds" binding:"required,min=1,max=100,dive,required"`
	AssignedRole    *string  `json:"assignedRole" binding:"omitempty,max=100"`
	RejectionReason *string  `json:"rejectionReason" binding:"omitempty,max=500"`
}

// optionalJSON binds a body that may be empty
func optionalJSON(c *gin.Context, dst interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bindJSON(c, dst)
}

// Apply handles POST /api/applications
func (h *ApplicationHandler) Apply(c *gin.Context) {
	var req ApplyRequest
	if !bindJSON(c, &req) {
		return
	}
	app, err := h.applications.Apply(c.Request.Context(), middleware.GetUserID(c), req.EventID, req.CoverLetter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteMessage(c, http.StatusCreated, "application submitted", app)
}

// Mine handles GET /api/applications/my
func (h *ApplicationHandler) Mine(c *gin.Context) {
	result, err := h.applications.MyApplications(c.Request.Context(), middleware.GetUserID(c),
		model.ApplicationStatus(c.Query("status")), pageFromQuery(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteCollection(c, result)
}

// Cancel handles DELETE /api/applications/:id
func (h *ApplicationHandler) Cancel(c *gin.Context) {
	app, err := h.applications.Cancel(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteMessage(c, http.StatusOK, "application cancelled", app)
}

// Dashboard handles GET /api/applications/dashboard/stats
func (h *ApplicationHandler) Dashboard(c *gin.Context) {
	stats, err := h.applications.Dashboard(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteData(c, http.StatusOK, stats)
}

// ForEvent handles GET /api/applications/event/:eventId
func (h *ApplicationHandler) ForEvent(c *gin.Context) {
	apps, err := h.applications.EventApplications(c.Request.Context(), middleware.GetUserID(c),
		c.Param("eventId"), model.ApplicationStatus(c.Query("status")))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if apps == nil {
		apps = []*model.ApplicationWithProfile{}
	}
	c.JSON(http.StatusOK, CollectionResponse{Success: true, Count: len(apps), Total: len(apps), Page: 1, Pages: 1, Data: apps})
}

// Approve handles PUT /api/applications/:id/approve
func (h *ApplicationHandler) Approve(c *gin.Context) {
	var req ApproveRequest
	if !optionalJSON(c, &req) {
		return
	}
	app, err := h.applications.Approve(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req.AssignedRole)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteMessage(c, http.StatusOK, "application approved", app)
}

// Reject handles PUT /api/applications/:id/reject
func (h *ApplicationHandler) Reject(c *gin.Context) {
	var req RejectRequest
	if !optionalJSON(c, &req) {
		return
	}
	app, err := h.applications.Reject(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req.RejectionReason)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteMessage(c, http.StatusOK, "application rejected", app)
}

// BulkApprove handles POST /api/applications/bulk-approve
func (h *ApplicationHandler) BulkApprove(c *gin.Context) {
	var req BulkRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.applications.BulkApprove(c.Request.Context(), middleware.GetUserID(c), req.ApplicationIDs, req.AssignedRole)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteMessage(c, http.StatusOK, "applications approved", result)
}

// BulkReject handles POST /api/applications/bulk-reject
func (h *ApplicationHandler) BulkReject(c *gin.Context) {
	var req BulkRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.applications.BulkReject(c.Request.Context(), middleware.GetUserID(c), req.ApplicationIDs, req.RejectionReason)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteMessage(c, http.StatusOK, "applications rejected", result)
}

// Complete handles PUT /api/applications/:id/complete
func (h *ApplicationHandler) Complete(c *gin.Context) {
	app, err := h.applications.Complete(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteMessage(c, http.StatusOK, "application completed", app)
}

// Report handles PUT /api/applications/:id/report
func (h *ApplicationHandler) Report(c *gin.Context) {
	var req ReportRequest
	if !optionalJSON(c, &req) {
		return
	}
	app, err := h.applications.Report(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteMessage(c, http.StatusOK, "violation reported", app)
}
