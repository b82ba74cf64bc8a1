package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventup/api/internal/middleware"
	"github.com/eventup/api/internal/model"
	"github.com/eventup/api/internal/service"
)

// EventService is the part of the event service the handler uses
type EventService interface {
	Search(ctx context.Context, f *model.EventSearchFilters, page model.Page) (*model.PageResult[*model.Event], error)
	GetDetail(ctx context.Context, eventID string, viewer *service.Viewer) (*model.EventDetail, error)
	Create(ctx context.Context, btcID string, req service.CreateEventRequest) (*model.Event, error)
	Update(ctx context.Context, btcID, eventID string, req service.UpdateEventRequest) (*model.Event, error)
	Delete(ctx context.Context, btcID, eventID string) error
	MyEvents(ctx context.Context, btcID string, status model.EventStatus, page model.Page) (*model.PageResult[*model.Event], error)
	Dashboard(ctx context.Context, btcID string) (*model.BTCDashboardStats, error)
}

// EventHandler handles /api/events endpoints
type EventHandler struct {
	events EventService
	logger *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler(events EventService, logger *zap.Logger) *EventHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventHandler{events: events, logger: logger}
}

// JobDetailRequest is one recruited role
type JobDetailRequest struct {
	Role     string `json:"role" binding:"required,max=100"`
	Task     string `json:"task" binding:"max=500"`
	WorkTime string `json:"workTime" binding:"max=100"`
	Quantity int    `json:"quantity" binding:"min=0,max=10000"`
	Salary   string `json:"salary" binding:"max=100"`
}

// CreateEventRequest is the body of POST /api/events
type CreateEventRequest struct {
	Title          string             `json:"title" binding:"required,max=200"`
	Description    string             `json:"description" binding:"required,max=10000"`
	Location       string             `json:"location" binding:"required,max=255"`
	EventType      string             `json:"eventType" binding:"required,eventtype"`
	Salary         string             `json:"salary" binding:"required,max=100"`
	Benefits       string             `json:"benefits" binding:"max=2000"`
	StartTime      time.Time          `json:"startTime" binding:"required"`
	EndTime        time.Time          `json:"endTime" binding:"required"`
	Deadline       time.Time          `json:"deadline" binding:"required"`
	Quantity       int                `json:"quantity" binding:"required,min=1,max=10000"`
	JobDetailItems []JobDetailRequest `json:"jobDetailItems" binding:"omitempty,max=20,dive"`
	Poster         *string            `json:"poster" binding:"omitempty,url"`
	Urgent         bool               `json:"urgent"`
	Requirements   []string           `json:"requirements" binding:"omitempty,max=30,dive,max=500"`
}

// UpdateEventRequest is the body of PUT /api/events/:eventId
type UpdateEventRequest struct {
	Title          *string            `json:"title" binding:"omitempty,min=1,max=200"`
	Description    *string            `json:"description" binding:"omitempty,min=1,max=10000"`
	Location       *string            `json:"location" binding:"omitempty,min=1,max=255"`
	EventType      *string            `json:"eventType" binding:"omitempty,eventtype"`
	Salary         *string            `json:"salary" binding:"omitempty,max=100"`
	Benefits       *string            `json:"benefits" binding:"omitempty,max=2000"`
	StartTime      *time.Time         `json:"startTime"`
	EndTime        *time.Time         `json:"endTime"`
	Deadline       *time.Time         `json:"deadline"`
	Quantity       *int               `json:"quantity" binding:"omitempty,min=1,max=10000"`
	JobDetailItems []JobDetailRequest `json:"jobDetailItems" binding:"omitempty,max=20,dive"`
	Poster         *string            `json:"poster" binding:"omitempty,url"`
	Urgent         *bool              `json:"urgent"`
	Status         *string            `json:"status" binding:"omitempty,oneof=PREPARING RECRUITING COMPLETED CANCELLED"`
	Requirements   []string           `json:"requirements" binding:"omitempty,max=30,dive,max=500"`
}

// SearchQuery holds the public search filters
type SearchQuery struct {
	Keyword     string `form:"keyword" binding:"max=200"`
	Location    string `form:"location" binding:"max=255"`
	EventType   string `form:"eventType" binding:"omitempty,eventtype"`
	Urgent      string `form:"urgent" binding:"omitempty,oneof=true false"`
	TimeFrom    string `form:"timeFrom"`
	TimeTo      string `form:"timeTo"`
	SalaryRange string `form:"salaryRange" binding:"omitempty,oneof=low medium high"`
}

func jobDetails(items []JobDetailRequest) []model.JobDetail {
	if items == nil {
		return nil
	}
	out := make([]model.JobDetail, 0, len(items))
	for _, it := range items {
		out = append(out, model.JobDetail{
			Role:     it.Role,
			Task:     it.Task,
			WorkTime: it.WorkTime,
			Quantity: it.Quantity,
			Salary:   it.Salary,
		})
	}
	return out
}

// parseQueryTime accepts RFC 3339 timestamps or plain dates
func parseQueryTime(field, raw string) (*time.Time, *model.ProblemDetails) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, model.NewValidationError([]model.FieldError{{Field: field, Message: field + " must be a date"}})
}

// Search handles GET /api/events
func (h *EventHandler) Search(c *gin.Context) {
	var q SearchQuery
	if !bindQuery(c, &q) {
		return
	}
	filters := &model.EventSearchFilters{
		Keyword:     q.Keyword,
		Location:    q.Location,
		EventType:   model.EventType(q.EventType),
		SalaryRange: model.SalaryRange(q.SalaryRange),
	}
	if q.Urgent != "" {
		urgent, _ := strconv.ParseBool(q.Urgent)
		filters.Urgent = &urgent
	}
	var p *model.ProblemDetails
	if filters.TimeFrom, p = parseQueryTime("timeFrom", q.TimeFrom); p != nil {
		WriteError(c, p)
		return
	}
	if filters.TimeTo, p = parseQueryTime("timeTo", q.TimeTo); p != nil {
		WriteError(c, p)
		return
	}

	result, err := h.events.Search(c.Request.Context(), filters, pageFromQuery(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteCollection(c, result)
}

// Get handles GET /api/events/:eventId
func (h *EventHandler) Get(c *gin.Context) {
	var viewer *service.Viewer
	if user := middleware.GetUser(c); user != nil {
		viewer = &service.Viewer{UserID: user.ID, Role: user.Role}
	}
	detail, err := h.events.GetDetail(c.Request.Context(), c.Param("eventId"), viewer)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteData(c, http.StatusOK, detail)
}

// Create handles POST /api/events
func (h *EventHandler) Create(c *gin.Context) {
	var req CreateEventRequest
	if !bindJSON(c, &req) {
		return
	}
	event, err := h.events.Create(c.Request.Context(), middleware.GetUserID(c), service.CreateEventRequest{
		Title:          req.Title,
		Description:    req.Description,
		Location:       req.Location,
		EventType:      model.EventType(req.EventType),
		Salary:         req.Salary,
		Benefits:       req.Benefits,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Deadline:       req.Deadline,
		Quantity:       req.Quantity,
		JobDetailItems: jobDetails(req.JobDetailItems),
		Poster:         req.Poster,
		Urgent:         req.Urgent,
		Requirements:   req.Requirements,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteMessage(c, http.StatusCreated, "event created", event)
}

// Update handles PUT /api/events/:eventId
func (h *EventHandler) Update(c *gin.Context) {
	var req UpdateEventRequest
	if !bindJSON(c, &req) {
		return
	}
	update := service.UpdateEventRequest{
		Title:          req.Title,
		Description:    req.Description,
		Location:       req.Location,
		Salary:         req.Salary,
		Benefits:       req.Benefits,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Deadline:       req.Deadline,
		Quantity:       req.Quantity,
		JobDetailItems: jobDetails(req.JobDetailItems),
		Poster:         req.Poster,
		Urgent:         req.Urgent,
		Requirements:   req.Requirements,
	}
	if req.EventType != nil {
		t := model.EventType(*req.EventType)
		update.EventType = &t
	}
	if req.Status != nil {
		st := model.EventStatus(*req.Status)
		update.Status = &st
	}

	event, err := h.events.Update(c.Request.Context(), middleware.GetUserID(c), c.Param("eventId"), update)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteMessage(c, http.StatusOK, "event updated", event)
}

// Delete handles DELETE /api/events/:eventId
func (h *EventHandler) Delete(c *gin.Context) {
	if err := h.events.Delete(c.Request.Context(), middleware.GetUserID(c), c.Param("eventId")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteMessage(c, http.StatusOK, "event deleted", nil)
}

// MyEvents handles GET /api/events/my-events
func (h *EventHandler) MyEvents(c *gin.Context) {
	result, err := h.events.MyEvents(c.Request.Context(), middleware.GetUserID(c),
		model.EventStatus(c.Query("status")), pageFromQuery(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteCollection(c, result)
}

// Dashboard handles GET /api/events/dashboard/stats
func (h *EventHandler) Dashboard(c *gin.Context) {
	stats, err := h.events.Dashboard(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteData(c, http.StatusOK, stats)
}
