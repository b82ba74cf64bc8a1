package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventup/api/internal/middleware"
	"github.com/eventup/api/internal/model"
	"github.com/eventup/api/internal/service"
)

// ProfileService is the part of the profile service the handler uses
type ProfileService interface {
	GetMe(ctx context.Context, userID string) (*service.Me, error)
	UpdateMe(ctx context.Context, userID string, req service.UpdateMeRequest) (*service.Me, error)
	GetCV(ctx context.Context, userID string) (*model.CTVProfile, error)
	UpsertCV(ctx context.Context, userID string, in service.CVInput) (*model.CTVProfile, error)
	GetBTCProfile(ctx context.Context, userID string) (*model.BTCProfile, error)
	UpsertBTCProfile(ctx context.Context, userID string, in service.BTCProfileInput) (*model.BTCProfile, error)
	GetPublicBTC(ctx context.Context, userID string) (*service.PublicBTCProfile, error)
	GetPublicCTV(ctx context.Context, userID string) (*service.PublicCTVProfile, error)
}

// ProfileHandler handles /api/users endpoints
type ProfileHandler struct {
	profiles ProfileService
	logger   *zap.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles ProfileService, logger *zap.Logger) *ProfileHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileHandler{profiles: profiles, logger: logger}
}

// CVRequest is the collaborator profile body
type CVRequest struct {
	FullName    *string    `json:"fullName" binding:"omitempty,min=1,max=100"`
	Avatar      *string    `json:"avatar" binding:"omitempty,url"`
	Gender      *string    `json:"gender" binding:"omitempty,gender"`
	Address     *string    `json:"address" binding:"omitempty,max=255"`
	DateOfBirth *time.Time `json:"dateOfBirth"`
	Skills      []string   `json:"skills" binding:"omitempty,max=50,dive,max=100"`
	Experiences []string   `json:"experiences" binding:"omitempty,max=50,dive,max=500"`
}

func (r *CVRequest) input() service.CVInput {
	in := service.CVInput{
		FullName:    r.FullName,
		Avatar:      r.Avatar,
		Address:     r.Address,
		DateOfBirth: r.DateOfBirth,
		Skills:      r.Skills,
		Experiences: r.Experiences,
	}
	if r.Gender != nil {
		g := model.Gender(*r.Gender)
		in.Gender = &g
	}
	return in
}

// BTCProfileRequest is the organizer profile body
type BTCProfileRequest struct {
	AgencyName  *string `json:"agencyName" binding:"omitempty,min=1,max=200"`
	Logo        *string `json:"logo" binding:"omitempty,url"`
	Address     *string `json:"address" binding:"omitempty,max=255"`
	Website     *string `json:"website" binding:"omitempty,url"`
	Fanpage     *string `json:"fanpage" binding:"omitempty,url"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
}

func (r *BTCProfileRequest) input() service.BTCProfileInput {
	return service.BTCProfileInput{
		AgencyName:  r.AgencyName,
		Logo:        r.Logo,
		Address:     r.Address,
		Website:     r.Website,
		Fanpage:     r.Fanpage,
		Description: r.Description,
	}
}

// UpdateMeRequest carries the phone plus the fields of the caller's role profile
type UpdateMeRequest struct {
	Phone       *string    `json:"phone" binding:"omitempty,max=20"`
	Address     *string    `json:"address" binding:"omitempty,max=255"`
	FullName    *string    `json:"fullName" binding:"omitempty,min=1,max=100"`
	Avatar      *string    `json:"avatar" binding:"omitempty,url"`
	Gender      *string    `json:"gender" binding:"omitempty,gender"`
	DateOfBirth *time.Time `json:"dateOfBirth"`
	Skills      []string   `json:"skills" binding:"omitempty,max=50,dive,max=100"`
	Experiences []string   `json:"experiences" binding:"omitempty,max=50,dive,max=500"`
	AgencyName  *string    `json:"agencyName" binding:"omitempty,min=1,max=200"`
	Logo        *string    `json:"logo" binding:"omitempty,url"`
	Website     *string    `json:"website" binding:"omitempty,url"`
	Fanpage     *string    `json:"fanpage" binding:"omitempty,url"`
	Description *string    `json:"description" binding:"omitempty,max=2000"`
}

// GetMe handles GET /api/users/me
func (h *ProfileHandler) GetMe(c *gin.Context) {
	me, err := h.profiles.GetMe(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteData(c, http.StatusOK, me)
}

// UpdateMe handles PUT /api/users/me
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	var req UpdateMeRequest
	if !bindJSON(c, &req) {
		return
	}
	update := service.UpdateMeRequest{Phone: req.Phone}
	switch middleware.GetUser(c).Role {
	case model.UserRoleCTV:
		cv := (&CVRequest{
			FullName:    req.FullName,
			Avatar:      req.Avatar,
			Gender:      req.Gender,
			Address:     req.Address,
			DateOfBirth: req.DateOfBirth,
			Skills:      req.Skills,
			Experiences: req.Experiences,
		}).input()
		update.CV = &cv
	case model.UserRoleBTC:
		update.BTC = &service.BTCProfileInput{
			AgencyName:  req.AgencyName,
			Logo:        req.Logo,
			Address:     req.Address,
			Website:     req.Website,
			Fanpage:     req.Fanpage,
			Description: req.Description,
		}
	}
	me, err := h.profiles.UpdateMe(c.Request.Context(), middleware.GetUserID(c), update)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteMessage(c, http.StatusOK, "profile updated", me)
}

// GetCV handles GET /api/users/ctv/cv
func (h *ProfileHandler) GetCV(c *gin.Context) {
	cv, err := h.profiles.GetCV(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteData(c, http.StatusOK, cv)
}

// UpsertCV handles PUT /api/users/ctv/cv
func (h *ProfileHandler) UpsertCV(c *gin.Context) {
	var req CVRequest
	if !bindJSON(c, &req) {
		return
	}
	cv, err := h.profiles.UpsertCV(c.Request.Context(), middleware.GetUserID(c), req.input())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteMessage(c, http.StatusOK, "CV saved", cv)
}

// GetBTCProfile handles GET /api/users/btc/profile
func (h *ProfileHandler) GetBTCProfile(c *gin.Context) {
	profile, err := h.profiles.GetBTCProfile(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteData(c, http.StatusOK, profile)
}

// UpsertBTCProfile handles PUT /api/users/btc/profile
func (h *ProfileHandler) UpsertBTCProfile(c *gin.Context) {
	var req BTCProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	profile, err := h.profiles.UpsertBTCProfile(c.Request.Context(), middleware.GetUserID(c), req.input())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteMessage(c, http.StatusOK, "profile saved", profile)
}

// PublicBTC handles GET /api/users/btc/:id/public
func (h *ProfileHandler) PublicBTC(c *gin.Context) {
	profile, err := h.profiles.GetPublicBTC(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteData(c, http.StatusOK, profile)
}

// PublicCTV handles GET /api/users/ctv/:id/public
func (h *ProfileHandler) PublicCTV(c *gin.Context) {
	profile, err := h.profiles.GetPublicCTV(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteData(c, http.StatusOK, profile)
}
