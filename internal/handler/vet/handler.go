package vet

import (
	"github.com/gin-gonic/gin"

	"github.com/gerrardelliot83-create/furrie-api/internal/middleware"
	"github.com/gerrardelliot83-create/furrie-api/internal/model"
	"github.com/gerrardelliot83-create/furrie-api/internal/service/availability"
	"github.com/gerrardelliot83-create/furrie-api/pkg/errors"
	"github.com/gerrardelliot83-create/furrie-api/pkg/httputil"
)

// Handler exposes the vet-facing schedule editor.
type Handler struct {
	availabilitySvc *availability.Service
}

func NewHandler(availabilitySvc *availability.Service) *Handler {
	return &Handler{availabilitySvc: availabilitySvc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	vets := rg.Group("/vets")
	{
		vets.GET("/availability", h.GetAvailability)
		vets.PUT("/availability", h.UpdateAvailability)
	}
}

func (h *Handler) GetAvailability(c *gin.Context) {
	vetID, ok := middleware.VetID(c)
	if !ok {
		httputil.RespondWithError(c, errors.New(errors.CodeUnauthorized, "vet authentication required"))
		return
	}

	schedule, err := h.availabilitySvc.GetSchedule(c.Request.Context(), vetID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"weekly_schedule": schedule})
}

type updateAvailabilityRequest struct {
	WeeklySchedule model.WeeklySchedule `json:"weekly_schedule" binding:"required"`
}

func (h *Handler) UpdateAvailability(c *gin.Context) {
	vetID, ok := middleware.VetID(c)
	if !ok {
		httputil.RespondWithError(c, errors.New(errors.CodeUnauthorized, "vet authentication required"))
		return
	}

	var req updateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.New(errors.CodeValidation, "weekly_schedule is required"))
		return
	}

	if err := h.availabilitySvc.UpdateSchedule(c.Request.Context(), vetID, req.WeeklySchedule); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"weekly_schedule": req.WeeklySchedule})
}
