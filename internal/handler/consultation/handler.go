package consultation

import (
	"crypto/subtle"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gerrardelliot83-create/furrie-api/internal/middleware"
	"github.com/gerrardelliot83-create/furrie-api/internal/model"
	"github.com/gerrardelliot83-create/furrie-api/internal/service/booking"
	"github.com/gerrardelliot83-create/furrie-api/internal/service/consultation"
	"github.com/gerrardelliot83-create/furrie-api/pkg/errors"
	"github.com/gerrardelliot83-create/furrie-api/pkg/httputil"
)

const headerInternalSecret = "X-Internal-Secret"

// Handler exposes booking and lifecycle endpoints for customers, plus a
// secret-gated status transition for internal callers.
type Handler struct {
	bookingSvc      *booking.Service
	consultationSvc *consultation.Service
	internalSecret  string
}

func NewHandler(bookingSvc *booking.Service, consultationSvc *consultation.Service, internalSecret string) *Handler {
	return &Handler{
		bookingSvc:      bookingSvc,
		consultationSvc: consultationSvc,
		internalSecret:  internalSecret,
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	consultations := rg.Group("/consultations")
	{
		consultations.POST("", h.Create)
		consultations.GET("", h.List)
		consultations.GET("/:id", h.Get)
		consultations.POST("/:id/cancel", h.Cancel)
		consultations.POST("/:id/join", h.Join)
		consultations.POST("/:id/match", h.Match)
	}
}

// RegisterInternalRoutes registers routes for trusted service callers such
// as the payment webhook. They never sit behind customer auth: arbitrary
// transitions (a pending row confirming itself without payment, closing
// another customer's booking) must stay out of customer reach.
func (h *Handler) RegisterInternalRoutes(rg *gin.RouterGroup) {
	rg.PATCH("/internal/consultations/:id/status", h.UpdateStatus)
}

type createRequest struct {
	PetID             string   `json:"pet_id"`
	ScheduledAt       string   `json:"scheduled_at"`
	Type              string   `json:"type"`
	ConcernText       string   `json:"concern_text"`
	SymptomCategories []string `json:"symptom_categories"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Create books a consultation. Field-level validation uses explicit codes so
// mobile clients can render precise messages without parsing text.
func (h *Handler) Create(c *gin.Context) {
	customerID, ok := middleware.CustomerID(c)
	if !ok {
		httputil.RespondWithError(c, errors.New(errors.CodeUnauthorized, "authentication required"))
		return
	}

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.New(errors.CodeValidation, "invalid request body"))
		return
	}

	if req.PetID == "" {
		httputil.RespondWithError(c, errors.New(errors.CodeMissingPetID, "pet_id is required"))
		return
	}
	petID, err := uuid.Parse(req.PetID)
	if err != nil {
		httputil.RespondWithError(c, errors.New(errors.CodeValidation, "invalid pet_id"))
		return
	}

	svcReq := booking.Request{
		CustomerID:        customerID,
		PetID:             petID,
		ConcernText:       req.ConcernText,
		SymptomCategories: req.SymptomCategories,
	}

	if req.Type == string(model.TypeDirectConnect) {
		result, err := h.bookingSvc.BookDirect(c.Request.Context(), svcReq)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		httputil.RespondWithCreated(c, result)
		return
	}

	if req.ScheduledAt == "" {
		httputil.RespondWithError(c, errors.New(errors.CodeMissingScheduledAt, "scheduled_at is required"))
		return
	}
	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		httputil.RespondWithError(c, errors.New(errors.CodeInvalidScheduledAt, "scheduled_at must be an RFC 3339 timestamp"))
		return
	}
	svcReq.ScheduledAt = scheduledAt.UTC()

	result, err := h.bookingSvc.Book(c.Request.Context(), svcReq)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, result)
}

func (h *Handler) List(c *gin.Context) {
	customerID, ok := middleware.CustomerID(c)
	if !ok {
		httputil.RespondWithError(c, errors.New(errors.CodeUnauthorized, "authentication required"))
		return
	}

	consultations, err := h.consultationSvc.ListByCustomer(c.Request.Context(), customerID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"consultations": consultations})
}

func (h *Handler) Get(c *gin.Context) {
	customerID, id, err := h.identify(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	result, err := h.consultationSvc.Get(c.Request.Context(), customerID, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, result)
}

func (h *Handler) Cancel(c *gin.Context) {
	customerID, id, err := h.identify(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	result, err := h.consultationSvc.Cancel(c.Request.Context(), customerID, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, result)
}

func (h *Handler) Join(c *gin.Context) {
	customerID, id, err := h.identify(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	result, err := h.consultationSvc.Join(c.Request.Context(), customerID, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, result)
}

// UpdateStatus applies a lifecycle transition. The caller authenticates
// with the shared internal secret; an unset secret rejects everything.
func (h *Handler) UpdateStatus(c *gin.Context) {
	secret := c.GetHeader(headerInternalSecret)
	if h.internalSecret == "" ||
		subtle.ConstantTimeCompare([]byte(secret), []byte(h.internalSecret)) != 1 {
		httputil.RespondWithError(c, errors.New(errors.CodeUnauthorized, "invalid internal secret"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.New(errors.CodeValidation, "invalid consultation id"))
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.New(errors.CodeValidation, "status is required"))
		return
	}

	result, err := h.consultationSvc.UpdateStatus(c.Request.Context(), id, model.ConsultationStatus(req.Status))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, result)
}

// Match attaches an on-shift vet to a direct-connect consultation.
func (h *Handler) Match(c *gin.Context) {
	customerID, id, err := h.identify(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if _, err := h.consultationSvc.Get(c.Request.Context(), customerID, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	result, err := h.bookingSvc.MatchDirect(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, result)
}

func (h *Handler) identify(c *gin.Context) (uuid.UUID, uuid.UUID, error) {
	customerID, ok := middleware.CustomerID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, errors.New(errors.CodeUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, errors.New(errors.CodeValidation, "invalid consultation id")
	}
	return customerID, id, nil
}
