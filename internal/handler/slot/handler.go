package slot

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gerrardelliot83-create/furrie-api/internal/scheduling"
	"github.com/gerrardelliot83-create/furrie-api/pkg/errors"
	"github.com/gerrardelliot83-create/furrie-api/pkg/httputil"
)

// Handler exposes the anonymized bookable-slot listing.
type Handler struct {
	aggregator *scheduling.Aggregator
}

func NewHandler(aggregator *scheduling.Aggregator) *Handler {
	return &Handler{aggregator: aggregator}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/slots", h.ListSlots)
}

// ListSlots returns bookable slots grouped by day. Optional from/to query
// parameters (RFC 3339) narrow the window; it is always clamped to the
// lead-time and horizon policy.
func (h *Handler) ListSlots(c *gin.Context) {
	from, to := h.aggregator.DefaultRange()

	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httputil.RespondWithError(c, errors.New(errors.CodeValidation, "invalid 'from' timestamp"))
			return
		}
		from = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httputil.RespondWithError(c, errors.New(errors.CodeValidation, "invalid 'to' timestamp"))
			return
		}
		to = t
	}

	days, err := h.aggregator.BookableSlots(c.Request.Context(), from, to)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"days": days})
}
