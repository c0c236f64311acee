package reminder

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/gerrardelliot83-create/furrie-api/internal/service/reminder"
	"github.com/gerrardelliot83-create/furrie-api/pkg/errors"
	"github.com/gerrardelliot83-create/furrie-api/pkg/httputil"
)

const headerCronSecret = "X-Cron-Secret"

// Handler exposes the reminder scan to an external cron trigger. The
// in-process worker runs the same scan; this endpoint exists for deployments
// that prefer an external scheduler.
type Handler struct {
	reminderSvc *reminder.Service
	cronSecret  string
}

func NewHandler(reminderSvc *reminder.Service, cronSecret string) *Handler {
	return &Handler{reminderSvc: reminderSvc, cronSecret: cronSecret}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/internal/reminders/run", h.Run)
}

func (h *Handler) Run(c *gin.Context) {
	secret := c.GetHeader(headerCronSecret)
	if h.cronSecret == "" ||
		subtle.ConstantTimeCompare([]byte(secret), []byte(h.cronSecret)) != 1 {
		httputil.RespondWithError(c, errors.New(errors.CodeUnauthorized, "invalid cron secret"))
		return
	}

	report, err := h.reminderSvc.Run(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, report)
}
