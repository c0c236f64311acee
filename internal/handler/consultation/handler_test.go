package consultation

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gerrardelliot83-create/furrie-api/internal/middleware"
	"github.com/gerrardelliot83-create/furrie-api/internal/model"
	"github.com/gerrardelliot83-create/furrie-api/internal/repository/memory"
	"github.com/gerrardelliot83-create/furrie-api/internal/scheduling"
	bookingService "github.com/gerrardelliot83-create/furrie-api/internal/service/booking"
	consultationService "github.com/gerrardelliot83-create/furrie-api/internal/service/consultation"
	"github.com/gerrardelliot83-create/furrie-api/pkg/logger"
)

var clinicZone = time.FixedZone("CLINIC", 5*3600+30*60)

type fakeClock struct {
	now time.Time
}

func (f fakeClock) Now() time.Time { return f.now }

type noopNotifier struct{}

func (noopNotifier) Send(context.Context, *model.Notification) error { return nil }

const testInternalSecret = "hush"

type testEnv struct {
	engine   *gin.Engine
	store    *memory.Store
	customer uuid.UUID
}

// The engine mirrors the production route layout: customer routes behind
// auth, internal routes on the open group with their own secret.
func newTestEnv(t *testing.T, secret string) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	clock := fakeClock{time.Date(2026, 9, 1, 8, 0, 0, 0, clinicZone)}
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})

	resolver := scheduling.NewResolver(store.Vets(), store.Consultations(), clinicZone)
	bookingSvc := bookingService.NewService(
		resolver, store.Consultations(), store.Pets(), store.Customers(),
		noopNotifier{}, clock, clinicZone, 499, "INR", log,
	)
	consultationSvc := consultationService.NewService(store.Consultations(), clock, log)

	h := NewHandler(bookingSvc, consultationSvc, secret)

	customerID := uuid.New()
	engine := gin.New()
	api := engine.Group("/api/v1")
	h.RegisterInternalRoutes(api)

	protected := api.Group("")
	protected.Use(func(c *gin.Context) {
		c.Set(middleware.ContextCustomerID, customerID)
		c.Next()
	})
	h.RegisterRoutes(protected)

	return &testEnv{engine: engine, store: store, customer: customerID}
}

func (e *testEnv) seedPending(customerID uuid.UUID) uuid.UUID {
	id := uuid.New()
	e.store.AddConsultation(&model.Consultation{
		ID:         id,
		CustomerID: customerID,
		PetID:      uuid.New(),
		Type:       model.TypeScheduled,
		Status:     model.StatusPending,
	})
	return id
}

func (e *testEnv) patchStatus(path, secret, status string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPatch, path, strings.NewReader(`{"status":"`+status+`"}`))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(headerInternalSecret, secret)
	}
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

func TestStatusRouteNotCustomerReachable(t *testing.T) {
	env := newTestEnv(t, testInternalSecret)

	t.Run("own pending consultation", func(t *testing.T) {
		id := env.seedPending(env.customer)
		rec := env.patchStatus("/api/v1/consultations/"+id.String()+"/status", "", "scheduled")
		assert.Equal(t, http.StatusNotFound, rec.Code)

		c, err := env.store.Consultations().Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, model.StatusPending, c.Status)
	})

	t.Run("another customer's consultation", func(t *testing.T) {
		id := env.seedPending(uuid.New())
		rec := env.patchStatus("/api/v1/consultations/"+id.String()+"/status", "", "closed")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestInternalStatusRoute(t *testing.T) {
	t.Run("rejects missing secret", func(t *testing.T) {
		env := newTestEnv(t, testInternalSecret)
		id := env.seedPending(env.customer)
		rec := env.patchStatus("/api/v1/internal/consultations/"+id.String()+"/status", "", "scheduled")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects wrong secret", func(t *testing.T) {
		env := newTestEnv(t, testInternalSecret)
		id := env.seedPending(env.customer)
		rec := env.patchStatus("/api/v1/internal/consultations/"+id.String()+"/status", "wrong", "scheduled")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unset secret rejects everything", func(t *testing.T) {
		env := newTestEnv(t, "")
		id := env.seedPending(env.customer)
		rec := env.patchStatus("/api/v1/internal/consultations/"+id.String()+"/status", "", "scheduled")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("applies the transition with the right secret", func(t *testing.T) {
		env := newTestEnv(t, testInternalSecret)
		id := env.seedPending(env.customer)
		rec := env.patchStatus("/api/v1/internal/consultations/"+id.String()+"/status", testInternalSecret, "scheduled")
		assert.Equal(t, http.StatusOK, rec.Code)

		c, err := env.store.Consultations().Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, model.StatusScheduled, c.Status)
	})
}
