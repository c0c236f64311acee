package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gerrardelliot83-create/furrie-api/internal/handler"
	"github.com/gerrardelliot83-create/furrie-api/internal/middleware"
)

// Handler registers a resource's routes on a group.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// ConsultationHandler additionally carries routes for trusted internal
// callers, registered outside the customer-authenticated group.
type ConsultationHandler interface {
	Handler
	RegisterInternalRoutes(*gin.RouterGroup)
}

type Router struct {
	engine        *gin.Engine
	auth          *middleware.AuthMiddleware
	slotH         Handler
	consultationH ConsultationHandler
	vetH          Handler
	reminderH     Handler
	h             *handler.Handler
	metrics       *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

type Config struct {
	RateLimitEnabled bool
	RateLimitRPS     float64
	RateLimitBurst   int
	CORSConfig       middleware.CORSConfig
	MetricsPrefix    string
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	slotH Handler,
	consultationH ConsultationHandler,
	vetH Handler,
	reminderH Handler,
	h *handler.Handler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()

	r := &Router{
		engine:        engine,
		auth:          auth,
		slotH:         slotH,
		consultationH: consultationH,
		vetH:          vetH,
		reminderH:     reminderH,
		h:             h,
		metrics:       initRouterMetrics(config.MetricsPrefix),
	}

	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		r.metricsMiddleware(),
		middleware.Timeout(middleware.DefaultTimeoutConfig()),
	)

	engine.Use(middleware.CORS(config.CORSConfig))

	if config.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RPS:   config.RateLimitRPS,
			Burst: config.RateLimitBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.setupHealthCheck(api)

	// Internal surfaces authenticate with their own shared secrets.
	r.reminderH.RegisterRoutes(api)
	r.consultationH.RegisterInternalRoutes(api)

	// Slot listing is public: callers browse availability before signup.
	r.slotH.RegisterRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.consultationH.RegisterRoutes(protected)

	vets := protected.Group("")
	vets.Use(r.auth.RequireRole(middleware.RoleVet))
	r.vetH.RegisterRoutes(vets)
}

func (r *Router) setupHealthCheck(rg *gin.RouterGroup) {
	health := rg.Group("/health")
	{
		health.GET("/live", r.h.LivenessCheck)
		health.GET("/ready", r.h.ReadinessCheck)
		health.GET("/metrics", r.h.MetricsHandler)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string) *routerMetrics {
	return &routerMetrics{
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "type"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= 400 {
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "http").Inc()
		}
	}
}
