package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gerrardelliot83-create/furrie-api/internal/config"
	"github.com/gerrardelliot83-create/furrie-api/internal/email"
	"github.com/gerrardelliot83-create/furrie-api/internal/handler"
	consultationHandler "github.com/gerrardelliot83-create/furrie-api/internal/handler/consultation"
	reminderHandler "github.com/gerrardelliot83-create/furrie-api/internal/handler/reminder"
	slotHandler "github.com/gerrardelliot83-create/furrie-api/internal/handler/slot"
	vetHandler "github.com/gerrardelliot83-create/furrie-api/internal/handler/vet"
	"github.com/gerrardelliot83-create/furrie-api/internal/middleware"
	"github.com/gerrardelliot83-create/furrie-api/internal/repository/postgres"
	"github.com/gerrardelliot83-create/furrie-api/internal/router"
	"github.com/gerrardelliot83-create/furrie-api/internal/scheduling"
	availabilityService "github.com/gerrardelliot83-create/furrie-api/internal/service/availability"
	bookingService "github.com/gerrardelliot83-create/furrie-api/internal/service/booking"
	consultationService "github.com/gerrardelliot83-create/furrie-api/internal/service/consultation"
	notificationService "github.com/gerrardelliot83-create/furrie-api/internal/service/notification"
	reminderService "github.com/gerrardelliot83-create/furrie-api/internal/service/reminder"
	"github.com/gerrardelliot83-create/furrie-api/pkg/logger"
	redisbroker "github.com/gerrardelliot83-create/furrie-api/pkg/messaging/redis"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	loc, err := cfg.Booking.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid clinic offset")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redisbroker.NewRedisBroker(redisbroker.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	// Repositories
	vetRepo := postgres.NewVetRepository(db)
	consultationRepo := postgres.NewConsultationRepository(db)
	petRepo := postgres.NewPetRepository(db)
	customerRepo := postgres.NewCustomerRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)

	// Scheduling core
	clock := scheduling.SystemClock{}
	aggregator := scheduling.NewAggregator(vetRepo, consultationRepo, clock, loc, appLogger)
	resolver := scheduling.NewResolver(vetRepo, consultationRepo, loc)

	// Services
	emailSvc := email.NewSMTPService(cfg.SMTP)
	notificationSvc := notificationService.NewService(notificationRepo, emailSvc, broker, appLogger)
	bookingSvc := bookingService.NewService(
		resolver, consultationRepo, petRepo, customerRepo,
		notificationSvc, clock, loc,
		cfg.Booking.ConsultationFee, cfg.Booking.FeeCurrency,
		appLogger,
	)
	consultationSvc := consultationService.NewService(consultationRepo, clock, appLogger)
	availabilitySvc := availabilityService.NewService(vetRepo, appLogger)
	reminderSvc := reminderService.NewService(
		consultationRepo, vetRepo, customerRepo,
		notificationSvc, clock, loc, appLogger,
	)

	// HTTP surface
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)
	h := handler.NewHandler(db)
	slotH := slotHandler.NewHandler(aggregator)
	consultationH := consultationHandler.NewHandler(bookingSvc, consultationSvc, cfg.Server.InternalSecret)
	vetH := vetHandler.NewHandler(availabilitySvc)
	reminderH := reminderHandler.NewHandler(reminderSvc, cfg.Reminder.CronSecret)

	r := router.NewRouter(
		authMiddleware,
		slotH,
		consultationH,
		vetH,
		reminderH,
		h,
		router.Config{
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimitRPS:     cfg.RateLimit.RequestsPerSecond,
			RateLimitBurst:   cfg.RateLimit.Burst,
			CORSConfig:       middleware.DefaultCORSConfig(),
			MetricsPrefix:    cfg.Monitoring.MetricsPrefix,
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Info("starting API server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal(err, "server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error(err, "forced shutdown")
	}
}
