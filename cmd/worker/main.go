package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"github.com/gerrardelliot83-create/furrie-api/internal/config"
	"github.com/gerrardelliot83-create/furrie-api/internal/email"
	"github.com/gerrardelliot83-create/furrie-api/internal/repository/postgres"
	"github.com/gerrardelliot83-create/furrie-api/internal/scheduling"
	notificationService "github.com/gerrardelliot83-create/furrie-api/internal/service/notification"
	reminderService "github.com/gerrardelliot83-create/furrie-api/internal/service/reminder"
	"github.com/gerrardelliot83-create/furrie-api/pkg/logger"
	redisbroker "github.com/gerrardelliot83-create/furrie-api/pkg/messaging/redis"
	"github.com/gerrardelliot83-create/furrie-api/pkg/metrics"
	"github.com/gerrardelliot83-create/furrie-api/pkg/worker"
)

// WorkerEnv carries worker-only deployment knobs. They override nothing in
// the shared config file; the file stays the single source for the rest.
type WorkerEnv struct {
	HealthPort   string        `envconfig:"WORKER_HEALTH_PORT" default:"8081"`
	ScanInterval time.Duration `envconfig:"WORKER_SCAN_INTERVAL" default:"0s"`
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	var env WorkerEnv
	if err := envconfig.Process("", &env); err != nil {
		log.Fatal().Err(err).Msg("failed to read worker environment")
	}

	interval := cfg.Reminder.Interval
	if env.ScanInterval > 0 {
		interval = env.ScanInterval
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

	vetRepo := postgres.NewVetRepository(db)
	consultationRepo := postgres.NewConsultationRepository(db)
	customerRepo := postgres.NewCustomerRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)

	emailSvc := email.NewSMTPService(cfg.SMTP)
	notificationSvc := notificationService.NewService(notificationRepo, emailSvc, broker, appLogger)
	reminderSvc := reminderService.NewService(
		consultationRepo, vetRepo, customerRepo,
		notificationSvc, scheduling.SystemClock{}, loc, appLogger,
	)

	processor := worker.NewReminderProcessor(
		reminderSvc,
		worker.ReminderProcessorConfig{Interval: interval},
		appLogger,
		metrics.NewMetrics("furrie", "worker"),
	)

	setupHealthCheck(env.HealthPort, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Shutting down...")
		cancel()
	}()

	processor.Start(ctx)
}

func setupHealthCheck(port string, appLogger *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(":"+port, mux); err != nil {
			appLogger.Error(err, "Health check server failed")
			os.Exit(1)
		}
	}()
}
