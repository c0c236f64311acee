package worker

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gerrardelliot83-create/furrie-api/internal/service/reminder"
	"github.com/gerrardelliot83-create/furrie-api/pkg/logger"
	"github.com/gerrardelliot83-create/furrie-api/pkg/metrics"
)

type ReminderProcessorConfig struct {
	Interval time.Duration
}

// ReminderProcessor drives the periodic reminder scan. Each tick runs one
// scan; the scan itself is idempotent so overlapping deployments of the
// worker are harmless.
type ReminderProcessor struct {
	svc     *reminder.Service
	config  ReminderProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewReminderProcessor(
	svc *reminder.Service,
	config ReminderProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *ReminderProcessor {
	if config.Interval <= 0 {
		panic("Interval must be greater than 0")
	}
	return &ReminderProcessor{
		svc:     svc,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

func (p *ReminderProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	p.logger.Info("Starting reminder processor", "interval", p.config.Interval.String())

	// Run once on startup so a restart never extends the scan gap beyond
	// one interval.
	p.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Shutting down reminder processor")
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

func (p *ReminderProcessor) runOnce(ctx context.Context) {
	timer := prometheus.NewTimer(p.metrics.ReminderScanLatency)
	defer timer.ObserveDuration()

	report, err := p.svc.Run(ctx)
	if err != nil {
		p.logger.Error(err, "Reminder scan failed")
		return
	}

	for kind, n := range report.SentByKind {
		p.metrics.RemindersSent.WithLabelValues(kind).Add(float64(n))
	}
	for kind, n := range report.FailedByKind {
		p.metrics.ReminderFailures.WithLabelValues(kind).Add(float64(n))
	}
	p.metrics.ConsultationsMissed.Add(float64(report.MarkedMissed))
	if report.RemindersSent > 0 || report.MarkedMissed > 0 || report.ReminderFailures > 0 {
		p.logger.Info("Reminder scan complete",
			"sent", report.RemindersSent,
			"failed", report.ReminderFailures,
			"marked_missed", report.MarkedMissed)
	}
}
