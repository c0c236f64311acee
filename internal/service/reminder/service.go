package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/gerrardelliot83-create/furrie-api/internal/model"
	"github.com/gerrardelliot83-create/furrie-api/internal/repository"
	"github.com/gerrardelliot83-create/furrie-api/internal/scheduling"
	"github.com/gerrardelliot83-create/furrie-api/internal/service/notification"
	"github.com/gerrardelliot83-create/furrie-api/pkg/logger"
)

// Reminder windows are centered on the nominal lead time with a ±5 minute
// tolerance so a scan running every 5 minutes cannot skip over a
// consultation.
const (
	windowTolerance = 5 * time.Minute
	lead1h          = time.Hour
	lead15m         = 15 * time.Minute
)

// Service is the periodic reminder and housekeeping scan. Each Run is
// idempotent: emitted reminders flip a per-kind flag on the consultation so
// the next scan skips them.
type Service struct {
	consultations repository.ConsultationRepository
	vets          repository.VetRepository
	customers     repository.CustomerRepository
	notifier      notification.Service
	clock         scheduling.Clock
	loc           *time.Location
	logger        *logger.Logger
}

func NewService(
	consultations repository.ConsultationRepository,
	vets repository.VetRepository,
	customers repository.CustomerRepository,
	notifier notification.Service,
	clock scheduling.Clock,
	loc *time.Location,
	logger *logger.Logger,
) *Service {
	return &Service{
		consultations: consultations,
		vets:          vets,
		customers:     customers,
		notifier:      notifier,
		clock:         clock,
		loc:           loc,
		logger:        logger,
	}
}

// Report summarizes one scan. Per-kind counts feed the labelled metrics.
type Report struct {
	RemindersSent    int            `json:"reminders_sent"`
	ReminderFailures int            `json:"reminder_failures"`
	MarkedMissed     int            `json:"marked_missed"`
	SentByKind       map[string]int `json:"sent_by_kind"`
	FailedByKind     map[string]int `json:"failed_by_kind"`
}

// Run executes one reminder scan followed by missed-consultation
// housekeeping. A failing recipient never stops the scan; the failure is
// logged, counted and the consultation's flag is still set so the customer
// is not re-notified on every subsequent scan.
func (s *Service) Run(ctx context.Context) (*Report, error) {
	now := s.clock.Now()
	report := &Report{
		SentByKind:   make(map[string]int),
		FailedByKind: make(map[string]int),
	}

	for _, kind := range []repository.ReminderKind{repository.Reminder1h, repository.Reminder15m} {
		if err := s.scanKind(ctx, kind, now, report); err != nil {
			return report, err
		}
	}

	if err := s.closeMissed(ctx, now, report); err != nil {
		return report, err
	}
	return report, nil
}

func (s *Service) scanKind(ctx context.Context, kind repository.ReminderKind, now time.Time, report *Report) error {
	lead := lead1h
	if kind == repository.Reminder15m {
		lead = lead15m
	}
	from := now.Add(lead - windowTolerance)
	to := now.Add(lead + windowTolerance)

	due, err := s.consultations.ListDueForReminder(ctx, kind, from, to)
	if err != nil {
		return fmt.Errorf("failed to list consultations due for %s reminder: %w", kind, err)
	}

	for _, c := range due {
		sent, failed := s.remind(ctx, kind, c)
		report.RemindersSent += sent
		report.ReminderFailures += failed
		report.SentByKind[string(kind)] += sent
		report.FailedByKind[string(kind)] += failed

		// Flag regardless of delivery outcome: a permanently broken
		// recipient must not be retried on every scan.
		if err := s.consultations.SetReminderSent(ctx, c.ID, kind); err != nil {
			s.logger.Error(err, "failed to flag reminder as sent",
				"consultation_id", c.ID.String(), "kind", string(kind))
		}
	}
	return nil
}

// remind emits the reminder to the customer and, when one is assigned, the
// vet. Returns how many deliveries succeeded and failed.
func (s *Service) remind(ctx context.Context, kind repository.ReminderKind, c *model.Consultation) (sent, failed int) {
	when := c.ScheduledAt.In(s.loc).Format("15:04")
	subject := fmt.Sprintf("Reminder: consultation %s at %s", c.ConsultationNumber, when)
	lead := "1 hour"
	if kind == repository.Reminder15m {
		lead = "15 minutes"
	}
	body := fmt.Sprintf("Your video consultation %s starts in %s, at %s.", c.ConsultationNumber, lead, when)

	customer, err := s.customers.Get(ctx, c.CustomerID)
	if err != nil {
		s.logger.Error(err, "failed to load customer for reminder",
			"consultation_id", c.ID.String(), "customer_id", c.CustomerID.String())
		failed++
	} else {
		n := &model.Notification{
			RecipientID:    customer.ID,
			ConsultationID: &c.ID,
			Channel:        model.ChannelEmail,
			Recipient:      customer.Email,
			Subject:        subject,
			Content:        body,
		}
		if err := s.notifier.Send(ctx, n); err != nil {
			s.logger.Error(err, "failed to send customer reminder",
				"consultation_id", c.ID.String(), "kind", string(kind))
			failed++
		} else {
			sent++
		}
	}

	if c.VetID == nil {
		return sent, failed
	}
	vet, err := s.vets.Get(ctx, *c.VetID)
	if err != nil {
		s.logger.Error(err, "failed to load vet for reminder",
			"consultation_id", c.ID.String(), "vet_id", c.VetID.String())
		return sent, failed + 1
	}
	n := &model.Notification{
		RecipientID:    vet.ID,
		ConsultationID: &c.ID,
		Channel:        model.ChannelInApp,
		Subject:        subject,
		Content:        fmt.Sprintf("Consultation %s starts in %s.", c.ConsultationNumber, lead),
	}
	if err := s.notifier.Send(ctx, n); err != nil {
		s.logger.Error(err, "failed to send vet reminder",
			"consultation_id", c.ID.String(), "kind", string(kind))
		return sent, failed + 1
	}
	return sent + 1, failed
}

// closeMissed sweeps scheduled consultations that never went active past the
// grace period and closes them with the missed outcome.
func (s *Service) closeMissed(ctx context.Context, now time.Time, report *Report) error {
	overdue, err := s.consultations.ListOverdue(ctx, now.Add(-model.MissedAfter))
	if err != nil {
		return fmt.Errorf("failed to list overdue consultations: %w", err)
	}

	for _, c := range overdue {
		if !c.ShouldMarkAsMissed(now) {
			continue
		}
		outcome := model.OutcomeMissed
		c.Status = model.StatusClosed
		c.Outcome = &outcome
		endedAt := now
		c.EndedAt = &endedAt
		if err := s.consultations.Update(ctx, c); err != nil {
			s.logger.Error(err, "failed to close missed consultation",
				"consultation_id", c.ID.String())
			continue
		}
		report.MarkedMissed++
		s.logger.Info("consultation marked missed",
			"consultation_id", c.ID.String(),
			"consultation_number", c.ConsultationNumber)
	}
	return nil
}
