package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gerrardelliot83-create/furrie-api/internal/email"
	"github.com/gerrardelliot83-create/furrie-api/internal/model"
	"github.com/gerrardelliot83-create/furrie-api/internal/repository"
	"github.com/gerrardelliot83-create/furrie-api/pkg/logger"
	"github.com/gerrardelliot83-create/furrie-api/pkg/messaging"
)

// Service delivers best-effort notifications. Callers decide whether to
// fire-and-forget (booking side effects) or to inspect the error (reminder
// accounting); either way a failure here must never affect the state change
// that produced the notification.
type Service interface {
	Send(ctx context.Context, notification *model.Notification) error
}

type service struct {
	repo     repository.NotificationRepository
	emailSvc email.Service
	broker   messaging.Broker
	logger   *logger.Logger
}

func NewService(repo repository.NotificationRepository, emailSvc email.Service, broker messaging.Broker, logger *logger.Logger) Service {
	return &service{
		repo:     repo,
		emailSvc: emailSvc,
		broker:   broker,
		logger:   logger,
	}
}

func (s *service) Send(ctx context.Context, notification *model.Notification) error {
	if err := s.validate(notification); err != nil {
		return fmt.Errorf("invalid notification: %w", err)
	}

	notification.ID = uuid.New()
	notification.Status = model.NotificationStatusPending

	if err := s.repo.Create(ctx, notification); err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}

	var err error
	switch notification.Channel {
	case model.ChannelEmail:
		err = s.emailSvc.SendCustom(ctx, notification.Recipient, notification.Subject, notification.Content)
	case model.ChannelInApp:
		err = s.publishInApp(ctx, notification)
	default:
		err = fmt.Errorf("unsupported channel: %s", notification.Channel)
	}

	if err != nil {
		notification.Status = model.NotificationStatusFailed
		notification.LastError = err.Error()
		if updateErr := s.repo.Update(ctx, notification); updateErr != nil {
			s.logger.Error(updateErr, "failed to record notification failure",
				"notification_id", notification.ID.String())
		}
		return err
	}

	now := time.Now()
	notification.Status = model.NotificationStatusSent
	notification.SentAt = &now
	if err := s.repo.Update(ctx, notification); err != nil {
		s.logger.Error(err, "failed to mark notification sent",
			"notification_id", notification.ID.String())
	}
	return nil
}

func (s *service) publishInApp(ctx context.Context, notification *model.Notification) error {
	event := &model.NotificationEvent{
		ID:             uuid.New(),
		NotificationID: notification.ID,
		RecipientID:    notification.RecipientID,
		ConsultationID: notification.ConsultationID,
		Type:           "in_app_notification",
		Content:        notification.Content,
		CreatedAt:      time.Now(),
	}
	return s.broker.Publish(ctx, "notifications", event)
}

func (s *service) validate(notification *model.Notification) error {
	if notification.RecipientID == uuid.Nil {
		return fmt.Errorf("recipient ID is required")
	}
	if notification.Channel == "" {
		return fmt.Errorf("channel is required")
	}
	if notification.Content == "" {
		return fmt.Errorf("content is required")
	}
	if notification.Channel == model.ChannelEmail && notification.Recipient == "" {
		return fmt.Errorf("recipient address is required for email")
	}
	return nil
}
