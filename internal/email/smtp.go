package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/gerrardelliot83-create/furrie-api/internal/config"
)

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPService builds the gomail-backed sender.
func NewSMTPService(cfg config.SMTPConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendBookingConfirmation(ctx context.Context, to, name, when string) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nYour video consultation is confirmed for %s.\nYou can join from 5 minutes before the scheduled time.\n\nThe furrie team",
		name, when,
	)
	return s.SendCustom(ctx, to, "Your consultation is confirmed", body)
}

func (s *smtpService) SendReminder(ctx context.Context, to, subject, body string) error {
	return s.SendCustom(ctx, to, subject, body)
}

func (s *smtpService) SendCustom(ctx context.Context, to, subject, content string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", content)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
