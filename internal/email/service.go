package email

import (
	"context"
)

type Service interface {
	SendBookingConfirmation(ctx context.Context, to, name, when string) error
	SendReminder(ctx context.Context, to, subject, body string) error
	SendCustom(ctx context.Context, to, subject, content string) error
}
