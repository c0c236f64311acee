package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gerrardelliot83-create/furrie-api/internal/model"
	"github.com/gerrardelliot83-create/furrie-api/internal/repository"
)

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (
			id, recipient_id, consultation_id, channel, subject, content,
			recipient, status, last_error, sent_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	now := time.Now()
	n.CreatedAt = now
	n.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		n.ID,
		n.RecipientID,
		n.ConsultationID,
		n.Channel,
		n.Subject,
		n.Content,
		n.Recipient,
		n.Status,
		n.LastError,
		n.SentAt,
		n.CreatedAt,
		n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) Update(ctx context.Context, n *model.Notification) error {
	query := `
		UPDATE notifications
		SET status = $1, last_error = $2, sent_at = $3, updated_at = $4
		WHERE id = $5
	`
	n.UpdatedAt = time.Now()

	if _, err := r.db.ExecContext(ctx, query, n.Status, n.LastError, n.SentAt, n.UpdatedAt, n.ID); err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}
	return nil
}
