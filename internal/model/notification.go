package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

const (
	ChannelEmail = "email"
	ChannelInApp = "in_app"
)

// Notification is a best-effort side effect of a booking or reminder.
// Delivery failures never roll back the state change that produced it.
type Notification struct {
	ID             uuid.UUID          `db:"id" json:"id"`
	RecipientID    uuid.UUID          `db:"recipient_id" json:"recipient_id"`
	ConsultationID *uuid.UUID         `db:"consultation_id" json:"consultation_id,omitempty"`
	Channel        string             `db:"channel" json:"channel"`
	Subject        string             `db:"subject" json:"subject"`
	Content        string             `db:"content" json:"content"`
	Recipient      string             `db:"recipient" json:"recipient"`
	Status         NotificationStatus `db:"status" json:"status"`
	LastError      string             `db:"last_error" json:"last_error,omitempty"`
	SentAt         *time.Time         `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt      time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `db:"updated_at" json:"updated_at"`
}

// NotificationEvent is the payload published to the in-app channel.
type NotificationEvent struct {
	ID             uuid.UUID  `json:"id"`
	NotificationID uuid.UUID  `json:"notification_id"`
	RecipientID    uuid.UUID  `json:"recipient_id"`
	ConsultationID *uuid.UUID `json:"consultation_id,omitempty"`
	Type           string     `json:"type"`
	Content        string     `json:"content"`
	CreatedAt      time.Time  `json:"created_at"`
}
