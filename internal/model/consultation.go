package model

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type ConsultationStatus string

const (
	StatusPending   ConsultationStatus = "pending"
	StatusScheduled ConsultationStatus = "scheduled"
	StatusMatching  ConsultationStatus = "matching"
	StatusMatched   ConsultationStatus = "matched"
	StatusActive    ConsultationStatus = "active"
	StatusClosed    ConsultationStatus = "closed"
)

type ConsultationOutcome string

const (
	OutcomeSuccess   ConsultationOutcome = "success"
	OutcomeCancelled ConsultationOutcome = "cancelled"
	OutcomeMissed    ConsultationOutcome = "missed"
	OutcomeFailed    ConsultationOutcome = "failed"
)

type ConsultationType string

const (
	TypeScheduled     ConsultationType = "scheduled"
	TypeDirectConnect ConsultationType = "direct_connect"
	TypeFollowUp      ConsultationType = "follow_up"
)

// Join-window and missed-detection policy.
const (
	JoinWindowBefore = 5 * time.Minute
	JoinWindowAfter  = 45 * time.Minute
	MissedAfter      = 10 * time.Minute
)

// Consultation is the booking record. Rows are never hard-deleted; all
// terminal outcomes go through status "closed" with an outcome.
type Consultation struct {
	ID                 uuid.UUID            `db:"id" json:"id"`
	ConsultationNumber string               `db:"consultation_number" json:"consultation_number"`
	CustomerID         uuid.UUID            `db:"customer_id" json:"customer_id"`
	VetID              *uuid.UUID           `db:"vet_id" json:"vet_id,omitempty"`
	PetID              uuid.UUID            `db:"pet_id" json:"pet_id"`
	Type               ConsultationType     `db:"type" json:"type"`
	Status             ConsultationStatus   `db:"status" json:"status"`
	ScheduledAt        *time.Time           `db:"scheduled_at" json:"scheduled_at,omitempty"`
	DurationMinutes    int                  `db:"duration_minutes" json:"duration_minutes"`
	IsPriority         bool                 `db:"is_priority" json:"is_priority"`
	IsFree             bool                 `db:"is_free" json:"is_free"`
	Reminder1hSent     bool                 `db:"reminder_1h_sent" json:"reminder_1h_sent"`
	Reminder15mSent    bool                 `db:"reminder_15m_sent" json:"reminder_15m_sent"`
	StartedAt          *time.Time           `db:"started_at" json:"started_at,omitempty"`
	EndedAt            *time.Time           `db:"ended_at" json:"ended_at,omitempty"`
	Outcome            *ConsultationOutcome `db:"outcome" json:"outcome,omitempty"`
	ConcernText        string               `db:"concern_text" json:"concern_text,omitempty"`
	SymptomCategories  pq.StringArray       `db:"symptom_categories" json:"symptom_categories,omitempty"`
	RoomName           string               `db:"room_name" json:"room_name,omitempty"`
	CreatedAt          time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time            `db:"updated_at" json:"updated_at"`
}

// allowedTransitions is the lifecycle table. closed is the only terminal
// state; every terminal outcome is a transition into it.
var allowedTransitions = map[ConsultationStatus][]ConsultationStatus{
	StatusPending:   {StatusScheduled, StatusClosed},
	StatusScheduled: {StatusActive, StatusClosed},
	StatusMatching:  {StatusMatched, StatusClosed},
	StatusMatched:   {StatusActive, StatusClosed},
	StatusActive:    {StatusClosed},
	StatusClosed:    {},
}

// IsTerminal reports whether no further transitions are possible.
func (c *Consultation) IsTerminal() bool {
	return c.Status == StatusClosed
}

// CanTransitionTo reports whether the lifecycle permits moving to next.
func (c *Consultation) CanTransitionTo(next ConsultationStatus) bool {
	for _, s := range allowedTransitions[c.Status] {
		if s == next {
			return true
		}
	}
	return false
}

// CustomerCancellable reports whether a customer-initiated cancellation is
// permitted from the current status. Never from active or closed.
func (c *Consultation) CustomerCancellable() bool {
	switch c.Status {
	case StatusPending, StatusScheduled, StatusMatching, StatusMatched:
		return true
	default:
		return false
	}
}

// IsCancelled reports whether the consultation was closed by cancellation.
func (c *Consultation) IsCancelled() bool {
	return c.Status == StatusClosed && c.Outcome != nil && *c.Outcome == OutcomeCancelled
}

// JoinEligibility is the computed join-window check. A participant may join
// from JoinWindowBefore before the scheduled time until JoinWindowAfter
// past it.
type JoinEligibility struct {
	Allowed          bool
	TooEarly         bool
	MinutesUntilOpen int
	Expired          bool
}

// JoinEligibility evaluates the join window against the given instant.
// Consultations without a scheduled time (direct connect) are joinable once
// matched.
func (c *Consultation) JoinEligibility(now time.Time) JoinEligibility {
	if c.ScheduledAt == nil {
		return JoinEligibility{Allowed: true}
	}
	opens := c.ScheduledAt.Add(-JoinWindowBefore)
	closes := c.ScheduledAt.Add(JoinWindowAfter)
	if now.Before(opens) {
		until := int(math.Ceil(c.ScheduledAt.Sub(now).Minutes()))
		return JoinEligibility{TooEarly: true, MinutesUntilOpen: until}
	}
	if now.After(closes) {
		return JoinEligibility{Expired: true}
	}
	return JoinEligibility{Allowed: true}
}

// ShouldMarkAsMissed is read-only guidance for the housekeeping scan: a
// scheduled consultation that never went active more than MissedAfter past
// its scheduled time is eligible to be closed as missed.
func (c *Consultation) ShouldMarkAsMissed(now time.Time) bool {
	if c.Status != StatusScheduled || c.StartedAt != nil || c.ScheduledAt == nil {
		return false
	}
	return now.After(c.ScheduledAt.Add(MissedAfter))
}
