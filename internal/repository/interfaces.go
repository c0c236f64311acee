package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/gerrardelliot83-create/furrie-api/internal/model"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

// ErrSlotConflict is the authoritative conflict signal: the storage layer
// rejected an insert because a non-terminal consultation already holds the
// same (vet_id, scheduled_at) pair. Callers must surface it as SLOT_TAKEN
// and never retry the write as-is.
var ErrSlotConflict = errors.New("slot already booked for this vet")

// ErrNumberConflict reports that another insert claimed the same
// consultation number first. Callers re-number and retry.
var ErrNumberConflict = errors.New("consultation number already taken")

// ReminderKind selects which reminder flag a query or update targets.
type ReminderKind string

const (
	Reminder1h  ReminderKind = "1h"
	Reminder15m ReminderKind = "15m"
)

type VetRepository interface {
	// ListEligible returns verified and available vets with their weekly
	// schedules, in a stable order.
	ListEligible(ctx context.Context) ([]*model.Veterinarian, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Veterinarian, error)
	UpdateSchedule(ctx context.Context, id uuid.UUID, schedule model.WeeklySchedule) error
}

type ConsultationRepository interface {
	// Create inserts the row atomically. A uniqueness violation on the
	// non-terminal (vet_id, scheduled_at) index maps to ErrSlotConflict;
	// one on the consultation number maps to ErrNumberConflict. Caller-set
	// timestamps are kept so the injected clock stays authoritative.
	Create(ctx context.Context, c *model.Consultation) error
	Get(ctx context.Context, id uuid.UUID) (*model.Consultation, error)
	Update(ctx context.Context, c *model.Consultation) error
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*model.Consultation, error)

	// ListNonTerminalBetween returns bookings whose scheduled_at falls in
	// [from, to], any non-terminal status.
	ListNonTerminalBetween(ctx context.Context, from, to time.Time) ([]*model.Consultation, error)
	// ExistsNonTerminalAt is the point conflict check used by assignment.
	ExistsNonTerminalAt(ctx context.Context, vetID uuid.UUID, at time.Time) (bool, error)

	// ListDueForReminder returns scheduled consultations inside [from, to]
	// whose flag for kind is still unset.
	ListDueForReminder(ctx context.Context, kind ReminderKind, from, to time.Time) ([]*model.Consultation, error)
	// SetReminderSent flips the flag for kind; the flag is the idempotency
	// guard across overlapping scan windows.
	SetReminderSent(ctx context.Context, id uuid.UUID, kind ReminderKind) error
	// ListOverdue returns scheduled consultations that never started and
	// whose scheduled_at is before cutoff.
	ListOverdue(ctx context.Context, cutoff time.Time) ([]*model.Consultation, error)

	// CountCreatedOn supports the date-stamped consultation number.
	CountCreatedOn(ctx context.Context, day time.Time) (int, error)
}

type PetRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Pet, error)
}

type CustomerRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Customer, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	Update(ctx context.Context, n *model.Notification) error
}
