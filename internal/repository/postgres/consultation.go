package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gerrardelliot83-create/furrie-api/internal/model"
	"github.com/gerrardelliot83-create/furrie-api/internal/repository"
)

// slotUniqueIndex is the partial unique index over (vet_id, scheduled_at)
// scoped to non-terminal statuses. Its violation is the single source of
// truth for booking conflicts.
const slotUniqueIndex = "consultations_vet_slot_active_idx"

// numberUniqueConstraint guards the human-readable consultation number;
// its violation asks the caller to re-number and retry.
const numberUniqueConstraint = "consultations_consultation_number_key"

const consultationColumns = `
	id, consultation_number, customer_id, vet_id, pet_id, type, status,
	scheduled_at, duration_minutes, is_priority, is_free,
	reminder_1h_sent, reminder_15m_sent, started_at, ended_at, outcome,
	concern_text, symptom_categories, room_name, created_at, updated_at
`

type consultationRepository struct {
	db *sqlx.DB
}

func NewConsultationRepository(db *sqlx.DB) repository.ConsultationRepository {
	return &consultationRepository{db: db}
}

func (r *consultationRepository) Create(ctx context.Context, c *model.Consultation) error {
	query := `
		INSERT INTO consultations (
			id, consultation_number, customer_id, vet_id, pet_id, type, status,
			scheduled_at, duration_minutes, is_priority, is_free,
			reminder_1h_sent, reminder_15m_sent, started_at, ended_at, outcome,
			concern_text, symptom_categories, room_name, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19, $20, $21
		)
	`
	// The booking service stamps these from its clock; fill them in only
	// for callers that did not.
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}

	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.ConsultationNumber,
		c.CustomerID,
		c.VetID,
		c.PetID,
		c.Type,
		c.Status,
		c.ScheduledAt,
		c.DurationMinutes,
		c.IsPriority,
		c.IsFree,
		c.Reminder1hSent,
		c.Reminder15mSent,
		c.StartedAt,
		c.EndedAt,
		c.Outcome,
		c.ConcernText,
		c.SymptomCategories,
		c.RoomName,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			switch pqErr.Constraint {
			case slotUniqueIndex:
				return repository.ErrSlotConflict
			case numberUniqueConstraint:
				return repository.ErrNumberConflict
			}
		}
		return fmt.Errorf("failed to create consultation: %w", err)
	}
	return nil
}

func (r *consultationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Consultation, error) {
	query := `SELECT ` + consultationColumns + ` FROM consultations WHERE id = $1`

	var c model.Consultation
	err := r.db.GetContext(ctx, &c, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get consultation: %w", err)
	}
	return &c, nil
}

func (r *consultationRepository) Update(ctx context.Context, c *model.Consultation) error {
	query := `
		UPDATE consultations
		SET status = $1, started_at = $2, ended_at = $3, outcome = $4,
			vet_id = $5, scheduled_at = $6, room_name = $7, updated_at = $8
		WHERE id = $9
	`
	c.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		c.Status,
		c.StartedAt,
		c.EndedAt,
		c.Outcome,
		c.VetID,
		c.ScheduledAt,
		c.RoomName,
		c.UpdatedAt,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update consultation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *consultationRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*model.Consultation, error) {
	query := `
		SELECT ` + consultationColumns + `
		FROM consultations
		WHERE customer_id = $1
		ORDER BY created_at DESC
	`
	var consultations []*model.Consultation
	if err := r.db.SelectContext(ctx, &consultations, query, customerID); err != nil {
		return nil, fmt.Errorf("failed to list consultations: %w", err)
	}
	return consultations, nil
}

func (r *consultationRepository) ListNonTerminalBetween(ctx context.Context, from, to time.Time) ([]*model.Consultation, error) {
	query := `
		SELECT ` + consultationColumns + `
		FROM consultations
		WHERE status != 'closed'
		AND scheduled_at >= $1
		AND scheduled_at <= $2
		ORDER BY scheduled_at ASC
	`
	var consultations []*model.Consultation
	if err := r.db.SelectContext(ctx, &consultations, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to list non-terminal consultations: %w", err)
	}
	return consultations, nil
}

func (r *consultationRepository) ExistsNonTerminalAt(ctx context.Context, vetID uuid.UUID, at time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM consultations
			WHERE vet_id = $1
			AND scheduled_at = $2
			AND status != 'closed'
		)
	`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, vetID, at); err != nil {
		return false, fmt.Errorf("failed to check conflict: %w", err)
	}
	return exists, nil
}

func (r *consultationRepository) ListDueForReminder(ctx context.Context, kind repository.ReminderKind, from, to time.Time) ([]*model.Consultation, error) {
	flag, err := reminderColumn(kind)
	if err != nil {
		return nil, err
	}
	query := `
		SELECT ` + consultationColumns + `
		FROM consultations
		WHERE status = 'scheduled'
		AND scheduled_at >= $1
		AND scheduled_at <= $2
		AND ` + flag + ` = false
		ORDER BY scheduled_at ASC
	`
	var consultations []*model.Consultation
	if err := r.db.SelectContext(ctx, &consultations, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to list reminder candidates: %w", err)
	}
	return consultations, nil
}

func (r *consultationRepository) SetReminderSent(ctx context.Context, id uuid.UUID, kind repository.ReminderKind) error {
	flag, err := reminderColumn(kind)
	if err != nil {
		return err
	}
	query := `UPDATE consultations SET ` + flag + ` = true, updated_at = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, time.Now(), id); err != nil {
		return fmt.Errorf("failed to set reminder flag: %w", err)
	}
	return nil
}

func (r *consultationRepository) ListOverdue(ctx context.Context, cutoff time.Time) ([]*model.Consultation, error) {
	query := `
		SELECT ` + consultationColumns + `
		FROM consultations
		WHERE status = 'scheduled'
		AND started_at IS NULL
		AND scheduled_at < $1
		ORDER BY scheduled_at ASC
	`
	var consultations []*model.Consultation
	if err := r.db.SelectContext(ctx, &consultations, query, cutoff); err != nil {
		return nil, fmt.Errorf("failed to list overdue consultations: %w", err)
	}
	return consultations, nil
}

func (r *consultationRepository) CountCreatedOn(ctx context.Context, day time.Time) (int, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	query := `SELECT COUNT(*) FROM consultations WHERE created_at >= $1 AND created_at < $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, start, end); err != nil {
		return 0, fmt.Errorf("failed to count consultations: %w", err)
	}
	return count, nil
}

// reminderColumn maps the kind to its column. The column name is built from
// a fixed set, never from user input.
func reminderColumn(kind repository.ReminderKind) (string, error) {
	switch kind {
	case repository.Reminder1h:
		return "reminder_1h_sent", nil
	case repository.Reminder15m:
		return "reminder_15m_sent", nil
	default:
		return "", fmt.Errorf("unknown reminder kind %q", kind)
	}
}
