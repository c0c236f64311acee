package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gerrardelliot83-create/furrie-api/internal/model"
	"github.com/gerrardelliot83-create/furrie-api/internal/repository"
)

type vetRepository struct {
	db *sqlx.DB
}

func NewVetRepository(db *sqlx.DB) repository.VetRepository {
	return &vetRepository{db: db}
}

func (r *vetRepository) ListEligible(ctx context.Context) ([]*model.Veterinarian, error) {
	query := `
		SELECT id, name, email, verified, available, weekly_schedule,
			   created_at, updated_at
		FROM vets
		WHERE verified = true AND available = true
		ORDER BY id ASC
	`
	var vets []*model.Veterinarian
	if err := r.db.SelectContext(ctx, &vets, query); err != nil {
		return nil, fmt.Errorf("failed to list eligible vets: %w", err)
	}
	return vets, nil
}

func (r *vetRepository) Get(ctx context.Context, id uuid.UUID) (*model.Veterinarian, error) {
	query := `
		SELECT id, name, email, verified, available, weekly_schedule,
			   created_at, updated_at
		FROM vets
		WHERE id = $1
	`
	var vet model.Veterinarian
	err := r.db.GetContext(ctx, &vet, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vet: %w", err)
	}
	return &vet, nil
}

func (r *vetRepository) UpdateSchedule(ctx context.Context, id uuid.UUID, schedule model.WeeklySchedule) error {
	query := `
		UPDATE vets
		SET weekly_schedule = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := r.db.ExecContext(ctx, query, schedule, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
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
