package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gerrardelliot83-create/furrie-api/internal/model"
	"github.com/gerrardelliot83-create/furrie-api/internal/repository"
)

type petRepository struct {
	db *sqlx.DB
}

func NewPetRepository(db *sqlx.DB) repository.PetRepository {
	return &petRepository{db: db}
}

func (r *petRepository) Get(ctx context.Context, id uuid.UUID) (*model.Pet, error) {
	query := `
		SELECT id, customer_id, name, species, breed, created_at, updated_at
		FROM pets
		WHERE id = $1
	`
	var pet model.Pet
	err := r.db.GetContext(ctx, &pet, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pet: %w", err)
	}
	return &pet, nil
}
