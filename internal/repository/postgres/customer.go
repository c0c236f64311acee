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

type customerRepository struct {
	db *sqlx.DB
}

func NewCustomerRepository(db *sqlx.DB) repository.CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Get(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	query := `
		SELECT id, name, email, is_plus, created_at, updated_at
		FROM customers
		WHERE id = $1
	`
	var customer model.Customer
	err := r.db.GetContext(ctx, &customer, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return &customer, nil
}
