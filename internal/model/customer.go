package model

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a pet owner. Plus members get payment bypass and priority
// flags on booking.
type Customer struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	IsPlus    bool      `db:"is_plus" json:"is_plus"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
