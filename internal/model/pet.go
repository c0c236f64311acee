package model

import (
	"time"

	"github.com/google/uuid"
)

// Pet belongs to exactly one customer. Ownership is re-checked at booking
// write time, not just at resolve time.
type Pet struct {
	ID         uuid.UUID `db:"id" json:"id"`
	CustomerID uuid.UUID `db:"customer_id" json:"customer_id"`
	Name       string    `db:"name" json:"name"`
	Species    string    `db:"species" json:"species"`
	Breed      string    `db:"breed" json:"breed,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
