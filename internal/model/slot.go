package model

import (
	"time"
)

// CandidateSlot is one bookable 30-minute window, derived by chopping a
// TimeBlock. Ephemeral: recomputed per query, never persisted.
type CandidateSlot struct {
	Start       string    `json:"start"`
	End         string    `json:"end"`
	DatetimeUTC time.Time `json:"datetime_utc"`
}

// DaySlots is the public, vet-anonymized slot list for one calendar date.
// The caller never learns which or how many vets back a slot.
type DaySlots struct {
	Date  string          `json:"date"`
	Slots []CandidateSlot `json:"slots"`
}
