package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TimeBlock is a veterinarian's raw availability window for one weekday,
// half-open [Start, End), local wall-clock, minute granularity.
type TimeBlock struct {
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}

// SlotDurationMinutes is the fixed consultation slot length. Blocks are
// chopped into consecutive windows of this size, aligned to :00/:30.
const SlotDurationMinutes = 30

// MinuteOfDay parses an "HH:MM" wall-clock string into minutes since
// midnight. Anything beyond the two fields, trailing text included, is
// rejected so stored schedules stay in the documented format.
func MinuteOfDay(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Bounds returns the block's start and end as minutes since midnight.
func (b TimeBlock) Bounds() (start, end int, err error) {
	start, err = MinuteOfDay(b.Start)
	if err != nil {
		return 0, 0, err
	}
	end, err = MinuteOfDay(b.End)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// Contains reports whether a slot starting at minute m (of SlotDurationMinutes
// length) fits entirely inside the block.
func (b TimeBlock) Contains(m int) bool {
	start, end, err := b.Bounds()
	if err != nil {
		return false
	}
	return m >= start && m+SlotDurationMinutes <= end
}

// WeeklySchedule maps lowercase weekday names ("monday".."sunday") to the
// vet's availability blocks for that day. Stored as JSONB.
type WeeklySchedule map[string][]TimeBlock

func (s WeeklySchedule) Value() (driver.Value, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s)
}

func (s *WeeklySchedule) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = WeeklySchedule{}
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported type %T for WeeklySchedule", src)
	}
}

// WeekdayKey returns the schedule key for t's weekday.
func WeekdayKey(t time.Time) string {
	return strings.ToLower(t.Weekday().String())
}

// Veterinarian holds a vet's identity and weekly availability. Only
// verified and available vets participate in slot queries and assignment.
type Veterinarian struct {
	ID             uuid.UUID      `db:"id" json:"id"`
	Name           string         `db:"name" json:"name"`
	Email          string         `db:"email" json:"email"`
	Verified       bool           `db:"verified" json:"verified"`
	Available      bool           `db:"available" json:"available"`
	WeeklySchedule WeeklySchedule `db:"weekly_schedule" json:"weekly_schedule"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// Eligible reports whether the vet participates in scheduling.
func (v *Veterinarian) Eligible() bool {
	return v.Verified && v.Available
}

// BlocksFor returns the vet's availability blocks for the weekday of t,
// evaluated in the clinic's local zone.
func (v *Veterinarian) BlocksFor(t time.Time) []TimeBlock {
	return v.WeeklySchedule[WeekdayKey(t)]
}
