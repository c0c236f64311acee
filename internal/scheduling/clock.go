package scheduling

import "time"

// Clock abstracts "now" so that lead-time, join-window and missed-detection
// arithmetic is deterministically testable.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the system clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Booking policy constants shared between the public slot query and the
// booking write path. The write path re-checks them.
const (
	// MinLeadTime is the minimum gap between "now" and a bookable slot.
	MinLeadTime = 15 * time.Minute
	// BookingHorizon is the furthest ahead a consultation may be booked.
	BookingHorizon = 7 * 24 * time.Hour
	// OccupiedTolerance guards against sub-minute formatting drift when
	// matching candidate slots to occupied timestamps. It is not an
	// overlap test.
	OccupiedTolerance = 60 * time.Second
)
