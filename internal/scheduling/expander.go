package scheduling

import (
	"errors"
	"fmt"
	"time"

	"github.com/gerrardelliot83-create/furrie-api/internal/model"
)

// ErrInvalidBlock marks a block whose bounds cannot produce any slot:
// end not after start, or a start not aligned to the :00/:30 grid.
var ErrInvalidBlock = errors.New("invalid time block")

// SlotIterator walks a TimeBlock on a given calendar date and yields one
// CandidateSlot per 30-minute increment. It is lazy, finite and
// restartable; a trailing span shorter than a full slot is dropped.
type SlotIterator struct {
	date     time.Time
	loc      *time.Location
	startMin int
	endMin   int
	cur      int
}

// NewSlotIterator validates the block and returns an iterator positioned
// before the first slot. date carries the calendar day; its clock part is
// ignored. loc is the fixed deployment zone used to resolve wall-clock
// times to UTC.
func NewSlotIterator(block model.TimeBlock, date time.Time, loc *time.Location) (*SlotIterator, error) {
	start, end, err := block.Bounds()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBlock, err)
	}
	if end <= start {
		return nil, fmt.Errorf("%w: end %s not after start %s", ErrInvalidBlock, block.End, block.Start)
	}
	if start%model.SlotDurationMinutes != 0 {
		return nil, fmt.Errorf("%w: start %s not aligned to %d minutes", ErrInvalidBlock, block.Start, model.SlotDurationMinutes)
	}

	return &SlotIterator{
		date:     date,
		loc:      loc,
		startMin: start,
		endMin:   end,
		cur:      start,
	}, nil
}

// Next returns the next slot, or false when the block is exhausted.
func (it *SlotIterator) Next() (model.CandidateSlot, bool) {
	if it.cur+model.SlotDurationMinutes > it.endMin {
		return model.CandidateSlot{}, false
	}
	slot := it.slotAt(it.cur)
	it.cur += model.SlotDurationMinutes
	return slot, true
}

// Reset rewinds the iterator to the first slot.
func (it *SlotIterator) Reset() {
	it.cur = it.startMin
}

// Remaining returns how many slots are left without advancing.
func (it *SlotIterator) Remaining() int {
	left := it.endMin - it.cur
	if left < 0 {
		return 0
	}
	return left / model.SlotDurationMinutes
}

func (it *SlotIterator) slotAt(min int) model.CandidateSlot {
	y, m, d := it.date.Date()
	local := time.Date(y, m, d, min/60, min%60, 0, 0, it.loc)
	return model.CandidateSlot{
		Start:       fmt.Sprintf("%02d:%02d", min/60, min%60),
		End:         fmt.Sprintf("%02d:%02d", (min+model.SlotDurationMinutes)/60, (min+model.SlotDurationMinutes)%60),
		DatetimeUTC: local.UTC(),
	}
}

// ExpandBlock collects every slot of the block into a slice.
func ExpandBlock(block model.TimeBlock, date time.Time, loc *time.Location) ([]model.CandidateSlot, error) {
	it, err := NewSlotIterator(block, date, loc)
	if err != nil {
		return nil, err
	}
	slots := make([]model.CandidateSlot, 0, it.Remaining())
	for {
		slot, ok := it.Next()
		if !ok {
			return slots, nil
		}
		slots = append(slots, slot)
	}
}
