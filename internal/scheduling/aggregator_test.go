package scheduling

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gerrardelliot83-create/furrie-api/internal/model"
	"github.com/gerrardelliot83-create/furrie-api/internal/repository/memory"
	"github.com/gerrardelliot83-create/furrie-api/pkg/logger"
)

type fakeClock struct {
	now time.Time
}

func (f fakeClock) Now() time.Time { return f.now }

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
}

func tuesdayVet(schedule model.WeeklySchedule) *model.Veterinarian {
	return &model.Veterinarian{
		ID:             uuid.New(),
		Name:           "Dr. Rao",
		Email:          "rao@example.com",
		Verified:       true,
		Available:      true,
		WeeklySchedule: schedule,
	}
}

// 2026-09-01 is a Tuesday.
func clinicTime(day, hour, minute int) time.Time {
	return time.Date(2026, 9, day, hour, minute, 0, 0, clinicZone)
}

func TestAggregatorBookableSlots(t *testing.T) {
	schedule := model.WeeklySchedule{
		"tuesday": {{Start: "09:00", End: "12:00"}},
	}

	newAggregator := func(clock Clock, store *memory.Store) *Aggregator {
		return NewAggregator(store.Vets(), store.Consultations(), clock, clinicZone, testLogger())
	}

	t.Run("returns all slots of the day", func(t *testing.T) {
		store := memory.NewStore()
		store.AddVet(tuesdayVet(schedule))
		agg := newAggregator(fakeClock{clinicTime(1, 8, 0)}, store)

		from, to := agg.DefaultRange()
		days, err := agg.BookableSlots(context.Background(), from, to)
		require.NoError(t, err)
		require.Len(t, days, 1)
		assert.Equal(t, "2026-09-01", days[0].Date)
		assert.Len(t, days[0].Slots, 6)
	})

	t.Run("filters slots inside the lead time", func(t *testing.T) {
		store := memory.NewStore()
		store.AddVet(tuesdayVet(schedule))
		// 09:50 + 15m lead puts the 10:00 slot out of reach.
		agg := newAggregator(fakeClock{clinicTime(1, 9, 50)}, store)

		from, to := agg.DefaultRange()
		days, err := agg.BookableSlots(context.Background(), from, to)
		require.NoError(t, err)
		require.Len(t, days, 1)
		require.Len(t, days[0].Slots, 3)
		assert.Equal(t, "10:30", days[0].Slots[0].Start)

		earliest := clinicTime(1, 9, 50).Add(MinLeadTime)
		for _, slot := range days[0].Slots {
			assert.False(t, slot.DatetimeUTC.Before(earliest))
		}
	})

	t.Run("dedups identical slots across vets", func(t *testing.T) {
		store := memory.NewStore()
		store.AddVet(tuesdayVet(schedule))
		store.AddVet(tuesdayVet(schedule))
		agg := newAggregator(fakeClock{clinicTime(1, 8, 0)}, store)

		from, to := agg.DefaultRange()
		days, err := agg.BookableSlots(context.Background(), from, to)
		require.NoError(t, err)
		require.Len(t, days, 1)
		assert.Len(t, days[0].Slots, 6)
	})

	t.Run("occupied slot disappears with a single vet", func(t *testing.T) {
		store := memory.NewStore()
		vet := tuesdayVet(schedule)
		store.AddVet(vet)

		at := clinicTime(1, 10, 0).UTC()
		store.AddConsultation(&model.Consultation{
			ID:          uuid.New(),
			CustomerID:  uuid.New(),
			PetID:       uuid.New(),
			VetID:       &vet.ID,
			Status:      model.StatusScheduled,
			ScheduledAt: &at,
		})

		agg := newAggregator(fakeClock{clinicTime(1, 8, 0)}, store)
		from, to := agg.DefaultRange()
		days, err := agg.BookableSlots(context.Background(), from, to)
		require.NoError(t, err)
		require.Len(t, days, 1)
		require.Len(t, days[0].Slots, 5)
		for _, slot := range days[0].Slots {
			assert.NotEqual(t, "10:00", slot.Start)
		}
	})

	t.Run("occupied slot survives when a second vet covers it", func(t *testing.T) {
		store := memory.NewStore()
		busy := tuesdayVet(schedule)
		store.AddVet(busy)
		store.AddVet(tuesdayVet(schedule))

		at := clinicTime(1, 10, 0).UTC()
		store.AddConsultation(&model.Consultation{
			ID:          uuid.New(),
			CustomerID:  uuid.New(),
			PetID:       uuid.New(),
			VetID:       &busy.ID,
			Status:      model.StatusScheduled,
			ScheduledAt: &at,
		})

		agg := newAggregator(fakeClock{clinicTime(1, 8, 0)}, store)
		from, to := agg.DefaultRange()
		days, err := agg.BookableSlots(context.Background(), from, to)
		require.NoError(t, err)
		require.Len(t, days, 1)
		assert.Len(t, days[0].Slots, 6)
	})

	t.Run("closed booking does not block its slot", func(t *testing.T) {
		store := memory.NewStore()
		vet := tuesdayVet(schedule)
		store.AddVet(vet)

		at := clinicTime(1, 10, 0).UTC()
		outcome := model.OutcomeCancelled
		store.AddConsultation(&model.Consultation{
			ID:          uuid.New(),
			CustomerID:  uuid.New(),
			PetID:       uuid.New(),
			VetID:       &vet.ID,
			Status:      model.StatusClosed,
			Outcome:     &outcome,
			ScheduledAt: &at,
		})

		agg := newAggregator(fakeClock{clinicTime(1, 8, 0)}, store)
		from, to := agg.DefaultRange()
		days, err := agg.BookableSlots(context.Background(), from, to)
		require.NoError(t, err)
		require.Len(t, days, 1)
		assert.Len(t, days[0].Slots, 6)
	})

	t.Run("empty window returns nothing", func(t *testing.T) {
		store := memory.NewStore()
		agg := newAggregator(fakeClock{clinicTime(1, 8, 0)}, store)

		from, to := agg.DefaultRange()
		days, err := agg.BookableSlots(context.Background(), from, to)
		require.NoError(t, err)
		assert.Empty(t, days)
	})

	t.Run("repeated queries are idempotent", func(t *testing.T) {
		store := memory.NewStore()
		store.AddVet(tuesdayVet(schedule))
		agg := newAggregator(fakeClock{clinicTime(1, 8, 0)}, store)

		from, to := agg.DefaultRange()
		first, err := agg.BookableSlots(context.Background(), from, to)
		require.NoError(t, err)
		second, err := agg.BookableSlots(context.Background(), from, to)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}
