package scheduling

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gerrardelliot83-create/furrie-api/internal/model"
	"github.com/gerrardelliot83-create/furrie-api/internal/repository/memory"
)

func TestResolver(t *testing.T) {
	schedule := model.WeeklySchedule{
		"tuesday": {{Start: "09:00", End: "12:00"}},
	}
	slotAt := clinicTime(1, 10, 0).UTC()

	t.Run("picks the first vet in stable order", func(t *testing.T) {
		store := memory.NewStore()
		a := tuesdayVet(schedule)
		b := tuesdayVet(schedule)
		store.AddVet(a)
		store.AddVet(b)

		expected := a
		if b.ID.String() < a.ID.String() {
			expected = b
		}

		r := NewResolver(store.Vets(), store.Consultations(), clinicZone)
		vet, err := r.Resolve(context.Background(), slotAt, nil, false)
		require.NoError(t, err)
		require.NotNil(t, vet)
		assert.Equal(t, expected.ID, vet.ID)

		// Same inputs, same choice.
		again, err := r.Resolve(context.Background(), slotAt, nil, false)
		require.NoError(t, err)
		require.NotNil(t, again)
		assert.Equal(t, vet.ID, again.ID)
	})

	t.Run("skips a vet with a conflicting booking", func(t *testing.T) {
		store := memory.NewStore()
		a := tuesdayVet(schedule)
		b := tuesdayVet(schedule)
		store.AddVet(a)
		store.AddVet(b)

		first, second := a, b
		if b.ID.String() < a.ID.String() {
			first, second = b, a
		}
		store.AddConsultation(&model.Consultation{
			ID:          uuid.New(),
			CustomerID:  uuid.New(),
			PetID:       uuid.New(),
			VetID:       &first.ID,
			Status:      model.StatusScheduled,
			ScheduledAt: &slotAt,
		})

		r := NewResolver(store.Vets(), store.Consultations(), clinicZone)
		vet, err := r.Resolve(context.Background(), slotAt, nil, false)
		require.NoError(t, err)
		require.NotNil(t, vet)
		assert.Equal(t, second.ID, vet.ID)
	})

	t.Run("honors the exclusion set", func(t *testing.T) {
		store := memory.NewStore()
		a := tuesdayVet(schedule)
		b := tuesdayVet(schedule)
		store.AddVet(a)
		store.AddVet(b)

		first, second := a, b
		if b.ID.String() < a.ID.String() {
			first, second = b, a
		}

		r := NewResolver(store.Vets(), store.Consultations(), clinicZone)
		vet, err := r.Resolve(context.Background(), slotAt,
			map[uuid.UUID]struct{}{first.ID: {}}, false)
		require.NoError(t, err)
		require.NotNil(t, vet)
		assert.Equal(t, second.ID, vet.ID)
	})

	t.Run("nil when the slot is outside every schedule", func(t *testing.T) {
		store := memory.NewStore()
		store.AddVet(tuesdayVet(schedule))

		r := NewResolver(store.Vets(), store.Consultations(), clinicZone)
		// 13:00 is past the tuesday block.
		vet, err := r.Resolve(context.Background(), clinicTime(1, 13, 0).UTC(), nil, false)
		require.NoError(t, err)
		assert.Nil(t, vet)
	})

	t.Run("nil when no vet is eligible", func(t *testing.T) {
		store := memory.NewStore()
		unverified := tuesdayVet(schedule)
		unverified.Verified = false
		store.AddVet(unverified)

		r := NewResolver(store.Vets(), store.Consultations(), clinicZone)
		vet, err := r.Resolve(context.Background(), slotAt, nil, false)
		require.NoError(t, err)
		assert.Nil(t, vet)
	})

	t.Run("priority hint does not change the choice", func(t *testing.T) {
		store := memory.NewStore()
		store.AddVet(tuesdayVet(schedule))
		store.AddVet(tuesdayVet(schedule))

		r := NewResolver(store.Vets(), store.Consultations(), clinicZone)
		plain, err := r.Resolve(context.Background(), slotAt, nil, false)
		require.NoError(t, err)
		hinted, err := r.Resolve(context.Background(), slotAt, nil, true)
		require.NoError(t, err)
		require.NotNil(t, plain)
		require.NotNil(t, hinted)
		assert.Equal(t, plain.ID, hinted.ID)
	})
}
