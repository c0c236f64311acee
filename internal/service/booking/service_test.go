package booking

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gerrardelliot83-create/furrie-api/internal/model"
	"github.com/gerrardelliot83-create/furrie-api/internal/repository"
	"github.com/gerrardelliot83-create/furrie-api/internal/repository/memory"
	"github.com/gerrardelliot83-create/furrie-api/internal/scheduling"
	"github.com/gerrardelliot83-create/furrie-api/pkg/errors"
	"github.com/gerrardelliot83-create/furrie-api/pkg/logger"
)

var clinicZone = time.FixedZone("CLINIC", 5*3600+30*60)

type fakeClock struct {
	now time.Time
}

func (f fakeClock) Now() time.Time { return f.now }

type recordingNotifier struct {
	mu   sync.Mutex
	sent []*model.Notification
}

func (n *recordingNotifier) Send(_ context.Context, notification *model.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
	return nil
}

type fixture struct {
	store    *memory.Store
	svc      *Service
	vet      *model.Veterinarian
	customer *model.Customer
	pet      *model.Pet
	now      time.Time
}

// 2026-09-01 is a Tuesday; the vet works 09:00-12:00 clinic time.
func newFixture(t *testing.T, plus bool) *fixture {
	t.Helper()

	store := memory.NewStore()
	vet := &model.Veterinarian{
		ID:        uuid.New(),
		Name:      "Dr. Rao",
		Email:     "rao@example.com",
		Verified:  true,
		Available: true,
		WeeklySchedule: model.WeeklySchedule{
			"tuesday": {{Start: "09:00", End: "12:00"}},
		},
	}
	customer := &model.Customer{ID: uuid.New(), Name: "Asha", Email: "asha@example.com", IsPlus: plus}
	pet := &model.Pet{ID: uuid.New(), CustomerID: customer.ID, Name: "Bruno", Species: "dog"}
	store.AddVet(vet)
	store.AddCustomer(customer)
	store.AddPet(pet)

	now := time.Date(2026, 9, 1, 8, 0, 0, 0, clinicZone)
	clock := fakeClock{now}
	resolver := scheduling.NewResolver(store.Vets(), store.Consultations(), clinicZone)
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})

	svc := NewService(
		resolver, store.Consultations(), store.Pets(), store.Customers(),
		&recordingNotifier{}, clock, clinicZone, 499, "INR", log,
	)

	return &fixture{store: store, svc: svc, vet: vet, customer: customer, pet: pet, now: now}
}

func (f *fixture) request(scheduledAt time.Time) Request {
	return Request{
		CustomerID:  f.customer.ID,
		PetID:       f.pet.ID,
		ScheduledAt: scheduledAt,
		ConcernText: "limping since yesterday",
	}
}

func (f *fixture) slotAt(hour, minute int) time.Time {
	return time.Date(2026, 9, 1, hour, minute, 0, 0, clinicZone).UTC()
}

func assertCode(t *testing.T, err error, code errors.Code) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func TestBookValidation(t *testing.T) {
	t.Run("too soon", func(t *testing.T) {
		f := newFixture(t, false)
		_, err := f.svc.Book(context.Background(), f.request(f.now.Add(5*time.Minute)))
		assertCode(t, err, errors.CodeTooSoon)
	})

	t.Run("too far", func(t *testing.T) {
		f := newFixture(t, false)
		_, err := f.svc.Book(context.Background(), f.request(f.now.Add(8*24*time.Hour)))
		assertCode(t, err, errors.CodeTooFar)
	})

	t.Run("unknown pet", func(t *testing.T) {
		f := newFixture(t, false)
		req := f.request(f.slotAt(10, 0))
		req.PetID = uuid.New()
		_, err := f.svc.Book(context.Background(), req)
		assertCode(t, err, errors.CodePetNotFound)
	})

	t.Run("pet owned by someone else", func(t *testing.T) {
		f := newFixture(t, false)
		stranger := &model.Customer{ID: uuid.New(), Name: "Ravi", Email: "ravi@example.com"}
		f.store.AddCustomer(stranger)
		otherPet := &model.Pet{ID: uuid.New(), CustomerID: stranger.ID, Name: "Milo", Species: "cat"}
		f.store.AddPet(otherPet)

		req := f.request(f.slotAt(10, 0))
		req.PetID = otherPet.ID
		_, err := f.svc.Book(context.Background(), req)
		assertCode(t, err, errors.CodeNotPetOwner)
	})

	t.Run("off the slot grid", func(t *testing.T) {
		f := newFixture(t, false)
		// A 10:07 booking would overlap the 10:00 slot without tripping
		// the (vet_id, scheduled_at) uniqueness.
		_, err := f.svc.Book(context.Background(), f.request(f.slotAt(10, 7)))
		assertCode(t, err, errors.CodeInvalidScheduledAt)

		_, err = f.svc.Book(context.Background(),
			f.request(f.slotAt(10, 0).Add(30*time.Second)))
		assertCode(t, err, errors.CodeInvalidScheduledAt)
	})

	t.Run("no vet covers the slot", func(t *testing.T) {
		f := newFixture(t, false)
		_, err := f.svc.Book(context.Background(), f.request(f.slotAt(14, 0)))
		assertCode(t, err, errors.CodeNoVetAvailable)
	})
}

func TestBookStandardCustomer(t *testing.T) {
	f := newFixture(t, false)

	result, err := f.svc.Book(context.Background(), f.request(f.slotAt(10, 0)))
	require.NoError(t, err)

	c := result.Consultation
	assert.Equal(t, model.StatusPending, c.Status)
	assert.False(t, c.IsPriority)
	assert.False(t, c.IsFree)
	require.NotNil(t, c.VetID)
	assert.Equal(t, f.vet.ID, *c.VetID)
	assert.Equal(t, 30, c.DurationMinutes)
	assert.NotEmpty(t, c.RoomName)

	require.NotNil(t, result.Payment)
	assert.Equal(t, 499, result.Payment.Amount)
	assert.Equal(t, "INR", result.Payment.Currency)
	assert.False(t, result.IsPlusUser)

	assert.True(t, strings.HasPrefix(c.ConsultationNumber, "FC-20260901-"))
	assert.Len(t, c.ConsultationNumber, len("FC-20260901-0001"))
}

func TestBookPlusCustomer(t *testing.T) {
	f := newFixture(t, true)

	result, err := f.svc.Book(context.Background(), f.request(f.slotAt(10, 0)))
	require.NoError(t, err)

	c := result.Consultation
	assert.Equal(t, model.StatusScheduled, c.Status)
	assert.True(t, c.IsPriority)
	assert.True(t, c.IsFree)
	assert.Nil(t, result.Payment)
	assert.True(t, result.IsPlusUser)
}

func TestBookSlotConflict(t *testing.T) {
	f := newFixture(t, true)
	slot := f.slotAt(10, 0)

	_, err := f.svc.Book(context.Background(), f.request(slot))
	require.NoError(t, err)

	// Only one vet covers the slot, so the second booking must lose.
	_, err = f.svc.Book(context.Background(), f.request(slot))
	assertCode(t, err, errors.CodeNoVetAvailable)
}

// racingRepo hides existing bookings from the conflict pre-check, forcing
// the unique-constraint path that a true concurrent race would hit.
type racingRepo struct {
	repository.ConsultationRepository
}

func (racingRepo) ExistsNonTerminalAt(context.Context, uuid.UUID, time.Time) (bool, error) {
	return false, nil
}

func TestBookConflictAtWrite(t *testing.T) {
	f := newFixture(t, true)
	slot := f.slotAt(10, 30)

	consultations := racingRepo{f.store.Consultations()}
	resolver := scheduling.NewResolver(f.store.Vets(), consultations, clinicZone)
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	svc := NewService(
		resolver, consultations, f.store.Pets(), f.store.Customers(),
		&recordingNotifier{}, fakeClock{f.now}, clinicZone, 499, "INR", log,
	)

	_, err := svc.Book(context.Background(), f.request(slot))
	require.NoError(t, err)

	// The second request resolves the same vet and loses at the write.
	_, err = svc.Book(context.Background(), f.request(slot))
	assertCode(t, err, errors.CodeSlotTaken)
}

func TestBookSequentialNumbers(t *testing.T) {
	f := newFixture(t, true)

	first, err := f.svc.Book(context.Background(), f.request(f.slotAt(10, 0)))
	require.NoError(t, err)
	second, err := f.svc.Book(context.Background(), f.request(f.slotAt(10, 30)))
	require.NoError(t, err)

	assert.Equal(t, "FC-20260901-0001", first.Consultation.ConsultationNumber)
	assert.Equal(t, "FC-20260901-0002", second.Consultation.ConsultationNumber)

	// Rows are stamped from the service clock, so the per-day count that
	// feeds the sequence sees both bookings on the same day.
	assert.True(t, first.Consultation.CreatedAt.Equal(f.now))
	assert.True(t, second.Consultation.CreatedAt.Equal(f.now))
}

// clashingRepo fails the first Create with a number conflict, as a racing
// insert claiming the same number would.
type clashingRepo struct {
	repository.ConsultationRepository
	clashes int
}

func (r *clashingRepo) Create(ctx context.Context, c *model.Consultation) error {
	if r.clashes > 0 {
		r.clashes--
		return repository.ErrNumberConflict
	}
	return r.ConsultationRepository.Create(ctx, c)
}

func TestBookRetriesNumberCollision(t *testing.T) {
	f := newFixture(t, true)

	consultations := &clashingRepo{ConsultationRepository: f.store.Consultations(), clashes: 1}
	resolver := scheduling.NewResolver(f.store.Vets(), consultations, clinicZone)
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	svc := NewService(
		resolver, consultations, f.store.Pets(), f.store.Customers(),
		&recordingNotifier{}, fakeClock{f.now}, clinicZone, 499, "INR", log,
	)

	result, err := svc.Book(context.Background(), f.request(f.slotAt(10, 0)))
	require.NoError(t, err)
	assert.Equal(t, "FC-20260901-0001", result.Consultation.ConsultationNumber)
	assert.Equal(t, 0, consultations.clashes)
}

func TestMatchDirect(t *testing.T) {
	f := newFixture(t, false)

	result, err := f.svc.BookDirect(context.Background(), Request{
		CustomerID: f.customer.ID,
		PetID:      f.pet.ID,
	})
	require.NoError(t, err)
	id := result.Consultation.ID

	t.Run("no vet on shift", func(t *testing.T) {
		// 08:00 is before the tuesday block starts.
		_, err := f.svc.MatchDirect(context.Background(), id)
		assertCode(t, err, errors.CodeNoVetAvailable)
	})

	t.Run("matches an on-shift vet", func(t *testing.T) {
		resolver := scheduling.NewResolver(f.store.Vets(), f.store.Consultations(), clinicZone)
		log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
		onShift := NewService(
			resolver, f.store.Consultations(), f.store.Pets(), f.store.Customers(),
			&recordingNotifier{}, fakeClock{time.Date(2026, 9, 1, 10, 0, 0, 0, clinicZone)},
			clinicZone, 499, "INR", log,
		)

		c, err := onShift.MatchDirect(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, model.StatusMatched, c.Status)
		require.NotNil(t, c.VetID)
		assert.Equal(t, f.vet.ID, *c.VetID)

		// Matching twice is an invalid transition.
		_, err = onShift.MatchDirect(context.Background(), id)
		assertCode(t, err, errors.CodeInvalidTransition)
	})
}

func TestBookDirect(t *testing.T) {
	f := newFixture(t, false)

	result, err := f.svc.BookDirect(context.Background(), Request{
		CustomerID:  f.customer.ID,
		PetID:       f.pet.ID,
		ConcernText: "vomiting",
	})
	require.NoError(t, err)

	c := result.Consultation
	assert.Equal(t, model.TypeDirectConnect, c.Type)
	assert.Equal(t, model.StatusMatching, c.Status)
	assert.Nil(t, c.ScheduledAt)
	assert.Nil(t, c.VetID)
	require.NotNil(t, result.Payment)
	assert.Equal(t, 499, result.Payment.Amount)
}
