package booking

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/gerrardelliot83-create/furrie-api/internal/model"
	"github.com/gerrardelliot83-create/furrie-api/internal/repository"
	"github.com/gerrardelliot83-create/furrie-api/internal/scheduling"
	"github.com/gerrardelliot83-create/furrie-api/internal/service/notification"
	"github.com/gerrardelliot83-create/furrie-api/pkg/errors"
	"github.com/gerrardelliot83-create/furrie-api/pkg/logger"
)

const (
	notifyTimeout = 10 * time.Second

	// maxNumberAttempts bounds the re-numbering retries when two requests
	// race to the same consultation number.
	maxNumberAttempts = 3
)

// Service turns a booking request into a durable consultation row. The
// single atomic insert is the serialization point for racing requests: the
// storage layer's uniqueness constraint, not the earlier read, decides who
// wins, and the loser gets SLOT_TAKEN.
type Service struct {
	resolver      *scheduling.Resolver
	consultations repository.ConsultationRepository
	pets          repository.PetRepository
	customers     repository.CustomerRepository
	notifier      notification.Service
	clock         scheduling.Clock
	loc           *time.Location
	fee           int
	currency      string
	logger        *logger.Logger
}

func NewService(
	resolver *scheduling.Resolver,
	consultations repository.ConsultationRepository,
	pets repository.PetRepository,
	customers repository.CustomerRepository,
	notifier notification.Service,
	clock scheduling.Clock,
	loc *time.Location,
	fee int,
	currency string,
	logger *logger.Logger,
) *Service {
	return &Service{
		resolver:      resolver,
		consultations: consultations,
		pets:          pets,
		customers:     customers,
		notifier:      notifier,
		clock:         clock,
		loc:           loc,
		fee:           fee,
		currency:      currency,
		logger:        logger,
	}
}

// Request is the in-flight booking attempt. It is never persisted.
type Request struct {
	CustomerID        uuid.UUID
	PetID             uuid.UUID
	ScheduledAt       time.Time
	ConcernText       string
	SymptomCategories []string
}

// PaymentRequirement tells the caller what to collect before the
// consultation is confirmed.
type PaymentRequirement struct {
	Amount      int    `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
}

// Result is the booking outcome. Payment is nil for Plus members.
type Result struct {
	Consultation *model.Consultation `json:"consultation"`
	IsPlusUser   bool                `json:"is_plus_user"`
	Payment      *PaymentRequirement `json:"payment,omitempty"`
}

// Book validates the request, resolves a vet and performs the atomic
// reservation write. Preconditions are re-checked here, at write time, not
// just at resolve time.
func (s *Service) Book(ctx context.Context, req Request) (*Result, error) {
	now := s.clock.Now()
	if req.ScheduledAt.Before(now.Add(scheduling.MinLeadTime)) {
		return nil, errors.Newf(errors.CodeTooSoon,
			"consultations must be booked at least %d minutes in advance",
			int(scheduling.MinLeadTime.Minutes()))
	}
	if req.ScheduledAt.After(now.Add(scheduling.BookingHorizon)) {
		return nil, errors.New(errors.CodeTooFar,
			"consultations can be booked at most 7 days in advance")
	}
	// An off-grid time would slip past the slot uniqueness constraint and
	// overlap a neighbouring booking for the same vet.
	local := req.ScheduledAt.In(s.loc)
	if local.Second() != 0 || local.Nanosecond() != 0 || local.Minute()%model.SlotDurationMinutes != 0 {
		return nil, errors.Newf(errors.CodeInvalidScheduledAt,
			"scheduled_at must fall on a %d-minute slot boundary", model.SlotDurationMinutes)
	}

	pet, err := s.pets.Get(ctx, req.PetID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.New(errors.CodePetNotFound, "pet not found")
	}
	if err != nil {
		return nil, errors.Internal(err)
	}
	if pet.CustomerID != req.CustomerID {
		return nil, errors.New(errors.CodeNotPetOwner, "pet does not belong to this customer")
	}

	customer, err := s.customers.Get(ctx, req.CustomerID)
	if err != nil {
		return nil, errors.Internal(err)
	}

	vet, err := s.resolver.Resolve(ctx, req.ScheduledAt, nil, customer.IsPlus)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if vet == nil {
		// Legitimate business outcome: the caller should offer other times.
		return nil, errors.New(errors.CodeNoVetAvailable, "no veterinarian is available at this time")
	}

	scheduledAt := req.ScheduledAt
	consultation := &model.Consultation{
		ID:                uuid.New(),
		CustomerID:        req.CustomerID,
		VetID:             &vet.ID,
		PetID:             req.PetID,
		Type:              model.TypeScheduled,
		Status:            model.StatusPending,
		ScheduledAt:       &scheduledAt,
		DurationMinutes:   model.SlotDurationMinutes,
		IsPriority:        customer.IsPlus,
		IsFree:            customer.IsPlus,
		ConcernText:       req.ConcernText,
		SymptomCategories: pq.StringArray(req.SymptomCategories),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if customer.IsPlus {
		// Plus members bypass payment and are confirmed immediately.
		consultation.Status = model.StatusScheduled
	}
	consultation.RoomName = fmt.Sprintf("consult-%s", consultation.ID)

	if err := s.createNumbered(ctx, now, consultation); err != nil {
		if stderrors.Is(err, repository.ErrSlotConflict) {
			// The constraint is authoritative; re-resolving a different
			// vet is the caller's decision, never an automatic retry.
			return nil, errors.New(errors.CodeSlotTaken, "this slot has just been taken")
		}
		return nil, errors.Internal(err)
	}

	// Side effects only after the authoritative write committed.
	go s.notifyBooked(customer, vet, consultation)

	result := &Result{
		Consultation: consultation,
		IsPlusUser:   customer.IsPlus,
	}
	if !customer.IsPlus {
		result.Payment = &PaymentRequirement{
			Amount:      s.fee,
			Currency:    s.currency,
			Description: fmt.Sprintf("Video consultation %s", consultation.ConsultationNumber),
		}
	}
	return result, nil
}

// BookDirect creates a direct-connect consultation: no scheduled time, the
// row enters the matching state and a vet is attached later.
func (s *Service) BookDirect(ctx context.Context, req Request) (*Result, error) {
	pet, err := s.pets.Get(ctx, req.PetID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.New(errors.CodePetNotFound, "pet not found")
	}
	if err != nil {
		return nil, errors.Internal(err)
	}
	if pet.CustomerID != req.CustomerID {
		return nil, errors.New(errors.CodeNotPetOwner, "pet does not belong to this customer")
	}

	customer, err := s.customers.Get(ctx, req.CustomerID)
	if err != nil {
		return nil, errors.Internal(err)
	}

	now := s.clock.Now()
	consultation := &model.Consultation{
		ID:                uuid.New(),
		CustomerID:        req.CustomerID,
		PetID:             req.PetID,
		Type:              model.TypeDirectConnect,
		Status:            model.StatusMatching,
		DurationMinutes:   model.SlotDurationMinutes,
		IsPriority:        customer.IsPlus,
		IsFree:            customer.IsPlus,
		ConcernText:       req.ConcernText,
		SymptomCategories: pq.StringArray(req.SymptomCategories),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	consultation.RoomName = fmt.Sprintf("consult-%s", consultation.ID)

	if err := s.createNumbered(ctx, now, consultation); err != nil {
		return nil, errors.Internal(err)
	}

	result := &Result{
		Consultation: consultation,
		IsPlusUser:   customer.IsPlus,
	}
	if !customer.IsPlus {
		result.Payment = &PaymentRequirement{
			Amount:      s.fee,
			Currency:    s.currency,
			Description: fmt.Sprintf("Video consultation %s", consultation.ConsultationNumber),
		}
	}
	return result, nil
}

// MatchDirect attaches an on-shift vet to a matching direct-connect
// consultation and moves it to matched.
func (s *Service) MatchDirect(ctx context.Context, id uuid.UUID) (*model.Consultation, error) {
	c, err := s.consultations.Get(ctx, id)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.New(errors.CodeConsultationNotFound, "consultation not found")
	}
	if err != nil {
		return nil, errors.Internal(err)
	}
	if c.Status != model.StatusMatching {
		return nil, errors.Newf(errors.CodeInvalidTransition,
			"cannot match a consultation in status %s", c.Status)
	}

	vet, err := s.resolver.Resolve(ctx, s.clock.Now(), nil, c.IsPriority)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if vet == nil {
		return nil, errors.New(errors.CodeNoVetAvailable, "no veterinarian is on shift right now")
	}

	c.VetID = &vet.ID
	c.Status = model.StatusMatched
	if err := s.consultations.Update(ctx, c); err != nil {
		return nil, errors.Internal(err)
	}
	return c, nil
}

// createNumbered allocates the date-stamped consultation number and inserts
// the row. Two requests racing the same count collide on the number's
// uniqueness constraint; the loser re-counts, which now includes the
// winner's row, and inserts with the next number.
func (s *Service) createNumbered(ctx context.Context, now time.Time, c *model.Consultation) error {
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		number, err := s.nextConsultationNumber(ctx, now)
		if err != nil {
			return err
		}
		c.ConsultationNumber = number

		err = s.consultations.Create(ctx, c)
		if stderrors.Is(err, repository.ErrNumberConflict) {
			continue
		}
		return err
	}
	return fmt.Errorf("could not allocate a consultation number after %d attempts", maxNumberAttempts)
}

// nextConsultationNumber produces the human-readable, sequential-looking
// number. It is cosmetic: uniqueness is carried by the row id.
func (s *Service) nextConsultationNumber(ctx context.Context, now time.Time) (string, error) {
	local := now.In(s.loc)
	count, err := s.consultations.CountCreatedOn(ctx, local)
	if err != nil {
		return "", fmt.Errorf("failed to count today's consultations: %w", err)
	}
	return fmt.Sprintf("FC-%s-%04d", local.Format("20060102"), count+1), nil
}

// notifyBooked runs after the booking committed. Failures are logged and
// swallowed; they never affect the booking.
func (s *Service) notifyBooked(customer *model.Customer, vet *model.Veterinarian, c *model.Consultation) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	when := ""
	if c.ScheduledAt != nil {
		when = c.ScheduledAt.In(s.loc).Format("Mon, 2 Jan 2006 15:04")
	}

	vetNote := &model.Notification{
		RecipientID:    vet.ID,
		ConsultationID: &c.ID,
		Channel:        model.ChannelInApp,
		Subject:        "New consultation assigned",
		Content:        fmt.Sprintf("Consultation %s booked for %s", c.ConsultationNumber, when),
	}
	if err := s.notifier.Send(ctx, vetNote); err != nil {
		s.logger.Error(err, "failed to notify vet of booking",
			"consultation_id", c.ID.String(), "vet_id", vet.ID.String())
	}

	// Confirmation emails go out only once the consultation is confirmed;
	// for paying customers that happens after payment clears.
	if c.Status != model.StatusScheduled {
		return
	}

	for _, n := range []*model.Notification{
		{
			RecipientID:    customer.ID,
			ConsultationID: &c.ID,
			Channel:        model.ChannelEmail,
			Recipient:      customer.Email,
			Subject:        "Your consultation is confirmed",
			Content:        fmt.Sprintf("Your video consultation %s is confirmed for %s.", c.ConsultationNumber, when),
		},
		{
			RecipientID:    vet.ID,
			ConsultationID: &c.ID,
			Channel:        model.ChannelEmail,
			Recipient:      vet.Email,
			Subject:        "Consultation confirmed",
			Content:        fmt.Sprintf("Consultation %s is confirmed for %s.", c.ConsultationNumber, when),
		},
	} {
		if err := s.notifier.Send(ctx, n); err != nil {
			s.logger.Error(err, "failed to send booking confirmation",
				"consultation_id", c.ID.String(), "recipient_id", n.RecipientID.String())
		}
	}
}
