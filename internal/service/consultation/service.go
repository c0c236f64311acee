package consultation

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"github.com/gerrardelliot83-create/furrie-api/internal/model"
	"github.com/gerrardelliot83-create/furrie-api/internal/repository"
	"github.com/gerrardelliot83-create/furrie-api/internal/scheduling"
	"github.com/gerrardelliot83-create/furrie-api/pkg/errors"
	"github.com/gerrardelliot83-create/furrie-api/pkg/logger"
)

// Service drives consultations through their lifecycle after booking:
// cancellation, status transitions, joining the call and completion.
type Service struct {
	consultations repository.ConsultationRepository
	clock         scheduling.Clock
	logger        *logger.Logger
}

func NewService(consultations repository.ConsultationRepository, clock scheduling.Clock, logger *logger.Logger) *Service {
	return &Service{
		consultations: consultations,
		clock:         clock,
		logger:        logger,
	}
}

// JoinResult is returned when a participant is admitted to the call.
type JoinResult struct {
	Consultation *model.Consultation `json:"consultation"`
	RoomName     string              `json:"room_name"`
}

// Get returns the consultation if it belongs to the customer.
func (s *Service) Get(ctx context.Context, customerID, id uuid.UUID) (*model.Consultation, error) {
	return s.ownedConsultation(ctx, customerID, id)
}

// ListByCustomer returns the customer's consultations, newest first.
func (s *Service) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*model.Consultation, error) {
	out, err := s.consultations.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return out, nil
}

// Cancel performs a customer-initiated cancellation. Cancelling twice is its
// own error so clients can treat it as a no-op; any other closed or active
// consultation rejects with INVALID_TRANSITION.
func (s *Service) Cancel(ctx context.Context, customerID, id uuid.UUID) (*model.Consultation, error) {
	c, err := s.ownedConsultation(ctx, customerID, id)
	if err != nil {
		return nil, err
	}

	if c.IsCancelled() {
		return nil, errors.New(errors.CodeAlreadyCancelled, "consultation is already cancelled")
	}
	if !c.CustomerCancellable() {
		return nil, errors.Newf(errors.CodeInvalidTransition,
			"cannot cancel a consultation in status %s", c.Status)
	}

	now := s.clock.Now()
	outcome := model.OutcomeCancelled
	c.Status = model.StatusClosed
	c.Outcome = &outcome
	c.EndedAt = &now

	if err := s.consultations.Update(ctx, c); err != nil {
		return nil, errors.Internal(err)
	}
	s.logger.Info("consultation cancelled",
		"consultation_id", c.ID.String(), "customer_id", customerID.String())
	return c, nil
}

// UpdateStatus applies a lifecycle transition requested by an internal
// caller, such as the payment webhook moving pending to scheduled.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, next model.ConsultationStatus) (*model.Consultation, error) {
	c, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !c.CanTransitionTo(next) {
		return nil, errors.Newf(errors.CodeInvalidTransition,
			"cannot transition from %s to %s", c.Status, next)
	}

	now := s.clock.Now()
	c.Status = next
	switch next {
	case model.StatusActive:
		if c.StartedAt == nil {
			c.StartedAt = &now
		}
	case model.StatusClosed:
		if c.EndedAt == nil {
			c.EndedAt = &now
		}
		if c.Outcome == nil {
			outcome := model.OutcomeFailed
			c.Outcome = &outcome
		}
	}

	if err := s.consultations.Update(ctx, c); err != nil {
		return nil, errors.Internal(err)
	}
	return c, nil
}

// PaymentCleared confirms a pending consultation once payment settles.
func (s *Service) PaymentCleared(ctx context.Context, id uuid.UUID) (*model.Consultation, error) {
	return s.UpdateStatus(ctx, id, model.StatusScheduled)
}

// Join admits the customer to the video room. The first successful join of a
// scheduled consultation moves it to active; joining again while active is
// allowed so a dropped participant can reconnect.
func (s *Service) Join(ctx context.Context, customerID, id uuid.UUID) (*JoinResult, error) {
	c, err := s.ownedConsultation(ctx, customerID, id)
	if err != nil {
		return nil, err
	}

	switch c.Status {
	case model.StatusScheduled, model.StatusMatched, model.StatusActive:
	default:
		return nil, errors.Newf(errors.CodeInvalidTransition,
			"cannot join a consultation in status %s", c.Status)
	}

	now := s.clock.Now()
	eligibility := c.JoinEligibility(now)
	if eligibility.TooEarly {
		return nil, errors.Newf(errors.CodeJoinTooEarly,
			"the consultation opens in %d minutes", eligibility.MinutesUntilOpen)
	}
	if eligibility.Expired {
		return nil, errors.New(errors.CodeJoinExpired, "the join window for this consultation has closed")
	}

	if c.Status != model.StatusActive {
		c.Status = model.StatusActive
		c.StartedAt = &now
		if err := s.consultations.Update(ctx, c); err != nil {
			return nil, errors.Internal(err)
		}
	}

	return &JoinResult{Consultation: c, RoomName: c.RoomName}, nil
}

// Complete closes an active consultation as successful.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*model.Consultation, error) {
	c, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.Status != model.StatusActive {
		return nil, errors.Newf(errors.CodeInvalidTransition,
			"cannot complete a consultation in status %s", c.Status)
	}

	now := s.clock.Now()
	outcome := model.OutcomeSuccess
	c.Status = model.StatusClosed
	c.Outcome = &outcome
	c.EndedAt = &now

	if err := s.consultations.Update(ctx, c); err != nil {
		return nil, errors.Internal(err)
	}
	return c, nil
}

// MarkMissed closes a scheduled consultation that nobody joined in time.
func (s *Service) MarkMissed(ctx context.Context, id uuid.UUID, now time.Time) (*model.Consultation, error) {
	c, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !c.ShouldMarkAsMissed(now) {
		return nil, errors.Newf(errors.CodeInvalidTransition,
			"consultation %s is not eligible to be marked missed", c.ConsultationNumber)
	}

	outcome := model.OutcomeMissed
	c.Status = model.StatusClosed
	c.Outcome = &outcome
	c.EndedAt = &now

	if err := s.consultations.Update(ctx, c); err != nil {
		return nil, errors.Internal(err)
	}
	return c, nil
}

func (s *Service) get(ctx context.Context, id uuid.UUID) (*model.Consultation, error) {
	c, err := s.consultations.Get(ctx, id)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.New(errors.CodeConsultationNotFound, "consultation not found")
	}
	if err != nil {
		return nil, errors.Internal(err)
	}
	return c, nil
}

func (s *Service) ownedConsultation(ctx context.Context, customerID, id uuid.UUID) (*model.Consultation, error) {
	c, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.CustomerID != customerID {
		return nil, errors.New(errors.CodeNotConsultationOwner, "consultation does not belong to this customer")
	}
	return c, nil
}
