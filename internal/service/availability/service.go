package availability

import (
	"context"
	stderrors "errors"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/gerrardelliot83-create/furrie-api/internal/model"
	"github.com/gerrardelliot83-create/furrie-api/internal/repository"
	"github.com/gerrardelliot83-create/furrie-api/pkg/errors"
	"github.com/gerrardelliot83-create/furrie-api/pkg/logger"
)

var weekdays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

var validate = validator.New()

// Service is the vet-facing schedule editor. Schedules are validated as a
// whole and replaced atomically; there is no per-block patching.
type Service struct {
	vets   repository.VetRepository
	logger *logger.Logger
}

func NewService(vets repository.VetRepository, logger *logger.Logger) *Service {
	return &Service{vets: vets, logger: logger}
}

// GetSchedule returns the vet's current weekly schedule.
func (s *Service) GetSchedule(ctx context.Context, vetID uuid.UUID) (model.WeeklySchedule, error) {
	vet, err := s.vets.Get(ctx, vetID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.New(errors.CodeUnauthorized, "unknown veterinarian")
	}
	if err != nil {
		return nil, errors.Internal(err)
	}
	return vet.WeeklySchedule, nil
}

// UpdateSchedule validates and stores a full weekly schedule. Existing
// bookings are unaffected: availability governs future slot expansion only.
func (s *Service) UpdateSchedule(ctx context.Context, vetID uuid.UUID, schedule model.WeeklySchedule) error {
	if err := Validate(schedule); err != nil {
		return err
	}

	if err := s.vets.UpdateSchedule(ctx, vetID, schedule); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.New(errors.CodeUnauthorized, "unknown veterinarian")
		}
		return errors.Internal(err)
	}
	s.logger.Info("vet schedule updated", "vet_id", vetID.String())
	return nil
}

// Validate checks every block of the schedule: known weekday keys, parseable
// HH:MM bounds, slot-aligned starts, positive extent and no overlapping
// blocks within a day.
func Validate(schedule model.WeeklySchedule) error {
	for day, blocks := range schedule {
		if !weekdays[day] {
			return errors.Newf(errors.CodeInvalidSchedule, "unknown weekday %q", day)
		}

		type span struct{ start, end int }
		spans := make([]span, 0, len(blocks))
		for _, b := range blocks {
			if err := validate.Struct(b); err != nil {
				return errors.Wrap(errors.CodeInvalidSchedule, "incomplete time block", err)
			}
			start, end, err := b.Bounds()
			if err != nil {
				return errors.Wrap(errors.CodeInvalidSchedule, "invalid time block", err)
			}
			if end <= start {
				return errors.Newf(errors.CodeInvalidSchedule,
					"%s: block %s-%s must end after it starts", day, b.Start, b.End)
			}
			if start%model.SlotDurationMinutes != 0 {
				return errors.Newf(errors.CodeInvalidSchedule,
					"%s: block start %s must align to a %d-minute boundary", day, b.Start, model.SlotDurationMinutes)
			}
			spans = append(spans, span{start, end})
		}

		sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
		for i := 1; i < len(spans); i++ {
			if spans[i].start < spans[i-1].end {
				return errors.Newf(errors.CodeInvalidSchedule, "%s: blocks overlap", day)
			}
		}
	}
	return nil
}
