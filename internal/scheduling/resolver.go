package scheduling

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/gerrardelliot83-create/furrie-api/internal/model"
	"github.com/gerrardelliot83-create/furrie-api/internal/repository"
)

// Resolver picks exactly one eligible, non-conflicting veterinarian for a
// requested slot datetime.
type Resolver struct {
	vets          repository.VetRepository
	consultations repository.ConsultationRepository
	loc           *time.Location
}

func NewResolver(
	vets repository.VetRepository,
	consultations repository.ConsultationRepository,
	loc *time.Location,
) *Resolver {
	return &Resolver{
		vets:          vets,
		consultations: consultations,
		loc:           loc,
	}
}

// Resolve returns the first vet, in a stable deterministic order, whose
// schedule contains the slot and who has no conflicting non-terminal
// booking at scheduledAt. A nil vet with nil error means no vet qualifies;
// that is a normal business outcome, not a failure.
//
// exclude supports reassignment flows. priorityHint is threaded through for
// the caller's downstream flags; it does not reorder candidates.
func (r *Resolver) Resolve(
	ctx context.Context,
	scheduledAt time.Time,
	exclude map[uuid.UUID]struct{},
	priorityHint bool,
) (*model.Veterinarian, error) {
	_ = priorityHint

	vets, err := r.vets.ListEligible(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible vets: %w", err)
	}
	sort.Slice(vets, func(i, j int) bool {
		return vets[i].ID.String() < vets[j].ID.String()
	})

	local := scheduledAt.In(r.loc)
	minute := local.Hour()*60 + local.Minute()
	weekday := model.WeekdayKey(local)

	for _, vet := range vets {
		if _, skip := exclude[vet.ID]; skip {
			continue
		}
		if !coversMinute(vet.WeeklySchedule[weekday], minute) {
			continue
		}
		taken, err := r.consultations.ExistsNonTerminalAt(ctx, vet.ID, scheduledAt)
		if err != nil {
			return nil, fmt.Errorf("failed to check conflicts for vet %s: %w", vet.ID, err)
		}
		if taken {
			continue
		}
		return vet, nil
	}

	return nil, nil
}

func coversMinute(blocks []model.TimeBlock, minute int) bool {
	for _, b := range blocks {
		if b.Contains(minute) {
			return true
		}
	}
	return false
}
