package scheduling

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/gerrardelliot83-create/furrie-api/internal/model"
	"github.com/gerrardelliot83-create/furrie-api/internal/repository"
	"github.com/gerrardelliot83-create/furrie-api/pkg/logger"
)

const (
	rosterCacheKey = "eligible_vets"
	rosterCacheTTL = 30 * time.Second
)

// Aggregator answers "what slots are bookable across the whole fleet" for a
// date range, anonymized and de-duplicated across vets.
//
// The result is a snapshot, not a reservation: a returned slot can be lost
// to a concurrent booking, and that race is resolved by the booking write,
// never here.
type Aggregator struct {
	vets          repository.VetRepository
	consultations repository.ConsultationRepository
	clock         Clock
	loc           *time.Location
	roster        *cache.Cache
	logger        *logger.Logger
}

func NewAggregator(
	vets repository.VetRepository,
	consultations repository.ConsultationRepository,
	clock Clock,
	loc *time.Location,
	logger *logger.Logger,
) *Aggregator {
	return &Aggregator{
		vets:          vets,
		consultations: consultations,
		clock:         clock,
		loc:           loc,
		roster:        cache.New(rosterCacheTTL, time.Minute),
		logger:        logger,
	}
}

// DefaultRange is now+leadTime through now+bookingHorizon.
func (a *Aggregator) DefaultRange() (time.Time, time.Time) {
	now := a.clock.Now()
	return now.Add(MinLeadTime), now.Add(BookingHorizon)
}

// BookableSlots returns the merged per-day slot list for [from, to]. Slots
// in the past, inside the lead time, or backed only by occupied vets are
// filtered out; days without slots are omitted.
func (a *Aggregator) BookableSlots(ctx context.Context, from, to time.Time) ([]model.DaySlots, error) {
	now := a.clock.Now()
	earliest := now.Add(MinLeadTime)
	if from.Before(earliest) {
		from = earliest
	}
	if horizon := now.Add(BookingHorizon); to.After(horizon) {
		to = horizon
	}
	if !to.After(from) {
		return nil, nil
	}

	vets, err := a.eligibleVets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load eligible vets: %w", err)
	}

	occupied, err := a.occupiedByVet(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load occupied slots: %w", err)
	}

	// Dedup across vets: the caller never learns which or how many vets
	// back a given timestamp.
	merged := make(map[int64]model.CandidateSlot)
	byDay := make(map[string][]int64)

	localFrom := from.In(a.loc)
	localTo := to.In(a.loc)
	for day := truncateToDay(localFrom); !day.After(localTo); day = day.AddDate(0, 0, 1) {
		for _, vet := range vets {
			for _, block := range vet.BlocksFor(day) {
				slots, err := ExpandBlock(block, day, a.loc)
				if err != nil {
					// Bad stored block: skip it, the rest of the
					// schedule is still serviceable.
					a.logger.Error(err, "skipping unexpandable block",
						"vet_id", vet.ID.String(), "day", day.Format("2006-01-02"))
					continue
				}
				for _, slot := range slots {
					dt := slot.DatetimeUTC
					if dt.Before(earliest) || dt.Before(from) || dt.After(to) {
						continue
					}
					if isOccupied(occupied[vet.ID], dt) {
						continue
					}
					key := dt.Unix()
					if _, seen := merged[key]; seen {
						continue
					}
					merged[key] = slot
					dayKey := dt.In(a.loc).Format("2006-01-02")
					byDay[dayKey] = append(byDay[dayKey], key)
				}
			}
		}
	}

	days := make([]model.DaySlots, 0, len(byDay))
	for date, keys := range byDay {
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		slots := make([]model.CandidateSlot, 0, len(keys))
		for _, k := range keys {
			slots = append(slots, merged[k])
		}
		days = append(days, model.DaySlots{Date: date, Slots: slots})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	return days, nil
}

// eligibleVets reads through a short-TTL cache; the roster is read-mostly
// and a slightly stale copy only widens the race the booking write already
// resolves.
func (a *Aggregator) eligibleVets(ctx context.Context) ([]*model.Veterinarian, error) {
	if cached, ok := a.roster.Get(rosterCacheKey); ok {
		return cached.([]*model.Veterinarian), nil
	}
	vets, err := a.vets.ListEligible(ctx)
	if err != nil {
		return nil, err
	}
	a.roster.Set(rosterCacheKey, vets, cache.DefaultExpiration)
	return vets, nil
}

func (a *Aggregator) occupiedByVet(ctx context.Context, from, to time.Time) (map[uuid.UUID][]time.Time, error) {
	bookings, err := a.consultations.ListNonTerminalBetween(ctx,
		from.Add(-OccupiedTolerance), to.Add(OccupiedTolerance))
	if err != nil {
		return nil, err
	}
	occupied := make(map[uuid.UUID][]time.Time)
	for _, b := range bookings {
		if b.VetID == nil || b.ScheduledAt == nil {
			continue
		}
		occupied[*b.VetID] = append(occupied[*b.VetID], *b.ScheduledAt)
	}
	return occupied, nil
}

// isOccupied applies the tolerance window: an occupied timestamp blocks a
// candidate within OccupiedTolerance of it.
func isOccupied(taken []time.Time, dt time.Time) bool {
	for _, t := range taken {
		d := dt.Sub(t)
		if d < 0 {
			d = -d
		}
		if d <= OccupiedTolerance {
			return true
		}
	}
	return false
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
