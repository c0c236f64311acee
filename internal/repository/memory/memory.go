// Package memory provides in-memory implementations of the repository
// interfaces. They back unit tests and local development and enforce the
// same non-terminal slot uniqueness the database index does.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gerrardelliot83-create/furrie-api/internal/model"
	"github.com/gerrardelliot83-create/furrie-api/internal/repository"
)

// Store holds all in-memory state behind one lock.
type Store struct {
	mu            sync.RWMutex
	vets          map[uuid.UUID]*model.Veterinarian
	consultations map[uuid.UUID]*model.Consultation
	pets          map[uuid.UUID]*model.Pet
	customers     map[uuid.UUID]*model.Customer
	notifications []*model.Notification
}

func NewStore() *Store {
	return &Store{
		vets:          make(map[uuid.UUID]*model.Veterinarian),
		consultations: make(map[uuid.UUID]*model.Consultation),
		pets:          make(map[uuid.UUID]*model.Pet),
		customers:     make(map[uuid.UUID]*model.Customer),
	}
}

func (s *Store) Vets() repository.VetRepository                   { return (*vetRepo)(s) }
func (s *Store) Consultations() repository.ConsultationRepository { return (*consultationRepo)(s) }
func (s *Store) Pets() repository.PetRepository                   { return (*petRepo)(s) }
func (s *Store) Customers() repository.CustomerRepository         { return (*customerRepo)(s) }
func (s *Store) Notifications() repository.NotificationRepository { return (*notificationRepo)(s) }

// Seed helpers.

func (s *Store) AddVet(v *model.Veterinarian) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vets[v.ID] = v
}

func (s *Store) AddPet(p *model.Pet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pets[p.ID] = p
}

func (s *Store) AddCustomer(c *model.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.ID] = c
}

func (s *Store) AddConsultation(c *model.Consultation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.consultations[c.ID] = &cp
}

// NotificationLog returns a copy of all persisted notifications.
func (s *Store) NotificationLog() []*model.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

type vetRepo Store

func (r *vetRepo) ListEligible(_ context.Context) ([]*model.Veterinarian, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var vets []*model.Veterinarian
	for _, v := range r.vets {
		if v.Eligible() {
			vets = append(vets, v)
		}
	}
	sort.Slice(vets, func(i, j int) bool {
		return vets[i].ID.String() < vets[j].ID.String()
	})
	return vets, nil
}

func (r *vetRepo) Get(_ context.Context, id uuid.UUID) (*model.Veterinarian, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.vets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return v, nil
}

func (r *vetRepo) UpdateSchedule(_ context.Context, id uuid.UUID, schedule model.WeeklySchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vets[id]
	if !ok {
		return repository.ErrNotFound
	}
	v.WeeklySchedule = schedule
	v.UpdatedAt = time.Now()
	return nil
}

type consultationRepo Store

func (r *consultationRepo) Create(_ context.Context, c *model.Consultation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Same invariant as the partial unique index: at most one non-terminal
	// row per (vet_id, scheduled_at).
	if c.VetID != nil && c.ScheduledAt != nil && !c.IsTerminal() {
		for _, existing := range r.consultations {
			if existing.IsTerminal() || existing.VetID == nil || existing.ScheduledAt == nil {
				continue
			}
			if *existing.VetID == *c.VetID && existing.ScheduledAt.Equal(*c.ScheduledAt) {
				return repository.ErrSlotConflict
			}
		}
	}
	if c.ConsultationNumber != "" {
		for _, existing := range r.consultations {
			if existing.ConsultationNumber == c.ConsultationNumber {
				return repository.ErrNumberConflict
			}
		}
	}

	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	cp := *c
	r.consultations[c.ID] = &cp
	return nil
}

func (r *consultationRepo) Get(_ context.Context, id uuid.UUID) (*model.Consultation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.consultations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *consultationRepo) Update(_ context.Context, c *model.Consultation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.consultations[c.ID]; !ok {
		return repository.ErrNotFound
	}
	c.UpdatedAt = time.Now()
	cp := *c
	r.consultations[c.ID] = &cp
	return nil
}

func (r *consultationRepo) ListByCustomer(_ context.Context, customerID uuid.UUID) ([]*model.Consultation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Consultation
	for _, c := range r.consultations {
		if c.CustomerID == customerID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *consultationRepo) ListNonTerminalBetween(_ context.Context, from, to time.Time) ([]*model.Consultation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Consultation
	for _, c := range r.consultations {
		if c.IsTerminal() || c.ScheduledAt == nil {
			continue
		}
		if c.ScheduledAt.Before(from) || c.ScheduledAt.After(to) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(*out[j].ScheduledAt) })
	return out, nil
}

func (r *consultationRepo) ExistsNonTerminalAt(_ context.Context, vetID uuid.UUID, at time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.consultations {
		if c.IsTerminal() || c.VetID == nil || c.ScheduledAt == nil {
			continue
		}
		if *c.VetID == vetID && c.ScheduledAt.Equal(at) {
			return true, nil
		}
	}
	return false, nil
}

func (r *consultationRepo) ListDueForReminder(_ context.Context, kind repository.ReminderKind, from, to time.Time) ([]*model.Consultation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Consultation
	for _, c := range r.consultations {
		if c.Status != model.StatusScheduled || c.ScheduledAt == nil {
			continue
		}
		if c.ScheduledAt.Before(from) || c.ScheduledAt.After(to) {
			continue
		}
		sent := c.Reminder1hSent
		if kind == repository.Reminder15m {
			sent = c.Reminder15mSent
		}
		if sent {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(*out[j].ScheduledAt) })
	return out, nil
}

func (r *consultationRepo) SetReminderSent(_ context.Context, id uuid.UUID, kind repository.ReminderKind) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.consultations[id]
	if !ok {
		return repository.ErrNotFound
	}
	switch kind {
	case repository.Reminder1h:
		c.Reminder1hSent = true
	case repository.Reminder15m:
		c.Reminder15mSent = true
	}
	c.UpdatedAt = time.Now()
	return nil
}

func (r *consultationRepo) ListOverdue(_ context.Context, cutoff time.Time) ([]*model.Consultation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Consultation
	for _, c := range r.consultations {
		if c.Status != model.StatusScheduled || c.StartedAt != nil || c.ScheduledAt == nil {
			continue
		}
		if c.ScheduledAt.Before(cutoff) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(*out[j].ScheduledAt) })
	return out, nil
}

func (r *consultationRepo) CountCreatedOn(_ context.Context, day time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	count := 0
	for _, c := range r.consultations {
		if !c.CreatedAt.Before(start) && c.CreatedAt.Before(end) {
			count++
		}
	}
	return count, nil
}

type petRepo Store

func (r *petRepo) Get(_ context.Context, id uuid.UUID) (*model.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

type customerRepo Store

func (r *customerRepo) Get(_ context.Context, id uuid.UUID) (*model.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.customers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

type notificationRepo Store

func (r *notificationRepo) Create(_ context.Context, n *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	n.CreatedAt = now
	n.UpdatedAt = now
	cp := *n
	r.notifications = append(r.notifications, &cp)
	return nil
}

func (r *notificationRepo) Update(_ context.Context, n *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.notifications {
		if existing.ID == n.ID {
			n.UpdatedAt = time.Now()
			cp := *n
			r.notifications[i] = &cp
			return nil
		}
	}
	return repository.ErrNotFound
}
