package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConsultationTransitions(t *testing.T) {
	cases := []struct {
		from    ConsultationStatus
		to      ConsultationStatus
		allowed bool
	}{
		{StatusPending, StatusScheduled, true},
		{StatusPending, StatusClosed, true},
		{StatusPending, StatusActive, false},
		{StatusScheduled, StatusActive, true},
		{StatusScheduled, StatusClosed, true},
		{StatusScheduled, StatusPending, false},
		{StatusMatching, StatusMatched, true},
		{StatusMatching, StatusClosed, true},
		{StatusMatching, StatusActive, false},
		{StatusMatched, StatusActive, true},
		{StatusMatched, StatusClosed, true},
		{StatusActive, StatusClosed, true},
		{StatusActive, StatusScheduled, false},
		{StatusClosed, StatusScheduled, false},
		{StatusClosed, StatusActive, false},
	}
	for _, tc := range cases {
		c := &Consultation{Status: tc.from}
		assert.Equal(t, tc.allowed, c.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestIsTerminal(t *testing.T) {
	for _, status := range []ConsultationStatus{
		StatusPending, StatusScheduled, StatusMatching, StatusMatched, StatusActive,
	} {
		c := &Consultation{Status: status}
		assert.False(t, c.IsTerminal(), string(status))
	}
	assert.True(t, (&Consultation{Status: StatusClosed}).IsTerminal())
}

func TestCustomerCancellable(t *testing.T) {
	cancellable := []ConsultationStatus{StatusPending, StatusScheduled, StatusMatching, StatusMatched}
	for _, status := range cancellable {
		c := &Consultation{Status: status}
		assert.True(t, c.CustomerCancellable(), string(status))
	}
	for _, status := range []ConsultationStatus{StatusActive, StatusClosed} {
		c := &Consultation{Status: status}
		assert.False(t, c.CustomerCancellable(), string(status))
	}
}

func TestJoinEligibility(t *testing.T) {
	scheduledAt := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	c := &Consultation{Status: StatusScheduled, ScheduledAt: &scheduledAt}

	t.Run("too early fifty minutes out", func(t *testing.T) {
		e := c.JoinEligibility(scheduledAt.Add(-50 * time.Minute))
		assert.False(t, e.Allowed)
		assert.True(t, e.TooEarly)
		assert.Equal(t, 50, e.MinutesUntilOpen)
	})

	t.Run("open one minute before", func(t *testing.T) {
		e := c.JoinEligibility(scheduledAt.Add(-time.Minute))
		assert.True(t, e.Allowed)
	})

	t.Run("open exactly at the boundary", func(t *testing.T) {
		e := c.JoinEligibility(scheduledAt.Add(-JoinWindowBefore))
		assert.True(t, e.Allowed)
	})

	t.Run("open ten minutes late", func(t *testing.T) {
		e := c.JoinEligibility(scheduledAt.Add(10 * time.Minute))
		assert.True(t, e.Allowed)
	})

	t.Run("expired past the window", func(t *testing.T) {
		e := c.JoinEligibility(scheduledAt.Add(46 * time.Minute))
		assert.False(t, e.Allowed)
		assert.True(t, e.Expired)
	})

	t.Run("unscheduled direct connect is always joinable", func(t *testing.T) {
		direct := &Consultation{Status: StatusMatched, Type: TypeDirectConnect}
		assert.True(t, direct.JoinEligibility(time.Now()).Allowed)
	})
}

func TestShouldMarkAsMissed(t *testing.T) {
	scheduledAt := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	t.Run("not yet past the grace period", func(t *testing.T) {
		c := &Consultation{Status: StatusScheduled, ScheduledAt: &scheduledAt}
		assert.False(t, c.ShouldMarkAsMissed(scheduledAt.Add(9*time.Minute)))
	})

	t.Run("past the grace period", func(t *testing.T) {
		c := &Consultation{Status: StatusScheduled, ScheduledAt: &scheduledAt}
		assert.True(t, c.ShouldMarkAsMissed(scheduledAt.Add(11*time.Minute)))
	})

	t.Run("started consultations are never missed", func(t *testing.T) {
		started := scheduledAt.Add(2 * time.Minute)
		c := &Consultation{Status: StatusScheduled, ScheduledAt: &scheduledAt, StartedAt: &started}
		assert.False(t, c.ShouldMarkAsMissed(scheduledAt.Add(time.Hour)))
	})

	t.Run("only scheduled rows qualify", func(t *testing.T) {
		c := &Consultation{Status: StatusClosed, ScheduledAt: &scheduledAt}
		assert.False(t, c.ShouldMarkAsMissed(scheduledAt.Add(time.Hour)))
	})
}

func TestIsCancelled(t *testing.T) {
	cancelled := OutcomeCancelled
	missed := OutcomeMissed
	assert.True(t, (&Consultation{Status: StatusClosed, Outcome: &cancelled}).IsCancelled())
	assert.False(t, (&Consultation{Status: StatusClosed, Outcome: &missed}).IsCancelled())
	assert.False(t, (&Consultation{Status: StatusScheduled}).IsCancelled())
}
