package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinuteOfDay(t *testing.T) {
	m, err := MinuteOfDay("09:30")
	require.NoError(t, err)
	assert.Equal(t, 570, m)

	m, err = MinuteOfDay("00:00")
	require.NoError(t, err)
	assert.Equal(t, 0, m)

	_, err = MinuteOfDay("24:00")
	assert.Error(t, err)
	_, err = MinuteOfDay("nine")
	assert.Error(t, err)
	_, err = MinuteOfDay("10:30xyz")
	assert.Error(t, err)
	_, err = MinuteOfDay("10:30:00")
	assert.Error(t, err)
}

func TestTimeBlockContains(t *testing.T) {
	b := TimeBlock{Start: "09:00", End: "12:00"}
	assert.True(t, b.Contains(540))
	assert.True(t, b.Contains(690)) // 11:30, last full slot
	assert.False(t, b.Contains(700))
	assert.False(t, b.Contains(510))
}

func TestWeekdayKey(t *testing.T) {
	assert.Equal(t, "tuesday", WeekdayKey(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "sunday", WeekdayKey(time.Date(2026, 9, 6, 0, 0, 0, 0, time.UTC)))
}

func TestVeterinarianEligible(t *testing.T) {
	assert.True(t, (&Veterinarian{Verified: true, Available: true}).Eligible())
	assert.False(t, (&Veterinarian{Verified: false, Available: true}).Eligible())
	assert.False(t, (&Veterinarian{Verified: true, Available: false}).Eligible())
}
