package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSnapToGrain(t *testing.T) {
	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	t.Run("AlreadyAligned", func(t *testing.T) {
		assert.Equal(t, base, SnapToGrain(base))
	})

	t.Run("RoundsDown", func(t *testing.T) {
		assert.Equal(t, base, SnapToGrain(base.Add(2*time.Minute)))
		assert.Equal(t, base, SnapToGrain(base.Add(2*time.Minute+29*time.Second)))
	})

	t.Run("RoundsUpFromMidpoint", func(t *testing.T) {
		next := base.Add(Grain)
		assert.Equal(t, next, SnapToGrain(base.Add(2*time.Minute+30*time.Second)))
		assert.Equal(t, next, SnapToGrain(base.Add(4*time.Minute)))
	})
}

func TestAlignedToGrain(t *testing.T) {
	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	assert.True(t, AlignedToGrain(base))
	assert.True(t, AlignedToGrain(base.Add(25*time.Minute)))
	assert.False(t, AlignedToGrain(base.Add(2*time.Minute)))
	assert.False(t, AlignedToGrain(base.Add(30*time.Second)))
	assert.False(t, AlignedToGrain(base.Add(time.Nanosecond)))
}

func TestOverlapIsHalfOpen(t *testing.T) {
	a := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	b := a.Add(30 * time.Minute)
	c := b.Add(30 * time.Minute)

	// Adjacent intervals share an endpoint but do not overlap
	assert.False(t, Overlap(a, b, b, c))
	assert.False(t, Overlap(b, c, a, b))

	assert.True(t, Overlap(a, c, b, c))
	assert.True(t, Overlap(a, b, a.Add(15*time.Minute), b.Add(15*time.Minute)))
	assert.True(t, Overlap(a, c, a.Add(5*time.Minute), b)) // containment
}

func TestStartAndEndOfDay(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Madrid")
	assert.NoError(t, err)

	// 23:30 UTC is already the next civil day in Madrid (CEST, UTC+2)
	instant := time.Date(2026, 6, 1, 23, 30, 0, 0, time.UTC)

	start := StartOfDay(instant, loc)
	assert.Equal(t, time.Date(2026, 6, 2, 0, 0, 0, 0, loc), start)

	end := EndOfDay(instant, loc)
	assert.Equal(t, time.Date(2026, 6, 2, 23, 59, 59, 999000000, loc), end)
}

func TestParseClock(t *testing.T) {
	date := time.Date(2026, 6, 1, 15, 45, 0, 0, time.UTC)

	parsed, err := ParseClock("09:30", date, time.UTC)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC), parsed)

	_, err = ParseClock("930", date, time.UTC)
	assert.Error(t, err)

	_, err = ParseClock("25:00", date, time.UTC)
	assert.Error(t, err)
}
