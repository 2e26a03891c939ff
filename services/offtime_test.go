package services

import (
	"testing"
	"time"

	"rivo_booking_go/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestComputeOffTimes(t *testing.T) {
	cfg := testTenantConfig("svc")
	loc := time.UTC

	monday := time.Date(2027, 6, 7, 0, 0, 0, 0, loc)
	sunday := time.Date(2027, 6, 6, 0, 0, 0, 0, loc)

	t.Run("ClosedDayCoversWholeDay", func(t *testing.T) {
		offTimes, err := ComputeOffTimes(cfg, sunday, sunday)
		assert.NoError(t, err)
		assert.Len(t, offTimes, 1)
		assert.Equal(t, OffTimeClosedDay, offTimes[0].Type)
		assert.Equal(t, "Closed", offTimes[0].Reason)
		assert.Equal(t, StartOfDay(sunday, loc), offTimes[0].Start)
		assert.Equal(t, EndOfDay(sunday, loc), offTimes[0].End)
	})

	t.Run("WorkingDayHasBeforeBreakAfter", func(t *testing.T) {
		offTimes, err := ComputeOffTimes(cfg, monday, monday)
		assert.NoError(t, err)
		assert.Len(t, offTimes, 3)

		assert.Equal(t, OffTimeClosedDay, offTimes[0].Type)
		assert.Equal(t, "Before business hours", offTimes[0].Reason)
		assert.Equal(t, time.Date(2027, 6, 7, 9, 0, 0, 0, loc), offTimes[0].End)

		assert.Equal(t, OffTimeBreak, offTimes[1].Type)
		assert.Equal(t, time.Date(2027, 6, 7, 13, 0, 0, 0, loc), offTimes[1].Start)
		assert.Equal(t, time.Date(2027, 6, 7, 14, 0, 0, 0, loc), offTimes[1].End)

		assert.Equal(t, "After business hours", offTimes[2].Reason)
		assert.Equal(t, time.Date(2027, 6, 7, 17, 0, 0, 0, loc), offTimes[2].Start)
	})

	t.Run("ClosedExceptionBecomesHoliday", func(t *testing.T) {
		cfgEx := testTenantConfig("svc")
		cfgEx.AvailabilityExceptions = []models.ExceptionConfig{
			{Date: "2027-06-07", Closed: true, Reason: "Bank holiday"},
		}

		offTimes, err := ComputeOffTimes(cfgEx, monday, monday)
		assert.NoError(t, err)
		assert.Len(t, offTimes, 1)
		assert.Equal(t, OffTimeHoliday, offTimes[0].Type)
		assert.Equal(t, "Bank holiday", offTimes[0].Reason)
	})

	t.Run("ModifiedHoursExceptionReplacesTemplate", func(t *testing.T) {
		cfgEx := testTenantConfig("svc")
		cfgEx.AvailabilityExceptions = []models.ExceptionConfig{
			{Date: "2027-06-07", Open: "10:00", Close: "12:00"},
		}

		offTimes, err := ComputeOffTimes(cfgEx, monday, monday)
		assert.NoError(t, err)
		// Replacement window leaves only before/after intervals, no break
		assert.Len(t, offTimes, 2)
		assert.Equal(t, OffTimeException, offTimes[0].Type)
		assert.Equal(t, time.Date(2027, 6, 7, 10, 0, 0, 0, loc), offTimes[0].End)
		assert.Equal(t, OffTimeException, offTimes[1].Type)
		assert.Equal(t, time.Date(2027, 6, 7, 12, 0, 0, 0, loc), offTimes[1].Start)
	})

	t.Run("MultipleDays", func(t *testing.T) {
		offTimes, err := ComputeOffTimes(cfg, monday, monday.AddDate(0, 0, 1))
		assert.NoError(t, err)
		assert.Len(t, offTimes, 6) // two working days, three intervals each
	})
}

func TestIsTimeAvailable(t *testing.T) {
	cfg := testTenantConfig("svc")
	monday := time.Date(2027, 6, 7, 0, 0, 0, 0, time.UTC)

	offTimes, err := ComputeOffTimes(cfg, monday, monday)
	assert.NoError(t, err)

	at := func(h, m int) time.Time {
		return time.Date(2027, 6, 7, h, m, 0, 0, time.UTC)
	}

	assert.True(t, IsTimeAvailable(at(10, 0), at(10, 30), offTimes))
	assert.False(t, IsTimeAvailable(at(8, 30), at(9, 30), offTimes))
	assert.False(t, IsTimeAvailable(at(12, 45), at(13, 15), offTimes))

	// Half-open: ending exactly at a break start is fine
	assert.True(t, IsTimeAvailable(at(12, 30), at(13, 0), offTimes))
	// And starting exactly when the break ends
	assert.True(t, IsTimeAvailable(at(14, 0), at(14, 30), offTimes))

	intersecting := IntersectingOffTimes(at(12, 45), at(13, 15), offTimes)
	assert.Len(t, intersecting, 1)
	assert.Equal(t, OffTimeBreak, intersecting[0].Type)
}

func TestOffTimeCache(t *testing.T) {
	cache := NewOffTimeCache()
	tenantID := uuid.New().String()
	cfg := testTenantConfig("svc")
	monday := time.Date(2027, 6, 7, 0, 0, 0, 0, time.UTC)

	first, err := cache.DayOffTimes(tenantID, cfg, monday)
	assert.NoError(t, err)
	assert.Len(t, first, 3)

	// A config change without invalidation still serves the memoized value
	cfg.Availability[1].Enabled = false
	stale, err := cache.DayOffTimes(tenantID, cfg, monday)
	assert.NoError(t, err)
	assert.Len(t, stale, 3)

	cache.Invalidate(tenantID)
	fresh, err := cache.DayOffTimes(tenantID, cfg, monday)
	assert.NoError(t, err)
	assert.Len(t, fresh, 1)
	assert.Equal(t, OffTimeClosedDay, fresh[0].Type)
}
