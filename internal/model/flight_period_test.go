package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFlightPeriodDays(t *testing.T) {
	p := &FlightPeriod{StartDate: day(2026, 3, 2), EndDate: day(2026, 3, 8)}
	assert.Equal(t, 7, p.Days())

	p = &FlightPeriod{StartDate: day(2026, 3, 2), EndDate: day(2026, 3, 2)}
	assert.Equal(t, 1, p.Days())
}

func TestFlightPeriodContains(t *testing.T) {
	p := &FlightPeriod{StartDate: day(2026, 3, 2), EndDate: day(2026, 3, 8)}

	assert.True(t, p.Contains(day(2026, 3, 2)))
	assert.True(t, p.Contains(day(2026, 3, 5)))
	assert.True(t, p.Contains(day(2026, 3, 8)))
	assert.False(t, p.Contains(day(2026, 3, 1)))
	assert.False(t, p.Contains(day(2026, 3, 9)))
}

func TestAircraftBookable(t *testing.T) {
	assert.True(t, (&Aircraft{IsActive: true, IsAvailable: true}).Bookable())
	assert.False(t, (&Aircraft{IsActive: true}).Bookable())
	assert.False(t, (&Aircraft{IsAvailable: true}).Bookable())
}
