package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddMonthsClamps(t *testing.T) {
	assert.Equal(t, date(2025, 2, 28), AddMonths(date(2025, 1, 31), 1))
	assert.Equal(t, date(2024, 2, 29), AddMonths(date(2024, 1, 31), 1))
	assert.Equal(t, date(2024, 11, 30), AddMonths(date(2025, 3, 30), -4))
	assert.Equal(t, date(2026, 1, 15), AddMonths(date(2025, 12, 15), 1))
}

func TestStartOfWeekIsSunday(t *testing.T) {
	got := StartOfWeek(date(2025, 6, 10))
	assert.Equal(t, time.Sunday, got.Weekday())
	assert.Equal(t, date(2025, 6, 8), got)
	assert.Equal(t, date(2025, 6, 8), StartOfWeek(date(2025, 6, 8)))
}

func TestMonthBounds(t *testing.T) {
	assert.Equal(t, date(2025, 2, 1), StartOfMonth(date(2025, 2, 17)))
	assert.Equal(t, date(2025, 2, 28), EndOfMonth(date(2025, 2, 17)))
	assert.True(t, SameDay(date(2025, 2, 17), date(2025, 2, 17).Add(23*time.Hour)))
}
