package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePassThrough(t *testing.T) {
	dr := Resolve("2024-01-01", "not-a-date", 28, time.Now())
	assert.Equal(t, DateRange{StartDate: "2024-01-01", EndDate: "not-a-date"}, dr)
}

func TestResolveDefaultWindow(t *testing.T) {
	now := time.Date(2024, time.March, 10, 15, 4, 5, 0, time.Local)

	for _, days := range []int{1, 7, 28, 90, 366} {
		dr := Resolve("", "", days, now)
		assert.Equal(t, "2024-03-10", dr.EndDate, "days=%d", days)

		start, err := time.ParseInLocation(dateLayout, dr.StartDate, time.Local)
		require.NoError(t, err)
		end, err := time.ParseInLocation(dateLayout, dr.EndDate, time.Local)
		require.NoError(t, err)
		span := int(end.Sub(start).Round(24*time.Hour) / (24 * time.Hour))
		assert.Equal(t, days-1, span, "days=%d", days)
	}
}

func TestResolveAcrossMonthBoundary(t *testing.T) {
	now := time.Date(2024, time.March, 1, 0, 30, 0, 0, time.Local)
	dr := Resolve("", "", 28, now)
	assert.Equal(t, DateRange{StartDate: "2024-02-03", EndDate: "2024-03-01"}, dr)
}

func TestResolvePartialFallsBackToDefault(t *testing.T) {
	now := time.Date(2024, time.June, 30, 12, 0, 0, 0, time.Local)
	want := DateRange{StartDate: "2024-06-03", EndDate: "2024-06-30"}

	assert.Equal(t, want, Resolve("2024-01-01", "", 28, now))
	assert.Equal(t, want, Resolve("", "2024-01-31", 28, now))
}

func TestResolveNonPositiveDays(t *testing.T) {
	now := time.Date(2024, time.June, 30, 12, 0, 0, 0, time.Local)
	assert.Equal(t, DateRange{StartDate: "2024-06-30", EndDate: "2024-06-30"}, Resolve("", "", 0, now))
}
