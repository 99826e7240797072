package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enduro/internal/models"
)

func mustDataset(t *testing.T, acts []models.Activity) *models.Dataset {
	t.Helper()
	ds, err := models.NewDataset(acts)
	require.NoError(t, err)
	return ds
}

func rollupActivity(id int64, sport string, start time.Time, distanceM, elevationM float64, movingSec int64) models.Activity {
	return models.Activity{
		Id:         id,
		Name:       "Workout",
		Sport:      sport,
		StartDate:  start,
		DistanceM:  distanceM,
		ElevationM: elevationM,
		MovingSec:  movingSec,
	}
}

func TestWeeklyStats_ZeroFillsGapWeeks(t *testing.T) {
	// activities in weeks of Jan 1 and Jan 22, 2024; two empty weeks between
	ds := mustDataset(t, []models.Activity{
		rollupActivity(1, "Run", time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC), 10000, 100, 3600),
		rollupActivity(2, "Run", time.Date(2024, 1, 24, 8, 0, 0, 0, time.UTC), 20000, 200, 7200),
	})

	weeks := WeeklyStats(ds)
	require.Len(t, weeks, 4)

	assert.Equal(t, "2024-W01", weeks[0].YearWeek)
	assert.Equal(t, 10.0, weeks[0].DistanceKm)
	assert.Equal(t, 1, weeks[0].ActivityCount)

	assert.Equal(t, "2024-W02", weeks[1].YearWeek)
	assert.Zero(t, weeks[1].DistanceKm)
	assert.Zero(t, weeks[1].ActivityCount)

	assert.Equal(t, "2024-W03", weeks[2].YearWeek)
	assert.Zero(t, weeks[2].ActivityCount)

	assert.Equal(t, "2024-W04", weeks[3].YearWeek)
	assert.Equal(t, 20.0, weeks[3].DistanceKm)
}

func TestWeeklyStats_RollingAverageUsesAvailableHistory(t *testing.T) {
	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC) // Monday
	ds := mustDataset(t, []models.Activity{
		rollupActivity(1, "Run", base, 10000, 0, 3600),
		rollupActivity(2, "Run", base.AddDate(0, 0, 7), 20000, 0, 3600),
		rollupActivity(3, "Run", base.AddDate(0, 0, 14), 30000, 0, 3600),
		rollupActivity(4, "Run", base.AddDate(0, 0, 21), 40000, 0, 3600),
		rollupActivity(5, "Run", base.AddDate(0, 0, 28), 50000, 0, 3600),
	})

	weeks := WeeklyStats(ds)
	require.Len(t, weeks, 5)

	// first week averages over itself only, then the window grows to 4
	assert.InDelta(t, 10.0, weeks[0].DistanceKm4wAvg, 1e-9)
	assert.InDelta(t, 15.0, weeks[1].DistanceKm4wAvg, 1e-9)
	assert.InDelta(t, 20.0, weeks[2].DistanceKm4wAvg, 1e-9)
	assert.InDelta(t, 25.0, weeks[3].DistanceKm4wAvg, 1e-9)
	assert.InDelta(t, 35.0, weeks[4].DistanceKm4wAvg, 1e-9)
}

func TestWeeklyStats_EmptyDataset(t *testing.T) {
	assert.Nil(t, WeeklyStats(models.EmptyDataset()))
}

func TestBestWeek(t *testing.T) {
	ds := mustDataset(t, []models.Activity{
		rollupActivity(1, "Run", time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC), 10000, 0, 3600),
		rollupActivity(2, "Run", time.Date(2024, 1, 9, 8, 0, 0, 0, time.UTC), 42000, 0, 3600),
	})

	week, distance := BestWeek(WeeklyStats(ds))
	assert.Equal(t, "2024-W02", week)
	assert.InDelta(t, 42.0, distance, 1e-9)

	week, distance = BestWeek(nil)
	assert.Equal(t, "N/A", week)
	assert.Zero(t, distance)
}

func TestYearlyStats_YearOverYearChange(t *testing.T) {
	ds := mustDataset(t, []models.Activity{
		rollupActivity(1, "Run", time.Date(2022, 6, 1, 8, 0, 0, 0, time.UTC), 100000, 1000, 36000),
		rollupActivity(2, "Run", time.Date(2023, 6, 1, 8, 0, 0, 0, time.UTC), 150000, 500, 36000),
	})

	years := YearlyStats(ds)
	require.Len(t, years, 2)

	assert.Equal(t, 2022, years[0].Year)
	assert.Nil(t, years[0].DistanceKmYoY)

	assert.Equal(t, 2023, years[1].Year)
	require.NotNil(t, years[1].DistanceKmYoY)
	assert.InDelta(t, 50.0, *years[1].DistanceKmYoY, 1e-9)
	require.NotNil(t, years[1].ElevationMYoY)
	assert.InDelta(t, -50.0, *years[1].ElevationMYoY, 1e-9)
}

func TestYearlyStats_ZeroBaselineHasNoChange(t *testing.T) {
	ds := mustDataset(t, []models.Activity{
		rollupActivity(1, "Yoga", time.Date(2022, 6, 1, 8, 0, 0, 0, time.UTC), 0, 0, 3600),
		rollupActivity(2, "Run", time.Date(2023, 6, 1, 8, 0, 0, 0, time.UTC), 10000, 0, 3600),
	})

	years := YearlyStats(ds)
	require.Len(t, years, 2)
	// distance grew from zero; a percent change is undefined, not infinite
	assert.Nil(t, years[1].DistanceKmYoY)
	assert.NotNil(t, years[1].DurationMinYoY)
}

func TestMonthlyStats(t *testing.T) {
	ds := mustDataset(t, []models.Activity{
		rollupActivity(1, "Run", time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC), 10000, 100, 3600),
		rollupActivity(2, "Run", time.Date(2024, 1, 20, 8, 0, 0, 0, time.UTC), 5000, 50, 1800),
		rollupActivity(3, "Ride", time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC), 40000, 400, 5400),
	})

	months := MonthlyStats(ds)
	require.Len(t, months, 2)

	assert.Equal(t, "2024-01", months[0].Month)
	assert.InDelta(t, 15.0, months[0].DistanceKm, 1e-9)
	assert.Equal(t, 2, months[0].ActivityCount)

	assert.Equal(t, "2024-03", months[1].Month)
	assert.InDelta(t, 40.0, months[1].DistanceKm, 1e-9)

	month, distance := BestMonth(months)
	assert.Equal(t, "2024-03", month)
	assert.InDelta(t, 40.0, distance, 1e-9)
}

func TestSportBreakdown_SortedByDistance(t *testing.T) {
	ds := mustDataset(t, []models.Activity{
		rollupActivity(1, "Run", time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC), 10000, 100, 3600),
		rollupActivity(2, "Ride", time.Date(2024, 1, 6, 8, 0, 0, 0, time.UTC), 60000, 600, 7200),
		rollupActivity(3, "Run", time.Date(2024, 1, 7, 8, 0, 0, 0, time.UTC), 12000, 120, 4000),
		rollupActivity(4, "Swim", time.Date(2024, 1, 8, 8, 0, 0, 0, time.UTC), 2000, 0, 2400),
	})

	sports := SportBreakdown(ds)
	require.Len(t, sports, 3)

	assert.Equal(t, "Ride", sports[0].Sport)
	assert.Equal(t, "Run", sports[1].Sport)
	assert.InDelta(t, 22.0, sports[1].DistanceKm, 1e-9)
	assert.Equal(t, 2, sports[1].ActivityCount)
	assert.Equal(t, "Swim", sports[2].Sport)
}

func TestStatusStrings(t *testing.T) {
	assert.Equal(t, "served-fresh", StatusFresh.String())
	assert.Equal(t, "served-from-cache", StatusFromCache.String())
	assert.Equal(t, "served-from-cache-degraded-due-to-rate-limit", StatusDegradedRateLimit.String())
	assert.Equal(t, "served-from-cache-degraded-due-to-transport-error", StatusDegradedTransport.String())
	assert.Equal(t, "no-data-available", StatusNoData.String())
	assert.Equal(t, "unknown", StatusUnknown.String())

	assert.True(t, StatusDegradedRateLimit.Degraded())
	assert.True(t, StatusDegradedTransport.Degraded())
	assert.False(t, StatusFresh.Degraded())
	assert.False(t, StatusFromCache.Degraded())
}
