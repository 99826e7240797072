package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestActivity_DerivedUnits(t *testing.T) {
	a := Activity{DistanceM: 12500, MovingSec: 3600}
	assert.InDelta(t, 12.5, a.DistanceKm(), 1e-9)
	assert.InDelta(t, 60.0, a.DurationMin(), 1e-9)
}

func TestActivity_YearWeek(t *testing.T) {
	// 2024-01-01 is a Monday in ISO week 1
	a := Activity{StartDate: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
	assert.Equal(t, "2024-W01", a.YearWeek())

	// 2023-01-01 is a Sunday belonging to ISO week 52 of 2022
	b := Activity{StartDate: time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC)}
	assert.Equal(t, "2022-W52", b.YearWeek())
}

func TestActivity_WeekStart(t *testing.T) {
	// Thursday 2024-01-18 -> Monday 2024-01-15
	a := Activity{StartDate: time.Date(2024, 1, 18, 23, 59, 0, 0, time.UTC)}
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), a.WeekStart())

	// Monday maps to itself
	b := Activity{StartDate: time.Date(2024, 1, 15, 0, 0, 1, 0, time.UTC)}
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), b.WeekStart())

	// Sunday maps back to the previous Monday
	c := Activity{StartDate: time.Date(2024, 1, 21, 12, 0, 0, 0, time.UTC)}
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), c.WeekStart())
}

func TestActivity_Month(t *testing.T) {
	a := Activity{StartDate: time.Date(2024, 11, 30, 23, 0, 0, 0, time.UTC)}
	assert.Equal(t, "2024-11", a.Month())
}
