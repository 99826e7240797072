package models

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

// Activity is one workout fetched from the remote API. Records are never
// mutated after construction; a refresh replaces the whole dataset.
type Activity struct {
	Id           int64                      `json:"id"`
	Name         string                     `json:"name"`
	Sport        string                     `json:"sport"`
	StartDate    time.Time                  `json:"start_date"`
	DistanceM    float64                    `json:"distance_m"`
	ElevationM   float64                    `json:"elevation_m"`
	MovingSec    int64                      `json:"moving_sec"`
	AvgHeartrate *float64                   `json:"avg_heartrate,omitempty"`
	SufferScore  *float64                   `json:"suffer_score,omitempty"`
	AvgWatts     *float64                   `json:"avg_watts,omitempty"`
	Extra        map[string]json.RawMessage `json:"extra,omitempty"`
}

func (a *Activity) DistanceKm() float64 {
	return a.DistanceM / 1000.0
}

func (a *Activity) DurationMin() float64 {
	return float64(a.MovingSec) / 60.0
}

func (a *Activity) Year() int {
	return a.StartDate.UTC().Year()
}

// YearWeek returns the ISO week label, e.g. "2024-W05".
func (a *Activity) YearWeek() string {
	y, w := a.StartDate.UTC().ISOWeek()
	return fmt.Sprintf("%04d-W%02d", y, w)
}

// Month returns the month label, e.g. "2024-01".
func (a *Activity) Month() string {
	return a.StartDate.UTC().Format("2006-01")
}

// WeekStart returns the Monday 00:00 UTC of the activity's week.
func (a *Activity) WeekStart() time.Time {
	t := a.StartDate.UTC()
	day := t.Truncate(24 * time.Hour)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (a *Activity) equal(b *Activity) bool {
	if a.Id != b.Id || a.Name != b.Name || a.Sport != b.Sport ||
		!a.StartDate.Equal(b.StartDate) ||
		a.DistanceM != b.DistanceM || a.ElevationM != b.ElevationM ||
		a.MovingSec != b.MovingSec {
		return false
	}
	if !floatPtrEqual(a.AvgHeartrate, b.AvgHeartrate) ||
		!floatPtrEqual(a.SufferScore, b.SufferScore) ||
		!floatPtrEqual(a.AvgWatts, b.AvgWatts) {
		return false
	}
	if len(a.Extra) != len(b.Extra) {
		return false
	}
	for k, v := range a.Extra {
		other, ok := b.Extra[k]
		if !ok || string(v) != string(other) {
			return false
		}
	}
	return true
}
