package services

import (
	"fmt"
	"sort"
	"time"

	"enduro/internal/models"
)

// Rollups are pure, stateless transforms over a dataset. They never touch
// the sync machinery; callers hand them whatever the session served.

type WeekBucket struct {
	YearWeek        string    `json:"year_week"`
	WeekStart       time.Time `json:"week_start"`
	DistanceKm      float64   `json:"total_distance_km"`
	ElevationM      float64   `json:"total_elevation_m"`
	DurationMin     float64   `json:"total_duration_min"`
	ActivityCount   int       `json:"activity_count"`
	DistanceKm4wAvg float64   `json:"distance_km_4w_avg"`
	ElevationM4wAvg float64   `json:"elevation_m_4w_avg"`
}

type YearBucket struct {
	Year           int      `json:"year"`
	DistanceKm     float64  `json:"total_distance_km"`
	ElevationM     float64  `json:"total_elevation_m"`
	DurationMin    float64  `json:"total_duration_min"`
	ActivityCount  int      `json:"activity_count"`
	DistanceKmYoY  *float64 `json:"distance_km_yoy_change,omitempty"`
	ElevationMYoY  *float64 `json:"elevation_m_yoy_change,omitempty"`
	DurationMinYoY *float64 `json:"duration_min_yoy_change,omitempty"`
}

type MonthBucket struct {
	Month         string  `json:"month"`
	DistanceKm    float64 `json:"total_distance_km"`
	ElevationM    float64 `json:"total_elevation_m"`
	DurationMin   float64 `json:"total_duration_min"`
	ActivityCount int     `json:"activity_count"`
}

type SportBucket struct {
	Sport         string  `json:"sport"`
	DistanceKm    float64 `json:"total_distance_km"`
	ElevationM    float64 `json:"total_elevation_m"`
	DurationMin   float64 `json:"total_duration_min"`
	ActivityCount int     `json:"activity_count"`
}

type totals struct {
	distanceKm  float64
	elevationM  float64
	durationMin float64
	count       int
}

func (t *totals) add(a *models.Activity) {
	t.distanceKm += a.DistanceKm()
	t.elevationM += a.ElevationM
	t.durationMin += a.DurationMin()
	t.count++
}

// WeeklyStats aggregates by ISO week, chronologically, with every week
// between the first and last activity present — empty weeks come back
// zero-filled so rolling windows stay honest. The 4-week rolling averages
// use whatever history exists for the first weeks.
func WeeklyStats(d *models.Dataset) []WeekBucket {
	acts := d.Activities()
	if len(acts) == 0 {
		return nil
	}

	byWeek := make(map[time.Time]*totals)
	var minWeek, maxWeek time.Time
	for i := range acts {
		week := acts[i].WeekStart()
		if byWeek[week] == nil {
			byWeek[week] = &totals{}
		}
		byWeek[week].add(&acts[i])
		if minWeek.IsZero() || week.Before(minWeek) {
			minWeek = week
		}
		if week.After(maxWeek) {
			maxWeek = week
		}
	}

	var out []WeekBucket
	for week := minWeek; !week.After(maxWeek); week = week.AddDate(0, 0, 7) {
		y, w := week.ISOWeek()
		bucket := WeekBucket{
			YearWeek:  fmt.Sprintf("%04d-W%02d", y, w),
			WeekStart: week,
		}
		if t := byWeek[week]; t != nil {
			bucket.DistanceKm = t.distanceKm
			bucket.ElevationM = t.elevationM
			bucket.DurationMin = t.durationMin
			bucket.ActivityCount = t.count
		}
		out = append(out, bucket)
	}

	const window = 4
	for i := range out {
		lo := max(0, i-window+1)
		var distSum, elevSum float64
		for j := lo; j <= i; j++ {
			distSum += out[j].DistanceKm
			elevSum += out[j].ElevationM
		}
		n := float64(i - lo + 1)
		out[i].DistanceKm4wAvg = distSum / n
		out[i].ElevationM4wAvg = elevSum / n
	}

	return out
}

// BestWeek returns the week with the highest total distance.
func BestWeek(weeks []WeekBucket) (string, float64) {
	if len(weeks) == 0 {
		return "N/A", 0
	}
	best := 0
	for i := range weeks {
		if weeks[i].DistanceKm > weeks[best].DistanceKm {
			best = i
		}
	}
	return weeks[best].YearWeek, weeks[best].DistanceKm
}

// YearlyStats aggregates by calendar year, ascending, with year-over-year
// percent changes from the second year on.
func YearlyStats(d *models.Dataset) []YearBucket {
	acts := d.Activities()
	if len(acts) == 0 {
		return nil
	}

	byYear := make(map[int]*totals)
	for i := range acts {
		year := acts[i].Year()
		if byYear[year] == nil {
			byYear[year] = &totals{}
		}
		byYear[year].add(&acts[i])
	}

	years := make([]int, 0, len(byYear))
	for year := range byYear {
		years = append(years, year)
	}
	sort.Ints(years)

	out := make([]YearBucket, 0, len(years))
	for _, year := range years {
		t := byYear[year]
		out = append(out, YearBucket{
			Year:          year,
			DistanceKm:    t.distanceKm,
			ElevationM:    t.elevationM,
			DurationMin:   t.durationMin,
			ActivityCount: t.count,
		})
	}

	for i := 1; i < len(out); i++ {
		out[i].DistanceKmYoY = pctChange(out[i-1].DistanceKm, out[i].DistanceKm)
		out[i].ElevationMYoY = pctChange(out[i-1].ElevationM, out[i].ElevationM)
		out[i].DurationMinYoY = pctChange(out[i-1].DurationMin, out[i].DurationMin)
	}

	return out
}

func pctChange(prev, cur float64) *float64 {
	if prev == 0 {
		return nil
	}
	v := (cur - prev) / prev * 100
	return &v
}

// MonthlyStats aggregates by calendar month, ascending.
func MonthlyStats(d *models.Dataset) []MonthBucket {
	acts := d.Activities()
	if len(acts) == 0 {
		return nil
	}

	byMonth := make(map[string]*totals)
	for i := range acts {
		month := acts[i].Month()
		if byMonth[month] == nil {
			byMonth[month] = &totals{}
		}
		byMonth[month].add(&acts[i])
	}

	months := make([]string, 0, len(byMonth))
	for month := range byMonth {
		months = append(months, month)
	}
	sort.Strings(months)

	out := make([]MonthBucket, 0, len(months))
	for _, month := range months {
		t := byMonth[month]
		out = append(out, MonthBucket{
			Month:         month,
			DistanceKm:    t.distanceKm,
			ElevationM:    t.elevationM,
			DurationMin:   t.durationMin,
			ActivityCount: t.count,
		})
	}
	return out
}

// BestMonth returns the month with the highest total distance.
func BestMonth(months []MonthBucket) (string, float64) {
	if len(months) == 0 {
		return "N/A", 0
	}
	best := 0
	for i := range months {
		if months[i].DistanceKm > months[best].DistanceKm {
			best = i
		}
	}
	return months[best].Month, months[best].DistanceKm
}

// SportBreakdown aggregates the whole dataset per sport type, sorted by
// total distance descending.
func SportBreakdown(d *models.Dataset) []SportBucket {
	acts := d.Activities()
	if len(acts) == 0 {
		return nil
	}

	bySport := make(map[string]*totals)
	for i := range acts {
		sport := acts[i].Sport
		if bySport[sport] == nil {
			bySport[sport] = &totals{}
		}
		bySport[sport].add(&acts[i])
	}

	out := make([]SportBucket, 0, len(bySport))
	for sport, t := range bySport {
		out = append(out, SportBucket{
			Sport:         sport,
			DistanceKm:    t.distanceKm,
			ElevationM:    t.elevationM,
			DurationMin:   t.durationMin,
			ActivityCount: t.count,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DistanceKm != out[j].DistanceKm {
			return out[i].DistanceKm > out[j].DistanceKm
		}
		return out[i].Sport < out[j].Sport
	})
	return out
}
