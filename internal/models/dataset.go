package models

import (
	"fmt"
	"sort"
	"time"
)

// Dataset is an ordered, id-unique collection of activities, sorted by start
// date descending. It is immutable once built: every cache update replaces
// the whole object.
type Dataset struct {
	activities []Activity
	byId       map[int64]int
}

func NewDataset(activities []Activity) (*Dataset, error) {
	sorted := make([]Activity, len(activities))
	copy(sorted, activities)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].StartDate.Equal(sorted[j].StartDate) {
			return sorted[i].StartDate.After(sorted[j].StartDate)
		}
		return sorted[i].Id > sorted[j].Id
	})

	byId := make(map[int64]int, len(sorted))
	for i := range sorted {
		if _, dup := byId[sorted[i].Id]; dup {
			return nil, fmt.Errorf("duplicate activity id %d", sorted[i].Id)
		}
		byId[sorted[i].Id] = i
	}

	return &Dataset{activities: sorted, byId: byId}, nil
}

func EmptyDataset() *Dataset {
	return &Dataset{byId: make(map[int64]int)}
}

func (d *Dataset) Len() int {
	return len(d.activities)
}

// Activities returns the underlying records. Callers must treat the slice
// as read-only.
func (d *Dataset) Activities() []Activity {
	return d.activities
}

func (d *Dataset) Get(id int64) (Activity, bool) {
	i, ok := d.byId[id]
	if !ok {
		return Activity{}, false
	}
	return d.activities[i], true
}

// Filter returns a new dataset restricted to [from, to] (zero values mean
// unbounded) and to the given sports (empty means all).
func (d *Dataset) Filter(from, to time.Time, sports []string) *Dataset {
	wantSport := make(map[string]struct{}, len(sports))
	for _, s := range sports {
		wantSport[s] = struct{}{}
	}

	var kept []Activity
	for i := range d.activities {
		a := &d.activities[i]
		if !from.IsZero() && a.StartDate.Before(from) {
			continue
		}
		if !to.IsZero() && a.StartDate.After(to) {
			continue
		}
		if len(wantSport) > 0 {
			if _, ok := wantSport[a.Sport]; !ok {
				continue
			}
		}
		kept = append(kept, *a)
	}

	out, _ := NewDataset(kept)
	return out
}

// Sports returns the distinct sport types in the dataset, sorted.
func (d *Dataset) Sports() []string {
	seen := make(map[string]struct{})
	for i := range d.activities {
		seen[d.activities[i].Sport] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func (d *Dataset) Equal(o *Dataset) bool {
	if o == nil || len(d.activities) != len(o.activities) {
		return false
	}
	for i := range d.activities {
		if !d.activities[i].equal(&o.activities[i]) {
			return false
		}
	}
	return true
}
