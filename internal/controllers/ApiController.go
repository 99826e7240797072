package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/atomic"

	"enduro/internal/models"
	"enduro/internal/providers"
	"enduro/internal/services"
	"enduro/internal/strava"
)

type ApiController struct {
	logger  providers.Logger
	session services.SessionServiceInterface
	remote  strava.SourceInterface
	cache   providers.CacheProviderInterface
	epoch   atomic.Int64
}

func NewApiController(logger providers.Logger, session services.SessionServiceInterface, remote strava.SourceInterface, cache providers.CacheProviderInterface) *ApiController {
	return &ApiController{
		logger:  logger,
		session: session,
		remote:  remote,
		cache:   cache,
	}
}

// cacheKey prefixes keys with the refresh epoch so a forced refresh or
// purge invalidates every memoized response at once.
func (ac *ApiController) cacheKey(key string) string {
	return fmt.Sprintf("v%d:%s", ac.epoch.Load(), key)
}

func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, cacheKey string, compute func() (any, error)) {
	if data, ok := ac.cache.Get(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	result, err := compute()
	if err != nil {
		ac.writeSyncError(w, err)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ac.cache.Set(cacheKey, gson)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

// writeSyncError maps sync failures onto the caller-facing contract:
// the terminal no-data condition is an explicit 503, never an empty 200.
func (ac *ApiController) writeSyncError(w http.ResponseWriter, err error) {
	if errors.Is(err, models.ErrNoData) {
		reason := "transport-error"
		if errors.Is(err, models.ErrRateLimited) {
			reason = "rate-limited"
		}
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error":  services.StatusNoData.String(),
			"reason": reason,
		})
		return
	}
	ac.logger.Errorf(providers.TypeGet, "Unexpected sync error: %s", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func parseQueryTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

func parseSports(value string) []string {
	if value == "" {
		return nil
	}
	var sports []string
	for _, s := range strings.Split(value, ",") {
		if s = strings.TrimSpace(s); s != "" {
			sports = append(sports, s)
		}
	}
	return sports
}

// filteredDataset loads the session dataset and applies the from/to/sport
// query filters.
func (ac *ApiController) filteredDataset(r *http.Request) (*models.Dataset, error) {
	from, err := parseQueryTime(r.URL.Query().Get("from"))
	if err != nil {
		return nil, fmt.Errorf("invalid from: %w", err)
	}
	to, err := parseQueryTime(r.URL.Query().Get("to"))
	if err != nil {
		return nil, fmt.Errorf("invalid to: %w", err)
	}

	dataset, err := ac.session.GetOrLoad(r.Context())
	if err != nil {
		return nil, err
	}

	sports := parseSports(r.URL.Query().Get("sport"))
	if from.IsZero() && to.IsZero() && len(sports) == 0 {
		return dataset, nil
	}
	return dataset.Filter(from, to, sports), nil
}

type activitiesResponse struct {
	Status     string            `json:"status"`
	Count      int               `json:"count"`
	Activities []models.Activity `json:"activities"`
}

func (ac *ApiController) GetActivities(w http.ResponseWriter, r *http.Request) {
	if _, err := parseQueryTime(r.URL.Query().Get("from")); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if _, err := parseQueryTime(r.URL.Query().Get("to")); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	ac.serveFromCacheOrCompute(w, ac.cacheKey("activities?"+r.URL.RawQuery), func() (any, error) {
		dataset, err := ac.filteredDataset(r)
		if err != nil {
			return nil, err
		}
		acts := dataset.Activities()
		if acts == nil {
			acts = []models.Activity{}
		}
		return activitiesResponse{
			Status:     ac.session.Status().String(),
			Count:      dataset.Len(),
			Activities: acts,
		}, nil
	})
}

type statusResponse struct {
	Status   string `json:"status"`
	Degraded bool   `json:"degraded"`
	Records  int    `json:"records"`
	Snapshot struct {
		Path     string `json:"path"`
		Exists   bool   `json:"exists"`
		Modified string `json:"modified,omitempty"`
	} `json:"snapshot"`
}

func (ac *ApiController) GetStatus(w http.ResponseWriter, r *http.Request) {
	status := ac.session.Status()

	var resp statusResponse
	resp.Status = status.String()
	resp.Degraded = status.Degraded()
	if dataset, ok := ac.session.Last(); ok {
		resp.Records = dataset.Len()
	}

	path, modTime, exists := ac.session.SnapshotInfo()
	resp.Snapshot.Path = path
	resp.Snapshot.Exists = exists
	if exists {
		resp.Snapshot.Modified = modTime.UTC().Format(time.RFC3339)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (ac *ApiController) Refresh(w http.ResponseWriter, r *http.Request) {
	dataset, err := ac.session.InvalidateAndReload(r.Context())
	ac.epoch.Inc()
	if err != nil {
		ac.writeSyncError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": ac.session.Status().String(),
		"count":  dataset.Len(),
	})
}

func (ac *ApiController) PurgeCache(w http.ResponseWriter, r *http.Request) {
	if err := ac.session.Purge(); err != nil {
		ac.logger.Errorf(providers.TypePost, "Purge failed: %s", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	ac.epoch.Inc()
	w.WriteHeader(http.StatusNoContent)
}

func (ac *ApiController) GetWeekly(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, ac.cacheKey("weekly?"+r.URL.RawQuery), func() (any, error) {
		dataset, err := ac.filteredDataset(r)
		if err != nil {
			return nil, err
		}
		weeks := services.WeeklyStats(dataset)
		bestWeek, bestKm := services.BestWeek(weeks)
		return map[string]any{
			"weeks": weeks,
			"best_week": map[string]any{
				"year_week":   bestWeek,
				"distance_km": bestKm,
			},
		}, nil
	})
}

func (ac *ApiController) GetMonthly(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, ac.cacheKey("monthly?"+r.URL.RawQuery), func() (any, error) {
		dataset, err := ac.filteredDataset(r)
		if err != nil {
			return nil, err
		}
		months := services.MonthlyStats(dataset)
		bestMonth, bestKm := services.BestMonth(months)
		return map[string]any{
			"months": months,
			"best_month": map[string]any{
				"month":       bestMonth,
				"distance_km": bestKm,
			},
		}, nil
	})
}

func (ac *ApiController) GetYearly(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, ac.cacheKey("yearly?"+r.URL.RawQuery), func() (any, error) {
		dataset, err := ac.filteredDataset(r)
		if err != nil {
			return nil, err
		}
		return map[string]any{"years": services.YearlyStats(dataset)}, nil
	})
}

func (ac *ApiController) GetSports(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, ac.cacheKey("sports?"+r.URL.RawQuery), func() (any, error) {
		dataset, err := ac.filteredDataset(r)
		if err != nil {
			return nil, err
		}
		return map[string]any{"sports": services.SportBreakdown(dataset)}, nil
	})
}

func (ac *ApiController) GetAthlete(w http.ResponseWriter, r *http.Request) {
	athlete, err := ac.remote.Athlete(r.Context())
	if err != nil {
		if errors.Is(err, models.ErrRateLimited) {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		ac.logger.Errorf(providers.TypeGet, "Athlete fetch failed: %s", err)
		http.Error(w, "Bad Gateway", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(athlete)
}
