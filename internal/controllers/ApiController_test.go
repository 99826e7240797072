package controllers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enduro/internal/models"
	"enduro/internal/services"
	"enduro/internal/testutil"
)

type mockSession struct {
	dataset *models.Dataset
	status  services.Status
	err     error

	getOrLoadCalls  int
	invalidateCalls int
	purgeCalls      int
	purgeErr        error

	snapshotPath   string
	snapshotMod    time.Time
	snapshotExists bool
}

func (m *mockSession) GetOrLoad(_ context.Context) (*models.Dataset, error) {
	m.getOrLoadCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.dataset, nil
}

func (m *mockSession) InvalidateAndReload(_ context.Context) (*models.Dataset, error) {
	m.invalidateCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.dataset, nil
}

func (m *mockSession) Purge() error {
	m.purgeCalls++
	return m.purgeErr
}

func (m *mockSession) Last() (*models.Dataset, bool) {
	if m.dataset == nil {
		return nil, false
	}
	return m.dataset, true
}

func (m *mockSession) Status() services.Status {
	return m.status
}

func (m *mockSession) SnapshotInfo() (string, time.Time, bool) {
	return m.snapshotPath, m.snapshotMod, m.snapshotExists
}

var controllerStart = time.Date(2024, 5, 6, 7, 0, 0, 0, time.UTC)

func newApiTestController(session *mockSession) (*ApiController, *testutil.MockCache) {
	cache := testutil.NewMockCache()
	return NewApiController(&testutil.MockLogger{}, session, &testutil.MockRemote{}, cache), cache
}

func TestApiController_GetActivities(t *testing.T) {
	session := &mockSession{
		dataset: testutil.MakeDataset([]int64{1, 2, 3}, "Run", controllerStart),
		status:  services.StatusFresh,
	}
	controller, _ := newApiTestController(session)

	req := httptest.NewRequest(http.MethodGet, "/activities", nil)
	rec := httptest.NewRecorder()
	controller.GetActivities(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		Status     string            `json:"status"`
		Count      int               `json:"count"`
		Activities []models.Activity `json:"activities"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "served-fresh", resp.Status)
	assert.Equal(t, 3, resp.Count)
	assert.Len(t, resp.Activities, 3)
}

func TestApiController_GetActivitiesFilters(t *testing.T) {
	acts := []models.Activity{
		{Id: 1, Name: "A", Sport: "Run", StartDate: time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC), DistanceM: 1000, MovingSec: 600},
		{Id: 2, Name: "B", Sport: "Ride", StartDate: time.Date(2024, 2, 10, 8, 0, 0, 0, time.UTC), DistanceM: 2000, MovingSec: 1200},
		{Id: 3, Name: "C", Sport: "Run", StartDate: time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC), DistanceM: 3000, MovingSec: 1800},
	}
	ds, err := models.NewDataset(acts)
	require.NoError(t, err)
	session := &mockSession{dataset: ds, status: services.StatusFromCache}
	controller, _ := newApiTestController(session)

	req := httptest.NewRequest(http.MethodGet, "/activities?from=2024-02-01&sport=Run", nil)
	rec := httptest.NewRecorder()
	controller.GetActivities(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Count      int               `json:"count"`
		Activities []models.Activity `json:"activities"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, int64(3), resp.Activities[0].Id)
}

func TestApiController_GetActivitiesBadDate(t *testing.T) {
	session := &mockSession{dataset: models.EmptyDataset(), status: services.StatusFresh}
	controller, _ := newApiTestController(session)

	req := httptest.NewRequest(http.MethodGet, "/activities?from=notadate", nil)
	rec := httptest.NewRecorder()
	controller.GetActivities(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, session.getOrLoadCalls)
}

func TestApiController_GetActivitiesEmptyIsJSONArray(t *testing.T) {
	session := &mockSession{dataset: models.EmptyDataset(), status: services.StatusFresh}
	controller, _ := newApiTestController(session)

	req := httptest.NewRequest(http.MethodGet, "/activities", nil)
	rec := httptest.NewRecorder()
	controller.GetActivities(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"activities":[]`)
}

func TestApiController_GetActivitiesNoData(t *testing.T) {
	session := &mockSession{
		status: services.StatusNoData,
		err:    fmt.Errorf("%w: remote fetch failed: %w", models.ErrNoData, models.ErrRateLimited),
	}
	controller, _ := newApiTestController(session)

	req := httptest.NewRequest(http.MethodGet, "/activities", nil)
	rec := httptest.NewRecorder()
	controller.GetActivities(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "no-data-available", resp["error"])
	assert.Equal(t, "rate-limited", resp["reason"])
}

func TestApiController_GetActivitiesNoDataTransport(t *testing.T) {
	session := &mockSession{
		status: services.StatusNoData,
		err: fmt.Errorf("%w: remote fetch failed: %w", models.ErrNoData,
			&models.TransportError{Op: "activities page", Status: 502}),
	}
	controller, _ := newApiTestController(session)

	req := httptest.NewRequest(http.MethodGet, "/activities", nil)
	rec := httptest.NewRecorder()
	controller.GetActivities(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "transport-error", resp["reason"])
}

func TestApiController_ResponsesAreMemoized(t *testing.T) {
	session := &mockSession{
		dataset: testutil.MakeDataset([]int64{1}, "Run", controllerStart),
		status:  services.StatusFresh,
	}
	controller, cache := newApiTestController(session)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/activities", nil)
		rec := httptest.NewRecorder()
		controller.GetActivities(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, 1, session.getOrLoadCalls)
	assert.Len(t, cache.Data, 1)
}

func TestApiController_ErrorsAreNotCached(t *testing.T) {
	session := &mockSession{status: services.StatusNoData, err: models.ErrNoData}
	controller, cache := newApiTestController(session)

	req := httptest.NewRequest(http.MethodGet, "/activities", nil)
	rec := httptest.NewRecorder()
	controller.GetActivities(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Empty(t, cache.Data)
}

func TestApiController_RefreshRotatesCacheEpoch(t *testing.T) {
	session := &mockSession{
		dataset: testutil.MakeDataset([]int64{1}, "Run", controllerStart),
		status:  services.StatusFresh,
	}
	controller, _ := newApiTestController(session)

	req := httptest.NewRequest(http.MethodGet, "/activities", nil)
	controller.GetActivities(httptest.NewRecorder(), req)
	require.Equal(t, 1, session.getOrLoadCalls)

	refreshReq := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	refreshRec := httptest.NewRecorder()
	controller.Refresh(refreshRec, refreshReq)
	require.Equal(t, http.StatusOK, refreshRec.Code)
	assert.Equal(t, 1, session.invalidateCalls)

	// stale epoch keys no longer match; the next read recomputes
	controller.GetActivities(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/activities", nil))
	assert.Equal(t, 2, session.getOrLoadCalls)
}

func TestApiController_RefreshFailure(t *testing.T) {
	session := &mockSession{status: services.StatusNoData, err: models.ErrNoData}
	controller, _ := newApiTestController(session)

	rec := httptest.NewRecorder()
	controller.Refresh(rec, httptest.NewRequest(http.MethodPost, "/refresh", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestApiController_PurgeCache(t *testing.T) {
	session := &mockSession{
		dataset: testutil.MakeDataset([]int64{1}, "Run", controllerStart),
		status:  services.StatusFresh,
	}
	controller, _ := newApiTestController(session)

	controller.GetActivities(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/activities", nil))
	require.Equal(t, 1, session.getOrLoadCalls)

	rec := httptest.NewRecorder()
	controller.PurgeCache(rec, httptest.NewRequest(http.MethodPost, "/cache/purge", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, session.purgeCalls)

	controller.GetActivities(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/activities", nil))
	assert.Equal(t, 2, session.getOrLoadCalls)
}

func TestApiController_PurgeCacheFailure(t *testing.T) {
	session := &mockSession{purgeErr: assert.AnError}
	controller, _ := newApiTestController(session)

	rec := httptest.NewRecorder()
	controller.PurgeCache(rec, httptest.NewRequest(http.MethodPost, "/cache/purge", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestApiController_GetStatus(t *testing.T) {
	mod := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)
	session := &mockSession{
		dataset:        testutil.MakeDataset([]int64{1, 2}, "Run", controllerStart),
		status:         services.StatusDegradedRateLimit,
		snapshotPath:   "/var/lib/enduro/activities.snap",
		snapshotMod:    mod,
		snapshotExists: true,
	}
	controller, _ := newApiTestController(session)

	rec := httptest.NewRecorder()
	controller.GetStatus(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status   string `json:"status"`
		Degraded bool   `json:"degraded"`
		Records  int    `json:"records"`
		Snapshot struct {
			Path     string `json:"path"`
			Exists   bool   `json:"exists"`
			Modified string `json:"modified"`
		} `json:"snapshot"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "served-from-cache-degraded-due-to-rate-limit", resp.Status)
	assert.True(t, resp.Degraded)
	assert.Equal(t, 2, resp.Records)
	assert.Equal(t, "/var/lib/enduro/activities.snap", resp.Snapshot.Path)
	assert.True(t, resp.Snapshot.Exists)
	assert.Equal(t, "2024-05-06T12:00:00Z", resp.Snapshot.Modified)
}

func TestApiController_GetWeekly(t *testing.T) {
	session := &mockSession{
		dataset: testutil.MakeDataset([]int64{1, 2, 3}, "Run", controllerStart),
		status:  services.StatusFresh,
	}
	controller, _ := newApiTestController(session)

	rec := httptest.NewRecorder()
	controller.GetWeekly(rec, httptest.NewRequest(http.MethodGet, "/weekly", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Weeks    []services.WeekBucket `json:"weeks"`
		BestWeek struct {
			YearWeek   string  `json:"year_week"`
			DistanceKm float64 `json:"distance_km"`
		} `json:"best_week"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Weeks)
	assert.NotEqual(t, "N/A", resp.BestWeek.YearWeek)
}

func TestApiController_GetSports(t *testing.T) {
	session := &mockSession{
		dataset: testutil.MakeDataset([]int64{1, 2}, "Ride", controllerStart),
		status:  services.StatusFresh,
	}
	controller, _ := newApiTestController(session)

	rec := httptest.NewRecorder()
	controller.GetSports(rec, httptest.NewRequest(http.MethodGet, "/sports", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Sports []services.SportBucket `json:"sports"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Sports, 1)
	assert.Equal(t, "Ride", resp.Sports[0].Sport)
	assert.Equal(t, 2, resp.Sports[0].ActivityCount)
}

func TestApiController_GetAthlete(t *testing.T) {
	remote := &testutil.MockRemote{
		AthleteFn: func() (json.RawMessage, error) {
			return json.RawMessage(`{"id":42,"username":"climber"}`), nil
		},
	}
	controller := NewApiController(&testutil.MockLogger{}, &mockSession{}, remote, testutil.NewMockCache())

	rec := httptest.NewRecorder()
	controller.GetAthlete(rec, httptest.NewRequest(http.MethodGet, "/athlete", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":42,"username":"climber"}`, rec.Body.String())
}

func TestApiController_GetAthleteRateLimited(t *testing.T) {
	remote := &testutil.MockRemote{
		AthleteFn: func() (json.RawMessage, error) { return nil, models.ErrRateLimited },
	}
	controller := NewApiController(&testutil.MockLogger{}, &mockSession{}, remote, testutil.NewMockCache())

	rec := httptest.NewRecorder()
	controller.GetAthlete(rec, httptest.NewRequest(http.MethodGet, "/athlete", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestApiController_GetAthleteTransportFailure(t *testing.T) {
	remote := &testutil.MockRemote{
		AthleteFn: func() (json.RawMessage, error) {
			return nil, &models.TransportError{Op: "athlete", Status: 500}
		},
	}
	controller := NewApiController(&testutil.MockLogger{}, &mockSession{}, remote, testutil.NewMockCache())

	rec := httptest.NewRecorder()
	controller.GetAthlete(rec, httptest.NewRequest(http.MethodGet, "/athlete", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
